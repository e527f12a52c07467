package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"pollogram/backend/internal/events"
	"pollogram/backend/internal/security"
	sessionrepo "pollogram/backend/internal/session/repository"
	userrepo "pollogram/backend/internal/user/repository"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingRecorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingRecorder) Record(_ context.Context, e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingRecorder) types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type memRevocations struct {
	mu    sync.Mutex
	marks map[string]time.Time
}

func (m *memRevocations) MarkRevoked(_ context.Context, userID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.marks == nil {
		m.marks = make(map[string]time.Time)
	}
	m.marks[userID] = at
	return nil
}

func (m *memRevocations) get(userID string) (time.Time, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	at, ok := m.marks[userID]
	return at, ok
}

type testEnv struct {
	svc         *AuthService
	users       *userrepo.MemoryRepository
	sessions    *sessionrepo.MemoryRepository
	tokens      *security.TokenCodec
	clock       *fakeClock
	recorder    *recordingRecorder
	revocations *memRevocations
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	tokens := security.NewTestTokenCodec()
	tokens.SetClock(clock.Now)
	env := &testEnv{
		users:       userrepo.NewMemoryRepository(),
		sessions:    sessionrepo.NewMemoryRepository(),
		tokens:      tokens,
		clock:       clock,
		recorder:    &recordingRecorder{},
		revocations: &memRevocations{},
	}
	env.svc = NewAuthService(Deps{
		Users:       env.users,
		Sessions:    env.sessions,
		Hasher:      security.NewHasher(4, 4),
		Tokens:      tokens,
		Revocations: env.revocations,
		Recorder:    env.recorder,
		Now:         clock.Now,
	})
	return env
}
