package repository

import (
	"context"
	"sync"
	"time"

	"pollogram/backend/internal/user/domain"
)

// MemoryRepository is an in-process Repository for local development and tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	users    map[string]*domain.User
	profiles map[string]*domain.Profile // by user id
}

// NewMemoryRepository returns an empty in-memory user repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:    make(map[string]*domain.User),
		profiles: make(map[string]*domain.Profile),
	}
}

func (m *MemoryRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemoryRepository) GetProfileByUserID(_ context.Context, userID string) (*domain.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryRepository) GetProfileByUsername(_ context.Context, username string) (*domain.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.profiles {
		if p.Username == username {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

// CreateWithProfile enforces the same uniqueness rules as the database under one lock.
func (m *MemoryRepository) CreateWithProfile(_ context.Context, u *domain.User, p *domain.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return domain.ErrEmailTaken
		}
	}
	for _, existing := range m.profiles {
		if existing.Username == p.Username {
			return domain.ErrUsernameTaken
		}
	}
	uc, pc := *u, *p
	m.users[u.ID] = &uc
	m.profiles[u.ID] = &pc
	return nil
}

func (m *MemoryRepository) UpdateRole(_ context.Context, userID string, role domain.Role) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return false, nil
	}
	u.Role = role
	u.UpdatedAt = time.Now().UTC()
	return true, nil
}

// Delete removes a user and its profile. Used by tests to simulate account deletion.
func (m *MemoryRepository) Delete(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, userID)
	delete(m.profiles, userID)
}
