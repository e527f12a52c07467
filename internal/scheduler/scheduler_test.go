package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCleaner struct {
	calls atomic.Int32
	err   error
}

func (c *countingCleaner) CleanupExpiredTokens(context.Context) (int64, error) {
	c.calls.Add(1)
	return 2, c.err
}

func TestRegisterSessionCleanup_RunsImmediately(t *testing.T) {
	s, err := New(nil)
	require.NoError(t, err)
	cleaner := &countingCleaner{}
	require.NoError(t, s.RegisterSessionCleanup(cleaner, time.Hour))

	s.Start()
	t.Cleanup(func() { _ = s.Shutdown() })

	assert.Eventually(t, func() bool { return cleaner.calls.Load() >= 1 }, 5*time.Second, 10*time.Millisecond)
}

func TestRegisterSessionCleanup_ErrorsAreLogged(t *testing.T) {
	s, err := New(nil)
	require.NoError(t, err)
	cleaner := &countingCleaner{err: errors.New("db down")}
	require.NoError(t, s.RegisterSessionCleanup(cleaner, time.Hour))

	s.Start()
	t.Cleanup(func() { _ = s.Shutdown() })

	assert.Eventually(t, func() bool { return cleaner.calls.Load() >= 1 }, 5*time.Second, 10*time.Millisecond)
}

func TestRegisterSessionCleanup_RejectsNonPositiveInterval(t *testing.T) {
	s, err := New(nil)
	require.NoError(t, err)
	s.Start()
	t.Cleanup(func() { _ = s.Shutdown() })

	assert.Error(t, s.RegisterSessionCleanup(&countingCleaner{}, 0))
}
