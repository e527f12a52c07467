package security

import (
	"context"
	"runtime"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// ErrMismatch is returned by Compare when the secret does not match the hash.
var ErrMismatch = bcrypt.ErrMismatchedHashAndPassword

// Hasher hashes and verifies secrets using bcrypt. Callers must not log or
// persist plaintext passwords or raw refresh tokens.
//
// bcrypt is CPU-bound, so at most Concurrency computations run at once. A
// request waiting for a slot gives up when its context is cancelled.
type Hasher struct {
	Cost int

	sem *semaphore.Weighted
}

// NewHasher returns a Hasher with the given bcrypt cost (4–31) and at most
// concurrency parallel computations. concurrency <= 0 uses GOMAXPROCS.
func NewHasher(cost, concurrency int) *Hasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	return &Hasher{Cost: cost, sem: semaphore.NewWeighted(int64(concurrency))}
}

// Hash produces a bcrypt hash of secret suitable for storage.
func (h *Hasher) Hash(ctx context.Context, secret []byte) (string, error) {
	if err := h.acquire(ctx); err != nil {
		return "", err
	}
	defer h.release()
	b, err := bcrypt.GenerateFromPassword(secret, h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare verifies secret against the stored hash. Returns nil on match,
// ErrMismatch on mismatch, or the context error.
func (h *Hasher) Compare(ctx context.Context, hash string, secret []byte) error {
	if err := h.acquire(ctx); err != nil {
		return err
	}
	defer h.release()
	return bcrypt.CompareHashAndPassword([]byte(hash), secret)
}

func (h *Hasher) acquire(ctx context.Context) error {
	if h.sem == nil {
		return ctx.Err()
	}
	return h.sem.Acquire(ctx, 1)
}

func (h *Hasher) release() {
	if h.sem != nil {
		h.sem.Release(1)
	}
}
