package security

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// Hasher runs bcrypt with a bounded number of concurrent workers so hashing
// cannot starve request handling.
type Hasher struct {
	sem    *semaphore.Weighted
	checks atomic.Int64

	mu           sync.Mutex
	placeholders map[int]string
}

func NewHasher(workers int) *Hasher {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Hasher{
		sem:          semaphore.NewWeighted(int64(workers)),
		placeholders: make(map[int]string),
	}
}

// Placeholder returns a hash at cost that no password is expected to match.
// Checking against it costs the same as checking a real account.
func (h *Hasher) Placeholder(ctx context.Context, cost int) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if hash, ok := h.placeholders[cost]; ok {
		return hash, nil
	}

	secret, err := RandomID(32)
	if err != nil {
		return "", err
	}
	hash, err := h.Hash(ctx, secret, cost)
	if err != nil {
		return "", err
	}
	h.placeholders[cost] = hash
	return hash, nil
}

// Checks is the number of bcrypt comparisons run so far.
func (h *Hasher) Checks() int64 {
	return h.checks.Load()
}

// Hash returns the bcrypt hash of password at the given cost.
func (h *Hasher) Hash(ctx context.Context, password string, cost int) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Check reports whether password matches hash. A malformed or empty hash never matches.
func (h *Hasher) Check(ctx context.Context, password, hash string) (bool, error) {
	if hash == "" {
		return false, nil
	}
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.sem.Release(1)

	h.checks.Add(1)
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword),
		errors.Is(err, bcrypt.ErrHashTooShort):
		return false, nil
	default:
		var invalid bcrypt.InvalidHashPrefixError
		if errors.As(err, &invalid) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check password: %w", err)
	}
}
