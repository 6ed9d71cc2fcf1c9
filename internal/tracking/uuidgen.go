package tracking

import (
	"context"
	"encoding/hex"

	"github.com/google/uuid"

	"proctorwis.org/internal/obs"
)

// defaultAllocateAttempts bounds the generate/check loop. A collision on a
// random 128-bit value is a birthday-bound improbability, but an unbounded
// loop is an availability hazard, so the budget is small and fixed.
const defaultAllocateAttempts = 10

// ExistsFunc reports whether a candidate identifier is already taken.
type ExistsFunc func(ctx context.Context, candidate string) (bool, error)

// UUIDAllocator hands out globally unique participant identifiers: random
// 128-bit values, hex-encoded without separators. The existence pre-check is
// best effort only; the store's unique index on the uuid column is the actual
// correctness guarantee under concurrent writers.
type UUIDAllocator struct {
	maxAttempts int
	newValue    func() string
}

// AllocatorOption configures a UUIDAllocator.
type AllocatorOption func(*UUIDAllocator)

// WithMaxAttempts overrides the generate/check retry budget.
func WithMaxAttempts(n int) AllocatorOption {
	return func(a *UUIDAllocator) {
		if n > 0 {
			a.maxAttempts = n
		}
	}
}

// WithValueSource overrides candidate generation. Tests use it to force
// collisions deterministically.
func WithValueSource(fn func() string) AllocatorOption {
	return func(a *UUIDAllocator) {
		if fn != nil {
			a.newValue = fn
		}
	}
}

// NewUUIDAllocator constructs an allocator with the default budget and a
// crypto-random value source.
func NewUUIDAllocator(opts ...AllocatorOption) *UUIDAllocator {
	a := &UUIDAllocator{
		maxAttempts: defaultAllocateAttempts,
		newValue:    randomHex128,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// randomHex128 returns a v4 uuid with the separators dropped, 32 lowercase
// hex characters.
func randomHex128() string {
	u := uuid.New()
	return hex.EncodeToString(u[:])
}

// Allocate generates candidates until exists reports one free, up to the
// retry budget. It returns ErrAllocationExhausted when the budget runs out
// and surfaces any failure from the existence check unchanged.
func (a *UUIDAllocator) Allocate(ctx context.Context, exists ExistsFunc) (string, error) {
	for i := 0; i < a.maxAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		candidate := a.newValue()
		obs.AllocationAttempt()
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		obs.LogEvent("tracking.uuid_collision", map[string]any{"attempt": i + 1})
	}
	return "", ErrAllocationExhausted
}
