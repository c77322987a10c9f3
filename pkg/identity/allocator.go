package identity

import (
	"context"
	"sync"
)

// Sequence hands out the next value of a strictly increasing, per-kind
// counter. Implementations are expected to persist the counter (a database
// sequence row); the Allocator adds the process-level serialization on top.
type Sequence interface {
	// Next returns the next unused counter value for the given entity kind
	// and durably advances the counter before returning.
	Next(ctx context.Context, kind string) (int64, error)
}

// Allocator assigns namespace-local integers for newly created internally
// authored records. Allocation is serialized: concurrent requests can never
// observe or hand out the same value twice. Values are never reused, and the
// external namespace is never consulted — its integers come from the
// provider feed, not from here.
type Allocator struct {
	mu  sync.Mutex
	seq Sequence
}

// NewAllocator creates an allocator backed by the given sequence.
func NewAllocator(seq Sequence) *Allocator {
	return &Allocator{seq: seq}
}

// Allocate returns a fresh internal canonical ID for the given entity kind.
// Allocation happens exactly once per created record: callers must not retry
// a failed creation without rolling back the surrounding transaction, since
// the counter value is already consumed.
func (a *Allocator) Allocate(ctx context.Context, kind string) (CanonicalID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	local, err := a.seq.Next(ctx, kind)
	if err != nil {
		return CanonicalID{}, err
	}

	return InternalID(local), nil
}
