package identity

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchside/pitchside/pkg/errors"
)

func TestCanonicalIDRoundTrip(t *testing.T) {
	ids := []CanonicalID{
		ExternalID(1),
		ExternalID(987654321),
		InternalID(1),
		InternalID(42),
	}

	for _, id := range ids {
		t.Run(id.String(), func(t *testing.T) {
			parsed, err := Parse(id.String())
			require.NoError(t, err)
			assert.Equal(t, id, parsed)
		})
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "42", "external", "external:", "external:abc", "feed:42", "internal:-3", "internal:0"} {
		t.Run(s, func(t *testing.T) {
			_, err := Parse(s)
			assert.Error(t, err)
		})
	}
}

// memorySequence is an in-memory Sequence for allocator tests.
type memorySequence struct {
	mu       sync.Mutex
	counters map[string]int64
}

func (s *memorySequence) Next(_ context.Context, kind string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.counters == nil {
		s.counters = make(map[string]int64)
	}
	s.counters[kind]++
	return s.counters[kind], nil
}

func TestAllocatorStrictlyIncreasing(t *testing.T) {
	alloc := NewAllocator(&memorySequence{})
	ctx := context.Background()

	var prev int64
	for i := 0; i < 100; i++ {
		id, err := alloc.Allocate(ctx, "player")
		require.NoError(t, err)
		assert.Equal(t, Internal, id.Namespace)
		assert.Greater(t, id.Local, prev)
		prev = id.Local
	}
}

func TestAllocatorConcurrentNoDuplicates(t *testing.T) {
	alloc := NewAllocator(&memorySequence{})
	ctx := context.Background()

	const n = 200
	results := make(chan int64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := alloc.Allocate(ctx, "fixture")
			if err == nil {
				results <- id.Local
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int64]bool, n)
	count := 0
	for local := range results {
		assert.False(t, seen[local], "local id %d handed out twice", local)
		seen[local] = true
		count++
	}
	assert.Equal(t, n, count)
}

func TestNamespaceNonCollision(t *testing.T) {
	// N internal allocations interleaved with M external inserts must
	// produce N+M distinct canonical IDs even when the local integers
	// overlap numerically.
	alloc := NewAllocator(&memorySequence{})
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := int64(1); i <= 50; i++ {
		id, err := alloc.Allocate(ctx, "player")
		require.NoError(t, err)
		assert.False(t, seen[id.String()])
		seen[id.String()] = true

		ext := ExternalID(i) // same numeric value as the internal one
		assert.False(t, seen[ext.String()])
		seen[ext.String()] = true
	}
	assert.Len(t, seen, 100)
}

// mapPopulation is an in-memory Population for resolver tests.
type mapPopulation struct {
	external map[int64]bool
	internal map[int64]bool
}

func (p *mapPopulation) Exists(_ context.Context, _ string, ns Namespace, local int64) (bool, error) {
	if ns == External {
		return p.external[local], nil
	}
	return p.internal[local], nil
}

func TestResolverExternalCheckedFirst(t *testing.T) {
	r := NewResolver(&mapPopulation{
		external: map[int64]bool{10: true},
		internal: map[int64]bool{20: true},
	})
	ctx := context.Background()

	id, err := r.Lookup(ctx, "player", 10)
	require.NoError(t, err)
	assert.Equal(t, ExternalID(10), id)

	id, err = r.Lookup(ctx, "player", 20)
	require.NoError(t, err)
	assert.Equal(t, InternalID(20), id)
}

func TestResolverNotFound(t *testing.T) {
	r := NewResolver(&mapPopulation{external: map[int64]bool{}, internal: map[int64]bool{}})

	_, err := r.Lookup(context.Background(), "fixture", 99)
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestResolverAmbiguousIsFatal(t *testing.T) {
	r := NewResolver(&mapPopulation{
		external: map[int64]bool{7: true},
		internal: map[int64]bool{7: true},
	})

	_, err := r.Lookup(context.Background(), "fixture", 7)
	assert.ErrorIs(t, err, errors.ErrNamespaceCollision)
	assert.True(t, errors.IsFatal(err))
}
