package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchside/pitchside/pkg/dedupe"
	"github.com/pitchside/pitchside/pkg/errors"
	"github.com/pitchside/pitchside/pkg/identity"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

var kickoff = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

func TestPlayerRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.Players().InsertExternal(ctx, 100, "José Martínez", PlayerAttrs{
		Country: sql.NullString{String: "ES", Valid: true},
	}))
	require.NoError(t, s.Players().InsertInternal(ctx, identity.InternalID(1), "Local Trialist"))

	p, err := s.Players().Get(ctx, identity.ExternalID(100))
	require.NoError(t, err)
	assert.Equal(t, "José Martínez", p.Name)
	assert.Equal(t, identity.ExternalID(100), p.CanonicalID())

	p, err = s.Players().Get(ctx, identity.InternalID(1))
	require.NoError(t, err)
	assert.Equal(t, "internal", p.Source)

	_, err = s.Players().Get(ctx, identity.ExternalID(999))
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestPopulationExists(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.Players().InsertExternal(ctx, 7, "Somebody", PlayerAttrs{}))

	ok, err := s.Exists(ctx, "player", identity.External, 7)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Exists(ctx, "player", identity.Internal, 7)
	require.NoError(t, err)
	assert.False(t, ok, "same integer in the other namespace is a different identity")
}

func TestSequenceAdvances(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for want := int64(1); want <= 5; want++ {
		got, err := s.Next(ctx, "player")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	// Kinds have independent counters.
	got, err := s.Next(ctx, "fixture")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}

func TestResolverAgainstStore(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.Players().InsertExternal(ctx, 5, "External Five", PlayerAttrs{}))
	require.NoError(t, s.Players().InsertInternal(ctx, identity.InternalID(5), "Internal Five"))
	require.NoError(t, s.Players().InsertInternal(ctx, identity.InternalID(6), "Internal Six"))

	r := identity.NewResolver(s)

	// 5 exists in both namespaces: ambiguous and fatal.
	_, err := r.Lookup(ctx, "player", 5)
	assert.ErrorIs(t, err, errors.ErrNamespaceCollision)

	id, err := r.Lookup(ctx, "player", 6)
	require.NoError(t, err)
	assert.Equal(t, identity.InternalID(6), id)
}

func TestFixtureVariantLookup(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.Fixtures().InsertExternal(ctx, 100, "FC Barnsley", "Cliftonville FC", kickoff, FixtureAttrs{}))
	require.NoError(t, s.Fixtures().InsertExternal(ctx, 101, "Celtic", "Rangers", kickoff, FixtureAttrs{}))

	// Canonical fragments match as substrings of the stored norms.
	found, err := s.Fixtures().FindByTeamsAndDate(ctx, "BARNSLEY", "CLIFTONVILLE", kickoff)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, identity.ExternalID(100), found[0].ID)

	// Wrong date finds nothing.
	found, err = s.Fixtures().FindByTeamsAndDate(ctx, "BARNSLEY", "CLIFTONVILLE", kickoff.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, found)

	all, err := s.Fixtures().ListByDate(ctx, kickoff)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCountRefsResolverSemantics(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.Fixtures().InsertExternal(ctx, 5, "Celtic", "Rangers", kickoff, FixtureAttrs{}))
	require.NoError(t, s.Fixtures().InsertInternal(ctx, identity.InternalID(5), "Celtic", "Rangers", kickoff))

	// Three reports referencing the bare integer 5.
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Reports().Insert(ctx, Report{PlayerRef: 1, FixtureRef: 5}))
	}

	// All three resolve to the external record; the shadowed internal one
	// owns nothing.
	n, err := s.CountRefs(ctx, "fixture", identity.ExternalID(5))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = s.CountRefs(ctx, "fixture", identity.InternalID(5))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMergeEndToEnd(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.Fixtures().InsertExternal(ctx, 9, "Celtic", "Rangers", kickoff, FixtureAttrs{}))
	require.NoError(t, s.Fixtures().InsertInternal(ctx, identity.InternalID(3), "Rangers", "Celtic", kickoff))

	require.NoError(t, s.Reports().Insert(ctx, Report{PlayerRef: 1, FixtureRef: 9}))
	require.NoError(t, s.Reports().Insert(ctx, Report{PlayerRef: 2, FixtureRef: 3}))
	require.NoError(t, s.Reports().Insert(ctx, Report{PlayerRef: 3, FixtureRef: 3}))

	m := dedupe.NewMerger(s)
	res, err := m.Merge(ctx, "fixture", dedupe.Group{
		Key:   "CELTIC|RANGERS@2024-03-15",
		Grade: dedupe.GradeExact,
		Records: []dedupe.Record{
			{ID: identity.ExternalID(9), Dependents: 1},
			{ID: identity.InternalID(3), Dependents: 2},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, identity.ExternalID(9), res.Survivor)
	assert.Equal(t, 2, res.Moved)

	n, err := s.CountRefs(ctx, "fixture", identity.ExternalID(9))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = s.Fixtures().Get(ctx, identity.InternalID(3))
	assert.ErrorIs(t, err, errors.ErrNotFound)

	total, err := s.Reports().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, total, "no report rows lost in the merge")
}

func TestScoutUpsert(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	require.NoError(t, s.Scouts().Upsert(ctx, 42, "J. Smith"))
	require.NoError(t, s.Scouts().Upsert(ctx, 42, "John Smith"))

	scouts, err := s.Scouts().List(ctx)
	require.NoError(t, err)
	require.Len(t, scouts, 1)
	assert.Equal(t, "John Smith", scouts[0].Name)
}

func TestUpdateAttrsUnknownID(t *testing.T) {
	s := testStore(t)
	err := s.Players().UpdateAttrs(context.Background(), identity.InternalID(99), "Nobody", PlayerAttrs{})
	assert.ErrorIs(t, err, errors.ErrNotFound)
}
