package dedupe

import (
	"context"
	"fmt"
	"sort"

	"github.com/pitchside/pitchside/pkg/errors"
	"github.com/pitchside/pitchside/pkg/identity"
	"github.com/pitchside/pitchside/pkg/logging"
)

// Survivor picks which record of a duplicate group is kept. Precedence:
// external records over internal ones, then more dependent references, then
// the lowest namespace-local integer for a stable tie-break.
func Survivor(records []Record) Record {
	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.ID.Namespace != b.ID.Namespace {
			return a.ID.Namespace == identity.External
		}
		if a.Dependents != b.Dependents {
			return a.Dependents > b.Dependents
		}
		return a.ID.Local < b.ID.Local
	})
	return sorted[0]
}

// TxOps is the per-transaction surface the merger drives. Implementations
// run every call inside the same transaction.
type TxOps interface {
	// CountRefs returns how many report references currently resolve to id.
	CountRefs(ctx context.Context, kind string, id identity.CanonicalID) (int, error)
	// Repoint rewrites references resolving to from so they point at to,
	// returning the number moved.
	Repoint(ctx context.Context, kind string, from, to identity.CanonicalID) (int64, error)
	// DeleteEntity removes one entity record.
	DeleteEntity(ctx context.Context, kind string, id identity.CanonicalID) error
	// HasExternal reports whether an external record with the given local
	// integer exists.
	HasExternal(ctx context.Context, kind string, local int64) (bool, error)
}

// MergeStore is the store surface the merger needs.
type MergeStore interface {
	// CountRefs is the out-of-transaction variant used for reporting.
	CountRefs(ctx context.Context, kind string, id identity.CanonicalID) (int, error)
	// InMergeTx runs fn in one transaction, committing only if it returns
	// nil.
	InMergeTx(ctx context.Context, fn func(TxOps) error) error
}

// Merger collapses exact duplicate groups. Near groups are never merged
// here; they only appear in reports.
type Merger struct {
	store MergeStore
}

// NewMerger creates a merger over the given store.
func NewMerger(store MergeStore) *Merger {
	return &Merger{store: store}
}

// MergeResult describes one completed merge.
type MergeResult struct {
	Kind     string
	Survivor identity.CanonicalID
	Losers   []identity.CanonicalID
	Moved    int
}

// Merge collapses one exact group into its survivor. Every dependent
// reference of every loser is repointed, the move counts are verified
// against the counts taken inside the same transaction, and only then are
// the losers deleted. Any shortfall rolls the whole group back and returns
// a fatal MergeError.
func (m *Merger) Merge(ctx context.Context, kind string, group Group) (MergeResult, error) {
	if group.Grade != GradeExact {
		return MergeResult{}, fmt.Errorf("merge %s group %q: only exact groups are mergeable", kind, group.Key)
	}
	if len(group.Records) < 2 {
		return MergeResult{}, fmt.Errorf("merge %s group %q: need at least two records", kind, group.Key)
	}
	// Provider-fed records are read-only; a merge must have at least one
	// internally authored record to delete.
	hasInternal := false
	for _, r := range group.Records {
		if r.ID.Namespace == identity.Internal {
			hasInternal = true
			break
		}
	}
	if !hasInternal {
		return MergeResult{}, fmt.Errorf("merge %s group %q: every record is provider-fed, nothing to collapse", kind, group.Key)
	}

	survivor := Survivor(group.Records)
	var losers []identity.CanonicalID
	for _, r := range group.Records {
		if r.ID != survivor.ID {
			losers = append(losers, r.ID)
		}
	}

	log := logging.FromContext(ctx)
	result := MergeResult{Kind: kind, Survivor: survivor.ID, Losers: losers}

	err := m.store.InMergeTx(ctx, func(ops TxOps) error {
		// A survivor in the internal namespace must not be shadowed by an
		// external record with the same local integer, or the repointed
		// bare references would resolve to the wrong record.
		if survivor.ID.Namespace == identity.Internal {
			shadowed, err := ops.HasExternal(ctx, kind, survivor.ID.Local)
			if err != nil {
				return err
			}
			if shadowed {
				return &errors.CollisionError{
					Kind:    kind,
					LocalID: survivor.ID.Local,
					Detail:  "merge survivor is shadowed by an external record",
				}
			}
		}

		before, err := ops.CountRefs(ctx, kind, survivor.ID)
		if err != nil {
			return err
		}

		expected := 0
		moved := int64(0)
		for _, loser := range losers {
			n, err := ops.CountRefs(ctx, kind, loser)
			if err != nil {
				return err
			}
			expected += n

			mv, err := ops.Repoint(ctx, kind, loser, survivor.ID)
			if err != nil {
				return err
			}
			moved += mv
		}

		after, err := ops.CountRefs(ctx, kind, survivor.ID)
		if err != nil {
			return err
		}
		if int(moved) != expected || after != before+expected {
			return &errors.MergeError{
				Survivor: survivor.ID.String(),
				Losers:   idStrings(losers),
				Expected: expected,
				Moved:    int(moved),
			}
		}

		for _, loser := range losers {
			if err := ops.DeleteEntity(ctx, kind, loser); err != nil {
				return err
			}
		}

		result.Moved = expected
		return nil
	})
	if err != nil {
		return MergeResult{}, err
	}

	log.Info().
		Str("kind", kind).
		Str("survivor", survivor.ID.String()).
		Strs("losers", idStrings(losers)).
		Int("moved_refs", result.Moved).
		Msg("merged duplicate group")
	return result, nil
}

func idStrings(ids []identity.CanonicalID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
