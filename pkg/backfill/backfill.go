// Package backfill copies provider metadata onto internally authored
// records once a match between the two has been confirmed. Enrichment only:
// a field already holding a value is never overwritten, and an empty
// provider field never blanks anything.
package backfill

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pitchside/pitchside/internal/store"
	"github.com/pitchside/pitchside/pkg/identity"
	"github.com/pitchside/pitchside/pkg/logging"
	"github.com/pitchside/pitchside/pkg/teamname"
	"github.com/pitchside/pitchside/pkg/textnorm"
)

// PlayerStore is the player persistence surface the propagator needs.
// *store.PlayerRepo satisfies it.
type PlayerStore interface {
	Get(ctx context.Context, id identity.CanonicalID) (store.Player, error)
	UpdateAttrs(ctx context.Context, id identity.CanonicalID, name string, attrs store.PlayerAttrs) error
}

// FixtureStore is the fixture persistence surface. *store.FixtureRepo
// satisfies it.
type FixtureStore interface {
	Get(ctx context.Context, id identity.CanonicalID) (store.Fixture, error)
	UpdateAttrs(ctx context.Context, id identity.CanonicalID, home, away string, attrs store.FixtureAttrs) error
}

// Change records one applied field update, for the operator report.
type Change struct {
	Field string `json:"field"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// Propagator applies provider metadata to internal records.
type Propagator struct {
	players  PlayerStore
	fixtures FixtureStore
}

// New creates a propagator over the given stores.
func New(players PlayerStore, fixtures FixtureStore) *Propagator {
	return &Propagator{players: players, fixtures: fixtures}
}

// Player backfills the internal player `onto` from the external player
// `from`. The display name is adopted only when the two names already agree
// under folding, so a spelling fix never becomes a silent rename.
func (p *Propagator) Player(ctx context.Context, from, onto identity.CanonicalID) ([]Change, error) {
	if err := checkDirection(from, onto); err != nil {
		return nil, fmt.Errorf("backfill player: %w", err)
	}

	src, err := p.players.Get(ctx, from)
	if err != nil {
		return nil, err
	}
	dst, err := p.players.Get(ctx, onto)
	if err != nil {
		return nil, err
	}

	var changes []Change
	name := dst.Name
	if src.Name != dst.Name && textnorm.EqualFold(src.Name, dst.Name) {
		changes = append(changes, Change{Field: "name", From: dst.Name, To: src.Name})
		name = src.Name
	}

	attrs := store.PlayerAttrs{
		Country:     dst.Country,
		Position:    dst.Position,
		ProviderRef: dst.ProviderRef,
	}
	changes = fill(&attrs.Country, src.Country, "country", changes)
	changes = fill(&attrs.Position, src.Position, "position", changes)
	changes = fill(&attrs.ProviderRef, src.ProviderRef, "provider_ref", changes)

	if len(changes) == 0 {
		return nil, nil
	}
	if err := p.players.UpdateAttrs(ctx, onto, name, attrs); err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info().
		Str("from", from.String()).
		Str("onto", onto.String()).
		Int("fields", len(changes)).
		Msg("backfilled player metadata")
	return changes, nil
}

// Fixture backfills the internal fixture `onto` from the external fixture
// `from`. Team display names are adopted only when the stored name is one
// of the provider name's generated variants.
func (p *Propagator) Fixture(ctx context.Context, from, onto identity.CanonicalID) ([]Change, error) {
	if err := checkDirection(from, onto); err != nil {
		return nil, fmt.Errorf("backfill fixture: %w", err)
	}

	src, err := p.fixtures.Get(ctx, from)
	if err != nil {
		return nil, err
	}
	dst, err := p.fixtures.Get(ctx, onto)
	if err != nil {
		return nil, err
	}

	var changes []Change
	home := dst.HomeName
	if adoptTeamName(src.HomeName, dst.HomeName) {
		changes = append(changes, Change{Field: "home_name", From: dst.HomeName, To: src.HomeName})
		home = src.HomeName
	}
	away := dst.AwayName
	if adoptTeamName(src.AwayName, dst.AwayName) {
		changes = append(changes, Change{Field: "away_name", From: dst.AwayName, To: src.AwayName})
		away = src.AwayName
	}

	attrs := store.FixtureAttrs{
		Competition: dst.Competition,
		Country:     dst.Country,
		ProviderRef: dst.ProviderRef,
	}
	changes = fill(&attrs.Competition, src.Competition, "competition", changes)
	changes = fill(&attrs.Country, src.Country, "country", changes)
	changes = fill(&attrs.ProviderRef, src.ProviderRef, "provider_ref", changes)

	if len(changes) == 0 {
		return nil, nil
	}
	if err := p.fixtures.UpdateAttrs(ctx, onto, home, away, attrs); err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info().
		Str("from", from.String()).
		Str("onto", onto.String()).
		Int("fields", len(changes)).
		Msg("backfilled fixture metadata")
	return changes, nil
}

// adoptTeamName reports whether the provider spelling should replace the
// stored one: the stored name must be a generated variant of the provider
// name, so "BARNSLEY" upgrades to "FC Barnsley" but "Chester" never
// becomes "Chesterfield".
func adoptTeamName(provider, stored string) bool {
	if provider == stored {
		return false
	}
	storedCanonical := teamname.Canonical(stored)
	for _, v := range teamname.Variants(provider) {
		if v == storedCanonical {
			return true
		}
	}
	return false
}

// fill copies src into dst when dst is empty and src is not.
func fill(dst *sql.NullString, src sql.NullString, field string, changes []Change) []Change {
	if dst.Valid && dst.String != "" {
		return changes
	}
	if !src.Valid || src.String == "" {
		return changes
	}
	*dst = src
	return append(changes, Change{Field: field, From: "", To: src.String})
}

func checkDirection(from, onto identity.CanonicalID) error {
	if from.Namespace != identity.External {
		return fmt.Errorf("source %s is not external", from)
	}
	if onto.Namespace != identity.Internal {
		return fmt.Errorf("target %s is not internal", onto)
	}
	return nil
}
