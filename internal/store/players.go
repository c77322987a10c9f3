package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"

	"github.com/pitchside/pitchside/pkg/errors"
	"github.com/pitchside/pitchside/pkg/identity"
	"github.com/pitchside/pitchside/pkg/match"
)

// Player is one stored player row. Exactly one of ProviderID and InternalID
// is set; CanonicalID derives the namespace from whichever it is.
type Player struct {
	RowID       int64          `db:"id"`
	ProviderID  sql.NullInt64  `db:"provider_id"`
	InternalID  sql.NullInt64  `db:"internal_id"`
	Source      string         `db:"source"`
	Name        string         `db:"name"`
	Country     sql.NullString `db:"country"`
	Position    sql.NullString `db:"position"`
	ProviderRef sql.NullString `db:"provider_ref"`
}

// CanonicalID returns the namespaced identity of the row.
func (p Player) CanonicalID() identity.CanonicalID {
	if p.ProviderID.Valid {
		return identity.ExternalID(p.ProviderID.Int64)
	}
	return identity.InternalID(p.InternalID.Int64)
}

// PlayerRepo reads and writes the players table.
type PlayerRepo struct {
	db *sqlx.DB
}

// InsertExternal stores a provider-fed player.
func (r *PlayerRepo) InsertExternal(ctx context.Context, providerID int64, name string, attrs PlayerAttrs) error {
	return r.insert(ctx, Player{
		ProviderID:  sql.NullInt64{Int64: providerID, Valid: true},
		Source:      "external",
		Name:        name,
		Country:     attrs.Country,
		Position:    attrs.Position,
		ProviderRef: attrs.ProviderRef,
	})
}

// InsertInternal stores an internally authored player under a freshly
// allocated canonical ID.
func (r *PlayerRepo) InsertInternal(ctx context.Context, id identity.CanonicalID, name string) error {
	if id.Namespace != identity.Internal {
		return fmt.Errorf("insert internal player: id %s is not internal", id)
	}
	return r.insert(ctx, Player{
		InternalID: sql.NullInt64{Int64: id.Local, Valid: true},
		Source:     "internal",
		Name:       name,
	})
}

// PlayerAttrs holds the optional metadata columns.
type PlayerAttrs struct {
	Country     sql.NullString
	Position    sql.NullString
	ProviderRef sql.NullString
}

func (r *PlayerRepo) insert(ctx context.Context, p Player) error {
	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertInto("players")
	ib.Cols("provider_id", "internal_id", "source", "name", "country", "position", "provider_ref")
	ib.Values(p.ProviderID, p.InternalID, p.Source, p.Name, p.Country, p.Position, p.ProviderRef)
	query, args := ib.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert player %q: %w", p.Name, err)
	}
	return nil
}

// Get fetches a player by canonical ID.
func (r *PlayerRepo) Get(ctx context.Context, id identity.CanonicalID) (Player, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("*").From("players")
	if id.Namespace == identity.External {
		sb.Where(sb.Equal("provider_id", id.Local))
	} else {
		sb.Where(sb.Equal("internal_id", id.Local))
	}
	query, args := sb.Build()

	var p Player
	if err := r.db.GetContext(ctx, &p, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return Player{}, &errors.NotFoundError{Kind: "player", ID: id.Local}
		}
		return Player{}, fmt.Errorf("get player %s: %w", id, err)
	}
	return p, nil
}

// List returns every stored player, oldest row first.
func (r *PlayerRepo) List(ctx context.Context) ([]Player, error) {
	var out []Player
	if err := r.db.SelectContext(ctx, &out, "SELECT * FROM players ORDER BY id"); err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	return out, nil
}

// Candidates returns the match snapshot of the player population.
func (r *PlayerRepo) Candidates(ctx context.Context) ([]match.Candidate, error) {
	players, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]match.Candidate, len(players))
	for i, p := range players {
		out[i] = match.Candidate{ID: p.CanonicalID(), Name: p.Name}
	}
	return out, nil
}

// UpdateAttrs rewrites the metadata columns and display name of one player.
// Used by the backfill propagator; identity columns never change.
func (r *PlayerRepo) UpdateAttrs(ctx context.Context, id identity.CanonicalID, name string, attrs PlayerAttrs) error {
	ub := sqlbuilder.SQLite.NewUpdateBuilder()
	ub.Update("players")
	ub.Set(
		ub.Assign("name", name),
		ub.Assign("country", attrs.Country),
		ub.Assign("position", attrs.Position),
		ub.Assign("provider_ref", attrs.ProviderRef),
	)
	if id.Namespace == identity.External {
		ub.Where(ub.Equal("provider_id", id.Local))
	} else {
		ub.Where(ub.Equal("internal_id", id.Local))
	}
	query, args := ub.Build()

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update player %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &errors.NotFoundError{Kind: "player", ID: id.Local}
	}
	return nil
}
