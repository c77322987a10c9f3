package store

import (
	"context"
	"fmt"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"

	"github.com/pitchside/pitchside/pkg/match"
)

// Scout is one known report author.
type Scout struct {
	UserID int64  `db:"user_id"`
	Name   string `db:"name"`
}

// ScoutRepo reads and writes the scouts table.
type ScoutRepo struct {
	db *sqlx.DB
}

// Upsert stores or renames a scout.
func (r *ScoutRepo) Upsert(ctx context.Context, userID int64, name string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO scouts (user_id, name) VALUES (?, ?)
		ON CONFLICT (user_id) DO UPDATE SET name = excluded.name`, userID, name)
	if err != nil {
		return fmt.Errorf("upsert scout %d: %w", userID, err)
	}
	return nil
}

// List returns every scout ordered by user ID.
func (r *ScoutRepo) List(ctx context.Context) ([]Scout, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("*").From("scouts").OrderBy("user_id")
	query, args := sb.Build()

	var out []Scout
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("list scouts: %w", err)
	}
	return out, nil
}

// Candidates returns the match snapshot of the scout population.
func (r *ScoutRepo) Candidates(ctx context.Context) ([]match.Candidate, error) {
	scouts, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]match.Candidate, len(scouts))
	for i, s := range scouts {
		out[i] = match.Candidate{UserID: s.UserID, Name: s.Name}
	}
	return out, nil
}
