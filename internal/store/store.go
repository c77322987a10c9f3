// Package store is the SQLite persistence layer. It holds the two-namespace
// entity tables, the bare-integer report references and the internal ID
// sequence, and implements the query surfaces the matching, dedupe and
// backfill layers are written against.
package store

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pitchside/pitchside/pkg/identity"
)

//go:embed schema.sql
var schemaSQL string

// Store wraps the database handle and the repositories over it.
type Store struct {
	db *sqlx.DB
}

// Open opens (creating if needed) the SQLite database at path. Use
// ":memory:" for an ephemeral database in tests.
func Open(path string) (*Store, error) {
	dsn := path
	if path == ":memory:" {
		// Shared cache keeps the in-memory database alive across the
		// pooled connections sqlx hands out; the random name keeps
		// separate opens isolated from each other.
		dsn = fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	}
	db, err := sqlx.Open("sqlite3", dsn+dsnParams(dsn))
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func dsnParams(dsn string) string {
	sep := "?"
	for _, c := range dsn {
		if c == '?' {
			sep = "&"
		}
	}
	return sep + "_foreign_keys=on&_busy_timeout=5000"
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate applies the schema. Statements are idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Players returns the player repository.
func (s *Store) Players() *PlayerRepo { return &PlayerRepo{db: s.db} }

// Fixtures returns the fixture repository.
func (s *Store) Fixtures() *FixtureRepo { return &FixtureRepo{db: s.db} }

// Scouts returns the scout repository.
func (s *Store) Scouts() *ScoutRepo { return &ScoutRepo{db: s.db} }

// Reports returns the report repository.
func (s *Store) Reports() *ReportRepo { return &ReportRepo{db: s.db} }

// withTx runs fn inside a transaction, rolling back on error or panic.
func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

// dateKey is the canonical storage form for fixture dates.
func dateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// tableFor maps an entity kind to its table, for the generic namespace
// queries.
func tableFor(kind string) (string, error) {
	switch kind {
	case "player":
		return "players", nil
	case "fixture":
		return "fixtures", nil
	default:
		return "", fmt.Errorf("unknown entity kind %q", kind)
	}
}

// Exists implements identity.Population over the entity tables.
func (s *Store) Exists(ctx context.Context, kind string, ns identity.Namespace, local int64) (bool, error) {
	table, err := tableFor(kind)
	if err != nil {
		return false, err
	}
	col := "provider_id"
	if ns == identity.Internal {
		col = "internal_id"
	}
	var n int
	query := fmt.Sprintf("SELECT count(*) FROM %s WHERE %s = ?", table, col)
	if err := s.db.GetContext(ctx, &n, query, local); err != nil {
		return false, fmt.Errorf("existence check %s %s:%d: %w", kind, ns, local, err)
	}
	return n > 0, nil
}

// Next implements identity.Sequence against the internal_seq table. The
// counter advances in its own transaction, so a consumed value is never
// handed out again even if the caller's work fails afterwards.
func (s *Store) Next(ctx context.Context, kind string) (int64, error) {
	var next int64
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		row := tx.QueryRowxContext(ctx, `
			INSERT INTO internal_seq (kind, next) VALUES (?, 1)
			ON CONFLICT (kind) DO UPDATE SET next = next + 1
			RETURNING next`, kind)
		return row.Scan(&next)
	})
	if err != nil {
		return 0, fmt.Errorf("advance %s sequence: %w", kind, err)
	}
	return next, nil
}
