package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"

	"github.com/pitchside/pitchside/pkg/errors"
	"github.com/pitchside/pitchside/pkg/identity"
	"github.com/pitchside/pitchside/pkg/match"
	"github.com/pitchside/pitchside/pkg/teamname"
)

// Fixture is one stored fixture row. The *_norm columns hold the canonical
// form of the team names and are what variant lookups search against.
type Fixture struct {
	RowID       int64          `db:"id"`
	ProviderID  sql.NullInt64  `db:"provider_id"`
	InternalID  sql.NullInt64  `db:"internal_id"`
	Source      string         `db:"source"`
	HomeName    string         `db:"home_name"`
	AwayName    string         `db:"away_name"`
	HomeNorm    string         `db:"home_norm"`
	AwayNorm    string         `db:"away_norm"`
	Kickoff     string         `db:"kickoff"`
	Competition sql.NullString `db:"competition"`
	Country     sql.NullString `db:"country"`
	ProviderRef sql.NullString `db:"provider_ref"`
}

// CanonicalID returns the namespaced identity of the row.
func (f Fixture) CanonicalID() identity.CanonicalID {
	if f.ProviderID.Valid {
		return identity.ExternalID(f.ProviderID.Int64)
	}
	return identity.InternalID(f.InternalID.Int64)
}

// Date parses the stored kickoff day as UTC midnight.
func (f Fixture) Date() time.Time {
	t, _ := time.ParseInLocation("2006-01-02", f.Kickoff, time.UTC)
	return t
}

// FixtureAttrs holds the optional metadata columns.
type FixtureAttrs struct {
	Competition sql.NullString
	Country     sql.NullString
	ProviderRef sql.NullString
}

// FixtureRepo reads and writes the fixtures table. It implements
// match.FixtureIndex.
type FixtureRepo struct {
	db *sqlx.DB
}

// InsertExternal stores a provider-fed fixture.
func (r *FixtureRepo) InsertExternal(ctx context.Context, providerID int64, home, away string, date time.Time, attrs FixtureAttrs) error {
	return r.insert(ctx, Fixture{
		ProviderID:  sql.NullInt64{Int64: providerID, Valid: true},
		Source:      "external",
		HomeName:    home,
		AwayName:    away,
		Kickoff:     dateKey(date),
		Competition: attrs.Competition,
		Country:     attrs.Country,
		ProviderRef: attrs.ProviderRef,
	})
}

// InsertInternal stores an internally authored fixture under a freshly
// allocated canonical ID.
func (r *FixtureRepo) InsertInternal(ctx context.Context, id identity.CanonicalID, home, away string, date time.Time) error {
	if id.Namespace != identity.Internal {
		return fmt.Errorf("insert internal fixture: id %s is not internal", id)
	}
	return r.insert(ctx, Fixture{
		InternalID: sql.NullInt64{Int64: id.Local, Valid: true},
		Source:     "internal",
		HomeName:   home,
		AwayName:   away,
		Kickoff:    dateKey(date),
	})
}

func (r *FixtureRepo) insert(ctx context.Context, f Fixture) error {
	f.HomeNorm = teamname.Canonical(f.HomeName)
	f.AwayNorm = teamname.Canonical(f.AwayName)

	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertInto("fixtures")
	ib.Cols("provider_id", "internal_id", "source", "home_name", "away_name",
		"home_norm", "away_norm", "kickoff", "competition", "country", "provider_ref")
	ib.Values(f.ProviderID, f.InternalID, f.Source, f.HomeName, f.AwayName,
		f.HomeNorm, f.AwayNorm, f.Kickoff, f.Competition, f.Country, f.ProviderRef)
	query, args := ib.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert fixture %q v %q: %w", f.HomeName, f.AwayName, err)
	}
	return nil
}

// Get fetches a fixture by canonical ID.
func (r *FixtureRepo) Get(ctx context.Context, id identity.CanonicalID) (Fixture, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("*").From("fixtures")
	if id.Namespace == identity.External {
		sb.Where(sb.Equal("provider_id", id.Local))
	} else {
		sb.Where(sb.Equal("internal_id", id.Local))
	}
	query, args := sb.Build()

	var f Fixture
	if err := r.db.GetContext(ctx, &f, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return Fixture{}, &errors.NotFoundError{Kind: "fixture", ID: id.Local}
		}
		return Fixture{}, fmt.Errorf("get fixture %s: %w", id, err)
	}
	return f, nil
}

// List returns every stored fixture, oldest row first.
func (r *FixtureRepo) List(ctx context.Context) ([]Fixture, error) {
	var out []Fixture
	if err := r.db.SelectContext(ctx, &out, "SELECT * FROM fixtures ORDER BY id"); err != nil {
		return nil, fmt.Errorf("list fixtures: %w", err)
	}
	return out, nil
}

// FindByTeamsAndDate implements match.FixtureIndex. Fragments are canonical
// team-name variants; they match as substrings of the stored canonical
// names, so "BARNSLEY" finds "FC BARNSLEY".
func (r *FixtureRepo) FindByTeamsAndDate(ctx context.Context, homeFragment, awayFragment string, date time.Time) ([]match.FixtureCandidate, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("*").From("fixtures")
	sb.Where(
		sb.Equal("kickoff", dateKey(date)),
		"instr(home_norm, "+sb.Var(homeFragment)+") > 0",
		"instr(away_norm, "+sb.Var(awayFragment)+") > 0",
	)
	sb.OrderBy("id")
	query, args := sb.Build()

	var rows []Fixture
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("find fixtures by teams on %s: %w", dateKey(date), err)
	}
	return toCandidates(rows), nil
}

// ListByDate implements match.FixtureIndex.
func (r *FixtureRepo) ListByDate(ctx context.Context, date time.Time) ([]match.FixtureCandidate, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("*").From("fixtures")
	sb.Where(sb.Equal("kickoff", dateKey(date)))
	sb.OrderBy("id")
	query, args := sb.Build()

	var rows []Fixture
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list fixtures on %s: %w", dateKey(date), err)
	}
	return toCandidates(rows), nil
}

func toCandidates(rows []Fixture) []match.FixtureCandidate {
	out := make([]match.FixtureCandidate, len(rows))
	for i, f := range rows {
		out[i] = match.FixtureCandidate{
			ID:   f.CanonicalID(),
			Home: f.HomeName,
			Away: f.AwayName,
			Date: f.Date(),
		}
	}
	return out
}

// UpdateAttrs rewrites the metadata columns and display names of one
// fixture. Identity columns and the kickoff date never change.
func (r *FixtureRepo) UpdateAttrs(ctx context.Context, id identity.CanonicalID, home, away string, attrs FixtureAttrs) error {
	ub := sqlbuilder.SQLite.NewUpdateBuilder()
	ub.Update("fixtures")
	ub.Set(
		ub.Assign("home_name", home),
		ub.Assign("away_name", away),
		ub.Assign("home_norm", teamname.Canonical(home)),
		ub.Assign("away_norm", teamname.Canonical(away)),
		ub.Assign("competition", attrs.Competition),
		ub.Assign("country", attrs.Country),
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
		return fmt.Errorf("update fixture %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &errors.NotFoundError{Kind: "fixture", ID: id.Local}
	}
	return nil
}
