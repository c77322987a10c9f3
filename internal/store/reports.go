package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
)

// Report is one scouting report row. PlayerRef and FixtureRef are bare
// namespace-local integers; resolve them through identity.Resolver.
type Report struct {
	RowID      int64          `db:"id"`
	RunID      sql.NullString `db:"run_id"`
	PlayerRef  int64          `db:"player_ref"`
	FixtureRef int64          `db:"fixture_ref"`
	ScoutID    sql.NullInt64  `db:"scout_id"`
	ReportDate sql.NullString `db:"report_date"`
	Notes      sql.NullString `db:"notes"`
}

// ReportRepo reads and writes the reports table.
type ReportRepo struct {
	db *sqlx.DB
}

// Insert stores one report.
func (r *ReportRepo) Insert(ctx context.Context, rep Report) error {
	ib := sqlbuilder.SQLite.NewInsertBuilder()
	ib.InsertInto("reports")
	ib.Cols("run_id", "player_ref", "fixture_ref", "scout_id", "report_date", "notes")
	ib.Values(rep.RunID, rep.PlayerRef, rep.FixtureRef, rep.ScoutID, rep.ReportDate, rep.Notes)
	query, args := ib.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// Count returns the total number of stored reports.
func (r *ReportRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, "SELECT count(*) FROM reports"); err != nil {
		return 0, fmt.Errorf("count reports: %w", err)
	}
	return n, nil
}

// ListByRun returns the reports written under one batch run.
func (r *ReportRepo) ListByRun(ctx context.Context, runID string) ([]Report, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("*").From("reports")
	sb.Where(sb.Equal("run_id", runID))
	sb.OrderBy("id")
	query, args := sb.Build()

	var out []Report
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("list reports for run %s: %w", runID, err)
	}
	return out, nil
}

// refColumn maps an entity kind to its reference column in reports.
func refColumn(kind string) (string, error) {
	switch kind {
	case "player":
		return "player_ref", nil
	case "fixture":
		return "fixture_ref", nil
	default:
		return "", fmt.Errorf("unknown reference kind %q", kind)
	}
}
