// Package batch drives bulk report imports: it detects the input columns,
// fans rows out to a worker pool in chunks, resolves every entity reference
// through the match ladder, and records each outcome in the audit log. Rows
// fail individually; only the fatal error kinds stop the run.
package batch

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/pitchside/pitchside/internal/store"
	"github.com/pitchside/pitchside/pkg/audit"
	"github.com/pitchside/pitchside/pkg/errors"
	"github.com/pitchside/pitchside/pkg/fixture"
	"github.com/pitchside/pitchside/pkg/identity"
	"github.com/pitchside/pitchside/pkg/logging"
	"github.com/pitchside/pitchside/pkg/match"
)

// RowSource yields one sheet of input rows. Next returns io.EOF after the
// last row.
type RowSource interface {
	Headers() []string
	Next() ([]string, error)
}

// ReportWriter persists resolved reports. *store.ReportRepo satisfies it.
type ReportWriter interface {
	Insert(ctx context.Context, rep store.Report) error
}

// PlayerCreator creates internally authored players. *store.PlayerRepo
// satisfies it.
type PlayerCreator interface {
	InsertInternal(ctx context.Context, id identity.CanonicalID, name string) error
}

// FixtureCreator creates internally authored fixtures. *store.FixtureRepo
// satisfies it.
type FixtureCreator interface {
	InsertInternal(ctx context.Context, id identity.CanonicalID, home, away string, date time.Time) error
}

// Config tunes a run.
type Config struct {
	// Workers is the resolver pool size.
	Workers int
	// ChunkSize is how many rows one worker takes at a time. Resume
	// offsets are chunk-granular.
	ChunkSize int
	// Offset skips rows already processed by an earlier, interrupted run.
	Offset int
	// DryRun resolves and audits without writing reports or creating
	// records.
	DryRun bool
	// CreateMissing allocates an internal record for players and fixtures
	// that resolve to nothing, instead of failing the row.
	CreateMissing bool
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = 100
	}
	return c
}

// Driver runs one import.
type Driver struct {
	cfg      Config
	players  *match.NameMatcher
	scouts   *match.NameMatcher
	fixtures *match.FixtureMatcher
	log      *audit.Log
	reports  ReportWriter

	alloc          *identity.Allocator
	playerCreator  PlayerCreator
	fixtureCreator FixtureCreator

	mu      sync.Mutex
	created int
	written int
}

// NewDriver wires a driver. The creator arguments may be nil when
// Config.CreateMissing is off.
func NewDriver(cfg Config, players, scouts *match.NameMatcher, fixtures *match.FixtureMatcher,
	log *audit.Log, reports ReportWriter, alloc *identity.Allocator,
	playerCreator PlayerCreator, fixtureCreator FixtureCreator) *Driver {
	return &Driver{
		cfg:            cfg.withDefaults(),
		players:        players,
		scouts:         scouts,
		fixtures:       fixtures,
		log:            log,
		reports:        reports,
		alloc:          alloc,
		playerCreator:  playerCreator,
		fixtureCreator: fixtureCreator,
	}
}

// Result summarizes a completed or interrupted run.
type Result struct {
	Summary audit.Summary
	// Written is the number of report rows persisted.
	Written int
	// Created is the number of internal records allocated for unresolved
	// references.
	Created int
	// Resume is the row offset a follow-up run should pass as
	// Config.Offset. Equal to Offset plus all rows when the run finished.
	Resume int
}

// Run processes the source to completion or until the context is canceled
// or a fatal error surfaces. Per-row failures are recorded and skipped.
func (d *Driver) Run(ctx context.Context, src RowSource) (Result, error) {
	logger := logging.FromContext(ctx).With().Str("run_id", d.log.RunID()).Logger()
	ctx = logging.WithLogger(ctx, &logger)

	cols, err := DetectColumns(src.Headers())
	if err != nil {
		return Result{}, err
	}

	rows, err := readAll(src)
	if err != nil {
		return Result{}, err
	}
	if d.cfg.Offset > len(rows) {
		return Result{}, fmt.Errorf("offset %d beyond input of %d rows", d.cfg.Offset, len(rows))
	}
	rows = rows[d.cfg.Offset:]

	chunks := chunk(rows, d.cfg.ChunkSize)
	logger.Info().
		Int("rows", len(rows)).
		Int("chunks", len(chunks)).
		Int("workers", d.cfg.Workers).
		Bool("dry_run", d.cfg.DryRun).
		Msg("starting import run")

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg        sync.WaitGroup
		work      = make(chan int)
		doneMu    sync.Mutex
		doneChunk = make([]bool, len(chunks))
		fatalOnce sync.Once
		fatalErr  error
	)

	fatal := func(err error) {
		fatalOnce.Do(func() {
			fatalErr = err
			cancel()
		})
	}

	for w := 0; w < d.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				if runCtx.Err() != nil {
					return
				}
				for i, row := range chunks[idx] {
					rowNum := d.cfg.Offset + idx*d.cfg.ChunkSize + i + 1
					if err := d.processRow(runCtx, cols, rowNum, row); err != nil {
						fatal(err)
						return
					}
				}
				doneMu.Lock()
				doneChunk[idx] = true
				doneMu.Unlock()
			}
		}()
	}

feed:
	for idx := range chunks {
		select {
		case work <- idx:
		case <-runCtx.Done():
			break feed
		}
	}
	close(work)
	wg.Wait()

	resume := d.cfg.Offset
	doneMu.Lock()
	for _, done := range doneChunk {
		if !done {
			break
		}
		resume += d.cfg.ChunkSize
	}
	doneMu.Unlock()
	if resume > d.cfg.Offset+len(rows) {
		resume = d.cfg.Offset + len(rows)
	}

	d.mu.Lock()
	result := Result{
		Summary: d.log.Summarize(),
		Written: d.written,
		Created: d.created,
		Resume:  resume,
	}
	d.mu.Unlock()

	if fatalErr != nil {
		return result, fatalErr
	}
	if err := ctx.Err(); err != nil {
		logger.Warn().Int("resume_offset", resume).Msg("import run interrupted")
		return result, err
	}

	logger.Info().
		Int("rows_seen", result.Summary.RowsSeen).
		Int("written", result.Written).
		Int("failures", result.Summary.Failures).
		Msg("import run finished")
	return result, nil
}

// processRow resolves and persists one row. The row is one unit of work:
// either everything required resolves and a report is written, or the row
// is recorded as failed and nothing is written. Returned errors are fatal
// to the whole run.
func (d *Driver) processRow(ctx context.Context, cols ColumnMap, rowNum int, row []string) error {
	d.log.RowSeen()

	failRow := func(kind, input string, err error) error {
		if errors.IsFatal(err) {
			return err
		}
		d.log.AddFailure(audit.Failure{
			Kind:   kind,
			Reason: errors.Reason(err),
			Input:  input,
			Detail: err.Error(),
			Row:    rowNum,
		})
		return nil
	}

	// Scout is optional: an unresolved scout degrades the report, it does
	// not fail the row.
	var scoutID sql.NullInt64
	if cols.Has(RoleScout) {
		scoutName := cols.cell(row, RoleScout)
		if strings.TrimSpace(scoutName) != "" {
			res, err := d.scouts.Resolve(ctx, scoutName)
			switch {
			case err == nil:
				scoutID = sql.NullInt64{Int64: res.UserID, Valid: true}
			case errors.IsFatal(err):
				return err
			default:
				d.log.AddFailure(audit.Failure{
					Kind:   "scout",
					Reason: errors.Reason(err),
					Input:  scoutName,
					Detail: err.Error(),
					Row:    rowNum,
				})
			}
		}
	}

	playerName := cols.cell(row, RolePlayer)
	playerRes, err := d.players.Resolve(ctx, playerName)
	if err != nil && d.cfg.CreateMissing && creatable(err) {
		playerRes, err = d.createPlayer(ctx, playerName)
	}
	if err != nil {
		return failRow("player", playerName, err)
	}

	dateText := cols.cell(row, RoleDate)
	date, err := fixture.ParseDate(dateText)
	if err != nil {
		return failRow("fixture", dateText, err)
	}

	fixtureText := cols.cell(row, RoleFixture)
	fixtureRes, err := d.fixtures.Resolve(ctx, fixtureText, date)
	if err != nil && d.cfg.CreateMissing && creatable(err) {
		fixtureRes, err = d.createFixture(ctx, fixtureText, date)
	}
	if err != nil {
		return failRow("fixture", fixtureText, err)
	}

	d.log.Resolved()
	if d.cfg.DryRun {
		return nil
	}

	rep := store.Report{
		RunID:      sql.NullString{String: d.log.RunID(), Valid: true},
		PlayerRef:  playerRes.ID.Local,
		FixtureRef: fixtureRes.ID.Local,
		ScoutID:    scoutID,
		ReportDate: sql.NullString{String: date.Format("2006-01-02"), Valid: true},
	}
	if notes := cols.cell(row, RoleNotes); notes != "" {
		rep.Notes = sql.NullString{String: notes, Valid: true}
	}
	if err := d.reports.Insert(ctx, rep); err != nil {
		return fmt.Errorf("row %d: %w", rowNum, err)
	}

	d.mu.Lock()
	d.written++
	d.mu.Unlock()
	return nil
}

// creatable reports whether an unresolved reference may be replaced by a
// fresh internal record. Ambiguity (too many candidates) and bad input
// never are.
func creatable(err error) bool {
	return errors.IsNotFound(err) ||
		errors.IsBelowThreshold(err) ||
		errors.Is(err, errors.ErrNoCandidatesOnDate)
}

func (d *Driver) createPlayer(ctx context.Context, name string) (match.Result, error) {
	if d.alloc == nil || d.playerCreator == nil {
		return match.Result{}, fmt.Errorf("player creation not wired")
	}
	name = strings.TrimSpace(name)

	if d.cfg.DryRun {
		return match.Result{Name: name, Method: "created"}, nil
	}
	id, err := d.alloc.Allocate(ctx, "player")
	if err != nil {
		return match.Result{}, err
	}
	if err := d.playerCreator.InsertInternal(ctx, id, name); err != nil {
		return match.Result{}, err
	}
	d.mu.Lock()
	d.created++
	d.mu.Unlock()

	logging.FromContext(ctx).Info().
		Str("id", id.String()).
		Str("name", name).
		Msg("created internal player")
	return match.Result{ID: id, Name: name, Method: "created"}, nil
}

func (d *Driver) createFixture(ctx context.Context, description string, date time.Time) (match.Result, error) {
	if d.alloc == nil || d.fixtureCreator == nil {
		return match.Result{}, fmt.Errorf("fixture creation not wired")
	}
	home, away, err := fixture.Parse(description)
	if err != nil {
		return match.Result{}, err
	}

	if d.cfg.DryRun {
		return match.Result{Name: home + " v " + away, Method: "created"}, nil
	}
	id, err := d.alloc.Allocate(ctx, "fixture")
	if err != nil {
		return match.Result{}, err
	}
	if err := d.fixtureCreator.InsertInternal(ctx, id, home, away, date); err != nil {
		return match.Result{}, err
	}
	d.mu.Lock()
	d.created++
	d.mu.Unlock()

	logging.FromContext(ctx).Info().
		Str("id", id.String()).
		Str("fixture", home+" v "+away).
		Msg("created internal fixture")
	return match.Result{ID: id, Name: home + " v " + away, Method: "created"}, nil
}

func readAll(src RowSource) ([][]string, error) {
	var rows [][]string
	for {
		row, err := src.Next()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read input row %d: %w", len(rows)+1, err)
		}
		rows = append(rows, row)
	}
}

func chunk(rows [][]string, size int) [][][]string {
	var out [][][]string
	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		out = append(out, rows[start:end])
	}
	return out
}
