package batch

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchside/pitchside/internal/store"
	"github.com/pitchside/pitchside/pkg/aliases"
	"github.com/pitchside/pitchside/pkg/audit"
	"github.com/pitchside/pitchside/pkg/errors"
	"github.com/pitchside/pitchside/pkg/identity"
	"github.com/pitchside/pitchside/pkg/match"
	"github.com/pitchside/pitchside/pkg/teamname"
)

// sliceSource is an in-memory RowSource.
type sliceSource struct {
	headers []string
	rows    [][]string
	pos     int
}

func (s *sliceSource) Headers() []string { return s.headers }

func (s *sliceSource) Next() ([]string, error) {
	if s.pos >= len(s.rows) {
		return nil, io.EOF
	}
	row := s.rows[s.pos]
	s.pos++
	return row, nil
}

// memReports collects inserted reports.
type memReports struct {
	mu   sync.Mutex
	rows []store.Report
}

func (m *memReports) Insert(_ context.Context, rep store.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, rep)
	return nil
}

// memIndex is an in-memory match.FixtureIndex.
type memIndex struct {
	fixtures []match.FixtureCandidate
}

func (m *memIndex) FindByTeamsAndDate(_ context.Context, homeFragment, awayFragment string, date time.Time) ([]match.FixtureCandidate, error) {
	var out []match.FixtureCandidate
	for _, f := range m.fixtures {
		if f.Date.Equal(date) &&
			strings.Contains(teamname.Canonical(f.Home), homeFragment) &&
			strings.Contains(teamname.Canonical(f.Away), awayFragment) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *memIndex) ListByDate(_ context.Context, date time.Time) ([]match.FixtureCandidate, error) {
	var out []match.FixtureCandidate
	for _, f := range m.fixtures {
		if f.Date.Equal(date) {
			out = append(out, f)
		}
	}
	return out, nil
}

// memCreators records created internal records.
type memCreators struct {
	mu       sync.Mutex
	players  []string
	fixtures []string
}

type memPlayerCreator struct{ c *memCreators }

func (m memPlayerCreator) InsertInternal(_ context.Context, id identity.CanonicalID, name string) error {
	m.c.mu.Lock()
	defer m.c.mu.Unlock()
	m.c.players = append(m.c.players, name)
	return nil
}

type memFixtureCreator struct{ c *memCreators }

func (m memFixtureCreator) InsertInternal(_ context.Context, id identity.CanonicalID, home, away string, _ time.Time) error {
	m.c.mu.Lock()
	defer m.c.mu.Unlock()
	m.c.fixtures = append(m.c.fixtures, home+" v "+away)
	return nil
}

type memSequence struct {
	mu sync.Mutex
	n  map[string]int64
}

func (s *memSequence) Next(_ context.Context, kind string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.n == nil {
		s.n = map[string]int64{}
	}
	s.n[kind]++
	return s.n[kind], nil
}

var importDay = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

type harness struct {
	driver  *Driver
	log     *audit.Log
	reports *memReports
	created *memCreators
}

func newHarness(cfg Config) *harness {
	log := audit.NewLog()
	players := match.NewPlayerMatcher(match.DefaultConfig(), aliases.New(), []match.Candidate{
		{ID: identity.ExternalID(1), Name: "John Smith"},
		{ID: identity.ExternalID(2), Name: "José Martínez"},
	}, log)
	scouts := match.NewScoutMatcher(match.DefaultConfig(), aliases.New(), []match.Candidate{
		{UserID: 42, Name: "Maria Santos"},
	}, log)
	fixtures := match.NewFixtureMatcher(match.DefaultConfig(), aliases.New(), &memIndex{
		fixtures: []match.FixtureCandidate{
			{ID: identity.ExternalID(100), Home: "Celtic", Away: "Rangers", Date: importDay},
			{ID: identity.ExternalID(101), Home: "FC Barnsley", Away: "Cliftonville FC", Date: importDay},
		},
	}, log)

	reports := &memReports{}
	created := &memCreators{}
	driver := NewDriver(cfg, players, scouts, fixtures, log, reports,
		identity.NewAllocator(&memSequence{}),
		memPlayerCreator{c: created}, memFixtureCreator{c: created})
	return &harness{driver: driver, log: log, reports: reports, created: created}
}

func headers() []string {
	return []string{"Scout", "Player", "Fixture", "Date", "Notes"}
}

func TestRunHappyPath(t *testing.T) {
	h := newHarness(Config{})
	src := &sliceSource{headers: headers(), rows: [][]string{
		{"Maria Santos", "John Smith", "Celtic v Rangers", "15/03/2024", "strong in the air"},
		{"Maria Santos", "jose martinez", "Barnsley v Cliftonville", "2024-03-15", ""},
	}}

	res, err := h.driver.Run(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Summary.RowsSeen)
	assert.Equal(t, 2, res.Written)
	assert.Zero(t, res.Summary.Failures)
	assert.Equal(t, 2, res.Resume)

	require.Len(t, h.reports.rows, 2)
	for _, rep := range h.reports.rows {
		assert.Equal(t, int64(42), rep.ScoutID.Int64)
		assert.Equal(t, h.log.RunID(), rep.RunID.String)
	}
}

func TestRunRecordsRowFailuresAndContinues(t *testing.T) {
	h := newHarness(Config{})
	src := &sliceSource{headers: headers(), rows: [][]string{
		{"", "Totally Unknown Person", "Celtic v Rangers", "15/03/2024", ""},
		{"", "John Smith", "not a fixture string", "15/03/2024", ""},
		{"", "John Smith", "Celtic v Rangers", "31/02/2024", ""},
		{"", "John Smith", "Celtic v Rangers", "15/03/2024", ""},
	}}

	res, err := h.driver.Run(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, 4, res.Summary.RowsSeen)
	assert.Equal(t, 1, res.Written)
	assert.Equal(t, 3, res.Summary.Failures)
	assert.Equal(t, 1, res.Summary.ByReason[errors.ReasonBelowThreshold])
	assert.Equal(t, 1, res.Summary.ByReason[errors.ReasonParseFailure])
	assert.Equal(t, 1, res.Summary.ByReason[errors.ReasonInvalidDate])
}

func TestRunUnresolvedScoutDegradesNotFails(t *testing.T) {
	h := newHarness(Config{})
	src := &sliceSource{headers: headers(), rows: [][]string{
		{"Unknown Scout Person", "John Smith", "Celtic v Rangers", "15/03/2024", ""},
	}}

	res, err := h.driver.Run(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Written, "row still written without a scout")
	assert.Equal(t, 1, res.Summary.Failures)
	require.Len(t, h.reports.rows, 1)
	assert.False(t, h.reports.rows[0].ScoutID.Valid)
}

func TestRunDryRunWritesNothing(t *testing.T) {
	h := newHarness(Config{DryRun: true})
	src := &sliceSource{headers: headers(), rows: [][]string{
		{"Maria Santos", "John Smith", "Celtic v Rangers", "15/03/2024", ""},
	}}

	res, err := h.driver.Run(context.Background(), src)
	require.NoError(t, err)
	assert.Zero(t, res.Written)
	assert.Empty(t, h.reports.rows)
	assert.Equal(t, 1, res.Summary.RowsSeen)
}

func TestRunCreateMissing(t *testing.T) {
	h := newHarness(Config{CreateMissing: true})
	src := &sliceSource{headers: headers(), rows: [][]string{
		{"", "Brand New Trialist", "Celtic v Rangers", "15/03/2024", ""},
		{"", "John Smith", "Stranraer v Annan Athletic", "15/03/2024", ""},
	}}

	res, err := h.driver.Run(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Written)
	assert.Equal(t, 2, res.Created)
	assert.Zero(t, res.Summary.Failures)
	assert.Equal(t, []string{"Brand New Trialist"}, h.created.players)
	assert.Equal(t, []string{"Stranraer v Annan Athletic"}, h.created.fixtures)
}

func TestRunOffsetSkipsRows(t *testing.T) {
	h := newHarness(Config{Offset: 1})
	src := &sliceSource{headers: headers(), rows: [][]string{
		{"", "John Smith", "Celtic v Rangers", "15/03/2024", ""},
		{"", "José Martínez", "Celtic v Rangers", "15/03/2024", ""},
	}}

	res, err := h.driver.Run(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Summary.RowsSeen)
	assert.Equal(t, 2, res.Resume)
}

func TestRunOffsetBeyondInput(t *testing.T) {
	h := newHarness(Config{Offset: 10})
	src := &sliceSource{headers: headers(), rows: [][]string{
		{"", "John Smith", "Celtic v Rangers", "15/03/2024", ""},
	}}

	_, err := h.driver.Run(context.Background(), src)
	assert.Error(t, err)
}

func TestRunMissingRequiredColumn(t *testing.T) {
	h := newHarness(Config{})
	src := &sliceSource{headers: []string{"Player", "Notes"}}

	_, err := h.driver.Run(context.Background(), src)
	assert.Error(t, err)
}

func TestRunEmptyInputIsCleanRun(t *testing.T) {
	h := newHarness(Config{})
	src := &sliceSource{headers: headers()}

	res, err := h.driver.Run(context.Background(), src)
	require.NoError(t, err)
	assert.Zero(t, res.Summary.RowsSeen)
	assert.Zero(t, res.Summary.Failures)
}

func TestRunParallelWorkers(t *testing.T) {
	h := newHarness(Config{Workers: 8, ChunkSize: 2})
	var rows [][]string
	for i := 0; i < 40; i++ {
		rows = append(rows, []string{"Maria Santos", "John Smith", "Celtic v Rangers", "15/03/2024", ""})
	}
	src := &sliceSource{headers: headers(), rows: rows}

	res, err := h.driver.Run(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 40, res.Summary.RowsSeen)
	assert.Equal(t, 40, res.Written)
	assert.Equal(t, 40, res.Resume)
}
