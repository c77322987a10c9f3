// Package audit records the outcome of every resolution pass: which fuzzy
// matches were accepted and with what score, and which rows failed and why.
// The log is the operator's tool for tuning thresholds and growing the alias
// tables, so every entry carries enough context to act on.
package audit

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// FuzzyMatch records one accepted similarity-based match. Exact and alias
// matches are not logged here; they need no review.
type FuzzyMatch struct {
	Kind        string  `json:"kind"`
	Input       string  `json:"input"`
	Matched     string  `json:"matched"`
	CanonicalID string  `json:"canonical_id"`
	Score       float64 `json:"score"`
	// AutoApproved marks scores that cleared the auto-approve bar; entries
	// without it are the ones worth a manual look.
	AutoApproved bool `json:"auto_approved"`
	// Date is the event date the match was scoped to. Zero for kinds that
	// carry no date, such as players and scouts.
	Date   time.Time `json:"date,omitzero"`
	Detail string    `json:"detail,omitempty"`
	Row    int       `json:"row,omitempty"`
	At     time.Time `json:"at"`
}

// Failure records one row that could not be resolved, with a stable machine
// reason and the offending input verbatim.
type Failure struct {
	Kind   string    `json:"kind"`
	Reason string    `json:"reason"`
	Input  string    `json:"input"`
	Detail string    `json:"detail,omitempty"`
	Row    int       `json:"row,omitempty"`
	At     time.Time `json:"at"`
}

// Log is an append-only, concurrency-safe record of one resolution run.
type Log struct {
	mu       sync.Mutex
	runID    string
	started  time.Time
	rowsSeen int
	resolved int
	fuzzy    []FuzzyMatch
	failures []Failure

	now func() time.Time
}

// NewLog starts a fresh log with a generated run ID.
func NewLog() *Log {
	return &Log{
		runID:   uuid.NewString(),
		started: time.Now().UTC(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// RunID returns the unique identifier of this run.
func (l *Log) RunID() string {
	return l.runID
}

// RowSeen counts one processed input row. The count lets reports distinguish
// a clean run over real input from a run that saw no input at all.
func (l *Log) RowSeen() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rowsSeen++
}

// Resolved counts one successfully resolved entity reference.
func (l *Log) Resolved() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resolved++
}

// AddFuzzyMatch appends an accepted fuzzy match.
func (l *Log) AddFuzzyMatch(m FuzzyMatch) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if m.At.IsZero() {
		m.At = l.now()
	}
	l.fuzzy = append(l.fuzzy, m)
}

// AddFailure appends an unresolved row.
func (l *Log) AddFailure(f Failure) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if f.At.IsZero() {
		f.At = l.now()
	}
	l.failures = append(l.failures, f)
}

// FuzzyMatches returns a copy of the accepted fuzzy matches, in insertion
// order.
func (l *Log) FuzzyMatches() []FuzzyMatch {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]FuzzyMatch, len(l.fuzzy))
	copy(out, l.fuzzy)
	return out
}

// Failures returns a copy of the recorded failures, in insertion order.
func (l *Log) Failures() []Failure {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Failure, len(l.failures))
	copy(out, l.failures)
	return out
}

// FailuresByReason returns failures carrying the given reason string.
func (l *Log) FailuresByReason(reason string) []Failure {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Failure
	for _, f := range l.failures {
		if f.Reason == reason {
			out = append(out, f)
		}
	}
	return out
}

// Summary aggregates the run for reporting.
type Summary struct {
	RunID        string         `json:"run_id"`
	Started      time.Time      `json:"started"`
	RowsSeen     int            `json:"rows_seen"`
	Resolved     int            `json:"resolved"`
	FuzzyMatches int            `json:"fuzzy_matches"`
	Failures     int            `json:"failures"`
	ByReason     map[string]int `json:"by_reason,omitempty"`
	ByKind       map[string]int `json:"by_kind,omitempty"`
}

// Summarize computes per-reason and per-kind failure counts. A summary with
// RowsSeen zero means the run had no input; RowsSeen nonzero with zero
// failures means everything resolved.
func (l *Log) Summarize() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := Summary{
		RunID:        l.runID,
		Started:      l.started,
		RowsSeen:     l.rowsSeen,
		Resolved:     l.resolved,
		FuzzyMatches: len(l.fuzzy),
		Failures:     len(l.failures),
	}
	if len(l.failures) > 0 {
		s.ByReason = make(map[string]int)
		s.ByKind = make(map[string]int)
		for _, f := range l.failures {
			s.ByReason[f.Reason]++
			s.ByKind[f.Kind]++
		}
	}
	return s
}
