// Package match resolves free-text names against stored entity populations.
// Every matcher runs the same ladder: operator alias first, then a
// case-insensitive exact match, then a bounded fuzzy scan. Each rung is cheaper to
// trust than the next, and only fuzzy acceptances are written to the audit
// log.
package match

import (
	"context"
	"fmt"
	"strings"

	"github.com/pitchside/pitchside/pkg/aliases"
	"github.com/pitchside/pitchside/pkg/audit"
	"github.com/pitchside/pitchside/pkg/errors"
	"github.com/pitchside/pitchside/pkg/identity"
	"github.com/pitchside/pitchside/pkg/textnorm"
)

// Method records which rung of the ladder produced a result.
type Method string

const (
	// MethodAlias means an operator alias resolved the input directly.
	MethodAlias Method = "alias"
	// MethodExact means the input matched a stored name ignoring case.
	MethodExact Method = "exact"
	// MethodVariant means a generated team-name variant matched a stored
	// fixture.
	MethodVariant Method = "variant"
	// MethodFuzzy means a similarity scan accepted the best candidate.
	MethodFuzzy Method = "fuzzy"
)

// Candidate is one stored record eligible for matching. Players and
// fixtures carry a canonical ID; scouts carry a bare user ID.
type Candidate struct {
	ID     identity.CanonicalID
	UserID int64
	Name   string
}

// Result is a successful resolution.
type Result struct {
	ID     identity.CanonicalID
	UserID int64
	Name   string
	Method Method
	// Score is set for fuzzy results only.
	Score float64
	// AutoApproved is true when the score cleared the auto-approve bar.
	AutoApproved bool
	// Detail explains non-obvious matches (which variant, swapped order).
	Detail string
}

// Sink receives accepted fuzzy matches. *audit.Log satisfies it.
type Sink interface {
	AddFuzzyMatch(audit.FuzzyMatch)
}

// NameMatcher resolves person-style names (players, scouts) against a fixed
// snapshot of candidates. The snapshot is built once per batch; matchers are
// safe for concurrent use because they never mutate it.
type NameMatcher struct {
	kind       string
	aliasKind  string
	cfg        Config
	aliases    *aliases.Table
	candidates []Candidate
	cleaned    []string
	byLower    map[string]int
	sink       Sink
}

// NewPlayerMatcher builds a matcher over the stored player population.
func NewPlayerMatcher(cfg Config, table *aliases.Table, candidates []Candidate, sink Sink) *NameMatcher {
	return newNameMatcher("player", cfg, table, candidates, sink)
}

// NewScoutMatcher builds a matcher over the known scouts. Scout results
// carry UserID rather than a canonical ID.
func NewScoutMatcher(cfg Config, table *aliases.Table, candidates []Candidate, sink Sink) *NameMatcher {
	return newNameMatcher("scout", cfg, table, candidates, sink)
}

func newNameMatcher(kind string, cfg Config, table *aliases.Table, candidates []Candidate, sink Sink) *NameMatcher {
	m := &NameMatcher{
		kind:       kind,
		aliasKind:  kind + "s",
		cfg:        cfg.withDefaults(),
		aliases:    table,
		candidates: candidates,
		cleaned:    make([]string, len(candidates)),
		byLower:    make(map[string]int, len(candidates)),
		sink:       sink,
	}
	for i, c := range candidates {
		m.cleaned[i] = textnorm.Clean(c.Name)
		// The exact index ignores case but keeps diacritics: an accent
		// mismatch must fall through to the fuzzy phase so the near-miss
		// shows up in the audit log operators build aliases from.
		key := strings.ToLower(c.Name)
		// First record with a given name wins exact lookups.
		if _, exists := m.byLower[key]; !exists {
			m.byLower[key] = i
		}
	}
	return m
}

// Resolve runs the match ladder for one input name.
func (m *NameMatcher) Resolve(ctx context.Context, input string) (Result, error) {
	search := strings.TrimSpace(input)
	if search == "" {
		return Result{}, errors.WrapResolution(m.kind, input, errors.ErrEmptyInput)
	}

	detail := ""
	if entry, ok := m.aliases.Lookup(m.aliasKind, search); ok {
		switch {
		case !entry.ID.IsZero():
			r := Result{ID: entry.ID, Method: MethodAlias}
			if i, found := m.indexOf(entry.ID); found {
				r.Name = m.candidates[i].Name
			}
			return r, nil
		case entry.UserID != 0:
			return Result{UserID: entry.UserID, Method: MethodAlias}, nil
		default:
			// Name alias: keep matching with the canonical spelling.
			search = entry.Name
			detail = fmt.Sprintf("via alias %q", input)
		}
	}

	if i, ok := m.byLower[strings.ToLower(search)]; ok {
		c := m.candidates[i]
		return Result{ID: c.ID, UserID: c.UserID, Name: c.Name, Method: MethodExact, Detail: detail}, nil
	}

	if !m.cfg.FuzzyEnabled {
		return Result{}, errors.WrapResolution(m.kind, input, errors.ErrNotFound)
	}
	return m.fuzzy(ctx, input, search, detail)
}

func (m *NameMatcher) fuzzy(_ context.Context, input, search, detail string) (Result, error) {
	if len(m.candidates) > m.cfg.MaxCandidates {
		return Result{}, errors.WrapResolution(m.kind, input,
			fmt.Errorf("%w: %d candidates, cap %d", errors.ErrTooManyCandidates, len(m.candidates), m.cfg.MaxCandidates))
	}

	query := textnorm.Clean(search)
	best, bestScore := -1, 0.0
	for i, cand := range m.cleaned {
		if cand == "" {
			continue
		}
		score := m.cfg.Scorer(query, cand)
		if score > bestScore {
			best, bestScore = i, score
		}
	}

	if best < 0 || bestScore < m.cfg.Threshold {
		return Result{}, errors.WrapResolution(m.kind, input,
			fmt.Errorf("%w: best score %.3f", errors.ErrBelowThreshold, bestScore))
	}

	c := m.candidates[best]
	r := Result{
		ID:           c.ID,
		UserID:       c.UserID,
		Name:         c.Name,
		Method:       MethodFuzzy,
		Score:        bestScore,
		AutoApproved: bestScore >= m.cfg.AutoApprove,
		Detail:       detail,
	}
	if m.sink != nil {
		m.sink.AddFuzzyMatch(audit.FuzzyMatch{
			Kind:         m.kind,
			Input:        input,
			Matched:      c.Name,
			CanonicalID:  canonicalOrUser(c),
			Score:        bestScore,
			AutoApproved: r.AutoApproved,
			Detail:       detail,
		})
	}
	return r, nil
}

func (m *NameMatcher) indexOf(id identity.CanonicalID) (int, bool) {
	for i, c := range m.candidates {
		if c.ID == id {
			return i, true
		}
	}
	return 0, false
}

func canonicalOrUser(c Candidate) string {
	if !c.ID.IsZero() {
		return c.ID.String()
	}
	return fmt.Sprintf("user:%d", c.UserID)
}
