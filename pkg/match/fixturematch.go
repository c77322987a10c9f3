package match

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pitchside/pitchside/pkg/aliases"
	"github.com/pitchside/pitchside/pkg/audit"
	"github.com/pitchside/pitchside/pkg/errors"
	"github.com/pitchside/pitchside/pkg/fixture"
	"github.com/pitchside/pitchside/pkg/identity"
	"github.com/pitchside/pitchside/pkg/teamname"
)

// FixtureCandidate is one stored fixture eligible for matching.
type FixtureCandidate struct {
	ID   identity.CanonicalID
	Home string
	Away string
	Date time.Time
}

// FixtureIndex answers the two candidate queries the matcher needs. The
// store layer implements it with SQL; tests use in-memory slices.
type FixtureIndex interface {
	// FindByTeamsAndDate returns fixtures on the given date whose home and
	// away team names contain the given canonical fragments, in stored
	// order.
	FindByTeamsAndDate(ctx context.Context, homeFragment, awayFragment string, date time.Time) ([]FixtureCandidate, error)

	// ListByDate returns every fixture on the given date.
	ListByDate(ctx context.Context, date time.Time) ([]FixtureCandidate, error)
}

// FixtureMatcher resolves a free-text fixture description plus a date to a
// stored fixture. Phase one tries generated team-name variants against the
// exact date; phase two falls back to a bounded fuzzy scan over everything
// scheduled that day.
type FixtureMatcher struct {
	cfg     Config
	aliases *aliases.Table
	index   FixtureIndex
	sink    Sink
}

// NewFixtureMatcher builds a matcher over the given index.
func NewFixtureMatcher(cfg Config, table *aliases.Table, index FixtureIndex, sink Sink) *FixtureMatcher {
	return &FixtureMatcher{cfg: cfg.withDefaults(), aliases: table, index: index, sink: sink}
}

// Resolve matches one fixture description. The date must already be parsed;
// a zero date is rejected before any lookup.
func (m *FixtureMatcher) Resolve(ctx context.Context, description string, date time.Time) (Result, error) {
	input := description
	if strings.TrimSpace(description) == "" {
		return Result{}, errors.WrapResolution("fixture", input, errors.ErrEmptyInput)
	}

	if entry, ok := m.aliases.Lookup("fixtures", description); ok {
		if !entry.ID.IsZero() {
			return Result{ID: entry.ID, Method: MethodAlias}, nil
		}
		if entry.Name != "" {
			description = entry.Name
		}
	}

	if date.IsZero() {
		return Result{}, errors.WrapResolution("fixture", input, errors.ErrInvalidDate)
	}

	home, away, err := fixture.Parse(description)
	if err != nil {
		return Result{}, errors.WrapResolution("fixture", input, err)
	}

	if r, ok, err := m.variantPhase(ctx, home, away, date); err != nil {
		return Result{}, err
	} else if ok {
		return r, nil
	}

	if !m.cfg.FuzzyEnabled {
		return Result{}, errors.WrapResolution("fixture", input, errors.ErrNotFound)
	}
	return m.fuzzyPhase(ctx, input, home, away, date)
}

// variantPhase tries every pairing of home and away variants against the
// exact date, straight order before swapped. The first hit wins; variant
// lists are ordered most-specific first, so earlier hits are better ones.
func (m *FixtureMatcher) variantPhase(ctx context.Context, home, away string, date time.Time) (Result, bool, error) {
	homeVars := teamname.Variants(home)
	awayVars := teamname.Variants(away)

	for _, swapped := range []bool{false, true} {
		for _, hv := range homeVars {
			for _, av := range awayVars {
				h, a := hv, av
				if swapped {
					h, a = av, hv
				}
				found, err := m.index.FindByTeamsAndDate(ctx, h, a, date)
				if err != nil {
					return Result{}, false, fmt.Errorf("fixture variant lookup: %w", err)
				}
				if len(found) == 0 {
					continue
				}
				c := found[0]
				detail := fmt.Sprintf("variant %q v %q", h, a)
				if swapped {
					detail += " (home/away swapped)"
				}
				return Result{
					ID:     c.ID,
					Name:   c.Home + " v " + c.Away,
					Method: MethodVariant,
					Detail: detail,
				}, true, nil
			}
		}
	}
	return Result{}, false, nil
}

// fuzzyPhase scores the description against every fixture on the date, in
// both team orders, and accepts the best if it clears the threshold.
func (m *FixtureMatcher) fuzzyPhase(ctx context.Context, input, home, away string, date time.Time) (Result, error) {
	candidates, err := m.index.ListByDate(ctx, date)
	if err != nil {
		return Result{}, fmt.Errorf("fixture candidate lookup: %w", err)
	}
	if len(candidates) == 0 {
		return Result{}, errors.WrapResolution("fixture", input, errors.ErrNoCandidatesOnDate)
	}
	if len(candidates) > m.cfg.MaxCandidates {
		return Result{}, errors.WrapResolution("fixture", input,
			fmt.Errorf("%w: %d on date, cap %d", errors.ErrTooManyCandidates, len(candidates), m.cfg.MaxCandidates))
	}

	if m.cfg.PreFilter && len(candidates) > m.cfg.PreFilterAbove {
		filtered := m.preFilter(candidates, home, away)
		if len(filtered) > 0 {
			candidates = filtered
		}
	}

	query := teamname.Canonical(home) + " V " + teamname.Canonical(away)
	querySwapped := teamname.Canonical(away) + " V " + teamname.Canonical(home)

	bestIdx, bestScore, bestSwapped := -1, 0.0, false
	for i, c := range candidates {
		stored := teamname.Canonical(c.Home) + " V " + teamname.Canonical(c.Away)
		straight := m.cfg.Scorer(query, stored)
		swapped := m.cfg.Scorer(querySwapped, stored)

		score, usedSwap := straight, false
		if swapped > straight {
			score, usedSwap = swapped, true
		}
		if score > bestScore {
			bestIdx, bestScore, bestSwapped = i, score, usedSwap
		}
	}

	if bestIdx < 0 || bestScore < m.cfg.Threshold {
		return Result{}, errors.WrapResolution("fixture", input,
			fmt.Errorf("%w: best score %.3f", errors.ErrBelowThreshold, bestScore))
	}

	c := candidates[bestIdx]
	detail := ""
	if bestSwapped {
		detail = "home/away swapped"
	}
	r := Result{
		ID:           c.ID,
		Name:         c.Home + " v " + c.Away,
		Method:       MethodFuzzy,
		Score:        bestScore,
		AutoApproved: bestScore >= m.cfg.AutoApprove,
		Detail:       detail,
	}
	if m.sink != nil {
		m.sink.AddFuzzyMatch(audit.FuzzyMatch{
			Kind:         "fixture",
			Input:        input,
			Matched:      r.Name,
			CanonicalID:  c.ID.String(),
			Score:        bestScore,
			AutoApproved: r.AutoApproved,
			Date:         date,
			Detail:       detail,
		})
	}
	return r, nil
}

// preFilter keeps candidates sharing a significant token with either parsed
// team name.
func (m *FixtureMatcher) preFilter(candidates []FixtureCandidate, home, away string) []FixtureCandidate {
	var out []FixtureCandidate
	for _, c := range candidates {
		if teamname.SharesToken(c.Home, home) || teamname.SharesToken(c.Home, away) ||
			teamname.SharesToken(c.Away, home) || teamname.SharesToken(c.Away, away) {
			out = append(out, c)
		}
	}
	return out
}
