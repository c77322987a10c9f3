// Package fixture parses free-text fixture descriptions as they appear in
// scouting spreadsheets: "Celtic 2-1 Rangers", "Cercle Brugge 4:0 RWD
// Molenbeek", "FK Teplice - Slavia Prague", "Team A vs Team B". Parsing is
// deterministic: shapes are tried in a fixed order and the first match wins.
package fixture

import (
	"regexp"
	"strings"
	"time"

	"github.com/pitchside/pitchside/pkg/errors"
)

// fixtureShapes are the recognized description formats in priority order.
// Team-name groups are non-greedy on the left so a score or separator in the
// middle of the string splits at its first occurrence.
var fixtureShapes = []*regexp.Regexp{
	// "<Home> <n>-<n> <Away>"
	regexp.MustCompile(`^(.+?)\s+\d+\s*-\s*\d+\s+(.+)$`),
	// "<Home> <n>:<n> <Away>"
	regexp.MustCompile(`^(.+?)\s+\d+\s*:\s*\d+\s+(.+)$`),
	// "<Home> - <Away>"
	regexp.MustCompile(`^(.+?)\s+-\s+(.+)$`),
	// "<Home> v <Away>" / "<Home> vs <Away>" (case-insensitive separator)
	regexp.MustCompile(`(?i)^(.+?)\s+vs?\.?\s+(.+)$`),
}

// Parse extracts the home and away team substrings from a free-text fixture
// description. Blank input yields ErrEmptyInput; input matching none of the
// recognized shapes yields ErrParseFailure.
func Parse(s string) (home, away string, err error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", "", errors.ErrEmptyInput
	}

	for _, shape := range fixtureShapes {
		if m := shape.FindStringSubmatch(trimmed); m != nil {
			home = strings.TrimSpace(m[1])
			away = strings.TrimSpace(m[2])
			if home == "" || away == "" {
				continue
			}
			return home, away, nil
		}
	}

	return "", "", errors.ErrParseFailure
}

// dateLayouts are the date formats operators actually type, in priority
// order. Day-first formats come before ISO because the spreadsheets this
// engine ingests are day-first.
var dateLayouts = []string{
	"02/01/2006",
	"2006-01-02",
	"02.01.2006",
	"02-01-2006",
	"2/1/2006",
}

// ParseDate parses an operator-entered fixture date. Blank input yields
// ErrEmptyInput; anything unparsable yields ErrInvalidDate. The result is
// truncated to a UTC calendar date.
func ParseDate(s string) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return time.Time{}, errors.ErrEmptyInput
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}

	return time.Time{}, errors.ErrInvalidDate
}
