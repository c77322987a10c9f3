// Package textnorm folds noisy human-entered display strings into
// comparable forms. All functions are pure and idempotent: folding an
// already-folded string returns it unchanged.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripAccents decomposes to NFD, drops combining marks, and recomposes,
// so "ü" → "u" and "é" → "e".
var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lower-cases s and removes diacritics.
func Fold(s string) string {
	result, _, err := transform.String(stripAccents, strings.ToLower(s))
	if err != nil {
		// transform only fails on malformed input; fall back to the
		// lower-cased original rather than dropping the value.
		return strings.ToLower(s)
	}
	return result
}

// Clean applies Fold, replaces non-alphanumeric runes with spaces, collapses
// internal whitespace to single spaces, and trims.
func Clean(s string) string {
	folded := Fold(s)

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// EqualFold reports whether a and b are equal under Fold.
func EqualFold(a, b string) bool {
	return Fold(a) == Fold(b)
}
