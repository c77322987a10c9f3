package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"ascii lower", "celtic", "celtic"},
		{"case folding", "CELTIC", "celtic"},
		{"umlaut", "Müller", "muller"},
		{"acute", "José Martínez", "jose martinez"},
		{"cedilla", "Beşiktaş", "besiktas"},
		{"grave and circumflex", "Saint-Étienne", "saint-etienne"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Fold(tt.in))
		})
	}
}

func TestFoldIdempotent(t *testing.T) {
	inputs := []string{"José Martínez", "FC Köln", "  spaced  out  ", "Ajax", "Γιώργος"}
	for _, s := range inputs {
		once := Fold(s)
		assert.Equal(t, once, Fold(once), "Fold must be idempotent for %q", s)
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"punctuation stripped", "St. Mirren F.C.", "st mirren f c"},
		{"whitespace collapsed", "  Celtic   Glasgow ", "celtic glasgow"},
		{"diacritics and symbols", "Górnik-Zabrze!", "gornik zabrze"},
		{"digits kept", "1860 München", "1860 munchen"},
		{"empty", "", ""},
		{"only punctuation", "-- ??", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.in))
		})
	}
}

func TestCleanIdempotent(t *testing.T) {
	inputs := []string{"St. Mirren F.C.", "  Celtic   Glasgow ", "Górnik-Zabrze"}
	for _, s := range inputs {
		once := Clean(s)
		assert.Equal(t, once, Clean(once), "Clean must be idempotent for %q", s)
	}
}

func TestEqualFold(t *testing.T) {
	assert.True(t, EqualFold("José Martínez", "jose martinez"))
	assert.True(t, EqualFold("MÜLLER", "muller"))
	assert.False(t, EqualFold("Jose Martinez", "Josef Martinez"))
}
