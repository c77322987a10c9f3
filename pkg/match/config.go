package match

import (
	"github.com/hbollon/go-edlib"
)

// Scorer computes a similarity score in [0,1] between two normalized
// strings. 1 means identical.
type Scorer func(a, b string) float64

// JaroWinkler is the default scorer. It favors strings sharing a common
// prefix, which suits person and team names where the noise is usually in
// the tail (missing suffix, truncated surname).
func JaroWinkler(a, b string) float64 {
	return float64(edlib.JaroWinklerSimilarity(a, b))
}

// Config tunes the matching pipeline. The zero value is not usable; start
// from DefaultConfig.
type Config struct {
	// FuzzyEnabled gates the similarity phase entirely. With it off,
	// matching is alias and exact lookup only.
	FuzzyEnabled bool

	// Threshold is the minimum score for a fuzzy match to be accepted.
	Threshold float64

	// AutoApprove marks results at or above this score as safe to act on
	// without operator review. Results between Threshold and AutoApprove
	// are accepted but flagged for the audit log.
	AutoApprove float64

	// MaxCandidates caps the candidate set size for a fuzzy scan. Above
	// the cap the scan is refused, not attempted: an oversized set means
	// the query was too vague to trust a best-of answer.
	MaxCandidates int

	// PreFilter narrows large fixture candidate sets to those sharing a
	// significant name token with the query before scoring. If the filter
	// eliminates everything, the full set is scored anyway.
	PreFilter bool

	// PreFilterAbove is the candidate count above which the pre-filter
	// kicks in.
	PreFilterAbove int

	// Scorer overrides the similarity function. Nil means JaroWinkler.
	Scorer Scorer
}

// DefaultConfig returns the tuning used in production imports.
func DefaultConfig() Config {
	return Config{
		FuzzyEnabled:   true,
		Threshold:      0.85,
		AutoApprove:    0.95,
		MaxCandidates:  200,
		PreFilter:      true,
		PreFilterAbove: 25,
		Scorer:         JaroWinkler,
	}
}

// withDefaults fills unset fields so callers can tweak one knob without
// restating the rest.
func (c Config) withDefaults() Config {
	if c.Threshold == 0 {
		c.Threshold = 0.85
	}
	if c.AutoApprove == 0 {
		c.AutoApprove = 0.95
	}
	if c.MaxCandidates == 0 {
		c.MaxCandidates = 200
	}
	if c.PreFilterAbove == 0 {
		c.PreFilterAbove = 25
	}
	if c.Scorer == nil {
		c.Scorer = JaroWinkler
	}
	return c
}
