// Package teamname generates affix-stripped variants of club names so that
// "FC Barnsley", "Barnsley" and "Barnsley FC" all land on the same stored
// record without a fuzzy pass. Variant generation is deliberately shallow:
// at most one prefix variant and one suffix variant per input, never
// recursing into stripping multiple affixes.
package teamname

import (
	"strings"

	"github.com/pitchside/pitchside/pkg/textnorm"
)

// knownPrefixes are club-name prefixes in priority order. The first match
// produces the single prefix variant.
var knownPrefixes = []string{
	"AFC ", "FC ", "SK ", "FK ", "SC ", "AC ", "CF ", "CD ", "RC ", "CA ", "US ",
}

// knownSuffixes are club-name suffixes in priority order. The first match
// produces the single suffix variant.
var knownSuffixes = []string{
	" AFC", " FC", " UNITED", " CITY", " TOWN", " ATHLETIC",
	" WANDERERS", " ROVERS", " ALBION", " COUNTY", " HOTSPUR",
}

// affixWords are single tokens that carry no identity on their own and are
// ignored by SignificantTokens.
var affixWords = map[string]struct{}{
	"afc": {}, "fc": {}, "sk": {}, "fk": {}, "sc": {}, "ac": {}, "cf": {},
	"cd": {}, "rc": {}, "ca": {}, "us": {}, "united": {}, "city": {},
	"town": {}, "athletic": {}, "wanderers": {}, "rovers": {}, "albion": {},
	"county": {}, "hotspur": {},
}

// Canonical returns the comparison form of a team name: accent-folded,
// upper-cased, internal whitespace collapsed.
func Canonical(name string) string {
	folded := textnorm.Fold(name)
	return strings.ToUpper(strings.Join(strings.Fields(folded), " "))
}

// Variants returns the ordered, deduplicated list of name variants used for
// tolerant exact matching: the canonical name, then the canonical name with
// the first matching known prefix removed, then with the first matching
// known suffix removed.
func Variants(name string) []string {
	canonical := Canonical(name)
	if canonical == "" {
		return nil
	}

	variants := []string{canonical}
	seen := map[string]struct{}{canonical: {}}

	add := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" {
			return
		}
		if _, dup := seen[v]; dup {
			return
		}
		seen[v] = struct{}{}
		variants = append(variants, v)
	}

	for _, prefix := range knownPrefixes {
		if strings.HasPrefix(canonical, prefix) {
			add(canonical[len(prefix):])
			break
		}
	}

	for _, suffix := range knownSuffixes {
		if strings.HasSuffix(canonical, suffix) {
			add(canonical[:len(canonical)-len(suffix)])
			break
		}
	}

	return variants
}

// SignificantTokens returns the tokens of a name that are useful for
// narrowing a fuzzy candidate set: longer than two runes and not a known
// affix word. Tokens are returned folded (lower-case, no diacritics).
func SignificantTokens(name string) []string {
	var tokens []string
	for _, tok := range strings.Fields(textnorm.Clean(name)) {
		if len([]rune(tok)) <= 2 {
			continue
		}
		if _, affix := affixWords[tok]; affix {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// SharesToken reports whether the two names have at least one significant
// token in common.
func SharesToken(a, b string) bool {
	set := make(map[string]struct{})
	for _, tok := range SignificantTokens(a) {
		set[tok] = struct{}{}
	}
	for _, tok := range SignificantTokens(b) {
		if _, ok := set[tok]; ok {
			return true
		}
	}
	return false
}
