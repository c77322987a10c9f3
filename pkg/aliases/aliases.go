// Package aliases loads operator-maintained alias tables: explicit mappings
// from a known noisy input name to a canonical display name or a canonical
// ID. The table is consulted before any matching logic, so operators can
// pre-empt fuzzy passes for names the audit log has shown to be tricky.
//
// File format (YAML), one section per entity kind:
//
//	players:
//	  "Jose Martinez": "José Martínez"
//	  "JM7": "external:1204"
//	scouts:
//	  "J Smith": "42"
package aliases

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/pitchside/pitchside/pkg/identity"
)

// Entry is the target of an alias. Exactly one of the fields is set.
type Entry struct {
	// Name is a canonical display name to use instead of the input.
	Name string
	// ID is a canonical entity ID, for aliases that bypass name matching
	// entirely.
	ID identity.CanonicalID
	// UserID is a scout/user identifier, for scout aliases.
	UserID int64
}

// Table maps lowercased input names to alias entries, per entity kind.
type Table struct {
	entries map[string]map[string]Entry
}

// New returns an empty alias table.
func New() *Table {
	return &Table{entries: make(map[string]map[string]Entry)}
}

// Load reads an alias file. Values that parse as a canonical ID become ID
// aliases, bare integers become user-ID aliases, and everything else is a
// canonical-name alias.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read alias file: %w", err)
	}
	return Parse(data)
}

// Parse builds a table from raw YAML.
func Parse(data []byte) (*Table, error) {
	var raw map[string]map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse alias file: %w", err)
	}

	t := New()
	for kind, mappings := range raw {
		for input, target := range mappings {
			if err := t.Add(kind, input, target); err != nil {
				return nil, err
			}
		}
	}
	return t, nil
}

// Add registers a single alias. The target is interpreted as a canonical ID
// ("external:1204"), a bare user ID ("42"), or a canonical display name, in
// that order.
func (t *Table) Add(kind, input, target string) error {
	key := strings.ToLower(input)
	if key == "" {
		return fmt.Errorf("alias for kind %q has empty input name", kind)
	}
	if target == "" {
		return fmt.Errorf("alias %q for kind %q has empty target", input, kind)
	}

	entry := Entry{}
	if id, err := identity.Parse(target); err == nil {
		entry.ID = id
	} else if userID, err := strconv.ParseInt(target, 10, 64); err == nil {
		entry.UserID = userID
	} else {
		entry.Name = target
	}

	if t.entries[kind] == nil {
		t.entries[kind] = make(map[string]Entry)
	}
	t.entries[kind][key] = entry
	return nil
}

// Lookup returns the alias entry for an input name, if one exists. Matching
// is tolerant of case but nothing else: alias keys are the literal noisy
// inputs operators observed, and an accented spelling is a different input.
func (t *Table) Lookup(kind, input string) (Entry, bool) {
	if t == nil {
		return Entry{}, false
	}
	kindEntries, ok := t.entries[kind]
	if !ok {
		return Entry{}, false
	}
	entry, ok := kindEntries[strings.ToLower(input)]
	return entry, ok
}

// Len returns the total number of aliases across all kinds.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	n := 0
	for _, m := range t.entries {
		n += len(m)
	}
	return n
}
