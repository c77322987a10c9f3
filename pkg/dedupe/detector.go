// Package dedupe finds duplicate entity records across the two namespaces
// and merges them without losing report references. Detection is pure and
// in-memory; merging runs against the store under a single transaction per
// group with an explicit moved-reference verification before anything is
// deleted.
package dedupe

import (
	"sort"
	"strings"
	"time"

	"github.com/pitchside/pitchside/pkg/identity"
	"github.com/pitchside/pitchside/pkg/teamname"
	"github.com/pitchside/pitchside/pkg/textnorm"
)

// Record is one stored entity as seen by the detector. Home, Away and Date
// are set for fixtures; players use Name only.
type Record struct {
	ID         identity.CanonicalID
	Name       string
	Home       string
	Away       string
	Date       time.Time
	Dependents int
}

// Grade says how confident the detector is that a group holds the same
// real-world entity.
type Grade string

const (
	// GradeExact groups are safe to merge automatically: identical key,
	// the same day for fixtures, and at least one internally authored
	// record to collapse.
	GradeExact Grade = "exact"
	// GradeNear groups are report-only. Either the dates differ within the
	// tolerance window, where postponements and data errors look the same
	// so a human decides, or every record is provider-fed and there is
	// nothing of ours to collapse: provider records are read-only.
	GradeNear Grade = "near"
)

// Group is one detected duplicate set, always two or more records.
type Group struct {
	Key     string
	Grade   Grade
	Records []Record
}

// Detector groups records by identity key. NearWindowDays controls how far
// apart two fixture dates may be to still count as a near group; zero keeps
// the default of 3.
type Detector struct {
	NearWindowDays int
}

func (d Detector) window() int {
	if d.NearWindowDays <= 0 {
		return 3
	}
	return d.NearWindowDays
}

// Players groups player records sharing a folded name. All player groups
// are exact: there is no date axis to be tolerant on.
func (d Detector) Players(records []Record) []Group {
	byName := make(map[string][]Record)
	for _, r := range records {
		key := textnorm.Fold(r.Name)
		if key == "" {
			continue
		}
		byName[key] = append(byName[key], r)
	}

	var groups []Group
	for key, members := range byName {
		if len(members) < 2 {
			continue
		}
		groups = append(groups, Group{Key: key, Grade: gradeFor(members), Records: members})
	}
	sortGroups(groups)
	return groups
}

// gradeFor demotes groups without an internal record to report-only.
// Duplicates among provider-fed records are the provider's problem to fix;
// merging them here would delete records we do not own.
func gradeFor(members []Record) Grade {
	for _, r := range members {
		if r.ID.Namespace == identity.Internal {
			return GradeExact
		}
	}
	return GradeNear
}

// Fixtures groups fixture records by their unordered canonical team pair.
// Same-day members form exact groups; members on different days within the
// tolerance window form near groups.
func (d Detector) Fixtures(records []Record) []Group {
	byPair := make(map[string][]Record)
	for _, r := range records {
		key := pairKey(r.Home, r.Away)
		if key == "" {
			continue
		}
		byPair[key] = append(byPair[key], r)
	}

	var groups []Group
	for key, members := range byPair {
		if len(members) < 2 {
			continue
		}
		groups = append(groups, d.splitByDate(key, members)...)
	}
	sortGroups(groups)
	return groups
}

// splitByDate turns one team-pair bucket into exact same-day groups plus at
// most one near group covering days that sit within the window of each
// other.
func (d Detector) splitByDate(key string, members []Record) []Group {
	byDay := make(map[string][]Record)
	for _, r := range members {
		byDay[r.Date.UTC().Format("2006-01-02")] = append(byDay[r.Date.UTC().Format("2006-01-02")], r)
	}

	var groups []Group
	days := make([]string, 0, len(byDay))
	for day, same := range byDay {
		days = append(days, day)
		if len(same) >= 2 {
			groups = append(groups, Group{Key: key + "@" + day, Grade: gradeFor(same), Records: same})
		}
	}

	// Distinct days within the window form a near group. One group per
	// bucket is enough for an operator report.
	sort.Strings(days)
	var near []Record
	for i := 0; i < len(days); i++ {
		for j := i + 1; j < len(days); j++ {
			a, _ := time.Parse("2006-01-02", days[i])
			b, _ := time.Parse("2006-01-02", days[j])
			diff := int(b.Sub(a).Hours() / 24)
			if diff != 0 && diff <= d.window() {
				near = appendUnique(near, byDay[days[i]]...)
				near = appendUnique(near, byDay[days[j]]...)
			}
		}
	}
	if len(near) >= 2 {
		groups = append(groups, Group{Key: key, Grade: GradeNear, Records: near})
	}
	return groups
}

func appendUnique(dst []Record, records ...Record) []Record {
	for _, r := range records {
		found := false
		for _, existing := range dst {
			if existing.ID == r.ID {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, r)
		}
	}
	return dst
}

// pairKey builds the order-insensitive canonical key for a team pairing.
func pairKey(home, away string) string {
	h := teamname.Canonical(home)
	a := teamname.Canonical(away)
	if h == "" || a == "" {
		return ""
	}
	if a < h {
		h, a = a, h
	}
	return h + "|" + a
}

func sortGroups(groups []Group) {
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Grade != groups[j].Grade {
			return groups[i].Grade == GradeExact
		}
		return strings.Compare(groups[i].Key, groups[j].Key) < 0
	})
	for _, g := range groups {
		sort.Slice(g.Records, func(i, j int) bool {
			return g.Records[i].ID.String() < g.Records[j].ID.String()
		})
	}
}
