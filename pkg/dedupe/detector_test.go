package dedupe

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchside/pitchside/pkg/identity"
)

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func TestPlayersGroupsByFoldedName(t *testing.T) {
	records := []Record{
		{ID: identity.ExternalID(1), Name: "José Martínez"},
		{ID: identity.InternalID(2), Name: "jose martinez"},
		{ID: identity.ExternalID(3), Name: "Someone Else"},
	}

	groups := Detector{}.Players(records)
	require.Len(t, groups, 1)
	assert.Equal(t, GradeExact, groups[0].Grade)
	assert.Len(t, groups[0].Records, 2)
}

func TestPlayersAllExternalIsReportOnly(t *testing.T) {
	records := []Record{
		{ID: identity.ExternalID(1), Name: "José Martínez"},
		{ID: identity.ExternalID(2), Name: "Jose Martinez"},
	}

	groups := Detector{}.Players(records)
	require.Len(t, groups, 1)
	assert.Equal(t, GradeNear, groups[0].Grade, "provider-only duplicates are never auto-mergeable")
}

func TestFixturesSameDayIsExact(t *testing.T) {
	records := []Record{
		{ID: identity.ExternalID(10), Home: "Celtic", Away: "Rangers", Date: day(15)},
		{ID: identity.InternalID(4), Home: "Rangers", Away: "Celtic", Date: day(15)},
	}

	groups := Detector{}.Fixtures(records)
	require.Len(t, groups, 1)
	assert.Equal(t, GradeExact, groups[0].Grade, "reversed team order is the same pairing")
}

func TestFixturesAllExternalSameDayIsReportOnly(t *testing.T) {
	records := []Record{
		{ID: identity.ExternalID(10), Home: "Celtic", Away: "Rangers", Date: day(15)},
		{ID: identity.ExternalID(11), Home: "Rangers", Away: "Celtic", Date: day(15)},
	}

	groups := Detector{}.Fixtures(records)
	require.Len(t, groups, 1)
	assert.Equal(t, GradeNear, groups[0].Grade, "both records belong to the provider")
}

func TestFixturesNearWindowIsReportOnly(t *testing.T) {
	records := []Record{
		{ID: identity.ExternalID(10), Home: "Celtic", Away: "Rangers", Date: day(15)},
		{ID: identity.InternalID(4), Home: "Celtic", Away: "Rangers", Date: day(17)},
	}

	groups := Detector{}.Fixtures(records)
	require.Len(t, groups, 1)
	assert.Equal(t, GradeNear, groups[0].Grade)
}

func TestFixturesOutsideWindowNotGrouped(t *testing.T) {
	records := []Record{
		{ID: identity.ExternalID(10), Home: "Celtic", Away: "Rangers", Date: day(1)},
		{ID: identity.InternalID(4), Home: "Celtic", Away: "Rangers", Date: day(20)},
	}

	groups := Detector{}.Fixtures(records)
	assert.Empty(t, groups)
}

func TestFixturesCustomWindow(t *testing.T) {
	records := []Record{
		{ID: identity.ExternalID(10), Home: "Celtic", Away: "Rangers", Date: day(10)},
		{ID: identity.InternalID(4), Home: "Celtic", Away: "Rangers", Date: day(17)},
	}

	assert.Empty(t, Detector{}.Fixtures(records))
	assert.Len(t, Detector{NearWindowDays: 7}.Fixtures(records), 1)
}

func TestFixturesMixedDaysSplit(t *testing.T) {
	records := []Record{
		{ID: identity.ExternalID(10), Home: "Celtic", Away: "Rangers", Date: day(15)},
		{ID: identity.InternalID(4), Home: "Celtic", Away: "Rangers", Date: day(15)},
		{ID: identity.InternalID(5), Home: "Celtic", Away: "Rangers", Date: day(16)},
	}

	groups := Detector{}.Fixtures(records)
	require.Len(t, groups, 2)
	assert.Equal(t, GradeExact, groups[0].Grade)
	assert.Len(t, groups[0].Records, 2)
	assert.Equal(t, GradeNear, groups[1].Grade)
	assert.Len(t, groups[1].Records, 3)
}

func TestFixturesDifferentPairingsNeverGroup(t *testing.T) {
	records := []Record{
		{ID: identity.ExternalID(10), Home: "Celtic", Away: "Rangers", Date: day(15)},
		{ID: identity.ExternalID(11), Home: "Celtic", Away: "Aberdeen", Date: day(15)},
	}

	assert.Empty(t, Detector{}.Fixtures(records))
}

func TestSurvivorPrecedence(t *testing.T) {
	tests := []struct {
		name    string
		records []Record
		want    identity.CanonicalID
	}{
		{
			name: "external beats internal regardless of dependents",
			records: []Record{
				{ID: identity.InternalID(1), Dependents: 50},
				{ID: identity.ExternalID(9), Dependents: 0},
			},
			want: identity.ExternalID(9),
		},
		{
			name: "more dependents wins within a namespace",
			records: []Record{
				{ID: identity.InternalID(1), Dependents: 2},
				{ID: identity.InternalID(2), Dependents: 7},
			},
			want: identity.InternalID(2),
		},
		{
			name: "lowest local id breaks ties",
			records: []Record{
				{ID: identity.InternalID(8), Dependents: 3},
				{ID: identity.InternalID(3), Dependents: 3},
			},
			want: identity.InternalID(3),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Survivor(tt.records).ID)
		})
	}
}
