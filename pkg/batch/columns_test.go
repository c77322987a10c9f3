package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectColumns(t *testing.T) {
	cols, err := DetectColumns([]string{"Scout Name", "Player", "Fixture", "Match Date", "Notes"})
	require.NoError(t, err)

	assert.Equal(t, 0, cols[RoleScout])
	assert.Equal(t, 1, cols[RolePlayer])
	assert.Equal(t, 2, cols[RoleFixture])
	assert.Equal(t, 3, cols[RoleDate])
	assert.Equal(t, 4, cols[RoleNotes])
}

func TestDetectColumnsNormalizesHeaders(t *testing.T) {
	cols, err := DetectColumns([]string{"  PLAYER NAME ", "Fixture!", "DATE"})
	require.NoError(t, err)
	assert.Equal(t, 0, cols[RolePlayer])
	assert.Equal(t, 1, cols[RoleFixture])
	assert.Equal(t, 2, cols[RoleDate])
}

func TestDetectColumnsReportDate(t *testing.T) {
	// "Report Date" is a date header; it must not be claimed by the notes
	// role via the bare "report" synonym.
	cols, err := DetectColumns([]string{"Player", "Fixture", "Report Date", "Report"})
	require.NoError(t, err)
	assert.Equal(t, 2, cols[RoleDate])
	assert.Equal(t, 3, cols[RoleNotes])
}

func TestDetectColumnsFirstMatchWins(t *testing.T) {
	cols, err := DetectColumns([]string{"Player", "Name", "Fixture", "Date"})
	require.NoError(t, err)
	assert.Equal(t, 0, cols[RolePlayer], "second player-ish header does not steal the role")
}

func TestDetectColumnsMissingRequired(t *testing.T) {
	_, err := DetectColumns([]string{"Player", "Notes"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fixture")
}

func TestCellShortRow(t *testing.T) {
	cols := ColumnMap{RolePlayer: 0, RoleNotes: 4}
	row := []string{"John Smith"}
	assert.Equal(t, "John Smith", cols.cell(row, RolePlayer))
	assert.Empty(t, cols.cell(row, RoleNotes))
	assert.Empty(t, cols.cell(row, RoleScout))
}
