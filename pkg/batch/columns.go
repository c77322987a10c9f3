package batch

import (
	"fmt"

	"github.com/pitchside/pitchside/pkg/textnorm"
)

// Role names one logical input column of a report sheet.
type Role string

const (
	RolePlayer  Role = "player"
	RoleFixture Role = "fixture"
	RoleDate    Role = "date"
	RoleScout   Role = "scout"
	RoleNotes   Role = "notes"
)

// roleSynonyms lists the header spellings seen across operator sheets,
// compared after Clean. Order within a role does not matter; column order
// does, because the first matching column claims the role.
var roleSynonyms = map[Role][]string{
	RolePlayer:  {"player", "player name", "name", "subject"},
	RoleFixture: {"fixture", "match", "game", "opposition", "fixture name"},
	RoleDate:    {"fixture date", "match date", "date", "game date", "report date", "kickoff"},
	RoleScout:   {"scout", "scout name", "submitted by", "author"},
	RoleNotes:   {"assessment", "notes", "report", "comments", "summary"},
}

// ColumnMap maps roles to zero-based column indexes.
type ColumnMap map[Role]int

// DetectColumns assigns roles to header columns. Columns are scanned left
// to right; the first header matching a role's synonyms claims it and later
// matches are ignored. Player, fixture and date are required.
func DetectColumns(headers []string) (ColumnMap, error) {
	cols := ColumnMap{}
	for i, h := range headers {
		cleaned := textnorm.Clean(h)
		if cleaned == "" {
			continue
		}
		for role, synonyms := range roleSynonyms {
			if _, taken := cols[role]; taken {
				continue
			}
			for _, s := range synonyms {
				if cleaned == s {
					cols[role] = i
					break
				}
			}
		}
	}

	for _, required := range []Role{RolePlayer, RoleFixture, RoleDate} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("no %s column found in headers %v", required, headers)
		}
	}
	return cols, nil
}

// cell returns the value of a role's column in the row, or "" when the role
// is unmapped or the row is short.
func (c ColumnMap) cell(row []string, role Role) string {
	i, ok := c[role]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// Has reports whether a role was detected.
func (c ColumnMap) Has(role Role) bool {
	_, ok := c[role]
	return ok
}
