package cmd

import (
	"database/sql"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/pitchside/pitchside/internal/importer"
	"github.com/pitchside/pitchside/internal/store"
	"github.com/pitchside/pitchside/pkg/fixture"
	"github.com/pitchside/pitchside/pkg/textnorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed <players|fixtures|scouts> <sheet.xlsx|sheet.csv>",
	Short: "Load provider catalog records",
	Long: `Seed loads the provider-fed side of the catalog from a sheet. Player and
fixture rows carry the provider's own integer identifier, which becomes the
external namespace-local id. Scout rows carry the user id.

Expected columns (by header name): players need id, name and optionally
country, position, ref; fixtures need id, home, away, date and optionally
competition, country, ref; scouts need id and name.`,
	Args: cobra.ExactArgs(2),
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	src, err := importer.Open(args[1])
	if err != nil {
		return err
	}

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	cols := map[string]int{}
	for i, h := range src.Headers() {
		cols[textnorm.Clean(h)] = i
	}
	cell := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}
	nullable := func(v string) sql.NullString {
		return sql.NullString{String: v, Valid: v != ""}
	}

	loaded := 0
	for {
		row, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		id, err := strconv.ParseInt(cell(row, "id"), 10, 64)
		if err != nil {
			return fmt.Errorf("row %d: bad id %q", loaded+2, cell(row, "id"))
		}

		switch args[0] {
		case "players":
			err = s.Players().InsertExternal(ctx, id, cell(row, "name"), store.PlayerAttrs{
				Country:     nullable(cell(row, "country")),
				Position:    nullable(cell(row, "position")),
				ProviderRef: nullable(cell(row, "ref")),
			})
		case "fixtures":
			var date time.Time
			date, err = fixture.ParseDate(cell(row, "date"))
			if err != nil {
				return fmt.Errorf("row %d: %w", loaded+2, err)
			}
			err = s.Fixtures().InsertExternal(ctx, id, cell(row, "home"), cell(row, "away"), date, store.FixtureAttrs{
				Competition: nullable(cell(row, "competition")),
				Country:     nullable(cell(row, "country")),
				ProviderRef: nullable(cell(row, "ref")),
			})
		case "scouts":
			err = s.Scouts().Upsert(ctx, id, cell(row, "name"))
		default:
			return fmt.Errorf("unknown population %q, want players, fixtures or scouts", args[0])
		}
		if err != nil {
			return fmt.Errorf("row %d: %w", loaded+2, err)
		}
		loaded++
	}

	cmd.Printf("loaded %d %s\n", loaded, args[0])
	return nil
}
