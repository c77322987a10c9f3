package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pitchside/pitchside/pkg/backfill"
	"github.com/pitchside/pitchside/pkg/identity"
)

var backfillCmd = &cobra.Command{
	Use:   "backfill <player|fixture> <external-id> <internal-id>",
	Short: "Copy provider metadata onto a matched internal record",
	Long: `Backfill enriches an internally authored record with metadata from its
confirmed provider counterpart: cross-reference identifiers, classification
and country. Fields already holding a value are left alone, and display
names only change when the stored name is a recognized variant of the
provider spelling.`,
	Args: cobra.ExactArgs(3),
	RunE: runBackfill,
}

func init() {
	rootCmd.AddCommand(backfillCmd)
}

func runBackfill(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	from, err := identity.Parse(args[1])
	if err != nil {
		return fmt.Errorf("external id: %w", err)
	}
	onto, err := identity.Parse(args[2])
	if err != nil {
		return fmt.Errorf("internal id: %w", err)
	}

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	p := backfill.New(s.Players(), s.Fixtures())

	var changes []backfill.Change
	switch args[0] {
	case "player":
		changes, err = p.Player(ctx, from, onto)
	case "fixture":
		changes, err = p.Fixture(ctx, from, onto)
	default:
		return fmt.Errorf("unknown entity kind %q, want player or fixture", args[0])
	}
	if err != nil {
		return err
	}

	if len(changes) == 0 {
		cmd.Println("nothing to backfill")
		return nil
	}
	for _, c := range changes {
		if c.From == "" {
			cmd.Printf("  %-14s set to %q\n", c.Field, c.To)
		} else {
			cmd.Printf("  %-14s %q -> %q\n", c.Field, c.From, c.To)
		}
	}
	return nil
}
