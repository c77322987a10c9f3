package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pitchside/pitchside/internal/store"
	"github.com/pitchside/pitchside/pkg/dedupe"
)

var (
	dedupeApply  bool
	dedupeWindow int
)

var dedupeCmd = &cobra.Command{
	Use:   "dedupe <players|fixtures>",
	Short: "Detect and merge duplicate records",
	Long: `Dedupe scans the stored population for records describing the same
real-world entity across the provider and internal namespaces. Exact groups
can be merged with --apply; near groups (same fixture pairing, dates within
the tolerance window) are always report-only because a postponed match and a
data error look identical.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"players", "fixtures"},
	RunE:      runDedupe,
}

func init() {
	dedupeCmd.Flags().BoolVar(&dedupeApply, "apply", false, "merge exact duplicate groups (default is report-only)")
	dedupeCmd.Flags().IntVar(&dedupeWindow, "window", 3, "near-duplicate date tolerance in days")
	rootCmd.AddCommand(dedupeCmd)
}

func runDedupe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	var (
		kind   string
		groups []dedupe.Group
	)
	detector := dedupe.Detector{NearWindowDays: dedupeWindow}

	switch args[0] {
	case "players":
		kind = "player"
		records, err := playerRecords(cmd, s)
		if err != nil {
			return err
		}
		groups = detector.Players(records)
	case "fixtures":
		kind = "fixture"
		records, err := fixtureRecords(cmd, s)
		if err != nil {
			return err
		}
		groups = detector.Fixtures(records)
	default:
		return fmt.Errorf("unknown population %q, want players or fixtures", args[0])
	}

	if len(groups) == 0 {
		cmd.Println("no duplicate groups found")
		return nil
	}

	merger := dedupe.NewMerger(s)
	merged := 0
	for _, g := range groups {
		cmd.Printf("%s group %s (%d records)\n", g.Grade, g.Key, len(g.Records))
		for _, r := range g.Records {
			label := r.Name
			if label == "" {
				label = r.Home + " v " + r.Away + " " + r.Date.Format("2006-01-02")
			}
			cmd.Printf("  %-14s %-40s refs=%d\n", r.ID, label, r.Dependents)
		}

		if !dedupeApply || g.Grade != dedupe.GradeExact {
			continue
		}
		res, err := merger.Merge(ctx, kind, g)
		if err != nil {
			return err
		}
		merged++
		cmd.Printf("  merged into %s, %d references moved\n", res.Survivor, res.Moved)
	}

	if dedupeApply {
		cmd.Printf("%d of %d groups merged\n", merged, len(groups))
	} else {
		cmd.Printf("%d groups found; re-run with --apply to merge exact groups\n", len(groups))
	}
	return nil
}

func playerRecords(cmd *cobra.Command, s *store.Store) ([]dedupe.Record, error) {
	ctx := cmd.Context()
	players, err := s.Players().List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dedupe.Record, 0, len(players))
	for _, p := range players {
		id := p.CanonicalID()
		deps, err := s.CountRefs(ctx, "player", id)
		if err != nil {
			return nil, err
		}
		out = append(out, dedupe.Record{ID: id, Name: p.Name, Dependents: deps})
	}
	return out, nil
}

func fixtureRecords(cmd *cobra.Command, s *store.Store) ([]dedupe.Record, error) {
	ctx := cmd.Context()
	fixtures, err := s.Fixtures().List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dedupe.Record, 0, len(fixtures))
	for _, f := range fixtures {
		id := f.CanonicalID()
		deps, err := s.CountRefs(ctx, "fixture", id)
		if err != nil {
			return nil, err
		}
		out = append(out, dedupe.Record{
			ID:         id,
			Home:       f.HomeName,
			Away:       f.AwayName,
			Date:       f.Date(),
			Dependents: deps,
		})
	}
	return out, nil
}
