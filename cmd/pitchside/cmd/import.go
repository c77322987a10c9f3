package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pitchside/pitchside/internal/importer"
	"github.com/pitchside/pitchside/pkg/audit"
	"github.com/pitchside/pitchside/pkg/batch"
	"github.com/pitchside/pitchside/pkg/identity"
	"github.com/pitchside/pitchside/pkg/logging"
	"github.com/pitchside/pitchside/pkg/match"
)

var (
	importDryRun        bool
	importWorkers       int
	importChunkSize     int
	importOffset        int
	importCreateMissing bool
	importReportPath    string
)

var importCmd = &cobra.Command{
	Use:   "import <sheet.xlsx|sheet.csv>",
	Short: "Import a sheet of scouting reports",
	Long: `Import resolves every row of an operator sheet against the stored player,
fixture and scout populations and writes the resulting reports. Rows that
cannot be resolved are recorded in the audit log with a machine-readable
reason and skipped; the batch continues.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "resolve and audit without writing anything")
	importCmd.Flags().IntVar(&importWorkers, "workers", 4, "resolver pool size")
	importCmd.Flags().IntVar(&importChunkSize, "chunk-size", 100, "rows per worker chunk")
	importCmd.Flags().IntVar(&importOffset, "offset", 0, "skip rows already processed by an interrupted run")
	importCmd.Flags().BoolVar(&importCreateMissing, "create-missing", false, "allocate internal records for unresolved players and fixtures")
	importCmd.Flags().StringVar(&importReportPath, "report", "", "write the JSONL audit report to this path")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	src, err := importer.Open(args[0])
	if err != nil {
		return err
	}

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	table, err := loadAliases()
	if err != nil {
		return err
	}

	log := audit.NewLog()
	ctx = logging.WithRunID(ctx, log.RunID())

	matchCfg := matcherConfig()
	playerPool, err := s.Players().Candidates(ctx)
	if err != nil {
		return err
	}
	scoutPool, err := s.Scouts().Candidates(ctx)
	if err != nil {
		return err
	}

	driver := batch.NewDriver(
		batch.Config{
			Workers:       importWorkers,
			ChunkSize:     importChunkSize,
			Offset:        importOffset,
			DryRun:        importDryRun,
			CreateMissing: importCreateMissing,
		},
		match.NewPlayerMatcher(matchCfg, table, playerPool, log),
		match.NewScoutMatcher(matchCfg, table, scoutPool, log),
		match.NewFixtureMatcher(matchCfg, table, s.Fixtures(), log),
		log,
		s.Reports(),
		identity.NewAllocator(s),
		s.Players(),
		s.Fixtures(),
	)

	result, runErr := driver.Run(ctx, src)

	if importReportPath != "" {
		f, err := os.Create(importReportPath)
		if err != nil {
			return fmt.Errorf("create report file: %w", err)
		}
		defer f.Close()
		if err := log.WriteReport(f); err != nil {
			return err
		}
	}

	printSummary(cmd, result, runErr != nil)
	return runErr
}

func printSummary(cmd *cobra.Command, result batch.Result, interrupted bool) {
	s := result.Summary
	cmd.Printf("run %s\n", s.RunID)
	cmd.Printf("  rows seen:     %d\n", s.RowsSeen)
	cmd.Printf("  resolved:      %d\n", s.Resolved)
	cmd.Printf("  written:       %d\n", result.Written)
	if result.Created > 0 {
		cmd.Printf("  created:       %d\n", result.Created)
	}
	cmd.Printf("  fuzzy matches: %d\n", s.FuzzyMatches)
	cmd.Printf("  failures:      %d\n", s.Failures)
	for reason, n := range s.ByReason {
		cmd.Printf("    %-24s %d\n", reason, n)
	}
	if interrupted {
		cmd.Printf("  resume with --offset=%d\n", result.Resume)
	}
}
