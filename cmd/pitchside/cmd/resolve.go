package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pitchside/pitchside/pkg/audit"
	"github.com/pitchside/pitchside/pkg/fixture"
	"github.com/pitchside/pitchside/pkg/identity"
	"github.com/pitchside/pitchside/pkg/match"
)

var resolveDate string

var resolveCmd = &cobra.Command{
	Use:   "resolve <player|fixture|scout> <id-or-name>",
	Short: "Resolve one reference the way an import would",
	Long: `Resolve takes either a bare integer reference or a free-text name.
Integers are decoded against both namespaces (provider first); names run the
full match ladder. Fixture names need --date.`,
	Args: cobra.ExactArgs(2),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringVar(&resolveDate, "date", "", "fixture date, required when resolving a fixture by name")
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	kind, input := args[0], args[1]

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	// Bare integers are namespace decodes, not name matches.
	if bare, convErr := strconv.ParseInt(input, 10, 64); convErr == nil {
		if kind == "scout" {
			return fmt.Errorf("scout references are user ids, nothing to decode")
		}
		id, err := identity.NewResolver(s).Lookup(ctx, kind, bare)
		if err != nil {
			return err
		}
		cmd.Printf("%d -> %s\n", bare, id)
		return nil
	}

	table, err := loadAliases()
	if err != nil {
		return err
	}
	log := audit.NewLog()
	cfg := matcherConfig()

	var res match.Result
	switch kind {
	case "player":
		pool, err := s.Players().Candidates(ctx)
		if err != nil {
			return err
		}
		res, err = match.NewPlayerMatcher(cfg, table, pool, log).Resolve(ctx, input)
		if err != nil {
			return err
		}
	case "scout":
		pool, err := s.Scouts().Candidates(ctx)
		if err != nil {
			return err
		}
		res, err = match.NewScoutMatcher(cfg, table, pool, log).Resolve(ctx, input)
		if err != nil {
			return err
		}
	case "fixture":
		if resolveDate == "" {
			return fmt.Errorf("resolving a fixture by name needs --date")
		}
		date, err := fixture.ParseDate(resolveDate)
		if err != nil {
			return err
		}
		res, err = match.NewFixtureMatcher(cfg, table, s.Fixtures(), log).Resolve(ctx, input, date)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown entity kind %q", kind)
	}

	target := res.ID.String()
	if kind == "scout" && res.ID.IsZero() {
		target = fmt.Sprintf("user %d", res.UserID)
	}
	cmd.Printf("%q -> %s (%s", input, target, res.Method)
	if res.Method == match.MethodFuzzy {
		cmd.Printf(", score %.3f", res.Score)
	}
	if res.Detail != "" {
		cmd.Printf(", %s", res.Detail)
	}
	cmd.Println(")")
	if res.Name != "" {
		cmd.Printf("matched record: %s\n", res.Name)
	}
	return nil
}
