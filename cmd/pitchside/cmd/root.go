// Package cmd implements the pitchside CLI commands.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pitchside/pitchside/internal/store"
	"github.com/pitchside/pitchside/pkg/aliases"
	"github.com/pitchside/pitchside/pkg/logging"
	"github.com/pitchside/pitchside/pkg/match"
)

var (
	configFile string

	// Version information set by main.
	Version = "dev"
	// Commit is the git commit hash.
	Commit = "unknown"
	// Date is the build date.
	Date = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "pitchside",
	Short: "Scouting report entity resolution",
	Long: `Pitchside reconciles free-text scouting reports against the player and
fixture catalog. It resolves noisy names through aliases, normalization and
bounded fuzzy matching, detects and merges duplicate records across the
provider and internal namespaces, and keeps an audit log of every decision.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI with signal-aware cancellation.
func Execute(version, commit, date string) {
	Version = version
	Commit = commit
	Date = date

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logging.Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is ./pitchside.yaml)")
	rootCmd.PersistentFlags().String("db", "pitchside.db", "path to the SQLite database")
	rootCmd.PersistentFlags().String("aliases", "", "path to the operator alias file (YAML)")
	rootCmd.PersistentFlags().Float64("threshold", 0.85, "fuzzy match acceptance threshold")
	rootCmd.PersistentFlags().Bool("no-fuzzy", false, "disable fuzzy matching entirely")
	rootCmd.PersistentFlags().Int("max-candidates", 200, "refuse fuzzy scans over larger candidate sets")

	for _, flag := range []string{"db", "aliases", "threshold", "no-fuzzy", "max-candidates"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(fmt.Sprintf("bind %s flag: %v", flag, err))
		}
	}
}

func initConfig() {
	// .env files are a convenience for local runs; absence is fine.
	_ = godotenv.Load()

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("pitchside")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
	}

	viper.SetEnvPrefix("PITCHSIDE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		logging.Debug().Str("config", viper.ConfigFileUsed()).Msg("loaded config file")
	}
}

// openStore opens and migrates the configured database.
func openStore(ctx context.Context) (*store.Store, error) {
	s, err := store.Open(viper.GetString("db"))
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// loadAliases loads the configured alias table, or an empty one.
func loadAliases() (*aliases.Table, error) {
	path := viper.GetString("aliases")
	if path == "" {
		return aliases.New(), nil
	}
	return aliases.Load(path)
}

// matcherConfig builds the match configuration from flags and config file.
func matcherConfig() match.Config {
	cfg := match.DefaultConfig()
	cfg.FuzzyEnabled = !viper.GetBool("no-fuzzy")
	cfg.Threshold = viper.GetFloat64("threshold")
	cfg.MaxCandidates = viper.GetInt("max-candidates")
	return cfg
}
