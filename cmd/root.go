package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/aniketthapawork/ai-tutor/internal/config"
	"github.com/aniketthapawork/ai-tutor/internal/logging"
	"github.com/aniketthapawork/ai-tutor/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "tutor",
	Short: "AI English tutor service",
	Long:  "tutor serves an English-learning API: tests, AI feedback, streaks and progress.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides TUTOR_DB env var)")
	rootCmd.PersistentFlags().String("config", "", "Path to a config file (yaml, toml or json)")
	rootCmd.PersistentFlags().String("env-file", ".env", "Path to a .env file loaded before reading the environment")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads configuration and applies command-line overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")
	cfg, err := config.Load(config.Options{EnvFile: envFile, ConfigFile: cfgFile})
	if err != nil {
		return nil, err
	}
	if cfg.Database.Driver == store.DriverSQLite || cfg.Database.Driver == "" {
		p, err := resolveDBPath(cmd, cfg.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("resolve database path: %w", err)
		}
		cfg.Database.Path = p
	}
	return cfg, nil
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then the configured path, then TUTOR_DB, then the default XDG path.
func resolveDBPath(cmd *cobra.Command, configured string) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if configured != "" {
		return configured, store.EnsureDir(configured)
	}
	return store.DefaultDBPath()
}

// openStore loads configuration and opens the database for a CLI command.
func openStore(cmd *cobra.Command) (*store.Store, *config.Config, *zap.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, nil, err
	}
	s, err := store.Open(cfg.Database.Store(), log)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open database: %w", err)
	}
	return s, cfg, log, nil
}
