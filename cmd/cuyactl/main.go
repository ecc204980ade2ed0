package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mr1hm/cuya-bot/internal/config"
	"github.com/mr1hm/cuya-bot/internal/logging"
	"github.com/mr1hm/cuya-bot/internal/repository"
)

var (
	dbPath    string
	rulesPath string
	logLevel  string

	cfg *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "cuyactl",
	Short: "Operator tool for the CUYA-BOT emergency report store",
	Long: `cuyactl talks to the same SQLite report store as the cuyabot server.

It can run a dialogue on the terminal, list and delete reports, apply
schema migrations, and show how the keyword rules classify a message.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Config is read here, after .env has been loaded. Flags win over env.
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if dbPath != "" {
			c.DB.Path = dbPath
		}
		if rulesPath != "" {
			c.Rules.Path = rulesPath
		}
		if logLevel != "" {
			c.Logging.Level = logLevel
		}
		cfg = c

		logging.SetupWriter(cmd.ErrOrStderr(), cfg.Logging.Level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (default $DB_PATH or ./data/reports.db)")
	rootCmd.PersistentFlags().StringVar(&rulesPath, "rules", "", "Rules YAML file (default $RULES_PATH, else the built-in table)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default $LOG_LEVEL or info)")
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func openDB() (*repository.SQLiteDB, error) {
	if err := repository.EnsureParentDir(cfg.DB.Path); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.DB.Path, err)
	}
	return db, nil
}
