// Package cmd implements the CLI commands using Cobra.
package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"playbook/internal/config"
	"playbook/internal/logging"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Global flags
var (
	flagConfig   string
	flagLogLevel string
	flagJSON     bool
	flagDebug    bool
	flagListen   string
	flagDriver   string
	flagDSN      string
	flagBucket   string
)

// cfg holds the loaded configuration (merged: defaults < config file < env < flags).
var cfg *config.Config

// log is configured from cfg before any command runs.
var log = logging.Discard()

var rootCmd = &cobra.Command{
	Use:   "playbook",
	Short: "Football play sharing backend",
	Long: `Playbook serves the play-sharing API and ingests videos from
YouTube, Instagram, Facebook and X into object storage.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default: $XDG_CONFIG_HOME/playbook/config.toml)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: trace | debug | info | warn | error")
	rootCmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "JSON output (and JSON logs)")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "x", false, "Debug logging to stderr")
	rootCmd.PersistentFlags().StringVar(&flagListen, "listen", "", "HTTP listen address")
	rootCmd.PersistentFlags().StringVar(&flagDriver, "db-driver", "", "Database driver: sqlite | postgres")
	rootCmd.PersistentFlags().StringVar(&flagDSN, "db-dsn", "", "Database DSN or sqlite file path")
	rootCmd.PersistentFlags().StringVar(&flagBucket, "bucket", "", "S3 bucket for ingested videos")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(tagsCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads and merges configuration: defaults < config file < env < CLI flags.
func loadConfig(cmd *cobra.Command, args []string) error {
	if flagConfig != "" {
		if err := os.Setenv("PLAYBOOK_CONFIG", flagConfig); err != nil {
			return fmt.Errorf("setting config path: %w", err)
		}
	}

	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// CLI flags override config file values
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	if flagDebug {
		cfg.Log.Level = "debug"
	}
	if flagJSON {
		cfg.Log.JSON = true
	}
	if flagListen != "" {
		cfg.Server.ListenAddr = flagListen
	}
	if flagDriver != "" {
		cfg.Database.Driver = flagDriver
	}
	if flagDSN != "" {
		cfg.Database.DSN = flagDSN
	}
	if flagBucket != "" {
		cfg.Storage.Bucket = flagBucket
	}

	// Re-validate after flag overrides
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log = logging.Setup(cfg.Log.Level, cfg.Log.JSON, os.Stderr)
	log.WithFields(logrus.Fields{
		"driver": cfg.Database.Driver,
		"bucket": cfg.Storage.Bucket,
	}).Debug("configuration loaded")
	return nil
}
