package cmd

import (
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/spf13/cobra"
	"github.com/wegman-software/osmstats-go/internal/config"
	"github.com/wegman-software/osmstats-go/internal/logger"
)

var (
	cfg        = config.DefaultConfig()
	verbose    bool
	logFile    string
	configFile string
)

var rootCmd = &cobra.Command{
	Use:   "osmstats-go",
	Short: "OpenStreetMap contributor statistics fetcher and dashboard",
	Long: `osmstats-go fetches a user's full changeset history from the OpenStreetMap
API, aggregates edit statistics, and serves a small dashboard.

Features:
  - Backward pagination over the changeset listing endpoint, rate-limit aware
  - Per-user totals: edit count, distinct active days, editor-tool histogram
  - CSV (and optional Parquet) export artifact per user
  - PostgreSQL-backed dashboard of all fetched users`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Values present in the config file override command-line flags
		if configFile != "" {
			if err := cfg.LoadFile(configFile); err != nil {
				exitWithError("Failed to load config file", err)
			}
		}
		cfg.Verbose = verbose
		cfg.LogFile = logFile

		if logFile != "" {
			logger.InitWithFile(verbose, logFile)
		} else {
			logger.Init(verbose)
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Path to log file for persistent logging (JSON format)")

	// Upstream API flags
	rootCmd.PersistentFlags().StringVar(&cfg.APIBaseURL, "api-url", cfg.APIBaseURL, "Changeset API base URL")
	rootCmd.PersistentFlags().DurationVar(&cfg.RequestDelay, "request-delay", cfg.RequestDelay, "Minimum pause between page requests")
	rootCmd.PersistentFlags().DurationVar(&cfg.MetricsInterval, "metrics-interval", 30*time.Second, "Interval for system metrics logging (e.g., 10s, 1m)")

	// Export flags
	rootCmd.PersistentFlags().StringVarP(&cfg.ExportDir, "export-dir", "o", cfg.ExportDir, "Directory for per-user export artifacts")

	// Database flags (persistent so they're available to all subcommands)
	rootCmd.PersistentFlags().StringVar(&cfg.DBHost, "db-host", cfg.DBHost, "PostgreSQL host")
	rootCmd.PersistentFlags().IntVar(&cfg.DBPort, "db-port", cfg.DBPort, "PostgreSQL port")
	rootCmd.PersistentFlags().StringVarP(&cfg.DBName, "db-name", "d", cfg.DBName, "PostgreSQL database name")
	rootCmd.PersistentFlags().StringVarP(&cfg.DBUser, "db-user", "U", cfg.DBUser, "PostgreSQL user")
	rootCmd.PersistentFlags().StringVarP(&cfg.DBPassword, "db-password", "W", cfg.DBPassword, "PostgreSQL password")
	rootCmd.PersistentFlags().StringVar(&cfg.DBSchema, "db-schema", cfg.DBSchema, "PostgreSQL schema")
}

func exitWithError(msg string, err error) {
	log := logger.Get()
	if err != nil {
		log.Error(msg, zap.Error(err))
	} else {
		log.Error(msg)
	}
	os.Exit(1)
}
