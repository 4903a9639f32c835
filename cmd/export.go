package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/wegman-software/osmstats-go/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print stored export artifacts",
	Long: `Print stored export artifacts to stdout.

Examples:
  # All users with their edit counts
  osmstats-go export dashboard > dashboard.csv

  # One user's full changeset history
  osmstats-go export user SomeMapper > SomeMapper.csv`,
}

var exportDashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Print the dashboard CSV (user,edits for every fetched user)",
	Run:   runExportDashboard,
}

var exportUserCmd = &cobra.Command{
	Use:   "user <username>",
	Short: "Print a user's stored changeset export CSV",
	Args:  cobra.ExactArgs(1),
	Run:   runExportUser,
}

func init() {
	exportCmd.AddCommand(exportDashboardCmd)
	exportCmd.AddCommand(exportUserCmd)
	rootCmd.AddCommand(exportCmd)
}

func runExportDashboard(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.NewPostgres(ctx, cfg)
	if err != nil {
		exitWithError("Failed to connect to PostgreSQL", err)
	}
	defer db.Close()

	csvText, err := db.DashboardCSV(ctx)
	if err != nil {
		exitWithError("Failed to build dashboard export", err)
	}
	fmt.Print(csvText)
}

func runExportUser(cmd *cobra.Command, args []string) {
	exports := store.NewExportStore(cfg.ExportDir)

	csvText, err := exports.FetchExport(args[0])
	if err != nil {
		exitWithError("Failed to read export", err)
	}
	fmt.Print(csvText)
}
