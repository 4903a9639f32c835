package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/wegman-software/osmstats-go/internal/server"
	"github.com/wegman-software/osmstats-go/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the contributor statistics dashboard",
	Long: `Serve the dashboard and the persisted aggregates over HTTP.

Endpoints:
  GET /                             HTML dashboard
  GET /api/users                    All users as JSON, ordered by edits
  GET /api/dashboard.csv            Dashboard export (user,edits)
  GET /api/users/{username}/export  Stored per-user changeset CSV

Example:
  osmstats-go serve --listen :8080`,
	Run: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "HTTP listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.NewPostgres(ctx, cfg)
	if err != nil {
		exitWithError("Failed to connect to PostgreSQL", err)
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		exitWithError("Failed to ensure schema", err)
	}

	srv := server.New(cfg.ListenAddr, db, store.NewExportStore(cfg.ExportDir))
	if err := srv.Run(ctx); err != nil {
		exitWithError("Dashboard server failed", err)
	}
}
