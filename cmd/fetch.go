package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spf13/cobra"
	"github.com/wegman-software/osmstats-go/internal/changeset"
	"github.com/wegman-software/osmstats-go/internal/logger"
	"github.com/wegman-software/osmstats-go/internal/metrics"
	"github.com/wegman-software/osmstats-go/internal/osmapi"
	"github.com/wegman-software/osmstats-go/internal/paginate"
	"github.com/wegman-software/osmstats-go/internal/parquet"
	"github.com/wegman-software/osmstats-go/internal/stats"
	"github.com/wegman-software/osmstats-go/internal/store"
)

var (
	fetchParquet     bool
	fetchNoStore     bool
	fetchConcurrency int
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <username>...",
	Short: "Fetch and aggregate a user's full changeset history",
	Long: `Fetch every changeset a user has ever uploaded and aggregate statistics.

The changeset listing endpoint returns at most 100 changesets per request,
newest first. The fetcher walks backward through time, shrinking the query
window below the earliest changeset seen so far, pausing between requests to
respect the API rate limit. A full history fetch for a prolific mapper can
take several minutes.

On success the aggregate is upserted into PostgreSQL and a CSV export of all
changesets is stored under the export directory.

Examples:
  # Fetch one user
  osmstats-go fetch SomeMapper

  # Fetch several users, two at a time, with a Parquet export as well
  osmstats-go fetch --concurrency 2 --parquet MapperA MapperB MapperC

  # Aggregate without touching the database
  osmstats-go fetch --no-store SomeMapper`,
	Args: cobra.MinimumNArgs(1),
	Run:  runFetch,
}

func init() {
	fetchCmd.Flags().BoolVar(&fetchParquet, "parquet", false, "Also write a Parquet export artifact")
	fetchCmd.Flags().BoolVar(&fetchNoStore, "no-store", false, "Skip PostgreSQL, only write export artifacts")
	fetchCmd.Flags().IntVar(&fetchConcurrency, "concurrency", 1, "Users fetched in parallel (each user is still strictly sequential)")
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) {
	log := logger.Get()

	if err := cfg.Validate(); err != nil {
		exitWithError("Invalid configuration", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Concurrent fetches for the same user would race on the upsert, so
	// duplicates are collapsed up front
	usernames := dedupe(args)

	var db *store.Postgres
	if !fetchNoStore {
		var err error
		db, err = store.NewPostgres(ctx, cfg)
		if err != nil {
			exitWithError("Failed to connect to PostgreSQL", err)
		}
		defer db.Close()
		if err := db.EnsureSchema(ctx); err != nil {
			exitWithError("Failed to ensure schema", err)
		}
	}

	exports := store.NewExportStore(cfg.ExportDir)
	client := osmapi.NewClient(cfg.APIBaseURL, cfg.UserAgent, cfg.RequestTimeout)

	// Heartbeat for long runs
	collector := metrics.NewCollector(cfg.MetricsInterval, log)
	metricsCtx, stopMetrics := context.WithCancel(ctx)
	defer stopMetrics()
	go collector.Start(metricsCtx)

	var failed atomic.Int64

	if fetchConcurrency < 1 {
		fetchConcurrency = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)

	for _, username := range usernames {
		username := username // per-iteration copy, required under Go <1.22 loop semantics
		g.Go(func() error {
			if err := fetchUser(gctx, client, db, exports, username); err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				failed.Add(1)
				log.Error("Fetch failed", zap.String("user", username), zap.String("reason", explain(err)), zap.Error(err))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		exitWithError("Fetch aborted", err)
	}
	if n := failed.Load(); n > 0 {
		exitWithError(fmt.Sprintf("%d of %d users failed", n, len(usernames)), nil)
	}

	log.Info("All users fetched", zap.Int("users", len(usernames)))
}

// fetchUser runs the full pipeline for one user: paginate, aggregate,
// persist, export
func fetchUser(ctx context.Context, client *osmapi.Client, db *store.Postgres, exports *store.ExportStore, username string) error {
	log := logger.Get()

	controller := paginate.NewController(client, cfg.RequestDelay)
	agg, err := controller.Run(ctx, username)
	if err != nil {
		return err
	}

	log.Info("History aggregated",
		zap.String("user", username),
		zap.Int64("total_edits", agg.TotalEdits),
		zap.Int("active_days", agg.ActiveDays()),
		zap.Int("changesets", agg.Records()),
		zap.Int("editors", len(agg.Editors)))

	csvText, err := agg.CSV()
	if err != nil {
		return fmt.Errorf("user %q: failed to render export: %w", username, err)
	}
	if err := exports.StoreExport(username, csvText); err != nil {
		return err
	}

	if fetchParquet {
		if err := writeParquetExport(username, agg); err != nil {
			return err
		}
	}

	if db != nil {
		if err := db.UpsertUser(ctx, username, agg.TotalEdits); err != nil {
			return err
		}
	}
	return nil
}

// writeParquetExport writes the aggregate's export rows as a Parquet file
// next to the CSV artifact
func writeParquetExport(username string, agg *stats.Aggregate) error {
	path := filepath.Join(cfg.ExportDir, url.PathEscape(username)+".parquet")

	w, err := parquet.NewChangesetWriter(path, 1000)
	if err != nil {
		return fmt.Errorf("user %q: failed to create parquet writer: %w", username, err)
	}
	for _, row := range agg.ExportRows {
		if err := w.WriteRow(row); err != nil {
			w.Close()
			return fmt.Errorf("user %q: failed to write parquet row: %w", username, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("user %q: failed to close parquet writer: %w", username, err)
	}
	return nil
}

// explain maps pipeline errors to a short operator-facing reason
func explain(err error) string {
	switch {
	case errors.Is(err, paginate.ErrUnknownUser):
		return "unknown username"
	case errors.Is(err, paginate.ErrNoContributions):
		return "user has no contributions"
	case errors.Is(err, changeset.ErrMalformedResponse):
		return "upstream returned an unparseable response"
	default:
		return "transport or persistence failure"
	}
}

// dedupe removes duplicate usernames while preserving order
func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := names[:0:0]
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
