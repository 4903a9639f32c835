package paginate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/wegman-software/osmstats-go/internal/changeset"
	"github.com/wegman-software/osmstats-go/internal/logger"
	"github.com/wegman-software/osmstats-go/internal/osmapi"
	"github.com/wegman-software/osmstats-go/internal/stats"
)

// ErrUnknownUser indicates the upstream has no record of the username
var ErrUnknownUser = errors.New("unknown user")

// ErrNoContributions indicates a valid user whose changeset history is empty
var ErrNoContributions = errors.New("user has no contributions")

// PageFetcher fetches one raw page of a user's changeset history
type PageFetcher interface {
	FetchPage(ctx context.Context, user, windowEnd string) ([]byte, error)
}

// Controller walks a user's changeset history backward through time.
// Each iteration fetches one page for [epoch, windowEnd], folds it into the
// aggregate and shrinks the window to just before the earliest record seen.
// Pages are strictly sequential; the rate-limit pause between them is the
// only suspension point.
type Controller struct {
	fetcher PageFetcher
	delay   time.Duration

	// injected for tests
	parse func([]byte) ([]changeset.Record, error)
	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// NewController creates a pagination controller. The delay is the minimum
// pause after every successful page fetch; values below osmapi.MinDelay are
// raised to it.
func NewController(fetcher PageFetcher, delay time.Duration) *Controller {
	if delay < osmapi.MinDelay {
		delay = osmapi.MinDelay
	}
	return &Controller{
		fetcher: fetcher,
		delay:   delay,
		parse:   changeset.ParsePage,
		sleep:   sleepContext,
		now:     time.Now,
	}
}

// Run fetches and aggregates the complete changeset history of one user.
// It returns the finished aggregate, or an error with no partial result:
// ErrUnknownUser on an upstream 404, ErrNoContributions when the first page
// is empty, a wrapped changeset.ErrMalformedResponse when a page cannot be
// parsed, and a wrapped transport error otherwise.
//
// Termination is guaranteed: windowEnd strictly decreases by at least one
// second per page and the window is bounded below by the epoch. If more
// than a full page of changesets share the same created_at second, records
// beyond the page limit can be skipped; that is a known limitation of the
// windowing scheme.
func (c *Controller) Run(ctx context.Context, username string) (*stats.Aggregate, error) {
	log := logger.Get()

	agg := stats.NewAggregate()
	windowEnd := c.now().UTC().Format(time.RFC3339)
	firstPage := true
	page := 0

	for {
		page++
		log.Debug("Fetching changeset page",
			zap.String("user", username),
			zap.Int("page", page),
			zap.String("window_end", windowEnd))

		body, err := c.fetcher.FetchPage(ctx, username, windowEnd)
		if err != nil {
			if errors.Is(err, osmapi.ErrNotFound) {
				return nil, fmt.Errorf("user %q: %w", username, ErrUnknownUser)
			}
			return nil, fmt.Errorf("user %q: page %d fetch failed: %w", username, page, err)
		}

		records, err := c.parse(body)
		if err != nil {
			return nil, fmt.Errorf("user %q: page %d: %w", username, page, err)
		}

		if len(records) == 0 {
			if firstPage {
				return nil, fmt.Errorf("user %q: %w", username, ErrNoContributions)
			}
			log.Debug("Reached end of history",
				zap.String("user", username),
				zap.Int("pages", page),
				zap.Int("records", agg.Records()))
			return agg, nil
		}
		firstPage = false

		earliest := agg.Fold(records)
		windowEnd, err = secondBefore(earliest)
		if err != nil {
			return nil, fmt.Errorf("user %q: page %d: bad created_at %q: %w",
				username, page, earliest, changeset.ErrMalformedResponse)
		}

		if err := c.sleep(ctx, c.delay); err != nil {
			return nil, fmt.Errorf("user %q: fetch aborted: %w", username, err)
		}
	}
}

// secondBefore returns the timestamp one second before t, in the same
// fixed-width UTC format. The strict decrement excludes the boundary record
// from the next page so shared-timestamp records at the window edge cannot
// loop forever or be counted twice.
func secondBefore(t string) (string, error) {
	parsed, err := time.Parse(time.RFC3339, t)
	if err != nil {
		return "", err
	}
	return parsed.Add(-time.Second).UTC().Format(time.RFC3339), nil
}

// sleepContext pauses for d or until the context is cancelled
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
