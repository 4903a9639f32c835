package stats

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/wegman-software/osmstats-go/internal/changeset"
)

// ExportHeader is the column layout of the per-user export artifact.
// The comment column is reserved and always empty.
var ExportHeader = []string{
	"id", "created_at", "closed_at", "changes_count",
	"min_lon", "min_lat", "max_lon", "max_lat", "editor", "comment",
}

// Aggregate accumulates statistics over one user's full changeset history.
// Counters only ever increase; a new fetch starts from a fresh Aggregate
// rather than merging into an old one.
type Aggregate struct {
	TotalEdits int64
	Editors    map[string]int64
	ExportRows [][]string

	days map[string]struct{}
}

// NewAggregate returns an empty aggregate
func NewAggregate() *Aggregate {
	return &Aggregate{
		Editors: make(map[string]int64),
		days:    make(map[string]struct{}),
	}
}

// ActiveDays returns the number of distinct calendar days with activity
func (a *Aggregate) ActiveDays() int {
	return len(a.days)
}

// Records returns the number of changesets folded in so far
func (a *Aggregate) Records() int {
	return len(a.ExportRows)
}

// Fold accumulates one batch of records and returns the minimum created_at
// observed in the batch, or "" for an empty batch. The minimum is computed
// by plain string comparison, which matches chronological order because all
// upstream timestamps share the same fixed-width UTC format.
func (a *Aggregate) Fold(records []changeset.Record) (earliest string) {
	for i := range records {
		r := &records[i]

		a.TotalEdits += r.ChangesCount
		a.days[r.Day()] = struct{}{}
		a.Editors[changeset.EditorName(r.Editor)]++
		a.ExportRows = append(a.ExportRows, []string{
			r.ID, r.CreatedAt, r.ClosedAt,
			strconv.FormatInt(r.ChangesCount, 10),
			r.MinLon, r.MinLat, r.MaxLon, r.MaxLat,
			changeset.EditorName(r.Editor),
			"", // comment, reserved
		})

		if earliest == "" || r.CreatedAt < earliest {
			earliest = r.CreatedAt
		}
	}
	return earliest
}

// CSV renders the export artifact: header plus one row per record in
// observation order (newest pages first)
func (a *Aggregate) CSV() (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(ExportHeader); err != nil {
		return "", err
	}
	for _, row := range a.ExportRows {
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
