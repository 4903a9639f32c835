package stats

import (
	"strings"
	"testing"

	"github.com/wegman-software/osmstats-go/internal/changeset"
)

func TestFold(t *testing.T) {
	agg := NewAggregate()

	earliest := agg.Fold([]changeset.Record{
		{ID: "3", CreatedAt: "2020-01-02T10:00:00Z", ChangesCount: 5, Editor: "JOSM/1.5 (12345)"},
		{ID: "2", CreatedAt: "2020-01-02T08:00:00Z", ChangesCount: 3, Editor: "iD 2.19.5"},
		{ID: "1", CreatedAt: "2020-01-01T09:00:00Z", ChangesCount: 0, Editor: changeset.UnknownEditor},
	})

	if earliest != "2020-01-01T09:00:00Z" {
		t.Errorf("expected earliest 2020-01-01T09:00:00Z, got %s", earliest)
	}
	if agg.TotalEdits != 8 {
		t.Errorf("expected 8 total edits, got %d", agg.TotalEdits)
	}
	if agg.ActiveDays() != 2 {
		t.Errorf("expected 2 active days, got %d", agg.ActiveDays())
	}
	if agg.Editors["JOSM"] != 1 || agg.Editors["iD"] != 1 || agg.Editors["unknown"] != 1 {
		t.Errorf("unexpected histogram: %v", agg.Editors)
	}
	if agg.Records() != 3 {
		t.Errorf("expected 3 records, got %d", agg.Records())
	}

	// Second batch accumulates monotonically
	earliest = agg.Fold([]changeset.Record{
		{ID: "0", CreatedAt: "2019-12-30T00:00:00Z", ChangesCount: 2, Editor: "JOSM/1.4"},
	})
	if earliest != "2019-12-30T00:00:00Z" {
		t.Errorf("expected earliest 2019-12-30T00:00:00Z, got %s", earliest)
	}
	if agg.TotalEdits != 10 {
		t.Errorf("expected 10 total edits, got %d", agg.TotalEdits)
	}
	if agg.ActiveDays() != 3 {
		t.Errorf("expected 3 active days, got %d", agg.ActiveDays())
	}
	if agg.Editors["JOSM"] != 2 {
		t.Errorf("expected 2 JOSM changesets, got %d", agg.Editors["JOSM"])
	}

	// Histogram counts sum to records processed
	var sum int64
	for _, n := range agg.Editors {
		sum += n
	}
	if int(sum) != agg.Records() {
		t.Errorf("histogram sums to %d, want %d", sum, agg.Records())
	}
}

func TestFoldEmptyBatch(t *testing.T) {
	agg := NewAggregate()
	if earliest := agg.Fold(nil); earliest != "" {
		t.Errorf("expected empty earliest for empty batch, got %q", earliest)
	}
	if agg.Records() != 0 || agg.TotalEdits != 0 || agg.ActiveDays() != 0 {
		t.Error("empty batch must not change the aggregate")
	}
}

func TestCSV(t *testing.T) {
	agg := NewAggregate()
	agg.Fold([]changeset.Record{
		{
			ID: "222", CreatedAt: "2020-01-02T00:00:00Z", ClosedAt: "2020-01-02T00:05:00Z",
			ChangesCount: 5, MinLon: "7.40", MinLat: "43.72", MaxLon: "7.44", MaxLat: "43.75",
			Editor: "JOSM/1.5 (12345)",
		},
		{ID: "111", CreatedAt: "2020-01-01T00:00:00Z", Editor: changeset.UnknownEditor},
	})

	csvText, err := agg.CSV()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	lines := strings.Split(strings.TrimRight(csvText, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "id,created_at,closed_at,changes_count,min_lon,min_lat,max_lon,max_lat,editor,comment" {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if lines[1] != "222,2020-01-02T00:00:00Z,2020-01-02T00:05:00Z,5,7.40,43.72,7.44,43.75,JOSM," {
		t.Errorf("unexpected first row: %s", lines[1])
	}
	if lines[2] != "111,2020-01-01T00:00:00Z,,0,,,,,unknown," {
		t.Errorf("unexpected second row: %s", lines[2])
	}
}
