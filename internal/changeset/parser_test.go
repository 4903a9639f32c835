package changeset

import (
	"errors"
	"testing"
)

func TestParsePage(t *testing.T) {
	body := `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6" generator="OpenStreetMap server">
  <changeset id="222" created_at="2020-01-02T00:00:00Z" closed_at="2020-01-02T00:05:00Z" changes_count="5" min_lon="7.40" min_lat="43.72" max_lon="7.44" max_lat="43.75">
    <tag k="created_by" v="JOSM/1.5 (12345)"/>
    <tag k="comment" v="fix buildings"/>
  </changeset>
  <changeset id="111" created_at="2020-01-01T00:00:00Z">
    <tag k="comment" v="no editor tag"/>
  </changeset>
  <changeset id="100" created_at="2019-12-31T12:00:00Z" changes_count="not-a-number"/>
</osm>`

	records, err := ParsePage([]byte(body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}

	first := records[0]
	if first.ID != "222" {
		t.Errorf("expected id 222, got %s", first.ID)
	}
	if first.CreatedAt != "2020-01-02T00:00:00Z" {
		t.Errorf("unexpected created_at: %s", first.CreatedAt)
	}
	if first.ClosedAt != "2020-01-02T00:05:00Z" {
		t.Errorf("unexpected closed_at: %s", first.ClosedAt)
	}
	if first.ChangesCount != 5 {
		t.Errorf("expected 5 changes, got %d", first.ChangesCount)
	}
	if first.MinLon != "7.40" || first.MaxLat != "43.75" {
		t.Errorf("unexpected bbox: %s %s", first.MinLon, first.MaxLat)
	}
	if first.Editor != "JOSM/1.5 (12345)" {
		t.Errorf("unexpected editor tag: %s", first.Editor)
	}

	// No created_by tag
	if records[1].Editor != UnknownEditor {
		t.Errorf("expected %q editor, got %s", UnknownEditor, records[1].Editor)
	}
	// Optional fields absent
	if records[1].ClosedAt != "" || records[1].MinLon != "" {
		t.Errorf("expected empty optional fields, got %q %q", records[1].ClosedAt, records[1].MinLon)
	}

	// Unparseable changes_count folds in as zero
	if records[2].ChangesCount != 0 {
		t.Errorf("expected 0 changes for bad count, got %d", records[2].ChangesCount)
	}
}

func TestParsePageEmpty(t *testing.T) {
	body := `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6" generator="OpenStreetMap server">
</osm>`

	records, err := ParsePage([]byte(body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}

func TestParsePageMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not xml", "503 Service Unavailable"},
		{"truncated", `<osm><changeset id="1" created_at="2020-01-01T00:00:00Z">`},
		{"mismatched tags", `<osm><changeset></osm>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePage([]byte(tt.body))
			if err == nil {
				t.Fatal("expected error but got none")
			}
			if !errors.Is(err, ErrMalformedResponse) {
				t.Errorf("expected ErrMalformedResponse, got %v", err)
			}
		})
	}
}

func TestEditorName(t *testing.T) {
	tests := []struct {
		tag  string
		want string
	}{
		{"JOSM/1.5 (12345)", "JOSM"},
		{"iD", "iD"},
		{"iD 2.19.5", "iD"},
		{"StreetComplete 40.2", "StreetComplete"},
		{"Potlatch 2", "Potlatch"},
		{"", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			if got := EditorName(tt.tag); got != tt.want {
				t.Errorf("EditorName(%q) = %q, want %q", tt.tag, got, tt.want)
			}
		})
	}
}

func TestRecordDay(t *testing.T) {
	r := Record{CreatedAt: "2020-01-02T13:45:00Z"}
	if got := r.Day(); got != "2020-01-02" {
		t.Errorf("expected day 2020-01-02, got %s", got)
	}

	short := Record{CreatedAt: "2020"}
	if got := short.Day(); got != "2020" {
		t.Errorf("expected short timestamp to pass through, got %s", got)
	}
}
