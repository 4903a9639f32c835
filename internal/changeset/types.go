package changeset

import "strings"

// UnknownEditor is the histogram key for changesets without a created_by tag
const UnknownEditor = "unknown"

// Record represents one changeset from the upstream listing endpoint.
// Timestamps and bounding box coordinates are kept as the raw attribute
// strings: created_at ordering relies on fixed-width UTC ISO-8601 sorting
// lexicographically, and the bbox is pass-through data for the export.
type Record struct {
	ID           string
	CreatedAt    string
	ClosedAt     string
	ChangesCount int64
	MinLon       string
	MinLat       string
	MaxLon       string
	MaxLat       string
	Editor       string // raw created_by tag value, UnknownEditor when absent
}

// Day returns the calendar-day prefix of the creation timestamp
func (r *Record) Day() string {
	if len(r.CreatedAt) < 10 {
		return r.CreatedAt
	}
	return r.CreatedAt[:10]
}

// EditorName derives the histogram key from a created_by tag value by
// stripping the version suffix: everything after the first "/" and then
// everything after the first space. "JOSM/1.5 (12345)" becomes "JOSM".
// The heuristic is deliberately this simple; downstream histograms depend
// on it staying stable.
func EditorName(tag string) string {
	if tag == "" {
		return UnknownEditor
	}
	name := tag
	if i := strings.Index(name, "/"); i >= 0 {
		name = name[:i]
	}
	if i := strings.Index(name, " "); i >= 0 {
		name = name[:i]
	}
	return name
}
