package store

import (
	"errors"
	"strings"
	"testing"
)

func TestExportStoreRoundTrip(t *testing.T) {
	exports := NewExportStore(t.TempDir())

	const csvText = "id,created_at,closed_at,changes_count,min_lon,min_lat,max_lon,max_lat,editor,comment\n1,2020-01-01T00:00:00Z,,5,,,,,iD,\n"
	if err := exports.StoreExport("alice", csvText); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := exports.FetchExport("alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != csvText {
		t.Errorf("fetched export differs from stored one:\n%s", got)
	}
}

func TestExportStoreOverwrite(t *testing.T) {
	exports := NewExportStore(t.TempDir())

	if err := exports.StoreExport("alice", "old\n"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := exports.StoreExport("alice", "new\n"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := exports.FetchExport("alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "new\n" {
		t.Errorf("expected last write to win, got %q", got)
	}
}

func TestExportStoreNotFound(t *testing.T) {
	exports := NewExportStore(t.TempDir())

	_, err := exports.FetchExport("nobody")
	if !errors.Is(err, ErrExportNotFound) {
		t.Errorf("expected ErrExportNotFound, got %v", err)
	}
}

func TestExportStoreHostileUsername(t *testing.T) {
	dir := t.TempDir()
	exports := NewExportStore(dir)

	const username = "../../etc/passwd"
	if err := exports.StoreExport(username, "data\n"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	path := exports.Path(username)
	if !strings.HasPrefix(path, dir) {
		t.Errorf("export escaped the store directory: %s", path)
	}

	got, err := exports.FetchExport(username)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "data\n" {
		t.Errorf("unexpected export content: %q", got)
	}
}

func TestUsersCSV(t *testing.T) {
	csvText, err := UsersCSV([]UserRow{
		{Username: "alice", Edits: 100},
		{Username: "bob", Edits: 7},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "user,edits\nalice,100\nbob,7\n"
	if csvText != want {
		t.Errorf("unexpected CSV:\n%q\nwant\n%q", csvText, want)
	}
}
