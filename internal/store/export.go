package store

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
)

// ErrExportNotFound indicates no export artifact has been stored for a user
var ErrExportNotFound = errors.New("export not found")

// ExportStore persists per-user export artifacts on the filesystem
type ExportStore struct {
	dir string
}

// NewExportStore creates an export store rooted at dir
func NewExportStore(dir string) *ExportStore {
	return &ExportStore{dir: dir}
}

// Path returns where a user's CSV export lives
func (e *ExportStore) Path(username string) string {
	// Usernames may contain path separators and other hostile characters
	return filepath.Join(e.dir, url.PathEscape(username)+".csv")
}

// StoreExport writes a user's CSV export artifact, replacing any previous one
func (e *ExportStore) StoreExport(username, csvText string) error {
	if err := os.MkdirAll(e.dir, 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	path := e.Path(username)
	tmpPath := path + ".tmp"

	if err := os.WriteFile(tmpPath, []byte(csvText), 0644); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename export file: %w", err)
	}
	return nil
}

// FetchExport returns a user's stored CSV export artifact
func (e *ExportStore) FetchExport(username string) (string, error) {
	data, err := os.ReadFile(e.Path(username))
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("user %q: %w", username, ErrExportNotFound)
		}
		return "", fmt.Errorf("failed to read export file: %w", err)
	}
	return string(data), nil
}
