package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"mandi-scraper/models"
)

// WriteError reports that the snapshot artifact could not be persisted. It
// is the one storage failure that fails the whole run.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write snapshot %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// SnapshotWriter persists run snapshots as dated, pretty-printed JSON files.
type SnapshotWriter struct {
	baseDir string
}

// NewSnapshotWriter creates a writer rooted at baseDir.
func NewSnapshotWriter(baseDir string) *SnapshotWriter {
	return &SnapshotWriter{baseDir: baseDir}
}

// Path returns the snapshot location for a run date:
// <base>/<YYYY>/<MM>/crop_prices_<YYYY-MM-DD>.json. Consumers build fetch
// URLs from this scheme, so its shape must not change.
func (w *SnapshotWriter) Path(runDate time.Time) string {
	return filepath.Join(
		w.baseDir,
		runDate.Format("2006"),
		runDate.Format("01"),
		fmt.Sprintf("crop_prices_%s.json", runDate.Format("2006-01-02")),
	)
}

// Write serializes the snapshot and persists it for the given run date,
// creating intermediate directories as needed. Content is staged to a temp
// file in the target directory and renamed over the destination, so readers
// never see a partial document and a same-date rerun replaces the previous
// snapshot in place.
func (w *SnapshotWriter) Write(snap *models.RunSnapshot, runDate time.Time) (string, error) {
	path := w.Path(runDate)
	dir := filepath.Dir(path)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", &WriteError{Path: path, Err: fmt.Errorf("create output dir: %w", err)}
	}

	// Devanagari market names must survive as-is, so HTML escaping is off.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return "", &WriteError{Path: path, Err: fmt.Errorf("encode snapshot: %w", err)}
	}

	tmp, err := os.CreateTemp(dir, ".crop_prices_*.tmp")
	if err != nil {
		return "", &WriteError{Path: path, Err: fmt.Errorf("create temp file: %w", err)}
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", &WriteError{Path: path, Err: fmt.Errorf("write temp file: %w", err)}
	}
	if err := tmp.Chmod(0644); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", &WriteError{Path: path, Err: fmt.Errorf("chmod temp file: %w", err)}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", &WriteError{Path: path, Err: fmt.Errorf("close temp file: %w", err)}
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return "", &WriteError{Path: path, Err: fmt.Errorf("replace snapshot: %w", err)}
	}

	return path, nil
}
