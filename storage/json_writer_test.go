package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mandi-scraper/models"
)

func sampleSnapshot() *models.RunSnapshot {
	report := models.NewCropReport("कांदा", "Onion")
	report.Local["पुणे"] = models.MarketQuote{ModalPrice: 2400}
	report.Outstate["Indore Mandi"] = models.MarketQuote{ModalPrice: 2100}

	return &models.RunSnapshot{
		Timestamp:              time.Date(2026, 2, 19, 18, 30, 0, 0, time.UTC),
		ExecutionTimeSeconds:   154.27,
		ExecutionTimeFormatted: "2m 34s",
		Crops:                  map[string]*models.CropReport{"onion": report},
	}
}

func TestPathFollowsDateScheme(t *testing.T) {
	w := NewSnapshotWriter("data")
	runDate := time.Date(2026, 2, 19, 18, 30, 0, 0, time.UTC)

	got := w.Path(runDate)
	want := filepath.Join("data", "2026", "02", "crop_prices_2026-02-19.json")
	if got != want {
		t.Errorf("Path() = %q, want %q", got, want)
	}
}

func TestWriteCreatesDatedSnapshot(t *testing.T) {
	base := t.TempDir()
	w := NewSnapshotWriter(base)
	runDate := time.Date(2026, 2, 19, 18, 30, 0, 0, time.UTC)

	path, err := w.Write(sampleSnapshot(), runDate)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if want := w.Path(runDate); path != want {
		t.Errorf("Write() returned %q, want %q", path, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read snapshot: %v", err)
	}

	content := string(data)
	if !strings.Contains(content, "पुणे") {
		t.Error("expected Devanagari market name to be written unescaped")
	}
	if strings.Contains(content, `\u`) {
		t.Error("expected no unicode escapes in snapshot")
	}
	if !strings.Contains(content, "\n  \"crops\"") {
		t.Error("expected two-space indented output")
	}
}

func TestWriteReplacesSameDateSnapshot(t *testing.T) {
	base := t.TempDir()
	w := NewSnapshotWriter(base)
	runDate := time.Date(2026, 2, 19, 8, 0, 0, 0, time.UTC)

	first := sampleSnapshot()
	first.ExecutionTimeFormatted = "1m 10s"
	if _, err := w.Write(first, runDate); err != nil {
		t.Fatalf("first Write() error = %v", err)
	}

	second := sampleSnapshot()
	second.ExecutionTimeFormatted = "2m 34s"
	path, err := w.Write(second, runDate)
	if err != nil {
		t.Fatalf("second Write() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read snapshot: %v", err)
	}
	if !strings.Contains(string(data), "2m 34s") {
		t.Error("expected second write to replace the snapshot")
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("failed to list snapshot dir: %v", err)
	}
	if len(entries) != 1 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("expected a single snapshot file, got %v", names)
	}
}

func TestWriteReportsWriteError(t *testing.T) {
	base := t.TempDir()

	// Occupy the year directory with a regular file so MkdirAll fails.
	blocker := filepath.Join(base, "2026")
	if err := os.WriteFile(blocker, []byte("in the way"), 0644); err != nil {
		t.Fatalf("failed to create blocker file: %v", err)
	}

	w := NewSnapshotWriter(base)
	runDate := time.Date(2026, 2, 19, 8, 0, 0, 0, time.UTC)

	_, err := w.Write(sampleSnapshot(), runDate)
	if err == nil {
		t.Fatal("expected Write() to fail")
	}

	var writeErr *WriteError
	if !errors.As(err, &writeErr) {
		t.Fatalf("expected *WriteError, got %T", err)
	}
	if writeErr.Path != w.Path(runDate) {
		t.Errorf("WriteError.Path = %q, want %q", writeErr.Path, w.Path(runDate))
	}
	if writeErr.Unwrap() == nil {
		t.Error("expected WriteError to wrap the cause")
	}
}
