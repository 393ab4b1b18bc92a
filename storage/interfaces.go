package storage

import (
	"time"

	"mandi-scraper/models"
)

// SnapshotSink is the interface any snapshot storage backend must satisfy.
type SnapshotSink interface {
	Write(snap *models.RunSnapshot, runDate time.Time) (string, error)
}

// RunArchiver is the interface for persisting run history.
type RunArchiver interface {
	ArchiveRun(snap *models.RunSnapshot, runDate time.Time) error
	Close() error
}
