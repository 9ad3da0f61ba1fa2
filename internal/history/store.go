// Package history persists a record of every build.
package history

import (
	"context"
	"time"
)

// Record summarizes one build.
type Record struct {
	BuildID    string
	StartedAt  time.Time
	Duration   time.Duration
	Outcome    string
	Resources  int
	Bytes      int64
	Error      string
	ConfigHash string
}

// Store persists build records.
type Store interface {
	// Append stores a finished build.
	Append(ctx context.Context, rec Record) error

	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]Record, error)

	// Get returns the record for buildID.
	Get(ctx context.Context, buildID string) (Record, bool, error)

	// Close closes the store and releases resources.
	Close() error
}
