// Package catalog records successfully persisted uploads so presentation
// layers can list them without touching the storage backend. The original
// system rendered this list directly in its UI; here it is plain data behind
// a repository interface.
package catalog

import (
	"context"
	"time"
)

// Upload is one persisted payload.
type Upload struct {
	ID          string
	Filename    string
	Location    string
	Fingerprint string
	SizeBytes   int64
	PersistedAt time.Time
}

// Repository stores and lists persisted uploads. Failures here are logged by
// callers and never fail the persistence path itself.
type Repository interface {
	// Record inserts one upload. Recording the same ID twice is an error.
	Record(ctx context.Context, u *Upload) error

	// List returns the most recently persisted uploads, newest first,
	// capped at limit.
	List(ctx context.Context, limit int) ([]*Upload, error)
}
