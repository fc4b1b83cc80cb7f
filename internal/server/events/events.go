// Package events publishes "item persisted" notifications for presentation
// layers. The worker pool emits one event per durable write; consumers render
// them however they like (the original system painted a video list).
package events

import (
	"context"
	"time"

	"github.com/isaiahsam/STDISCM-P3/internal/logging"
)

// Event describes one persisted upload.
type Event struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	Location    string    `json:"location"`
	Fingerprint string    `json:"fingerprint"`
	SizeBytes   int64     `json:"size_bytes"`
	PersistedAt time.Time `json:"persisted_at"`
}

// Notifier delivers persisted events. Implementations must not block the
// calling worker beyond a local send.
type Notifier interface {
	Publish(ctx context.Context, e Event) error
}

// LogNotifier is the default sink: every persisted event becomes a
// structured log line.
type LogNotifier struct {
	log logging.Logger
}

// NewLogNotifier wraps the given logger.
func NewLogNotifier(log logging.Logger) *LogNotifier {
	return &LogNotifier{log: log.With("module", "events")}
}

func (n *LogNotifier) Publish(ctx context.Context, e Event) error {
	n.log.Info(ctx, "item persisted",
		"id", e.ID,
		"filename", e.Filename,
		"location", e.Location,
		"size_bytes", e.SizeBytes,
	)
	return nil
}
