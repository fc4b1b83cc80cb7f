// Package storage persists admitted payloads. The filesystem store is the
// default; an S3-compatible store exists for containerized deployments.
package storage

import (
	"context"

	"github.com/isaiahsam/STDISCM-P3/internal/message"
)

// Store writes a message's payload to durable storage and returns the
// location it was written to.
type Store interface {
	Save(ctx context.Context, m *message.Message) (location string, err error)
}
