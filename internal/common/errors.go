// Package common defines sentinel errors shared across client and server
// layers. Callers should match them with errors.Is.
package common

import "errors"

var (
	// Queue admission errors.
	ErrQueueFull   = errors.New("queue full")
	ErrQueueClosed = errors.New("queue closed")

	// Dedup outcome.
	ErrDuplicate = errors.New("duplicate content")

	// Wire protocol errors.
	ErrBadFrame           = errors.New("malformed frame")
	ErrUnsupportedVersion = errors.New("unsupported protocol version")
	ErrFrameTooLarge      = errors.New("frame exceeds size limit")

	// Fingerprint errors.
	ErrUnknownAlgorithm = errors.New("unknown digest algorithm")

	// Repository errors.
	ErrNotFound = errors.New("not found")
)
