// Package dedup tracks fingerprints of payloads already admitted to the
// ingestion queue, so identical content is rejected before it is queued
// twice.
package dedup

import "context"

// Index is the set of admitted fingerprints. TryMark is the only operation a
// handler may use to decide admission: it checks and inserts atomically, so
// two concurrent identical uploads cannot both pass.
type Index interface {
	// Contains reports whether the fingerprint was already marked.
	Contains(ctx context.Context, fingerprint []byte) (bool, error)

	// TryMark atomically inserts the fingerprint and reports whether it was
	// newly added. False means identical content was admitted earlier.
	TryMark(ctx context.Context, fingerprint []byte) (bool, error)

	// Unmark retracts a fingerprint whose message was not actually admitted
	// (queue full), so a later retry of the same content can succeed.
	Unmark(ctx context.Context, fingerprint []byte) error
}
