// Package message defines the immutable unit of transfer moving through the
// ingestion pipeline: one uploaded payload with its identity, display name,
// capture time and content fingerprint.
package message

import (
	"time"

	"github.com/google/uuid"

	"github.com/isaiahsam/STDISCM-P3/internal/fingerprint"
)

// Message is never mutated after construction. The fingerprint is a pure
// function of Payload; two messages with equal payload bytes carry equal
// fingerprints.
type Message struct {
	ID          uuid.UUID
	Filename    string
	Payload     []byte
	CreatedAt   time.Time
	Fingerprint []byte
}

// New builds a Message with a fresh identity and a fingerprint computed by fp.
func New(filename string, payload []byte, fp *fingerprint.Fingerprinter) (*Message, error) {
	digest, err := fp.Sum(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		ID:          uuid.New(),
		Filename:    filename,
		Payload:     payload,
		CreatedAt:   time.Now().UTC(),
		Fingerprint: digest,
	}, nil
}

// FingerprintHex renders the fingerprint for keys and logs.
func (m *Message) FingerprintHex() string {
	return fingerprint.Hex(m.Fingerprint)
}

// StorageKey is the content-addressed location the payload persists under.
// The ID prefix keeps two distinct uploads of the same display name from
// colliding.
func (m *Message) StorageKey() string {
	return m.ID.String() + "_" + SafeFilename(m.Filename)
}
