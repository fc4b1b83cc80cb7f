// Package fingerprint computes content digests used as deduplication keys.
//
// A fingerprint is a pure function of the payload bytes: equal payloads
// always produce equal fingerprints, and the digests are 256-bit
// cryptographic hashes so near-duplicate or adversarial content cannot
// collide in practice. An unknown algorithm is a construction error, never a
// silent fallback to a weaker key.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"

	"golang.org/x/crypto/blake2b"

	"github.com/isaiahsam/STDISCM-P3/internal/common"
)

// Supported algorithm names.
const (
	AlgoSHA256  = "sha256"
	AlgoBlake2b = "blake2b-256"
)

// Size is the digest length in bytes for every supported algorithm.
const Size = 32

// Fingerprinter computes deterministic content digests.
type Fingerprinter struct {
	algo    string
	newHash func() (hash.Hash, error)
}

// New returns a Fingerprinter for the named algorithm, or
// common.ErrUnknownAlgorithm when the name is not supported.
func New(algo string) (*Fingerprinter, error) {
	switch algo {
	case AlgoSHA256, "":
		return &Fingerprinter{
			algo:    AlgoSHA256,
			newHash: func() (hash.Hash, error) { return sha256.New(), nil },
		}, nil
	case AlgoBlake2b:
		return &Fingerprinter{
			algo:    AlgoBlake2b,
			newHash: func() (hash.Hash, error) { return blake2b.New256(nil) },
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownAlgorithm, algo)
	}
}

// Algorithm reports the algorithm name in use.
func (f *Fingerprinter) Algorithm() string {
	return f.algo
}

// Sum returns the digest of data. The error path only fires when the
// underlying primitive cannot be constructed; callers must fail the upload in
// that case rather than admit the payload without a dedup key.
func (f *Fingerprinter) Sum(data []byte) ([]byte, error) {
	h, err := f.newHash()
	if err != nil {
		return nil, fmt.Errorf("init %s: %w", f.algo, err)
	}
	h.Write(data)
	return h.Sum(nil), nil
}

// Hex renders a digest as a lowercase hex string for keys, paths and logs.
func Hex(digest []byte) string {
	return hex.EncodeToString(digest)
}
