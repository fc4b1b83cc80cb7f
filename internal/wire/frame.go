// Package wire implements the ingest protocol: an explicit, versioned binary
// framing so producers and the server can evolve (or be written in another
// language) without depending on any runtime's object serialization.
//
// Each connection carries exactly one exchange: the producer sends an upload
// frame, the server answers with a single result frame, then both sides
// close.
//
// Frame layout (big endian):
//
//	magic   [4]byte  "MVID"
//	version byte     currently 1
//	type    byte     upload or result
//	length  uint32   payload byte count
//	payload [length]byte
package wire

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/isaiahsam/STDISCM-P3/internal/common"
)

// Version is the protocol version this build speaks.
const Version byte = 1

var magic = [4]byte{'M', 'V', 'I', 'D'}

// Frame types.
const (
	TypeUpload byte = 0x01
	TypeResult byte = 0x02
)

const headerLen = 4 + 1 + 1 + 4

// DefaultMaxFrame bounds the payload size accepted from a peer.
const DefaultMaxFrame = 1 << 30

// WriteFrame writes one framed payload to w.
func WriteFrame(w io.Writer, frameType byte, payload []byte) error {
	hdr := make([]byte, headerLen)
	copy(hdr[:4], magic[:])
	hdr[4] = Version
	hdr[5] = frameType
	binary.BigEndian.PutUint32(hdr[6:], uint32(len(payload)))
	if _, err := w.Write(hdr); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// ReadFrame reads one framed payload from r. maxFrame = 0 applies
// DefaultMaxFrame. A short read, bad magic or foreign version is a protocol
// error; no response is owed to a peer that cannot be parsed.
func ReadFrame(r io.Reader, maxFrame uint32) (byte, []byte, error) {
	hdr := make([]byte, headerLen)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return 0, nil, fmt.Errorf("%w: header: %v", common.ErrBadFrame, err)
	}
	if [4]byte(hdr[:4]) != magic {
		return 0, nil, fmt.Errorf("%w: bad magic %x", common.ErrBadFrame, hdr[:4])
	}
	if hdr[4] != Version {
		return 0, nil, fmt.Errorf("%w: got %d", common.ErrUnsupportedVersion, hdr[4])
	}
	frameType := hdr[5]
	length := binary.BigEndian.Uint32(hdr[6:])
	if maxFrame == 0 {
		maxFrame = DefaultMaxFrame
	}
	if length > maxFrame {
		return 0, nil, fmt.Errorf("%w: %d bytes declared, limit %d", common.ErrFrameTooLarge, length, maxFrame)
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, fmt.Errorf("%w: payload: %v", common.ErrBadFrame, err)
	}
	return frameType, payload, nil
}
