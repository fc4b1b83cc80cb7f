package wire

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/isaiahsam/STDISCM-P3/internal/common"
	"github.com/isaiahsam/STDISCM-P3/internal/message"
)

// MaxFilenameLen bounds the display name on the wire.
const MaxFilenameLen = 1024

// maxAdvisoryFingerprint bounds the optional client-side digest.
const maxAdvisoryFingerprint = 64

// UploadRequest is the decoded body of an upload frame. The fingerprint is
// advisory: the server recomputes its own digest and only that one drives
// deduplication.
type UploadRequest struct {
	ID          uuid.UUID
	CreatedAt   time.Time
	Fingerprint []byte
	Filename    string
	Data        []byte
}

// Upload payload field order:
//
//	id          [16]byte
//	createdAt   int64, unix milliseconds
//	fpLen       uint8, 0 when the producer sent no digest
//	fingerprint [fpLen]byte
//	nameLen     uint16
//	filename    [nameLen]byte, UTF-8
//	dataLen     uint32
//	data        [dataLen]byte

// EncodeUpload serializes a message into an upload frame body.
func EncodeUpload(m *message.Message) []byte {
	name := []byte(m.Filename)
	if len(name) > MaxFilenameLen {
		name = name[:MaxFilenameLen]
	}
	buf := make([]byte, 0, 16+8+1+len(m.Fingerprint)+2+len(name)+4+len(m.Payload))
	buf = append(buf, m.ID[:]...)
	buf = binary.BigEndian.AppendUint64(buf, uint64(m.CreatedAt.UnixMilli()))
	buf = append(buf, byte(len(m.Fingerprint)))
	buf = append(buf, m.Fingerprint...)
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(name)))
	buf = append(buf, name...)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(m.Payload)))
	buf = append(buf, m.Payload...)
	return buf
}

// DecodeUpload parses an upload frame body. Every length field is validated
// against the remaining bytes; trailing garbage is rejected.
func DecodeUpload(payload []byte) (*UploadRequest, error) {
	req := &UploadRequest{}
	rest := payload

	if len(rest) < 16 {
		return nil, fmt.Errorf("%w: short id", common.ErrBadFrame)
	}
	copy(req.ID[:], rest[:16])
	rest = rest[16:]

	if len(rest) < 8 {
		return nil, fmt.Errorf("%w: short timestamp", common.ErrBadFrame)
	}
	req.CreatedAt = time.UnixMilli(int64(binary.BigEndian.Uint64(rest[:8]))).UTC()
	rest = rest[8:]

	if len(rest) < 1 {
		return nil, fmt.Errorf("%w: missing fingerprint length", common.ErrBadFrame)
	}
	fpLen := int(rest[0])
	rest = rest[1:]
	if fpLen > maxAdvisoryFingerprint {
		return nil, fmt.Errorf("%w: fingerprint length %d", common.ErrBadFrame, fpLen)
	}
	if len(rest) < fpLen {
		return nil, fmt.Errorf("%w: short fingerprint", common.ErrBadFrame)
	}
	if fpLen > 0 {
		req.Fingerprint = append([]byte(nil), rest[:fpLen]...)
	}
	rest = rest[fpLen:]

	if len(rest) < 2 {
		return nil, fmt.Errorf("%w: missing filename length", common.ErrBadFrame)
	}
	nameLen := int(binary.BigEndian.Uint16(rest[:2]))
	rest = rest[2:]
	if nameLen > MaxFilenameLen {
		return nil, fmt.Errorf("%w: filename length %d", common.ErrBadFrame, nameLen)
	}
	if len(rest) < nameLen {
		return nil, fmt.Errorf("%w: short filename", common.ErrBadFrame)
	}
	req.Filename = string(rest[:nameLen])
	rest = rest[nameLen:]

	if len(rest) < 4 {
		return nil, fmt.Errorf("%w: missing data length", common.ErrBadFrame)
	}
	dataLen := int(binary.BigEndian.Uint32(rest[:4]))
	rest = rest[4:]
	if len(rest) != dataLen {
		return nil, fmt.Errorf("%w: data length %d, %d bytes present", common.ErrBadFrame, dataLen, len(rest))
	}
	req.Data = append([]byte(nil), rest...)

	return req, nil
}
