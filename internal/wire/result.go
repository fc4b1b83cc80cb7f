package wire

import (
	"fmt"

	"github.com/isaiahsam/STDISCM-P3/internal/common"
)

// Status is the single-byte outcome carried in a result frame.
type Status byte

// Protocol outcomes. Exactly one is sent per successfully parsed upload.
const (
	StatusAccepted  Status = 0x01
	StatusDuplicate Status = 0x02
	StatusQueueFull Status = 0x03
)

func (s Status) String() string {
	switch s {
	case StatusAccepted:
		return "ACCEPTED"
	case StatusDuplicate:
		return "DUPLICATE"
	case StatusQueueFull:
		return "QUEUE_FULL"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", byte(s))
	}
}

// EncodeResult serializes a result frame body: one status byte followed by an
// optional human-readable detail.
func EncodeResult(status Status, detail string) []byte {
	buf := make([]byte, 0, 1+len(detail))
	buf = append(buf, byte(status))
	buf = append(buf, detail...)
	return buf
}

// DecodeResult parses a result frame body.
func DecodeResult(payload []byte) (Status, string, error) {
	if len(payload) < 1 {
		return 0, "", fmt.Errorf("%w: empty result", common.ErrBadFrame)
	}
	status := Status(payload[0])
	switch status {
	case StatusAccepted, StatusDuplicate, StatusQueueFull:
		return status, string(payload[1:]), nil
	default:
		return 0, "", fmt.Errorf("%w: unknown status %d", common.ErrBadFrame, payload[0])
	}
}
