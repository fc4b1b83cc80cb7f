// Package client implements the producer side of the ingest protocol: it
// reads media files, frames them as upload requests and reports the server's
// admission decision for each one.
package client

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/isaiahsam/STDISCM-P3/internal/client/config"
	"github.com/isaiahsam/STDISCM-P3/internal/fingerprint"
	"github.com/isaiahsam/STDISCM-P3/internal/logging"
	"github.com/isaiahsam/STDISCM-P3/internal/message"
	"github.com/isaiahsam/STDISCM-P3/internal/wire"
)

// Outcome is the server's admission decision for one upload. Transport and
// protocol failures are returned as errors instead, so a caller can tell a
// rejected upload from one that never reached the server.
type Outcome int

const (
	OutcomeAccepted Outcome = iota
	OutcomeDuplicate
	OutcomeQueueFull
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeQueueFull:
		return "queue full"
	default:
		return fmt.Sprintf("unknown(%d)", int(o))
	}
}

// Result pairs one uploaded path with its outcome or failure.
type Result struct {
	Path    string
	Outcome Outcome
	Err     error
}

// Uploader submits files to the ingest server, one connection per upload.
type Uploader struct {
	cfg *config.Config
	fp  *fingerprint.Fingerprinter
	log logging.Logger
}

// NewUploader builds an Uploader from its configuration.
func NewUploader(cfg *config.Config, log logging.Logger) (*Uploader, error) {
	fp, err := fingerprint.New(cfg.FingerprintAlgo)
	if err != nil {
		return nil, fmt.Errorf("fingerprint init: %w", err)
	}
	return &Uploader{cfg: cfg, fp: fp, log: log.With("module", "uploader")}, nil
}

// Upload reads the file at path and submits it. The digest computed here
// travels with the request as an advisory hint only; the server recomputes
// its own before deciding.
func (u *Uploader) Upload(ctx context.Context, path string) (Outcome, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}

	m, err := message.New(filepath.Base(path), data, u.fp)
	if err != nil {
		return 0, fmt.Errorf("build message for %s: %w", path, err)
	}

	return u.send(ctx, m)
}

func (u *Uploader) send(ctx context.Context, m *message.Message) (Outcome, error) {
	dialer := net.Dialer{Timeout: u.cfg.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", u.cfg.ServerAddr)
	if err != nil {
		return 0, fmt.Errorf("dial %s: %w", u.cfg.ServerAddr, err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(u.cfg.ResponseTimeout)); err != nil {
		return 0, fmt.Errorf("set deadline: %w", err)
	}

	if err := wire.WriteFrame(conn, wire.TypeUpload, wire.EncodeUpload(m)); err != nil {
		return 0, fmt.Errorf("send upload: %w", err)
	}

	frameType, payload, err := wire.ReadFrame(conn, wire.DefaultMaxFrame)
	if err != nil {
		return 0, fmt.Errorf("read result: %w", err)
	}
	if frameType != wire.TypeResult {
		return 0, fmt.Errorf("unexpected frame type 0x%02x", frameType)
	}

	status, detail, err := wire.DecodeResult(payload)
	if err != nil {
		return 0, fmt.Errorf("decode result: %w", err)
	}

	u.log.Debug(ctx, "upload finished",
		"id", m.ID.String(),
		"filename", m.Filename,
		"status", status.String(),
		"detail", detail,
	)

	switch status {
	case wire.StatusAccepted:
		return OutcomeAccepted, nil
	case wire.StatusDuplicate:
		return OutcomeDuplicate, nil
	case wire.StatusQueueFull:
		return OutcomeQueueFull, nil
	default:
		return 0, fmt.Errorf("unknown status 0x%02x", byte(status))
	}
}

// UploadConcurrent submits every path, at most ProducerConcurrency at a time.
// Results come back in input order. A cancelled context fails the remaining
// uploads without starting them.
func (u *Uploader) UploadConcurrent(ctx context.Context, paths []string) []Result {
	limit := int64(u.cfg.ProducerConcurrency)
	if limit < 1 {
		limit = 1
	}
	sem := semaphore.NewWeighted(limit)

	results := make([]Result, len(paths))
	for i, path := range paths {
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i] = Result{Path: path, Err: err}
			continue
		}
		go func(i int, path string) {
			defer sem.Release(1)
			outcome, err := u.Upload(ctx, path)
			results[i] = Result{Path: path, Outcome: outcome, Err: err}
		}(i, path)
	}

	// Taking every slot waits for all in-flight uploads.
	if err := sem.Acquire(context.Background(), limit); err == nil {
		sem.Release(limit)
	}
	return results
}
