// Package ingest implements the network face of the pipeline: a TCP acceptor
// and the per-connection protocol handler.
package ingest

import (
	"context"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/isaiahsam/STDISCM-P3/internal/fingerprint"
	"github.com/isaiahsam/STDISCM-P3/internal/logging"
	"github.com/isaiahsam/STDISCM-P3/internal/message"
	"github.com/isaiahsam/STDISCM-P3/internal/metric"
	"github.com/isaiahsam/STDISCM-P3/internal/server/dedup"
	"github.com/isaiahsam/STDISCM-P3/internal/server/queue"
	"github.com/isaiahsam/STDISCM-P3/internal/wire"
)

// HandlerConfig wires a Handler's collaborators.
type HandlerConfig struct {
	Fingerprinter *fingerprint.Fingerprinter
	Index         dedup.Index
	Queue         *queue.Queue
	Metrics       *metric.Metrics
	Logger        logging.Logger
	MaxFrame      uint32
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
}

// Handler runs the protocol exchange for one accepted connection: read one
// upload, check the dedup index, attempt queue admission, send exactly one
// result, close. Handlers run fully concurrently; the index and queue are the
// only shared state and are only touched through their atomic operations.
type Handler struct {
	fp           *fingerprint.Fingerprinter
	index        dedup.Index
	queue        *queue.Queue
	metrics      *metric.Metrics
	log          logging.Logger
	maxFrame     uint32
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// NewHandler builds a Handler from its collaborators.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		fp:           cfg.Fingerprinter,
		index:        cfg.Index,
		queue:        cfg.Queue,
		metrics:      cfg.Metrics,
		log:          cfg.Logger.With("module", "handler"),
		maxFrame:     cfg.MaxFrame,
		readTimeout:  cfg.ReadTimeout,
		writeTimeout: cfg.WriteTimeout,
	}
}

// Handle executes the exchange and always releases the connection. A peer
// whose request cannot be parsed gets no response; a parsed request always
// gets exactly one result frame before close.
func (h *Handler) Handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	remote := conn.RemoteAddr().String()

	if h.readTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(h.readTimeout))
	}

	frameType, payload, err := wire.ReadFrame(conn, h.maxFrame)
	if err != nil {
		h.log.Warn(ctx, "dropping unparseable request", "remote", remote, "error", err)
		return
	}
	if frameType != wire.TypeUpload {
		h.log.Warn(ctx, "unexpected frame type", "remote", remote, "type", frameType)
		return
	}

	req, err := wire.DecodeUpload(payload)
	if err != nil {
		h.log.Warn(ctx, "dropping malformed upload", "remote", remote, "error", err)
		return
	}

	// The producer's fingerprint is advisory only; ours decides dedup. If
	// the digest cannot be computed the upload fails instead of skipping
	// deduplication.
	digest, err := h.fp.Sum(req.Data)
	if err != nil {
		h.log.Error(ctx, "fingerprint unavailable, refusing upload", "remote", remote, "error", err)
		return
	}

	id := req.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	msg := &message.Message{
		ID:          id,
		Filename:    req.Filename,
		Payload:     req.Data,
		CreatedAt:   req.CreatedAt,
		Fingerprint: digest,
	}

	status := h.admit(ctx, msg)

	h.metrics.Uploads.WithLabelValues(status.String()).Inc()
	h.metrics.QueueDepth.Set(float64(h.queue.Len()))

	if h.writeTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
	}
	if err := wire.WriteFrame(conn, wire.TypeResult, wire.EncodeResult(status, "")); err != nil {
		h.log.Warn(ctx, "failed to send result", "remote", remote, "status", status.String(), "error", err)
		return
	}

	switch status {
	case wire.StatusAccepted:
		h.log.Info(ctx, "upload admitted",
			"remote", remote, "id", msg.ID, "filename", msg.Filename,
			"size_bytes", len(msg.Payload), "fingerprint", msg.FingerprintHex())
	case wire.StatusDuplicate:
		h.log.Info(ctx, "duplicate rejected",
			"remote", remote, "filename", msg.Filename, "fingerprint", msg.FingerprintHex())
	case wire.StatusQueueFull:
		h.log.Warn(ctx, "queue full, upload dropped",
			"remote", remote, "filename", msg.Filename)
	}
}

// admit runs the dedup check and queue admission. A queue-full failure
// retracts the fingerprint so the same content can be retried later.
func (h *Handler) admit(ctx context.Context, msg *message.Message) wire.Status {
	fresh, err := h.index.TryMark(ctx, msg.Fingerprint)
	if err != nil {
		h.log.Error(ctx, "dedup index unavailable", "error", err)
		// Reported to the producer as queue pressure: retry later.
		return wire.StatusQueueFull
	}
	if !fresh {
		return wire.StatusDuplicate
	}

	if !h.queue.Offer(msg) {
		if err := h.index.Unmark(ctx, msg.Fingerprint); err != nil {
			h.log.Error(ctx, "failed to retract fingerprint", "error", err,
				"fingerprint", msg.FingerprintHex())
		}
		return wire.StatusQueueFull
	}

	return wire.StatusAccepted
}
