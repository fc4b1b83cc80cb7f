// Package worker drains the ingestion queue: a fixed pool of workers takes
// admitted messages and writes them to storage, records them in the catalog
// and announces them to the event sink.
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/isaiahsam/STDISCM-P3/internal/common"
	"github.com/isaiahsam/STDISCM-P3/internal/logging"
	"github.com/isaiahsam/STDISCM-P3/internal/message"
	"github.com/isaiahsam/STDISCM-P3/internal/metric"
	"github.com/isaiahsam/STDISCM-P3/internal/server/catalog"
	"github.com/isaiahsam/STDISCM-P3/internal/server/events"
	"github.com/isaiahsam/STDISCM-P3/internal/server/queue"
	"github.com/isaiahsam/STDISCM-P3/internal/server/storage"
)

// Hook runs after a message is durably written, on its own goroutine so it
// can never block a worker. The original system hung preview generation here.
type Hook func(ctx context.Context, e events.Event)

// PoolConfig wires a Pool's collaborators. Catalog, Notifier and Hook are
// optional.
type PoolConfig struct {
	Workers  int
	Queue    *queue.Queue
	Store    storage.Store
	Catalog  catalog.Repository
	Notifier events.Notifier
	Hook     Hook
	Metrics  *metric.Metrics
	Logger   logging.Logger
}

// Pool is the fixed set of persistence workers.
type Pool struct {
	workers  int
	queue    *queue.Queue
	store    storage.Store
	catalog  catalog.Repository
	notifier events.Notifier
	hook     Hook
	metrics  *metric.Metrics
	log      logging.Logger

	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewPool builds a pool; Start launches the workers.
func NewPool(cfg PoolConfig) *Pool {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		workers:  workers,
		queue:    cfg.Queue,
		store:    cfg.Store,
		catalog:  cfg.Catalog,
		notifier: cfg.Notifier,
		hook:     cfg.Hook,
		metrics:  cfg.Metrics,
		log:      cfg.Logger.With("module", "worker"),
	}
}

// Start launches the workers. Workers exit when ctx is cancelled or when the
// queue is closed and drained; closing the queue is the graceful path since
// it lets everything already admitted reach storage.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
}

// Wait blocks until every worker has exited.
func (p *Pool) Wait() {
	p.wg.Wait()
}

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()

	log := p.log.With("worker", id)
	log.Debug(ctx, "worker started")

	for {
		msg, err := p.queue.Take(ctx)
		if err != nil {
			if errors.Is(err, common.ErrQueueClosed) {
				log.Debug(ctx, "queue drained, worker exiting")
			}
			return
		}
		p.persist(ctx, log, msg)
		p.metrics.QueueDepth.Set(float64(p.queue.Len()))
	}
}

// persist writes one message. A write already underway finishes even if ctx
// is cancelled mid-flight, so shutdown never leaves a torn object. A storage
// failure drops the item and the worker moves on.
func (p *Pool) persist(ctx context.Context, log logging.Logger, msg *message.Message) {
	writeCtx := context.WithoutCancel(ctx)

	start := time.Now()
	location, err := p.store.Save(writeCtx, msg)
	p.metrics.PersistDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		p.metrics.PersistFailures.Inc()
		log.Error(ctx, "storage write failed, item dropped",
			"id", msg.ID, "filename", msg.Filename, "error", err)
		return
	}

	p.metrics.Persisted.Inc()
	p.metrics.BytesPersisted.Add(float64(len(msg.Payload)))

	log.Info(ctx, "payload persisted",
		"id", msg.ID, "filename", msg.Filename,
		"location", location, "size_bytes", len(msg.Payload))

	event := events.Event{
		ID:          msg.ID.String(),
		Filename:    msg.Filename,
		Location:    location,
		Fingerprint: msg.FingerprintHex(),
		SizeBytes:   int64(len(msg.Payload)),
		PersistedAt: time.Now().UTC(),
	}

	if p.catalog != nil {
		if err := p.catalog.Record(writeCtx, &catalog.Upload{
			ID:          event.ID,
			Filename:    event.Filename,
			Location:    event.Location,
			Fingerprint: event.Fingerprint,
			SizeBytes:   event.SizeBytes,
			PersistedAt: event.PersistedAt,
		}); err != nil {
			log.Error(ctx, "catalog record failed", "id", msg.ID, "error", err)
		}
	}

	if p.notifier != nil {
		if err := p.notifier.Publish(writeCtx, event); err != nil {
			log.Error(ctx, "event publish failed", "id", msg.ID, "error", err)
		}
	}

	if p.hook != nil {
		go p.hook(writeCtx, event)
	}
}
