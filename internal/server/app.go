// Package server initializes and runs the ingest service. It wires the
// configuration into concrete backends, starts the persistence workers and
// the TCP acceptor, and handles graceful shutdown: stop accepting, drain the
// queue, then release the backends.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/isaiahsam/STDISCM-P3/internal/fingerprint"
	"github.com/isaiahsam/STDISCM-P3/internal/logging"
	"github.com/isaiahsam/STDISCM-P3/internal/metric"
	"github.com/isaiahsam/STDISCM-P3/internal/server/catalog"
	"github.com/isaiahsam/STDISCM-P3/internal/server/config"
	"github.com/isaiahsam/STDISCM-P3/internal/server/dedup"
	"github.com/isaiahsam/STDISCM-P3/internal/server/events"
	"github.com/isaiahsam/STDISCM-P3/internal/server/ingest"
	"github.com/isaiahsam/STDISCM-P3/internal/server/queue"
	"github.com/isaiahsam/STDISCM-P3/internal/server/storage"
	"github.com/isaiahsam/STDISCM-P3/internal/server/worker"
)

// App owns every long-lived component of the ingest server.
type App struct {
	config   *config.Config
	logger   logging.Logger
	metrics  *metric.Metrics
	queue    *queue.Queue
	pool     *worker.Pool
	acceptor *ingest.Acceptor

	// optional backends that need closing on shutdown
	db         *sql.DB
	redisIndex *dedup.RedisIndex
	natsSink   *events.NATSNotifier

	ready chan struct{} // closed once the listener is bound
}

// Ready is closed once the listener is bound; Addr is valid after that.
func (app *App) Ready() <-chan struct{} { return app.ready }

// Addr reports the bound listen address. Only valid after Ready.
func (app *App) Addr() string { return app.acceptor.Addr().String() }

// NewApp builds the application from its configuration. Empty backend
// addresses select the in-process fallbacks: memory dedup index, memory
// catalog, log-only event sink.
func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	app := &App{
		config:  cfg,
		logger:  logger,
		metrics: metric.New(),
		ready:   make(chan struct{}),
	}

	fp, err := fingerprint.New(cfg.FingerprintAlgo)
	if err != nil {
		return nil, fmt.Errorf("fingerprint init: %w", err)
	}

	var index dedup.Index
	if cfg.RedisAddr != "" {
		ri, err := dedup.NewRedisIndex(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDedupTTL)
		if err != nil {
			return nil, fmt.Errorf("redis init: %w", err)
		}
		app.redisIndex = ri
		index = ri
	} else {
		index = dedup.NewMemoryIndex()
	}

	var store storage.Store
	switch cfg.StorageBackend {
	case "s3":
		store, err = storage.NewS3Store(ctx, storage.S3Config{
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			RootUser:     cfg.S3RootUser,
			RootPassword: cfg.S3RootPassword,
			BaseEndpoint: cfg.S3BaseEndpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 init: %w", err)
		}
	case "fs", "":
		store, err = storage.NewFileStore(cfg.StorageDir)
		if err != nil {
			return nil, fmt.Errorf("file store init: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}

	var repo catalog.Repository
	if cfg.DatabaseDSN != "" {
		db, err := catalog.OpenPostgres(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init: %w", err)
		}
		app.db = db
		repo = catalog.NewPostgresRepository(db)
	} else {
		repo = catalog.NewMemoryRepository()
	}

	var notifier events.Notifier
	if cfg.NATSAddr != "" {
		nn, err := events.NewNATSNotifier(cfg.NATSAddr, cfg.NATSSubjectPrefix)
		if err != nil {
			return nil, fmt.Errorf("nats init: %w", err)
		}
		app.natsSink = nn
		notifier = nn
	} else {
		notifier = events.NewLogNotifier(logger)
	}

	app.queue = queue.New(cfg.QueueCapacity)

	app.pool = worker.NewPool(worker.PoolConfig{
		Workers:  cfg.WorkerCount,
		Queue:    app.queue,
		Store:    store,
		Catalog:  repo,
		Notifier: notifier,
		Metrics:  app.metrics,
		Logger:   logger,
	})

	handler := ingest.NewHandler(ingest.HandlerConfig{
		Fingerprinter: fp,
		Index:         index,
		Queue:         app.queue,
		Metrics:       app.metrics,
		Logger:        logger,
		MaxFrame:      cfg.MaxPayloadBytes,
		ReadTimeout:   cfg.ReadTimeout,
		WriteTimeout:  cfg.WriteTimeout,
	})

	app.acceptor = ingest.NewAcceptor(cfg.ListenAddr, cfg.MaxConns, handler, app.metrics, logger)

	return app, nil
}

// Run starts the service and blocks until ctx is cancelled, a SIGINT/SIGTERM
// arrives, or a component fails. On the way out the queue is closed and the
// workers drain everything already admitted before backends are released.
func (app *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	app.initSignalHandler(cancel)

	if err := app.acceptor.Listen(); err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	close(app.ready)

	app.logger.Info(ctx, "server started",
		"addr", app.acceptor.Addr().String(),
		"queue_capacity", app.config.QueueCapacity,
		"workers", app.config.WorkerCount,
	)

	// Workers outlive the cancellable ctx on purpose: they only exit once
	// the queue is closed and drained, so everything admitted before
	// shutdown still reaches storage.
	app.pool.Start(context.WithoutCancel(ctx))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.acceptor.Serve(gctx)
	})

	if app.config.MetricsAddr != "" {
		g.Go(func() error {
			return app.serveMetrics(gctx)
		})
	}

	err := g.Wait()

	// Every accepted connection has finished by now, so nothing new can be
	// admitted. Close the queue and let the workers drain it.
	app.queue.Close()
	app.pool.Wait()
	app.close(context.WithoutCancel(ctx))

	return err
}

func (app *App) initSignalHandler(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancel()
	}()
}

func (app *App) serveMetrics(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", app.metrics.Handler())
	srv := &http.Server{Addr: app.config.MetricsAddr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	app.logger.Info(ctx, "metrics endpoint started", "addr", app.config.MetricsAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

func (app *App) close(ctx context.Context) {
	if app.redisIndex != nil {
		if err := app.redisIndex.Close(); err != nil {
			app.logger.Warn(ctx, "redis close failed", "error", err)
		}
	}
	if app.natsSink != nil {
		app.natsSink.Close()
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Warn(ctx, "db close failed", "error", err)
		}
	}
	app.logger.Info(ctx, "server stopped")
}
