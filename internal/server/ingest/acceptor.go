package ingest

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/isaiahsam/STDISCM-P3/internal/logging"
	"github.com/isaiahsam/STDISCM-P3/internal/metric"
)

// Acceptor listens on one TCP endpoint and dispatches every accepted
// connection to a Handler goroutine. Concurrency is capped by a weighted
// semaphore instead of the original unbounded thread-per-client scheme, so a
// connection burst cannot exhaust the process.
type Acceptor struct {
	addr    string
	handler *Handler
	metrics *metric.Metrics
	log     logging.Logger
	sem     *semaphore.Weighted

	ln net.Listener
	wg sync.WaitGroup
}

// NewAcceptor prepares an acceptor; Listen binds the endpoint.
func NewAcceptor(addr string, maxConns int, handler *Handler, metrics *metric.Metrics, log logging.Logger) *Acceptor {
	if maxConns < 1 {
		maxConns = 1
	}
	return &Acceptor{
		addr:    addr,
		handler: handler,
		metrics: metrics,
		log:     log.With("module", "acceptor"),
		sem:     semaphore.NewWeighted(int64(maxConns)),
	}
}

// Listen binds the configured endpoint. A bind failure is fatal to startup:
// the service must not pretend to be accepting.
func (a *Acceptor) Listen() error {
	ln, err := net.Listen("tcp", a.addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", a.addr, err)
	}
	a.ln = ln
	return nil
}

// Addr reports the bound address; useful when listening on port 0.
func (a *Acceptor) Addr() net.Addr {
	if a.ln == nil {
		return nil
	}
	return a.ln.Addr()
}

// Serve accepts until ctx is cancelled, then waits for in-flight handlers to
// finish their exchanges. Closing the listener during shutdown is the normal
// exit path, never an error.
func (a *Acceptor) Serve(ctx context.Context) error {
	if a.ln == nil {
		return errors.New("acceptor is not listening")
	}

	go func() {
		<-ctx.Done()
		_ = a.ln.Close()
	}()

	a.log.Info(ctx, "accepting connections", "addr", a.ln.Addr().String())

	// Handlers outlive ctx so an exchange already underway completes.
	handlerCtx := context.WithoutCancel(ctx)

	for {
		conn, err := a.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				break
			}
			a.log.Warn(ctx, "accept failed", "error", err)
			continue
		}

		a.metrics.ConnectionsAccepted.Inc()
		a.log.Debug(ctx, "connection accepted", "remote", conn.RemoteAddr().String())

		if err := a.sem.Acquire(ctx, 1); err != nil {
			// Shutdown raced the accept; the peer gets a reset, which
			// is a plain transport failure on its side.
			_ = conn.Close()
			break
		}

		a.wg.Add(1)
		go func(c net.Conn) {
			defer a.wg.Done()
			defer a.sem.Release(1)
			a.handler.Handle(handlerCtx, c)
		}(conn)
	}

	a.wg.Wait()
	a.log.Info(ctx, "acceptor stopped", "addr", a.addr)
	return nil
}
