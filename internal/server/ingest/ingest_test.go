package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isaiahsam/STDISCM-P3/internal/fingerprint"
	"github.com/isaiahsam/STDISCM-P3/internal/logging"
	"github.com/isaiahsam/STDISCM-P3/internal/message"
	"github.com/isaiahsam/STDISCM-P3/internal/metric"
	"github.com/isaiahsam/STDISCM-P3/internal/server/dedup"
	"github.com/isaiahsam/STDISCM-P3/internal/server/queue"
	"github.com/isaiahsam/STDISCM-P3/internal/wire"
)

type testServer struct {
	addr   string
	queue  *queue.Queue
	index  *dedup.MemoryIndex
	cancel context.CancelFunc
	done   chan error
}

func startServer(t *testing.T, queueCap int) *testServer {
	t.Helper()

	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	fp, err := fingerprint.New(fingerprint.AlgoSHA256)
	require.NoError(t, err)

	q := queue.New(queueCap)
	idx := dedup.NewMemoryIndex()
	m := metric.New()

	handler := NewHandler(HandlerConfig{
		Fingerprinter: fp,
		Index:         idx,
		Queue:         q,
		Metrics:       m,
		Logger:        log,
		ReadTimeout:   5 * time.Second,
		WriteTimeout:  5 * time.Second,
	})

	acceptor := NewAcceptor("127.0.0.1:0", 16, handler, m, log)
	require.NoError(t, acceptor.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	srv := &testServer{
		addr:   acceptor.Addr().String(),
		queue:  q,
		index:  idx,
		cancel: cancel,
		done:   make(chan error, 1),
	}
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		srv.done <- acceptor.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-stopped:
		case <-time.After(2 * time.Second):
			t.Error("acceptor did not stop")
		}
	})
	return srv
}

func buildMsg(t *testing.T, name string, payload []byte) *message.Message {
	t.Helper()
	fp, err := fingerprint.New(fingerprint.AlgoSHA256)
	require.NoError(t, err)
	m, err := message.New(name, payload, fp)
	require.NoError(t, err)
	return m
}

func sendUpload(t *testing.T, addr string, m *message.Message) wire.Status {
	t.Helper()

	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, wire.WriteFrame(conn, wire.TypeUpload, wire.EncodeUpload(m)))

	frameType, payload, err := wire.ReadFrame(conn, 0)
	require.NoError(t, err)
	require.Equal(t, wire.TypeResult, frameType)

	status, _, err := wire.DecodeResult(payload)
	require.NoError(t, err)
	return status
}

func TestDedupIdempotence(t *testing.T) {
	srv := startServer(t, 4)

	first := buildMsg(t, "clip.mp4", []byte("identical bytes"))
	second := buildMsg(t, "renamed.mp4", []byte("identical bytes"))

	assert.Equal(t, wire.StatusAccepted, sendUpload(t, srv.addr, first))
	assert.Equal(t, wire.StatusDuplicate, sendUpload(t, srv.addr, second))
}

func TestQueueBound(t *testing.T) {
	const capacity = 3
	srv := startServer(t, capacity)

	// No workers drain the queue in this test.
	for i := 0; i < capacity; i++ {
		m := buildMsg(t, "f.bin", []byte(fmt.Sprintf("distinct-%d", i)))
		assert.Equal(t, wire.StatusAccepted, sendUpload(t, srv.addr, m))
	}

	overflow := buildMsg(t, "f.bin", []byte("one too many"))
	assert.Equal(t, wire.StatusQueueFull, sendUpload(t, srv.addr, overflow))
}

func TestQueueFull_RetractAllowsRetry(t *testing.T) {
	srv := startServer(t, 1)

	require.Equal(t, wire.StatusAccepted, sendUpload(t, srv.addr, buildMsg(t, "a", []byte("first"))))

	retried := []byte("second, retried later")
	require.Equal(t, wire.StatusQueueFull, sendUpload(t, srv.addr, buildMsg(t, "b", retried)))

	// A worker drains the queue, freeing a slot.
	_, err := srv.queue.Take(context.Background())
	require.NoError(t, err)

	assert.Equal(t, wire.StatusAccepted, sendUpload(t, srv.addr, buildMsg(t, "b", retried)),
		"queue-full rejection must not poison the dedup index")
}

func TestConcurrentIdenticalUploads(t *testing.T) {
	const producers = 8
	srv := startServer(t, producers)

	payload := []byte("contended content")

	var wg sync.WaitGroup
	results := make(chan wire.Status, producers)
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- sendUpload(t, srv.addr, buildMsg(t, "same.mp4", payload))
		}()
	}
	wg.Wait()
	close(results)

	var accepted, duplicate int
	for status := range results {
		switch status {
		case wire.StatusAccepted:
			accepted++
		case wire.StatusDuplicate:
			duplicate++
		default:
			t.Fatalf("unexpected status %s", status)
		}
	}
	assert.Equal(t, 1, accepted, "exactly one producer may win")
	assert.Equal(t, producers-1, duplicate)
	assert.Equal(t, 1, srv.queue.Len(), "only one copy admitted")
}

func TestMalformedRequest_ClosedWithoutResponse(t *testing.T) {
	srv := startServer(t, 2)

	conn, err := net.DialTimeout("tcp", srv.addr, 2*time.Second)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("this is not a frame at all, not even close"))
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 1)
	_, err = conn.Read(buf)
	assert.ErrorIs(t, err, io.EOF, "server must close without responding")
}

func TestTruncatedUpload_ClosedWithoutResponse(t *testing.T) {
	srv := startServer(t, 2)

	conn, err := net.DialTimeout("tcp", srv.addr, 2*time.Second)
	require.NoError(t, err)

	m := buildMsg(t, "clip.mp4", []byte("payload"))
	full := wire.EncodeUpload(m)

	// Declare the full length but send half, then close.
	require.NoError(t, wire.WriteFrame(&truncatedConn{Conn: conn, limit: len(full) / 2}, wire.TypeUpload, full))
	require.NoError(t, conn.(*net.TCPConn).CloseWrite())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, 1)
	_, err = conn.Read(buf)
	assert.ErrorIs(t, err, io.EOF)
	conn.Close()
}

// truncatedConn drops bytes past the limit while reporting success.
type truncatedConn struct {
	net.Conn
	written int
	limit   int
}

func (c *truncatedConn) Write(p []byte) (int, error) {
	if c.written >= c.limit {
		return len(p), nil
	}
	n := len(p)
	if c.written+n > c.limit {
		n = c.limit - c.written
	}
	if _, err := c.Conn.Write(p[:n]); err != nil {
		return 0, err
	}
	c.written += n
	return len(p), nil
}

func TestShutdown_StopsAccepting(t *testing.T) {
	srv := startServer(t, 2)

	require.Equal(t, wire.StatusAccepted, sendUpload(t, srv.addr, buildMsg(t, "a", []byte("pre-shutdown"))))

	srv.cancel()
	select {
	case err := <-srv.done:
		require.NoError(t, err, "listener close during shutdown is not an error")
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}

	_, err := net.DialTimeout("tcp", srv.addr, 500*time.Millisecond)
	assert.Error(t, err, "no new connections after shutdown")

	assert.Equal(t, 1, srv.queue.Len(), "items admitted before shutdown stay queued for draining")
}
