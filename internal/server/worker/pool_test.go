package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isaiahsam/STDISCM-P3/internal/fingerprint"
	"github.com/isaiahsam/STDISCM-P3/internal/logging"
	"github.com/isaiahsam/STDISCM-P3/internal/message"
	"github.com/isaiahsam/STDISCM-P3/internal/metric"
	"github.com/isaiahsam/STDISCM-P3/internal/server/catalog"
	"github.com/isaiahsam/STDISCM-P3/internal/server/events"
	"github.com/isaiahsam/STDISCM-P3/internal/server/queue"
	"github.com/isaiahsam/STDISCM-P3/internal/server/storage"
)

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newMsg(t *testing.T, name string, payload []byte) *message.Message {
	t.Helper()
	fp, err := fingerprint.New(fingerprint.AlgoSHA256)
	require.NoError(t, err)
	m, err := message.New(name, payload, fp)
	require.NoError(t, err)
	return m
}

// recordingStore wraps a Store and remembers save order.
type recordingStore struct {
	inner storage.Store
	mu    sync.Mutex
	order []string
}

func (s *recordingStore) Save(ctx context.Context, m *message.Message) (string, error) {
	location, err := s.inner.Save(ctx, m)
	if err == nil {
		s.mu.Lock()
		s.order = append(s.order, string(m.Payload))
		s.mu.Unlock()
	}
	return location, err
}

// failingStore fails for payloads matching a predicate.
type failingStore struct {
	inner  storage.Store
	failOn string
}

func (s *failingStore) Save(ctx context.Context, m *message.Message) (string, error) {
	if string(m.Payload) == s.failOn {
		return "", errors.New("disk on fire")
	}
	return s.inner.Save(ctx, m)
}

func TestPool_FIFOPersistenceOrder(t *testing.T) {
	fs, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	store := &recordingStore{inner: fs}

	q := queue.New(8)
	for _, p := range []string{"A", "B", "C"} {
		require.True(t, q.Offer(newMsg(t, "f.bin", []byte(p))))
	}

	pool := NewPool(PoolConfig{
		Workers: 1, // single worker makes order deterministic
		Queue:   q,
		Store:   store,
		Metrics: metric.New(),
		Logger:  discardLogger(),
	})
	pool.Start(context.Background())

	q.Close()
	pool.Wait()

	assert.Equal(t, []string{"A", "B", "C"}, store.order)
}

func TestPool_PayloadIntegrity(t *testing.T) {
	dir := t.TempDir()
	fs, err := storage.NewFileStore(dir)
	require.NoError(t, err)

	payloads := [][]byte{
		{},
		{0x7f},
		bytes.Repeat([]byte("0123456789abcdef"), 640*1024), // 10 MiB
	}

	q := queue.New(len(payloads))
	msgs := make([]*message.Message, 0, len(payloads))
	for i, p := range payloads {
		m := newMsg(t, fmt.Sprintf("f%d.bin", i), p)
		msgs = append(msgs, m)
		require.True(t, q.Offer(m))
	}

	pool := NewPool(PoolConfig{
		Workers: 2,
		Queue:   q,
		Store:   fs,
		Metrics: metric.New(),
		Logger:  discardLogger(),
	})
	pool.Start(context.Background())
	q.Close()
	pool.Wait()

	for i, m := range msgs {
		got, err := os.ReadFile(filepath.Join(fs.Dir(), m.StorageKey()))
		require.NoError(t, err)
		assert.True(t, bytes.Equal(payloads[i], got), "payload %d corrupted", i)
	}
}

func TestPool_StorageErrorDropsItemAndContinues(t *testing.T) {
	fs, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	store := &recordingStore{inner: &failingStore{inner: fs, failOn: "poison"}}

	q := queue.New(4)
	require.True(t, q.Offer(newMsg(t, "a.bin", []byte("good-1"))))
	require.True(t, q.Offer(newMsg(t, "b.bin", []byte("poison"))))
	require.True(t, q.Offer(newMsg(t, "c.bin", []byte("good-2"))))

	m := metric.New()
	pool := NewPool(PoolConfig{
		Workers: 1,
		Queue:   q,
		Store:   store,
		Metrics: m,
		Logger:  discardLogger(),
	})
	pool.Start(context.Background())
	q.Close()
	pool.Wait()

	assert.Equal(t, []string{"good-1", "good-2"}, store.order,
		"a failed write must not stop the worker")
}

func TestPool_RecordsCatalogAndNotifies(t *testing.T) {
	fs, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	repo := catalog.NewMemoryRepository()
	notifier := &capturingNotifier{}

	q := queue.New(2)
	msg := newMsg(t, "clip.mp4", []byte("payload"))
	require.True(t, q.Offer(msg))

	pool := NewPool(PoolConfig{
		Workers:  1,
		Queue:    q,
		Store:    fs,
		Catalog:  repo,
		Notifier: notifier,
		Metrics:  metric.New(),
		Logger:   discardLogger(),
	})
	pool.Start(context.Background())
	q.Close()
	pool.Wait()

	listed, err := repo.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, msg.ID.String(), listed[0].ID)
	assert.Equal(t, "clip.mp4", listed[0].Filename)
	assert.Equal(t, int64(len("payload")), listed[0].SizeBytes)

	got := notifier.events()
	require.Len(t, got, 1)
	assert.Equal(t, msg.FingerprintHex(), got[0].Fingerprint)
}

type capturingNotifier struct {
	mu  sync.Mutex
	evs []events.Event
}

func (n *capturingNotifier) Publish(_ context.Context, e events.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.evs = append(n.evs, e)
	return nil
}

func (n *capturingNotifier) events() []events.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]events.Event(nil), n.evs...)
}

func TestPool_HookRunsWithoutBlockingWorker(t *testing.T) {
	fs, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	hookDone := make(chan events.Event, 1)
	blockingHook := func(_ context.Context, e events.Event) {
		time.Sleep(500 * time.Millisecond) // a slow hook must not stall the pool
		hookDone <- e
	}

	q := queue.New(2)
	require.True(t, q.Offer(newMsg(t, "clip.mp4", []byte("x"))))

	pool := NewPool(PoolConfig{
		Workers: 1,
		Queue:   q,
		Store:   fs,
		Hook:    blockingHook,
		Metrics: metric.New(),
		Logger:  discardLogger(),
	})

	start := time.Now()
	pool.Start(context.Background())
	q.Close()
	pool.Wait()
	assert.Less(t, time.Since(start), 400*time.Millisecond,
		"pool must finish before the slow hook does")

	select {
	case e := <-hookDone:
		assert.Equal(t, "clip.mp4", e.Filename)
	case <-time.After(2 * time.Second):
		t.Fatal("hook never ran")
	}
}

func TestPool_ShutdownDrainsQueue(t *testing.T) {
	fs, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	store := &recordingStore{inner: fs}

	const items = 6
	q := queue.New(items)
	for i := 0; i < items; i++ {
		require.True(t, q.Offer(newMsg(t, "f.bin", []byte(fmt.Sprintf("item-%d", i)))))
	}

	pool := NewPool(PoolConfig{
		Workers: 2,
		Queue:   q,
		Store:   store,
		Metrics: metric.New(),
		Logger:  discardLogger(),
	})
	pool.Start(context.Background())

	// Graceful path: close first, workers drain everything already admitted.
	q.Close()
	pool.Wait()

	assert.Len(t, store.order, items, "every admitted item must persist before exit")
	assert.Equal(t, 0, q.Len())
}
