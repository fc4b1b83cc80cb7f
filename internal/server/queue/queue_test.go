package queue

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isaiahsam/STDISCM-P3/internal/common"
	"github.com/isaiahsam/STDISCM-P3/internal/fingerprint"
	"github.com/isaiahsam/STDISCM-P3/internal/message"
)

func msg(t *testing.T, payload string) *message.Message {
	t.Helper()
	fp, err := fingerprint.New(fingerprint.AlgoSHA256)
	require.NoError(t, err)
	m, err := message.New("f.bin", []byte(payload), fp)
	require.NoError(t, err)
	return m
}

func TestOffer_RespectsBound(t *testing.T) {
	q := New(3)

	for i := 0; i < 3; i++ {
		assert.True(t, q.Offer(msg(t, fmt.Sprintf("p%d", i))))
	}
	assert.False(t, q.Offer(msg(t, "overflow")), "queue at capacity must refuse")
	assert.Equal(t, 3, q.Len())
	assert.Equal(t, 3, q.Cap())
}

func TestTake_FIFOOrder(t *testing.T) {
	q := New(3)
	payloads := []string{"a", "b", "c"}
	for _, p := range payloads {
		require.True(t, q.Offer(msg(t, p)))
	}

	ctx := context.Background()
	for _, want := range payloads {
		m, err := q.Take(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, string(m.Payload))
	}
}

func TestTake_BlocksUntilOffer(t *testing.T) {
	q := New(1)

	done := make(chan *message.Message, 1)
	go func() {
		m, err := q.Take(context.Background())
		if err == nil {
			done <- m
		}
	}()

	select {
	case <-done:
		t.Fatal("Take returned before anything was offered")
	case <-time.After(20 * time.Millisecond):
	}

	require.True(t, q.Offer(msg(t, "late")))

	select {
	case m := <-done:
		assert.Equal(t, "late", string(m.Payload))
	case <-time.After(time.Second):
		t.Fatal("Take did not observe the offered item")
	}
}

func TestTake_ContextCancellation(t *testing.T) {
	q := New(1)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := q.Take(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestClose_DrainsThenFails(t *testing.T) {
	q := New(2)
	require.True(t, q.Offer(msg(t, "a")))
	require.True(t, q.Offer(msg(t, "b")))

	q.Close()
	q.Close() // idempotent

	assert.False(t, q.Offer(msg(t, "rejected")), "closed queue must refuse offers")

	ctx := context.Background()
	for _, want := range []string{"a", "b"} {
		m, err := q.Take(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, string(m.Payload))
	}

	_, err := q.Take(ctx)
	require.ErrorIs(t, err, common.ErrQueueClosed)
}

func TestOffer_ConcurrentNeverExceedsCapacity(t *testing.T) {
	const capacity = 8
	const producers = 64

	q := New(capacity)

	var wg sync.WaitGroup
	var accepted, rejected int64
	var mu sync.Mutex

	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ok := q.Offer(msg(t, fmt.Sprintf("p%d", i)))
			mu.Lock()
			if ok {
				accepted++
			} else {
				rejected++
			}
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(capacity), accepted)
	assert.Equal(t, int64(producers-capacity), rejected)
	assert.Equal(t, capacity, q.Len())
}
