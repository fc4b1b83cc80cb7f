// Package queue provides the bounded FIFO buffer between connection handlers
// and the persistence workers. Handlers produce with a non-blocking Offer;
// workers consume with a blocking Take. Capacity is fixed at construction.
package queue

import (
	"context"
	"sync"

	"github.com/isaiahsam/STDISCM-P3/internal/common"
	"github.com/isaiahsam/STDISCM-P3/internal/message"
)

// Queue is a bounded FIFO of admitted messages awaiting persistence.
type Queue struct {
	ch chan *message.Message

	mu     sync.RWMutex
	closed bool
}

// New returns a queue of the given capacity. Capacities below one are
// clamped to one.
func New(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue{ch: make(chan *message.Message, capacity)}
}

// Offer attempts to admit m without blocking. It reports false when the queue
// is at capacity or already closed.
func (q *Queue) Offer(m *message.Message) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return false
	}
	select {
	case q.ch <- m:
		return true
	default:
		return false
	}
}

// Take blocks until an item is available, the context is cancelled, or the
// queue is closed and fully drained. Items come out in strict arrival order.
func (q *Queue) Take(ctx context.Context) (*message.Message, error) {
	select {
	case m, ok := <-q.ch:
		if !ok {
			return nil, common.ErrQueueClosed
		}
		return m, nil
	case <-ctx.Done():
		// Prefer an item that is already available over reporting
		// cancellation, so shutdown drains deterministically.
		select {
		case m, ok := <-q.ch:
			if !ok {
				return nil, common.ErrQueueClosed
			}
			return m, nil
		default:
			return nil, ctx.Err()
		}
	}
}

// Close stops admissions. Items already admitted remain takeable until the
// queue is drained; afterwards Take returns ErrQueueClosed. Close is
// idempotent.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.ch)
}

// Len reports the number of buffered items.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Cap reports the fixed capacity.
func (q *Queue) Cap() int {
	return cap(q.ch)
}
