// Package queue provides a bounded, closeable FIFO queue safe for
// concurrent producers and consumers.
package queue

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Enqueue on a closed queue, and by Dequeue once a
// closed queue has been drained.
var ErrClosed = errors.New("queue: closed")

// Queue is a bounded FIFO queue. A full queue blocks producers and an empty
// queue blocks consumers; Close wakes every blocked caller. After Close,
// remaining items can still be dequeued in order, then Dequeue fails with
// ErrClosed.
type Queue[T any] struct {
	mu       sync.Mutex
	items    []T
	capacity int
	closed   bool

	// Broadcast channels, replaced after each close-to-signal.
	notFull  chan struct{}
	notEmpty chan struct{}
	done     chan struct{}
}

// New creates a queue holding at most capacity items. Capacity must be
// positive; it cannot be changed later.
func New[T any](capacity int) *Queue[T] {
	if capacity <= 0 {
		panic("queue: capacity must be positive")
	}
	return &Queue[T]{
		capacity: capacity,
		notFull:  make(chan struct{}),
		notEmpty: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Enqueue appends item, blocking while the queue is full. It fails with
// ErrClosed if the queue is closed before the item is inserted, and with the
// context error if ctx is cancelled first. On failure the item is not
// inserted.
func (q *Queue[T]) Enqueue(ctx context.Context, item T) error {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return ErrClosed
		}
		if len(q.items) < q.capacity {
			q.items = append(q.items, item)
			close(q.notEmpty)
			q.notEmpty = make(chan struct{})
			q.mu.Unlock()
			return nil
		}
		wait := q.notFull
		q.mu.Unlock()

		select {
		case <-wait:
		case <-q.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Dequeue removes and returns the head item, blocking while the queue is
// empty and open. Once the queue is closed it keeps returning queued items
// until none remain, then fails with ErrClosed.
func (q *Queue[T]) Dequeue(ctx context.Context) (T, error) {
	var zero T
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			item := q.items[0]
			q.items = q.items[1:]
			close(q.notFull)
			q.notFull = make(chan struct{})
			q.mu.Unlock()
			return item, nil
		}
		if q.closed {
			q.mu.Unlock()
			return zero, ErrClosed
		}
		wait := q.notEmpty
		q.mu.Unlock()

		select {
		case <-wait:
		case <-q.done:
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
}

// Close marks the queue closed and wakes every blocked Enqueue and Dequeue.
// Queued items are not dropped. Close is idempotent.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.done)
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Closed reports whether Close has been called.
func (q *Queue[T]) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
