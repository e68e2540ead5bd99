package pipeline

import (
	"sync"
	"time"
)

// PollResult classifies the outcome of a bounded queue wait.
type PollResult int

const (
	// Received means a record was dequeued.
	Received PollResult = iota + 1
	// Empty means the bounded wait expired with nothing to dequeue.
	Empty
	// Closed means the queue is closed and fully drained.
	Closed
)

// Queue is a bounded handoff between scraper producers and a single drain
// loop. Producers Push until they are done and then Close; records pushed
// before Close are always delivered before the consumer observes Closed.
//
// Close is the preferred termination signal. Producers built around a
// value sentinel may instead enqueue one; the drain driver recognizes it.
type Queue[T any] struct {
	ch   chan T
	done chan struct{}
	once sync.Once
}

func NewQueue[T any](capacity int) *Queue[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Queue[T]{
		ch:   make(chan T, capacity),
		done: make(chan struct{}),
	}
}

// Push enqueues v, blocking while the queue is full. It reports false if the
// queue has been closed.
func (q *Queue[T]) Push(v T) bool {
	select {
	case <-q.done:
		return false
	default:
	}
	select {
	case q.ch <- v:
		return true
	case <-q.done:
		return false
	}
}

// Close marks the end of the stream. Records already enqueued remain
// pollable. Close is idempotent.
func (q *Queue[T]) Close() {
	q.once.Do(func() { close(q.done) })
}

// Poll dequeues the next record, waiting at most timeout. Buffered records
// are delivered even after Close; only an empty closed queue reports Closed.
func (q *Queue[T]) Poll(timeout time.Duration) (T, PollResult) {
	var zero T

	select {
	case v := <-q.ch:
		return v, Received
	default:
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case v := <-q.ch:
		return v, Received
	case <-q.done:
		// A push may have raced the close; drain it before reporting Closed.
		select {
		case v := <-q.ch:
			return v, Received
		default:
			return zero, Closed
		}
	case <-timer.C:
		return zero, Empty
	}
}

// Len reports the number of buffered records.
func (q *Queue[T]) Len() int {
	return len(q.ch)
}
