// Package queue holds predict jobs waiting for a worker.
package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/matchup/internal/domain/matchup"
	model "github.com/okian/matchup/internal/domain/model"
	"github.com/okian/matchup/pkg/metrics"
)

const defaultQueueCapacity = 256

// Job is one predict request bound to a session and its request sequence.
type Job struct {
	ID        string
	SessionID string
	Seq       uint64
	Home      model.TeamRef
	Away      model.TeamRef
	Enqueued  time.Time

	// Reply receives the final result. It must be buffered (capacity 1) so a
	// worker never blocks on a caller that stopped waiting. May be nil.
	Reply chan matchup.PredictResult
}

// NewReply returns a channel suitable for Job.Reply.
func NewReply() chan matchup.PredictResult {
	return make(chan matchup.PredictResult, 1)
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a job. Returns ErrBackpressure when full and ErrClosed
	// after Close.
	Enqueue(ctx context.Context, j Job) error

	// Dequeue returns the channel workers read from. It is closed by Close
	// once drained.
	Dequeue(ctx context.Context) <-chan Job

	// Len returns the number of waiting jobs.
	Len(ctx context.Context) int

	// Close stops accepting jobs.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	jobs     chan Job
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.jobs = make(chan Job, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue implements Queue.Enqueue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, j Job) error { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	}

	if j.Enqueued.IsZero() {
		j.Enqueued = time.Now()
	}

	select {
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return ctx.Err()
	default:
	}

	select {
	case q.jobs <- j:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.jobs))
		return nil
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return fmt.Errorf("%d jobs waiting: %w", q.capacity, ErrBackpressure)
	}
}

// Dequeue implements Queue.Dequeue.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Job {
	return q.jobs
}

// Len implements Queue.Len.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.jobs)
	metrics.UpdateQueueSize(size)
	return size
}

// Capacity returns the configured capacity.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

// Close implements Queue.Close. Jobs already queued stay readable.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.jobs)
	q.closed = true
	return nil
}

// IsClosed implements Queue.IsClosed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
