package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/matchup/internal/domain/matchup"
	model "github.com/okian/matchup/internal/domain/model"
)

func job(id string) Job {
	return Job{
		ID:        id,
		SessionID: "s1",
		Seq:       1,
		Home:      model.TeamRef{Name: "Arsenal"},
		Away:      model.TeamRef{Name: "Chelsea"},
	}
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if err := q.Enqueue(ctx, job("j1")); err != nil {
		t.Fatalf("expected enqueue to succeed: %v", err)
	}
	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	got := <-q.Dequeue(ctx)
	if got.ID != "j1" {
		t.Errorf("expected j1, got %v", got.ID)
	}
	if got.Enqueued.IsZero() {
		t.Error("expected enqueue time to be stamped")
	}
	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
}

func TestInMemoryQueue_Backpressure(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(2))
	ctx := context.Background()

	for _, id := range []string{"j1", "j2"} {
		if err := q.Enqueue(ctx, job(id)); err != nil {
			t.Fatalf("expected enqueue to succeed: %v", err)
		}
	}

	err := q.Enqueue(ctx, job("j3"))
	if !errors.Is(err, ErrBackpressure) {
		t.Fatalf("expected ErrBackpressure, got %v", err)
	}
	if q.Capacity() != 2 {
		t.Errorf("expected capacity 2, got %d", q.Capacity())
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := q.Enqueue(ctx, job("j1")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if q.Len(context.Background()) != 0 {
		t.Error("expected nothing queued")
	}
}

func TestInMemoryQueue_Close(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(4))
	ctx := context.Background()

	_ = q.Enqueue(ctx, job("j1"))
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if !q.IsClosed() {
		t.Error("expected queue to be closed")
	}
	if err := q.Enqueue(ctx, job("j2")); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}

	var ids []string
	for j := range q.Dequeue(ctx) {
		ids = append(ids, j.ID)
	}
	if len(ids) != 1 || ids[0] != "j1" {
		t.Errorf("expected queued job to drain after close, got %v", ids)
	}
}

func TestInMemoryQueue_Reply(t *testing.T) {
	j := job("j1")
	j.Reply = NewReply()

	// a worker replying to a caller that left must not block
	j.Reply <- matchup.Fail(1, errors.New("boom"))
	select {
	case j.Reply <- matchup.Fail(1, errors.New("again")):
		t.Fatal("expected reply buffer of one")
	default:
	}
}

func TestInMemoryQueue_ConcurrentEnqueueAndClose(t *testing.T) {
	q := NewInMemoryQueue(WithCapacity(1000))
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := q.Enqueue(ctx, job(fmt.Sprintf("j%d", i)))
			if err != nil && !errors.Is(err, ErrClosed) {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	_ = q.Close()
	wg.Wait()

	n := 0
	for range q.Dequeue(ctx) {
		n++
	}
	if n > 50 {
		t.Errorf("expected at most 50 jobs, got %d", n)
	}
}
