package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/matchup/internal/adapters/mq/queue"
	worker "github.com/okian/matchup/internal/adapters/mq/worker"
	"github.com/okian/matchup/internal/domain/matchup"
	model "github.com/okian/matchup/internal/domain/model"
	logging "github.com/okian/matchup/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	jobs chan queue.Job
	once sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{jobs: make(chan queue.Job, 10)}
}

func (mq *mockQueue) Dequeue(ctx context.Context) <-chan queue.Job {
	return mq.jobs
}

func (mq *mockQueue) Close() error {
	mq.once.Do(func() { close(mq.jobs) })
	return nil
}

type mockPredictor struct {
	mu    sync.Mutex
	calls []model.PredictRequest
	err   error
	delay time.Duration
}

func (mp *mockPredictor) Predict(ctx context.Context, home, away model.TeamRef) (model.Prediction, error) {
	if mp.delay > 0 {
		select {
		case <-time.After(mp.delay):
		case <-ctx.Done():
			return model.Prediction{}, ctx.Err()
		}
	}
	mp.mu.Lock()
	mp.calls = append(mp.calls, model.PredictRequest{HomeTeam: home, AwayTeam: away})
	err := mp.err
	mp.mu.Unlock()
	if err != nil {
		return model.Prediction{}, err
	}
	return model.MustParsePrediction(fmt.Sprintf(`{"home_team":%q,"away_team":%q,"prediction":"Coming soon!"}`, home.Name, away.Name)), nil
}

func (mp *mockPredictor) setErr(err error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.err = err
}

func (mp *mockPredictor) callCount() int {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return len(mp.calls)
}

type recordingSink struct {
	mu      sync.Mutex
	results []matchup.PredictResult
}

func (s *recordingSink) Complete(ctx context.Context, job queue.Job, res matchup.PredictResult) matchup.PredictResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, res)
	return res
}

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}

func newJob(id string, seq uint64) queue.Job {
	return queue.Job{
		ID:        id,
		SessionID: "s1",
		Seq:       seq,
		Home:      model.TeamRef{Name: "Arsenal", ShortName: "ARS"},
		Away:      model.TeamRef{Name: "Chelsea", ShortName: "CHE"},
		Reply:     queue.NewReply(),
	}
}

func waitReply(t *testing.T, reply chan matchup.PredictResult) matchup.PredictResult {
	t.Helper()
	select {
	case res := <-reply:
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reply")
		return matchup.PredictResult{}
	}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a running InMemoryWorker", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		predictor := &mockPredictor{}
		sink := &recordingSink{}
		w := worker.NewInMemoryWorker(q, predictor, sink, worker.WithName("test-worker"))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When a job succeeds", func() {
			j := newJob("j1", 1)
			q.jobs <- j
			res := waitReply(t, j.Reply)

			convey.Convey("Then the caller should receive the prediction", func() {
				convey.So(res.OK(), convey.ShouldBeTrue)
				convey.So(res.Seq, convey.ShouldEqual, 1)
				convey.So(res.Prediction.HomeTeam(), convey.ShouldEqual, "Arsenal")
				convey.So(sink.count(), convey.ShouldEqual, 1)
				convey.So(predictor.callCount(), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When the predictor fails", func() {
			predictor.setErr(errors.New("HTTP 500"))
			j := newJob("j2", 2)
			q.jobs <- j
			res := waitReply(t, j.Reply)

			convey.Convey("Then the caller should receive an Err result", func() {
				convey.So(res.OK(), convey.ShouldBeFalse)
				convey.So(res.Err.Error(), convey.ShouldEqual, "HTTP 500")
				convey.So(res.Seq, convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When the job has no reply channel", func() {
			j := newJob("j3", 3)
			j.Reply = nil
			q.jobs <- j

			convey.Convey("Then the outcome should still reach the sink", func() {
				deadline := time.Now().Add(2 * time.Second)
				for sink.count() == 0 && time.Now().Before(deadline) {
					time.Sleep(5 * time.Millisecond)
				}
				convey.So(sink.count(), convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When shutting down", func() {
			err := w.Shutdown(context.Background())

			convey.Convey("Then it should stop gracefully", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)
			})
		})
	})

	convey.Convey("Given a worker with a short timeout", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		predictor := &mockPredictor{delay: time.Second}
		w := worker.NewInMemoryWorker(q, predictor, nil, worker.WithTimeout(20*time.Millisecond))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When the backend is slow", func() {
			j := newJob("j1", 1)
			q.jobs <- j
			res := waitReply(t, j.Reply)

			convey.Convey("Then the job should fail with the deadline", func() {
				convey.So(errors.Is(res.Err, context.DeadlineExceeded), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a cancelled context", t, func() {
		_ = logging.Init()

		q := newMockQueue()
		w := worker.NewInMemoryWorker(q, &mockPredictor{}, nil)
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			w.Run(ctx)
			close(done)
		}()
		cancel()

		convey.Convey("Then the worker should stop", func() {
			select {
			case <-done:
				convey.So(true, convey.ShouldBeTrue)
			case <-time.After(time.Second):
				convey.So("worker still running", convey.ShouldBeEmpty)
			}
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a started worker pool", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(64))
		predictor := &mockPredictor{delay: 5 * time.Millisecond}
		sink := &recordingSink{}
		pool := worker.NewPool(4, q, predictor, sink)
		pool.Start(context.Background())

		convey.Convey("When many jobs are enqueued", func() {
			jobs := make([]queue.Job, 20)
			for i := range jobs {
				jobs[i] = newJob(fmt.Sprintf("j%d", i), uint64(i+1))
				convey.So(q.Enqueue(context.Background(), jobs[i]), convey.ShouldBeNil)
			}
			for _, j := range jobs {
				waitReply(t, j.Reply)
			}

			convey.Convey("Then every job should be processed once", func() {
				convey.So(pool.Size(), convey.ShouldEqual, 4)
				convey.So(predictor.callCount(), convey.ShouldEqual, 20)
				convey.So(sink.count(), convey.ShouldEqual, 20)
				convey.So(pool.Shutdown(context.Background()), convey.ShouldBeNil)
			})
		})

		convey.Convey("When shutting down with jobs still queued", func() {
			jobs := make([]queue.Job, 8)
			for i := range jobs {
				jobs[i] = newJob(fmt.Sprintf("j%d", i), uint64(i+1))
				_ = q.Enqueue(context.Background(), jobs[i])
			}
			err := pool.Shutdown(context.Background())

			convey.Convey("Then the queue should be drained before returning", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(sink.count(), convey.ShouldEqual, 8)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})
	})

	convey.Convey("Given a pool created with a non-positive count", t, func() {
		_ = logging.Init()
		pool := worker.NewPool(0, newMockQueue(), &mockPredictor{}, nil)

		convey.Convey("Then it should fall back to the default size", func() {
			convey.So(pool.Size(), convey.ShouldEqual, 4)
		})
	})
}
