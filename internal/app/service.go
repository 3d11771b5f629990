// Package service implements the matchup form controller over sessions and
// provides the dependencies required by the HTTP, MCP and CLI adapters.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	jobqueue "github.com/okian/matchup/internal/adapters/mq/queue"
	workerpool "github.com/okian/matchup/internal/adapters/mq/worker"
	"github.com/okian/matchup/internal/adapters/repository"
	"github.com/okian/matchup/internal/domain/dedupe"
	"github.com/okian/matchup/internal/domain/matchup"
	model "github.com/okian/matchup/internal/domain/model"
	"github.com/okian/matchup/pkg/logger"
	"github.com/okian/matchup/pkg/metrics"
)

// Predictor is the prediction backend.
type Predictor interface {
	FetchTeams(ctx context.Context) ([]model.Team, error)
	Predict(ctx context.Context, home, away model.TeamRef) (model.Prediction, error)
}

func viewOf(sess repository.Session) matchup.View {
	return matchup.NewView(sess.ID, sess.State)
}

// Service is the matchup form controller.
type Service struct {
	mu sync.RWMutex

	// Core components
	predictor Predictor
	store     repository.Store
	deduper   dedupe.Deduper
	jobs      *jobqueue.InMemoryQueue
	pool      *workerpool.Pool

	// Configuration
	workerCount    int
	queueSize      int
	dedupeSize     int
	sessionTTL     time.Duration
	maxSessions    int
	predictTimeout time.Duration

	// State
	started   bool
	ownsStore bool

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: 4,
		queueSize:   256,
		dedupeSize:  4096,
		sessionTTL:  30 * time.Minute,
		maxSessions: 10000,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.predictor == nil {
		return ErrNoPredictor
	}

	s.logger.Info(ctx, "starting matchup service...")

	if s.store == nil {
		s.store = repository.NewMemoryStore(ctx,
			repository.WithTTL(s.sessionTTL),
			repository.WithMaxSessions(s.maxSessions),
		)
		s.ownsStore = true
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.jobs = jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.jobs, s.predictor,
		workerpool.SinkFunc(s.complete),
		workerpool.WithTimeout(s.predictTimeout),
	)
	s.pool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "matchup service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Duration("sessionTTL", s.sessionTTL),
	)
	return nil
}

// Stop drains pending predictions and shuts the service down.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping matchup service...")

	if s.pool != nil {
		if err := s.pool.Shutdown(ctx); err != nil {
			s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
		}
	}
	if s.ownsStore {
		if closer, ok := s.store.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
	}

	s.started = false
	s.logger.Info(ctx, "matchup service stopped")
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// Open creates a session and loads its roster, as a page load does.
// A roster failure is reported in the view, not as an error.
func (s *Service) Open(ctx context.Context) (matchup.View, error) {
	if err := s.ready(); err != nil {
		return matchup.View{}, err
	}
	sess, err := s.store.Create(ctx, matchup.New())
	if err != nil {
		return matchup.View{}, err
	}
	s.logger.Debug(ctx, "session opened", logger.String("session", sess.ID))
	view, _, err := s.loadRoster(ctx, sess.ID)
	return view, err
}

// LoadRoster fetches the roster again for an existing session.
func (s *Service) LoadRoster(ctx context.Context, id string) (matchup.View, error) {
	if err := s.ready(); err != nil {
		return matchup.View{}, err
	}
	view, _, err := s.loadRoster(ctx, id)
	return view, err
}

// loadRoster returns the session view, the upstream error if the fetch
// failed, and a session error.
func (s *Service) loadRoster(ctx context.Context, id string) (matchup.View, error, error) { //nolint:revive // upstream and session errors are distinct
	if _, err := s.store.Update(ctx, id, reduceWith(matchup.RosterRequested{})); err != nil {
		return matchup.View{}, nil, err
	}

	teams, fetchErr := s.predictor.FetchTeams(ctx)
	var action matchup.Action = matchup.RosterLoaded{Teams: teams}
	if fetchErr != nil {
		s.logger.Warn(ctx, "roster load failed",
			logger.String("session", id),
			logger.Error(fetchErr),
		)
		metrics.RecordRosterLoad(metrics.OutcomeFailed)
		action = matchup.RosterFailed{Err: fetchErr}
	} else {
		metrics.RecordRosterLoad(metrics.OutcomeOK)
		s.logger.Debug(ctx, "roster loaded",
			logger.String("session", id),
			logger.Int("teams", len(teams)),
		)
	}

	sess, err := s.store.Update(ctx, id, reduceWith(action))
	if err != nil {
		return matchup.View{}, fetchErr, err
	}
	return viewOf(sess), fetchErr, nil
}

// SelectHome sets the home team. An empty name clears the slot.
func (s *Service) SelectHome(ctx context.Context, id, name string) (matchup.View, error) {
	return s.selectTeam(ctx, id, "home", matchup.HomeSelected{Name: name})
}

// SelectAway sets the away team. An empty name clears the slot.
func (s *Service) SelectAway(ctx context.Context, id, name string) (matchup.View, error) {
	return s.selectTeam(ctx, id, "away", matchup.AwaySelected{Name: name})
}

func (s *Service) selectTeam(ctx context.Context, id, slot string, a matchup.Action) (matchup.View, error) {
	if err := s.ready(); err != nil {
		return matchup.View{}, err
	}
	sess, err := s.store.Update(ctx, id, reduceWith(a))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return matchup.View{}, err
		}
		metrics.RecordSelection(slot, metrics.OutcomeRejected)
		return viewOf(sess), err
	}
	metrics.RecordSelection(slot, metrics.OutcomeOK)
	return viewOf(sess), nil
}

// Predict validates the session's selections, issues one backend request and
// waits for its outcome. Every failure, including validation and ordering,
// is reported through the result's Err. A non-empty key makes resubmission
// within the dedupe window answer ErrDuplicateRequest without a backend call.
func (s *Service) Predict(ctx context.Context, id, key string) matchup.PredictResult {
	if err := s.ready(); err != nil {
		return matchup.Fail(0, err)
	}

	dedupeKey := ""
	if key != "" {
		dedupeKey = dedupe.Key(id, key)
		if s.deduper.SeenAndRecord(ctx, dedupeKey) {
			metrics.RecordPrediction(metrics.OutcomeDuplicate)
			return matchup.Fail(0, fmt.Errorf("key %q: %w", key, matchup.ErrDuplicateRequest))
		}
	}
	forget := func() {
		if dedupeKey != "" {
			s.deduper.Unrecord(ctx, dedupeKey)
		}
	}

	var home, away model.TeamRef
	sess, err := s.store.Update(ctx, id, func(st matchup.State) (matchup.State, error) {
		next, err := matchup.Reduce(st, matchup.PredictRequested{})
		if err != nil {
			return st, err
		}
		home, away, err = matchup.Resolve(next)
		return next, err
	})
	if err != nil {
		forget()
		metrics.RecordPrediction(metrics.OutcomeRejected)
		return matchup.Fail(0, err)
	}
	seq := sess.State.Seq

	job := jobqueue.Job{
		ID:        uuid.NewString(),
		SessionID: id,
		Seq:       seq,
		Home:      home,
		Away:      away,
		Reply:     jobqueue.NewReply(),
	}
	if err := s.jobs.Enqueue(ctx, job); err != nil {
		forget()
		metrics.RecordPrediction(metrics.OutcomeBackpressure)
		s.logger.Warn(ctx, "predict not queued",
			logger.String("session", id),
			logger.Uint64("seq", seq),
			logger.Error(err),
		)
		if _, uerr := s.store.Update(ctx, id, reduceWith(matchup.PredictFailed{Seq: seq, Err: err})); uerr != nil {
			s.logger.Debug(ctx, "could not record queue failure", logger.Error(uerr))
		}
		return matchup.Fail(seq, err)
	}

	select {
	case res := <-job.Reply:
		return res
	case <-ctx.Done():
		return matchup.Fail(seq, ctx.Err())
	}
}

// complete applies a worker's outcome to the session. Only the response to
// the latest issued request may change what is displayed.
func (s *Service) complete(ctx context.Context, job jobqueue.Job, res matchup.PredictResult) matchup.PredictResult { //nolint:gocritic // hugeParam
	var a matchup.Action = matchup.PredictSucceeded{Seq: res.Seq, Prediction: res.Prediction}
	if !res.OK() {
		a = matchup.PredictFailed{Seq: res.Seq, Err: res.Err}
	}

	_, err := s.store.Update(ctx, job.SessionID, reduceWith(a))
	switch {
	case errors.Is(err, matchup.ErrStaleResponse):
		metrics.RecordPrediction(metrics.OutcomeStale)
		s.logger.Debug(ctx, "stale predict response discarded",
			logger.String("session", job.SessionID),
			logger.Uint64("seq", job.Seq),
		)
		return matchup.Fail(res.Seq, err)
	case errors.Is(err, repository.ErrNotFound):
		// session closed while the request was in flight
	case err != nil:
		s.logger.Error(ctx, "applying predict outcome", logger.Error(err))
	}

	if res.OK() {
		metrics.RecordPrediction(metrics.OutcomeOK)
	} else {
		metrics.RecordPrediction(metrics.OutcomeFailed)
	}
	return res
}

// PredictMatchup runs the whole form workflow in a throwaway session: load
// the roster, select both teams and predict.
func (s *Service) PredictMatchup(ctx context.Context, home, away string) matchup.PredictResult {
	if err := s.ready(); err != nil {
		return matchup.Fail(0, err)
	}
	sess, err := s.store.Create(ctx, matchup.New())
	if err != nil {
		return matchup.Fail(0, err)
	}
	defer func() { _ = s.store.Delete(context.WithoutCancel(ctx), sess.ID) }()

	_, fetchErr, err := s.loadRoster(ctx, sess.ID)
	if err != nil {
		return matchup.Fail(0, err)
	}
	if fetchErr != nil {
		return matchup.Fail(0, fmt.Errorf("%w: %w", ErrRosterUnavailable, fetchErr))
	}
	if _, err := s.SelectHome(ctx, sess.ID, home); err != nil {
		return matchup.Fail(0, err)
	}
	if _, err := s.SelectAway(ctx, sess.ID, away); err != nil {
		return matchup.Fail(0, err)
	}
	return s.Predict(ctx, sess.ID, "")
}

// View returns the session's current view.
func (s *Service) View(ctx context.Context, id string) (matchup.View, error) {
	if err := s.ready(); err != nil {
		return matchup.View{}, err
	}
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return matchup.View{}, err
	}
	return viewOf(sess), nil
}

// Close discards a session.
func (s *Service) Close(ctx context.Context, id string) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}

// Teams fetches the roster directly from the backend.
func (s *Service) Teams(ctx context.Context) ([]model.Team, error) {
	if s.predictor == nil {
		return nil, ErrNoPredictor
	}
	teams, err := s.predictor.FetchTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRosterUnavailable, err)
	}
	return teams, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"sessionTTL":  s.sessionTTL.String(),
		"maxSessions": s.maxSessions,
	}

	if s.started {
		queueLen := s.jobs.Len(ctx)
		sessions := s.store.Count(ctx)

		stats["queueLength"] = queueLen
		stats["sessions"] = sessions
		stats["idempotencyKeys"] = s.deduper.Size()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateActiveSessions(sessions)
	}
	return stats
}

func reduceWith(a matchup.Action) repository.UpdateFunc {
	return func(st matchup.State) (matchup.State, error) {
		return matchup.Reduce(st, a)
	}
}
