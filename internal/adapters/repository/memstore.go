package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/matchup/internal/domain/matchup"
	"github.com/okian/matchup/pkg/metrics"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is a mutex-guarded map of sessions with idle expiry.
type MemoryStore struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	ttl         time.Duration
	maxSessions int

	sweepInterval time.Duration
	now           func() time.Time
	newID         func() string

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewMemoryStore creates a store and starts its sweeper. The sweeper stops
// when ctx is cancelled or Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		sessions:      make(map[string]*Session),
		ttl:           30 * time.Minute,
		maxSessions:   10000,
		sweepInterval: time.Minute,
		now:           time.Now,
		newID:         uuid.NewString,
		stopChan:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ttl > 0 {
		s.startSweeper(ctx)
	}
	return s
}

func (s *MemoryStore) startSweeper(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.Sweep(ctx, s.now())
			}
		}
	}()
}

// Close stops the sweeper.
func (s *MemoryStore) Close() error {
	select {
	case <-s.stopChan:
	default:
		close(s.stopChan)
	}
	s.wg.Wait()
	return nil
}

// Create implements Store.Create.
func (s *MemoryStore) Create(_ context.Context, state matchup.State) (Session, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxSessions > 0 && len(s.sessions) >= s.maxSessions {
		s.sweepLocked(now)
		if len(s.sessions) >= s.maxSessions {
			return Session{}, fmt.Errorf("%d sessions: %w", len(s.sessions), ErrCapacity)
		}
	}

	sess := &Session{
		ID:        s.newID(),
		State:     state.Clone(),
		CreatedAt: now,
		UpdatedAt: now,
		LastSeen:  now,
	}
	s.sessions[sess.ID] = sess
	metrics.UpdateActiveSessions(len(s.sessions))
	return snapshot(sess), nil
}

// Get implements Store.Get.
func (s *MemoryStore) Get(_ context.Context, id string) (Session, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.liveLocked(id, now)
	if err != nil {
		return Session{}, err
	}
	sess.LastSeen = now
	return snapshot(sess), nil
}

// Update implements Store.Update.
func (s *MemoryStore) Update(_ context.Context, id string, fn UpdateFunc) (Session, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.liveLocked(id, now)
	if err != nil {
		return Session{}, err
	}
	sess.LastSeen = now

	next, err := fn(sess.State.Clone())
	if err != nil {
		return snapshot(sess), err
	}
	sess.State = next
	sess.UpdatedAt = now
	return snapshot(sess), nil
}

// Delete implements Store.Delete.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, id)
	metrics.UpdateActiveSessions(len(s.sessions))
	return nil
}

// Count implements Store.Count.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep implements Store.Sweep.
func (s *MemoryStore) Sweep(_ context.Context, now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(now)
}

func (s *MemoryStore) sweepLocked(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}
	removed := 0
	for id, sess := range s.sessions {
		if s.expired(sess, now) {
			delete(s.sessions, id)
			removed++
		}
	}
	metrics.RecordSessionsExpired(removed)
	metrics.UpdateActiveSessions(len(s.sessions))
	return removed
}

// liveLocked returns the session or ErrNotFound, dropping it when expired.
func (s *MemoryStore) liveLocked(id string, now time.Time) (*Session, error) {
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if s.expired(sess, now) {
		delete(s.sessions, id)
		metrics.RecordSessionsExpired(1)
		metrics.UpdateActiveSessions(len(s.sessions))
		return nil, ErrNotFound
	}
	return sess, nil
}

func (s *MemoryStore) expired(sess *Session, now time.Time) bool {
	return s.ttl > 0 && now.Sub(sess.LastSeen) > s.ttl
}

func snapshot(sess *Session) Session {
	out := *sess
	out.State = sess.State.Clone()
	return out
}
