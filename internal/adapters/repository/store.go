// Package repository keeps form sessions, one view-model per browser or API client.
package repository

import (
	"context"
	"time"

	"github.com/okian/matchup/internal/domain/matchup"
)

// Session is one open form.
type Session struct {
	ID        string
	State     matchup.State
	CreatedAt time.Time
	UpdatedAt time.Time // last state change
	LastSeen  time.Time // last read or write, drives idle expiry
}

// UpdateFunc computes the next state. Returning an error leaves the stored
// state untouched.
type UpdateFunc func(matchup.State) (matchup.State, error)

// Store provides access to sessions.
type Store interface {
	// Create stores a new session holding state.
	// Returns ErrCapacity when the store is full.
	Create(ctx context.Context, state matchup.State) (Session, error)

	// Get returns a copy of the session.
	// Returns ErrNotFound for unknown or expired ids.
	Get(ctx context.Context, id string) (Session, error)

	// Update applies fn atomically. fn must not block; network calls belong
	// outside of it.
	Update(ctx context.Context, id string, fn UpdateFunc) (Session, error)

	// Delete removes the session. Returns ErrNotFound when absent.
	Delete(ctx context.Context, id string) error

	// Count returns the number of live sessions.
	Count(ctx context.Context) int

	// Sweep removes sessions idle at now and returns how many were removed.
	Sweep(ctx context.Context, now time.Time) int
}
