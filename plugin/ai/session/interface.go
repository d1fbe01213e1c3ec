// Package session holds the per-conversation dialogue state and its persistence.
package session

import (
	"context"
	"time"
)

// Store persists one DialogueState per session ID.
// Implementations must be safe for concurrent use across sessions.
type Store interface {
	// Load returns the saved state. ok is false for an unknown session.
	Load(ctx context.Context, sessionID string) (state DialogueState, ok bool, err error)

	// Save replaces the state of sessionID.
	Save(ctx context.Context, sessionID string, state DialogueState) error

	// Delete removes a session. Deleting an unknown session is not an error.
	Delete(ctx context.Context, sessionID string) error

	// PurgeIdle deletes sessions last saved before cutoff and returns how many were removed.
	PurgeIdle(ctx context.Context, cutoff time.Time) (int64, error)
}
