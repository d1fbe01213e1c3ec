package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hrygo/callparrot/plugin/ai/cache"
	"github.com/hrygo/callparrot/store"
)

const (
	cachePrefix = "session:"
	cacheTTL    = 30 * time.Minute
)

// SQLStore implements Store on the dialogue_state table with an optional cache in front.
type SQLStore struct {
	driver store.Driver
	cache  cache.CacheService
	now    func() time.Time
}

// NewSQLStore creates a new session store with database and cache. cache may be nil.
func NewSQLStore(driver store.Driver, cache cache.CacheService) *SQLStore {
	return &SQLStore{
		driver: driver,
		cache:  cache,
		now:    time.Now,
	}
}

// WithClock replaces the timestamp source. Intended for tests.
func (s *SQLStore) WithClock(now func() time.Time) *SQLStore {
	s.now = now
	return s
}

// Save implements Store.
func (s *SQLStore) Save(ctx context.Context, sessionID string, state DialogueState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal dialogue state: %w", err)
	}

	now := s.now().Unix()
	query := s.driver.Rebind(`
		INSERT INTO dialogue_state (session_id, state, created_ts, updated_ts)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (session_id)
		DO UPDATE SET
			state = excluded.state,
			updated_ts = excluded.updated_ts
	`)
	if _, err := s.driver.GetDB().ExecContext(ctx, query, sessionID, string(data), now, now); err != nil {
		return fmt.Errorf("failed to save dialogue state: %w", err)
	}

	s.updateCache(ctx, sessionID, data)
	return nil
}

// Load implements Store.
func (s *SQLStore) Load(ctx context.Context, sessionID string) (DialogueState, bool, error) {
	if data, ok := s.loadFromCache(ctx, sessionID); ok {
		if state, err := decodeState(data); err == nil {
			return state, true, nil
		}
		s.invalidateCache(ctx, sessionID)
	}

	query := s.driver.Rebind(`SELECT state FROM dialogue_state WHERE session_id = ?`)

	var data []byte
	err := s.driver.GetDB().QueryRowContext(ctx, query, sessionID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return DialogueState{}, false, nil
	}
	if err != nil {
		return DialogueState{}, false, fmt.Errorf("failed to load dialogue state: %w", err)
	}

	state, err := decodeState(data)
	if err != nil {
		// A damaged row restarts the conversation rather than locking the session out.
		slog.Warn("failed to unmarshal dialogue state", "session_id", sessionID, "error", err)
		return DialogueState{}, true, nil
	}

	s.updateCache(ctx, sessionID, data)
	return state, true, nil
}

// Delete implements Store.
func (s *SQLStore) Delete(ctx context.Context, sessionID string) error {
	query := s.driver.Rebind(`DELETE FROM dialogue_state WHERE session_id = ?`)
	if _, err := s.driver.GetDB().ExecContext(ctx, query, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	s.invalidateCache(ctx, sessionID)
	return nil
}

// PurgeIdle implements Store.
func (s *SQLStore) PurgeIdle(ctx context.Context, cutoff time.Time) (int64, error) {
	query := s.driver.Rebind(`DELETE FROM dialogue_state WHERE updated_ts < ?`)

	result, err := s.driver.GetDB().ExecContext(ctx, query, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to purge idle sessions: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged sessions: %w", err)
	}

	if removed > 0 {
		// The purged IDs are unknown here, so drop every cached session.
		s.invalidateCache(ctx, "*")
	}
	return removed, nil
}

func decodeState(data []byte) (DialogueState, error) {
	var state DialogueState
	if err := json.Unmarshal(data, &state); err != nil {
		return DialogueState{}, err
	}
	return state, nil
}

// updateCache stores the encoded state in cache.
func (s *SQLStore) updateCache(ctx context.Context, sessionID string, data []byte) {
	if s.cache == nil {
		return
	}

	key := cachePrefix + sessionID
	if err := s.cache.Set(ctx, key, data, cacheTTL); err != nil {
		slog.Warn("failed to update cache", "key", key, "error", err)
	}
}

// loadFromCache retrieves the encoded state from cache.
func (s *SQLStore) loadFromCache(ctx context.Context, sessionID string) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}
	return s.cache.Get(ctx, cachePrefix+sessionID)
}

// invalidateCache removes a session, or all sessions for "*", from cache.
func (s *SQLStore) invalidateCache(ctx context.Context, sessionID string) {
	if s.cache == nil {
		return
	}

	key := cachePrefix + sessionID
	if err := s.cache.Invalidate(ctx, key); err != nil {
		slog.Warn("failed to invalidate cache", "key", key, "error", err)
	}
}

// Ensure SQLStore implements Store
var _ Store = (*SQLStore)(nil)
