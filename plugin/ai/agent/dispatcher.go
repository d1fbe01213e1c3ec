package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/hrygo/callparrot/plugin/ai/session"
	"github.com/hrygo/callparrot/plugin/ai/timeout"
)

// Dispatcher runs load, route and save for one utterance at a time per session.
// Different sessions proceed in parallel.
type Dispatcher struct {
	router *ConversationRouter
	store  session.Store

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// NewDispatcher creates a dispatcher over store.
func NewDispatcher(router *ConversationRouter, store session.Store) *Dispatcher {
	return &Dispatcher{
		router: router,
		store:  store,
		locks:  make(map[string]*sessionLock),
	}
}

// NewSessionID returns a fresh random session ID.
func NewSessionID() string {
	return uuid.NewString()
}

// Dispatch handles one utterance for sessionID and persists the resulting state.
// An unknown session starts empty. Only store failures are returned as errors;
// a failed save still returns the reply that was produced.
func (d *Dispatcher) Dispatch(ctx context.Context, sessionID, utterance string) (string, error) {
	unlock := d.lock(sessionID)
	defer unlock()

	state, err := d.load(ctx, sessionID)
	if err != nil {
		return "", err
	}

	next, reply := d.router.Handle(ctx, state, utterance)

	if err := d.save(ctx, sessionID, next); err != nil {
		return reply, err
	}
	return reply, nil
}

// End deletes the state of sessionID.
func (d *Dispatcher) End(ctx context.Context, sessionID string) error {
	unlock := d.lock(sessionID)
	defer unlock()

	ctx, cancel := context.WithTimeout(ctx, timeout.StoreTimeout)
	defer cancel()
	if err := d.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("end session %s: %w", sessionID, err)
	}
	return nil
}

// State returns the stored state of sessionID.
func (d *Dispatcher) State(ctx context.Context, sessionID string) (session.DialogueState, error) {
	unlock := d.lock(sessionID)
	defer unlock()
	return d.load(ctx, sessionID)
}

func (d *Dispatcher) load(ctx context.Context, sessionID string) (session.DialogueState, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout.StoreTimeout)
	defer cancel()

	state, _, err := d.store.Load(ctx, sessionID)
	if err != nil {
		return session.DialogueState{}, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	return state, nil
}

func (d *Dispatcher) save(ctx context.Context, sessionID string, state session.DialogueState) error {
	// The turn already happened; persist it even if the caller gave up meanwhile.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout.StoreTimeout)
	defer cancel()

	if err := d.store.Save(ctx, sessionID, state); err != nil {
		return fmt.Errorf("save session %s: %w", sessionID, err)
	}
	return nil
}

// lock acquires the per-session mutex and returns its release.
// Entries are dropped once no caller holds or waits on them.
func (d *Dispatcher) lock(sessionID string) func() {
	d.mu.Lock()
	l, ok := d.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		d.locks[sessionID] = l
	}
	l.refs++
	d.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		d.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(d.locks, sessionID)
		}
		d.mu.Unlock()
	}
}

func (d *Dispatcher) activeLocks() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.locks)
}
