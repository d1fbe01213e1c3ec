package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/callparrot/plugin/ai/aitime"
	"github.com/hrygo/callparrot/plugin/ai/session"
)

func newTestDispatcher(t *testing.T, window int) (*Dispatcher, *session.MemoryStore) {
	t.Helper()
	store := session.NewMemoryStore()
	r := NewConversationRouter(RouterConfig{
		Collector:     anaCollector(),
		Answerer:      &MockAnswerer{Reply: "ok"},
		Clock:         aitime.FixedClock{T: refNow},
		HistoryWindow: window,
	})
	return NewDispatcher(r, store), store
}

func TestDispatcher_EndToEnd(t *testing.T) {
	ctx := context.Background()
	d, store := newTestDispatcher(t, 0)
	id := NewSessionID()
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	reply, err := d.Dispatch(ctx, id, "I want to book a call")
	require.NoError(t, err)
	assert.Equal(t, msgAskDate, reply)

	reply, err = d.Dispatch(ctx, id, "next Friday")
	require.NoError(t, err)
	assert.Contains(t, reply, "2026-11-13")

	reply, err = d.Dispatch(ctx, id, "show scheduled calls")
	require.NoError(t, err)
	assert.Contains(t, reply, "- Date: 2026-11-13, Name: Ana")

	state, err := d.State(ctx, id)
	require.NoError(t, err)
	assert.Len(t, state.ScheduledCalls, 1)
	assert.True(t, state.HasContact())

	require.NoError(t, d.End(ctx, id))
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, 0, d.activeLocks())
}

func TestDispatcher_SessionsAreIndependent(t *testing.T) {
	ctx := context.Background()
	d, _ := newTestDispatcher(t, 0)
	a, b := NewSessionID(), NewSessionID()
	require.NotEqual(t, a, b)

	_, err := d.Dispatch(ctx, a, "book a call tomorrow")
	require.NoError(t, err)

	reply, err := d.Dispatch(ctx, b, "show scheduled calls")
	require.NoError(t, err)
	assert.Equal(t, msgNoScheduledCalls, reply)
}

func TestDispatcher_SerializesPerSession(t *testing.T) {
	ctx := context.Background()
	const n = 50
	d, _ := newTestDispatcher(t, 4*n)
	id := NewSessionID()

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := d.Dispatch(ctx, id, fmt.Sprintf("question %d", i))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	state, err := d.State(ctx, id)
	require.NoError(t, err)
	assert.Len(t, state.History, 2*n, "no lost updates")
	assert.Equal(t, 0, d.activeLocks())
}

// failingStore fails the configured operations.
type failingStore struct {
	*session.MemoryStore
	loadErr error
	saveErr error
}

func (s *failingStore) Load(ctx context.Context, id string) (session.DialogueState, bool, error) {
	if s.loadErr != nil {
		return session.DialogueState{}, false, s.loadErr
	}
	return s.MemoryStore.Load(ctx, id)
}

func (s *failingStore) Save(ctx context.Context, id string, state session.DialogueState) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	return s.MemoryStore.Save(ctx, id, state)
}

func TestDispatcher_StoreFailures(t *testing.T) {
	ctx := context.Background()
	r := NewConversationRouter(RouterConfig{Clock: aitime.FixedClock{T: refNow}})
	boom := errors.New("disk full")

	d := NewDispatcher(r, &failingStore{MemoryStore: session.NewMemoryStore(), loadErr: boom})
	_, err := d.Dispatch(ctx, "s1", "help")
	assert.ErrorIs(t, err, boom)

	d = NewDispatcher(r, &failingStore{MemoryStore: session.NewMemoryStore(), saveErr: boom})
	reply, err := d.Dispatch(ctx, "s1", "help")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, HelpText, reply, "reply survives a failed save")
}

func TestDispatcher_SavesAfterCallerCancels(t *testing.T) {
	store := session.NewMemoryStore()
	answerer := &MockAnswerer{Reply: "late", Delay: time.Second}
	r := NewConversationRouter(RouterConfig{Answerer: answerer, Clock: aitime.FixedClock{T: refNow}})
	d := NewDispatcher(r, store)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	reply, err := d.Dispatch(ctx, "s1", "what is in chapter one?")
	require.NoError(t, err)
	assert.Equal(t, msgAnswerFailed, reply)
	assert.Equal(t, 1, store.Len())
}
