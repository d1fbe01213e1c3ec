package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/callparrot/internal/profile"
	"github.com/hrygo/callparrot/plugin/ai/aitime"
	"github.com/hrygo/callparrot/plugin/ai/cache"
	"github.com/hrygo/callparrot/store"
	"github.com/hrygo/callparrot/store/db/sqlite"
)

// mutableClock lets tests move time forward between saves.
type mutableClock struct{ t time.Time }

func (c *mutableClock) Now() time.Time { return c.t }

func newSQLiteDriver(t *testing.T) store.Driver {
	t.Helper()
	driver, err := sqlite.NewDB(&profile.Profile{Driver: "sqlite", DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = driver.Close() })
	require.NoError(t, store.Migrate(context.Background(), driver))
	return driver
}

// storeFactories builds every Store implementation over a shared clock.
func storeFactories(t *testing.T) map[string]func(*mutableClock) Store {
	return map[string]func(*mutableClock) Store{
		"memory": func(c *mutableClock) Store {
			return NewMemoryStore().WithClock(c.Now)
		},
		"sqlite": func(c *mutableClock) Store {
			return NewSQLStore(newSQLiteDriver(t), nil).WithClock(c.Now)
		},
		"sqlite+cache": func(c *mutableClock) Store {
			svc := cache.NewService(cache.DefaultServiceConfig())
			t.Cleanup(svc.Close)
			return NewSQLStore(newSQLiteDriver(t), svc).WithClock(c.Now)
		},
	}
}

func TestStore_Conformance(t *testing.T) {
	ctx := context.Background()

	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			clock := &mutableClock{t: testNow}
			st := factory(clock)

			t.Run("LoadUnknown", func(t *testing.T) {
				state, ok, err := st.Load(ctx, "missing")
				require.NoError(t, err)
				assert.False(t, ok)
				assert.Equal(t, DialogueState{}, state)
			})

			call := NewScheduledCall(aitime.Date{Year: 2026, Month: time.November, Day: 13}, ana, testNow)
			state := DialogueState{}.WithContact(ana).WithCall(call).WithExchange("next friday", "booked", testNow)

			t.Run("SaveAndLoad", func(t *testing.T) {
				require.NoError(t, st.Save(ctx, "s1", state))

				loaded, ok, err := st.Load(ctx, "s1")
				require.NoError(t, err)
				require.True(t, ok)
				assert.Equal(t, state.Contact, loaded.Contact)
				assert.Equal(t, state.ScheduledCalls[0].ID, loaded.ScheduledCalls[0].ID)
				assert.Equal(t, "2026-11-13", loaded.ScheduledCalls[0].Date)
				require.Len(t, loaded.History, 2)
				assert.Equal(t, "next friday", loaded.History[0].Text)
				assert.True(t, loaded.History[0].At.Equal(testNow))
			})

			t.Run("SaveOverwrites", func(t *testing.T) {
				require.NoError(t, st.Save(ctx, "s1", state.WithoutContact()))

				loaded, ok, err := st.Load(ctx, "s1")
				require.NoError(t, err)
				require.True(t, ok)
				assert.Nil(t, loaded.Contact)
				assert.Len(t, loaded.ScheduledCalls, 1)
			})

			t.Run("PurgeIdle", func(t *testing.T) {
				clock.t = testNow.Add(48 * time.Hour)
				require.NoError(t, st.Save(ctx, "fresh", DialogueState{}))

				removed, err := st.PurgeIdle(ctx, testNow.Add(24*time.Hour))
				require.NoError(t, err)
				assert.Equal(t, int64(1), removed)

				_, ok, err := st.Load(ctx, "s1")
				require.NoError(t, err)
				assert.False(t, ok, "idle session purged")

				_, ok, err = st.Load(ctx, "fresh")
				require.NoError(t, err)
				assert.True(t, ok)
			})

			t.Run("Delete", func(t *testing.T) {
				require.NoError(t, st.Delete(ctx, "fresh"))
				require.NoError(t, st.Delete(ctx, "fresh"))

				_, ok, err := st.Load(ctx, "fresh")
				require.NoError(t, err)
				assert.False(t, ok)
			})
		})
	}
}

func TestMemoryStore_Isolation(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	state := DialogueState{}.WithContact(ana)
	require.NoError(t, st.Save(ctx, "s1", state))
	state.Contact.Name = "Mutated"

	loaded, _, err := st.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", loaded.Contact.Name)

	loaded.Contact.Name = "Again"
	again, _, _ := st.Load(ctx, "s1")
	assert.Equal(t, "Ana", again.Contact.Name)
	assert.Equal(t, 1, st.Len())
}

func TestSQLStore_CacheServesLoads(t *testing.T) {
	ctx := context.Background()
	driver := newSQLiteDriver(t)
	svc := cache.NewService(cache.DefaultServiceConfig())
	t.Cleanup(svc.Close)
	st := NewSQLStore(driver, svc)

	require.NoError(t, st.Save(ctx, "s1", DialogueState{}.WithContact(ana)))

	// Remove the row behind the cache's back; the cached copy still answers.
	_, err := driver.GetDB().ExecContext(ctx, `DELETE FROM dialogue_state WHERE session_id = 's1'`)
	require.NoError(t, err)

	loaded, ok, err := st.Load(ctx, "s1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Ana", loaded.Contact.Name)
	assert.Equal(t, uint64(1), svc.Stats().Hits)

	require.NoError(t, st.Delete(ctx, "s1"))
	_, ok, err = st.Load(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLStore_DamagedRowRestarts(t *testing.T) {
	ctx := context.Background()
	driver := newSQLiteDriver(t)
	st := NewSQLStore(driver, nil)

	_, err := driver.GetDB().ExecContext(ctx,
		`INSERT INTO dialogue_state (session_id, state, created_ts, updated_ts) VALUES ('bad', 'not json', 0, 0)`)
	require.NoError(t, err)

	state, ok, err := st.Load(ctx, "bad")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, DialogueState{}, state)
}
