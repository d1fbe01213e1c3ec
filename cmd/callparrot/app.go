package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hrygo/callparrot/internal/profile"
	"github.com/hrygo/callparrot/plugin/ai"
	"github.com/hrygo/callparrot/plugin/ai/agent"
	"github.com/hrygo/callparrot/plugin/ai/aitime"
	"github.com/hrygo/callparrot/plugin/ai/cache"
	"github.com/hrygo/callparrot/plugin/ai/metrics"
	"github.com/hrygo/callparrot/plugin/ai/session"
	"github.com/hrygo/callparrot/store/db"
)

// sessionStore is an opened session.Store plus whatever must be released with it.
type sessionStore struct {
	session.Store
	close func()
}

// openStore opens the store selected by p.Driver. Cache counters are
// registered with reg when it is non-nil.
func openStore(ctx context.Context, p *profile.Profile, reg prometheus.Registerer) (*sessionStore, error) {
	if p.Driver == profile.DriverMemory {
		return &sessionStore{Store: session.NewMemoryStore(), close: func() {}}, nil
	}

	driver, err := db.Open(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("open %s session store: %w", p.Driver, err)
	}

	cacheSvc := cache.NewService(cache.DefaultServiceConfig())
	if reg != nil {
		metrics.RegisterCacheStats(reg, cacheSvc.Stats)
	}

	return &sessionStore{
		Store: session.NewSQLStore(driver, cacheSvc),
		close: func() {
			cacheSvc.Close()
			if err := driver.Close(); err != nil {
				slog.Warn("failed to close database", "error", err)
			}
		},
	}, nil
}

// app is the fully wired conversation stack of one process.
type app struct {
	dispatcher *agent.Dispatcher
	store      *sessionStore
	cleanup    *session.CleanupJob
}

func newApp(ctx context.Context, p *profile.Profile, collector agent.ContactCollector, reg prometheus.Registerer) (*app, error) {
	store, err := openStore(ctx, p, reg)
	if err != nil {
		return nil, err
	}

	answerer, err := newAnswerer(p)
	if err != nil {
		store.close()
		return nil, err
	}

	loc, err := aitime.LoadLocation(p.Timezone)
	if err != nil {
		slog.Warn("falling back to UTC", "timezone", p.Timezone, "error", err)
	}

	router := agent.NewConversationRouter(agent.RouterConfig{
		Collector:     collector,
		Answerer:      answerer,
		Clock:         aitime.SystemClock{Location: loc},
		Metrics:       metrics.NewService(reg),
		PhoneRegion:   p.PhoneRegion,
		AnswerTimeout: p.AnswerTimeout,
		HistoryWindow: p.HistoryWindow,
	})

	cleanup := session.NewCleanupJob(store, session.CleanupConfig{Retention: p.SessionRetention})
	cleanup.Start(ctx)

	slog.Info("callparrot ready",
		"version", p.Version,
		"mode", p.Mode,
		"driver", p.Driver,
		"timezone", loc.String(),
		"llm", p.IsLLMEnabled())

	return &app{
		dispatcher: agent.NewDispatcher(router, store),
		store:      store,
		cleanup:    cleanup,
	}, nil
}

func newAnswerer(p *profile.Profile) (agent.DocumentAnswerer, error) {
	if !p.IsLLMEnabled() {
		slog.Warn("no LLM configured, document questions will not be answered; set CALLPARROT_LLM_API_KEY")
		return agent.UnavailableAnswerer{}, nil
	}

	answerer, err := agent.NewOpenAIAnswererFromConfig(ai.NewLLMConfigFromProfile(p))
	if err != nil {
		return nil, fmt.Errorf("configure document answerer: %w", err)
	}
	return answerer, nil
}

// Close stops background work and releases the store.
func (a *app) Close() {
	a.cleanup.Stop()
	a.store.close()
}
