package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultRetention is how long an idle session is kept.
	DefaultRetention = 30 * 24 * time.Hour
	// DefaultCleanupInterval is the default interval between cleanup runs.
	DefaultCleanupInterval = time.Hour
)

// CleanupConfig holds configuration for the cleanup job.
type CleanupConfig struct {
	Retention       time.Duration // Idle time after which a session is purged (default: 30 days)
	CleanupInterval time.Duration // Interval between cleanup runs (default: 1h)
}

// DefaultCleanupConfig returns the default cleanup configuration.
func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{
		Retention:       DefaultRetention,
		CleanupInterval: DefaultCleanupInterval,
	}
}

// CleanupJob periodically purges idle sessions from a Store.
type CleanupJob struct {
	store  Store
	config CleanupConfig
	now    func() time.Time

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	done     chan struct{}
}

// NewCleanupJob creates a new cleanup job.
func NewCleanupJob(store Store, config CleanupConfig) *CleanupJob {
	if config.Retention <= 0 {
		config.Retention = DefaultRetention
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultCleanupInterval
	}

	return &CleanupJob{
		store:  store,
		config: config,
		now:    time.Now,
	}
}

// Start begins the periodic cleanup job in a goroutine. Starting a running job is a no-op.
func (j *CleanupJob) Start(ctx context.Context) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.running {
		return
	}

	j.running = true
	j.stopChan = make(chan struct{})
	j.done = make(chan struct{})

	go j.run(ctx, j.stopChan, j.done)

	slog.Info("session cleanup job started",
		"retention", j.config.Retention,
		"interval", j.config.CleanupInterval)
}

// Stop stops the cleanup job and waits for the current run to finish.
func (j *CleanupJob) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	close(j.stopChan)
	done := j.done
	j.running = false
	j.mu.Unlock()

	<-done
	slog.Info("session cleanup job stopped")
}

// RunOnce executes a single cleanup run immediately.
func (j *CleanupJob) RunOnce(ctx context.Context) (int64, error) {
	return j.store.PurgeIdle(ctx, j.now().Add(-j.config.Retention))
}

// IsRunning returns whether the cleanup job is currently running.
func (j *CleanupJob) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}

func (j *CleanupJob) run(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(j.config.CleanupInterval)
	defer ticker.Stop()

	j.cleanup(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			j.cleanup(ctx)
		}
	}
}

func (j *CleanupJob) cleanup(ctx context.Context) {
	deleted, err := j.RunOnce(ctx)
	if err != nil {
		slog.Error("session cleanup failed", "error", err)
		return
	}
	if deleted > 0 {
		slog.Info("session cleanup completed", "deleted", deleted)
	}
}
