package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// ServiceConfig configures the cache service.
type ServiceConfig struct {
	Capacity        int           // Maximum number of entries (default: 1000)
	DefaultTTL      time.Duration // Default TTL for entries (default: 5 minutes)
	CleanupInterval time.Duration // Interval for expired entry cleanup (default: 1 minute)
}

// DefaultServiceConfig returns default cache service configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Capacity:        defaultCapacity,
		DefaultTTL:      defaultTTL,
		CleanupInterval: time.Minute,
	}
}

// Service implements CacheService over an LRUCache and sweeps expired entries
// in the background until Close.
type Service struct {
	lru *LRUCache

	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// NewService creates a new cache service and starts its cleanup loop.
func NewService(cfg ServiceConfig) *Service {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		lru:    NewLRUCache(cfg.Capacity, cfg.DefaultTTL),
		cancel: cancel,
	}

	s.wg.Add(1)
	go s.cleanupLoop(ctx, cfg.CleanupInterval)

	return s
}

// Close stops the cleanup loop. Safe to call more than once.
func (s *Service) Close() {
	s.once.Do(func() {
		s.cancel()
		s.wg.Wait()
	})
}

// Get retrieves a value from cache.
func (s *Service) Get(_ context.Context, key string) ([]byte, bool) {
	return s.lru.Get(key)
}

// Set stores a value in cache.
func (s *Service) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.lru.Set(key, value, ttl)
	return nil
}

// Invalidate invalidates cache entries matching the pattern.
func (s *Service) Invalidate(_ context.Context, pattern string) error {
	s.lru.Invalidate(pattern)
	return nil
}

// Stats returns the underlying cache counters.
func (s *Service) Stats() Stats {
	return s.lru.Stats()
}

func (s *Service) cleanupLoop(ctx context.Context, interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.lru.CleanupExpired(); n > 0 {
				slog.Debug("expired cache entries removed", "count", n)
			}
		}
	}
}

// Ensure Service implements CacheService
var _ CacheService = (*Service)(nil)
