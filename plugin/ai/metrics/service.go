package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hrygo/callparrot/plugin/ai/cache"
)

const namespace = "callparrot"

// Service implements MetricsService with Prometheus collectors.
// A nil *Service records nothing.
type Service struct {
	intents           *prometheus.CounterVec
	answerLatency     *prometheus.HistogramVec
	contactRejections *prometheus.CounterVec
	scheduledCalls    prometheus.Counter
}

// NewService creates the collectors and registers them with reg,
// or with the default registerer when reg is nil.
func NewService(reg prometheus.Registerer) *Service {
	s := &Service{
		intents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "intents_total",
			Help:      "Utterances classified, by intent and matching rule",
		}, []string{"intent", "rule"}),
		answerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "answerer",
			Name:      "latency_seconds",
			Help:      "Latency of document answerer calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		contactRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "contact",
			Name:      "rejections_total",
			Help:      "Contact values rejected by validation",
		}, []string{"field"}),
		scheduledCalls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "schedule",
			Name:      "calls_total",
			Help:      "Calls scheduled",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(s.intents, s.answerLatency, s.contactRejections, s.scheduledCalls)
	return s
}

// RecordIntent implements MetricsService.
func (s *Service) RecordIntent(_ context.Context, intent, rule string) {
	if s == nil {
		return
	}
	s.intents.WithLabelValues(intent, rule).Inc()
}

// RecordAnswer implements MetricsService.
func (s *Service) RecordAnswer(_ context.Context, latency time.Duration, success bool) {
	if s == nil {
		return
	}
	status := "ok"
	if !success {
		status = "error"
	}
	s.answerLatency.WithLabelValues(status).Observe(latency.Seconds())
}

// RecordContactRejection implements MetricsService.
func (s *Service) RecordContactRejection(_ context.Context, field string) {
	if s == nil {
		return
	}
	s.contactRejections.WithLabelValues(field).Inc()
}

// RecordScheduledCall implements MetricsService.
func (s *Service) RecordScheduledCall(_ context.Context) {
	if s == nil {
		return
	}
	s.scheduledCalls.Inc()
}

// RegisterCacheStats exposes the session cache counters read from stats on every scrape.
func RegisterCacheStats(reg prometheus.Registerer, stats func() cache.Stats) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	opts := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{Namespace: namespace, Subsystem: "session_cache", Name: name, Help: help}
	}
	reg.MustRegister(
		prometheus.NewCounterFunc(opts("hits_total", "Session cache hits"),
			func() float64 { return float64(stats().Hits) }),
		prometheus.NewCounterFunc(opts("misses_total", "Session cache misses"),
			func() float64 { return float64(stats().Misses) }),
		prometheus.NewCounterFunc(opts("evictions_total", "Session cache evictions"),
			func() float64 { return float64(stats().Evictions) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "session_cache",
			Name:      "entries",
			Help:      "Entries currently held in the session cache",
		}, func() float64 { return float64(stats().Size) }),
	)
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Ensure Service implements MetricsService
var _ MetricsService = (*Service)(nil)
