// Package metrics exposes conversation metrics to Prometheus.
package metrics

import (
	"context"
	"time"
)

// MetricsService defines the metrics recorded while routing utterances.
type MetricsService interface {
	// RecordIntent counts one classified utterance.
	RecordIntent(ctx context.Context, intent, rule string)

	// RecordAnswer records one document answerer call.
	RecordAnswer(ctx context.Context, latency time.Duration, success bool)

	// RecordContactRejection counts a contact value that failed validation.
	RecordContactRejection(ctx context.Context, field string)

	// RecordScheduledCall counts a call added to a session.
	RecordScheduledCall(ctx context.Context)
}
