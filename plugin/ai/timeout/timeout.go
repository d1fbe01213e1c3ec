// Package timeout defines centralized timeout constants for AI operations.
package timeout

import "time"

// AI operation timeout constants.
const (
	// DocumentAnswerTimeout bounds one document question round-trip to the answerer.
	DocumentAnswerTimeout = 30 * time.Second

	// StoreTimeout bounds one session load or save.
	StoreTimeout = 5 * time.Second

	// ShutdownTimeout is the grace period for the metrics server on exit.
	ShutdownTimeout = 5 * time.Second

	// HistorySummaryTurns is the number of turns shown for a history query.
	HistorySummaryTurns = 4

	// MaxTruncateLength is the maximum length for truncating strings in logs.
	MaxTruncateLength = 50
)
