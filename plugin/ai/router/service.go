package router

import (
	"log/slog"
	"strings"
	"time"
)

// Service implements Classifier over an ordered rule table.
type Service struct {
	rules []Rule
}

// Config contains the configuration for the router service.
type Config struct {
	// Rules overrides the priority table. Nil means DefaultRules.
	Rules []Rule
}

// NewService creates a new router service.
func NewService(cfg Config) *Service {
	rules := cfg.Rules
	if rules == nil {
		rules = DefaultRules()
	}
	return &Service{rules: rules}
}

// Classify returns the intent of the first rule matching utterance.
func (s *Service) Classify(utterance string, hasContact bool) Intent {
	intent, _ := s.Explain(utterance, hasContact)
	return intent
}

// Explain classifies utterance and also returns the name of the rule that decided it.
// A table without a catch-all rule yields IntentDocumentQuery and rule "fallback".
func (s *Service) Explain(utterance string, hasContact bool) (Intent, string) {
	start := time.Now()
	lower := strings.ToLower(strings.TrimSpace(utterance))

	for _, r := range s.rules {
		if !r.Match(lower, hasContact) {
			continue
		}
		slog.Debug("intent classified by rule matcher",
			"input", truncate(utterance, 50),
			"intent", r.Intent,
			"rule", r.Name,
			"has_contact", hasContact,
			"latency_ms", time.Since(start).Milliseconds())
		return r.Intent, r.Name
	}

	slog.Debug("no intent rule matched",
		"input", truncate(utterance, 50),
		"latency_ms", time.Since(start).Milliseconds())
	return IntentDocumentQuery, "fallback"
}

// Rules returns a copy of the service's priority table.
func (s *Service) Rules() []Rule {
	out := make([]Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

var defaultService = NewService(Config{})

// Classify classifies utterance with the default rule table.
func Classify(utterance string, hasContact bool) Intent {
	return defaultService.Classify(utterance, hasContact)
}

// Explain explains utterance with the default rule table.
func Explain(utterance string, hasContact bool) (Intent, string) {
	return defaultService.Explain(utterance, hasContact)
}

// truncate truncates a string to maxLen characters.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// Ensure Service implements Classifier
var _ Classifier = (*Service)(nil)
