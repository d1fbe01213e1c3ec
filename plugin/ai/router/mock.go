package router

import (
	"strings"
	"sync"
)

// MockClassifier is a Classifier for tests. Utterances present in
// IntentOverrides classify to the override; all others go through DefaultRules.
type MockClassifier struct {
	// IntentOverrides maps a trimmed, lowercased utterance to a forced intent.
	IntentOverrides map[string]Intent

	mu    sync.Mutex
	calls []string
	svc   *Service
}

// NewMockClassifier creates a new MockClassifier.
func NewMockClassifier() *MockClassifier {
	return &MockClassifier{
		IntentOverrides: make(map[string]Intent),
		svc:             NewService(Config{}),
	}
}

// Classify implements Classifier.
func (m *MockClassifier) Classify(utterance string, hasContact bool) Intent {
	m.mu.Lock()
	m.calls = append(m.calls, utterance)
	m.mu.Unlock()

	if intent, ok := m.IntentOverrides[strings.ToLower(strings.TrimSpace(utterance))]; ok {
		return intent
	}
	return m.svc.Classify(utterance, hasContact)
}

// Calls returns the utterances classified so far, in order.
func (m *MockClassifier) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

var _ Classifier = (*MockClassifier)(nil)
