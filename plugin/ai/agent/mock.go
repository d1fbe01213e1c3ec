package agent

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/hrygo/callparrot/plugin/ai/contact"
	"github.com/hrygo/callparrot/plugin/ai/session"
)

// MockCollector is a ContactCollector for tests. Each field answers from its
// queue in order; an exhausted queue returns io.EOF.
type MockCollector struct {
	mu        sync.Mutex
	responses map[contact.Field][]string
	prompts   []MockPrompt
	err       error
}

// MockPrompt records one call to MockCollector.Prompt.
type MockPrompt struct {
	Field   contact.Field
	Attempt int
}

// NewMockCollector creates a collector answering with responses.
func NewMockCollector(responses map[contact.Field][]string) *MockCollector {
	queued := make(map[contact.Field][]string, len(responses))
	for field, values := range responses {
		queued[field] = append([]string(nil), values...)
	}
	return &MockCollector{responses: queued}
}

// Queue appends answers for field.
func (m *MockCollector) Queue(field contact.Field, values ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[field] = append(m.responses[field], values...)
}

// SetError makes every following Prompt fail with err.
func (m *MockCollector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Prompt implements ContactCollector.
func (m *MockCollector) Prompt(ctx context.Context, field contact.Field, attempt int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.prompts = append(m.prompts, MockPrompt{Field: field, Attempt: attempt})
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.err != nil {
		return "", m.err
	}

	queue := m.responses[field]
	if len(queue) == 0 {
		return "", io.EOF
	}
	m.responses[field] = queue[1:]
	return queue[0], nil
}

// Prompts returns every prompt issued so far.
func (m *MockCollector) Prompts() []MockPrompt {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockPrompt(nil), m.prompts...)
}

// MockAnswerer is a DocumentAnswerer for tests.
type MockAnswerer struct {
	// Reply is returned for every question.
	Reply string
	// Err, when set, is returned instead of Reply.
	Err error
	// Delay holds each call until it elapses or ctx is done.
	Delay time.Duration

	mu        sync.Mutex
	questions []string
	histories [][]session.Turn
}

// Answer implements DocumentAnswerer.
func (m *MockAnswerer) Answer(ctx context.Context, question string, history []session.Turn) (string, error) {
	m.mu.Lock()
	m.questions = append(m.questions, question)
	m.histories = append(m.histories, append([]session.Turn(nil), history...))
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if m.Err != nil {
		return "", m.Err
	}
	return m.Reply, nil
}

// Questions returns the questions asked so far.
func (m *MockAnswerer) Questions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.questions...)
}

// LastHistory returns the history passed with the most recent question.
func (m *MockAnswerer) LastHistory() []session.Turn {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.histories) == 0 {
		return nil
	}
	return m.histories[len(m.histories)-1]
}

var (
	_ ContactCollector = (*MockCollector)(nil)
	_ DocumentAnswerer = (*MockAnswerer)(nil)
)
