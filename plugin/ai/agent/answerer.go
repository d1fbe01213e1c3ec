package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hrygo/callparrot/plugin/ai"
	"github.com/hrygo/callparrot/plugin/ai/session"
)

// ErrAnswererUnavailable is returned when no language model is configured.
var ErrAnswererUnavailable = errors.New("document answerer not configured")

// OpenAIAnswerer answers document questions through an OpenAI-compatible chat model.
type OpenAIAnswerer struct {
	llm          ai.LLMService
	systemPrompt string
}

// NewOpenAIAnswerer creates an answerer over llm. An empty systemPrompt uses
// DefaultAnswerSystemPrompt.
func NewOpenAIAnswerer(llm ai.LLMService, systemPrompt string) *OpenAIAnswerer {
	if strings.TrimSpace(systemPrompt) == "" {
		systemPrompt = DefaultAnswerSystemPrompt
	}
	return &OpenAIAnswerer{llm: llm, systemPrompt: systemPrompt}
}

// NewOpenAIAnswererFromConfig builds the chat client from cfg.
func NewOpenAIAnswererFromConfig(cfg *ai.LLMConfig) (*OpenAIAnswerer, error) {
	llm, err := ai.NewLLMService(cfg)
	if err != nil {
		return nil, fmt.Errorf("create LLM service: %w", err)
	}
	return NewOpenAIAnswerer(llm, cfg.SystemPrompt), nil
}

// Answer implements DocumentAnswerer.
func (a *OpenAIAnswerer) Answer(ctx context.Context, question string, history []session.Turn) (string, error) {
	messages := ai.FormatMessages(a.systemPrompt, question, historyMessages(history))

	answer, err := a.llm.Chat(ctx, messages)
	if err != nil {
		if ai.IsRetryable(err) {
			return "", fmt.Errorf("%w: %w", ErrTransient, err)
		}
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

func historyMessages(history []session.Turn) []ai.Message {
	messages := make([]ai.Message, 0, len(history))
	for _, turn := range history {
		if turn.Speaker == session.SpeakerAssistant {
			messages = append(messages, ai.AssistantMessage(turn.Text))
		} else {
			messages = append(messages, ai.UserMessage(turn.Text))
		}
	}
	return messages
}

// UnavailableAnswerer fails every question. It stands in when no model is configured.
type UnavailableAnswerer struct{}

// Answer implements DocumentAnswerer.
func (UnavailableAnswerer) Answer(context.Context, string, []session.Turn) (string, error) {
	return "", ErrAnswererUnavailable
}

var (
	_ DocumentAnswerer = (*OpenAIAnswerer)(nil)
	_ DocumentAnswerer = UnavailableAnswerer{}
)
