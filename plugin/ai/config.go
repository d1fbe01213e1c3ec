package ai

import (
	"errors"

	"github.com/hrygo/callparrot/internal/profile"
)

// LLMConfig represents LLM configuration.
type LLMConfig struct {
	Provider     string // openai, deepseek, ollama
	Model        string // gpt-4o-mini
	APIKey       string
	BaseURL      string
	MaxTokens    int     // default: 1024
	Temperature  float32 // default: 0.3
	RateLimit    float64 // requests per second, 0 disables limiting
	SystemPrompt string
}

// Default endpoints for OpenAI-compatible providers.
var defaultBaseURLs = map[string]string{
	"openai":   "https://api.openai.com/v1",
	"deepseek": "https://api.deepseek.com/v1",
	"ollama":   "http://localhost:11434/v1",
}

// NewLLMConfigFromProfile creates LLM config from profile.
func NewLLMConfigFromProfile(p *profile.Profile) *LLMConfig {
	cfg := &LLMConfig{
		Provider:     p.LLMProvider,
		Model:        p.LLMModel,
		APIKey:       p.LLMAPIKey,
		BaseURL:      p.LLMBaseURL,
		MaxTokens:    p.LLMMaxTokens,
		Temperature:  p.LLMTemperature,
		RateLimit:    p.LLMRateLimit,
		SystemPrompt: p.LLMSystemPrompt,
	}

	// The profile default points at OpenAI; other providers get their own endpoint.
	if cfg.Provider != "openai" && (cfg.BaseURL == "" || cfg.BaseURL == profile.Default().LLMBaseURL) {
		if url, ok := defaultBaseURLs[cfg.Provider]; ok {
			cfg.BaseURL = url
		}
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}

	return cfg
}

// Validate validates the configuration.
func (c *LLMConfig) Validate() error {
	if c.Provider == "" {
		return errors.New("LLM provider is required")
	}
	if _, ok := defaultBaseURLs[c.Provider]; !ok {
		return errors.New("unsupported LLM provider: " + c.Provider)
	}
	if c.Model == "" {
		return errors.New("LLM model is required")
	}
	if c.Provider != "ollama" && c.APIKey == "" {
		return errors.New("LLM API key is required")
	}
	if c.RateLimit < 0 {
		return errors.New("LLM rate limit must not be negative")
	}
	return nil
}
