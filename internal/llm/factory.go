package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/trustlens/internal/model"
)

// Groq serves an OpenAI-compatible API
const (
	GroqBaseURL      = "https://api.groq.com/openai/v1"
	DefaultGroqModel = "llama-3.1-8b-instant"
)

// NewProvider builds the provider named by config.Provider. An empty name
// disables the LLM and returns a nil provider.
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "":
		return nil, nil
	case "groq":
		return newGroq(config)
	case "openai":
		return NewOpenAIProvider(config)
	case "anthropic", "claude":
		return NewAnthropicProvider(config)
	case "ollama":
		return NewOllamaProvider(config)
	}
	return nil, fmt.Errorf("unknown LLM provider %q (supported: groq, openai, anthropic, ollama)", config.Provider)
}

func newGroq(config Config) (*OpenAIProvider, error) {
	if config.BaseURL == "" {
		config.BaseURL = GroqBaseURL
	}
	if config.Model == "" {
		config.Model = DefaultGroqModel
	}
	p, err := NewOpenAIProvider(config)
	if err != nil {
		return nil, err
	}
	p.name = "groq"
	return p, nil
}

// ConfigFromModel converts model.Config to llm.Config
func ConfigFromModel(cfg *model.Config) Config {
	return Config{
		Provider:   cfg.LLM.Provider,
		Model:      cfg.LLM.Model,
		APIKey:     cfg.LLM.APIKey,
		BaseURL:    cfg.LLM.BaseURL,
		Timeout:    cfg.LLM.Timeout,
		MaxTokens:  DefaultConfig().MaxTokens,
		HTTPProxy:  cfg.HTTP.HTTPProxy,
		HTTPSProxy: cfg.HTTP.HTTPSProxy,
		NoProxy:    cfg.HTTP.NoProxy,
	}
}
