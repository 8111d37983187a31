package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultOllamaURL = "http://localhost:11434"

// ErrOllamaModel is returned when no local model name is configured
var ErrOllamaModel = errors.New("ollama model must be specified (e.g. llama3.1:8b)")

// OllamaProvider talks to a local Ollama server's chat endpoint
type OllamaProvider struct {
	endpoint string
	client   *http.Client
	config   Config
}

type ollamaTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChat struct {
	Model    string       `json:"model"`
	Messages []ollamaTurn `json:"messages"`
	Stream   bool         `json:"stream"`
	Options  struct {
		Temperature float32 `json:"temperature,omitempty"`
		NumPredict  int     `json:"num_predict,omitempty"`
	} `json:"options"`
}

type ollamaReply struct {
	Model           string     `json:"model"`
	Message         ollamaTurn `json:"message"`
	PromptEvalCount int        `json:"prompt_eval_count"`
	EvalCount       int        `json:"eval_count"`
}

// NewOllamaProvider creates a provider for a local Ollama server. Local
// models answer slowly, so the default timeout is longer.
func NewOllamaProvider(config Config) (*OllamaProvider, error) {
	base := config.BaseURL
	if base == "" {
		base = defaultOllamaURL
	}
	return &OllamaProvider{
		endpoint: strings.TrimRight(base, "/") + "/api/chat",
		client:   config.httpClient(config.timeout(60 * time.Second)),
		config:   config,
	}, nil
}

func (p *OllamaProvider) Name() string {
	return "ollama"
}

// Chat runs one non-streaming chat completion
func (p *OllamaProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	in := ollamaChat{Model: firstModel(req.Model, p.config.Model)}
	if in.Model == "" {
		return nil, ErrOllamaModel
	}
	for _, m := range req.Messages {
		in.Messages = append(in.Messages, ollamaTurn(m))
	}
	in.Options.Temperature = req.Temperature
	in.Options.NumPredict = p.config.maxTokens(req.MaxTokens)

	var out ollamaReply
	explain := func(body []byte) string {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(body, &e)
		return e.Error
	}
	if err := postJSON(ctx, p.client, p.endpoint, nil, in, &out, explain); err != nil {
		return nil, fmt.Errorf("ollama API error: %w", err)
	}

	content := strings.TrimSpace(out.Message.Content)
	tokens := out.PromptEvalCount + out.EvalCount
	if tokens == 0 {
		// about 4 characters per token
		tokens = len(content) / 4
	}
	return &ChatResponse{Content: content, Model: out.Model, TokensUsed: tokens}, nil
}
