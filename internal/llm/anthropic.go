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

const (
	defaultAnthropicURL   = "https://api.anthropic.com"
	defaultAnthropicModel = "claude-3-5-haiku-20241022"
	anthropicVersion      = "2023-06-01"
)

// AnthropicProvider calls the Anthropic Messages API
type AnthropicProvider struct {
	endpoint string
	header   http.Header
	client   *http.Client
	config   Config
}

type anthropicTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicMessages struct {
	Model       string          `json:"model"`
	System      string          `json:"system,omitempty"`
	Messages    []anthropicTurn `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float32         `json:"temperature,omitempty"`
}

type anthropicBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicReply struct {
	Model   string           `json:"model"`
	Content []anthropicBlock `json:"content"`
	Usage   struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// NewAnthropicProvider creates a Messages API provider. An API key is
// required.
func NewAnthropicProvider(config Config) (*AnthropicProvider, error) {
	if config.APIKey == "" {
		return nil, errors.New("anthropic API key is required")
	}
	base := config.BaseURL
	if base == "" {
		base = defaultAnthropicURL
	}

	header := http.Header{}
	header.Set("x-api-key", config.APIKey)
	header.Set("anthropic-version", anthropicVersion)

	return &AnthropicProvider{
		endpoint: strings.TrimRight(base, "/") + "/v1/messages",
		header:   header,
		client:   config.httpClient(config.timeout(30 * time.Second)),
		config:   config,
	}, nil
}

func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// Chat sends the conversation with every system message folded into the
// request's system field
func (p *AnthropicProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	system, turns := splitSystem(req.Messages)
	in := anthropicMessages{
		Model:       firstModel(req.Model, p.config.Model, defaultAnthropicModel),
		System:      system,
		MaxTokens:   p.config.maxTokens(req.MaxTokens),
		Temperature: req.Temperature,
	}
	for _, m := range turns {
		in.Messages = append(in.Messages, anthropicTurn(m))
	}

	var out anthropicReply
	if err := postJSON(ctx, p.client, p.endpoint, p.header, in, &out, explainAnthropic); err != nil {
		return nil, fmt.Errorf("anthropic API error: %w", err)
	}

	var text strings.Builder
	for _, b := range out.Content {
		if b.Type == "text" {
			text.WriteString(b.Text)
		}
	}
	if text.Len() == 0 {
		return nil, errors.New("no text in anthropic response")
	}

	return &ChatResponse{
		Content:    strings.TrimSpace(text.String()),
		Model:      out.Model,
		TokensUsed: out.Usage.InputTokens + out.Usage.OutputTokens,
	}, nil
}

// explainAnthropic renders {"error":{"type":...,"message":...}} bodies
func explainAnthropic(body []byte) string {
	var e struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &e) != nil || e.Error.Type == "" {
		return ""
	}
	return e.Error.Type + " - " + e.Error.Message
}
