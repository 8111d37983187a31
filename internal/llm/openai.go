package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider calls the Chat Completions API of OpenAI or of any
// compatible endpoint such as Groq
type OpenAIProvider struct {
	client *openai.Client
	config Config
	name   string
}

// NewOpenAIProvider creates a Chat Completions provider. An API key is
// required.
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, errors.New("openai API key is required")
	}

	cc := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		cc.BaseURL = config.BaseURL
	}
	cc.HTTPClient = config.httpClient(config.timeout(30 * time.Second))

	return &OpenAIProvider{client: openai.NewClientWithConfig(cc), config: config, name: "openai"}, nil
}

func (p *OpenAIProvider) Name() string {
	return p.name
}

func (p *OpenAIProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, p.config.timeout(30*time.Second))
	defer cancel()

	in := openai.ChatCompletionRequest{
		Model:       firstModel(req.Model, p.config.Model, openai.GPT4oMini),
		Messages:    make([]openai.ChatCompletionMessage, len(req.Messages)),
		MaxTokens:   p.config.maxTokens(req.MaxTokens),
		Temperature: req.Temperature,
	}
	for i, m := range req.Messages {
		in.Messages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	out, err := p.client.CreateChatCompletion(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("%s API error: %w", p.name, err)
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("no response from %s", p.name)
	}

	return &ChatResponse{
		Content:    strings.TrimSpace(out.Choices[0].Message.Content),
		Model:      out.Model,
		TokensUsed: out.Usage.TotalTokens,
	}, nil
}
