package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/trustlens/internal/extract"
	"github.com/ppiankov/trustlens/internal/metrics"
)

// Chat prompt limits
const (
	AssetTextChars  = 4000
	ExcerptChars    = 1200
	HistoryTurns    = 8
	HistoryChars    = 2000
	QuestionChars   = 2500
	ChatTemperature = 0.2
)

const assistantSystem = "You are TrustLens Assistant. Answer clearly and operationally. " +
	"If file context is attached, prioritize it. If evidence is insufficient, say what is missing."

// answer origins for metrics
const (
	originLLM      = "llm"
	originFallback = "fallback"
)

// ErrEmptyQuestion is returned when a chat request has no question
var ErrEmptyQuestion = errors.New("question is required")

// Mode selects the assistant persona requested by the front-end
type Mode string

const (
	ModeLegal      Mode = "legal"
	ModeCompliance Mode = "compliance"
	ModeTruthDesk  Mode = "truthdesk"
)

// Asset is file context attached to a chat question
type Asset struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	Summary       string `json:"summary"`
	ExtractedText string `json:"extracted_text"`
}

// Turn is one prior exchange in the chat history
type Turn struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content"`
}

// AskRequest is the chat endpoint input
type AskRequest struct {
	Mode          Mode   `json:"mode" binding:"required,oneof=legal compliance truthdesk"`
	Question      string `json:"question"`
	SelectedAsset *Asset `json:"selected_asset"`
	History       []Turn `json:"history" binding:"omitempty,dive"`
}

// Answer is the chat endpoint output
type Answer struct {
	Answer    string `json:"answer"`
	UsedAsset bool   `json:"used_asset"`
}

// Assistant answers questions about attached files. Without a provider, or
// when the provider fails, it answers from a fixed template.
type Assistant struct {
	provider Provider
	logger   *zap.Logger
}

// NewAssistant creates an assistant; provider may be nil
func NewAssistant(provider Provider, logger *zap.Logger) *Assistant {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Assistant{provider: provider, logger: logger}
}

// Ask answers a chat request. The only error is ErrEmptyQuestion.
func (a *Assistant) Ask(ctx context.Context, req AskRequest) (*Answer, error) {
	if extract.Normalize(req.Question) == "" {
		return nil, ErrEmptyQuestion
	}

	answer := &Answer{UsedAsset: req.SelectedAsset != nil}

	if a.provider != nil {
		resp, err := a.provider.Chat(ctx, ChatRequest{
			Messages:    BuildMessages(req),
			Temperature: ChatTemperature,
		})
		switch {
		case err != nil:
			a.logger.Debug("chat provider failed",
				zap.String("provider", a.provider.Name()),
				zap.Error(err))
		case extract.Normalize(resp.Content) != "":
			answer.Answer = extract.Normalize(resp.Content)
			metrics.ChatAnswers.WithLabelValues(string(req.Mode), originLLM).Inc()
			return answer, nil
		}
	}

	answer.Answer = FallbackAnswer(req)
	metrics.ChatAnswers.WithLabelValues(string(req.Mode), originFallback).Inc()
	return answer, nil
}

// BuildMessages assembles the provider conversation for a chat request
func BuildMessages(req AskRequest) []Message {
	messages := []Message{{Role: RoleSystem, Content: assistantSystem}}

	if asset := req.SelectedAsset; asset != nil {
		messages = append(messages, Message{
			Role: RoleSystem,
			Content: fmt.Sprintf("Attached file: %s (%s)\nSummary: %s\nExtracted text:\n%s",
				asset.Name, asset.Type, asset.Summary,
				extract.Truncate(extract.Normalize(asset.ExtractedText), AssetTextChars)),
		})
	}

	history := req.History
	if len(history) > HistoryTurns {
		history = history[len(history)-HistoryTurns:]
	}
	for _, turn := range history {
		messages = append(messages, Message{
			Role:    turn.Role,
			Content: extract.Truncate(extract.Normalize(turn.Content), HistoryChars),
		})
	}

	return append(messages, Message{
		Role:    RoleUser,
		Content: extract.Truncate(extract.Normalize(req.Question), QuestionChars),
	})
}

// FallbackAnswer is the templated answer used when no provider replies
func FallbackAnswer(req AskRequest) string {
	q := extract.Normalize(req.Question)

	asset := req.SelectedAsset
	if asset == nil {
		return "Question: " + q + "\n\n" +
			"Fallback response: No file attached. Use From Files to attach document/image context, " +
			"then ask targeted questions."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Attached file: %s (%s) | %s\n\nQuestion: %s\n\n", asset.Name, asset.Type, asset.Summary, q)

	excerpt := extract.Normalize(extract.Truncate(asset.ExtractedText, ExcerptChars))
	if excerpt != "" {
		fmt.Fprintf(&b, "Context excerpt:\n%s\n\n", excerpt)
		b.WriteString("Fallback response: Backend received your file context. Configure Groq to generate full semantic answers.")
		return b.String()
	}

	b.WriteString("Fallback response: File metadata received. Configure Groq to answer deeply using extracted content.")
	return b.String()
}
