package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestOpenAIProvider_Chat(t *testing.T) {
	rp := &replay{body: `{"id":"chatcmpl-1","model":"llama-3.1-8b-instant",
		"choices":[{"index":0,"message":{"role":"assistant","content":"  The clause caps liability at fees paid.  "},"finish_reason":"stop"}],
		"usage":{"total_tokens":100}}`}
	base := rp.start(t)

	provider, err := NewOpenAIProvider(Config{APIKey: "test-key", BaseURL: base, Model: "llama-3.1-8b-instant", Timeout: 5})
	if err != nil {
		t.Fatal(err)
	}

	resp, err := provider.Chat(context.Background(), ChatRequest{
		Messages: []Message{
			{Role: RoleSystem, Content: "be brief"},
			{Role: RoleUser, Content: "what is capped?"},
		},
		Temperature: 0.2,
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}

	if resp.Content != "The clause caps liability at fees paid." || resp.TokensUsed != 100 {
		t.Errorf("unexpected response %+v", resp)
	}
	if rp.path != "/chat/completions" {
		t.Errorf("path = %s", rp.path)
	}
	if rp.header.Get("Authorization") != "Bearer test-key" {
		t.Errorf("Authorization = %q", rp.header.Get("Authorization"))
	}
	if rp.sent["model"] != "llama-3.1-8b-instant" || rp.sent["max_tokens"] != float64(1000) {
		t.Errorf("request = %v", rp.sent)
	}
	if turns, _ := rp.sent["messages"].([]any); len(turns) != 2 {
		t.Errorf("messages = %v", rp.sent["messages"])
	}
}

func TestOpenAIProvider_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{"error": {"message": "nope", "type": "server_error"}}`},
		{"rate limited", http.StatusTooManyRequests, `{"error": {"message": "slow", "type": "rate_limit"}}`},
		{"malformed reply", http.StatusOK, `{malformed json`},
		{"no choices", http.StatusOK, `{"id":"x","choices":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rp := &replay{status: tt.status, body: tt.body}
			provider, err := NewOpenAIProvider(Config{APIKey: "k", BaseURL: rp.start(t), Timeout: 5})
			if err != nil {
				t.Fatal(err)
			}
			if _, err := provider.Chat(context.Background(), hello); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestOpenAIProvider_CallerDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{APIKey: "k", BaseURL: server.URL, Timeout: 5})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := provider.Chat(ctx, hello); err == nil {
		t.Fatal("expected deadline error")
	}
}

func TestNewOpenAIProvider_RequiresKey(t *testing.T) {
	if _, err := NewOpenAIProvider(Config{}); err == nil {
		t.Fatal("expected error without API key")
	}
}
