package llm

import (
	"testing"

	"github.com/ppiankov/trustlens/internal/model"
)

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		wantName string
		wantNil  bool
		wantErr  bool
	}{
		{name: "disabled", config: Config{}, wantNil: true},
		{name: "groq", config: Config{Provider: "groq", APIKey: "k"}, wantName: "groq"},
		{name: "openai", config: Config{Provider: "OpenAI", APIKey: "k"}, wantName: "openai"},
		{name: "claude alias", config: Config{Provider: "claude", APIKey: "k"}, wantName: "anthropic"},
		{name: "ollama", config: Config{Provider: "ollama"}, wantName: "ollama"},
		{name: "groq without key", config: Config{Provider: "groq"}, wantErr: true},
		{name: "unknown", config: Config{Provider: "mystery"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.config)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.wantNil {
				if p != nil {
					t.Fatalf("expected nil provider, got %s", p.Name())
				}
				return
			}
			if p.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", p.Name(), tt.wantName)
			}
		})
	}
}

func TestNewProvider_GroqDefaults(t *testing.T) {
	p, err := NewProvider(Config{Provider: "groq", APIKey: "k"})
	if err != nil {
		t.Fatal(err)
	}
	op := p.(*OpenAIProvider)
	if op.config.Model != DefaultGroqModel {
		t.Errorf("model = %q, want %q", op.config.Model, DefaultGroqModel)
	}
	if op.config.BaseURL != GroqBaseURL {
		t.Errorf("base url = %q, want %q", op.config.BaseURL, GroqBaseURL)
	}
}

func TestConfigFromModel(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.LLM.Provider = "groq"
	cfg.LLM.APIKey = "secret"
	cfg.HTTP.HTTPSProxy = "http://proxy:3128"

	got := ConfigFromModel(cfg)
	if got.Provider != "groq" || got.APIKey != "secret" {
		t.Errorf("unexpected provider settings: %+v", got)
	}
	if got.Timeout != 45 {
		t.Errorf("Timeout = %d, want 45", got.Timeout)
	}
	if got.HTTPSProxy != "http://proxy:3128" {
		t.Errorf("HTTPSProxy = %q", got.HTTPSProxy)
	}
}
