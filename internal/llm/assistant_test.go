package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeProvider struct {
	reply string
	err   error
	got   ChatRequest
	calls int
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	f.calls++
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &ChatResponse{Content: f.reply}, nil
}

func TestFallbackAnswer(t *testing.T) {
	tests := []struct {
		name string
		req  AskRequest
		want string
	}{
		{
			name: "no asset",
			req:  AskRequest{Mode: ModeTruthDesk, Question: "  is   this real? "},
			want: "Question: is this real?\n\nFallback response: No file attached. Use From Files to attach document/image context, then ask targeted questions.",
		},
		{
			name: "asset metadata only",
			req: AskRequest{
				Mode:          ModeLegal,
				Question:      "what is the term?",
				SelectedAsset: &Asset{ID: "1", Name: "nda.pdf", Type: "document", Summary: "Mutual NDA"},
			},
			want: "Attached file: nda.pdf (document) | Mutual NDA\n\nQuestion: what is the term?\n\nFallback response: File metadata received. Configure Groq to answer deeply using extracted content.",
		},
		{
			name: "asset with excerpt",
			req: AskRequest{
				Mode:     ModeCompliance,
				Question: "retention?",
				SelectedAsset: &Asset{
					Name: "policy.txt", Type: "document", Summary: "Data policy",
					ExtractedText: "Records are kept\n\nfor seven years.",
				},
			},
			want: "Attached file: policy.txt (document) | Data policy\n\nQuestion: retention?\n\nContext excerpt:\nRecords are kept for seven years.\n\nFallback response: Backend received your file context. Configure Groq to generate full semantic answers.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FallbackAnswer(tt.req); got != tt.want {
				t.Errorf("FallbackAnswer() =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestFallbackAnswer_ExcerptCap(t *testing.T) {
	req := AskRequest{
		Question:      "q",
		SelectedAsset: &Asset{Name: "a", Type: "image", Summary: "s", ExtractedText: strings.Repeat("x", 5000)},
	}
	got := FallbackAnswer(req)
	if strings.Contains(got, strings.Repeat("x", ExcerptChars+1)) {
		t.Error("excerpt exceeds cap")
	}
	if !strings.Contains(got, strings.Repeat("x", ExcerptChars)) {
		t.Error("excerpt shorter than cap")
	}
}

func TestBuildMessages(t *testing.T) {
	var history []Turn
	for i := 0; i < 10; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		history = append(history, Turn{Role: role, Content: strings.Repeat("h", 3000)})
	}
	history[9].Content = "last"

	req := AskRequest{
		Mode:          ModeLegal,
		Question:      strings.Repeat("q", 3000),
		SelectedAsset: &Asset{Name: "c.pdf", Type: "document", Summary: "Contract", ExtractedText: strings.Repeat("t", 5000)},
		History:       history,
	}

	msgs := BuildMessages(req)
	// system + asset + 8 history + question
	if len(msgs) != 11 {
		t.Fatalf("len = %d, want 11", len(msgs))
	}
	if msgs[0].Role != RoleSystem || !strings.HasPrefix(msgs[0].Content, "You are TrustLens Assistant.") {
		t.Errorf("unexpected system prompt: %+v", msgs[0])
	}
	wantAsset := "Attached file: c.pdf (document)\nSummary: Contract\nExtracted text:\n" + strings.Repeat("t", AssetTextChars)
	if msgs[1].Role != RoleSystem || msgs[1].Content != wantAsset {
		t.Errorf("unexpected asset message (len %d)", len(msgs[1].Content))
	}
	if msgs[2].Role != RoleUser || len(msgs[2].Content) != HistoryChars {
		t.Errorf("history should start at turn 2 and be capped: role=%s len=%d", msgs[2].Role, len(msgs[2].Content))
	}
	if msgs[9].Content != "last" || msgs[9].Role != RoleAssistant {
		t.Errorf("last history turn = %+v", msgs[9])
	}
	if msgs[10].Role != RoleUser || len(msgs[10].Content) != QuestionChars {
		t.Errorf("question message: role=%s len=%d", msgs[10].Role, len(msgs[10].Content))
	}
}

func TestBuildMessages_NoAsset(t *testing.T) {
	msgs := BuildMessages(AskRequest{Question: "hello"})
	if len(msgs) != 2 {
		t.Fatalf("len = %d, want 2", len(msgs))
	}
	if msgs[1].Content != "hello" {
		t.Errorf("question = %q", msgs[1].Content)
	}
}

func TestAssistant_Ask(t *testing.T) {
	asset := &Asset{Name: "a.png", Type: "image", Summary: "chart"}

	t.Run("empty question", func(t *testing.T) {
		a := NewAssistant(nil, nil)
		if _, err := a.Ask(context.Background(), AskRequest{Mode: ModeLegal, Question: "  \n"}); !errors.Is(err, ErrEmptyQuestion) {
			t.Fatalf("err = %v, want ErrEmptyQuestion", err)
		}
	})

	t.Run("provider answer", func(t *testing.T) {
		p := &fakeProvider{reply: " The chart shows growth. "}
		a := NewAssistant(p, nil)
		ans, err := a.Ask(context.Background(), AskRequest{Mode: ModeTruthDesk, Question: "trend?", SelectedAsset: asset})
		if err != nil {
			t.Fatal(err)
		}
		if ans.Answer != "The chart shows growth." || !ans.UsedAsset {
			t.Errorf("unexpected answer: %+v", ans)
		}
		if p.got.Temperature != ChatTemperature {
			t.Errorf("temperature = %v", p.got.Temperature)
		}
	})

	t.Run("provider error falls back", func(t *testing.T) {
		p := &fakeProvider{err: errors.New("boom")}
		a := NewAssistant(p, nil)
		req := AskRequest{Mode: ModeLegal, Question: "trend?"}
		ans, err := a.Ask(context.Background(), req)
		if err != nil {
			t.Fatal(err)
		}
		if ans.Answer != FallbackAnswer(req) || ans.UsedAsset {
			t.Errorf("unexpected answer: %+v", ans)
		}
	})

	t.Run("empty reply falls back", func(t *testing.T) {
		p := &fakeProvider{reply: "   "}
		a := NewAssistant(p, nil)
		req := AskRequest{Mode: ModeCompliance, Question: "trend?", SelectedAsset: asset}
		ans, err := a.Ask(context.Background(), req)
		if err != nil {
			t.Fatal(err)
		}
		if ans.Answer != FallbackAnswer(req) {
			t.Errorf("unexpected answer: %+v", ans)
		}
		if p.calls != 1 {
			t.Errorf("calls = %d, want 1", p.calls)
		}
	})
}
