package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/trustlens/internal/fetch/fetchtest"
	"github.com/ppiankov/trustlens/internal/model"
)

const testClaim = "The apollo mission made a lunar landing"

func testConfig(workers int) *model.Config {
	cfg := model.DefaultConfig()
	cfg.Backends.ReaderURL = "https://reader.test/"
	cfg.Backends.FeedURL = "https://feed.test/rss/search"
	cfg.Backends.InstantAnswerURL = "https://instant.test/"
	cfg.Backends.EncyclopediaAPI = "https://enc.test/w/api.php"
	cfg.Backends.EncyclopediaWiki = "https://enc.test/wiki/"
	cfg.Backends.ImageSearchURLs = []string{"https://images.test/search?q="}
	cfg.Crawl.Workers = workers
	cfg.RateLimiting.RequestsPerSecond = 1000
	cfg.RateLimiting.BurstSize = 1000
	return cfg
}

func articlePage(i int) string {
	sentence := "Mission control confirmed the apollo mission made a lunar landing on schedule."
	if i%4 == 0 {
		sentence = "Researchers argue the apollo mission lunar landing story is a hoax."
	}
	return "<html><head><title>t</title><script>var x = 1;</script></head><body><article><p>" +
		strings.Repeat(sentence+" ", 5) +
		"</p></article></body></html>"
}

// frozenWeb serves a fixed set of collaborator responses: every feed search
// returns the same forty articles
func frozenWeb(articles int) *fetchtest.Transport {
	tr := fetchtest.New()

	var items strings.Builder
	for i := 0; i < articles; i++ {
		fmt.Fprintf(&items, "<item><title>%d</title><link>https://www.site%d.org/story/</link></item>", i, i)
	}
	rss := `<?xml version="1.0"?><rss version="2.0"><channel>` + items.String() + `</channel></rss>`

	tr.HandlePrefix("https://feed.test/", func(*http.Request) fetchtest.Route {
		return fetchtest.Route{Status: http.StatusOK, ContentType: "application/rss+xml", Body: rss}
	})
	tr.HandlePrefix("https://instant.test/", func(*http.Request) fetchtest.Route {
		return fetchtest.JSON(`{"AbstractURL":"","RelatedTopics":[]}`)
	})
	tr.HandlePrefix("https://enc.test/w/api.php", func(*http.Request) fetchtest.Route {
		return fetchtest.JSON(`{"query":{"search":[]}}`)
	})
	for i := 0; i < articles; i++ {
		tr.Handle(fmt.Sprintf("https://site%d.org/story", i), fetchtest.HTML(articlePage(i)))
	}
	return tr
}

func TestCheck_MissingInput(t *testing.T) {
	p := NewPipeline(testConfig(4), WithHTTPClient(fetchtest.New().Client()))

	_, err := p.Check(context.Background(), model.RunRequest{Claim: "   ", Context: "ctx"})
	if !errors.Is(err, ErrMissingInput) {
		t.Fatalf("expected ErrMissingInput, got %v", err)
	}
}

func TestCheck_EndToEnd(t *testing.T) {
	tr := frozenWeb(40)
	p := NewPipeline(testConfig(8), WithHTTPClient(tr.Client()))

	report, err := p.Check(context.Background(), model.RunRequest{Claim: testClaim, InputType: "url"})
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}

	if report.SourceCount != MaxSources || len(report.Sources) != MaxSources {
		t.Fatalf("expected %d sources, got %d", MaxSources, report.SourceCount)
	}
	if report.Sources[0].URL != "https://site0.org/story" || report.Sources[0].Title != "site0.org" {
		t.Errorf("unexpected first source %+v", report.Sources[0])
	}

	support, oppose, _ := report.StanceCounts()
	if support != 26 || oppose != 9 {
		t.Errorf("expected 26 supporting and 9 opposing, got %d/%d", support, oppose)
	}
	if report.Verdict != model.VerdictMostlyTrue || report.Confidence != 76 {
		t.Errorf("verdict = %s/%d, want Mostly True/76", report.Verdict, report.Confidence)
	}
	if len(report.Table) != len(report.SubClaims) || len(report.Table) == 0 {
		t.Errorf("table rows %d, sub-claims %d", len(report.Table), len(report.SubClaims))
	}
	if len(report.Recommendations) != MaxRecommendations {
		t.Errorf("expected %d recommendations, got %d", MaxRecommendations, len(report.Recommendations))
	}
	if report.RunID == "" {
		t.Error("expected a run ID")
	}

	wantPrefixes := []string{
		"Decomposer: generated",
		"Planner: generated 12 diverse queries.",
		"Searcher: collected 40 candidate links.",
		"Browser chain: processed 35 quality sources.",
		"Critic: total sources after pivot 35.",
		"Synthesizer: verdict Mostly True at confidence 76%.",
		"Total runtime ",
	}
	if len(report.Timeline) != len(wantPrefixes) {
		t.Fatalf("timeline = %v", report.Timeline)
	}
	for i, prefix := range wantPrefixes {
		if !strings.HasPrefix(report.Timeline[i], prefix) {
			t.Errorf("timeline[%d] = %q, want prefix %q", i, report.Timeline[i], prefix)
		}
	}

	if tr.Calls("https://site0.org/story") != 1 {
		t.Errorf("expected one direct fetch per candidate, got %d", tr.Calls("https://site0.org/story"))
	}
}

func TestCheck_ThinEvidence(t *testing.T) {
	p := NewPipeline(testConfig(4), WithHTTPClient(frozenWeb(12).Client()))

	report, err := p.Check(context.Background(), model.RunRequest{Claim: testClaim})
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if report.SourceCount != 12 {
		t.Fatalf("expected 12 sources, got %d", report.SourceCount)
	}
	if report.Verdict != model.VerdictUnverifiable || report.Confidence != 38 {
		t.Errorf("verdict = %s/%d, want Unverifiable/38", report.Verdict, report.Confidence)
	}

	escalated := false
	for _, entry := range report.Timeline {
		if entry == "Shallow / circular results. Pivoting to new angles:" {
			escalated = true
		}
	}
	if !escalated {
		t.Errorf("expected the critic to escalate: %v", report.Timeline)
	}
	if len(report.Gaps) == 0 || report.Gaps[0] != "Thin source depth (<30 sources) after chaining." {
		t.Errorf("unexpected gaps %v", report.Gaps)
	}
}

func TestCheck_Deterministic(t *testing.T) {
	var reports []*model.Report
	for _, workers := range []int{1, 8, 16} {
		p := NewPipeline(testConfig(workers), WithHTTPClient(frozenWeb(40).Client()))
		for run := 0; run < 2; run++ {
			report, err := p.Check(context.Background(), model.RunRequest{Claim: testClaim})
			if err != nil {
				t.Fatalf("Check failed: %v", err)
			}
			reports = append(reports, report)
		}
	}

	first := reports[0]
	for i, r := range reports[1:] {
		if r.Verdict != first.Verdict || r.Confidence != first.Confidence {
			t.Errorf("run %d: verdict %s/%d differs from %s/%d", i+1, r.Verdict, r.Confidence, first.Verdict, first.Confidence)
		}
		if !reflect.DeepEqual(r.Table, first.Table) {
			t.Errorf("run %d: table differs", i+1)
		}
		if !reflect.DeepEqual(r.Sources, first.Sources) {
			t.Errorf("run %d: sources differ", i+1)
		}
	}
}

func TestCheck_SourceURLOnly(t *testing.T) {
	tr := frozenWeb(0)
	tr.Handle("https://reader.test/http://example.com/article", fetchtest.Text(
		"Breaking: the apollo mission made a lunar landing, according to agency records. "+
			"Engineers described the landing site in detail."))

	p := NewPipeline(testConfig(4), WithHTTPClient(tr.Client()))
	report, err := p.Check(context.Background(), model.RunRequest{SourceURL: "https://example.com/article"})
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if !strings.HasPrefix(report.Claim, "Breaking: the apollo mission") {
		t.Errorf("expected the claim to come from the anchor page, got %q", report.Claim)
	}
	if report.Verdict != model.VerdictUnverifiable {
		t.Errorf("expected Unverifiable, got %s", report.Verdict)
	}
}

func TestBlocklist(t *testing.T) {
	p := NewPipeline(testConfig(1))
	blocked := p.Blocklist()

	for _, u := range []string{"https://feed.test/x", "https://reader.test/y", "https://instant.test/", "https://images.test/", "https://google.com/"} {
		if !blocked.Blocked(u) {
			t.Errorf("%s should be blocked", u)
		}
	}
	if blocked.Blocked("https://enc.test/wiki/Apollo_11") {
		t.Error("encyclopedia articles must stay allowed")
	}
}

func TestFinalize(t *testing.T) {
	rc := &model.RunContext{
		SourceURL:  "https://example.com/a",
		Verdict:    model.VerdictMostlyTrue,
		Confidence: 76,
		SubClaims:  make([]string, 10),
		Timeline:   []string{"Synthesizer: verdict Mostly True at confidence 76%."},
	}
	for i := 0; i < 20; i++ {
		rc.Sources = append(rc.Sources, model.Source{URL: fmt.Sprintf("https://s%d.org/", i)})
	}
	for i := 0; i < 12; i++ {
		rc.Recommendations = append(rc.Recommendations, model.Recommendation{URL: fmt.Sprintf("https://s%d.org/", i)})
	}

	report := Finalize(rc, 1500*time.Millisecond)

	if report.Claim != "https://example.com/a" {
		t.Errorf("claim = %q", report.Claim)
	}
	if report.Verdict != model.VerdictUnverifiable || report.Confidence != 45 {
		t.Errorf("verdict = %s/%d, want Unverifiable/45", report.Verdict, report.Confidence)
	}
	if len(report.SubClaims) != MaxSubClaims || len(report.Recommendations) != MaxRecommendations {
		t.Errorf("caps not applied: %d sub-claims, %d recommendations", len(report.SubClaims), len(report.Recommendations))
	}
	if last := report.Timeline[len(report.Timeline)-1]; last != "Total runtime 1500 ms." {
		t.Errorf("last timeline entry = %q", last)
	}
	if len(rc.Timeline) != 1 {
		t.Error("Finalize must not modify the run timeline")
	}
	if report.Gaps == nil || report.Table == nil {
		t.Error("empty lists must not be nil")
	}
}

func TestRenderer(t *testing.T) {
	report := &model.Report{
		Claim:       "a | b",
		Verdict:     model.VerdictMixed,
		Confidence:  62,
		SourceCount: 1,
		Sources: []model.Source{{
			Title: "nasa.gov", URL: "https://nasa.gov/a", Quality: model.QualityHigh,
			Stance: model.StanceSupport, Quote: "It was confirmed.", Backend: model.BackendWeb,
		}},
		Table: []model.SubClaimVerdict{{
			SubClaim: "x | y", Verdict: model.VerdictMixed, Supporting: 2, Opposing: 1,
			StrongestLinks: []string{"https://nasa.gov/a"},
		}},
		Gaps:            []string{},
		Recommendations: []model.Recommendation{},
		SubClaims:       []string{"x | y"},
		Timeline:        []string{"Total runtime 5 ms."},
	}
	r := NewRenderer(true)

	md := r.Markdown(report)
	for _, want := range []string{"**Verdict:** Mixed (62% confidence)", "| x \\| y | Mixed | 2 | 1 |", "> It was confirmed.", "Generated by TrustLens"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}

	path := filepath.Join(t.TempDir(), "report.json")
	if err := r.RenderJSON(report, path); err != nil {
		t.Fatalf("RenderJSON: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded["source_count"].(float64) != 1 {
		t.Errorf("unexpected source_count %v", decoded["source_count"])
	}
	if _, ok := decoded["gaps"].([]any); !ok {
		t.Errorf("gaps should be a list, got %T", decoded["gaps"])
	}
	src := decoded["sources"].([]any)[0].(map[string]any)
	if src["source"] != "web" {
		t.Errorf("expected backend under the source key, got %v", src["source"])
	}
	if _, ok := decoded["RunID"]; ok {
		t.Error("run ID must not be serialized")
	}
}
