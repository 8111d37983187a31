package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/trustlens/internal/cache"
	"github.com/ppiankov/trustlens/internal/fetch/fetchtest"
	"github.com/ppiankov/trustlens/internal/model"
	"github.com/ppiankov/trustlens/internal/util"
	"github.com/ppiankov/trustlens/internal/worker"
)

const readerBase = "https://reader.test/"

func newTestFetcher(tr *fetchtest.Transport) *Fetcher {
	cfg := model.DefaultConfig()
	return New(Options{
		Client:    tr.Client(),
		HTTP:      cfg.HTTP,
		ReaderURL: readerBase,
		Limiter:   worker.NewLimiter(1000, 1000),
		Cache:     cache.NewRunCache(time.Minute),
	})
}

func TestGetRaw(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("expected a User-Agent header")
		}
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>OK</body></html>"))
	}))
	defer server.Close()

	f := New(Options{Client: server.Client(), HTTP: model.DefaultConfig().HTTP})

	resp, err := f.GetRaw(context.Background(), server.URL, time.Second)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if string(resp.Body) != "<html><body>OK</body></html>" {
		t.Errorf("Unexpected body: %s", resp.Body)
	}

	_, err = f.GetRaw(context.Background(), server.URL+"/missing", time.Second)
	if err == nil || err.Error() != "unexpected status: 404" {
		t.Errorf("Expected 404 error, got %v", err)
	}
}

func TestGetRaw_Timeout(t *testing.T) {
	tr := fetchtest.New()
	slow := fetchtest.Text("late")
	slow.Delay = time.Second
	tr.Handle("https://slow.test/", slow)

	f := newTestFetcher(tr)
	start := time.Now()
	_, err := f.GetRaw(context.Background(), "https://slow.test/", 20*time.Millisecond)
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Errorf("timeout not honoured: %v", time.Since(start))
	}
}

func TestGetRaw_BodyLimit(t *testing.T) {
	tr := fetchtest.New()
	tr.Handle("https://big.test/", fetchtest.Text(strings.Repeat("x", 100)))

	cfg := model.DefaultConfig().HTTP
	cfg.MaxBodyBytes = 10
	f := New(Options{Client: tr.Client(), HTTP: cfg})

	resp, err := f.GetRaw(context.Background(), "https://big.test/", time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Body) != 10 {
		t.Errorf("body length = %d, want 10", len(resp.Body))
	}
}

func TestDirect_HTML(t *testing.T) {
	tr := fetchtest.New()
	tr.Handle("https://example.com/story", fetchtest.HTML(`<html><body>
		<script>ignored()</script>
		<p>The ministry confirmed the figures on Monday.</p>
		<a href="/related">Related</a>
		<p>Mirror at https://mirror.example.org/story/?x=1 today.</p>
	</body></html>`))

	f := newTestFetcher(tr)
	doc, err := f.Direct(context.Background(), "https://example.com/story", 40000)
	if err != nil {
		t.Fatalf("Direct: %v", err)
	}
	if strings.Contains(doc.Text, "ignored") {
		t.Errorf("script text leaked: %q", doc.Text)
	}
	if !strings.Contains(doc.Text, "ministry confirmed the figures") {
		t.Errorf("missing text: %q", doc.Text)
	}

	want := map[string]bool{
		"https://example.com/related":      true,
		"https://mirror.example.org/story": true,
	}
	for _, l := range doc.Links {
		delete(want, l)
	}
	if len(want) != 0 {
		t.Errorf("missing links %v in %v", want, doc.Links)
	}
}

func TestDirect_Cached(t *testing.T) {
	tr := fetchtest.New()
	tr.Handle("https://example.com/a", fetchtest.Text("plain body"))

	f := newTestFetcher(tr)
	for i := 0; i < 3; i++ {
		if _, err := f.Direct(context.Background(), "https://example.com/a", 100); err != nil {
			t.Fatal(err)
		}
	}
	if n := tr.Calls("https://example.com/a"); n != 1 {
		t.Errorf("expected 1 network call, got %d", n)
	}
}

func TestReadable(t *testing.T) {
	tr := fetchtest.New()
	tr.Handle(readerBase+"http://example.com/story", fetchtest.Text("Title\n\n  Body   text with https://cited.org/paper link. "))

	f := newTestFetcher(tr)

	if got := f.ReaderURL("https://example.com/story"); got != "https://reader.test/http://example.com/story" {
		t.Errorf("ReaderURL = %s", got)
	}
	if got := f.ReaderURL("example.com/story"); got != "https://reader.test/http://example.com/story" {
		t.Errorf("ReaderURL without scheme = %s", got)
	}

	doc, err := f.Readable(context.Background(), "https://example.com/story", 30)
	if err != nil {
		t.Fatalf("Readable: %v", err)
	}
	if doc.Text != "Title Body text with https://c" {
		t.Errorf("Text = %q", doc.Text)
	}
}

func TestBody_FallsBackToReadable(t *testing.T) {
	tr := fetchtest.New()
	tr.Handle("https://example.com/short", fetchtest.HTML("<html><body>tiny</body></html>"))
	tr.Handle(readerBase+"http://example.com/short", fetchtest.Text(strings.Repeat("readable words ", 20)))
	tr.Handle(readerBase+"http://example.com/down", fetchtest.Text(strings.Repeat("proxy only ", 20)))

	f := newTestFetcher(tr)

	doc, err := f.Body(context.Background(), "https://example.com/short", 40000)
	if err != nil {
		t.Fatalf("Body: %v", err)
	}
	if !strings.HasPrefix(doc.Text, "readable words") {
		t.Errorf("expected readable text, got %q", doc.Text)
	}

	doc, err = f.Body(context.Background(), "https://example.com/down", 40000)
	if err != nil {
		t.Fatalf("Body: %v", err)
	}
	if !strings.HasPrefix(doc.Text, "proxy only") {
		t.Errorf("expected readable text after direct 404, got %q", doc.Text)
	}
}

func TestBody_BothFail(t *testing.T) {
	f := newTestFetcher(fetchtest.New())
	doc, err := f.Body(context.Background(), "https://gone.example.com/", 40000)
	if err == nil {
		t.Error("expected error when both fetches fail")
	}
	if doc == nil || doc.Text != "" {
		t.Errorf("expected empty document, got %+v", doc)
	}
}

func TestDirect_RobotsDisallowed(t *testing.T) {
	tr := fetchtest.New()
	tr.Handle("https://example.com/robots.txt", fetchtest.Text("User-agent: *\nDisallow: /private\n"))
	tr.Handle("https://example.com/private/page", fetchtest.HTML("<p>secret</p>"))

	cfg := model.DefaultConfig()
	client := tr.Client()
	f := New(Options{
		Client:    client,
		HTTP:      cfg.HTTP,
		ReaderURL: readerBase,
		Robots:    util.NewRobots(client, cfg.HTTP.UserAgent, time.Second),
	})

	_, err := f.Body(context.Background(), "https://example.com/private/page", 1000)
	if !errors.Is(err, ErrRobotsDisallowed) {
		t.Errorf("expected ErrRobotsDisallowed, got %v", err)
	}
	if tr.Calls("https://example.com/private/page") != 0 {
		t.Error("disallowed page must not be fetched")
	}
}

func TestGetJSON(t *testing.T) {
	tr := fetchtest.New()
	tr.Handle("https://api.test/ok", fetchtest.JSON(`{"name":"x"}`))
	tr.Handle("https://api.test/bad", fetchtest.JSON(`{not json`))

	f := newTestFetcher(tr)

	var out struct {
		Name string `json:"name"`
	}
	if err := f.GetJSON(context.Background(), "https://api.test/ok", &out); err != nil || out.Name != "x" {
		t.Errorf("GetJSON = %+v, %v", out, err)
	}
	if err := f.GetJSON(context.Background(), "https://api.test/bad", &out); err == nil {
		t.Error("expected decode error")
	}
}
