package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/trustlens/internal/cache"
	"github.com/ppiankov/trustlens/internal/extract"
	"github.com/ppiankov/trustlens/internal/metrics"
	"github.com/ppiankov/trustlens/internal/model"
	"github.com/ppiankov/trustlens/internal/util"
	"github.com/ppiankov/trustlens/internal/worker"
)

// MinDirectBody is the shortest direct body accepted before the readable
// proxy is tried
const MinDirectBody = 120

// ErrRobotsDisallowed is returned when robots.txt forbids a direct fetch
var ErrRobotsDisallowed = errors.New("disallowed by robots.txt")

// Document is the readable text of one URL plus the links it mentions
type Document struct {
	URL   string   `json:"url"`
	Text  string   `json:"text"`
	Links []string `json:"links"`
}

// Options configures a Fetcher
type Options struct {
	Client    *http.Client
	HTTP      model.HTTPConfig
	ReaderURL string
	Limiter   *worker.Limiter // Applied to direct page fetches only
	Robots    *util.Robots    // Nil disables robots.txt checks
	Cache     cache.Cache     // Nil disables caching
	Logger    *zap.Logger
}

// Fetcher performs every outbound request of a run. Failures are returned as
// errors; callers decide whether to collapse them to empty results.
type Fetcher struct {
	client    *http.Client
	cfg       model.HTTPConfig
	readerURL string
	limiter   *worker.Limiter
	robots    *util.Robots
	cache     cache.Cache
	reader    *extract.PageReader
	logger    *zap.Logger
}

// New creates a Fetcher
func New(opts Options) *Fetcher {
	if opts.Client == nil {
		opts.Client = util.NewHTTPClient(opts.HTTP)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.HTTP.MaxBodyBytes <= 0 {
		opts.HTTP.MaxBodyBytes = model.DefaultConfig().HTTP.MaxBodyBytes
	}
	if opts.HTTP.DirectTimeout <= 0 {
		opts.HTTP.DirectTimeout = model.DefaultConfig().HTTP.DirectTimeout
	}
	if opts.HTTP.ReaderTimeout <= 0 {
		opts.HTTP.ReaderTimeout = model.DefaultConfig().HTTP.ReaderTimeout
	}
	if opts.ReaderURL == "" {
		opts.ReaderURL = model.DefaultConfig().Backends.ReaderURL
	}

	return &Fetcher{
		client:    opts.Client,
		cfg:       opts.HTTP,
		readerURL: opts.ReaderURL,
		limiter:   opts.Limiter,
		robots:    opts.Robots,
		cache:     opts.Cache,
		reader:    extract.NewPageReader(),
		logger:    opts.Logger,
	}
}

// Response is a raw HTTP body
type Response struct {
	Body        []byte
	ContentType string
	FinalURL    string
}

// GetRaw performs a GET with its own timeout. Non-2xx statuses are errors.
func (f *Fetcher) GetRaw(ctx context.Context, rawURL string, timeout time.Duration) (*Response, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,application/json;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &Response{
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		FinalURL:    finalURL,
	}, nil
}

// GetJSON fetches rawURL with the direct timeout and decodes the body into v
func (f *Fetcher) GetJSON(ctx context.Context, rawURL string, v any) error {
	resp, err := f.cached(ctx, "json", rawURL, f.cfg.DirectTimeout)
	if err != nil {
		f.count("json", err)
		return err
	}
	if err := json.Unmarshal(resp.Body, v); err != nil {
		f.count("json", err)
		return fmt.Errorf("decode json: %w", err)
	}
	f.count("json", nil)
	return nil
}

// GetText fetches rawURL with the direct timeout and returns the raw body
func (f *Fetcher) GetText(ctx context.Context, rawURL string) (string, error) {
	resp, err := f.cached(ctx, "text", rawURL, f.cfg.DirectTimeout)
	f.count("text", err)
	if err != nil {
		return "", err
	}
	return string(resp.Body), nil
}

// Direct fetches a page itself, subject to robots.txt and per-domain rate
// limits. HTML is reduced to visible text; anchors become links.
func (f *Fetcher) Direct(ctx context.Context, rawURL string, maxChars int) (*Document, error) {
	doc, err := f.direct(ctx, rawURL, maxChars)
	f.count("direct", err)
	return doc, err
}

func (f *Fetcher) direct(ctx context.Context, rawURL string, maxChars int) (*Document, error) {
	var delay time.Duration
	if f.robots != nil {
		allowed, crawlDelay := f.robots.Check(ctx, rawURL)
		if !allowed {
			return nil, ErrRobotsDisallowed
		}
		delay = crawlDelay
	}
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, rawURL, delay); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	resp, err := f.cached(ctx, "direct", rawURL, f.cfg.DirectTimeout)
	if err != nil {
		return nil, err
	}

	raw := string(resp.Body)
	if !extract.IsHTML(resp.ContentType, raw) {
		text := extract.Truncate(extract.Normalize(raw), maxChars)
		return &Document{URL: rawURL, Text: text, Links: extract.Links(text)}, nil
	}

	page, err := f.reader.Read(raw, resp.FinalURL)
	if err != nil {
		return nil, err
	}
	text := extract.Truncate(page.Text, maxChars)
	links := make([]string, 0, len(page.Links))
	for _, l := range page.Links {
		links = append(links, util.Canonical(l))
	}
	links = extract.Dedupe(append(links, extract.Links(text)...))

	return &Document{URL: rawURL, Text: text, Links: links}, nil
}

// ReaderURL returns the readable-proxy address for rawURL
func (f *Fetcher) ReaderURL(rawURL string) string {
	u := rawURL
	if !strings.HasPrefix(u, "http") {
		u = "https://" + u
	}
	u = strings.TrimPrefix(strings.TrimPrefix(u, "https://"), "http://")
	return strings.TrimRight(f.readerURL, "/") + "/http://" + u
}

// Readable fetches rawURL through the readable-text proxy
func (f *Fetcher) Readable(ctx context.Context, rawURL string, maxChars int) (*Document, error) {
	resp, err := f.cached(ctx, "readable", f.ReaderURL(rawURL), f.cfg.ReaderTimeout)
	f.count("readable", err)
	if err != nil {
		return nil, err
	}
	text := extract.Truncate(extract.Normalize(string(resp.Body)), maxChars)
	return &Document{URL: rawURL, Text: text, Links: extract.Links(text)}, nil
}

// Body tries a direct fetch and falls back to the readable proxy when the
// direct text is shorter than MinDirectBody. The returned document is never
// nil; the error is set only when no text could be obtained at all.
func (f *Fetcher) Body(ctx context.Context, rawURL string, maxChars int) (*Document, error) {
	doc, err := f.Direct(ctx, rawURL, maxChars)
	if errors.Is(err, ErrRobotsDisallowed) {
		return &Document{URL: rawURL}, err
	}
	if err == nil && len([]rune(doc.Text)) >= MinDirectBody {
		return doc, nil
	}
	if err != nil {
		f.logger.Debug("direct fetch failed", zap.String("url", rawURL), zap.Error(err))
	}

	readable, rerr := f.Readable(ctx, rawURL, maxChars)
	if rerr != nil {
		f.logger.Debug("readable fetch failed", zap.String("url", rawURL), zap.Error(rerr))
		if doc != nil {
			return doc, nil
		}
		return &Document{URL: rawURL}, rerr
	}
	return readable, nil
}

func (f *Fetcher) cached(ctx context.Context, kind, rawURL string, timeout time.Duration) (*Response, error) {
	if f.cache == nil {
		return f.GetRaw(ctx, rawURL, timeout)
	}

	if v, ok := f.cache.Lookup(kind, rawURL); ok {
		if resp, ok := v.(*Response); ok {
			return resp, nil
		}
	}

	resp, err := f.GetRaw(ctx, rawURL, timeout)
	if err != nil {
		return nil, err
	}
	f.cache.Store(kind, rawURL, resp)
	return resp, nil
}

func (f *Fetcher) count(kind string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.FetchesTotal.WithLabelValues(kind, outcome).Inc()
}
