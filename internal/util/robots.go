package util

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"golang.org/x/sync/singleflight"
)

// Robots answers robots.txt questions for one run. Each host's file is
// fetched at most once, even when several workers ask at the same time.
type Robots struct {
	client  *http.Client
	agent   string
	timeout time.Duration

	flight singleflight.Group
	mu     sync.RWMutex
	groups map[string]*robotstxt.Group
}

// NewRobots creates a robots.txt checker that fetches through client
func NewRobots(client *http.Client, userAgent string, timeout time.Duration) *Robots {
	if client == nil {
		client = http.DefaultClient
	}
	return &Robots{
		client:  client,
		agent:   productToken(userAgent),
		timeout: timeout,
		groups:  make(map[string]*robotstxt.Group),
	}
}

// Check reports whether rawURL may be fetched and the crawl delay the host
// asks for. Unreachable or unparsable robots.txt files allow everything.
func (r *Robots) Check(ctx context.Context, rawURL string) (bool, time.Duration) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return false, 0
	}

	group := r.group(ctx, u.Scheme, u.Host)
	if group == nil {
		return true, 0
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return group.Test(path), group.CrawlDelay
}

func (r *Robots) group(ctx context.Context, scheme, host string) *robotstxt.Group {
	r.mu.RLock()
	g, ok := r.groups[host]
	r.mu.RUnlock()
	if ok {
		return g
	}

	v, _, _ := r.flight.Do(host, func() (any, error) {
		g := r.load(ctx, scheme+"://"+host+"/robots.txt")
		r.mu.Lock()
		r.groups[host] = g
		r.mu.Unlock()
		return g, nil
	})
	return v.(*robotstxt.Group)
}

// load returns nil when the file cannot be read
func (r *Robots) load(ctx context.Context, robotsURL string) *robotstxt.Group {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", r.agent)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil
	}
	return data.FindGroup(r.agent)
}

// productToken keeps the product name of a user agent, e.g. "TrustLens"
// for "TrustLens/0.1 (+https://...)"
func productToken(ua string) string {
	fields := strings.Fields(ua)
	if len(fields) == 0 {
		return ""
	}
	name, _, _ := strings.Cut(fields[0], "/")
	return name
}
