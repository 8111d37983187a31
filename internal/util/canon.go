package util

import (
	"net/url"
	"strings"
)

// DefaultBlocked lists the hosts of the discovery infrastructure itself.
// Pages served by them are never evidence.
var DefaultBlocked = []string{
	"r.jina.ai",
	"duckduckgo.com",
	"news.google.com",
	"google.com",
	"microsoft.com",
	"bing.com",
	"localhost",
	"127.0.0.1",
}

// Canonical returns the canonical form of a URL: https scheme, lowercase host
// without port or leading "www.", no query or fragment, no trailing slash
// (root becomes "/"). Inputs without a host are returned unchanged.
func Canonical(raw string) string {
	trimmed := strings.TrimSpace(raw)
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return raw
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return raw
	}
	host = strings.TrimPrefix(host, "www.")

	path := strings.TrimRight(parsed.EscapedPath(), "/")
	if path == "" {
		path = "/"
	}
	return "https://" + host + path
}

// Domain returns the lowercase host of a URL without port or leading "www."
func Domain(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
}

// Blocklist decides which domains may never enter the evidence set
type Blocklist struct {
	hosts map[string]struct{}
}

// NewBlocklist creates a blocklist from the defaults plus extra hosts or URLs
func NewBlocklist(extra ...string) *Blocklist {
	b := &Blocklist{hosts: make(map[string]struct{}, len(DefaultBlocked)+len(extra))}
	for _, h := range DefaultBlocked {
		b.hosts[h] = struct{}{}
	}
	for _, e := range extra {
		h := e
		if strings.Contains(e, "://") {
			h = Domain(e)
		}
		h = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(h)), "www.")
		if h != "" {
			b.hosts[h] = struct{}{}
		}
	}
	return b
}

// Blocked reports whether the URL's domain is blocked. A URL without a
// domain is always blocked.
func (b *Blocklist) Blocked(rawURL string) bool {
	d := Domain(rawURL)
	if d == "" {
		return true
	}
	_, ok := b.hosts[d]
	return ok
}
