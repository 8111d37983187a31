package util

import "testing"

func TestCanonical(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.Example.com/a/b/?x=1#frag", "https://example.com/a/b"},
		{"http://example.com", "https://example.com/"},
		{"http://example.com/", "https://example.com/"},
		{"  https://EXAMPLE.com:8443/path//  ", "https://example.com/path"},
		{"https://news.bbc.co.uk/story?id=7", "https://news.bbc.co.uk/story"},
		{"not a url", "not a url"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Canonical(tt.in)
			if got != tt.want {
				t.Errorf("Canonical(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCanonicalIdempotent(t *testing.T) {
	inputs := []string{
		"https://www.Example.com/a/b/?x=1#frag",
		"http://example.com",
		"https://example.com/%7Euser/",
		"https://example.com/a%20b",
		"ftp://files.example.org/pub/",
		"relative/path",
	}
	for _, in := range inputs {
		once := Canonical(in)
		twice := Canonical(once)
		if once != twice {
			t.Errorf("Canonical not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestDomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.Reuters.com/world", "reuters.com"},
		{"http://localhost:8080/x", "localhost"},
		{"no-scheme", ""},
	}
	for _, tt := range tests {
		if got := Domain(tt.in); got != tt.want {
			t.Errorf("Domain(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBlocklist(t *testing.T) {
	b := NewBlocklist("https://reader.example.test/", "Feeds.Example.Test")

	tests := []struct {
		url  string
		want bool
	}{
		{"https://duckduckgo.com/?q=x", true},
		{"https://www.google.com/search", true},
		{"https://news.google.com/rss", true},
		{"http://127.0.0.1:9000/", true},
		{"https://reader.example.test/http://x", true},
		{"https://feeds.example.test/rss", true},
		{"https://maps.google.com/", false},
		{"https://reuters.com/world", false},
		{"garbage", true},
	}
	for _, tt := range tests {
		if got := b.Blocked(tt.url); got != tt.want {
			t.Errorf("Blocked(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}
