// Package adapters picks the content region and outgoing links of a page
// depending on the site it came from.
package adapters

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Adapter reads one family of sites
type Adapter interface {
	Name() string
	// Match reports whether the adapter understands pages at u
	Match(u *url.URL) bool
	// ContentRoot returns the node whose visible text is the page body.
	// It may detach boilerplate nodes from doc.
	ContentRoot(doc *html.Node) *html.Node
	// Links returns absolute http(s) links in the order they should be
	// followed
	Links(doc *html.Node, base *url.URL) []string
}

// Registry holds site adapters and falls back to Generic
type Registry struct {
	sites    []Adapter
	fallback Adapter
}

// NewRegistry creates a registry with the built-in site adapters
func NewRegistry() *Registry {
	return &Registry{
		sites:    []Adapter{Wikipedia{}},
		fallback: Generic{},
	}
}

// Register adds a site adapter. Later adapters are tried last.
func (r *Registry) Register(a Adapter) {
	r.sites = append(r.sites, a)
}

// For returns the adapter for pages at u
func (r *Registry) For(u *url.URL) Adapter {
	if u != nil {
		for _, a := range r.sites {
			if a.Match(u) {
				return a
			}
		}
	}
	return r.fallback
}

func isElement(n *html.Node, tag string) bool {
	return n.Type == html.ElementNode && n.Data == tag
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// first returns the first node under n, in document order, that matches
func first(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := first(c, match); found != nil {
			return found
		}
	}
	return nil
}

// collect appends every node under n that matches, in document order
func collect(n *html.Node, match func(*html.Node) bool, out []*html.Node) []*html.Node {
	if match(n) {
		out = append(out, n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = collect(c, match, out)
	}
	return out
}

// hrefs resolves the anchors under n accepted by keep, skipping repeats
// and anything that is not http(s)
func hrefs(n *html.Node, base *url.URL, keep func(*html.Node) bool) []string {
	anchors := collect(n, func(a *html.Node) bool {
		return isElement(a, "a") && (keep == nil || keep(a))
	}, nil)

	seen := make(map[string]bool, len(anchors))
	out := make([]string, 0, len(anchors))
	for _, a := range anchors {
		link := resolve(base, attr(a, "href"))
		if link == "" || seen[link] {
			continue
		}
		seen[link] = true
		out = append(out, link)
	}
	return out
}

func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || href[0] == '#' {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	switch ref.Scheme {
	case "http", "https":
		return ref.String()
	}
	return ""
}
