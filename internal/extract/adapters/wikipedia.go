package adapters

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Wikipedia reads encyclopedia articles. Citation links come before the
// article's own links so the crawl reaches primary sources first.
type Wikipedia struct{}

func (Wikipedia) Name() string { return "wikipedia" }

func (Wikipedia) Match(u *url.URL) bool {
	host := strings.ToLower(u.Hostname())
	return host == "wikipedia.org" || strings.HasSuffix(host, ".wikipedia.org")
}

// ContentRoot returns the parser output with infoboxes, navboxes and edit
// links removed
func (Wikipedia) ContentRoot(doc *html.Node) *html.Node {
	body := articleBody(doc)
	if body == nil {
		return doc
	}
	for _, n := range collect(body, isBoilerplate, nil) {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
	}
	return body
}

func (Wikipedia) Links(doc *html.Node, base *url.URL) []string {
	links := hrefs(doc, base, func(a *html.Node) bool { return hasClass(a, "external") })

	body := articleBody(doc)
	if body == nil {
		return links
	}
	seen := make(map[string]bool, len(links))
	for _, l := range links {
		seen[l] = true
	}
	for _, l := range hrefs(body, base, nil) {
		if !seen[l] {
			seen[l] = true
			links = append(links, l)
		}
	}
	return links
}

func articleBody(doc *html.Node) *html.Node {
	if n := first(doc, func(n *html.Node) bool { return isElement(n, "div") && hasClass(n, "mw-parser-output") }); n != nil {
		return n
	}
	return first(doc, func(n *html.Node) bool { return isElement(n, "div") && attr(n, "id") == "mw-content-text" })
}

func isBoilerplate(n *html.Node) bool {
	if isElement(n, "table") && (hasClass(n, "infobox") || hasClass(n, "navbox")) {
		return true
	}
	return hasClass(n, "mw-editsection")
}
