package adapters

import (
	"net/url"

	"golang.org/x/net/html"
)

// Generic reads any page: the first <article>, <main> or <body> is the
// content and every anchor is a link
type Generic struct{}

func (Generic) Name() string { return "generic" }

func (Generic) Match(*url.URL) bool { return true }

func (Generic) ContentRoot(doc *html.Node) *html.Node {
	for _, tag := range []string{"article", "main", "body"} {
		if n := first(doc, func(n *html.Node) bool { return isElement(n, tag) }); n != nil {
			return n
		}
	}
	return doc
}

func (Generic) Links(doc *html.Node, base *url.URL) []string {
	return hrefs(doc, base, nil)
}
