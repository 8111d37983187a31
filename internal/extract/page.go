package extract

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ppiankov/trustlens/internal/extract/adapters"
	"golang.org/x/net/html"
)

// Page is the readable form of a fetched HTML document
type Page struct {
	Text    string
	Links   []string // Absolute, in document order
	Adapter string
}

// PageReader turns HTML into visible text and outgoing links
type PageReader struct {
	registry *adapters.Registry
}

// NewPageReader creates a reader with the built-in adapters
func NewPageReader() *PageReader {
	return &PageReader{registry: adapters.NewRegistry()}
}

// Read parses htmlContent fetched from pageURL
func (r *PageReader) Read(htmlContent, pageURL string) (*Page, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}

	adapter := r.registry.For(base)

	// Links first: ContentRoot may detach nodes
	links := adapter.Links(doc, base)
	text := Normalize(visibleText(adapter.ContentRoot(doc)))

	return &Page{
		Text:    text,
		Links:   links,
		Adapter: adapter.Name(),
	}, nil
}

// IsHTML reports whether a Content-Type header or body sniff looks like HTML
func IsHTML(contentType, body string) bool {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml") {
		return true
	}
	if ct != "" && !strings.HasPrefix(ct, "text/plain") && !strings.Contains(ct, "octet-stream") {
		return false
	}
	head := strings.ToLower(strings.TrimSpace(Truncate(body, 512)))
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html") || strings.Contains(head, "<body")
}

// visibleText extracts text nodes from HTML, skipping scripts/styles
func visibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "svg", "template":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return buf.String()
}
