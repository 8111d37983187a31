package search

import (
	"context"
	"encoding/xml"
	"errors"
	"io"
	"net/url"
	"strings"

	"github.com/ppiankov/trustlens/internal/extract"
	"github.com/ppiankov/trustlens/internal/fetch"
	"github.com/ppiankov/trustlens/internal/util"
)

// Fetcher is the subset of fetch.Fetcher the backends use
type Fetcher interface {
	GetText(ctx context.Context, rawURL string) (string, error)
	GetJSON(ctx context.Context, rawURL string, v any) error
	Readable(ctx context.Context, rawURL string, maxChars int) (*fetch.Document, error)
}

// Backend turns one query into canonical candidate links
type Backend interface {
	Name() string
	Links(ctx context.Context, query string) ([]string, error)
}

const (
	feedReaderChars  = 80000
	imageReaderChars = 90000
	relatedTopicsMax = 20
	articlesMax      = 8
)

// escapeQuery encodes a query as a single query-string value
func escapeQuery(q string) string {
	return url.QueryEscape(q)
}

// FeedBackend searches a news RSS feed twice per query: as given and with
// "debunked" appended
type FeedBackend struct {
	fetcher Fetcher
	baseURL string
}

// NewFeedBackend creates a news-feed backend rooted at baseURL
func NewFeedBackend(fetcher Fetcher, baseURL string) *FeedBackend {
	return &FeedBackend{fetcher: fetcher, baseURL: baseURL}
}

// Name returns the backend name
func (b *FeedBackend) Name() string { return "feed" }

// FeedURLs returns the two feed addresses searched for a query
func (b *FeedBackend) FeedURLs(query string) []string {
	q := escapeQuery(query)
	return []string{
		b.baseURL + "?q=" + q + "&hl=en-US&gl=US&ceid=US:en",
		b.baseURL + "?q=" + q + "+debunked&hl=en-US&gl=US&ceid=US:en",
	}
}

// Links fetches each feed directly, falling back to the readable proxy when
// the direct response is unusable
func (b *FeedBackend) Links(ctx context.Context, query string) ([]string, error) {
	var out []string
	var errs []error
	for _, feed := range b.FeedURLs(query) {
		body, err := b.fetcher.GetText(ctx, feed)
		if err != nil || body == "" {
			doc, rerr := b.fetcher.Readable(ctx, feed, feedReaderChars)
			if rerr != nil {
				errs = append(errs, errors.Join(err, rerr))
				continue
			}
			body = doc.Text
		}
		if body == "" {
			continue
		}
		out = append(out, FeedLinks(body)...)
	}
	if len(out) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// FeedLinks returns the canonical first <link> of every <item> in an RSS or RDF
// document. A body that is not well-formed XML is scanned for plain URLs
// instead.
func FeedLinks(body string) []string {
	links, err := parseItemLinks(body)
	if err != nil {
		return extract.Links(body)
	}
	return links
}

func parseItemLinks(body string) ([]string, error) {
	dec := xml.NewDecoder(strings.NewReader(body))
	dec.Strict = true

	var links []string
	depth := 0
	itemDepth := 0
	itemHasLink := false
	sawRoot := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			sawRoot = true
			switch {
			case t.Name.Local == "item":
				if itemDepth == 0 {
					itemDepth = depth
					itemHasLink = false
				}
			case t.Name.Local == "link" && itemDepth > 0 && depth == itemDepth+1 && !itemHasLink:
				var text string
				if err := dec.DecodeElement(&text, &t); err != nil {
					return nil, err
				}
				depth--
				itemHasLink = true
				if text = strings.TrimSpace(text); text != "" {
					links = append(links, util.Canonical(text))
				}
			}
		case xml.EndElement:
			if depth == itemDepth {
				itemDepth = 0
			}
			depth--
		}
	}
	if !sawRoot || depth != 0 {
		return nil, errors.New("not an xml document")
	}
	return links, nil
}

// InstantAnswerBackend reads abstract and related-topic URLs from an
// instant-answer JSON API
type InstantAnswerBackend struct {
	fetcher Fetcher
	baseURL string
}

// NewInstantAnswerBackend creates an instant-answer backend rooted at baseURL
func NewInstantAnswerBackend(fetcher Fetcher, baseURL string) *InstantAnswerBackend {
	return &InstantAnswerBackend{fetcher: fetcher, baseURL: baseURL}
}

// Name returns the backend name
func (b *InstantAnswerBackend) Name() string { return "instant_answer" }

type instantTopic struct {
	FirstURL string         `json:"FirstURL"`
	Topics   []instantTopic `json:"Topics"`
}

type instantAnswer struct {
	AbstractURL   string         `json:"AbstractURL"`
	RelatedTopics []instantTopic `json:"RelatedTopics"`
}

// Links returns the abstract URL, then the first 20 related topics with one
// level of nested topics
func (b *InstantAnswerBackend) Links(ctx context.Context, query string) ([]string, error) {
	u := b.baseURL + "?q=" + escapeQuery(query) + "&format=json&no_html=1&skip_disambig=1"

	var ans instantAnswer
	if err := b.fetcher.GetJSON(ctx, u, &ans); err != nil {
		return nil, err
	}

	var out []string
	if ans.AbstractURL != "" {
		out = append(out, util.Canonical(ans.AbstractURL))
	}
	topics := ans.RelatedTopics
	if len(topics) > relatedTopicsMax {
		topics = topics[:relatedTopicsMax]
	}
	for _, topic := range topics {
		if topic.FirstURL != "" {
			out = append(out, util.Canonical(topic.FirstURL))
		}
		for _, child := range topic.Topics {
			if child.FirstURL != "" {
				out = append(out, util.Canonical(child.FirstURL))
			}
		}
	}
	return out, nil
}

// EncyclopediaBackend maps encyclopedia search hits to article URLs
type EncyclopediaBackend struct {
	fetcher     Fetcher
	apiURL      string
	articleBase string
}

// NewEncyclopediaBackend creates an encyclopedia backend
func NewEncyclopediaBackend(fetcher Fetcher, apiURL, articleBase string) *EncyclopediaBackend {
	return &EncyclopediaBackend{fetcher: fetcher, apiURL: apiURL, articleBase: articleBase}
}

// Name returns the backend name
func (b *EncyclopediaBackend) Name() string { return "encyclopedia" }

type encyclopediaSearch struct {
	Query struct {
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}

// Links returns article URLs for the top 8 search titles
func (b *EncyclopediaBackend) Links(ctx context.Context, query string) ([]string, error) {
	u := b.apiURL + "?action=query&list=search&srsearch=" + escapeQuery(query) + "&utf8=&format=json&origin=*"

	var res encyclopediaSearch
	if err := b.fetcher.GetJSON(ctx, u, &res); err != nil {
		return nil, err
	}

	var out []string
	for i, hit := range res.Query.Search {
		if i >= articlesMax {
			break
		}
		if hit.Title == "" {
			continue
		}
		title := url.PathEscape(strings.ReplaceAll(hit.Title, " ", "_"))
		out = append(out, util.Canonical(b.articleBase+title))
	}
	return out, nil
}

// ImageBackend scrapes image-vertical result pages through the readable
// proxy. Used only for image inputs.
type ImageBackend struct {
	fetcher   Fetcher
	templates []string
}

// NewImageBackend creates an image backend; each template is a URL prefix
// the escaped query is appended to
func NewImageBackend(fetcher Fetcher, templates []string) *ImageBackend {
	return &ImageBackend{fetcher: fetcher, templates: templates}
}

// Name returns the backend name
func (b *ImageBackend) Name() string { return "image" }

// Links returns every URL mentioned on the result pages
func (b *ImageBackend) Links(ctx context.Context, query string) ([]string, error) {
	var out []string
	var errs []error
	for _, tmpl := range b.templates {
		doc, err := b.fetcher.Readable(ctx, tmpl+escapeQuery(query), imageReaderChars)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if doc.Text == "" {
			continue
		}
		out = append(out, extract.Links(doc.Text)...)
	}
	if len(out) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}
