// Package fetchtest serves frozen HTTP responses so runs can be replayed
// without touching the network.
package fetchtest

import (
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

// Route is one canned response
type Route struct {
	Status      int
	ContentType string
	Body        string
	Delay       time.Duration
}

// HTML is a 200 text/html route
func HTML(body string) Route {
	return Route{Status: http.StatusOK, ContentType: "text/html; charset=utf-8", Body: body}
}

// Text is a 200 text/plain route
func Text(body string) Route {
	return Route{Status: http.StatusOK, ContentType: "text/plain; charset=utf-8", Body: body}
}

// JSON is a 200 application/json route
func JSON(body string) Route {
	return Route{Status: http.StatusOK, ContentType: "application/json", Body: body}
}

// Status is an empty route with the given status code
func Status(code int) Route {
	return Route{Status: code}
}

type prefixRoute struct {
	prefix  string
	handler func(*http.Request) Route
}

// Transport is an http.RoundTripper answering from registered routes.
// Exact URL matches win over prefix handlers; the longest prefix wins among
// those. Anything else is a 404.
type Transport struct {
	mu       sync.Mutex
	exact    map[string]Route
	prefixes []prefixRoute
	calls    map[string]int
}

// New creates an empty Transport
func New() *Transport {
	return &Transport{
		exact: make(map[string]Route),
		calls: make(map[string]int),
	}
}

// Handle registers a response for an exact URL
func (t *Transport) Handle(rawURL string, route Route) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.exact[rawURL] = route
}

// HandlePrefix registers a handler for every URL starting with prefix
func (t *Transport) HandlePrefix(prefix string, handler func(*http.Request) Route) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.prefixes = append(t.prefixes, prefixRoute{prefix: prefix, handler: handler})
	sort.SliceStable(t.prefixes, func(i, j int) bool {
		return len(t.prefixes[i].prefix) > len(t.prefixes[j].prefix)
	})
}

// Client returns an http.Client using this transport
func (t *Transport) Client() *http.Client {
	return &http.Client{Transport: t}
}

// Calls returns how many times rawURL was requested
func (t *Transport) Calls(rawURL string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls[rawURL]
}

// TotalCalls returns the number of requests served
func (t *Transport) TotalCalls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, c := range t.calls {
		n += c
	}
	return n
}

// RoundTrip implements http.RoundTripper
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	key := req.URL.String()

	t.mu.Lock()
	t.calls[key]++
	route, ok := t.exact[key]
	var handler func(*http.Request) Route
	if !ok {
		for _, p := range t.prefixes {
			if strings.HasPrefix(key, p.prefix) {
				handler = p.handler
				break
			}
		}
	}
	t.mu.Unlock()

	switch {
	case ok:
	case handler != nil:
		route = handler(req)
	default:
		route = Status(http.StatusNotFound)
	}

	if route.Delay > 0 {
		timer := time.NewTimer(route.Delay)
		defer timer.Stop()
		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-timer.C:
		}
	}

	status := route.Status
	if status == 0 {
		status = http.StatusOK
	}
	header := make(http.Header)
	if route.ContentType != "" {
		header.Set("Content-Type", route.ContentType)
	}

	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(route.Body)),
		Request:    req,
	}, nil
}
