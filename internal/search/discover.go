package search

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/trustlens/internal/extract"
	"github.com/ppiankov/trustlens/internal/metrics"
	"github.com/ppiankov/trustlens/internal/model"
	"github.com/ppiankov/trustlens/internal/util"
)

// MaxLinks bounds the discovered candidate list
const MaxLinks = 220

// Discoverer fans each query out to the search backends and merges the
// results into one ordered, deduplicated candidate list
type Discoverer struct {
	backends []Backend
	image    Backend
	blocked  *util.Blocklist
	parallel int
	logger   *zap.Logger
}

// Options configures a Discoverer
type Options struct {
	Backends []Backend // Queried for every input type, in this order
	Image    Backend   // Queried only for image inputs; may be nil
	Blocked  *util.Blocklist
	Parallel int
	Logger   *zap.Logger
}

// NewDiscoverer creates a Discoverer
func NewDiscoverer(opts Options) *Discoverer {
	if opts.Blocked == nil {
		opts.Blocked = util.NewBlocklist()
	}
	if opts.Parallel <= 0 {
		opts.Parallel = 4
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Discoverer{
		backends: opts.Backends,
		image:    opts.Image,
		blocked:  opts.Blocked,
		parallel: opts.Parallel,
		logger:   opts.Logger,
	}
}

// Name returns the stage name
func (d *Discoverer) Name() string { return "searcher" }

// Run populates DiscoveredLinks
func (d *Discoverer) Run(ctx context.Context, rc *model.RunContext) {
	backends := d.backends
	if rc.InputType == model.InputImage && d.image != nil {
		backends = append(append([]Backend{}, d.backends...), d.image)
	}

	links := extract.Links(rc.AnchorText)
	links = append(links, d.Collect(ctx, rc.Queries, backends)...)
	if rc.SourceURL != "" {
		links = append([]string{util.Canonical(rc.SourceURL)}, links...)
	}

	rc.DiscoveredLinks = d.Rank(links, rc.SourceURL)
	rc.Log(fmt.Sprintf("Searcher: collected %d candidate links.", len(rc.DiscoveredLinks)))
}

// Collect runs every backend for every query concurrently and concatenates
// the results in query order, then backend order. Backend failures count as
// zero links.
func (d *Discoverer) Collect(ctx context.Context, queries []string, backends []Backend) []string {
	results := make([][][]string, len(queries))
	for i := range results {
		results[i] = make([][]string, len(backends))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.parallel)
	for qi, q := range queries {
		qi, q := qi, q
		for bi, b := range backends {
			bi, b := bi, b
			g.Go(func() error {
				links, err := b.Links(gctx, q)
				if err != nil {
					d.logger.Debug("backend failed",
						zap.String("backend", b.Name()),
						zap.String("query", q),
						zap.Error(err))
					return nil
				}
				metrics.BackendLinks.WithLabelValues(b.Name()).Add(float64(len(links)))
				results[qi][bi] = links
				return nil
			})
		}
	}
	_ = g.Wait()

	var out []string
	for _, perQuery := range results {
		for _, links := range perQuery {
			out = append(out, links...)
		}
	}
	return out
}

// Rank drops empty, duplicate and blocked links, moves links sharing the
// source domain and news-like hosts forward (stable otherwise) and truncates
// to MaxLinks
func (d *Discoverer) Rank(links []string, sourceURL string) []string {
	seen := make(map[string]bool, len(links))
	var dedup []string
	for _, l := range links {
		l = util.Canonical(l)
		if l == "" || seen[l] {
			continue
		}
		if d.blocked.Blocked(l) {
			continue
		}
		seen[l] = true
		dedup = append(dedup, l)
	}

	sourceDomain := ""
	if sourceURL != "" {
		sourceDomain = util.Domain(sourceURL)
	}
	rank := make(map[string]int, len(dedup))
	for _, u := range dedup {
		dom := util.Domain(u)
		r := 0
		if sourceDomain == "" || !strings.HasSuffix(dom, sourceDomain) {
			r += 2
		}
		if !strings.Contains(dom, "news") {
			r++
		}
		rank[u] = r
	}
	sort.SliceStable(dedup, func(i, j int) bool {
		return rank[dedup[i]] < rank[dedup[j]]
	})

	return extract.Head(dedup, MaxLinks)
}
