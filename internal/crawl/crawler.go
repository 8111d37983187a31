package crawl

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ppiankov/trustlens/internal/fetch"
	"github.com/ppiankov/trustlens/internal/metrics"
	"github.com/ppiankov/trustlens/internal/model"
	"github.com/ppiankov/trustlens/internal/util"
	"github.com/ppiankov/trustlens/internal/validate"
	"github.com/ppiankov/trustlens/internal/worker"
)

// BodyChars bounds the text read from each candidate
const BodyChars = 40000

// Fetcher reads candidate pages
type Fetcher interface {
	Body(ctx context.Context, rawURL string, maxChars int) (*fetch.Document, error)
}

// Options configures a Crawler
type Options struct {
	Fetcher  Fetcher
	Assessor *validate.Assessor // Built per run from the RunContext when nil
	Quality  *validate.QualityClassifier
	Blocked  *util.Blocklist
	Workers  int
	Logger   *zap.Logger
}

// Crawler walks the discovered links breadth-first, accepting relevant pages
// as sources and re-seeding the frontier from their links.
//
// Fetches run on a worker pool in waves: each wave pops the next URLs,
// fetches the ones that could still be accepted, then evaluates them strictly
// in queue order. Frontier state only changes during the ordered evaluation,
// so the outcome does not depend on the worker count.
type Crawler struct {
	fetcher  Fetcher
	assessor *validate.Assessor
	quality  *validate.QualityClassifier
	blocked  *util.Blocklist
	workers  int
	logger   *zap.Logger
}

// New creates a Crawler
func New(opts Options) *Crawler {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Blocked == nil {
		opts.Blocked = util.NewBlocklist()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Crawler{
		fetcher:  opts.Fetcher,
		assessor: opts.Assessor,
		quality:  opts.Quality,
		blocked:  opts.Blocked,
		workers:  opts.Workers,
		logger:   opts.Logger,
	}
}

// Name returns the stage name
func (c *Crawler) Name() string { return "crawler" }

// Run populates Sources
func (c *Crawler) Run(ctx context.Context, rc *model.RunContext) {
	assessor := c.assessor
	if assessor == nil {
		topic := validate.NewTopic(rc.AnchorTerms, rc.SubClaims, rc.SourceURL)
		assessor = validate.NewAssessor(validate.NewGate(c.blocked), c.quality, topic, rc.Claim)
	}

	frontier := NewFrontier(rc.DiscoveredLinks, c.blocked, rc.SourceURL)
	sources := c.Crawl(ctx, frontier, assessor)

	rc.Sources = sources
	metrics.SourcesAccepted.Observe(float64(len(sources)))
	c.logger.Info("crawl finished",
		zap.Int("sources", len(sources)),
		zap.Int("visited", frontier.Iterations()),
		zap.Int("queued", frontier.Len()))
	rc.Log(fmt.Sprintf("Browser chain: processed %d quality sources.", len(sources)))
}

// Crawl drains the frontier and returns the accepted sources in acceptance
// order
func (c *Crawler) Crawl(ctx context.Context, frontier *Frontier, assessor *validate.Assessor) []model.Source {
	var sources []model.Source

	for !frontier.Done() {
		if ctx.Err() != nil {
			c.logger.Debug("crawl cancelled", zap.Error(ctx.Err()))
			break
		}

		wave := frontier.Pop(c.workers)
		bodies := c.prefetch(ctx, frontier, wave)

		for _, u := range wave {
			reason, ok := frontier.Visit(u)
			if !ok {
				break
			}
			if reason != "" {
				c.logger.Debug("skip candidate", zap.String("url", u), zap.String("reason", reason))
				continue
			}

			doc, fetched := bodies[u]
			if !fetched {
				// Only happens when the wave was cut short by cancellation
				continue
			}

			src, reason, accepted := assessor.Assess(u, titleFor(u), doc.Text)
			if !accepted {
				c.logger.Debug("reject candidate", zap.String("url", u), zap.String("reason", reason))
				continue
			}

			frontier.Accept(u)
			sources = append(sources, src)
			queued := frontier.Reseed(doc.Links)
			c.logger.Debug("accept source",
				zap.String("url", u),
				zap.String("stance", string(src.Stance)),
				zap.Int("domain_sources", frontier.DomainCount(util.Domain(u))),
				zap.Int("reseeded", queued))
		}
	}

	return sources
}

// prefetch fetches every URL of a wave that is not already known to be
// skipped
func (c *Crawler) prefetch(ctx context.Context, frontier *Frontier, wave []string) map[string]*fetch.Document {
	var urls []string
	for _, u := range wave {
		if frontier.Skip(u) == "" {
			urls = append(urls, u)
		}
	}
	get := func(ctx context.Context, u string) (*fetch.Document, error) {
		return c.fetcher.Body(ctx, u, BodyChars)
	}
	return Prefetch(ctx, c.workers, urls, get, c.logger)
}

func titleFor(canonicalURL string) string {
	if d := util.Domain(canonicalURL); d != "" {
		return d
	}
	return "Source"
}

// GetFunc fetches one document
type GetFunc func(ctx context.Context, rawURL string) (*fetch.Document, error)

// Prefetch fetches urls on a worker pool and returns the documents keyed by
// URL. Duplicates are fetched once. Failed fetches map to an empty document;
// URLs dropped by cancellation are absent.
func Prefetch(ctx context.Context, workers int, urls []string, get GetFunc, logger *zap.Logger) map[string]*fetch.Document {
	if logger == nil {
		logger = zap.NewNop()
	}
	pool := worker.NewPool(ctx, workers)
	pool.Start()

	submitted := make(map[string]bool, len(urls))
	for _, u := range urls {
		if submitted[u] {
			continue
		}
		submitted[u] = true
		pool.Submit(&fetchJob{get: get, url: u})
	}

	docs := make(map[string]*fetch.Document, len(submitted))
	for _, r := range pool.Wait() {
		if r == nil {
			continue
		}
		res := r.(*fetchResult)
		if res.err != nil {
			logger.Debug("fetch failed", zap.String("url", res.url), zap.Error(res.err))
		}
		docs[res.url] = res.doc
	}
	return docs
}

type fetchJob struct {
	get GetFunc
	url string
}

type fetchResult struct {
	url string
	doc *fetch.Document
	err error
}

func (r *fetchResult) GetError() error { return r.err }

// Execute fetches the page; failures yield an empty document
func (j *fetchJob) Execute(ctx context.Context) worker.Result {
	doc, err := j.get(ctx, j.url)
	if doc == nil {
		doc = &fetch.Document{URL: j.url}
	}
	return &fetchResult{url: j.url, doc: doc, err: err}
}
