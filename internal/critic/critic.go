package critic

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ppiankov/trustlens/internal/crawl"
	"github.com/ppiankov/trustlens/internal/fetch"
	"github.com/ppiankov/trustlens/internal/metrics"
	"github.com/ppiankov/trustlens/internal/model"
	"github.com/ppiankov/trustlens/internal/search"
	"github.com/ppiankov/trustlens/internal/util"
	"github.com/ppiankov/trustlens/internal/validate"
)

const (
	// TriggerSources is the source count below which the critic escalates
	TriggerSources = 25
	// BodyChars bounds the readable text fetched per pivot candidate
	BodyChars = 25000
)

// pivotSuffixes turn the claim into escalation queries
var pivotSuffixes = []string{
	"site:.gov",
	"site:pubmed.ncbi.nlm.nih.gov",
	"site:scholar.google.com",
	"filetype:pdf",
	"debunked false criticism",
}

// Reader fetches pages through the readable proxy
type Reader interface {
	Readable(ctx context.Context, rawURL string, maxChars int) (*fetch.Document, error)
}

// Options configures a Critic
type Options struct {
	Reader   Reader
	Backends []search.Backend   // Pivot search backends, in merge order
	Assessor *validate.Assessor // Built per run from the RunContext when nil
	Quality  *validate.QualityClassifier
	Blocked  *util.Blocklist
	Workers  int
	Logger   *zap.Logger
}

// Critic widens a shallow evidence set with pivot queries. Pivot candidates
// go through the same relevance gate as crawled pages but are neither capped
// per domain nor re-seeded.
type Critic struct {
	reader   Reader
	backends []search.Backend
	assessor *validate.Assessor
	quality  *validate.QualityClassifier
	blocked  *util.Blocklist
	workers  int
	logger   *zap.Logger
}

// New creates a Critic
func New(opts Options) *Critic {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.Blocked == nil {
		opts.Blocked = util.NewBlocklist()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Critic{
		reader:   opts.Reader,
		backends: opts.Backends,
		assessor: opts.Assessor,
		quality:  opts.Quality,
		blocked:  opts.Blocked,
		workers:  opts.Workers,
		logger:   opts.Logger,
	}
}

// Name returns the stage name
func (c *Critic) Name() string { return "critic" }

// PivotQueries returns the escalation queries for a claim
func PivotQueries(claim string) []string {
	out := make([]string, 0, len(pivotSuffixes))
	for _, s := range pivotSuffixes {
		out = append(out, claim+" "+s)
	}
	return out
}

// Run escalates when fewer than TriggerSources sources were accepted and
// always records the resulting count
func (c *Critic) Run(ctx context.Context, rc *model.RunContext) {
	if len(rc.Sources) < TriggerSources {
		rc.Log("Shallow / circular results. Pivoting to new angles:")
		rc.PivotQueries = PivotQueries(rc.Claim)

		before := len(rc.Sources)
		c.escalate(ctx, rc)
		metrics.SourcesAccepted.Observe(float64(len(rc.Sources)))
		c.logger.Info("critic escalated",
			zap.Int("before", before),
			zap.Int("after", len(rc.Sources)))
	}
	rc.Log(fmt.Sprintf("Critic: total sources after pivot %d.", len(rc.Sources)))
}

func (c *Critic) escalate(ctx context.Context, rc *model.RunContext) {
	assessor := c.assessor
	if assessor == nil {
		topic := validate.NewTopic(rc.AnchorTerms, rc.SubClaims, rc.SourceURL)
		assessor = validate.NewAssessor(validate.NewGate(c.blocked), c.quality, topic, rc.Claim)
	}

	discoverer := search.NewDiscoverer(search.Options{
		Backends: c.backends,
		Blocked:  c.blocked,
		Parallel: c.workers,
		Logger:   c.logger,
	})
	candidates := c.Candidates(rc, discoverer.Collect(ctx, rc.PivotQueries, c.backends))

	get := func(ctx context.Context, u string) (*fetch.Document, error) {
		return c.reader.Readable(ctx, u, BodyChars)
	}

	for start := 0; start < len(candidates) && len(rc.Sources) < crawl.MaxSources; start += c.workers {
		if ctx.Err() != nil {
			return
		}
		end := min(start+c.workers, len(candidates))
		wave := candidates[start:end]
		docs := crawl.Prefetch(ctx, c.workers, wave, get, c.logger)

		for _, u := range wave {
			doc, ok := docs[u]
			if !ok {
				continue
			}
			src, reason, accepted := assessor.Assess(u, util.Domain(u), doc.Text)
			if !accepted {
				c.logger.Debug("reject pivot candidate", zap.String("url", u), zap.String("reason", reason))
				continue
			}
			rc.Sources = append(rc.Sources, src)
			if len(rc.Sources) >= crawl.MaxSources {
				return
			}
		}
	}
}

// Candidates canonicalizes pivot links in order, dropping URLs already
// among the sources, repeats and blocked domains
func (c *Critic) Candidates(rc *model.RunContext, links []string) []string {
	seen := make(map[string]bool, len(rc.Sources)+len(links))
	for _, s := range rc.Sources {
		seen[s.URL] = true
	}

	var out []string
	for _, l := range links {
		cl := util.Canonical(l)
		if cl == "" || seen[cl] {
			continue
		}
		seen[cl] = true
		if c.blocked.Blocked(cl) {
			continue
		}
		out = append(out, cl)
	}
	return out
}
