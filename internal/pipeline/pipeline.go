package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ppiankov/trustlens/internal/cache"
	"github.com/ppiankov/trustlens/internal/crawl"
	"github.com/ppiankov/trustlens/internal/critic"
	"github.com/ppiankov/trustlens/internal/decompose"
	"github.com/ppiankov/trustlens/internal/extract"
	"github.com/ppiankov/trustlens/internal/fetch"
	"github.com/ppiankov/trustlens/internal/metrics"
	"github.com/ppiankov/trustlens/internal/model"
	"github.com/ppiankov/trustlens/internal/plan"
	"github.com/ppiankov/trustlens/internal/score"
	"github.com/ppiankov/trustlens/internal/search"
	"github.com/ppiankov/trustlens/internal/util"
	"github.com/ppiankov/trustlens/internal/validate"
	"github.com/ppiankov/trustlens/internal/worker"
)

// ErrMissingInput is returned when a request has neither a claim nor a
// source URL
var ErrMissingInput = errors.New("claim or source_url is required")

// Response caps
const (
	MaxSources         = crawl.MaxSources
	MaxSubClaims       = decompose.MaxSubClaims
	MaxRecommendations = score.MaxRecommendations
	// thinConfidenceCeiling bounds the confidence of a thin-evidence report
	thinConfidenceCeiling = 45
)

// Stage is one step of a run. Stages never fail: collaborator errors are
// collapsed to empty results and recorded on the timeline or in the logs.
type Stage interface {
	Name() string
	Run(ctx context.Context, rc *model.RunContext)
}

// Pipeline runs fact-checks. It holds no per-run state, so one Pipeline may
// serve concurrent runs.
type Pipeline struct {
	config  *model.Config
	client  *http.Client
	blocked *util.Blocklist
	quality *validate.QualityClassifier
	logger  *zap.Logger
}

// Option customizes a Pipeline
type Option func(*Pipeline)

// WithHTTPClient replaces the outbound HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(p *Pipeline) { p.client = client }
}

// WithLogger sets the base logger; runs log through a child carrying run_id
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config, opts ...Option) *Pipeline {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	p := &Pipeline{
		config:  cfg,
		blocked: util.NewBlocklist(blockedHosts(cfg.Backends)...),
		quality: validate.NewQualityClassifier(&cfg.Authority),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.client == nil {
		p.client = util.NewHTTPClient(cfg.HTTP)
	}
	return p
}

// blockedHosts lists the configured backend endpoints that must never be
// accepted as evidence. Encyclopedia articles are evidence, so its host
// stays allowed.
func blockedHosts(b model.BackendsConfig) []string {
	hosts := []string{b.ReaderURL, b.FeedURL, b.InstantAnswerURL}
	hosts = append(hosts, b.ImageSearchURLs...)
	return append(hosts, b.ExtraBlocked...)
}

// Blocklist returns the blocklist shared by all runs
func (p *Pipeline) Blocklist() *util.Blocklist { return p.blocked }

// Check runs the full fact-check for one request
func (p *Pipeline) Check(ctx context.Context, req model.RunRequest) (*model.Report, error) {
	req.Claim = extract.Normalize(req.Claim)
	req.SourceURL = extract.Normalize(req.SourceURL)
	req.Context = extract.Normalize(req.Context)
	req.FileName = extract.Normalize(req.FileName)
	if req.Claim == "" && req.SourceURL == "" {
		return nil, ErrMissingInput
	}

	start := time.Now()
	runID := uuid.NewString()
	logger := p.logger.With(zap.String("run_id", runID))
	logger.Info("run started",
		zap.String("claim", extract.Truncate(req.Claim, 120)),
		zap.String("source_url", req.SourceURL),
		zap.String("input_type", req.InputType))

	rc := model.NewRunContext(req)
	f, runCache := p.newFetcher(logger)
	for _, stage := range p.stages(f, logger) {
		stageStart := time.Now()
		stage.Run(ctx, rc)
		elapsed := time.Since(stageStart)

		metrics.StageDuration.WithLabelValues(stage.Name()).Observe(elapsed.Seconds())
		logger.Debug("stage finished",
			zap.String("stage", stage.Name()),
			zap.Duration("elapsed", elapsed))
	}

	if runCache != nil {
		stats := runCache.Stats()
		logger.Debug("run cache",
			zap.Int64("hits", stats.Hits),
			zap.Int64("misses", stats.Misses),
			zap.Int("entries", stats.Entries))
	}

	report := Finalize(rc, time.Since(start))
	report.RunID = runID

	metrics.RunsTotal.WithLabelValues(string(report.Verdict)).Inc()
	metrics.RunDuration.Observe(time.Since(start).Seconds())
	logger.Info("run finished",
		zap.String("verdict", string(report.Verdict)),
		zap.Int("confidence", report.Confidence),
		zap.Int("sources", report.SourceCount),
		zap.Duration("elapsed", time.Since(start)))

	return report, nil
}

// newFetcher builds the fetcher of one run. Its cache, rate limiter and
// robots.txt memory live only as long as the run.
func (p *Pipeline) newFetcher(logger *zap.Logger) (*fetch.Fetcher, *cache.RunCache) {
	cfg := p.config
	opts := fetch.Options{
		Client:    p.client,
		HTTP:      cfg.HTTP,
		ReaderURL: cfg.Backends.ReaderURL,
		Limiter:   worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize),
		Logger:    logger,
	}
	var runCache *cache.RunCache
	if cfg.Cache.Enabled {
		runCache = cache.NewRunCache(cfg.Cache.TTL)
		opts.Cache = runCache
	}
	if cfg.Crawl.RespectRobots {
		opts.Robots = util.NewRobots(p.client, cfg.HTTP.UserAgent, cfg.HTTP.DirectTimeout)
	}
	return fetch.New(opts), runCache
}

// stages returns the ordered stages of one run
func (p *Pipeline) stages(f *fetch.Fetcher, logger *zap.Logger) []Stage {
	b := p.config.Backends
	workers := p.config.Crawl.Workers

	feed := search.NewFeedBackend(f, b.FeedURL)
	instant := search.NewInstantAnswerBackend(f, b.InstantAnswerURL)
	encyclopedia := search.NewEncyclopediaBackend(f, b.EncyclopediaAPI, b.EncyclopediaWiki)

	return []Stage{
		decompose.New(f, logger),
		plan.New(),
		search.NewDiscoverer(search.Options{
			Backends: []search.Backend{feed, instant, encyclopedia},
			Image:    search.NewImageBackend(f, b.ImageSearchURLs),
			Blocked:  p.blocked,
			Parallel: workers,
			Logger:   logger,
		}),
		crawl.New(crawl.Options{
			Fetcher: f,
			Quality: p.quality,
			Blocked: p.blocked,
			Workers: workers,
			Logger:  logger,
		}),
		critic.New(critic.Options{
			Reader:   f,
			Backends: []search.Backend{feed, instant},
			Quality:  p.quality,
			Blocked:  p.blocked,
			Workers:  workers,
			Logger:   logger,
		}),
		score.NewSynthesizer(logger),
	}
}

// Finalize converts a completed run into its report: the claim falls back to
// the source URL, thin evidence caps the verdict at Unverifiable, the total
// runtime closes the timeline and lists are capped
func Finalize(rc *model.RunContext, elapsed time.Duration) *model.Report {
	claim := rc.Claim
	if claim == "" {
		claim = rc.SourceURL
	}

	sources := rc.Sources
	if len(sources) > MaxSources {
		sources = sources[:MaxSources]
	}

	verdict, confidence := rc.Verdict, rc.Confidence
	if len(sources) < score.MinSources {
		verdict = model.VerdictUnverifiable
		confidence = min(confidence, thinConfidenceCeiling)
	}

	timeline := append(append([]string{}, rc.Timeline...), fmt.Sprintf("Total runtime %d ms.", elapsed.Milliseconds()))

	recs := rc.Recommendations
	if len(recs) > MaxRecommendations {
		recs = recs[:MaxRecommendations]
	}

	return &model.Report{
		Claim:           claim,
		Verdict:         verdict,
		Confidence:      confidence,
		Timeline:        timeline,
		SourceCount:     len(sources),
		Sources:         nonNil(sources),
		SubClaims:       nonNil(extract.Head(rc.SubClaims, MaxSubClaims)),
		Table:           nonNil(rc.Table),
		Gaps:            nonNil(rc.Gaps),
		Recommendations: nonNil(recs),
	}
}

// nonNil keeps empty lists rendering as [] instead of null
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
