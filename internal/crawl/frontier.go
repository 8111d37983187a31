package crawl

import (
	"sort"
	"strings"
	"sync"

	"github.com/ppiankov/trustlens/internal/extract"
	"github.com/ppiankov/trustlens/internal/util"
)

// Crawl caps
const (
	MaxSeeds      = 120
	MaxSources    = 35
	MaxIterations = 220
	MaxPerDomain  = 4
	MaxReseeds    = 8
)

// Skip reasons returned by Frontier.Visit
const (
	SkipAccepted  = "already accepted"
	SkipBlocked   = "blocked domain"
	SkipDomainCap = "domain cap reached"
)

// Frontier is the FIFO queue of candidate URLs together with the accepted set
// and per-domain counts. Safe for concurrent use.
type Frontier struct {
	mu           sync.Mutex
	queue        []string
	accepted     map[string]bool
	domains      map[string]int
	iterations   int
	blocked      *util.Blocklist
	sourceDomain string
}

// NewFrontier seeds a frontier with the first MaxSeeds links
func NewFrontier(seeds []string, blocked *util.Blocklist, sourceURL string) *Frontier {
	if blocked == nil {
		blocked = util.NewBlocklist()
	}
	f := &Frontier{
		queue:    append([]string(nil), extract.Head(seeds, MaxSeeds)...),
		accepted: make(map[string]bool),
		domains:  make(map[string]int),
		blocked:  blocked,
	}
	if sourceURL != "" {
		f.sourceDomain = util.Domain(sourceURL)
	}
	return f
}

// Done reports whether the crawl must stop
func (f *Frontier) Done() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.done()
}

func (f *Frontier) done() bool {
	return len(f.queue) == 0 || len(f.accepted) >= MaxSources || f.iterations >= MaxIterations
}

// Pop removes up to n URLs from the front of the queue, never more than the
// iterations left
func (f *Frontier) Pop(n int) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.done() {
		return nil
	}
	if left := MaxIterations - f.iterations; n > left {
		n = left
	}
	if n > len(f.queue) {
		n = len(f.queue)
	}
	out := make([]string, n)
	for i := range out {
		out[i] = util.Canonical(f.queue[i])
	}
	f.queue = f.queue[n:]
	return out
}

// Skip reports why a canonical URL would be skipped now, or "" if it would
// be fetched. Does not count an iteration.
func (f *Frontier) Skip(canonicalURL string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.skip(canonicalURL)
}

func (f *Frontier) skip(canonicalURL string) string {
	if f.accepted[canonicalURL] {
		return SkipAccepted
	}
	if f.blocked.Blocked(canonicalURL) {
		return SkipBlocked
	}
	if f.domains[util.Domain(canonicalURL)] >= MaxPerDomain {
		return SkipDomainCap
	}
	return ""
}

// Visit counts one iteration for a popped URL and returns its skip reason.
// It reports ok=false once a cap has been reached; the URL must then be
// dropped unprocessed.
func (f *Frontier) Visit(canonicalURL string) (reason string, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.accepted) >= MaxSources || f.iterations >= MaxIterations {
		return "", false
	}
	f.iterations++
	return f.skip(canonicalURL), true
}

// Accept records an accepted source
func (f *Frontier) Accept(canonicalURL string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.accepted[canonicalURL] {
		return
	}
	f.accepted[canonicalURL] = true
	f.domains[util.Domain(canonicalURL)]++
}

// Reseed appends up to MaxReseeds of the links found on an accepted page to
// the back of the queue, links on the source domain first. It returns the
// number queued.
func (f *Frontier) Reseed(links []string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	var ranked []string
	for _, l := range links {
		c := util.Canonical(l)
		if util.Domain(c) == "" || f.accepted[c] || f.blocked.Blocked(c) {
			continue
		}
		ranked = append(ranked, c)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return f.sameSource(ranked[i]) && !f.sameSource(ranked[j])
	})

	ranked = extract.Head(ranked, MaxReseeds)
	f.queue = append(f.queue, ranked...)
	return len(ranked)
}

func (f *Frontier) sameSource(u string) bool {
	return f.sourceDomain != "" && strings.HasSuffix(util.Domain(u), f.sourceDomain)
}

// Accepted returns the number of accepted sources
func (f *Frontier) Accepted() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.accepted)
}

// DomainCount returns how many sources a domain contributed
func (f *Frontier) DomainCount(domain string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.domains[domain]
}

// Iterations returns the number of URLs visited so far
func (f *Frontier) Iterations() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.iterations
}

// Len returns the queue length
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}
