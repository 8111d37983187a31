package worker

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ppiankov/trustlens/internal/util"
)

// Limiter spaces out direct fetches per domain. Each run owns one, so no
// budget carries over between runs.
type Limiter struct {
	mu      sync.Mutex
	domains map[string]*rate.Limiter
	limit   rate.Limit
	burst   int
}

// NewLimiter creates a limiter. A non-positive rate disables limiting.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 5
	}

	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}

	return &Limiter{
		domains: make(map[string]*rate.Limiter),
		limit:   limit,
		burst:   burst,
	}
}

// Wait blocks until rawURL's domain has budget, then waits a further extra
// delay such as a robots.txt crawl delay
func (l *Limiter) Wait(ctx context.Context, rawURL string, extra time.Duration) error {
	if err := l.forDomain(util.Domain(rawURL)).Wait(ctx); err != nil {
		return err
	}
	if extra <= 0 {
		return nil
	}

	timer := time.NewTimer(extra)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Domains returns how many domains have been rate limited so far
func (l *Limiter) Domains() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.domains)
}

func (l *Limiter) forDomain(domain string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.domains[domain]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.domains[domain] = lim
	}
	return lim
}
