package worker

import (
	"context"
	"sync"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

// Pool runs jobs on a fixed number of goroutines. Wait returns results in
// submission order however the jobs interleave, so a caller that consumes
// them in order gets the same output for any worker count.
type Pool struct {
	ctx     context.Context
	cancel  context.CancelFunc
	workers int
	queue   chan queued
	wg      sync.WaitGroup

	mu      sync.Mutex
	results []Result
}

type queued struct {
	index int
	job   Job
}

// NewPool creates a pool bound to ctx with the given number of workers
func NewPool(ctx context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, cancel := context.WithCancel(ctx)

	return &Pool{
		ctx:     ctx,
		cancel:  cancel,
		workers: workers,
		queue:   make(chan queued, workers*2),
	}
}

// Start launches the workers
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run()
	}
}

func (p *Pool) run() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case q, ok := <-p.queue:
			if !ok {
				return
			}
			result := q.job.Execute(p.ctx)
			p.mu.Lock()
			p.results[q.index] = result
			p.mu.Unlock()
		}
	}
}

// Submit queues a job and returns its position in the Wait output. A job
// submitted after the pool's context is done never runs and its slot stays
// nil.
func (p *Pool) Submit(job Job) int {
	p.mu.Lock()
	index := len(p.results)
	p.results = append(p.results, nil)
	p.mu.Unlock()

	select {
	case <-p.ctx.Done():
	case p.queue <- queued{index: index, job: job}:
	}
	return index
}

// Wait waits for the submitted jobs and returns their results in submission
// order. Jobs dropped by cancellation have nil results.
func (p *Pool) Wait() []Result {
	close(p.queue)
	p.wg.Wait()
	p.cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Result, len(p.results))
	copy(out, p.results)
	return out
}

// Shutdown cancels queued jobs and waits for running ones to return
func (p *Pool) Shutdown() {
	p.cancel()
	p.wg.Wait()
}
