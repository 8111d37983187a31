package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/trustlens/internal/model"
)

// Checker runs one isolated fact-check
type Checker interface {
	Check(ctx context.Context, req model.RunRequest) (*model.Report, error)
}

// CheckJob represents one claim of a batch
type CheckJob struct {
	Index   int
	Request model.RunRequest
	Checker Checker
}

// Execute executes the check job
func (j *CheckJob) Execute(ctx context.Context) Result {
	report, err := j.Checker.Check(ctx, j.Request)
	return &CheckResult{
		Index:   j.Index,
		Request: j.Request,
		Report:  report,
		Error:   err,
	}
}

// CheckResult represents the result of a check job
type CheckResult struct {
	Index   int
	Request model.RunRequest
	Report  *model.Report
	Error   error
}

// GetError returns the error from the check result
func (r *CheckResult) GetError() error {
	return r.Error
}

// BatchProcessor checks multiple claims concurrently, one run per claim
type BatchProcessor struct {
	checker     Checker
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(checker Checker, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		checker:     checker,
		concurrency: concurrency,
	}
}

// ProcessRequests checks the requests concurrently and returns results in
// input order
func (b *BatchProcessor) ProcessRequests(ctx context.Context, reqs []model.RunRequest) []*CheckResult {
	if len(reqs) == 0 {
		return []*CheckResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, req := range reqs {
		pool.Submit(&CheckJob{
			Index:   i,
			Request: req,
			Checker: b.checker,
		})
	}

	results := pool.Wait()

	checkResults := make([]*CheckResult, len(results))
	for i, result := range results {
		if result == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			checkResults[i] = &CheckResult{Index: i, Request: reqs[i], Error: err}
			continue
		}
		checkResults[i] = result.(*CheckResult)
	}

	return checkResults
}

// ProcessFile reads claims from a file and checks them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*CheckResult, error) {
	reqs, err := ReadClaimsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read claims: %w", err)
	}

	return b.ProcessRequests(ctx, reqs), nil
}

// ReadClaimsFromFile reads one claim per line. Lines that are bare http(s)
// URLs become source URLs; blank lines and # comments are skipped and
// duplicates dropped.
func ReadClaimsFromFile(filePath string) ([]model.RunRequest, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var reqs []model.RunRequest
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if seen[line] {
			continue
		}
		seen[line] = true

		req := model.RunRequest{InputType: string(model.InputURL)}
		if isBareURL(line) {
			req.SourceURL = line
		} else {
			req.Claim = line
		}
		reqs = append(reqs, req)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return reqs, nil
}

func isBareURL(line string) bool {
	lower := strings.ToLower(line)
	return (strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")) &&
		!strings.ContainsAny(line, " \t")
}
