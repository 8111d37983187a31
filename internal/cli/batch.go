package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/trustlens/internal/extract"
	"github.com/ppiankov/trustlens/internal/pipeline"
	"github.com/ppiankov/trustlens/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	// noFooter is defined in check.go and shared here
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Check multiple claims from a file in parallel",
	Long: `Batch checks many claims concurrently:
- Read claims from the input file (one per line, bare URLs become source URLs)
- Run each claim in its own isolated fact-check
- Generate a JSON and Markdown report per claim

Example:
  trustlens batch claims.txt
  trustlens batch claims.txt --concurrency 4 --output-dir ./reports
  trustlens batch claims.txt --concurrency 2 --timeout 30m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	// Concurrency flags
	batchCmd.Flags().IntVar(&concurrency, "concurrency", min(runtime.NumCPU(), 4), "number of claims checked at once")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./trustlens-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	addRunFlags(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg, err := runConfig(cmd)
	if err != nil {
		return err
	}

	banner(os.Stderr, "TrustLens Batch Processing")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n  Workers:      %d\n  Output dir:   %s\n  Timeout:      %v\n\n",
		file, concurrency, outputDir, batchTimeout)

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	logger := newLogger(false)
	defer func() { _ = logger.Sync() }()

	p := pipeline.NewPipeline(cfg, pipeline.WithLogger(logger))
	results, err := worker.NewBatchProcessor(p, concurrency).ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	failures := 0
	for _, res := range results {
		label := firstNonEmpty(res.Request.Claim, res.Request.SourceURL)
		if err := writeReports(renderer, res); err != nil {
			failures++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", label, err)
			continue
		}
		fmt.Fprintf(os.Stderr, "✓ %s (%s, %d%%, %d sources)\n",
			label, res.Report.Verdict, res.Report.Confidence, res.Report.SourceCount)
	}

	banner(os.Stderr, "Batch Complete")
	fmt.Fprintf(os.Stderr, "  Total:     %d claims\n  Success:   %d\n  Failures:  %d\n  Output:    %s\n\n",
		len(results), len(results)-failures, failures, outputDir)
	return nil
}

// writeReports writes the JSON and Markdown reports of one batch entry,
// named after its position and label
func writeReports(r *pipeline.Renderer, res *worker.CheckResult) error {
	if res.Error != nil {
		return res.Error
	}
	label := firstNonEmpty(res.Request.Claim, res.Request.SourceURL)
	stem := filepath.Join(outputDir, fmt.Sprintf("%03d-%s", res.Index+1, sanitizeFilename(label)))

	if err := r.RenderJSON(res.Report, stem+".json"); err != nil {
		return fmt.Errorf("write JSON: %w", err)
	}
	if err := r.RenderMarkdown(res.Report, stem+".md"); err != nil {
		return fmt.Errorf("write Markdown: %w", err)
	}
	return nil
}

// banner prints a boxed section title
func banner(w io.Writer, title string) {
	const rule = "═══════════════════════════════════════════════════════════"
	fmt.Fprintf(w, "\n%s\n  %s\n%s\n\n", rule, title, rule)
}

// filenameReplacer maps characters that are unsafe in file names
var filenameReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	" ", "-",
)

// sanitizeFilename turns a claim or URL into a safe file name
func sanitizeFilename(s string) string {
	s = filenameReplacer.Replace(strings.TrimSpace(s))
	s = strings.Trim(s, ".-_")

	s = extract.Truncate(s, 80)
	if s == "" {
		return "report"
	}
	return s
}
