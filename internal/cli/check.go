package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ppiankov/trustlens/internal/model"
	"github.com/ppiankov/trustlens/internal/pipeline"
)

var (
	sourceURL     string
	claimContext  string
	inputType     string
	fileName      string
	outJSON       string
	outMD         string
	timeout       time.Duration
	workers       int
	noCache       bool
	noFooter      bool
	insecureTLS   bool
	respectRobots bool
	httpProxy     string
	httpsProxy    string
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check [claim]",
	Short: "Fact-check a single claim or URL",
	Long: `Check runs one isolated fact-check:
- Decompose the claim into sub-claims and anchor terms
- Plan search queries and discover candidate links
- Crawl candidates under fixed source, domain and iteration caps
- Pivot to new angles when evidence is shallow
- Synthesize a verdict, evidence table, gaps and recommendations

Example:
  trustlens check "The moon landing happened in 1969"
  trustlens check --url https://example.com/story --json report.json --md report.md
  trustlens check --type image --file-name eiffel-tower-fire.jpg`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	// Input flags
	checkCmd.Flags().StringVar(&sourceURL, "url", "", "source URL to check")
	checkCmd.Flags().StringVar(&claimContext, "context", "", "extra context for the claim")
	checkCmd.Flags().StringVar(&inputType, "type", "url", "input type (url, image, document)")
	checkCmd.Flags().StringVar(&fileName, "file-name", "", "name of the uploaded file")

	// Output flags
	checkCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path (optional)")
	checkCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	checkCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	addRunFlags(checkCmd)
	checkCmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "overall run timeout")
}

// addRunFlags registers the flags shared by check and batch
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&workers, "workers", 0, "parallel fetches per crawl wave (default from config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the per-run response cache")
	cmd.Flags().BoolVar(&insecureTLS, "insecure", false, "skip TLS certificate verification (use for self-signed certs)")
	cmd.Flags().BoolVar(&respectRobots, "respect-robots", false, "honour robots.txt on direct fetches")
	cmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	cmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
}

// runConfig loads the configuration and applies the flags the user set
func runConfig(cmd *cobra.Command) (*model.Config, error) {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("workers") {
		cfg.Crawl.Workers = workers
	}
	if flags.Changed("no-cache") {
		cfg.Cache.Enabled = !noCache
	}
	if flags.Changed("insecure") {
		cfg.HTTP.InsecureTLS = insecureTLS
	}
	if flags.Changed("respect-robots") {
		cfg.Crawl.RespectRobots = respectRobots
	}
	if flags.Changed("http-proxy") {
		cfg.HTTP.HTTPProxy = httpProxy
	}
	if flags.Changed("https-proxy") {
		cfg.HTTP.HTTPSProxy = httpsProxy
	}
	if flags.Changed("no-footer") {
		cfg.Output.IncludeFooter = !noFooter
	}
	cfg.Output.Verbose = verbose

	return cfg, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	req := model.RunRequest{
		SourceURL: sourceURL,
		Context:   claimContext,
		InputType: inputType,
		FileName:  fileName,
	}
	if len(args) == 1 {
		req.Claim = args[0]
	}

	switch model.InputType(inputType) {
	case model.InputURL, model.InputImage, model.InputDocument:
	default:
		return fmt.Errorf("invalid --type %q (want url, image or document)", inputType)
	}

	cfg, err := runConfig(cmd)
	if err != nil {
		return err
	}

	logger := newLogger(false)
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Checking: %s\n", firstNonEmpty(req.Claim, req.SourceURL, req.FileName))
		fmt.Fprintf(os.Stderr, "Timeout: %v\n", timeout)
		fmt.Fprintf(os.Stderr, "Workers: %d\n", cfg.Crawl.Workers)
		fmt.Fprintf(os.Stderr, "Cache: %v\n", cfg.Cache.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	p := pipeline.NewPipeline(cfg, pipeline.WithLogger(logger))

	report, err := p.Check(ctx, req)
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}
	logger.Debug("report ready", zap.Int("sources", report.SourceCount))

	if verbose {
		for _, line := range report.Timeline {
			fmt.Fprintf(os.Stderr, "  • %s\n", line)
		}
	}

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	if outJSON != "" {
		if err := renderer.RenderJSON(report, outJSON); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ JSON report: %s\n", outJSON)
	}
	if outMD != "" {
		if err := renderer.RenderMarkdown(report, outMD); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Markdown report: %s\n", outMD)
	}
	renderer.RenderSummary(os.Stdout, report)

	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
