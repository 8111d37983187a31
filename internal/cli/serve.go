package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/trustlens/internal/llm"
	"github.com/ppiankov/trustlens/internal/pipeline"
	"github.com/ppiankov/trustlens/internal/server"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the fact-check HTTP service",
	Long: `Serve exposes the pipeline over HTTP:
  GET  /health              liveness
  POST /api/factcheck/run   run one fact-check
  POST /api/factcheck/chat  ask the assistant about an attached file
  GET  /metrics             Prometheus metrics

The chat assistant uses the configured LLM provider (a GROQ_API_KEY alone
selects Groq) and falls back to templated answers without one.

Example:
  trustlens serve
  PORT=9000 trustlens serve
  trustlens serve --addr 127.0.0.1:8000 --workers 8`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config or PORT)")
	addRunFlags(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := runConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr = serveAddr
	}

	logger := newLogger(true)
	defer func() { _ = logger.Sync() }()

	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg))
	if err != nil {
		return fmt.Errorf("configure LLM provider: %w", err)
	}
	if provider != nil {
		logger.Info("chat provider configured", zap.String("provider", provider.Name()))
	} else {
		logger.Info("no chat provider configured, using fallback answers")
	}

	p := pipeline.NewPipeline(cfg, pipeline.WithLogger(logger))
	srv := server.New(p, llm.NewAssistant(provider, logger), cfg.Server, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.ListenAndServe(ctx)
}
