package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ppiankov/trustlens/internal/llm"
	"github.com/ppiankov/trustlens/internal/model"
	"github.com/ppiankov/trustlens/internal/pipeline"
)

// Checker runs one fact-check
type Checker interface {
	Check(ctx context.Context, req model.RunRequest) (*model.Report, error)
}

// Asker answers one chat question
type Asker interface {
	Ask(ctx context.Context, req llm.AskRequest) (*llm.Answer, error)
}

// Server is the HTTP front of the fact-check pipeline
type Server struct {
	checker   Checker
	assistant Asker
	config    model.ServerConfig
	logger    *zap.Logger
}

// New creates a server
func New(checker Checker, assistant Asker, cfg model.ServerConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		checker:   checker,
		assistant: assistant,
		config:    cfg,
		logger:    logger,
	}
}

// Router builds the gin engine with all routes
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger), CORS(s.config.AllowedOrigins))

	r.GET("/health", s.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/factcheck")
	{
		api.POST("/run", s.Run)
		api.POST("/chat", s.Chat)
	}

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", s.config.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// Health reports liveness
func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Run executes one fact-check and returns the report
func (s *Server) Run(c *gin.Context) {
	var req model.RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if s.config.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.RunTimeout)
		defer cancel()
	}

	report, err := s.checker.Check(ctx, req)
	if err != nil {
		if errors.Is(err, pipeline.ErrMissingInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s.logger.Error("fact-check failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "fact-check failed"})
		return
	}

	if report.RunID != "" {
		c.Header("X-Run-ID", report.RunID)
	}
	c.JSON(http.StatusOK, report)
}

// Chat answers a question about an attached file
func (s *Server) Chat(c *gin.Context) {
	var req llm.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	answer, err := s.assistant.Ask(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, llm.ErrEmptyQuestion) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s.logger.Error("chat failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "chat failed"})
		return
	}

	c.JSON(http.StatusOK, answer)
}
