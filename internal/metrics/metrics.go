package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Run metrics
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trustlens_runs_total",
			Help: "Total number of completed fact-check runs by verdict",
		},
		[]string{"verdict"},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trustlens_run_duration_seconds",
			Help:    "Fact-check run duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trustlens_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 15, 60, 180},
		},
		[]string{"stage"},
	)

	SourcesAccepted = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trustlens_sources_accepted",
			Help:    "Number of sources accepted per run",
			Buckets: []float64{0, 5, 10, 15, 20, 25, 30, 35},
		},
	)

	// Collaborator metrics
	FetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trustlens_fetches_total",
			Help: "Outbound fetches by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	BackendLinks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trustlens_backend_links_total",
			Help: "Candidate links returned by each discovery backend",
		},
		[]string{"backend"},
	)

	// Chat metrics
	ChatAnswers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trustlens_chat_answers_total",
			Help: "Chat answers by mode and origin (llm or fallback)",
		},
		[]string{"mode", "origin"},
	)
)
