// Package metrics exposes crawl, analysis and report counters for Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds every stockboard collector. A private registry keeps
// repeated test runs free of duplicate registration panics.
var Registry = prometheus.NewRegistry()

var (
	StepRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockboard_step_runs_total",
			Help: "Pipeline step executions",
		},
		[]string{"step", "status"}, // status: success|error
	)

	StepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stockboard_step_duration_seconds",
			Help:    "Pipeline step duration in seconds",
			Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"step"},
	)

	PostsCrawled = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stockboard_posts_crawled_total",
		Help: "Listing rows returned by board crawls",
	})

	PostsSaved = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stockboard_posts_saved_total",
		Help: "New posts written to storage",
	})

	PostsAnalyzed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockboard_posts_analyzed_total",
			Help: "Posts classified, by sentiment label",
		},
		[]string{"label"},
	)

	ContentFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockboard_content_fetches_total",
			Help: "Post body extractions",
		},
		[]string{"status"}, // status: success|empty
	)

	ReportsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stockboard_reports_generated_total",
			Help: "Report charts rendered",
		},
		[]string{"type"},
	)

	LastRun = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "stockboard_last_run_timestamp",
			Help: "Unix timestamp of the last step execution",
		},
		[]string{"step"},
	)
)

func init() {
	Registry.MustRegister(
		StepRuns,
		StepDuration,
		PostsCrawled,
		PostsSaved,
		PostsAnalyzed,
		ContentFetches,
		ReportsGenerated,
		LastRun,
	)
}

// Handler returns the Prometheus HTTP handler for Registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordStep records one pipeline step execution.
func RecordStep(step string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	StepRuns.WithLabelValues(step, status).Inc()
	StepDuration.WithLabelValues(step).Observe(duration.Seconds())
	LastRun.WithLabelValues(step).SetToCurrentTime()
}
