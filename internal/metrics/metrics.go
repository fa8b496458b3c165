// Package metrics registers the advisor's Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mxdr_advisor"

var (
	ChatCompletionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "chat_completions_total",
			Help:      "Chat completions by outcome (ok, fallback, error)",
		},
		[]string{"outcome"},
	)

	ChatDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "chat_duration_seconds",
			Help:      "Chat completion latency in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	ImageGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "image_generations_total",
			Help:      "Image generations by provider and outcome (ok, timeout, error)",
		},
		[]string{"provider", "outcome"},
	)

	ImageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "gateway",
			Name:      "image_duration_seconds",
			Help:      "Image generation latency in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 15, 30},
		},
		[]string{"provider"},
	)

	LeadCapturesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "leads",
			Name:      "captures_total",
			Help:      "Lead captures by outcome (stored, dropped)",
		},
		[]string{"outcome"},
	)

	LeadPatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "leads",
			Name:      "patches_total",
			Help:      "Lead field updates by column",
		},
		[]string{"field"},
	)

	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Since returns the seconds elapsed since start.
func Since(start time.Time) float64 {
	return time.Since(start).Seconds()
}
