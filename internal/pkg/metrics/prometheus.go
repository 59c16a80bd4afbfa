package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Dispatch metrics
	DispatchRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rocketdispatch_runs_total",
			Help: "Total number of dispatcher invocations",
		},
		[]string{"dispatcher", "trigger"},
	)

	ItemsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rocketdispatch_items_processed_total",
			Help: "Total number of due items processed",
		},
		[]string{"dispatcher", "status"},
	)

	BatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rocketdispatch_batch_duration_seconds",
			Help:    "Dispatcher batch duration in seconds",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"dispatcher"},
	)

	// Generation Service metrics
	GenerationCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rocketdispatch_generation_calls_total",
			Help: "Total number of Generation Service calls",
		},
		[]string{"source", "status"},
	)

	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rocketdispatch_generation_duration_seconds",
			Help:    "Generation Service call duration in seconds",
			Buckets: []float64{.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"source"},
	)

	// Delivery metrics
	DeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rocketdispatch_deliveries_total",
			Help: "Total number of delivery rows written",
		},
		[]string{"channel", "status"},
	)

	SideEffectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rocketdispatch_side_effects_total",
			Help: "Total number of side-effect triggers (email, visualization)",
		},
		[]string{"effect", "status"},
	)

	StaleRecoveredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rocketdispatch_stale_executions_recovered_total",
			Help: "Total number of stuck executions closed by the recovery sweep",
		},
	)
)

func Handler() http.Handler {
	return promhttp.Handler()
}
