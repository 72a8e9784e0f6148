package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initLayoutMetrics() {
	r.LayoutRunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "quvis_layout_runs_total",
			Help: "Total number of layout computations by outcome",
		},
		[]string{"result"}, // completed, superseded, cancelled, failed
	)

	r.LayoutRunDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quvis_layout_run_duration_seconds",
			Help:    "Duration of completed layout computations",
			Buckets: []float64{0.01, 0.1, 0.5, 1.0, 5.0, 15.0, 60.0},
		},
	)

	r.LayoutRunsInFlight = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "quvis_layout_runs_in_flight",
			Help: "Number of layout computations currently running (0 or 1 per engine)",
		},
	)

	r.LayoutIterations = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quvis_layout_iterations",
			Help:    "Relaxation iterations executed per completed run",
			Buckets: []float64{10, 50, 100, 250, 500, 1000},
		},
	)
}
