package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initSpatialMetrics() {
	r.SpatialClustersTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "quvis_spatial_clusters_total",
			Help: "Number of spatial clusters in the current aggregation",
		},
	)

	r.SpatialRebuildsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "quvis_spatial_rebuilds_total",
			Help: "Total number of cluster membership rebuilds",
		},
	)

	r.SpatialRebuildSeconds = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quvis_spatial_rebuild_duration_seconds",
			Help:    "Duration of cluster membership rebuilds",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1.0},
		},
	)
}
