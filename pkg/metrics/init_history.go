package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initHistoryMetrics() {
	r.HistorySlicesProcessed = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "quvis_history_slices_processed_total",
			Help: "Total number of circuit slices folded into the interaction tables",
		},
	)

	r.HistoryBatchesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "quvis_history_batches_total",
			Help: "Total number of slice batches processed",
		},
	)

	r.HistoryIngestDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quvis_history_ingest_duration_seconds",
			Help:    "Wall-clock duration of a full dataset ingestion",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1.0, 5.0, 30.0},
		},
	)

	r.HistoryDatasetQubits = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "quvis_history_dataset_qubits",
			Help: "Number of qubits in the currently loaded dataset",
		},
	)

	r.HistoryDatasetSlices = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "quvis_history_dataset_slices",
			Help: "Number of time slices in the currently loaded dataset",
		},
	)

	r.HistoryQueriesTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "quvis_history_queries_total",
			Help: "Total number of window queries served",
		},
		[]string{"kind"}, // entity_window, pair_series, intensities
	)
}
