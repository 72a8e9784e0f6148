package metrics

import (
	"time"
)

// RecordBatch records one processed slice batch
func (r *Registry) RecordBatch(slices int) {
	r.HistoryBatchesTotal.Inc()
	r.HistorySlicesProcessed.Add(float64(slices))
}

// RecordIngest records a completed dataset ingestion
func (r *Registry) RecordIngest(qubits, slices int, duration time.Duration) {
	r.HistoryDatasetQubits.Set(float64(qubits))
	r.HistoryDatasetSlices.Set(float64(slices))
	r.HistoryIngestDuration.Observe(duration.Seconds())
}

// RecordQuery records a served window query
func (r *Registry) RecordQuery(kind string) {
	r.HistoryQueriesTotal.WithLabelValues(kind).Inc()
}

// RecordLayoutRun records a finished layout computation
func (r *Registry) RecordLayoutRun(result string, iterations int, duration time.Duration) {
	r.LayoutRunsTotal.WithLabelValues(result).Inc()
	if result == "completed" {
		r.LayoutRunDuration.Observe(duration.Seconds())
		r.LayoutIterations.Observe(float64(iterations))
	}
}

// RecordSpatialRebuild records a cluster membership rebuild
func (r *Registry) RecordSpatialRebuild(clusters int, duration time.Duration) {
	r.SpatialRebuildsTotal.Inc()
	r.SpatialClustersTotal.Set(float64(clusters))
	r.SpatialRebuildSeconds.Observe(duration.Seconds())
}
