package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the engine
type Registry struct {
	// Interaction history metrics
	HistorySlicesProcessed prometheus.Counter
	HistoryBatchesTotal    prometheus.Counter
	HistoryIngestDuration  prometheus.Histogram
	HistoryDatasetQubits   prometheus.Gauge
	HistoryDatasetSlices   prometheus.Gauge
	HistoryQueriesTotal    *prometheus.CounterVec

	// Layout metrics
	LayoutRunsTotal    *prometheus.CounterVec
	LayoutRunDuration  prometheus.Histogram
	LayoutRunsInFlight prometheus.Gauge
	LayoutIterations   prometheus.Histogram

	// Spatial cluster metrics
	SpatialClustersTotal  prometheus.Gauge
	SpatialRebuildsTotal  prometheus.Counter
	SpatialRebuildSeconds prometheus.Histogram

	registry *prometheus.Registry
	mu       sync.RWMutex
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
	}

	r.initHistoryMetrics()
	r.initLayoutMetrics()
	r.initSpatialMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
