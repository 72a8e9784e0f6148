package spatial

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/quvis/engine/pkg/layout"
	"github.com/quvis/engine/pkg/logging"
	"github.com/quvis/engine/pkg/metrics"
)

// minCellSize floors per-axis cell extents so a flat or degenerate
// bounding box cannot produce zero-sized cells.
const minCellSize = 1.0

// CellKey identifies a grid cell by its discretized coordinates.
type CellKey struct {
	X int
	Y int
	Z int
}

// Cluster is a spatial aggregate of qubits for reduced-detail display.
// Clusters partition the qubit set exactly.
type Cluster struct {
	Cell      CellKey     `json:"cell"`
	Centroid  layout.Vec3 `json:"centroid"`
	MemberIDs []int       `json:"memberIds"`
	Intensity float64     `json:"intensity"`
}

// Options configures an Aggregator.
type Options struct {
	Logger  logging.Logger
	Metrics *metrics.Registry
}

// Aggregator partitions layout positions into coarse grid clusters and
// folds per-qubit window intensities into per-cluster means. Membership
// and centroids change only on Rebuild; intensities refresh cheaply per
// slice via RefreshIntensities.
type Aggregator struct {
	logger  logging.Logger
	metrics *metrics.Registry

	mu       sync.RWMutex
	clusters []Cluster
}

// New creates an Aggregator.
func New(opts Options) *Aggregator {
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	return &Aggregator{
		logger:  opts.Logger.With(logging.Component("spatial")),
		metrics: opts.Metrics,
	}
}

// Rebuild recomputes cluster membership and centroids from a fresh
// position array. Intensities reset to zero until the next refresh.
func (a *Aggregator) Rebuild(positions []layout.Vec3) {
	start := time.Now()
	clusters := buildClusters(positions)

	a.mu.Lock()
	a.clusters = clusters
	a.mu.Unlock()

	if a.metrics != nil {
		a.metrics.RecordSpatialRebuild(len(clusters), time.Since(start))
	}
	a.logger.Debug("clusters rebuilt",
		logging.Qubits(len(positions)),
		logging.Clusters(len(clusters)))
}

// RefreshIntensities recomputes each cluster's mean member intensity.
// Membership and centroids are untouched; qubit ids outside the
// intensity vector contribute zero.
func (a *Aggregator) RefreshIntensities(intensities []float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i := range a.clusters {
		c := &a.clusters[i]
		if len(c.MemberIDs) == 0 {
			c.Intensity = 0
			continue
		}
		sum := 0.0
		for _, id := range c.MemberIDs {
			if id >= 0 && id < len(intensities) {
				sum += intensities[id]
			}
		}
		c.Intensity = sum / float64(len(c.MemberIDs))
	}
}

// Clusters returns a copy of the current aggregation.
func (a *Aggregator) Clusters() []Cluster {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]Cluster, len(a.clusters))
	copy(out, a.clusters)
	for i := range out {
		members := make([]int, len(out[i].MemberIDs))
		copy(members, out[i].MemberIDs)
		out[i].MemberIDs = members
	}
	return out
}

// buildClusters assigns every qubit to a grid cell keyed from its
// discretized coordinates and averages member positions into centroids.
func buildClusters(positions []layout.Vec3) []Cluster {
	if len(positions) == 0 {
		return nil
	}

	// Bounding box of all positions
	min, max := positions[0], positions[0]
	for _, p := range positions[1:] {
		min.X = math.Min(min.X, p.X)
		min.Y = math.Min(min.Y, p.Y)
		min.Z = math.Min(min.Z, p.Z)
		max.X = math.Max(max.X, p.X)
		max.Y = math.Max(max.Y, p.Y)
		max.Z = math.Max(max.Z, p.Z)
	}

	// Grid resolution targets roughly one cluster per four qubits
	target := len(positions) / 4
	if target < 1 {
		target = 1
	}
	divisions := int(math.Ceil(math.Cbrt(float64(target))))
	if divisions < 1 {
		divisions = 1
	}

	cellX := cellSize(max.X-min.X, divisions)
	cellY := cellSize(max.Y-min.Y, divisions)
	cellZ := cellSize(max.Z-min.Z, divisions)

	byCell := make(map[CellKey]*Cluster)
	for id, p := range positions {
		key := CellKey{
			X: cellIndex(p.X-min.X, cellX, divisions),
			Y: cellIndex(p.Y-min.Y, cellY, divisions),
			Z: cellIndex(p.Z-min.Z, cellZ, divisions),
		}
		c, ok := byCell[key]
		if !ok {
			c = &Cluster{Cell: key}
			byCell[key] = c
		}
		c.MemberIDs = append(c.MemberIDs, id)
		c.Centroid = c.Centroid.Add(p)
	}

	clusters := make([]Cluster, 0, len(byCell))
	for _, c := range byCell {
		c.Centroid = c.Centroid.Scale(1 / float64(len(c.MemberIDs)))
		clusters = append(clusters, *c)
	}
	sort.Slice(clusters, func(i, j int) bool {
		a, b := clusters[i].Cell, clusters[j].Cell
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})
	return clusters
}

func cellSize(extent float64, divisions int) float64 {
	size := extent / float64(divisions)
	if size < minCellSize {
		return minCellSize
	}
	return size
}

func cellIndex(offset, size float64, divisions int) int {
	idx := int(offset / size)
	if idx < 0 {
		return 0
	}
	if idx >= divisions {
		return divisions - 1
	}
	return idx
}
