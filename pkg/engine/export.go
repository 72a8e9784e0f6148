package engine

import (
	"encoding/json"

	"github.com/quvis/engine/pkg/circuit"
	"github.com/quvis/engine/pkg/layout"
	"github.com/quvis/engine/pkg/spatial"
)

// Snapshot is the renderable state of the engine at one moment:
// positions for geometry, intensities for the heatmap, clusters for
// reduced detail, and progress flags for UI feedback.
type Snapshot struct {
	RunID           string            `json:"run_id"`
	Name            string            `json:"name,omitempty"`
	View            string            `json:"view,omitempty"`
	Stats           circuit.Stats     `json:"stats"`
	CurrentSlice    int               `json:"current_slice"`
	ProcessedSlices int               `json:"processed_slices"`
	IsFullyLoaded   bool              `json:"is_fully_loaded"`
	Positions       []layout.Vec3     `json:"positions"`
	Intensities     []float64         `json:"intensities"`
	Clusters        []spatial.Cluster `json:"clusters"`
}

// Snapshot captures the engine's current renderable state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	ds := e.dataset
	runID := e.runID
	current := e.currentSlice
	e.mu.RUnlock()

	snap := Snapshot{
		RunID:        runID,
		CurrentSlice: current,
		Positions:    e.Positions(),
		Intensities:  e.Intensities(),
		Clusters:     e.Clusters(),
	}
	if ds != nil {
		snap.Name = ds.Name
		snap.View = string(ds.View)
		snap.Stats = ds.Stats()
	}
	snap.ProcessedSlices, snap.IsFullyLoaded = e.Progress()
	return snap
}

// ExportJSON marshals the snapshot for external consumers.
func (s Snapshot) ExportJSON() ([]byte, error) {
	return json.Marshal(s)
}
