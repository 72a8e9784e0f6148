package engine

import (
	"sync"

	"github.com/google/uuid"

	"github.com/quvis/engine/pkg/circuit"
	"github.com/quvis/engine/pkg/config"
	"github.com/quvis/engine/pkg/history"
	"github.com/quvis/engine/pkg/layout"
	"github.com/quvis/engine/pkg/logging"
	"github.com/quvis/engine/pkg/metrics"
	"github.com/quvis/engine/pkg/spatial"
	"github.com/quvis/engine/pkg/validation"
)

// Engine owns one loaded circuit view: its interaction history, its
// layout, and its spatial aggregation. A view switch discards and
// reallocates all of that state; layout parameters survive the switch.
type Engine struct {
	cfg     config.Config
	logger  logging.Logger
	metrics *metrics.Registry

	mu           sync.RWMutex
	adoptSeq     uint64
	runID        string
	dataset      *circuit.Dataset
	history      *history.History
	layout       *layout.Engine
	spatial      *spatial.Aggregator
	currentSlice int
	window       history.Window
	intensityBuf []float64
}

// New creates an Engine with no dataset loaded.
func New(cfg config.Config, logger logging.Logger, reg *metrics.Registry) *Engine {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Engine{
		cfg:     cfg,
		logger:  logger,
		metrics: reg,
		window:  history.Unbounded(),
		layout: layout.New(layout.Options{
			Params:  cfg.Layout,
			Seed:    cfg.Seed,
			Logger:  logger,
			Metrics: reg,
		}),
		spatial: spatial.New(spatial.Options{Logger: logger, Metrics: reg}),
	}
}

// LoadDataset validates and installs a dataset, starts its background
// ingestion, and kicks off an initial layout run. Prior view state is
// discarded; layout parameters carry over.
func (e *Engine) LoadDataset(ds *circuit.Dataset) (*layout.Run, error) {
	if err := validation.ValidateDataset(ds); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger := e.logger.With(logging.RunID(runID))

	hist, err := history.New(history.Options{
		BatchSize: e.cfg.History.BatchSize,
		DecayBase: e.cfg.History.DecayBase,
		Logger:    logger,
		Metrics:   e.metrics,
	})
	if err != nil {
		return nil, err
	}

	adjacency := ds.Adjacency()
	if err := hist.Ingest(ds, adjacency); err != nil {
		hist.Close()
		return nil, err
	}

	e.mu.Lock()
	old := e.history
	e.runID = runID
	e.dataset = ds
	e.history = hist
	e.currentSlice = 0
	e.intensityBuf = make([]float64, ds.NumQubits)
	e.adoptSeq++
	seq := e.adoptSeq
	e.mu.Unlock()

	if old != nil {
		old.Close()
	}

	e.layout.SetGraph(ds.NumQubits, adjacency)
	run := e.layout.Compute()
	go e.adoptLayout(seq, run)

	logger.Info("dataset loaded",
		logging.String("view", string(ds.View)),
		logging.Qubits(ds.NumQubits),
		logging.Slices(len(ds.Slices)),
		logging.Edges(len(adjacency)))
	return run, nil
}

// adoptLayout rebuilds the spatial aggregation once a layout run
// completes. Superseded and cancelled runs change nothing, and a run
// outlived by a newer load or recompute request is skipped so clusters
// never lag behind the published layout.
func (e *Engine) adoptLayout(seq uint64, run *layout.Run) {
	<-run.Done()
	if run.Status() != layout.RunCompleted {
		return
	}
	e.mu.RLock()
	stale := seq != e.adoptSeq
	e.mu.RUnlock()
	if stale {
		return
	}
	e.spatial.Rebuild(run.Positions())
	e.spatial.RefreshIntensities(e.Intensities())
}

// SetCurrentSlice moves the timeline cursor. Negative values clamp to 0.
func (e *Engine) SetCurrentSlice(t int) {
	if t < 0 {
		t = 0
	}
	e.mu.Lock()
	e.currentSlice = t
	e.mu.Unlock()
	e.spatial.RefreshIntensities(e.Intensities())
}

// SetWindow changes the trailing window used for intensity queries.
func (e *Engine) SetWindow(w history.Window) {
	e.mu.Lock()
	e.window = w
	e.mu.Unlock()
	e.spatial.RefreshIntensities(e.Intensities())
}

// Window returns the active query window.
func (e *Engine) Window() history.Window {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.window
}

// Intensities returns the per-qubit normalized activity for the active
// window at the current slice. Safe to call mid-ingest; values clamp to
// the processed frontier.
func (e *Engine) Intensities() []float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.history == nil {
		return nil
	}
	e.intensityBuf = e.history.IntensitiesInto(e.intensityBuf, e.currentSlice, e.window)
	out := make([]float64, len(e.intensityBuf))
	copy(out, e.intensityBuf)
	return out
}

// QueryEntityWindow proxies a single-qubit window query.
func (e *Engine) QueryEntityWindow(qubit int) (inWindow, total int) {
	e.mu.RLock()
	hist, t, w := e.history, e.currentSlice, e.window
	e.mu.RUnlock()
	if hist == nil {
		return 0, 0
	}
	return hist.QueryEntityWindow(qubit, t, w)
}

// QueryWeightedPairSeries proxies the full weighted series for an edge,
// for scale and legend rendering.
func (e *Engine) QueryWeightedPairSeries(a, b int) []float64 {
	e.mu.RLock()
	hist := e.history
	e.mu.RUnlock()
	if hist == nil {
		return nil
	}
	return hist.QueryWeightedPairSeries(a, b)
}

// Positions returns the latest completed layout.
func (e *Engine) Positions() []layout.Vec3 {
	return e.layout.Positions()
}

// Clusters returns the current spatial aggregation.
func (e *Engine) Clusters() []spatial.Cluster {
	return e.spatial.Clusters()
}

// UpdateLayoutParams validates and merges a partial parameter update.
// Recomputation stays caller-triggered via RecomputeLayout.
func (e *Engine) UpdateLayoutParams(u layout.Update) (layout.Params, error) {
	req := validation.LayoutRequest{
		RepelForce:    u.RepelForce,
		AttractForce:  u.AttractForce,
		IdealDistance: u.IdealDistance,
		Iterations:    u.Iterations,
		CoolingFactor: u.CoolingFactor,
		CoreDistance:  u.CoreDistance,
	}
	if err := validation.ValidateLayoutRequest(&req); err != nil {
		return e.layout.Params(), err
	}
	return e.layout.UpdateParams(u)
}

// RecomputeLayout starts a fresh layout run, superseding any in flight,
// and rebuilds clusters when it completes.
func (e *Engine) RecomputeLayout() *layout.Run {
	run := e.layout.Compute()
	e.mu.Lock()
	e.adoptSeq++
	seq := e.adoptSeq
	e.mu.Unlock()
	go e.adoptLayout(seq, run)
	return run
}

// SyncClusters rebuilds the spatial aggregation from the currently
// published layout, synchronously. Useful for one-shot consumers that
// cannot wait on the interactive rebuild.
func (e *Engine) SyncClusters() {
	positions := e.layout.Positions()
	if len(positions) == 0 {
		return
	}
	e.spatial.Rebuild(positions)
	e.spatial.RefreshIntensities(e.Intensities())
}

// CancelLayout stops any in-flight layout run; the previous layout
// stays published.
func (e *Engine) CancelLayout() {
	e.layout.Cancel()
}

// Progress reports ingestion progress for UI feedback.
func (e *Engine) Progress() (processedSlices int, isFullyLoaded bool) {
	e.mu.RLock()
	hist := e.history
	e.mu.RUnlock()
	if hist == nil {
		return 0, false
	}
	return hist.ProcessedSlices(), hist.IsComplete()
}

// IngestDone exposes the current ingestion's completion channel.
func (e *Engine) IngestDone() <-chan struct{} {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.history == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return e.history.Done()
}

// RunID identifies the currently loaded view for log correlation.
func (e *Engine) RunID() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.runID
}

// Dataset returns the loaded dataset, or nil.
func (e *Engine) Dataset() *circuit.Dataset {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dataset
}

// Close releases the background workers.
func (e *Engine) Close() {
	e.layout.Cancel()
	e.mu.Lock()
	hist := e.history
	e.history = nil
	e.mu.Unlock()
	if hist != nil {
		hist.Close()
	}
}
