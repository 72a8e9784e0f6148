package layout

import (
	"sync"
	"time"

	"github.com/quvis/engine/pkg/circuit"
	"github.com/quvis/engine/pkg/logging"
	"github.com/quvis/engine/pkg/metrics"
)

// RunStatus is the terminal state of a layout computation.
type RunStatus string

const (
	// RunCompleted means the run finished and its result was published
	RunCompleted RunStatus = "completed"
	// RunSuperseded means a newer request invalidated the run
	RunSuperseded RunStatus = "superseded"
	// RunCancelled means the run was cancelled before finishing
	RunCancelled RunStatus = "cancelled"
	// RunFailed means the run errored; the previous layout is retained
	RunFailed RunStatus = "failed"
)

// Run is a handle to one layout computation. Status and Positions are
// valid once Done is closed.
type Run struct {
	done      chan struct{}
	status    RunStatus
	positions []Vec3
}

// Done returns a channel closed when the run reaches a terminal state.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Status returns the run's terminal state.
func (r *Run) Status() RunStatus {
	return r.status
}

// Positions returns the run's result; nil unless Status is RunCompleted.
func (r *Run) Positions() []Vec3 {
	return r.positions
}

// Options configures an Engine.
type Options struct {
	Params  Params
	Seed    int64
	Logger  logging.Logger
	Metrics *metrics.Registry
}

// Engine computes 3D qubit positions via force-directed relaxation,
// off the caller's path. At most one computation is in flight; a new
// request supersedes a running one and consumers only ever observe the
// most recent request's result. The last successfully computed layout
// is retained until a newer run completes.
type Engine struct {
	logger  logging.Logger
	metrics *metrics.Registry
	seed    int64

	mu         sync.Mutex
	params     Params
	numQubits  int
	edges      []circuit.Edge
	positions  []Vec3
	generation uint64
	cancel     chan struct{}
	running    bool

	updates chan []Vec3
}

// New creates an Engine. Zero params take the tuned defaults.
func New(opts Options) *Engine {
	if (opts.Params == Params{}) {
		opts.Params = DefaultParams()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}
	return &Engine{
		logger:  opts.Logger.With(logging.Component("layout")),
		metrics: opts.Metrics,
		seed:    opts.Seed,
		params:  opts.Params,
		updates: make(chan []Vec3, 1),
	}
}

// SetGraph installs the qubit count and adjacency the next computation
// will lay out. It does not start a run.
func (e *Engine) SetGraph(numQubits int, edges []circuit.Edge) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.numQubits = numQubits
	e.edges = append([]circuit.Edge(nil), edges...)
}

// Params returns the current parameter set.
func (e *Engine) Params() Params {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.params
}

// UpdateParams merges a partial update into the current parameters and
// returns the merged set. It does not start a run; recomputation is
// always caller-triggered.
func (e *Engine) UpdateParams(u Update) (Params, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	merged := e.params.Merge(u)
	if err := merged.Validate(); err != nil {
		return e.params, err
	}
	e.params = merged
	return merged, nil
}

// Positions returns a copy of the last completed layout.
func (e *Engine) Positions() []Vec3 {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Vec3, len(e.positions))
	copy(out, e.positions)
	return out
}

// Updates returns a latest-only channel carrying each newly published
// layout. Slow consumers see only the most recent result.
func (e *Engine) Updates() <-chan []Vec3 {
	return e.updates
}

// Compute starts a relaxation run over a snapshot of the current graph
// and parameters, superseding any run in flight. The returned handle
// reports the run's own outcome; the engine's published layout always
// reflects only the most recent request.
func (e *Engine) Compute() *Run {
	e.mu.Lock()
	e.generation++
	g := e.generation
	if e.running && e.cancel != nil {
		close(e.cancel) // best-effort: the old run stops at its next iteration
	}
	e.cancel = make(chan struct{})
	cancel := e.cancel
	e.running = true

	snap := snapshot{
		numQubits: e.numQubits,
		edges:     append([]circuit.Edge(nil), e.edges...),
		params:    e.params,
		seed:      e.seed,
	}
	e.mu.Unlock()

	run := &Run{done: make(chan struct{})}
	timer := logging.StartTimer(e.logger, "layout run completed",
		logging.Qubits(snap.numQubits),
		logging.Iterations(snap.params.Iterations))

	if err := snap.params.Validate(); err != nil {
		e.logger.Error("layout parameters rejected", logging.Error(err))
		e.finish(run, g, RunFailed, nil, snap.params.Iterations, timer)
		return run
	}

	if e.metrics != nil {
		e.metrics.LayoutRunsInFlight.Inc()
	}

	go e.execute(g, snap, cancel, run, timer)
	return run
}

// Cancel stops any in-flight computation. The previously published
// layout stays valid.
func (e *Engine) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.running && e.cancel != nil {
		close(e.cancel)
		e.cancel = nil
	}
	// Invalidate the generation so a run that raced past the cancel
	// signal still gets discarded
	e.generation++
	e.running = false
}

// execute runs the relaxation on its own goroutine and publishes the
// result if this run is still the most recent request.
func (e *Engine) execute(g uint64, snap snapshot, cancel <-chan struct{}, run *Run, timer *logging.TimedOperation) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("layout run panicked", logging.Any("panic", r))
			e.finishInFlight(run, g, RunFailed, nil, snap.params.Iterations, timer)
		}
	}()

	positions, done := relax(snap, cancel)

	status := RunCompleted
	if !done {
		status = RunCancelled
	}
	e.finishInFlight(run, g, status, positions, snap.params.Iterations, timer)
}

func (e *Engine) finishInFlight(run *Run, g uint64, status RunStatus, positions []Vec3, iterations int, timer *logging.TimedOperation) {
	if e.metrics != nil {
		e.metrics.LayoutRunsInFlight.Dec()
	}
	e.finish(run, g, status, positions, iterations, timer)
}

// finish resolves a run: publishes its result when it is both complete
// and still current, and settles the handle.
func (e *Engine) finish(run *Run, g uint64, status RunStatus, positions []Vec3, iterations int, timer *logging.TimedOperation) {
	e.mu.Lock()
	current := g == e.generation
	if current {
		e.running = false
		e.cancel = nil
	}
	if status == RunCompleted && !current {
		// A stale result that arrived after being superseded is discarded
		status = RunSuperseded
		positions = nil
	}
	if status == RunCompleted {
		e.positions = positions
	}
	e.mu.Unlock()

	var elapsed time.Duration
	if status == RunCompleted {
		e.publish(positions)
		elapsed = timer.End()
	} else {
		e.logger.Debug("layout run discarded",
			logging.String("status", string(status)),
			logging.Generation(g))
	}

	if e.metrics != nil {
		e.metrics.RecordLayoutRun(string(status), iterations, elapsed)
	}

	run.status = status
	run.positions = positions
	close(run.done)
}

// publish replaces any unconsumed update with the newest layout.
func (e *Engine) publish(positions []Vec3) {
	out := make([]Vec3, len(positions))
	copy(out, positions)
	for {
		select {
		case e.updates <- out:
			return
		default:
			select {
			case <-e.updates:
			default:
			}
		}
	}
}
