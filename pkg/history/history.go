package history

import (
	"sync"

	"github.com/quvis/engine/pkg/circuit"
	"github.com/quvis/engine/pkg/logging"
	"github.com/quvis/engine/pkg/metrics"
	"github.com/quvis/engine/pkg/parallel"
)

const (
	// DefaultBatchSize is the number of slices folded per task turn
	DefaultBatchSize = 500
	// DefaultDecayBase is the weighted pair table decay constant
	DefaultDecayBase = 1.3
)

// Options configures a History instance. Zero fields take defaults.
type Options struct {
	BatchSize int
	DecayBase float64
	Logger    logging.Logger
	Metrics   *metrics.Registry
}

// History folds per-slice operation lists into cumulative interaction
// tables and answers trailing-window queries against them in O(1).
//
// Ingestion is cooperative: slices are processed in fixed-size batches
// on a single-worker task queue, each batch requeuing the next, so
// queries interleave with ingestion instead of waiting behind it.
// Queries against a partially ingested dataset clamp to the last fully
// processed slice.
type History struct {
	batchSize int
	decayBase float64
	logger    logging.Logger
	metrics   *metrics.Registry
	queue     *parallel.TaskQueue

	mu         sync.RWMutex
	generation uint64
	numQubits  int
	slices     []circuit.Slice
	entityCum  [][]int
	pairEdges  []circuit.Edge
	pairCum    map[circuit.Edge][]float64
	processed  int
	complete   bool
	timer      *logging.TimedOperation
	done       chan struct{}

	// Per-slice scratch, reused across batches. Protected by mu.
	touchedScratch []bool
	touchedList    []int
	pairScratch    map[circuit.Edge]bool
}

// New creates a History. Returns ErrInvalidBase if a decay base <= 1
// is supplied explicitly.
func New(opts Options) (*History, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.DecayBase == 0 {
		opts.DecayBase = DefaultDecayBase
	}
	if opts.DecayBase <= 1 {
		return nil, ErrInvalidBase
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNopLogger()
	}

	return &History{
		batchSize: opts.BatchSize,
		decayBase: opts.DecayBase,
		logger:    opts.Logger.With(logging.Component("history")),
		metrics:   opts.Metrics,
		queue:     parallel.NewSerialQueue(opts.Logger),
	}, nil
}

// closedChan is returned by Done before any ingest has started.
var closedChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// Ingest clears any prior state and begins folding the dataset's slices
// into fresh tables. The adjacency edges seed the weighted pair table;
// an empty adjacency is legal and yields an empty pair table. A second
// Ingest supersedes a running one: its remaining batches are discarded.
func (h *History) Ingest(ds *circuit.Dataset, adjacency []circuit.Edge) error {
	if ds == nil {
		return ErrNilDataset
	}

	h.mu.Lock()
	h.generation++
	g := h.generation
	h.clearLocked()

	if ds.NumQubits <= 0 {
		h.mu.Unlock()
		return ErrNoQubits
	}

	h.numQubits = ds.NumQubits
	h.slices = ds.Slices
	h.timer = logging.StartTimer(h.logger, "ingest complete",
		logging.Qubits(ds.NumQubits),
		logging.Slices(len(ds.Slices)))
	h.done = make(chan struct{})

	h.entityCum = make([][]int, h.numQubits)
	for q := range h.entityCum {
		h.entityCum[q] = make([]int, 0, len(h.slices))
	}

	h.pairEdges = make([]circuit.Edge, len(adjacency))
	copy(h.pairEdges, adjacency)
	h.pairCum = make(map[circuit.Edge][]float64, len(adjacency))
	for _, e := range h.pairEdges {
		h.pairCum[e] = make([]float64, 0, len(h.slices))
	}

	h.touchedScratch = make([]bool, h.numQubits)
	h.touchedList = make([]int, 0, 16)
	h.pairScratch = make(map[circuit.Edge]bool, 16)

	if len(h.slices) == 0 {
		h.complete = true
		close(h.done)
		h.mu.Unlock()
		return nil
	}
	h.mu.Unlock()

	h.logger.Info("ingest started",
		logging.Qubits(ds.NumQubits),
		logging.Slices(len(ds.Slices)),
		logging.Edges(len(adjacency)))

	if !h.queue.SubmitAsync(func() { h.processBatch(g) }) {
		return ErrQueueClosed
	}
	return nil
}

// clearLocked discards all table state. Caller holds h.mu.
func (h *History) clearLocked() {
	if h.done != nil && !h.complete {
		close(h.done) // release waiters of the superseded ingest
	}
	h.done = nil
	h.numQubits = 0
	h.slices = nil
	h.entityCum = nil
	h.pairEdges = nil
	h.pairCum = nil
	h.processed = 0
	h.complete = false
}

// processBatch folds one batch of slices, then requeues itself until
// every slice is processed or the generation has moved on.
func (h *History) processBatch(g uint64) {
	h.mu.Lock()
	if g != h.generation {
		h.mu.Unlock()
		return
	}

	start := h.processed
	end := start + h.batchSize
	if end > len(h.slices) {
		end = len(h.slices)
	}
	for t := start; t < end; t++ {
		h.foldSlice(t)
	}
	h.processed = end

	more := h.processed < len(h.slices)
	if !more {
		h.complete = true
		close(h.done)
	}
	timer := h.timer
	qubits, slices := h.numQubits, len(h.slices)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.RecordBatch(end - start)
	}

	if more {
		// SubmitAsync keeps the worker from blocking on its own queue
		if !h.queue.SubmitAsync(func() { h.processBatch(g) }) {
			h.logger.Warn("batch requeue rejected, queue closed",
				logging.SliceIndex(end))
		}
		return
	}

	elapsed := timer.End()
	if h.metrics != nil {
		h.metrics.RecordIngest(qubits, slices, elapsed)
	}
}

// foldSlice appends slice t to every cumulative table. Caller holds h.mu.
func (h *History) foldSlice(t int) {
	s := h.slices[t]

	// Mark the touched set for this slice
	for _, op := range s {
		for _, q := range op.Qubits {
			if q < 0 || q >= h.numQubits || h.touchedScratch[q] {
				continue
			}
			h.touchedScratch[q] = true
			h.touchedList = append(h.touchedList, q)
		}
		if op.IsPair() {
			h.pairScratch[circuit.NewEdge(op.Qubits[0], op.Qubits[1])] = true
		}
	}

	// Entity table: previous cumulative + {0, 1}
	for q := 0; q < h.numQubits; q++ {
		prev := 0
		if t > 0 {
			prev = h.entityCum[q][t-1]
		}
		step := 0
		if h.touchedScratch[q] {
			step = 1
		}
		h.entityCum[q] = append(h.entityCum[q], prev+step)
	}

	// Pair table: previous/base + {0, 1}, forward-only
	for _, e := range h.pairEdges {
		prev := 0.0
		if t > 0 {
			prev = h.pairCum[e][t-1]
		}
		score := prev / h.decayBase
		if h.pairScratch[e] {
			score++
		}
		h.pairCum[e] = append(h.pairCum[e], score)
	}

	// Reset scratch
	for _, q := range h.touchedList {
		h.touchedScratch[q] = false
	}
	h.touchedList = h.touchedList[:0]
	for e := range h.pairScratch {
		delete(h.pairScratch, e)
	}
}

// QueryEntityWindow returns how many of the window's slices touched the
// qubit, and the total through currentSlice. Out-of-range inputs return
// zeros; queries past the processed frontier clamp to it. The query is
// allocation-free.
func (h *History) QueryEntityWindow(qubit, currentSlice int, w Window) (inWindow, total int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if qubit < 0 || qubit >= h.numQubits || currentSlice < 0 || h.processed == 0 {
		return 0, 0
	}
	if currentSlice >= h.processed {
		currentSlice = h.processed - 1
	}

	cum := h.entityCum[qubit]
	total = cum[currentSlice]

	start := w.start(currentSlice)
	before := 0
	if start > 0 {
		before = cum[start-1]
	}

	if h.metrics != nil {
		h.metrics.RecordQuery("entity_window")
	}
	return total - before, total
}

// QueryWeightedPairSeries returns the full cumulative weighted series
// for a coupling edge, up to the processed frontier. Unknown edges
// return nil.
func (h *History) QueryWeightedPairSeries(a, b int) []float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	series, ok := h.pairCum[circuit.NewEdge(a, b)]
	if !ok {
		return nil
	}
	out := make([]float64, len(series))
	copy(out, series)

	if h.metrics != nil {
		h.metrics.RecordQuery("pair_series")
	}
	return out
}

// Intensities returns the per-qubit normalized window activity in [0,1]:
// the fraction of the window's slices where the qubit participated in
// any operation.
func (h *History) Intensities(currentSlice int, w Window) []float64 {
	h.mu.RLock()
	n := h.numQubits
	h.mu.RUnlock()
	return h.IntensitiesInto(make([]float64, n), currentSlice, w)
}

// IntensitiesInto fills dst with normalized window activity, reusing
// its backing array when large enough. This is the per-slice hot path;
// it allocates only if dst is too small.
func (h *History) IntensitiesInto(dst []float64, currentSlice int, w Window) []float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if cap(dst) < h.numQubits {
		dst = make([]float64, h.numQubits)
	}
	dst = dst[:h.numQubits]

	if currentSlice < 0 || h.processed == 0 {
		for i := range dst {
			dst[i] = 0
		}
		return dst
	}
	if currentSlice >= h.processed {
		currentSlice = h.processed - 1
	}

	start := w.start(currentSlice)
	span := float64(w.span(currentSlice))

	for q := 0; q < h.numQubits; q++ {
		cum := h.entityCum[q]
		before := 0
		if start > 0 {
			before = cum[start-1]
		}
		dst[q] = float64(cum[currentSlice]-before) / span
	}

	if h.metrics != nil {
		h.metrics.RecordQuery("intensities")
	}
	return dst
}

// ProcessedSlices returns how many slices have been folded so far.
func (h *History) ProcessedSlices() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.processed
}

// IsComplete reports whether every slice has been folded.
func (h *History) IsComplete() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.complete
}

// NumQubits returns the entity count of the current dataset.
func (h *History) NumQubits() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.numQubits
}

// Done returns a channel closed when the current ingest finishes or is
// superseded. Before any ingest it is already closed.
func (h *History) Done() <-chan struct{} {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.done == nil {
		return closedChan
	}
	return h.done
}

// Close stops the batch queue. In-flight batches finish; nothing new
// is scheduled.
func (h *History) Close() {
	h.queue.Close()
}
