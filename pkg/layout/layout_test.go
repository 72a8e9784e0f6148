package layout

import (
	"math"
	"testing"
	"time"

	"github.com/quvis/engine/pkg/circuit"
)

// waitRun blocks until a run settles or times out.
func waitRun(t *testing.T, run *Run) {
	t.Helper()
	select {
	case <-run.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("layout run did not finish in time")
	}
}

// lineEdges builds a line topology over n qubits.
func lineEdges(n int) []circuit.Edge {
	edges := make([]circuit.Edge, 0, n-1)
	for i := 0; i < n-1; i++ {
		edges = append(edges, circuit.NewEdge(i, i+1))
	}
	return edges
}

func dist(a, b Vec3) float64 {
	return a.Sub(b).Norm()
}

// TestZeroIterationsKeepsInitialPositions verifies iterations=0 returns
// the seeded initial positions unmodified.
func TestZeroIterationsKeepsInitialPositions(t *testing.T) {
	params := DefaultParams()
	params.Iterations = 0

	e := New(Options{Params: params, Seed: 42})
	e.SetGraph(5, lineEdges(5))

	run := e.Compute()
	waitRun(t, run)

	if run.Status() != RunCompleted {
		t.Fatalf("run status = %s, want completed", run.Status())
	}

	want := initialPositions(5, params.IdealDistance, 42)
	got := run.Positions()
	if len(got) != len(want) {
		t.Fatalf("got %d positions, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d = %v, want initial %v", i, got[i], want[i])
		}
	}
}

// TestDeterministicOutput verifies that the same seed, graph, and
// parameters produce identical layouts.
func TestDeterministicOutput(t *testing.T) {
	edges := lineEdges(8)

	compute := func() []Vec3 {
		e := New(Options{Seed: 7})
		e.SetGraph(8, edges)
		run := e.Compute()
		waitRun(t, run)
		if run.Status() != RunCompleted {
			t.Fatalf("run status = %s, want completed", run.Status())
		}
		return run.Positions()
	}

	first := compute()
	second := compute()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("position %d differs between identical runs: %v vs %v", i, first[i], second[i])
		}
	}
}

// TestEmptyGraph verifies N=0 completes immediately with an empty result.
func TestEmptyGraph(t *testing.T) {
	e := New(Options{})
	e.SetGraph(0, nil)

	run := e.Compute()
	waitRun(t, run)

	if run.Status() != RunCompleted {
		t.Fatalf("run status = %s, want completed", run.Status())
	}
	if len(run.Positions()) != 0 {
		t.Errorf("expected empty positions, got %d", len(run.Positions()))
	}
}

// TestCoreDistanceBound verifies no qubit ends up beyond the radial bound.
func TestCoreDistanceBound(t *testing.T) {
	params := DefaultParams()
	params.CoreDistance = 5.0
	params.Iterations = 100

	e := New(Options{Params: params, Seed: 3})
	// Disconnected qubits rely on repulsion + the core bound alone
	e.SetGraph(12, nil)

	run := e.Compute()
	waitRun(t, run)

	for i, p := range run.Positions() {
		if r := p.Norm(); r > params.CoreDistance+1e-9 {
			t.Errorf("qubit %d at radius %v exceeds core distance %v", i, r, params.CoreDistance)
		}
	}
}

// TestConnectedQubitsCluster verifies edge endpoints end up closer than
// unconnected qubits on a line topology.
func TestConnectedQubitsCluster(t *testing.T) {
	params := DefaultParams()
	params.Iterations = 400

	e := New(Options{Params: params, Seed: 11})
	e.SetGraph(3, []circuit.Edge{circuit.NewEdge(0, 1), circuit.NewEdge(1, 2)})

	run := e.Compute()
	waitRun(t, run)
	pos := run.Positions()

	d01 := dist(pos[0], pos[1])
	d12 := dist(pos[1], pos[2])
	d02 := dist(pos[0], pos[2])
	if d02 < d01 || d02 < d12 {
		t.Errorf("unconnected pair (0,2) at %v should be farther than connected pairs (%v, %v)",
			d02, d01, d12)
	}
}

// TestNoCoincidentQubits verifies repulsion separates every pair.
func TestNoCoincidentQubits(t *testing.T) {
	e := New(Options{Seed: 19})
	e.SetGraph(10, lineEdges(10))

	run := e.Compute()
	waitRun(t, run)
	pos := run.Positions()

	for i := 0; i < len(pos); i++ {
		for j := i + 1; j < len(pos); j++ {
			if dist(pos[i], pos[j]) < 1e-6 {
				t.Errorf("qubits %d and %d collapsed onto each other", i, j)
			}
		}
	}
}

// TestSupersedeDeliversOnlySecondResult verifies that cancelling a
// running layout and immediately requesting another yields only the
// second computation's result.
func TestSupersedeDeliversOnlySecondResult(t *testing.T) {
	slow := DefaultParams()
	slow.Iterations = 20000 // long enough to still be running when superseded

	e := New(Options{Params: slow, Seed: 23})
	e.SetGraph(60, lineEdges(60))

	first := e.Compute()

	fast := slow
	fast.Iterations = 50
	if _, err := e.UpdateParams(Update{Iterations: &fast.Iterations}); err != nil {
		t.Fatalf("UpdateParams failed: %v", err)
	}
	second := e.Compute()

	waitRun(t, first)
	waitRun(t, second)

	if second.Status() != RunCompleted {
		t.Fatalf("second run status = %s, want completed", second.Status())
	}
	if first.Status() == RunCompleted {
		t.Errorf("first run status = %s, want cancelled or superseded", first.Status())
	}

	published := e.Positions()
	want := second.Positions()
	if len(published) != len(want) {
		t.Fatalf("published %d positions, want %d", len(published), len(want))
	}
	for i := range want {
		if published[i] != want[i] {
			t.Fatalf("published position %d = %v, want second run's %v", i, published[i], want[i])
		}
	}
}

// TestCancelRetainsPreviousLayout verifies cancellation leaves the last
// completed layout published.
func TestCancelRetainsPreviousLayout(t *testing.T) {
	params := DefaultParams()
	params.Iterations = 50

	e := New(Options{Params: params, Seed: 29})
	e.SetGraph(6, lineEdges(6))

	run := e.Compute()
	waitRun(t, run)
	before := e.Positions()

	slow := 20000
	if _, err := e.UpdateParams(Update{Iterations: &slow}); err != nil {
		t.Fatalf("UpdateParams failed: %v", err)
	}
	running := e.Compute()
	e.Cancel()
	waitRun(t, running)

	after := e.Positions()
	if len(after) != len(before) {
		t.Fatalf("published layout changed size after cancel")
	}
	for i := range before {
		if after[i] != before[i] {
			t.Fatalf("published position %d changed after cancel: %v vs %v", i, after[i], before[i])
		}
	}
}

// TestUpdatesChannelCarriesLatest verifies the latest-only notification
// channel.
func TestUpdatesChannelCarriesLatest(t *testing.T) {
	e := New(Options{Seed: 31})
	e.SetGraph(4, lineEdges(4))

	run := e.Compute()
	waitRun(t, run)

	select {
	case got := <-e.Updates():
		want := run.Positions()
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("update position %d = %v, want %v", i, got[i], want[i])
			}
		}
	case <-time.After(time.Second):
		t.Fatal("no update published")
	}
}

// TestMalformedEdgesIgnored verifies edges with endpoints outside the
// qubit range are skipped, including uncanonical literals with A > B.
func TestMalformedEdgesIgnored(t *testing.T) {
	params := DefaultParams()
	params.Iterations = 20

	e := New(Options{Params: params, Seed: 41})
	e.SetGraph(3, []circuit.Edge{
		{A: 5, B: 1},  // first endpoint out of range
		{A: 1, B: -2}, // second endpoint negative
		circuit.NewEdge(0, 1),
	})

	run := e.Compute()
	waitRun(t, run)

	if run.Status() != RunCompleted {
		t.Fatalf("run status = %s, want completed", run.Status())
	}
	if len(run.Positions()) != 3 {
		t.Errorf("got %d positions, want 3", len(run.Positions()))
	}
}

// TestInvalidParamsRejected verifies a bad parameter update is rejected
// and the published layout is untouched.
func TestInvalidParamsRejected(t *testing.T) {
	e := New(Options{Seed: 37})
	e.SetGraph(4, lineEdges(4))

	run := e.Compute()
	waitRun(t, run)
	before := e.Positions()

	if _, err := e.UpdateParams(Update{CoolingFactor: f64(0)}); err == nil {
		t.Error("expected cooling factor 0 to be rejected")
	}

	after := e.Positions()
	for i := range before {
		if !eq(after[i], before[i]) {
			t.Fatalf("layout changed after rejected update")
		}
	}
}

func f64(v float64) *float64 { return &v }

func eq(a, b Vec3) bool {
	return math.Abs(a.X-b.X) < 1e-12 && math.Abs(a.Y-b.Y) < 1e-12 && math.Abs(a.Z-b.Z) < 1e-12
}
