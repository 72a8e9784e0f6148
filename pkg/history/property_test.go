package history

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/quvis/engine/pkg/circuit"
)

// buildHistory ingests a generated touch matrix and waits for the
// tables to be complete. touches[t] lists the qubits active in slice t.
func buildHistory(t *testing.T, numQubits int, touches [][]int) *History {
	t.Helper()
	slices := make([]circuit.Slice, len(touches))
	for i, qs := range touches {
		s := make(circuit.Slice, 0, len(qs))
		for _, q := range qs {
			s = append(s, circuit.Operation{Name: "h", Qubits: []int{q}})
		}
		slices[i] = s
	}

	h := newTestHistory(t, 4)
	if err := h.Ingest(&circuit.Dataset{NumQubits: numQubits, Slices: slices}, nil); err != nil {
		t.Fatalf("Ingest failed: %v", err)
	}
	waitComplete(t, h)
	return h
}

// TestCumulativeTableInvariants uses property-based testing to verify
// the prefix-sum invariants the window queries depend on.
func TestCumulativeTableInvariants(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping property-based test in short mode")
	}

	const numQubits = 6

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30

	properties := gopter.NewProperties(parameters)

	genTouches := gen.SliceOf(gen.SliceOf(gen.IntRange(0, numQubits-1)))

	// Property 1: cumulative counts are non-decreasing with step 0 or 1
	properties.Property("cumulative counts step by 0 or 1", prop.ForAll(
		func(touches [][]int) bool {
			h := buildHistory(t, numQubits, touches)
			defer h.Close()

			for q := 0; q < numQubits; q++ {
				prev := 0
				for s := 0; s < len(touches); s++ {
					_, total := h.QueryEntityWindow(q, s, Unbounded())
					step := total - prev
					if step < 0 || step > 1 {
						return false
					}
					prev = total
				}
			}
			return true
		},
		genTouches,
	))

	// Property 2: a bounded window equals the prefix-sum difference
	properties.Property("window equals cumulative difference", prop.ForAll(
		func(touches [][]int, window int) bool {
			if len(touches) == 0 {
				return true
			}
			h := buildHistory(t, numQubits, touches)
			defer h.Close()

			current := len(touches) - 1
			start := current - window + 1
			if start < 0 {
				start = 0
			}
			for q := 0; q < numQubits; q++ {
				inWindow, total := h.QueryEntityWindow(q, current, Fixed(window))
				before := 0
				if start > 0 {
					_, before = h.QueryEntityWindow(q, start-1, Unbounded())
				}
				if inWindow != total-before {
					return false
				}
			}
			return true
		},
		genTouches,
		gen.IntRange(1, 12),
	))

	// Property 3: the unbounded window always equals the full total
	properties.Property("unbounded window equals total", prop.ForAll(
		func(touches [][]int) bool {
			if len(touches) == 0 {
				return true
			}
			h := buildHistory(t, numQubits, touches)
			defer h.Close()

			for q := 0; q < numQubits; q++ {
				for s := 0; s < len(touches); s++ {
					inWindow, total := h.QueryEntityWindow(q, s, Unbounded())
					if inWindow != total {
						return false
					}
				}
			}
			return true
		},
		genTouches,
	))

	properties.TestingRun(t)
}
