package circuit

import "sort"

// Operation is a single gate acting on one or two qubits within a time slice.
type Operation struct {
	Name   string `json:"name"`
	Qubits []int  `json:"qubits"`
}

// IsPair reports whether the operation touches exactly two qubits.
func (o Operation) IsPair() bool {
	return len(o.Qubits) == 2
}

// Slice is the ordered list of operations executing in one time step.
type Slice []Operation

// Edge is an unordered qubit pair. A and B are kept canonically ordered
// (A < B) so edges compare and hash consistently.
type Edge struct {
	A int
	B int
}

// NewEdge builds a canonical edge from an unordered pair.
func NewEdge(a, b int) Edge {
	if a > b {
		a, b = b, a
	}
	return Edge{A: a, B: b}
}

// View identifies which rendering of a circuit a dataset carries.
type View string

const (
	// ViewLogical is the uncompiled interaction graph
	ViewLogical View = "logical"
	// ViewCompiled is the circuit after transpilation onto a device
	ViewCompiled View = "compiled"
	// ViewRouting carries only routing (SWAP) operations
	ViewRouting View = "routing"
)

// RoutingStats summarizes the routing overhead of a compiled circuit.
type RoutingStats struct {
	TotalSwapCount int `json:"total_swap_count"`
	RoutingDepth   int `json:"routing_depth"`
}

// Dataset is one view of a circuit execution, ready for analysis.
// Slices are ordered by time; CouplingMap is empty for logical circuits.
type Dataset struct {
	Name        string
	View        View
	NumQubits   int
	Slices      []Slice
	CouplingMap []Edge
	Topology    string
	Routing     *RoutingStats
}

// Stats summarizes a dataset for UI display.
type Stats struct {
	Qubits int `json:"qubits"`
	Gates  int `json:"gates"`
	Depth  int `json:"depth"`
	Swaps  int `json:"swaps,omitempty"`
}

// Stats computes the dataset's summary statistics.
func (d *Dataset) Stats() Stats {
	gates := 0
	for _, s := range d.Slices {
		gates += len(s)
	}
	st := Stats{
		Qubits: d.NumQubits,
		Gates:  gates,
		Depth:  len(d.Slices),
	}
	if d.Routing != nil {
		st.Swaps = d.Routing.TotalSwapCount
	}
	return st
}

// Adjacency returns the edge set the layout should cluster on: the
// coupling map when the device is known, otherwise the interaction
// pairs derived from the circuit's two-qubit operations.
func (d *Dataset) Adjacency() []Edge {
	if len(d.CouplingMap) > 0 {
		return d.CouplingMap
	}
	return DeriveInteractionEdges(d.Slices)
}

// DeriveInteractionEdges collects the distinct unordered pairs touched
// by two-qubit operations across all slices, in deterministic order.
func DeriveInteractionEdges(slices []Slice) []Edge {
	seen := make(map[Edge]bool)
	for _, s := range slices {
		for _, op := range s {
			if !op.IsPair() {
				continue
			}
			seen[NewEdge(op.Qubits[0], op.Qubits[1])] = true
		}
	}

	edges := make([]Edge, 0, len(seen))
	for e := range seen {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].A != edges[j].A {
			return edges[i].A < edges[j].A
		}
		return edges[i].B < edges[j].B
	})
	return edges
}
