package circuit

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Loader errors
var (
	ErrEmptyFile     = errors.New("dataset file contains no circuits")
	ErrMissingDevice = errors.New("compiled circuit is missing device info")
	ErrMalformedEdge = errors.New("coupling map edge must have exactly two endpoints")
	ErrMalformedOp   = errors.New("operation must touch one or two qubits")
)

// Wire shapes of the quvis JSON export. A file is either a single
// visualization payload or a multi-circuit container with a "circuits"
// array; both are accepted.
type rawOperation struct {
	Name   string `json:"name"`
	Qubits []int  `json:"qubits"`
}

type rawCircuitInfo struct {
	NumQubits           int              `json:"num_qubits"`
	OpsPerSlice         [][]rawOperation `json:"interaction_graph_ops_per_slice"`
	CompiledOpsPerSlice [][]rawOperation `json:"compiled_interaction_graph_ops_per_slice"`
}

type rawRoutingInfo struct {
	NumQubits      int              `json:"num_qubits"`
	OpsPerSlice    [][]rawOperation `json:"routing_ops_per_slice"`
	TotalSwapCount int              `json:"total_swap_count"`
	RoutingDepth   int              `json:"routing_depth"`
}

type rawDeviceInfo struct {
	SourceFile   string  `json:"source_coupling_map_file"`
	TopologyType string  `json:"topology_type"`
	NumQubits    int     `json:"num_qubits_on_device"`
	CouplingMap  [][]int `json:"connectivity_graph_coupling_map"`
}

type rawCircuit struct {
	CircuitInfo   *rawCircuitInfo `json:"circuit_info"`
	RoutingInfo   *rawRoutingInfo `json:"routing_info"`
	DeviceInfo    *rawDeviceInfo  `json:"device_info"`
	AlgorithmName string          `json:"algorithm_name"`
	CircuitType   string          `json:"circuit_type"`
}

type rawFile struct {
	Circuits []rawCircuit `json:"circuits"`

	// Legacy single-payload layout
	LogicalCircuitInfo  *rawCircuitInfo `json:"logical_circuit_info"`
	CompiledCircuitInfo *rawCircuitInfo `json:"compiled_circuit_info"`
	RoutingCircuitInfo  *rawRoutingInfo `json:"routing_circuit_info"`
	DeviceInfo          *rawDeviceInfo  `json:"device_info"`
}

// LoadFile reads a quvis dataset export from disk. Multi-circuit files
// yield one Dataset per circuit entry; legacy single-payload files
// yield the logical and compiled views they contain.
func LoadFile(path string) ([]*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	return Decode(data)
}

// Decode parses a quvis dataset export.
func Decode(data []byte) ([]*Dataset, error) {
	var raw rawFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}

	var datasets []*Dataset

	for i := range raw.Circuits {
		ds, err := convertCircuit(&raw.Circuits[i])
		if err != nil {
			return nil, fmt.Errorf("circuit %d: %w", i, err)
		}
		datasets = append(datasets, ds)
	}

	// Legacy layout: one payload holding logical + compiled + routing views
	if len(datasets) == 0 {
		legacy, err := convertLegacy(&raw)
		if err != nil {
			return nil, err
		}
		datasets = legacy
	}

	if len(datasets) == 0 {
		return nil, ErrEmptyFile
	}
	return datasets, nil
}

func convertCircuit(rc *rawCircuit) (*Dataset, error) {
	if rc.CircuitInfo == nil {
		return nil, ErrEmptyFile
	}

	view := ViewLogical
	ops := rc.CircuitInfo.OpsPerSlice
	if rc.CircuitType == "compiled" || len(rc.CircuitInfo.CompiledOpsPerSlice) > 0 {
		view = ViewCompiled
		ops = rc.CircuitInfo.CompiledOpsPerSlice
		if rc.DeviceInfo == nil {
			return nil, ErrMissingDevice
		}
	}

	slices, err := convertSlices(ops)
	if err != nil {
		return nil, err
	}

	ds := &Dataset{
		Name:      rc.AlgorithmName,
		View:      view,
		NumQubits: rc.CircuitInfo.NumQubits,
		Slices:    slices,
	}

	if rc.DeviceInfo != nil {
		edges, err := convertCouplingMap(rc.DeviceInfo.CouplingMap)
		if err != nil {
			return nil, err
		}
		ds.CouplingMap = edges
		ds.Topology = rc.DeviceInfo.TopologyType
		if rc.DeviceInfo.NumQubits > ds.NumQubits {
			ds.NumQubits = rc.DeviceInfo.NumQubits
		}
	}

	if rc.RoutingInfo != nil {
		ds.Routing = &RoutingStats{
			TotalSwapCount: rc.RoutingInfo.TotalSwapCount,
			RoutingDepth:   rc.RoutingInfo.RoutingDepth,
		}
	}

	return ds, nil
}

func convertLegacy(raw *rawFile) ([]*Dataset, error) {
	var datasets []*Dataset

	var edges []Edge
	topology := ""
	deviceQubits := 0
	if raw.DeviceInfo != nil {
		var err error
		edges, err = convertCouplingMap(raw.DeviceInfo.CouplingMap)
		if err != nil {
			return nil, err
		}
		topology = raw.DeviceInfo.TopologyType
		deviceQubits = raw.DeviceInfo.NumQubits
	}

	if raw.LogicalCircuitInfo != nil {
		slices, err := convertSlices(raw.LogicalCircuitInfo.OpsPerSlice)
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, &Dataset{
			Name:      "Logical Circuit",
			View:      ViewLogical,
			NumQubits: raw.LogicalCircuitInfo.NumQubits,
			Slices:    slices,
		})
	}

	if raw.CompiledCircuitInfo != nil {
		if raw.DeviceInfo == nil {
			return nil, ErrMissingDevice
		}
		slices, err := convertSlices(raw.CompiledCircuitInfo.CompiledOpsPerSlice)
		if err != nil {
			return nil, err
		}
		num := raw.CompiledCircuitInfo.NumQubits
		if deviceQubits > num {
			num = deviceQubits
		}
		ds := &Dataset{
			Name:        "Compiled Circuit",
			View:        ViewCompiled,
			NumQubits:   num,
			Slices:      slices,
			CouplingMap: edges,
			Topology:    topology,
		}
		if raw.RoutingCircuitInfo != nil {
			ds.Routing = &RoutingStats{
				TotalSwapCount: raw.RoutingCircuitInfo.TotalSwapCount,
				RoutingDepth:   raw.RoutingCircuitInfo.RoutingDepth,
			}
		}
		datasets = append(datasets, ds)
	}

	return datasets, nil
}

func convertSlices(ops [][]rawOperation) ([]Slice, error) {
	slices := make([]Slice, len(ops))
	for t, sliceOps := range ops {
		s := make(Slice, 0, len(sliceOps))
		for _, op := range sliceOps {
			if len(op.Qubits) < 1 || len(op.Qubits) > 2 {
				return nil, fmt.Errorf("slice %d op %q: %w", t, op.Name, ErrMalformedOp)
			}
			s = append(s, Operation{Name: op.Name, Qubits: op.Qubits})
		}
		slices[t] = s
	}
	return slices, nil
}

func convertCouplingMap(pairs [][]int) ([]Edge, error) {
	edges := make([]Edge, 0, len(pairs))
	for i, p := range pairs {
		if len(p) != 2 {
			return nil, fmt.Errorf("edge %d: %w", i, ErrMalformedEdge)
		}
		edges = append(edges, NewEdge(p[0], p[1]))
	}
	return edges, nil
}
