package layout

import (
	"math"
	"math/rand"

	"github.com/quvis/engine/pkg/circuit"
)

// minSeparation clamps pair distances so coincident qubits don't
// produce infinite repulsion.
const minSeparation = 1e-4

// snapshot is the worker's exclusive input: everything a relaxation run
// needs, copied in at start so no state is shared during the run.
type snapshot struct {
	numQubits int
	edges     []circuit.Edge
	params    Params
	seed      int64
	initial   []Vec3 // optional warm start; nil means seeded random
}

// initialPositions seeds deterministic starting positions spread over a
// cube sized to the qubit count.
func initialPositions(n int, ideal float64, seed int64) []Vec3 {
	rng := rand.New(rand.NewSource(seed))
	side := ideal * math.Cbrt(float64(n))
	positions := make([]Vec3, n)
	for i := range positions {
		positions[i] = Vec3{
			X: (rng.Float64() - 0.5) * side,
			Y: (rng.Float64() - 0.5) * side,
			Z: (rng.Float64() - 0.5) * side,
		}
	}
	return positions
}

// relax runs the force-directed iteration loop. It checks cancel once
// per iteration and reports whether it ran to completion. The returned
// positions are only meaningful when done is true.
func relax(snap snapshot, cancel <-chan struct{}) (positions []Vec3, done bool) {
	n := snap.numQubits
	if n == 0 {
		return []Vec3{}, true
	}

	if snap.initial != nil {
		positions = make([]Vec3, n)
		copy(positions, snap.initial)
	} else {
		positions = initialPositions(n, snap.params.IdealDistance, snap.seed)
	}

	p := snap.params
	disp := make([]Vec3, n)
	step := 1.0 // cooled every iteration: stepSize = coolingFactor^iter

	for iter := 0; iter < p.Iterations; iter++ {
		select {
		case <-cancel:
			return nil, false
		default:
		}

		for i := range disp {
			disp[i] = Vec3{}
		}

		// Repulsion between all pairs, magnitude growing as distance shrinks
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				delta := positions[i].Sub(positions[j])
				dist := delta.Norm()
				if dist < minSeparation {
					// Coincident points get a deterministic nudge apart
					delta = Vec3{X: minSeparation}
					dist = minSeparation
				}
				force := p.RepelForce / (dist * dist)
				push := delta.Scale(force / dist)
				disp[i] = disp[i].Add(push)
				disp[j] = disp[j].Sub(push)
			}
		}

		// Attraction along edges toward the ideal length: pulls together
		// when stretched, pushes apart when compressed
		for _, e := range snap.edges {
			// Edge fields are exported, so uncanonical literals can show
			// up here; check every endpoint
			if e.A < 0 || e.A >= n || e.B < 0 || e.B >= n {
				continue
			}
			delta := positions[e.B].Sub(positions[e.A])
			dist := delta.Norm()
			if dist < minSeparation {
				continue
			}
			force := p.AttractForce * (dist - p.IdealDistance)
			pull := delta.Scale(force / dist)
			disp[e.A] = disp[e.A].Add(pull)
			disp[e.B] = disp[e.B].Sub(pull)
		}

		// Apply cooled displacements, then bound the layout radially.
		// Displacement magnitude is capped at the ideal distance so a
		// dense early iteration cannot fling qubits out of the layout.
		for i := 0; i < n; i++ {
			d := disp[i].Scale(step)
			if norm := d.Norm(); norm > p.IdealDistance {
				d = d.Scale(p.IdealDistance / norm)
			}
			positions[i] = positions[i].Add(d)
			if r := positions[i].Norm(); r > p.CoreDistance && p.CoreDistance > 0 {
				positions[i] = positions[i].Scale(p.CoreDistance / r)
			}
		}

		step *= p.CoolingFactor
	}

	return positions, true
}
