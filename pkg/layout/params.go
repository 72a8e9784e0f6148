package layout

import "errors"

// Parameter errors
var (
	ErrBadCooling  = errors.New("cooling factor must be in (0, 1]")
	ErrBadDistance = errors.New("ideal distance must be positive")
)

// Params is a complete layout parameter set.
type Params struct {
	RepelForce    float64 `json:"repelForce" yaml:"repel_force"`
	AttractForce  float64 `json:"attractForce" yaml:"attract_force"`
	IdealDistance float64 `json:"idealDistance" yaml:"ideal_distance"`
	Iterations    int     `json:"iterations" yaml:"iterations"`
	CoolingFactor float64 `json:"coolingFactor" yaml:"cooling_factor"`
	CoreDistance  float64 `json:"coreDistance" yaml:"core_distance"`
}

// DefaultParams returns the engine's tuned defaults.
func DefaultParams() Params {
	return Params{
		RepelForce:    0.6,
		AttractForce:  0.1,
		IdealDistance: 1.0,
		Iterations:    300,
		CoolingFactor: 0.95,
		CoreDistance:  15.0,
	}
}

// Validate checks the parameter set for values the relaxation cannot
// run with.
func (p Params) Validate() error {
	if p.CoolingFactor <= 0 || p.CoolingFactor > 1 {
		return ErrBadCooling
	}
	if p.IdealDistance <= 0 {
		return ErrBadDistance
	}
	return nil
}

// Update is a partial parameter change. Nil fields keep their current
// values when merged.
type Update struct {
	RepelForce    *float64 `json:"repelForce,omitempty"`
	AttractForce  *float64 `json:"attractForce,omitempty"`
	IdealDistance *float64 `json:"idealDistance,omitempty"`
	Iterations    *int     `json:"iterations,omitempty"`
	CoolingFactor *float64 `json:"coolingFactor,omitempty"`
	CoreDistance  *float64 `json:"coreDistance,omitempty"`
}

// Merge applies the update over p and returns the result.
func (p Params) Merge(u Update) Params {
	if u.RepelForce != nil {
		p.RepelForce = *u.RepelForce
	}
	if u.AttractForce != nil {
		p.AttractForce = *u.AttractForce
	}
	if u.IdealDistance != nil {
		p.IdealDistance = *u.IdealDistance
	}
	if u.Iterations != nil {
		p.Iterations = *u.Iterations
	}
	if u.CoolingFactor != nil {
		p.CoolingFactor = *u.CoolingFactor
	}
	if u.CoreDistance != nil {
		p.CoreDistance = *u.CoreDistance
	}
	return p
}
