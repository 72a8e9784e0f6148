package validation

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/quvis/engine/pkg/circuit"
)

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// Validation constants
	MaxQubits   = 100000
	MaxSlices   = 10000000
	MaxOpQubits = 2
)

func init() {
	validate = validator.New()
}

// DatasetRequest carries the declared dimensions of a dataset load.
type DatasetRequest struct {
	NumQubits int `json:"numQubits" validate:"required,min=1,max=100000"`
	NumSlices int `json:"numSlices" validate:"min=0,max=10000000"`
}

// LayoutRequest carries a partial layout parameter update for validation.
type LayoutRequest struct {
	RepelForce    *float64 `json:"repelForce" validate:"omitempty,gt=0"`
	AttractForce  *float64 `json:"attractForce" validate:"omitempty,gt=0"`
	IdealDistance *float64 `json:"idealDistance" validate:"omitempty,gt=0"`
	Iterations    *int     `json:"iterations" validate:"omitempty,min=0,max=100000"`
	CoolingFactor *float64 `json:"coolingFactor" validate:"omitempty,gt=0,lte=1"`
	CoreDistance  *float64 `json:"coreDistance" validate:"omitempty,gt=0"`
}

// ValidateDataset checks the structural bounds of a loaded dataset.
func ValidateDataset(ds *circuit.Dataset) error {
	if ds == nil {
		return errors.New("dataset cannot be nil")
	}

	req := DatasetRequest{NumQubits: ds.NumQubits, NumSlices: len(ds.Slices)}
	if err := validate.Struct(&req); err != nil {
		return formatValidationError(err)
	}

	for t, s := range ds.Slices {
		for _, op := range s {
			if len(op.Qubits) < 1 || len(op.Qubits) > MaxOpQubits {
				return fmt.Errorf("slice %d: operation %q touches %d qubits, want 1 or 2",
					t, op.Name, len(op.Qubits))
			}
			for _, q := range op.Qubits {
				if q < 0 || q >= ds.NumQubits {
					return fmt.Errorf("slice %d: operation %q references qubit %d outside [0, %d)",
						t, op.Name, q, ds.NumQubits)
				}
			}
		}
	}

	for i, e := range ds.CouplingMap {
		if e.A < 0 || e.B >= ds.NumQubits {
			return fmt.Errorf("coupling map edge %d (%d,%d) outside [0, %d)",
				i, e.A, e.B, ds.NumQubits)
		}
		if e.A == e.B {
			return fmt.Errorf("coupling map edge %d is a self-loop on qubit %d", i, e.A)
		}
	}

	return nil
}

// ValidateLayoutRequest validates a partial layout parameter update.
func ValidateLayoutRequest(req *LayoutRequest) error {
	if req == nil {
		return errors.New("layout request cannot be nil")
	}
	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// formatValidationError converts validator errors into readable messages
func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		first := verrs[0]
		return fmt.Errorf("%s: failed '%s' validation (value: %v)",
			first.Field(), first.Tag(), first.Value())
	}
	return err
}
