package evaluation

import (
	"errors"
	"fmt"
)

// StructuralError means the grid cannot be turned into an evaluation at all.
type StructuralError struct {
	Reason string
}

func (e *StructuralError) Error() string {
	return "invalid spreadsheet structure: " + e.Reason
}

var (
	ErrZeroTotal              = errors.New("rubric total is zero or negative: is the Barême row missing or mislabeled?")
	ErrZeroAccommodationTotal = errors.New("rubric total minus the PAP budget is zero or negative")
	ErrNoCells                = errors.New("no student scores to measure")
)

// ArithmeticError reports a total that would make a coefficient undefined.
type ArithmeticError struct {
	Err     error
	Nominal float64
	Budget  float64
}

func (e *ArithmeticError) Error() string {
	switch e.Err {
	case ErrZeroTotal:
		return fmt.Sprintf("%v (total %g)", e.Err, e.Nominal)
	case ErrZeroAccommodationTotal:
		return fmt.Sprintf("%v (total %g, PAP %g)", e.Err, e.Nominal, e.Budget)
	}
	return e.Err.Error()
}

func (e *ArithmeticError) Unwrap() error { return e.Err }
