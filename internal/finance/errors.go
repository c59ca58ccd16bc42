package finance

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation matches every *ValidationError through errors.Is
	ErrValidation = errors.New("validation failed")

	// ErrUndefinedMetric means the metric has no meaningful value for the schedule
	ErrUndefinedMetric = errors.New("undefined metric")

	// ErrNoConvergence means the IRR solver ran out of iterations
	ErrNoConvergence = errors.New("irr solver did not converge")

	ErrNoSignChange      = fmt.Errorf("%w: cash flows do not change sign", ErrUndefinedMetric)
	ErrZeroProduction    = fmt.Errorf("%w: zero discounted energy production", ErrUndefinedMetric)
	ErrNoCapex           = fmt.Errorf("%w: no year-0 capital expenditure", ErrUndefinedMetric)
	ErrNoDebt            = fmt.Errorf("%w: no debt service in schedule", ErrUndefinedMetric)
	ErrInsufficientFlows = fmt.Errorf("%w: at least two cash flows required", ErrUndefinedMetric)
	ErrEmptySchedule     = fmt.Errorf("%w: empty schedule", ErrUndefinedMetric)
)

// FieldError is one rejected input field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports every problem found in the inputs of one run.
// No schedule is produced when it is returned.
type ValidationError struct {
	Errors []FieldError `json:"errors"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Is lets errors.Is(err, ErrValidation) match
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) add(field, format string, args ...interface{}) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (e *ValidationError) merge(other *ValidationError) {
	if other != nil {
		e.Errors = append(e.Errors, other.Errors...)
	}
}

func (e *ValidationError) orNil() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}
