package projection

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration matches every *ConfigurationError.
	ErrConfiguration = errors.New("projection: invalid configuration")
	// ErrShape matches every *ShapeError.
	ErrShape = errors.New("projection: invalid input shape")
	// ErrComputation matches every *ComputationError.
	ErrComputation = errors.New("projection: computation failed")
)

// ConfigurationError reports a setup value that cannot be used.
type ConfigurationError struct {
	Key    string
	Value  any
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("projection: setup %q: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("projection: setup %q (%v): %s", e.Key, e.Value, e.Reason)
}

// Is lets errors.Is(err, ErrConfiguration) succeed.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// ShapeError reports an input series that does not fit the horizon.
type ShapeError struct {
	Field  string
	Want   int
	Got    int
	Reason string
}

func (e *ShapeError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("projection: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("projection: %s has %d values, horizon is %d", e.Field, e.Got, e.Want)
}

// Is lets errors.Is(err, ErrShape) succeed.
func (e *ShapeError) Is(target error) bool {
	return target == ErrShape
}

// ComputationError flags a non-finite value produced by the pipeline.
type ComputationError struct {
	Series string
	Month  int
}

func (e *ComputationError) Error() string {
	if e.Month < 0 {
		return fmt.Sprintf("projection: %s is not a finite number", e.Series)
	}
	return fmt.Sprintf("projection: %s produced a non-finite value at month %d", e.Series, e.Month)
}

// Is lets errors.Is(err, ErrComputation) succeed.
func (e *ComputationError) Is(target error) bool {
	return target == ErrComputation
}
