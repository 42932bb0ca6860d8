package virtual

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidArgument is matched by every [InvalidArgumentError].
var ErrInvalidArgument = errors.New("invalid argument")

// InvalidArgumentError reports an argument rejected at the engine boundary.
// The operation that returned it did not mutate any state.
type InvalidArgumentError struct {
	Op    string
	Name  string
	Value any
	Limit string
}

// Error implements the error interface.
func (e *InvalidArgumentError) Error() string {
	if e.Limit == "" {
		return fmt.Sprintf("%s: invalid %s %v", e.Op, e.Name, e.Value)
	}
	return fmt.Sprintf("%s: invalid %s %v (want %s)", e.Op, e.Name, e.Value, e.Limit)
}

// Is lets errors.Is match ErrInvalidArgument.
func (e *InvalidArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

func indexError(op string, index, n int) error {
	return &InvalidArgumentError{
		Op:    op,
		Name:  "index",
		Value: index,
		Limit: fmt.Sprintf("0 <= index < %d", n),
	}
}

// IsInvalidArgument checks if the given error is an invalid argument error.
func IsInvalidArgument(err error) bool {
	var argErr *InvalidArgumentError
	return errors.As(err, &argErr)
}

// Diagnostic describes a recoverable anomaly, such as a negative measured
// extent. Diagnostics never interrupt rendering.
type Diagnostic struct {
	Kind     DiagnosticKind
	Index    int
	Reported float64
	Applied  float64
}

type DiagnosticKind string

const (
	DiagnosticNegativeExtent  DiagnosticKind = "negative_extent"
	DiagnosticNonFiniteExtent DiagnosticKind = "non_finite_extent"
)

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s at index %d: reported %v, applied %v", d.Kind, d.Index, d.Reported, d.Applied)
}

// sanitizeExtent clamps a measured extent to a safe value. ok is false when
// the reported value was an anomaly.
func sanitizeExtent(v float64) (clean float64, kind DiagnosticKind, ok bool) {
	switch {
	case math.IsNaN(v) || math.IsInf(v, 0):
		return 0, DiagnosticNonFiniteExtent, false
	case v < 0:
		return 0, DiagnosticNegativeExtent, false
	}
	return v, "", true
}
