package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Contract violations
	ErrInvalidSampleSize = errors.New("invalid sample size")
	ErrInvalidPValue     = errors.New("p-value outside [0,1]")
	ErrUnknownMethod     = errors.New("unknown method")
	ErrEmptyInput        = errors.New("empty input")

	// Resource guards
	ErrComputationTooExpensive = errors.New("computation too expensive")

	// Not found errors
	ErrNotFound    = errors.New("resource not found")
	ErrRunNotFound = fmt.Errorf("%w: sweep run", ErrNotFound)
)

// Error constructors with context
func NewInvalidSampleSizeError(n int) error {
	return fmt.Errorf("%w: n=%d, need n >= 1", ErrInvalidSampleSize, n)
}

func NewInvalidPValueError(index int, p float64) error {
	return fmt.Errorf("%w: p[%d]=%v", ErrInvalidPValue, index, p)
}

func NewUnknownMethodError(kind, name string) error {
	return fmt.Errorf("%w: %s %q", ErrUnknownMethod, kind, name)
}

func NewTooExpensiveError(method string, n, cap int) error {
	return fmt.Errorf("%w: method %s with n=%d exceeds cap %d", ErrComputationTooExpensive, method, n, cap)
}

// Error checking helpers
func IsContractViolation(err error) bool {
	return errors.Is(err, ErrInvalidSampleSize) ||
		errors.Is(err, ErrInvalidPValue) ||
		errors.Is(err, ErrUnknownMethod) ||
		errors.Is(err, ErrEmptyInput)
}

func IsTooExpensive(err error) bool {
	return errors.Is(err, ErrComputationTooExpensive)
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}
