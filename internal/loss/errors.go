package loss

import (
	"errors"
	"fmt"
)

var (
	// ErrDimensionMismatch is matched by every *DimensionMismatchError.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrInvalidMargin is matched by every *InvalidMarginError.
	ErrInvalidMargin = errors.New("invalid margin")

	// ErrInvalidReduction is matched by every *InvalidReductionError.
	ErrInvalidReduction = errors.New("invalid reduction")

	// ErrEmptyEmbedding is returned when a non-empty batch has zero-width embeddings.
	ErrEmptyEmbedding = errors.New("embedding dimension must be at least 1")
)

// DimensionMismatchError reports two sizes that must agree but do not.
type DimensionMismatchError struct {
	What     string
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: %s: expected %d, got %d", e.What, e.Expected, e.Actual)
}

func (e *DimensionMismatchError) Unwrap() error { return ErrDimensionMismatch }

// InvalidMarginError reports a margin that is not a finite positive number.
type InvalidMarginError struct {
	Margin float64
}

func (e *InvalidMarginError) Error() string {
	return fmt.Sprintf("invalid margin: %v (must be finite and > 0)", e.Margin)
}

func (e *InvalidMarginError) Unwrap() error { return ErrInvalidMargin }

// InvalidReductionError reports an unrecognised reduction mode.
type InvalidReductionError struct {
	Value string
}

func (e *InvalidReductionError) Error() string {
	return fmt.Sprintf("invalid reduction: %q (want \"mean\" or \"sum\")", e.Value)
}

func (e *InvalidReductionError) Unwrap() error { return ErrInvalidReduction }
