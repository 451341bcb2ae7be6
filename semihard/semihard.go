// Package semihard is the public entry point for the semi-hard negative
// triplet margin loss.
package semihard

import (
	"github.com/FlavioCFOliveira/semihard/internal/distance"
	"github.com/FlavioCFOliveira/semihard/internal/loss"
	"gonum.org/v1/gonum/mat"
)

// Re-export common types for easier access
type (
	Loss      = loss.SemiHardTriplet
	Reduction = loss.Reduction
	Result    = loss.Result
	Triplet   = loss.Triplet

	DimensionMismatchError = loss.DimensionMismatchError
	InvalidMarginError     = loss.InvalidMarginError
	InvalidReductionError  = loss.InvalidReductionError
)

// Reductions
const (
	Mean = loss.ReductionMean
	Sum  = loss.ReductionSum
)

// DefaultMargin is the margin used by New.
const DefaultMargin = loss.DefaultMargin

// Errors
var (
	ErrDimensionMismatch = loss.ErrDimensionMismatch
	ErrInvalidMargin     = loss.ErrInvalidMargin
	ErrInvalidReduction  = loss.ErrInvalidReduction
	ErrEmptyEmbedding    = loss.ErrEmptyEmbedding
)

// New returns a mean-reduced loss with margin 0.2.
func New() Loss {
	return loss.NewSemiHardTriplet()
}

// ParseReduction converts "mean" or "sum" into a Reduction.
func ParseReduction(s string) (Reduction, error) {
	return loss.ParseReduction(s)
}

// ComputeLoss returns the semi-hard triplet loss of embeddings (one row per
// sample) with the given labels.
func ComputeLoss(embeddings mat.Matrix, labels []int, margin float64, reduction Reduction) (float64, error) {
	return loss.ComputeLoss(embeddings, labels, margin, reduction)
}

// PairwiseL2 returns the symmetric matrix of Euclidean distances between the rows of x.
func PairwiseL2(x mat.Matrix) *mat.SymDense {
	return distance.PairwiseL2(x)
}
