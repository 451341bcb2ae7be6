// Package distance computes Euclidean distances between embedding vectors.
package distance

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// L2 returns the Euclidean distance between a and b.
// Panics if the vectors have different lengths.
func L2(a, b []float64) float64 {
	if len(a) != len(b) {
		panic("distance: vectors must have same length")
	}
	return floats.Distance(a, b, 2)
}

// PairwiseL2 computes the N×N matrix of Euclidean distances between the rows of x.
//
// Every entry is summed from coordinate differences, so its rounding error
// scales with the distance and not with the magnitude of the rows: shifting
// all rows by the same vector leaves the matrix unchanged up to the rounding
// of the shifted inputs. The diagonal is exactly zero. x is never modified.
func PairwiseL2(x mat.Matrix) *mat.SymDense {
	n, d := x.Dims()
	if n == 0 {
		return &mat.SymDense{}
	}

	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = mat.Row(make([]float64, d), i, x)
	}

	dist := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dist.SetSym(i, j, L2(rows[i], rows[j]))
		}
	}
	return dist
}
