package distance

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestL2(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float64
		expected float64
	}{
		{"Simple", []float64{0, 0}, []float64{3, 4}, 5},
		{"Identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 0},
		{"OneDim", []float64{1.05}, []float64{0}, 1.05},
		{"Empty", []float64{}, []float64{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, L2(tt.a, tt.b), 1e-12)
		})
	}
}

func TestL2LengthMismatch(t *testing.T) {
	assert.Panics(t, func() { L2([]float64{1}, []float64{1, 2}) })
}

func TestPairwiseL2Empty(t *testing.T) {
	d := PairwiseL2(&mat.Dense{})
	assert.True(t, d.IsEmpty())
}

func TestPairwiseL2Known(t *testing.T) {
	x := mat.NewDense(4, 1, []float64{0.0, 1.0, 5.0, 5.2})
	d := PairwiseL2(x)

	require.Equal(t, 4, d.SymmetricDim())
	assert.InDelta(t, 1.0, d.At(0, 1), 1e-12)
	assert.InDelta(t, 5.0, d.At(0, 2), 1e-12)
	assert.InDelta(t, 5.2, d.At(0, 3), 1e-12)
	assert.InDelta(t, 4.2, d.At(1, 3), 1e-12)
	assert.InDelta(t, 0.2, d.At(2, 3), 1e-12)
}

func TestPairwiseL2SymmetricAgainstL2(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	const n, dim = 24, 16
	data := make([]float64, n*dim)
	for i := range data {
		data[i] = rng.NormFloat64()
	}
	x := mat.NewDense(n, dim, data)

	d := PairwiseL2(x)
	for i := 0; i < n; i++ {
		assert.Equal(t, 0.0, d.At(i, i), "diagonal %d", i)
		for j := 0; j < n; j++ {
			assert.Equal(t, d.At(i, j), d.At(j, i))
			assert.Equal(t, L2(x.RawRowView(i), x.RawRowView(j)), d.At(i, j), "(%d,%d)", i, j)
		}
	}
}

func TestPairwiseL2ShiftInvariant(t *testing.T) {
	base := []float64{0, 0, 1, 0.5, 1.05, -0.25, 5.2, 2}

	for _, off := range []float64{1e4, 1e6, 1e8} {
		shifted := make([]float64, len(base))
		for i, v := range base {
			shifted[i] = v + off
		}

		want := PairwiseL2(mat.NewDense(4, 2, base))
		got := PairwiseL2(mat.NewDense(4, 2, shifted))
		// The only error left is the rounding of v+off itself.
		assert.True(t, mat.EqualApprox(want, got, 1e-6), "offset %g", off)
	}
}

func TestPairwiseL2DuplicateRows(t *testing.T) {
	x := mat.NewDense(3, 3, []float64{
		0.1, 0.2, 0.3,
		0.1, 0.2, 0.3,
		1e8, 1e8, 1e8,
	})
	d := PairwiseL2(x)
	assert.Equal(t, 0.0, d.At(0, 1))
}

func TestPairwiseL2DoesNotMutate(t *testing.T) {
	data := []float64{1, 2, 3, 4, 5, 6}
	x := mat.NewDense(3, 2, append([]float64(nil), data...))
	_ = PairwiseL2(x)
	assert.Equal(t, data, x.RawMatrix().Data)
}
