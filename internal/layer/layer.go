// Package layer provides the batch layers used to produce embeddings.
package layer

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Linear is a fully connected layer without activation: y = x·Wᵀ + b.
type Linear struct {
	// Shape: [out, in]
	weights *mat.Dense
	biases  []float64
	outSize int
	inSize  int

	input *mat.Dense // copy of the last forward input
	gradW *mat.Dense
	gradB []float64
}

// NewLinear creates a linear layer with Xavier/Glorot uniform weights drawn from src.
// A nil src uses a fresh, randomly seeded generator.
func NewLinear(in, out int, src rand.Source) *Linear {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}

	scale := math.Sqrt(2.0 / (float64(in) + float64(out)))
	wDist := distuv.Uniform{Min: -scale, Max: scale, Src: src}
	bDist := distuv.Uniform{Min: -0.1, Max: 0.1, Src: src}

	weights := make([]float64, out*in)
	for i := range weights {
		weights[i] = wDist.Rand()
	}
	biases := make([]float64, out)
	for i := range biases {
		biases[i] = bDist.Rand()
	}

	return &Linear{
		weights: mat.NewDense(out, in, weights),
		biases:  biases,
		outSize: out,
		inSize:  in,
		gradW:   mat.NewDense(out, in, nil),
		gradB:   make([]float64, out),
	}
}

// Forward computes x·Wᵀ + b for a batch x of shape [n, in].
func (l *Linear) Forward(x *mat.Dense) *mat.Dense {
	n, in := x.Dims()
	if in != l.inSize {
		panic("Linear: input width does not match layer input size")
	}

	l.input = mat.DenseCopyOf(x)
	out := mat.NewDense(n, l.outSize, nil)
	out.Mul(x, l.weights.T())
	for i := 0; i < n; i++ {
		floats.Add(out.RawRowView(i), l.biases)
	}
	return out
}

// Backward takes dL/dy of shape [n, out], stores dL/dW and dL/db and returns dL/dx.
func (l *Linear) Backward(grad *mat.Dense) *mat.Dense {
	if l.input == nil {
		panic("Linear: Backward called before Forward")
	}
	n, out := grad.Dims()
	if rows, _ := l.input.Dims(); n != rows || out != l.outSize {
		panic("Linear: gradient shape does not match last forward output")
	}

	l.gradW.Mul(grad.T(), l.input)

	clear(l.gradB)
	for i := 0; i < n; i++ {
		floats.Add(l.gradB, grad.RawRowView(i))
	}

	gradIn := mat.NewDense(n, l.inSize, nil)
	gradIn.Mul(grad, l.weights)
	return gradIn
}

// Params returns all layer parameters flattened (weights then biases).
func (l *Linear) Params() []float64 {
	params := make([]float64, 0, l.outSize*l.inSize+l.outSize)
	params = append(params, l.weights.RawMatrix().Data...)
	return append(params, l.biases...)
}

// SetParams updates weights and biases from a flattened slice (in-place).
func (l *Linear) SetParams(params []float64) {
	w := l.weights.RawMatrix().Data
	if len(params) != len(w)+len(l.biases) {
		panic("Linear: parameter count mismatch")
	}
	copy(w, params[:len(w)])
	copy(l.biases, params[len(w):])
}

// Gradients returns all layer gradients flattened, in Params order.
func (l *Linear) Gradients() []float64 {
	grads := make([]float64, 0, l.outSize*l.inSize+l.outSize)
	grads = append(grads, l.gradW.RawMatrix().Data...)
	return append(grads, l.gradB...)
}
