package loss

import (
	"math"
	"runtime"

	"github.com/FlavioCFOliveira/semihard/internal/distance"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DefaultMargin is the margin used by NewSemiHardTriplet.
const DefaultMargin = 0.2

// parallelMinAnchors is the batch size below which anchors are scanned on the
// calling goroutine regardless of Workers.
const parallelMinAnchors = 64

// Triplet is one contributing (anchor, positive, negative) index triple.
type Triplet struct {
	Anchor   int `json:"anchor"`
	Positive int `json:"positive"`
	Negative int `json:"negative"`
}

// Result is the outcome of a mining pass.
type Result struct {
	Loss     float64   // reduced loss
	Sum      float64   // summed penalty over all contributing triplets
	Count    int       // number of contributing triplets
	Triplets []Triplet // contributing triplets, anchor-major, then positive, then negative index
}

// SemiHardTriplet is the triplet margin loss with semi-hard negative mining
// over a labelled batch of embeddings.
//
// For every anchor i and every positive j > i sharing its label, each negative
// k whose distance lies strictly inside (d(i,j), d(i,j)+Margin) contributes
// max(0, Margin - (d(i,k) - d(i,j))). Pairs are only formed from the lower
// index, so a positive pair only sees the negatives of its first member.
//
// Reference: FaceNet, https://arxiv.org/abs/1503.03832
type SemiHardTriplet struct {
	Margin    float64
	Reduction Reduction

	// Workers bounds the goroutines scanning anchors. Zero or negative uses
	// GOMAXPROCS. The result does not depend on this value.
	Workers int
}

// NewSemiHardTriplet returns a mean-reduced loss with the default margin.
func NewSemiHardTriplet() SemiHardTriplet {
	return SemiHardTriplet{Margin: DefaultMargin, Reduction: ReductionMean}
}

// ComputeLoss is a convenience wrapper around SemiHardTriplet.Forward.
func ComputeLoss(embeddings mat.Matrix, labels []int, margin float64, reduction Reduction) (float64, error) {
	return SemiHardTriplet{Margin: margin, Reduction: reduction}.Forward(embeddings, labels)
}

// Validate checks the configuration.
func (s SemiHardTriplet) Validate() error {
	if !(s.Margin > 0) || math.IsInf(s.Margin, 1) {
		return &InvalidMarginError{Margin: s.Margin}
	}
	if !s.Reduction.Valid() {
		return &InvalidReductionError{Value: s.Reduction.String()}
	}
	return nil
}

func (s SemiHardTriplet) check(embeddings mat.Matrix, labels []int) (n int, err error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}
	n, d := embeddings.Dims()
	if len(labels) != n {
		return 0, &DimensionMismatchError{What: "labels", Expected: n, Actual: len(labels)}
	}
	if n > 0 && d == 0 {
		return 0, ErrEmptyEmbedding
	}
	return n, nil
}

// Forward returns the reduced loss.
func (s SemiHardTriplet) Forward(embeddings mat.Matrix, labels []int) (float64, error) {
	res, err := s.Mine(embeddings, labels)
	if err != nil {
		return 0, err
	}
	return res.Loss, nil
}

// Mine selects every semi-hard triplet in the batch and aggregates their penalties.
// embeddings is read only.
func (s SemiHardTriplet) Mine(embeddings mat.Matrix, labels []int) (Result, error) {
	res, _, err := s.mine(embeddings, labels)
	return res, err
}

// Backward returns the N×D gradient of the reduced loss with respect to
// each embedding coordinate. Rows that took part in no contributing triplet
// are zero. An empty batch yields an empty matrix.
func (s SemiHardTriplet) Backward(embeddings mat.Matrix, labels []int) (*mat.Dense, error) {
	_, grad, err := s.ForwardBackward(embeddings, labels)
	return grad, err
}

// ForwardBackward mines the batch once and returns both the result and the gradient.
func (s SemiHardTriplet) ForwardBackward(embeddings mat.Matrix, labels []int) (Result, *mat.Dense, error) {
	res, dist, err := s.mine(embeddings, labels)
	if err != nil {
		return Result{}, nil, err
	}
	n, d := embeddings.Dims()
	if n == 0 {
		return res, &mat.Dense{}, nil
	}

	grad := mat.NewDense(n, d, nil)
	if res.Count == 0 {
		return res, grad, nil
	}

	w := 1.0
	if s.Reduction == ReductionMean {
		w = 1 / float64(res.Count)
	}

	rows := make([][]float64, n)
	row := func(i int) []float64 {
		if rows[i] == nil {
			rows[i] = mat.Row(nil, i, embeddings)
		}
		return rows[i]
	}

	diff := make([]float64, d)
	for _, t := range res.Triplets {
		dp := dist.At(t.Anchor, t.Positive)
		dn := dist.At(t.Anchor, t.Negative)
		if MarginRanking(dn, dp, 1, s.Margin) <= 0 {
			continue
		}
		a := row(t.Anchor)

		// penalty = margin - d(a,n) + d(a,p); d/da ||a-x|| = (a-x)/||a-x||.
		if dp > 0 {
			floats.SubTo(diff, a, row(t.Positive))
			floats.AddScaled(grad.RawRowView(t.Anchor), w/dp, diff)
			floats.AddScaled(grad.RawRowView(t.Positive), -w/dp, diff)
		}
		floats.SubTo(diff, a, row(t.Negative))
		floats.AddScaled(grad.RawRowView(t.Anchor), -w/dn, diff)
		floats.AddScaled(grad.RawRowView(t.Negative), w/dn, diff)
	}
	return res, grad, nil
}

// anchorPartial holds the contribution of a single anchor.
type anchorPartial struct {
	sum      float64
	triplets []Triplet
}

func (s SemiHardTriplet) mine(embeddings mat.Matrix, labels []int) (Result, *mat.SymDense, error) {
	n, err := s.check(embeddings, labels)
	if err != nil {
		return Result{}, nil, err
	}
	if n == 0 {
		return Result{}, nil, nil
	}

	dist := distance.PairwiseL2(embeddings)
	parts := make([]anchorPartial, n)

	workers := s.workers(n)
	if workers <= 1 {
		for i := 0; i < n; i++ {
			s.mineAnchor(dist, labels, i, &parts[i])
		}
	} else {
		var g errgroup.Group
		chunk := (n + workers - 1) / workers
		for start := 0; start < n; start += chunk {
			end := min(start+chunk, n)
			g.Go(func() error {
				for i := start; i < end; i++ {
					s.mineAnchor(dist, labels, i, &parts[i])
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return Result{}, nil, err
		}
	}

	// Combine in anchor order so the sum does not depend on scheduling.
	var res Result
	for i := range parts {
		res.Sum += parts[i].sum
		res.Triplets = append(res.Triplets, parts[i].triplets...)
	}
	res.Count = len(res.Triplets)
	res.Loss = res.Sum
	if s.Reduction == ReductionMean && res.Count > 0 {
		res.Loss = res.Sum / float64(res.Count)
	}
	return res, dist, nil
}

func (s SemiHardTriplet) workers(n int) int {
	if n < parallelMinAnchors {
		return 1
	}
	w := s.Workers
	if w <= 0 {
		w = runtime.GOMAXPROCS(0)
	}
	return min(w, n)
}

// mineAnchor scans the positives above anchor i and the negatives of i.
func (s SemiHardTriplet) mineAnchor(dist *mat.SymDense, labels []int, i int, out *anchorPartial) {
	n := len(labels)
	anchor := labels[i]

	var negatives []int
	hasPositive := false
	for j := 0; j < n; j++ {
		switch {
		case labels[j] != anchor:
			negatives = append(negatives, j)
		case j > i:
			hasPositive = true
		}
	}
	if !hasPositive || len(negatives) == 0 {
		return
	}

	for p := i + 1; p < n; p++ {
		if labels[p] != anchor {
			continue
		}
		pd := dist.At(i, p)
		upper := pd + s.Margin
		for _, k := range negatives {
			nd := dist.At(i, k)
			if pd < nd && nd < upper {
				out.sum += MarginRanking(nd, pd, 1, s.Margin)
				out.triplets = append(out.triplets, Triplet{Anchor: i, Positive: p, Negative: k})
			}
		}
	}
}
