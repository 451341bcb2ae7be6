// Package loss provides metric-learning loss functions over embedding batches.
package loss

import "math"

// MarginRanking returns the ranking penalty for one pair: max(0, -y*(x1-x2) + margin).
// With y = 1 it is zero once x1 exceeds x2 by at least margin.
func MarginRanking(x1, x2, y, margin float64) float64 {
	return math.Max(0, -y*(x1-x2)+margin)
}
