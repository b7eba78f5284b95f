package aggregation

import (
	"math"
	"sort"
)

// NearestRankQuantile returns the q-quantile of xs by nearest-rank
// selection: the sample at index floor(q*(n-1)+0.5) of the ascending
// order statistics. No interpolation between order statistics. The input
// is not modified.
func NearestRankQuantile(xs []float64, q float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	idx := int(math.Floor(q*float64(len(sorted)-1) + 0.5))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// RunningMax folds xs into its running maximum: out[j] = max(out[j-1], xs[j]).
// The effective-EE profile is this fold applied to the Basel EE series.
func RunningMax(xs []float64) []float64 {
	out := make([]float64, len(xs))
	cur := math.Inf(-1)
	for j, x := range xs {
		if x > cur {
			cur = x
		}
		out[j] = cur
	}
	return out
}

// PrefixSums folds xs into cumulative sums: out[j] = xs[0] + ... + xs[j].
// COLVA and collateral-floor totals are the final element of this fold
// over the per-date increments.
func PrefixSums(xs []float64) []float64 {
	out := make([]float64, len(xs))
	sum := 0.0
	for j, x := range xs {
		sum += x
		out[j] = sum
	}
	return out
}

// TimeWeights converts an increasing time grid (year fractions from today)
// into normalized date-fraction weights: the first weight is the time to
// the first date, subsequent weights are the gaps, and the result sums to
// one. Returns nil for an empty grid.
func TimeWeights(times []float64) []float64 {
	if len(times) == 0 {
		return nil
	}
	weights := make([]float64, len(times))
	weights[0] = times[0]
	for k := 1; k < len(times); k++ {
		weights[k] = times[k] - times[k-1]
	}
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total == 0 {
		return weights
	}
	for k := range weights {
		weights[k] /= total
	}
	return weights
}
