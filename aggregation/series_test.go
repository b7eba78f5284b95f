package aggregation_test

import (
	"math"
	"testing"

	"github.com/meenmo/xvalib/aggregation"
)

func TestNearestRankQuantile(t *testing.T) {
	t.Parallel()

	// index = floor(0.95*(3-1)+0.5) = floor(2.4) = 2
	got := aggregation.NearestRankQuantile([]float64{1, -1, 2}, 0.95)
	if got != 2 {
		t.Fatalf("quantile mismatch: got %v want 2", got)
	}

	// Median of five.
	got = aggregation.NearestRankQuantile([]float64{5, 1, 4, 2, 3}, 0.5)
	if got != 3 {
		t.Fatalf("median mismatch: got %v want 3", got)
	}

	// Single sample is returned whatever the quantile.
	got = aggregation.NearestRankQuantile([]float64{-7}, 0.99)
	if got != -7 {
		t.Fatalf("single sample mismatch: got %v want -7", got)
	}

	// Input must not be reordered.
	xs := []float64{3, 1, 2}
	aggregation.NearestRankQuantile(xs, 0.5)
	if xs[0] != 3 || xs[1] != 1 || xs[2] != 2 {
		t.Fatalf("input mutated: %v", xs)
	}
}

func TestRunningMax(t *testing.T) {
	t.Parallel()

	got := aggregation.RunningMax([]float64{1, 3, 2, 5, 4})
	want := []float64{1, 3, 3, 5, 5}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("running max mismatch at %d: got %v want %v", i, got[i], want[i])
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i] < got[i-1] {
			t.Fatalf("running max not monotone at %d", i)
		}
	}
}

func TestPrefixSums(t *testing.T) {
	t.Parallel()

	got := aggregation.PrefixSums([]float64{1, -2, 4})
	want := []float64{1, -1, 3}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-15 {
			t.Fatalf("prefix sum mismatch at %d: got %v want %v", i, got[i], want[i])
		}
	}
}

func TestTimeWeights(t *testing.T) {
	t.Parallel()

	w := aggregation.TimeWeights([]float64{0.25, 0.5, 1.0})
	sum := 0.0
	for _, x := range w {
		sum += x
	}
	if math.Abs(sum-1.0) > 1e-12 {
		t.Fatalf("weights do not sum to 1: %v", sum)
	}
	if math.Abs(w[0]-0.25) > 1e-12 || math.Abs(w[1]-0.25) > 1e-12 || math.Abs(w[2]-0.5) > 1e-12 {
		t.Fatalf("weights mismatch: %v", w)
	}

	if aggregation.TimeWeights(nil) != nil {
		t.Fatalf("expected nil weights for empty grid")
	}
}
