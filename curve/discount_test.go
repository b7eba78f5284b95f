package curve_test

import (
	"math"
	"testing"
	"time"

	"github.com/meenmo/xvalib/curve"
	"github.com/meenmo/xvalib/utils"
)

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestNodeCurveExactNodes(t *testing.T) {
	t.Parallel()

	asof := date("2026-01-05")
	c, err := curve.NewNodeCurve(asof, map[time.Time]float64{
		date("2027-01-05"): 0.97,
		date("2028-01-05"): 0.93,
	})
	if err != nil {
		t.Fatalf("NewNodeCurve: %v", err)
	}

	if got := c.DF(asof); got != 1.0 {
		t.Fatalf("DF(asof): got %v want 1", got)
	}
	if got := c.DF(date("2027-01-05")); got != 0.97 {
		t.Fatalf("DF(1y node): got %v want 0.97", got)
	}
	if got := c.DF(date("2028-01-05")); got != 0.93 {
		t.Fatalf("DF(2y node): got %v want 0.93", got)
	}
}

func TestNodeCurveLogLinearInterpolation(t *testing.T) {
	t.Parallel()

	// Nodes sampled from a flat continuous 3% curve: log-linear
	// interpolation must reproduce the same curve between and beyond nodes.
	asof := date("2026-01-05")
	rate := 0.03
	nodes := make(map[time.Time]float64)
	for _, d := range []time.Time{date("2027-01-05"), date("2028-01-05")} {
		nodes[d] = math.Exp(-rate * utils.YearFraction(asof, d, "ACT/365F"))
	}
	c, err := curve.NewNodeCurve(asof, nodes)
	if err != nil {
		t.Fatalf("NewNodeCurve: %v", err)
	}

	for _, d := range []time.Time{date("2026-07-05"), date("2027-07-05"), date("2029-01-05")} {
		want := math.Exp(-rate * utils.YearFraction(asof, d, "ACT/365F"))
		if got := c.DF(d); math.Abs(got-want) > 1e-12 {
			t.Fatalf("DF(%s): got %v want %v", d.Format("2006-01-02"), got, want)
		}
	}
}

func TestNodeCurveValidation(t *testing.T) {
	t.Parallel()

	asof := date("2026-01-05")
	if _, err := curve.NewNodeCurve(asof, nil); err == nil {
		t.Fatalf("expected error for empty node map")
	}
	if _, err := curve.NewNodeCurve(asof, map[time.Time]float64{
		date("2025-01-05"): 0.99,
	}); err == nil {
		t.Fatalf("expected error for node before as-of")
	}
	if _, err := curve.NewNodeCurve(asof, map[time.Time]float64{
		date("2027-01-05"): 0,
	}); err == nil {
		t.Fatalf("expected error for non-positive discount factor")
	}
}

func TestFlatCurve(t *testing.T) {
	t.Parallel()

	asof := date("2026-01-05")
	c := curve.NewFlatCurve(asof, 0.05)
	d := date("2027-01-05")
	want := math.Exp(-0.05 * utils.YearFraction(asof, d, "ACT/365F"))
	if got := c.DF(d); math.Abs(got-want) > 1e-15 {
		t.Fatalf("DF: got %v want %v", got, want)
	}
	if got := curve.NewFlatCurve(asof, 0).DF(d); got != 1 {
		t.Fatalf("zero-rate DF: got %v want 1", got)
	}
}
