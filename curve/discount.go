package curve

import (
	"fmt"
	"math"
	"time"

	"github.com/meenmo/xvalib/utils"
)

// Discount provides base-currency discount factors for exposure discounting.
type Discount interface {
	DF(t time.Time) float64
}

// curveDayCount is the time basis for curve interpolation. The curve time
// axis uses ACT/365F regardless of currency; leg or accrual specific day
// counts are applied by the consumers, not by the curve.
const curveDayCount = "ACT/365F"

// NodeCurve is a discount curve defined by explicit discount factor nodes,
// log-linearly interpolated on the ACT/365F time axis.
//
// Node dates before the as-of date are rejected; queries between nodes use
// the continuously compounded forward implied by the bracketing pair, and
// queries outside the node range extrapolate flat off the boundary slope.
type NodeCurve struct {
	asof    time.Time
	pillars []time.Time
	dfs     map[time.Time]float64
}

// NewNodeCurve builds a discount curve from DF nodes keyed by date.
func NewNodeCurve(asof time.Time, dfs map[time.Time]float64) (*NodeCurve, error) {
	if len(dfs) == 0 {
		return nil, fmt.Errorf("NewNodeCurve: no discount factor nodes")
	}
	c := &NodeCurve{
		asof: asof,
		dfs:  make(map[time.Time]float64, len(dfs)+1),
	}
	for d, df := range dfs {
		if d.Before(asof) {
			return nil, fmt.Errorf("NewNodeCurve: node %s before as-of %s",
				d.Format("2006-01-02"), asof.Format("2006-01-02"))
		}
		if df <= 0 {
			return nil, fmt.Errorf("NewNodeCurve: non-positive DF %v at %s", df, d.Format("2006-01-02"))
		}
		c.dfs[d] = df
		c.pillars = append(c.pillars, d)
	}
	if _, ok := c.dfs[asof]; !ok {
		c.dfs[asof] = 1.0
		c.pillars = append(c.pillars, asof)
	}
	utils.SortDates(c.pillars)
	return c, nil
}

// AsOf returns the curve's anchor date.
func (c *NodeCurve) AsOf() time.Time { return c.asof }

// DF returns the discount factor for date t.
func (c *NodeCurve) DF(t time.Time) float64 {
	if df, ok := c.dfs[t]; ok {
		return df
	}
	return c.interpolate(t)
}

func (c *NodeCurve) interpolate(t time.Time) float64 {
	// Simple log-linear
	if len(c.pillars) < 2 {
		return c.dfs[c.pillars[0]]
	}

	d1, d2 := utils.AdjacentDates(t, c.pillars)

	df1 := c.dfs[d1]
	df2 := c.dfs[d2]

	t1 := utils.YearFraction(c.asof, d1, curveDayCount)
	t2 := utils.YearFraction(c.asof, d2, curveDayCount)
	tTarget := utils.YearFraction(c.asof, t, curveDayCount)

	if t2 == t1 {
		return df1
	}

	forwardRate := math.Log(df1/df2) / (t2 - t1)
	return df1 * math.Exp(-forwardRate*(tTarget-t1))
}

// FlatCurve discounts at a single continuously compounded zero rate. It is
// convenient for tests and toy runs.
type FlatCurve struct {
	asof time.Time
	rate float64
}

// NewFlatCurve returns a curve with constant zero rate (decimal).
func NewFlatCurve(asof time.Time, rate float64) *FlatCurve {
	return &FlatCurve{asof: asof, rate: rate}
}

// DF returns exp(-r*t) with t on the ACT/365F axis.
func (c *FlatCurve) DF(t time.Time) float64 {
	return math.Exp(-c.rate * utils.YearFraction(c.asof, t, curveDayCount))
}
