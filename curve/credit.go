package curve

import (
	"fmt"
	"math"
	"time"

	"github.com/meenmo/xvalib/utils"
)

// CreditCurve holds a counterparty's survival probability term structure
// together with its recovery rate. Survival probabilities are log-linearly
// interpolated between nodes, equivalent to piecewise constant hazard rates.
type CreditCurve struct {
	asof     time.Time
	pillars  []time.Time
	survival map[time.Time]float64
	recovery float64
}

// NewCreditCurve builds a credit curve from survival probability nodes.
// Nodes must lie in (0,1]; the as-of node is pinned to 1.
func NewCreditCurve(asof time.Time, survival map[time.Time]float64, recovery float64) (*CreditCurve, error) {
	if len(survival) == 0 {
		return nil, fmt.Errorf("NewCreditCurve: no survival nodes")
	}
	if recovery < 0 || recovery >= 1 {
		return nil, fmt.Errorf("NewCreditCurve: recovery %v outside [0,1)", recovery)
	}
	c := &CreditCurve{
		asof:     asof,
		survival: make(map[time.Time]float64, len(survival)+1),
		recovery: recovery,
	}
	for d, s := range survival {
		if s <= 0 || s > 1 {
			return nil, fmt.Errorf("NewCreditCurve: survival %v at %s outside (0,1]", s, d.Format("2006-01-02"))
		}
		c.survival[d] = s
		c.pillars = append(c.pillars, d)
	}
	if _, ok := c.survival[asof]; !ok {
		c.survival[asof] = 1.0
		c.pillars = append(c.pillars, asof)
	}
	utils.SortDates(c.pillars)
	return c, nil
}

// NewFlatHazardCurve builds a credit curve from a constant hazard rate
// (decimal per year, ACT/365F axis), with nodes out to horizonYears.
func NewFlatHazardCurve(asof time.Time, hazard, recovery float64, horizonYears int) (*CreditCurve, error) {
	if hazard < 0 {
		return nil, fmt.Errorf("NewFlatHazardCurve: negative hazard rate %v", hazard)
	}
	nodes := make(map[time.Time]float64, horizonYears)
	for y := 1; y <= horizonYears; y++ {
		d := asof.AddDate(y, 0, 0)
		t := utils.YearFraction(asof, d, curveDayCount)
		nodes[d] = math.Exp(-hazard * t)
	}
	return NewCreditCurve(asof, nodes, recovery)
}

// Recovery returns the recovery rate assumed on default.
func (c *CreditCurve) Recovery() float64 { return c.recovery }

// SurvivalProb returns the probability of surviving to t.
func (c *CreditCurve) SurvivalProb(t time.Time) float64 {
	if !t.After(c.asof) {
		return 1.0
	}
	if s, ok := c.survival[t]; ok {
		return s
	}
	if len(c.pillars) < 2 {
		return c.survival[c.pillars[0]]
	}

	d1, d2 := utils.AdjacentDates(t, c.pillars)
	s1 := c.survival[d1]
	s2 := c.survival[d2]

	t1 := utils.YearFraction(c.asof, d1, curveDayCount)
	t2 := utils.YearFraction(c.asof, d2, curveDayCount)
	tTarget := utils.YearFraction(c.asof, t, curveDayCount)

	if t2 == t1 {
		return s1
	}

	hazard := math.Log(s1/s2) / (t2 - t1)
	s := s1 * math.Exp(-hazard*(tTarget-t1))
	if s > 1 {
		s = 1
	}
	return s
}

// DefaultProb returns the cumulative default probability to t.
func (c *CreditCurve) DefaultProb(t time.Time) float64 {
	return 1.0 - c.SurvivalProb(t)
}
