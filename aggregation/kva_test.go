package aggregation_test

import (
	"math"
	"testing"

	"github.com/rs/zerolog"

	"github.com/meenmo/xvalib/aggregation"
	"github.com/meenmo/xvalib/curve"
	"github.com/meenmo/xvalib/portfolio"
)

func defaultKVAParams() aggregation.KVAParams {
	return aggregation.KVAParams{
		CapitalDiscountRate: 0.10,
		Alpha:               1.4,
		RegAdjustment:       12.5,
		CapitalHurdle:       0.12,
		OurPDFloor:          0.03,
		TheirPDFloor:        0.03,
		OurCVARiskWeight:    0.05,
		TheirCVARiskWeight:  0.05,
	}
}

// kvaFixture runs the exposure fixture and registers flat hazard curves for
// the counterparty and for our own name.
func kvaFixture(t *testing.T) aggregation.KVAInput {
	t.Helper()

	fx := newExposureFixture(t, 0, portfolio.CSA{})
	res, err := aggregation.BuildNettedExposure(fx.input)
	if err != nil {
		t.Fatalf("BuildNettedExposure: %v", err)
	}

	cpty, err := curve.NewFlatHazardCurve(fx.asof, 0.02, 0.4, 10)
	if err != nil {
		t.Fatalf("counterparty curve: %v", err)
	}
	own, err := curve.NewFlatHazardCurve(fx.asof, 0.01, 0.4, 10)
	if err != nil {
		t.Fatalf("own curve: %v", err)
	}
	fx.input.Market.AddCreditCurve("CPTY", cpty)
	fx.input.Market.AddCreditCurve("BANK", own)

	return aggregation.KVAInput{
		Profiles: res.Profiles,
		Market:   fx.input.Market,
		DVAName:  "BANK",
		Params:   defaultKVAParams(),
		Enabled:  true,
		Logger:   zerolog.Nop(),
	}
}

func TestUpdateKVADisabled(t *testing.T) {
	t.Parallel()

	in := kvaFixture(t)
	in.Enabled = false
	caps, err := aggregation.UpdateKVA(in)
	if err != nil {
		t.Fatalf("UpdateKVA: %v", err)
	}
	c := caps["NS1"]
	if c != (aggregation.Capital{}) {
		t.Fatalf("disabled KVA should be all zero, got %+v", c)
	}
}

func TestUpdateKVAPositiveCharges(t *testing.T) {
	t.Parallel()

	in := kvaFixture(t)
	caps, err := aggregation.UpdateKVA(in)
	if err != nil {
		t.Fatalf("UpdateKVA: %v", err)
	}
	c := caps["NS1"]
	if c.OurKVACCR <= 0 {
		t.Fatalf("OurKVACCR should be positive, got %v", c.OurKVACCR)
	}
	if c.TheirKVACCR <= 0 {
		t.Fatalf("TheirKVACCR should be positive, got %v", c.TheirKVACCR)
	}
	if c.OurKVACVA <= 0 || c.TheirKVACVA <= 0 {
		t.Fatalf("CVA charges should be positive, got %+v", c)
	}
}

func TestUpdateKVALinearInHurdle(t *testing.T) {
	t.Parallel()

	in := kvaFixture(t)
	base, err := aggregation.UpdateKVA(in)
	if err != nil {
		t.Fatalf("UpdateKVA: %v", err)
	}

	in.Params.CapitalHurdle *= 2
	doubled, err := aggregation.UpdateKVA(in)
	if err != nil {
		t.Fatalf("UpdateKVA: %v", err)
	}

	b, d := base["NS1"], doubled["NS1"]
	pairs := [][2]float64{
		{b.OurKVACCR, d.OurKVACCR},
		{b.TheirKVACCR, d.TheirKVACCR},
		{b.OurKVACVA, d.OurKVACVA},
		{b.TheirKVACVA, d.TheirKVACVA},
	}
	for i, p := range pairs {
		if math.Abs(p[1]-2*p[0]) > 1e-12*math.Abs(p[0]) {
			t.Fatalf("component %d not linear in hurdle: %v vs %v", i, p[0], p[1])
		}
	}
}

func TestUpdateKVAMissingCounterpartyCurve(t *testing.T) {
	t.Parallel()

	// A fixture whose market never registered the counterparty curve.
	fx := newExposureFixture(t, 0, portfolio.CSA{})
	res, err := aggregation.BuildNettedExposure(fx.input)
	if err != nil {
		t.Fatalf("BuildNettedExposure: %v", err)
	}
	in := aggregation.KVAInput{
		Profiles: res.Profiles,
		Market:   fx.input.Market,
		Params:   defaultKVAParams(),
		Enabled:  true,
		Logger:   zerolog.Nop(),
	}

	if _, err := aggregation.UpdateKVA(in); err == nil {
		t.Fatalf("expected error for missing counterparty credit curve")
	}
}

func TestUpdateKVAWithoutOwnName(t *testing.T) {
	t.Parallel()

	// Without a dvaName our PD enters floored at (effectively) zero; the
	// run must still complete with finite charges.
	in := kvaFixture(t)
	in.DVAName = ""
	caps, err := aggregation.UpdateKVA(in)
	if err != nil {
		t.Fatalf("UpdateKVA: %v", err)
	}
	c := caps["NS1"]
	for i, v := range []float64{c.OurKVACCR, c.TheirKVACCR, c.OurKVACVA, c.TheirKVACVA} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("component %d not finite: %v", i, v)
		}
	}
	if c.TheirKVACCR <= 0 {
		t.Fatalf("TheirKVACCR should stay positive via the PD floor, got %v", c.TheirKVACCR)
	}
}
