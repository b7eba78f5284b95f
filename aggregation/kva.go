package aggregation

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/meenmo/xvalib/marketdata"
	"github.com/meenmo/xvalib/utils"
)

// pdEpsilon floors default probabilities away from zero so the logarithms
// in the correlation and maturity adjustment terms stay finite.
const pdEpsilon = 1e-12

// KVAParams are the regulatory capital inputs for the KVA accruals.
type KVAParams struct {
	// CapitalDiscountRate discounts future risk capital to today with
	// simple annual compounding.
	CapitalDiscountRate float64 `yaml:"capitalDiscountRate" default:"0.10" validate:"gte=0"`
	// Alpha is the EAD multiplier on EEPE.
	Alpha float64 `yaml:"alpha" default:"1.4" validate:"gt=0"`
	// RegAdjustment scales risk weighted assets to capital (12.5 = 1/8%).
	RegAdjustment float64 `yaml:"regAdjustment" default:"12.5" validate:"gt=0"`
	// CapitalHurdle is the cost of holding capital per year.
	CapitalHurdle float64 `yaml:"capitalHurdle" default:"0.12" validate:"gte=0"`
	// OurPDFloor / TheirPDFloor floor the stressed PDs (0.03 for
	// corporates and banks; sovereigns are not floored).
	OurPDFloor   float64 `yaml:"ourPdFloor" default:"0.03" validate:"gte=0"`
	TheirPDFloor float64 `yaml:"theirPdFloor" default:"0.03" validate:"gte=0"`
	// CVA risk weights for the standardised CVA capital charge.
	OurCVARiskWeight   float64 `yaml:"ourCvaRiskWeight" default:"0.05" validate:"gte=0"`
	TheirCVARiskWeight float64 `yaml:"theirCvaRiskWeight" default:"0.05" validate:"gte=0"`
}

// KVAInput bundles what UpdateKVA needs beyond the exposure profiles.
// DVAName identifies our own credit curve; when empty, our PD enters the
// counterparty-perspective charge as (floored) zero.
type KVAInput struct {
	Profiles map[string]*Profile
	Market   *marketdata.Market
	DVAName  string
	Params   KVAParams
	Enabled  bool
	Logger   zerolog.Logger
}

// UpdateKVA accumulates the per-period KVA-CCR and KVA-CVA increments for
// every netting set, from our and the counterparty's perspective. When the
// kva analytic is disabled all results are zero.
func UpdateKVA(in KVAInput) (map[string]Capital, error) {
	result := make(map[string]Capital, len(in.Profiles))
	for nsID := range in.Profiles {
		result[nsID] = Capital{}
	}
	if !in.Enabled {
		return result, nil
	}
	log := in.Logger.With().Str("component", "kva").Logger()

	today := in.Market.AsOf
	oneYearAhead := today.AddDate(1, 0, 0)

	for nsID, p := range in.Profiles {
		log.Debug().Str("netting_set", nsID).Msg("KVA for netting set")

		cvaDts, err := in.Market.CreditCurve(p.Counterparty)
		if err != nil {
			return nil, fmt.Errorf("KVA for netting set %s: %w", nsID, err)
		}
		pd1 := math.Max(cvaDts.DefaultProb(oneYearAhead), pdEpsilon)
		lgd1 := 1 - cvaDts.Recovery()

		pd2 := pdEpsilon
		lgd2 := 1.0
		if in.DVAName != "" {
			dvaDts, err := in.Market.CreditCurve(in.DVAName)
			if err != nil {
				return nil, fmt.Errorf("KVA for netting set %s: %w", nsID, err)
			}
			pd2 = math.Max(dvaDts.DefaultProb(oneYearAhead), pdEpsilon)
			lgd2 = 1 - dvaDts.Recovery()
		} else {
			log.Warn().Msg("dvaName not specified, own PD set to zero for their KVA calculation")
		}

		// Worst case one-year PDs via the single-factor Vasicek transform,
		// with Gordy's PD-dependent asset correlation blending the 12% and
		// 24% limits.
		stressed1 := stressedPD(pd1)
		stressed2 := stressedPD(pd2)
		kva99PD1 := math.Max(stressed1, in.Params.TheirPDFloor)
		kva99PD2 := math.Max(stressed2, in.Params.OurPDFloor)

		// B(PD) term of the maturity adjustment factor.
		matAdjB1 := math.Pow(0.11852-0.05478*math.Log(pd1), 2)
		matAdjB2 := math.Pow(0.11852-0.05478*math.Log(pd2), 2)

		cap := Capital{}
		dates := p.Dates
		for j := range dates {
			d0 := today
			if j > 0 {
				d0 = dates[j-1]
			}
			d1 := dates[j]

			// Cut-off index for the rolling EEPE/EENE: one year ahead.
			kmax := j
			oneYearOut := d1.AddDate(1, 0, 4)
			for kmax < len(dates)-1 && dates[kmax].Before(oneYearOut) {
				kmax++
			}

			var (
				eee1, eee2                 float64
				effMatNumer1, effMatNumer2 float64
				effMatDenom1, effMatDenom2 float64
				eepe1, eepe2               float64
				sumdt                      float64
				eee1B, eee2B               float64
				count                      int
			)
			for k := j; k < len(dates); k++ {
				d2 := dates[k]
				prevDate := today
				if k > 0 {
					prevDate = dates[k-1]
				}

				eee1 = math.Max(eee1, p.EPE[k+1])
				eee2 = math.Max(eee2, p.ENE[k+1])

				// Effective maturity components, split at the one-year
				// lookahead boundary.
				horizon := utils.YearFraction(d1, d2, exposureDayCount)
				gap := utils.YearFraction(prevDate, d2, exposureDayCount)
				if horizon > 1.0 {
					effMatNumer1 += p.EPE[k+1] * gap
					effMatNumer2 += p.ENE[k+1] * gap
				} else {
					effMatDenom1 += eee1 * gap
					effMatDenom2 += eee2 * gap
				}

				if k < kmax {
					dt := utils.YearFraction(dates[k], dates[k+1], exposureDayCount)
					sumdt += dt
					epeB := p.EPE[k+1] / in.Market.Discount.DF(dates[k])
					eneB := p.ENE[k+1] / in.Market.Discount.DF(dates[k])
					eee1B = math.Max(epeB, eee1B)
					eee2B = math.Max(eneB, eee2B)
					eepe1 += eee1B * dt
					eepe2 += eee2B * dt
					count++
				}
			}
			if count > 0 {
				eepe1 /= sumdt
				eepe2 /= sumdt
			} else {
				eepe1, eepe2 = 0, 0
			}

			// Effective maturity capped at 5 (floored at 1 by the +1 form).
			m1 := effectiveMaturity(effMatNumer1, effMatDenom1, true)
			m2 := effectiveMaturity(effMatNumer2, effMatDenom2, true)

			// MA(PD, M) = (1 + (M - 2.5) B(PD)) / (1 - 1.5 B(PD)),
			// capped at 5, floored at 1.
			ma1 := clamp((1+(m1-2.5)*matAdjB1)/(1-1.5*matAdjB1), 1, 5)
			ma2 := clamp((1+(m2-2.5)*matAdjB2)/(1-1.5*matAdjB2), 1, 5)

			// CCR capital: RC = alpha x EEPE x LGD x PD99.9 x MA(PD, M).
			rc1 := in.Params.Alpha * eepe1 * lgd1 * kva99PD1 * ma1
			rc2 := in.Params.Alpha * eepe2 * lgd2 * kva99PD2 * ma2

			// Simple annual compounding to today, per the regulatory
			// formula; deliberately not the engine's day-count discounting.
			capDiscount := 1 / math.Pow(1+in.Params.CapitalDiscountRate,
				utils.YearFraction(today, d0, exposureDayCount))
			periodScale := capDiscount * utils.YearFraction(d0, d1, exposureDayCount) *
				in.Params.CapitalHurdle * in.Params.RegAdjustment

			cap.OurKVACCR += rc1 * periodScale
			cap.TheirKVACCR += rc2 * periodScale

			// CVA capital: effective maturity without the cap at 5,
			// discount factor set to 1 for IMM banks.
			cvaM1 := effectiveMaturity(effMatNumer1, effMatDenom1, false)
			cvaM2 := effectiveMaturity(effMatNumer2, effMatDenom2, false)
			scva1 := in.Params.TheirCVARiskWeight * cvaM1 * eepe1
			scva2 := in.Params.OurCVARiskWeight * cvaM2 * eepe2

			cap.OurKVACVA += scva1 * periodScale
			cap.TheirKVACVA += scva2 * periodScale
		}

		log.Debug().Str("netting_set", nsID).
			Float64("our_kva_ccr", cap.OurKVACCR).
			Float64("their_kva_ccr", cap.TheirKVACCR).
			Float64("our_kva_cva", cap.OurKVACVA).
			Float64("their_kva_cva", cap.TheirKVACVA).
			Msg("KVA accumulated")
		result[nsID] = cap
	}
	return result, nil
}

// stressedPD applies the Basel IRB large-homogeneous-pool approximation:
// worst case one-year PD at the 99.9th percentile, net of the base PD.
func stressedPD(pd float64) float64 {
	w := (1 - math.Exp(-50*pd)) / (1 - math.Exp(-50))
	rho := 0.12*w + 0.24*(1-w)

	n := distuv.UnitNormal
	stressed := n.CDF((n.Quantile(pd) + math.Sqrt(rho)*n.Quantile(0.999)) / math.Sqrt(1-rho))
	return stressed - pd
}

// effectiveMaturity combines the maturity-weighted numerator/denominator
// pair into 1 + numer/denom, optionally capped at 5.
func effectiveMaturity(numer, denom float64, capped bool) float64 {
	m := 1.0
	if denom != 0 {
		m += numer / denom
	}
	if capped && m > 5 {
		m = 5
	}
	return m
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(math.Min(x, hi), lo)
}
