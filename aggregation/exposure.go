package aggregation

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/meenmo/xvalib/calendar"
	"github.com/meenmo/xvalib/collateral"
	"github.com/meenmo/xvalib/cube"
	"github.com/meenmo/xvalib/marketdata"
	"github.com/meenmo/xvalib/portfolio"
	"github.com/meenmo/xvalib/scenario"
	"github.com/meenmo/xvalib/utils"
)

// ErrNegativeIM signals a negative dynamic initial margin value, a defect
// in the upstream margin calculator. It aborts the aggregation pass.
var ErrNegativeIM = errors.New("negative dynamic initial margin")

// exposureDayCount is the time axis convention for exposure weighting.
const exposureDayCount = "ACT/ACT"

// DIMCalculator supplies a netting set's simulated initial margin as a
// [date][sample] matrix. Values must be non-negative.
type DIMCalculator interface {
	DynamicIM(nettingSetID string) ([][]float64, error)
}

// ExposureInput is the immutable batch consumed by BuildNettedExposure.
// TradeCube provides time-0 trade valuations; NettingCube provides the
// pre-netted per-date, per-sample netting set values.
type ExposureInput struct {
	Portfolio   *portfolio.Portfolio
	Manager     *portfolio.Manager
	TradeCube   *cube.ScenarioCube
	NettingCube *cube.ScenarioCube
	ScenData    scenario.Data
	Market      *marketdata.Market

	Quantile                     float64
	CalcType                     collateral.CalculationType
	MultiPath                    bool
	ApplyInitialMargin           bool
	DIM                          DIMCalculator
	FullInitialCollateralisation bool

	Logger zerolog.Logger
}

// ExposureResult is the output of one aggregation pass: per-netting-set
// profiles plus the netting-set exposure cube (measures EPE, ENE).
type ExposureResult struct {
	Profiles map[string]*Profile
	Cube     *cube.ExposureCube
	Today    *portfolio.TodayValues
}

// BuildNettedExposure computes every netting set's exposure profile from
// the netted value cube, simulating collateral where an active CSA exists.
// It is a pure function of its input: re-running on identical inputs
// produces identical output.
func BuildNettedExposure(in ExposureInput) (*ExposureResult, error) {
	if in.Quantile <= 0 || in.Quantile >= 1 {
		return nil, fmt.Errorf("quantile %v outside (0,1)", in.Quantile)
	}
	if in.ApplyInitialMargin && in.DIM == nil {
		return nil, fmt.Errorf("initial margin enabled but no DIM calculator supplied")
	}
	log := in.Logger.With().Str("component", "netted_exposure").Logger()
	log.Info().Msg("compute netting set exposure profiles")

	today := in.Market.AsOf
	tv, err := in.Portfolio.ComputeTodayValues(in.TradeCube, today)
	if err != nil {
		return nil, err
	}

	dates := in.NettingCube.Dates()
	samples := in.NettingCube.Samples()

	times := make([]float64, len(dates))
	for j := range dates {
		times[j] = utils.YearFraction(today, dates[j], exposureDayCount)
	}

	cubeSamples := 1
	if in.MultiPath {
		cubeSamples = samples
	}
	expCube := cube.NewExposureCube(in.NettingCube.IDs(), dates, cubeSamples, 2)

	result := &ExposureResult{
		Profiles: make(map[string]*Profile, len(in.NettingCube.IDs())),
		Cube:     expCube,
		Today:    tv,
	}

	for i, nsID := range in.NettingCube.IDs() {
		log.Debug().Str("netting_set", nsID).Msg("aggregate exposure")

		ns, err := in.Manager.Get(nsID)
		if err != nil {
			return nil, err
		}
		valueToday, ok := tv.NettingSet[nsID]
		if !ok {
			return nil, fmt.Errorf("netting set %q in value cube has no trades in portfolio", nsID)
		}
		maturity := tv.MaturityByNetSet[nsID]
		values := in.NettingCube.Row(i)

		accounts, err := collateralPaths(in, ns, valueToday, values, maturity, log)
		if err != nil {
			return nil, err
		}

		// CSA index for the collateral rate floor accrual.
		csaIndexName := ""
		accrualDC := exposureDayCount
		if ns.CSA.Active {
			csaIndexName = ns.CSA.IndexName
			if csaIndexName != "" {
				if !in.ScenData.Has(scenario.IndexFixing, csaIndexName) {
					return nil, fmt.Errorf("scenario data does not provide index values for %q (netting set %s)",
						csaIndexName, nsID)
				}
				accrualDC = in.Market.IndexDayCount(csaIndexName)
			}
		}

		var dimMat [][]float64
		if in.ApplyInitialMargin {
			dimMat, err = in.DIM.DynamicIM(nsID)
			if err != nil {
				return nil, fmt.Errorf("dynamic IM for netting set %s: %w", nsID, err)
			}
			if len(dimMat) != len(dates) {
				return nil, fmt.Errorf("dynamic IM for netting set %s: matrix has %d date rows, want %d",
					nsID, len(dimMat), len(dates))
			}
			for j := range dimMat {
				if len(dimMat[j]) != samples {
					return nil, fmt.Errorf("dynamic IM for netting set %s: date %d has %d samples, want %d",
						nsID, j, len(dimMat[j]), samples)
				}
			}
		}

		p := &Profile{
			NettingSetID:       nsID,
			Counterparty:       ns.Counterparty,
			Today:              today,
			Dates:              dates,
			Maturity:           maturity,
			EPE:                make([]float64, len(dates)+1),
			ENE:                make([]float64, len(dates)+1),
			EEB:                make([]float64, len(dates)+1),
			PFE:                make([]float64, len(dates)+1),
			ExpectedCollateral: make([]float64, len(dates)+1),
			COLVAInc:           make([]float64, len(dates)+1),
			FloorInc:           make([]float64, len(dates)+1),
		}

		fullInitial := in.FullInitialCollateralisation || ns.CSA.FullCollateralisation
		if fullInitial && ns.CSA.Active {
			// Collateral at t=0 is assumed to equal the portfolio value.
			p.EPE[0] = 0
			p.ENE[0] = 0
			p.PFE[0] = 0
		} else {
			p.EPE[0] = math.Max(valueToday, 0)
			p.ENE[0] = math.Max(-valueToday, 0)
			p.PFE[0] = math.Max(valueToday, 0)
		}
		// The expected collateral balance always assumes full collateral
		// at t=0, independent of the initial collateralisation flag.
		p.ExpectedCollateral[0] = -valueToday
		p.EEB[0] = p.EPE[0]
		expCube.SetT0(p.EPE[0], i, cube.MeasureEPE)
		expCube.SetT0(p.ENE[0], i, cube.MeasureENE)

		fSamples := float64(samples)
		for j, date := range dates {
			prevDate := today
			if j > 0 {
				prevDate = dates[j-1]
			}

			distribution := make([]float64, samples)
			for k := 0; k < samples; k++ {
				balance := 0.0
				if accounts != nil {
					balance = accounts[k].Balance(j)
				}
				p.ExpectedCollateral[j+1] += balance / fSamples

				exposure := values[j][k] - balance
				dim := 0.0
				if in.ApplyInitialMargin {
					dim = dimMat[j][k]
					if dim < 0 {
						return nil, fmt.Errorf("%w: netting set %s, date %d, sample %d: %v",
							ErrNegativeIM, nsID, j, k, dim)
					}
				}
				// dim is the held margin for EPE and the posted margin for
				// ENE, both expressed as positive numbers.
				p.EPE[j+1] += math.Max(exposure-dim, 0) / fSamples
				p.ENE[j+1] += math.Max(-exposure-dim, 0) / fSamples
				distribution[k] = exposure
				if in.MultiPath {
					expCube.Set(math.Max(exposure-dim, 0), i, j, k, cube.MeasureEPE)
					expCube.Set(math.Max(-exposure-dim, 0), i, j, k, cube.MeasureENE)
				}

				if ns.CSA.Active {
					indexValue := 0.0
					if csaIndexName != "" {
						indexValue, err = in.ScenData.Get(j, k, scenario.IndexFixing, csaIndexName)
						if err != nil {
							return nil, fmt.Errorf("netting set %s: %w", nsID, err)
						}
					}
					dcf := utils.YearFraction(prevDate, date, accrualDC)
					spread := ns.CSA.SpreadPay
					if balance >= 0 {
						spread = ns.CSA.SpreadRcv
					}
					// Floor on the compounded rate net of spread: the cost
					// of remuneration not going below zero.
					p.COLVAInc[j+1] += -balance * spread * dcf / fSamples
					p.FloorInc[j+1] += -balance * math.Max(-(indexValue-spread), 0) * dcf / fSamples
				}
			}
			if !in.MultiPath {
				expCube.Set(p.EPE[j+1], i, j, 0, cube.MeasureEPE)
				expCube.Set(p.ENE[j+1], i, j, 0, cube.MeasureENE)
			}
			p.EEB[j+1] = p.EPE[j+1] / in.Market.Discount.DF(date)
			p.PFE[j+1] = math.Max(NearestRankQuantile(distribution, in.Quantile), 0)
		}
		p.EEEB = RunningMax(p.EEB)

		// Totals are the final elements of the cumulative increment folds.
		colvaCum := PrefixSums(p.COLVAInc)
		floorCum := PrefixSums(p.FloorInc)
		p.COLVA = colvaCum[len(colvaCum)-1]
		p.CollateralFloor = floorCum[len(floorCum)-1]

		p.EPEB, p.EEPEB = baselAverages(today, maturity, times, p.EEB, p.EEEB)

		result.Profiles[nsID] = p
	}
	return result, nil
}

// baselAverages computes the time-averaged EPE_B and EEPE_B over the
// window from today to min(today + 1y + 4d on a weekends-only calendar,
// netting set maturity).
func baselAverages(today, maturity time.Time, times, eeb, eeeb []float64) (epeB, eepeB float64) {
	cutoff := calendar.AdjustFollowing(calendar.WEEKENDSONLY, today.AddDate(1, 0, 4))
	if maturity.Before(cutoff) {
		cutoff = maturity
	}
	horizon := utils.YearFraction(today, cutoff, exposureDayCount)

	t := 0
	for t < len(times) && times[t] <= horizon {
		t++
	}
	if t == 0 {
		return 0, 0
	}
	weights := TimeWeights(times[:t])
	for k := 0; k < t; k++ {
		epeB += eeb[k] * weights[k]
		eepeB += eeeb[k] * weights[k]
	}
	return epeB, eepeB
}

// collateralPaths builds the collateral account balance paths for a
// netting set, or returns nil when no active CSA exists. Missing FX or
// index scenario series are fatal precondition failures.
func collateralPaths(in ExposureInput, ns portfolio.NettingSet, valueToday float64,
	values [][]float64, maturity time.Time, log zerolog.Logger) ([]*collateral.Account, error) {

	if !ns.CSA.Active {
		log.Debug().Str("netting_set", ns.ID).Msg("CSA missing or inactive")
		return nil, nil
	}

	dates := in.NettingCube.Dates()
	samples := in.NettingCube.Samples()
	baseCcy := in.Market.BaseCcy

	fxToday := 1.0
	var fxScen [][]float64
	if ns.CSA.Currency != "" && ns.CSA.Currency != baseCcy {
		pair := ns.CSA.Currency + baseCcy
		var err error
		fxToday, err = in.Market.FXSpot(pair)
		if err != nil {
			return nil, fmt.Errorf("netting set %s: %w", ns.ID, err)
		}
		if !in.ScenData.Has(scenario.FXSpot, pair) {
			return nil, fmt.Errorf("scenario data does not provide FX rates for %q (netting set %s)", pair, ns.ID)
		}
		fxScen = make([][]float64, len(dates))
		for j := range dates {
			fxScen[j] = make([]float64, samples)
			for k := 0; k < samples; k++ {
				v, err := in.ScenData.Get(j, k, scenario.FXSpot, pair)
				if err != nil {
					return nil, fmt.Errorf("netting set %s: %w", ns.ID, err)
				}
				fxScen[j][k] = v
			}
		}
	}

	rateToday := 0.0
	var rateScen [][]float64
	dayCount := ""
	if ns.CSA.IndexName != "" {
		var err error
		rateToday, err = in.Market.IndexFixing(ns.CSA.IndexName)
		if err != nil {
			return nil, fmt.Errorf("netting set %s: %w", ns.ID, err)
		}
		dayCount = in.Market.IndexDayCount(ns.CSA.IndexName)
		if !in.ScenData.Has(scenario.IndexFixing, ns.CSA.IndexName) {
			return nil, fmt.Errorf("scenario data does not provide index values for %q (netting set %s)",
				ns.CSA.IndexName, ns.ID)
		}
		rateScen = make([][]float64, len(dates))
		for j := range dates {
			rateScen[j] = make([]float64, samples)
			for k := 0; k < samples; k++ {
				v, err := in.ScenData.Get(j, k, scenario.IndexFixing, ns.CSA.IndexName)
				if err != nil {
					return nil, fmt.Errorf("netting set %s: %w", ns.ID, err)
				}
				rateScen[j][k] = v
			}
		}
	}

	log.Debug().Str("netting_set", ns.ID).Float64("fx_today", fxToday).
		Float64("rate_today", rateToday).Msg("build collateral account balance paths")

	return collateral.BalancePaths(collateral.PathInput{
		ValueToday: valueToday,
		Values:     values,
		Maturity:   maturity,
		Today:      in.Market.AsOf,
		Dates:      dates,
		FXToday:    fxToday,
		FXScen:     fxScen,
		RateToday:  rateToday,
		RateScen:   rateScen,
		DayCount:   dayCount,
		CalcType:   in.CalcType,
	})
}
