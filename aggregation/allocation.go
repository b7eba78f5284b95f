package aggregation

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/meenmo/xvalib/cube"
	"github.com/meenmo/xvalib/portfolio"
)

// AllocationMethod selects how netting-set exposure is redistributed back
// to the constituent trades.
type AllocationMethod int

const (
	// AllocationNone writes zero allocated exposure for every trade.
	AllocationNone AllocationMethod = iota
	// AllocationMarginal is owned by an external marginal-allocation
	// engine; this stage leaves the allocated slots untouched.
	AllocationMarginal
	// AllocationRelativeFairValueGross weights by |today's trade value|
	// relative to the netting set's gross value.
	AllocationRelativeFairValueGross
	// AllocationRelativeFairValueNet weights by the positive (negative)
	// part of today's trade value relative to the netting set's positive
	// (negative) value sum.
	AllocationRelativeFairValueNet
	// AllocationRelativeXVA weights by each trade's stand-alone CVA (DVA)
	// share of the netting set total.
	AllocationRelativeXVA
)

// ErrZeroDenominator signals a ratio-based allocation whose denominator is
// exactly zero, an unusable configuration.
var ErrZeroDenominator = errors.New("zero allocation denominator")

// ParseAllocationMethod maps a configuration string to a method.
func ParseAllocationMethod(s string) (AllocationMethod, error) {
	switch s {
	case "None":
		return AllocationNone, nil
	case "Marginal":
		return AllocationMarginal, nil
	case "RelativeFairValueGross":
		return AllocationRelativeFairValueGross, nil
	case "RelativeFairValueNet":
		return AllocationRelativeFairValueNet, nil
	case "RelativeXVA":
		return AllocationRelativeXVA, nil
	default:
		return 0, fmt.Errorf("allocation method %q not recognized", s)
	}
}

func (m AllocationMethod) String() string {
	switch m {
	case AllocationNone:
		return "None"
	case AllocationMarginal:
		return "Marginal"
	case AllocationRelativeFairValueGross:
		return "RelativeFairValueGross"
	case AllocationRelativeFairValueNet:
		return "RelativeFairValueNet"
	case AllocationRelativeXVA:
		return "RelativeXVA"
	default:
		return fmt.Sprintf("AllocationMethod(%d)", int(m))
	}
}

// AllocationInput carries the allocation stage's inputs. TradeCVA/TradeDVA
// are the stand-alone per-trade adjustments, required for RelativeXVA.
type AllocationInput struct {
	Method     AllocationMethod
	Portfolio  *portfolio.Portfolio
	Today      *portfolio.TodayValues
	NettedCube *cube.ExposureCube
	TradeCube  *cube.ExposureCube
	TradeCVA   map[string]float64
	TradeDVA   map[string]float64
	Logger     zerolog.Logger
}

// Allocate redistributes the netted per-scenario EPE/ENE into the trade
// cube's allocated measure slots, trade by trade, scenario by scenario.
func Allocate(in AllocationInput) error {
	if in.Method == AllocationMarginal {
		// Left to the external marginal allocation engine.
		return nil
	}
	log := in.Logger.With().Str("component", "allocation").Logger()
	log.Info().Stringer("method", in.Method).Msg("allocate netting set exposure to trades")

	dates := in.NettedCube.Dates()
	samples := in.NettedCube.Samples()

	var cvaSums, dvaSums map[string]float64
	if in.Method == AllocationRelativeXVA {
		var err error
		cvaSums, dvaSums, err = xvaSums(in)
		if err != nil {
			return err
		}
	}

	for _, trade := range in.Portfolio.Trades() {
		nsIdx, err := in.NettedCube.Index(trade.NettingSetID)
		if err != nil {
			// Trades whose netting set was not aggregated cannot receive
			// an allocation.
			return fmt.Errorf("allocate trade %s: %w", trade.ID, err)
		}
		tIdx, err := in.TradeCube.Index(trade.ID)
		if err != nil {
			return err
		}

		var epeW, eneW float64
		switch in.Method {
		case AllocationNone:
			epeW, eneW = 0, 0
		case AllocationRelativeFairValueGross:
			epeW, eneW, err = grossWeights(in.Today, trade)
		case AllocationRelativeFairValueNet:
			epeW, eneW, err = netWeights(in.Today, trade)
		case AllocationRelativeXVA:
			epeW, eneW, err = xvaWeights(in, trade, cvaSums, dvaSums)
		default:
			err = fmt.Errorf("allocation method %s not available", in.Method)
		}
		if err != nil {
			return err
		}

		for j := range dates {
			for k := 0; k < samples; k++ {
				netEPE := in.NettedCube.Get(nsIdx, j, k, cube.MeasureEPE)
				netENE := in.NettedCube.Get(nsIdx, j, k, cube.MeasureENE)
				in.TradeCube.Set(netEPE*epeW, tIdx, j, k, cube.MeasureAllocatedEPE)
				in.TradeCube.Set(netENE*eneW, tIdx, j, k, cube.MeasureAllocatedENE)
			}
		}
	}
	return nil
}

// grossWeights allocates both measures by |v_i| / sum |v|.
func grossWeights(tv *portfolio.TodayValues, trade portfolio.Trade) (float64, float64, error) {
	gross := tv.PositiveByNetSet[trade.NettingSetID] - tv.NegativeByNetSet[trade.NettingSetID]
	if gross == 0 {
		return 0, 0, fmt.Errorf("%w: gross value of netting set %s is zero (trade %s)",
			ErrZeroDenominator, trade.NettingSetID, trade.ID)
	}
	w := math.Abs(tv.Trade[trade.ID]) / gross
	return w, w, nil
}

// netWeights allocates EPE by the positive part of today's value over the
// positive sum, and ENE by the negative part over the negative sum.
func netWeights(tv *portfolio.TodayValues, trade portfolio.Trade) (float64, float64, error) {
	pos := tv.PositiveByNetSet[trade.NettingSetID]
	neg := -tv.NegativeByNetSet[trade.NettingSetID]
	if pos == 0 {
		return 0, 0, fmt.Errorf("%w: positive value of netting set %s is zero (trade %s)",
			ErrZeroDenominator, trade.NettingSetID, trade.ID)
	}
	if neg == 0 {
		return 0, 0, fmt.Errorf("%w: negative value of netting set %s is zero (trade %s)",
			ErrZeroDenominator, trade.NettingSetID, trade.ID)
	}
	v := tv.Trade[trade.ID]
	return math.Max(v, 0) / pos, math.Max(-v, 0) / neg, nil
}

// xvaWeights allocates by the trade's stand-alone CVA (DVA) share of the
// netting set total. A zero trade adjustment simply allocates zero; zero
// netting set totals are configuration errors.
func xvaWeights(in AllocationInput, trade portfolio.Trade, cvaSums, dvaSums map[string]float64) (float64, float64, error) {
	tradeCVA, ok := in.TradeCVA[trade.ID]
	if !ok {
		return 0, 0, fmt.Errorf("no stand-alone CVA for trade %s", trade.ID)
	}
	tradeDVA, ok := in.TradeDVA[trade.ID]
	if !ok {
		return 0, 0, fmt.Errorf("no stand-alone DVA for trade %s", trade.ID)
	}
	sumCVA := cvaSums[trade.NettingSetID]
	sumDVA := dvaSums[trade.NettingSetID]
	if sumCVA == 0 {
		return 0, 0, fmt.Errorf("%w: netting set %s CVA total is zero (trade %s)",
			ErrZeroDenominator, trade.NettingSetID, trade.ID)
	}
	if sumDVA == 0 {
		return 0, 0, fmt.Errorf("%w: netting set %s DVA total is zero (trade %s)",
			ErrZeroDenominator, trade.NettingSetID, trade.ID)
	}
	return tradeCVA / sumCVA, tradeDVA / sumDVA, nil
}

func xvaSums(in AllocationInput) (map[string]float64, map[string]float64, error) {
	if in.TradeCVA == nil || in.TradeDVA == nil {
		return nil, nil, fmt.Errorf("RelativeXVA allocation requires stand-alone trade CVA/DVA inputs")
	}
	cvaSums := make(map[string]float64)
	dvaSums := make(map[string]float64)
	for _, trade := range in.Portfolio.Trades() {
		cvaSums[trade.NettingSetID] += in.TradeCVA[trade.ID]
		dvaSums[trade.NettingSetID] += in.TradeDVA[trade.ID]
	}
	return cvaSums, dvaSums, nil
}
