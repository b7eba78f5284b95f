package aggregation

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/meenmo/xvalib/collateral"
	"github.com/meenmo/xvalib/cube"
	"github.com/meenmo/xvalib/marketdata"
	"github.com/meenmo/xvalib/portfolio"
	"github.com/meenmo/xvalib/scenario"
)

// Analytics toggles the optional stages of a post-processing run.
type Analytics struct {
	KVA bool
	DIM bool
}

// PostProcessInput is the immutable batch for a full aggregation run:
// exposure, allocation and capital. All collaborators enter here
// explicitly; the engine keeps no state between runs.
type PostProcessInput struct {
	Portfolio   *portfolio.Portfolio
	Manager     *portfolio.Manager
	TradeCube   *cube.ScenarioCube
	NettingCube *cube.ScenarioCube
	ScenData    scenario.Data
	Market      *marketdata.Market

	Quantile                     float64
	CalcType                     collateral.CalculationType
	MultiPath                    bool
	FullInitialCollateralisation bool

	AllocationMethod AllocationMethod
	// Stand-alone per-trade adjustments from the external CVA/DVA
	// calculators, consumed by RelativeXVA allocation.
	TradeCVA map[string]float64
	TradeDVA map[string]float64

	DVAName   string
	KVAParams KVAParams
	Analytics Analytics
	DIM       DIMCalculator

	Logger zerolog.Logger
}

// Results exposes the populated cubes and per-netting-set profiles of a
// completed run. All accessors are read-only.
type Results struct {
	Exposure  *ExposureResult
	TradeCube *cube.ExposureCube
	Capital   map[string]Capital
}

// PostProcess runs the aggregation pipeline: netting-set exposure with
// collateral, allocation back to trades, and the KVA accruals. Any
// precondition or invariant failure aborts the run; there is no partial
// output.
func PostProcess(in PostProcessInput) (*Results, error) {
	log := in.Logger.With().Str("component", "postprocess").Logger()

	if err := in.Portfolio.Align(in.TradeCube); err != nil {
		return nil, err
	}
	if in.Analytics.DIM && in.DIM == nil {
		return nil, fmt.Errorf("dim analytic enabled but no DIM calculator supplied")
	}

	// A trade's counterparty should agree with its netting set's; a
	// mismatch is reported but tolerated.
	for _, t := range in.Portfolio.Trades() {
		ns, err := in.Manager.Get(t.NettingSetID)
		if err != nil {
			return nil, fmt.Errorf("trade %s: %w", t.ID, err)
		}
		if t.Counterparty != ns.Counterparty {
			log.Warn().Str("trade", t.ID).
				Str("trade_counterparty", t.Counterparty).
				Str("netting_set_counterparty", ns.Counterparty).
				Msg("counterparty from trade is not the same as counterparty from trade's netting set")
		}
	}

	exposure, err := BuildNettedExposure(ExposureInput{
		Portfolio:                    in.Portfolio,
		Manager:                      in.Manager,
		TradeCube:                    in.TradeCube,
		NettingCube:                  in.NettingCube,
		ScenData:                     in.ScenData,
		Market:                       in.Market,
		Quantile:                     in.Quantile,
		CalcType:                     in.CalcType,
		MultiPath:                    in.MultiPath,
		ApplyInitialMargin:           in.Analytics.DIM,
		DIM:                          in.DIM,
		FullInitialCollateralisation: in.FullInitialCollateralisation,
		Logger:                       in.Logger,
	})
	if err != nil {
		return nil, err
	}

	tradeIDs := in.TradeCube.IDs()
	tradeCube := cube.NewExposureCube(tradeIDs, in.NettingCube.Dates(), exposure.Cube.Samples(), 4)

	if err := Allocate(AllocationInput{
		Method:     in.AllocationMethod,
		Portfolio:  in.Portfolio,
		Today:      exposure.Today,
		NettedCube: exposure.Cube,
		TradeCube:  tradeCube,
		TradeCVA:   in.TradeCVA,
		TradeDVA:   in.TradeDVA,
		Logger:     in.Logger,
	}); err != nil {
		return nil, err
	}

	capital, err := UpdateKVA(KVAInput{
		Profiles: exposure.Profiles,
		Market:   in.Market,
		DVAName:  in.DVAName,
		Params:   in.KVAParams,
		Enabled:  in.Analytics.KVA,
		Logger:   in.Logger,
	})
	if err != nil {
		return nil, err
	}

	return &Results{Exposure: exposure, TradeCube: tradeCube, Capital: capital}, nil
}

// Profile returns the exposure profile for a netting set.
func (r *Results) Profile(nettingSetID string) (*Profile, error) {
	p, ok := r.Exposure.Profiles[nettingSetID]
	if !ok {
		return nil, fmt.Errorf("netting set %q not found in exposure map", nettingSetID)
	}
	return p, nil
}

// NetEPE returns the sample-averaged netted EPE series for a netting set,
// one value per cube date (profile slot 0 excluded).
func (r *Results) NetEPE(nettingSetID string) ([]float64, error) {
	return r.Exposure.Cube.MeanExposure(nettingSetID, cube.MeasureEPE)
}

// NetENE returns the sample-averaged netted ENE series for a netting set.
func (r *Results) NetENE(nettingSetID string) ([]float64, error) {
	return r.Exposure.Cube.MeanExposure(nettingSetID, cube.MeasureENE)
}

// AllocatedTradeEPE returns the sample-averaged allocated EPE series for a
// trade.
func (r *Results) AllocatedTradeEPE(tradeID string) ([]float64, error) {
	return r.TradeCube.MeanExposure(tradeID, cube.MeasureAllocatedEPE)
}

// AllocatedTradeENE returns the sample-averaged allocated ENE series for a
// trade.
func (r *Results) AllocatedTradeENE(tradeID string) ([]float64, error) {
	return r.TradeCube.MeanExposure(tradeID, cube.MeasureAllocatedENE)
}

// NettingSetCapital returns the accumulated KVA components for a netting
// set.
func (r *Results) NettingSetCapital(nettingSetID string) (Capital, error) {
	c, ok := r.Capital[nettingSetID]
	if !ok {
		return Capital{}, fmt.Errorf("netting set %q not found in capital map", nettingSetID)
	}
	return c, nil
}
