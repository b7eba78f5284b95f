package aggregation

import "time"

// Profile holds one netting set's exposure series. Every series has
// length len(Dates)+1: slot 0 is today, slot j+1 is cube date j.
type Profile struct {
	NettingSetID string
	Counterparty string
	Today        time.Time
	Dates        []time.Time
	Maturity     time.Time

	// EPE and ENE are the sample-averaged positive/negative exposures.
	EPE []float64
	ENE []float64
	// EEB is EPE with today's discounting removed (the Basel EE); EEEB is
	// its running maximum (effective EE, non-decreasing by construction).
	EEB  []float64
	EEEB []float64
	// PFE is the nearest-rank quantile of the exposure distribution,
	// floored at zero.
	PFE []float64
	// ExpectedCollateral is the sample-averaged account balance.
	ExpectedCollateral []float64
	// COLVAInc and FloorInc are the per-date collateral spread cost and
	// collateral rate floor cost increments; they may be negative.
	COLVAInc []float64
	FloorInc []float64

	// EPEB and EEPEB are the Basel time-averaged EPE and effective EPE
	// over the one-year (or shorter, to maturity) window.
	EPEB  float64
	EEPEB float64
	// COLVA and CollateralFloor are the increment totals.
	COLVA           float64
	CollateralFloor float64
}

// Capital holds one netting set's accumulated KVA components, from our
// and the counterparty's perspective.
type Capital struct {
	OurKVACCR   float64
	TheirKVACCR float64
	OurKVACVA   float64
	TheirKVACVA float64
}
