package marketdata

import (
	"fmt"
	"time"

	"github.com/meenmo/xvalib/curve"
)

// Market is the read-only market snapshot the aggregation engine depends
// on. It is assembled upstream (file, database, test fixture) and passed
// in explicitly; the engine never consults ambient global state.
type Market struct {
	AsOf     time.Time
	BaseCcy  string
	Discount curve.Discount

	fxSpots       map[string]float64
	indexFixings  map[string]float64
	indexDayCount map[string]string
	creditCurves  map[string]*curve.CreditCurve
}

// NewMarket creates an empty snapshot anchored at asof.
func NewMarket(asof time.Time, baseCcy string, discount curve.Discount) *Market {
	return &Market{
		AsOf:          asof,
		BaseCcy:       baseCcy,
		Discount:      discount,
		fxSpots:       make(map[string]float64),
		indexFixings:  make(map[string]float64),
		indexDayCount: make(map[string]string),
		creditCurves:  make(map[string]*curve.CreditCurve),
	}
}

// AddFXSpot registers today's rate for pair (e.g. "EURUSD", CSA→base).
func (m *Market) AddFXSpot(pair string, rate float64) { m.fxSpots[pair] = rate }

// AddIndexFixing registers today's fixing and day count for an index.
func (m *Market) AddIndexFixing(name string, fixing float64, dayCount string) {
	m.indexFixings[name] = fixing
	if dayCount != "" {
		m.indexDayCount[name] = dayCount
	}
}

// AddCreditCurve registers a counterparty's default curve.
func (m *Market) AddCreditCurve(id string, c *curve.CreditCurve) { m.creditCurves[id] = c }

// FXSpot returns today's rate for pair.
func (m *Market) FXSpot(pair string) (float64, error) {
	r, ok := m.fxSpots[pair]
	if !ok {
		return 0, fmt.Errorf("market: no FX spot for pair %q", pair)
	}
	return r, nil
}

// IndexFixing returns today's fixing for the named index.
func (m *Market) IndexFixing(name string) (float64, error) {
	f, ok := m.indexFixings[name]
	if !ok {
		return 0, fmt.Errorf("market: no fixing for index %q", name)
	}
	return f, nil
}

// IndexDayCount returns the accrual day count for the named index,
// defaulting to ACT/ACT when none was registered.
func (m *Market) IndexDayCount(name string) string {
	if dc, ok := m.indexDayCount[name]; ok {
		return dc
	}
	return "ACT/ACT"
}

// CreditCurve returns the default curve for a counterparty id.
func (m *Market) CreditCurve(id string) (*curve.CreditCurve, error) {
	c, ok := m.creditCurves[id]
	if !ok {
		return nil, fmt.Errorf("market: default curve missing for counterparty %q", id)
	}
	return c, nil
}

// HasCreditCurve reports whether a default curve is registered for id.
func (m *Market) HasCreditCurve(id string) bool {
	_, ok := m.creditCurves[id]
	return ok
}
