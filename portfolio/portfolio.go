package portfolio

import (
	"fmt"
	"time"

	"github.com/meenmo/xvalib/cube"
)

// Trade is the slice of a trade the aggregation engine needs: identity,
// netting membership and final maturity. Valuation lives in the cube.
type Trade struct {
	ID           string    `json:"id"`
	NettingSetID string    `json:"nettingSetId"`
	Counterparty string    `json:"counterparty"`
	Maturity     time.Time `json:"maturity"`
}

// Portfolio is an ordered trade list. The order must match the scenario
// cube's trade axis index for index.
type Portfolio struct {
	trades []Trade
}

// New builds a portfolio, rejecting duplicate trade ids.
func New(trades []Trade) (*Portfolio, error) {
	seen := make(map[string]struct{}, len(trades))
	for _, t := range trades {
		if t.ID == "" {
			return nil, fmt.Errorf("portfolio: trade with empty id")
		}
		if _, dup := seen[t.ID]; dup {
			return nil, fmt.Errorf("portfolio: duplicate trade id %q", t.ID)
		}
		seen[t.ID] = struct{}{}
	}
	return &Portfolio{trades: trades}, nil
}

// Trades returns the ordered trade list.
func (p *Portfolio) Trades() []Trade { return p.trades }

// Size returns the number of trades.
func (p *Portfolio) Size() int { return len(p.trades) }

// Align verifies that the trade-level cube carries exactly this
// portfolio's trades, in the same order.
func (p *Portfolio) Align(c *cube.ScenarioCube) error {
	ids := c.IDs()
	if len(ids) != len(p.trades) {
		return fmt.Errorf("portfolio size (%d) does not match cube trade size (%d)", len(p.trades), len(ids))
	}
	for i, t := range p.trades {
		if t.ID != ids[i] {
			return fmt.Errorf("portfolio trade #%d (id=%s) does not match cube trade id (%s)", i, t.ID, ids[i])
		}
	}
	return nil
}

// TodayValues are the per-trade and per-netting-set time-0 aggregates the
// aggregation and allocation stages start from.
type TodayValues struct {
	Trade            map[string]float64
	NettingSet       map[string]float64
	PositiveByNetSet map[string]float64
	NegativeByNetSet map[string]float64
	MaturityByNetSet map[string]time.Time
	CounterpartyByNS map[string]string
}

// ComputeTodayValues sums the cube's time-0 column into netting-set values
// and derives each netting set's maturity as the max trade maturity.
// NegativeByNetSet accumulates the (negative) sum of negative trade values.
func (p *Portfolio) ComputeTodayValues(c *cube.ScenarioCube, today time.Time) (*TodayValues, error) {
	if err := p.Align(c); err != nil {
		return nil, err
	}
	tv := &TodayValues{
		Trade:            make(map[string]float64, len(p.trades)),
		NettingSet:       make(map[string]float64),
		PositiveByNetSet: make(map[string]float64),
		NegativeByNetSet: make(map[string]float64),
		MaturityByNetSet: make(map[string]time.Time),
		CounterpartyByNS: make(map[string]string),
	}
	for i, t := range p.trades {
		npv := c.T0(i)
		tv.Trade[t.ID] = npv

		if _, ok := tv.NettingSet[t.NettingSetID]; !ok {
			tv.NettingSet[t.NettingSetID] = 0
			tv.PositiveByNetSet[t.NettingSetID] = 0
			tv.NegativeByNetSet[t.NettingSetID] = 0
			tv.MaturityByNetSet[t.NettingSetID] = today
		}
		tv.NettingSet[t.NettingSetID] += npv
		if npv > 0 {
			tv.PositiveByNetSet[t.NettingSetID] += npv
		} else {
			tv.NegativeByNetSet[t.NettingSetID] += npv
		}
		if t.Maturity.After(tv.MaturityByNetSet[t.NettingSetID]) {
			tv.MaturityByNetSet[t.NettingSetID] = t.Maturity
		}
		tv.CounterpartyByNS[t.NettingSetID] = t.Counterparty
	}
	return tv, nil
}
