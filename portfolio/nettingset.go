package portfolio

import "fmt"

// CSA holds the Credit Support Annex terms the engine consumes. SpreadRcv
// and SpreadPay are the remuneration spreads over the compounding index for
// received and posted collateral, as decimals.
type CSA struct {
	Active                bool    `json:"active"`
	Currency              string  `json:"currency"`
	IndexName             string  `json:"indexName"`
	SpreadRcv             float64 `json:"spreadRcv"`
	SpreadPay             float64 `json:"spreadPay"`
	FullCollateralisation bool    `json:"fullCollateralisation"`
}

// NettingSet groups trades settled net under one legal agreement.
// Immutable once registered.
type NettingSet struct {
	ID           string `json:"id"`
	Counterparty string `json:"counterparty"`
	CSA          CSA    `json:"csa"`
}

// Manager is the netting-set registry: lookup by id.
type Manager struct {
	sets map[string]NettingSet
}

// NewManager builds a registry from definitions, rejecting duplicates.
func NewManager(sets []NettingSet) (*Manager, error) {
	m := &Manager{sets: make(map[string]NettingSet, len(sets))}
	for _, ns := range sets {
		if ns.ID == "" {
			return nil, fmt.Errorf("netting set with empty id")
		}
		if _, dup := m.sets[ns.ID]; dup {
			return nil, fmt.Errorf("duplicate netting set id %q", ns.ID)
		}
		m.sets[ns.ID] = ns
	}
	return m, nil
}

// Has reports whether id is registered.
func (m *Manager) Has(id string) bool {
	_, ok := m.sets[id]
	return ok
}

// Get returns the netting set definition for id.
func (m *Manager) Get(id string) (NettingSet, error) {
	ns, ok := m.sets[id]
	if !ok {
		return NettingSet{}, fmt.Errorf("netting set %q not registered", id)
	}
	return ns, nil
}
