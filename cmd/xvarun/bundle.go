package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/meenmo/xvalib/cube"
	"github.com/meenmo/xvalib/curve"
	"github.com/meenmo/xvalib/marketdata"
	"github.com/meenmo/xvalib/portfolio"
	"github.com/meenmo/xvalib/scenario"
)

// bundle is the JSON input file for one run: portfolio, netting sets,
// cube values, scenario series and the market snapshot. Dates are
// YYYY-MM-DD strings.
type bundle struct {
	AsOf  string   `json:"asof"`
	Dates []string `json:"dates"`

	Trades []struct {
		ID           string `json:"id"`
		NettingSetID string `json:"nettingSetId"`
		Counterparty string `json:"counterparty"`
		Maturity     string `json:"maturity"`
	} `json:"trades"`
	NettingSets []portfolio.NettingSet `json:"nettingSets"`

	// TradeT0 is ordered like Trades.
	TradeT0 []float64 `json:"tradeT0"`
	// NettingValues[id] is a [date][sample] matrix of netted values.
	NettingValues map[string][][]float64 `json:"nettingValues"`

	DiscountFactors map[string]float64 `json:"discountFactors"`
	FXSpots         map[string]float64 `json:"fxSpots"`
	IndexFixings    []struct {
		Name     string  `json:"name"`
		Fixing   float64 `json:"fixing"`
		DayCount string  `json:"dayCount"`
	} `json:"indexFixings"`
	CreditCurves map[string]struct {
		Recovery float64            `json:"recovery"`
		Survival map[string]float64 `json:"survival"`
	} `json:"creditCurves"`

	ScenarioSeries []struct {
		Type   string      `json:"type"` // FXSpot or IndexFixing
		Key    string      `json:"key"`
		Values [][]float64 `json:"values"`
	} `json:"scenarioData"`

	TradeCVA map[string]float64 `json:"tradeCVA"`
	TradeDVA map[string]float64 `json:"tradeDVA"`
}

type runInputs struct {
	asof      time.Time
	portfolio *portfolio.Portfolio
	manager   *portfolio.Manager
	tradeCube *cube.ScenarioCube
	netCube   *cube.ScenarioCube
	scenData  scenario.Data
	market    *marketdata.Market
	tradeCVA  map[string]float64
	tradeDVA  map[string]float64
}

// loadBundle parses the JSON input file. When includeMarket is false the
// bundle's market section is skipped and the caller supplies the snapshot
// (the -dsn feed path).
func loadBundle(path, baseCcy string, includeMarket bool) (*runInputs, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input bundle: %w", err)
	}
	var b bundle
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("parse input bundle: %w", err)
	}
	return b.build(baseCcy, includeMarket)
}

func (b *bundle) build(baseCcy string, includeMarket bool) (*runInputs, error) {
	asof, err := parseDate(b.AsOf, "asof")
	if err != nil {
		return nil, err
	}
	dates := make([]time.Time, len(b.Dates))
	for i, s := range b.Dates {
		if dates[i], err = parseDate(s, "dates"); err != nil {
			return nil, err
		}
	}

	trades := make([]portfolio.Trade, len(b.Trades))
	tradeIDs := make([]string, len(b.Trades))
	for i, t := range b.Trades {
		mat, err := parseDate(t.Maturity, "trade maturity")
		if err != nil {
			return nil, err
		}
		trades[i] = portfolio.Trade{
			ID:           t.ID,
			NettingSetID: t.NettingSetID,
			Counterparty: t.Counterparty,
			Maturity:     mat,
		}
		tradeIDs[i] = t.ID
	}
	pf, err := portfolio.New(trades)
	if err != nil {
		return nil, err
	}
	manager, err := portfolio.NewManager(b.NettingSets)
	if err != nil {
		return nil, err
	}

	// The trade cube carries only the time-0 column; future trade-level
	// values are out of scope for the aggregation engine.
	emptyRows := make([][][]float64, len(tradeIDs))
	for i := range emptyRows {
		emptyRows[i] = [][]float64{}
	}
	tradeCube, err := cube.NewScenarioCube(tradeIDs, nil, 1, b.TradeT0, emptyRows)
	if err != nil {
		return nil, fmt.Errorf("trade cube: %w", err)
	}

	nsIDs := make([]string, 0, len(b.NettingValues))
	for _, ns := range b.NettingSets {
		if _, ok := b.NettingValues[ns.ID]; ok {
			nsIDs = append(nsIDs, ns.ID)
		}
	}
	if len(nsIDs) != len(b.NettingValues) {
		return nil, fmt.Errorf("nettingValues contains ids missing from nettingSets")
	}
	samples := 0
	values := make([][][]float64, len(nsIDs))
	t0 := make([]float64, len(nsIDs))
	for i, id := range nsIDs {
		values[i] = b.NettingValues[id]
		if len(values[i]) > 0 && samples == 0 {
			samples = len(values[i][0])
		}
		for _, tr := range trades {
			if tr.NettingSetID == id {
				t0[i] += b.TradeT0[indexOf(tradeIDs, tr.ID)]
			}
		}
	}
	netCube, err := cube.NewScenarioCube(nsIDs, dates, samples, t0, values)
	if err != nil {
		return nil, fmt.Errorf("netting value cube: %w", err)
	}

	var market *marketdata.Market
	if includeMarket {
		dfNodes := make(map[time.Time]float64, len(b.DiscountFactors))
		for s, df := range b.DiscountFactors {
			d, err := parseDate(s, "discountFactors")
			if err != nil {
				return nil, err
			}
			dfNodes[d] = df
		}
		disc, err := curve.NewNodeCurve(asof, dfNodes)
		if err != nil {
			return nil, err
		}

		market = marketdata.NewMarket(asof, baseCcy, disc)
		for pair, rate := range b.FXSpots {
			market.AddFXSpot(pair, rate)
		}
		for _, f := range b.IndexFixings {
			market.AddIndexFixing(f.Name, f.Fixing, f.DayCount)
		}
		for cpty, cc := range b.CreditCurves {
			nodes := make(map[time.Time]float64, len(cc.Survival))
			for s, p := range cc.Survival {
				d, err := parseDate(s, "creditCurves")
				if err != nil {
					return nil, err
				}
				nodes[d] = p
			}
			crv, err := curve.NewCreditCurve(asof, nodes, cc.Recovery)
			if err != nil {
				return nil, fmt.Errorf("credit curve %s: %w", cpty, err)
			}
			market.AddCreditCurve(cpty, crv)
		}
	}

	scenData := scenario.NewMapData()
	for _, s := range b.ScenarioSeries {
		switch s.Type {
		case "FXSpot":
			scenData.Add(scenario.FXSpot, s.Key, s.Values)
		case "IndexFixing":
			scenData.Add(scenario.IndexFixing, s.Key, s.Values)
		default:
			return nil, fmt.Errorf("unknown scenario series type %q", s.Type)
		}
	}

	return &runInputs{
		asof:      asof,
		portfolio: pf,
		manager:   manager,
		tradeCube: tradeCube,
		netCube:   netCube,
		scenData:  scenData,
		market:    market,
		tradeCVA:  b.TradeCVA,
		tradeDVA:  b.TradeDVA,
	}, nil
}

func parseDate(s, field string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: invalid date %q: %w", field, s, err)
	}
	return t, nil
}

func indexOf(xs []string, x string) int {
	for i, v := range xs {
		if v == x {
			return i
		}
	}
	return -1
}
