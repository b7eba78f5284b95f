package collateral

import (
	"fmt"
	"time"

	"github.com/meenmo/xvalib/utils"
)

// CalculationType selects the margining period of risk convention: where
// the margin call struck on an evaluation date looks for the portfolio
// value. The aggregation engine passes it through opaquely.
type CalculationType string

const (
	// NoLag marks the account to the same date's portfolio value.
	NoLag CalculationType = "NoLag"
	// Lagged1 marks the account to the previous evaluation date's value,
	// so one margining period of risk is left uncollateralised.
	Lagged1 CalculationType = "Lagged1"
	// Lagged2 lags the margin call by two evaluation dates.
	Lagged2 CalculationType = "Lagged2"
)

// ParseCalculationType maps a configuration string to a CalculationType.
func ParseCalculationType(s string) (CalculationType, error) {
	switch CalculationType(s) {
	case NoLag, Lagged1, Lagged2:
		return CalculationType(s), nil
	default:
		return "", fmt.Errorf("collateral calculation type %q not recognized", s)
	}
}

// Account is a single scenario's collateral balance path, one balance per
// evaluation date, expressed in base currency. Positive balances are held,
// negative balances are posted.
type Account struct {
	balances []float64
}

// Balance returns the account balance at cube date index j.
func (a *Account) Balance(j int) float64 { return a.balances[j] }

// PathInput carries everything needed to simulate the collateral account
// paths for one netting set. FXScen and RateScen may be nil when the CSA
// currency is the base currency or no compounding index is specified.
type PathInput struct {
	ValueToday float64
	// Values is the netting set's [date][sample] value matrix in base ccy.
	Values    [][]float64
	Maturity  time.Time
	Today     time.Time
	Dates     []time.Time
	FXToday   float64
	FXScen    [][]float64
	RateToday float64
	RateScen  [][]float64
	DayCount  string
	CalcType  CalculationType
}

// BalancePaths simulates one collateral account per scenario. Between
// evaluation dates the balance compounds at the scenario CSA rate; on each
// date before netting-set maturity the account is margined to the
// portfolio value selected by the calculation type; past maturity the
// account is closed out. Inputs are not mutated.
func BalancePaths(in PathInput) ([]*Account, error) {
	if len(in.Dates) == 0 {
		return nil, fmt.Errorf("collateral: no evaluation dates")
	}
	if len(in.Values) != len(in.Dates) {
		return nil, fmt.Errorf("collateral: value matrix has %d date rows, want %d", len(in.Values), len(in.Dates))
	}
	samples := len(in.Values[0])
	if samples == 0 {
		return nil, fmt.Errorf("collateral: no samples")
	}
	if in.FXToday == 0 {
		return nil, fmt.Errorf("collateral: zero FX rate for today")
	}
	dc := in.DayCount
	if dc == "" {
		dc = "ACT/ACT"
	}

	lag := 0
	switch in.CalcType {
	case Lagged1:
		lag = 1
	case Lagged2:
		lag = 2
	}

	accounts := make([]*Account, samples)
	for k := 0; k < samples; k++ {
		acct := &Account{balances: make([]float64, len(in.Dates))}

		prevDate := in.Today
		for j, date := range in.Dates {
			if date.After(in.Maturity) {
				// Portfolio has matured, account closed out.
				acct.balances[j] = 0
				prevDate = date
				continue
			}

			fx := 1.0
			if in.FXScen != nil {
				fx = in.FXScen[j][k]
				if fx == 0 {
					return nil, fmt.Errorf("collateral: zero scenario FX rate at date %d sample %d", j, k)
				}
			}

			// The margin call struck lag dates back marked the account to
			// the portfolio value observed then; the CSA-currency balance
			// then compounds at the scenario rate over the last period.
			// Accrued interest from earlier periods is settled in cash at
			// each call, so only one period's accrual is outstanding.
			strike := j - lag
			var balCsa float64
			if strike < 0 {
				balCsa = in.ValueToday / in.FXToday
			} else {
				strikeFx := 1.0
				if in.FXScen != nil {
					strikeFx = in.FXScen[strike][k]
					if strikeFx == 0 {
						return nil, fmt.Errorf("collateral: zero scenario FX rate at date %d sample %d", strike, k)
					}
				}
				balCsa = in.Values[strike][k] / strikeFx
			}
			if lag > 0 {
				rate := in.RateToday
				if j > 0 && in.RateScen != nil {
					rate = in.RateScen[j-1][k]
				}
				balCsa *= 1.0 + rate*utils.YearFraction(prevDate, date, dc)
			}
			acct.balances[j] = balCsa * fx
			prevDate = date
		}
		accounts[k] = acct
	}
	return accounts, nil
}
