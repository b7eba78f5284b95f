package collateral_test

import (
	"math"
	"testing"
	"time"

	"github.com/meenmo/xvalib/collateral"
	"github.com/meenmo/xvalib/utils"
)

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func basePathInput() collateral.PathInput {
	return collateral.PathInput{
		ValueToday: 10,
		Values:     [][]float64{{12, 8}, {14, 6}, {16, 4}},
		Maturity:   date("2027-01-05"),
		Today:      date("2026-01-05"),
		Dates:      []time.Time{date("2026-04-05"), date("2026-07-05"), date("2026-10-05")},
		FXToday:    1,
		RateToday:  0.02,
		CalcType:   collateral.NoLag,
	}
}

func TestBalancePathsNoLag(t *testing.T) {
	t.Parallel()

	in := basePathInput()
	accounts, err := collateral.BalancePaths(in)
	if err != nil {
		t.Fatalf("BalancePaths: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("got %d accounts, want 2", len(accounts))
	}
	// Under NoLag the account is marked to the same date's value: exposure
	// net of collateral is identically zero.
	for k, acct := range accounts {
		for j := range in.Dates {
			if got := acct.Balance(j); got != in.Values[j][k] {
				t.Fatalf("sample %d date %d: balance %v want %v", k, j, got, in.Values[j][k])
			}
		}
	}
}

func TestBalancePathsClosedOutAfterMaturity(t *testing.T) {
	t.Parallel()

	in := basePathInput()
	in.Maturity = date("2026-05-01")
	accounts, err := collateral.BalancePaths(in)
	if err != nil {
		t.Fatalf("BalancePaths: %v", err)
	}
	for k, acct := range accounts {
		if got := acct.Balance(0); got != in.Values[0][k] {
			t.Fatalf("sample %d: pre-maturity balance %v want %v", k, got, in.Values[0][k])
		}
		for j := 1; j < len(in.Dates); j++ {
			if got := acct.Balance(j); got != 0 {
				t.Fatalf("sample %d date %d: post-maturity balance %v want 0", k, j, got)
			}
		}
	}
}

func TestBalancePathsLagged1(t *testing.T) {
	t.Parallel()

	in := basePathInput()
	in.CalcType = collateral.Lagged1
	in.DayCount = "ACT/360"
	in.RateScen = [][]float64{{0.03, 0.01}, {0.03, 0.01}, {0.03, 0.01}}
	accounts, err := collateral.BalancePaths(in)
	if err != nil {
		t.Fatalf("BalancePaths: %v", err)
	}

	// Date 0 looks back before the grid: today's value compounds one
	// period at today's fixing.
	yf0 := utils.YearFraction(in.Today, in.Dates[0], "ACT/360")
	want := in.ValueToday * (1 + in.RateToday*yf0)
	if got := accounts[0].Balance(0); math.Abs(got-want) > 1e-12 {
		t.Fatalf("lagged balance at date 0: got %v want %v", got, want)
	}

	// Date 1 marks to the date-0 value, compounded at the scenario rate
	// fixed on date 0.
	yf1 := utils.YearFraction(in.Dates[0], in.Dates[1], "ACT/360")
	want = in.Values[0][1] * (1 + in.RateScen[0][1]*yf1)
	if got := accounts[1].Balance(1); math.Abs(got-want) > 1e-12 {
		t.Fatalf("lagged balance at date 1: got %v want %v", got, want)
	}
}

func TestBalancePathsLagged2(t *testing.T) {
	t.Parallel()

	in := basePathInput()
	in.CalcType = collateral.Lagged2
	in.DayCount = "ACT/365F"
	in.RateScen = [][]float64{{0, 0}, {0, 0}, {0, 0}}
	in.RateToday = 0
	accounts, err := collateral.BalancePaths(in)
	if err != nil {
		t.Fatalf("BalancePaths: %v", err)
	}

	// The first two dates look back before the grid; the third marks to
	// the date-0 value. Zero rates isolate the lag itself.
	if got := accounts[0].Balance(0); got != in.ValueToday {
		t.Fatalf("date 0: got %v want %v", got, in.ValueToday)
	}
	if got := accounts[0].Balance(1); got != in.ValueToday {
		t.Fatalf("date 1: got %v want %v", got, in.ValueToday)
	}
	if got := accounts[0].Balance(2); got != in.Values[0][0] {
		t.Fatalf("date 2: got %v want %v", got, in.Values[0][0])
	}
}

func TestBalancePathsFXConversion(t *testing.T) {
	t.Parallel()

	// CSA currency at 0.8 today and 0.5 in scenario: the base-currency
	// value converts to CSA currency at the strike date's rate and back at
	// the observation date's rate.
	in := basePathInput()
	in.CalcType = collateral.Lagged1
	in.FXToday = 0.8
	in.FXScen = [][]float64{{0.5, 0.5}, {0.4, 0.4}, {0.4, 0.4}}
	in.RateToday = 0
	in.RateScen = [][]float64{{0, 0}, {0, 0}, {0, 0}}
	accounts, err := collateral.BalancePaths(in)
	if err != nil {
		t.Fatalf("BalancePaths: %v", err)
	}

	want := in.ValueToday / in.FXToday * in.FXScen[0][0]
	if got := accounts[0].Balance(0); math.Abs(got-want) > 1e-12 {
		t.Fatalf("date 0: got %v want %v", got, want)
	}
	want = in.Values[0][0] / in.FXScen[0][0] * in.FXScen[1][0]
	if got := accounts[0].Balance(1); math.Abs(got-want) > 1e-12 {
		t.Fatalf("date 1: got %v want %v", got, want)
	}
}

func TestBalancePathsValidation(t *testing.T) {
	t.Parallel()

	in := basePathInput()
	in.Dates = nil
	in.Values = nil
	if _, err := collateral.BalancePaths(in); err == nil {
		t.Fatalf("expected error for empty date grid")
	}

	in = basePathInput()
	in.Values = in.Values[:2]
	if _, err := collateral.BalancePaths(in); err == nil {
		t.Fatalf("expected error for mismatched value rows")
	}

	in = basePathInput()
	in.FXToday = 0
	if _, err := collateral.BalancePaths(in); err == nil {
		t.Fatalf("expected error for zero FX rate")
	}
}

func TestParseCalculationType(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"NoLag", "Lagged1", "Lagged2"} {
		ct, err := collateral.ParseCalculationType(s)
		if err != nil {
			t.Fatalf("parse %s: %v", s, err)
		}
		if string(ct) != s {
			t.Fatalf("parse %s: got %s", s, ct)
		}
	}
	if _, err := collateral.ParseCalculationType("Symmetric"); err == nil {
		t.Fatalf("expected error for unknown calculation type")
	}
}
