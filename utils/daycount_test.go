package utils_test

import (
	"math"
	"testing"
	"time"

	"github.com/meenmo/xvalib/utils"
)

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestYearFraction(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		start, end string
		convention string
		want       float64
	}{
		{"act360 half year", "2026-01-05", "2026-07-04", "ACT/360", 180.0 / 360},
		{"act365f full year", "2026-01-05", "2027-01-05", "ACT/365F", 1.0},
		{"30e360 month ends", "2026-01-31", "2026-07-31", "30E/360", 0.5},
		{"30/360 same as 30e360", "2026-01-15", "2026-04-15", "30/360", 90.0 / 360},
		{"actact same year", "2026-01-05", "2026-04-05", "ACT/ACT", 90.0 / 365},
		{"actact across leap year", "2027-07-01", "2028-07-01", "ACT/ACT", 184.0/365 + 182.0/366},
		{"zero period", "2026-01-05", "2026-01-05", "ACT/ACT", 0},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := utils.YearFraction(date(tc.start), date(tc.end), tc.convention)
			if math.Abs(got-tc.want) > 1e-12 {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}

func TestYearFractionNegativePeriod(t *testing.T) {
	t.Parallel()

	fwd := utils.YearFraction(date("2026-01-05"), date("2026-04-05"), "ACT/ACT")
	back := utils.YearFraction(date("2026-04-05"), date("2026-01-05"), "ACT/ACT")
	if math.Abs(fwd+back) > 1e-12 {
		t.Fatalf("ACT/ACT not antisymmetric: %v vs %v", fwd, back)
	}
}
