package utils_test

import (
	"testing"
	"time"

	"github.com/meenmo/xvalib/utils"
)

func TestSortDates(t *testing.T) {
	t.Parallel()

	dates := []time.Time{date("2027-01-05"), date("2026-01-05"), date("2026-07-05")}
	utils.SortDates(dates)
	for i := 1; i < len(dates); i++ {
		if dates[i].Before(dates[i-1]) {
			t.Fatalf("not sorted at %d: %v", i, dates)
		}
	}
}

func TestAdjacentDates(t *testing.T) {
	t.Parallel()

	pillars := []time.Time{date("2026-01-05"), date("2027-01-05"), date("2028-01-05")}

	d1, d2 := utils.AdjacentDates(date("2026-07-05"), pillars)
	if !d1.Equal(pillars[0]) || !d2.Equal(pillars[1]) {
		t.Fatalf("interior bracket: got %v %v", d1, d2)
	}

	// Outside the range the nearest boundary pair is returned.
	d1, d2 = utils.AdjacentDates(date("2025-01-05"), pillars)
	if !d1.Equal(pillars[0]) || !d2.Equal(pillars[1]) {
		t.Fatalf("left boundary: got %v %v", d1, d2)
	}
	d1, d2 = utils.AdjacentDates(date("2030-01-05"), pillars)
	if !d1.Equal(pillars[1]) || !d2.Equal(pillars[2]) {
		t.Fatalf("right boundary: got %v %v", d1, d2)
	}
}

func TestDateParser(t *testing.T) {
	t.Parallel()

	d, err := utils.DateParser("2026-01-05")
	if err != nil {
		t.Fatalf("DateParser: %v", err)
	}
	if d.Year() != 2026 || d.Month() != time.January || d.Day() != 5 {
		t.Fatalf("parsed date wrong: %v", d)
	}
	if _, err := utils.DateParser("05/01/2026"); err == nil {
		t.Fatalf("expected error for non ISO date")
	}
}

func TestDays(t *testing.T) {
	t.Parallel()

	if got := utils.Days(date("2026-01-05"), date("2026-01-15")); got != 10 {
		t.Fatalf("Days: got %v want 10", got)
	}
}
