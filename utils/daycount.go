package utils

import (
	"time"
)

// YearFraction computes the year fraction between two dates using the
// specified day count convention.
// Supported conventions: ACT/360, ACT/365F, 30E/360, 30/360, ACT/ACT
func YearFraction(start, end time.Time, convention string) float64 {
	switch convention {
	case "ACT/360":
		days := end.Sub(start).Hours() / 24
		return days / 360.0
	case "ACT/365F":
		days := end.Sub(start).Hours() / 24
		return days / 365.0
	case "30E/360", "30/360":
		// 30E/360 ISDA (Eurobond basis)
		// D1 and D2 are capped at 30
		d1 := start.Day()
		if d1 > 30 {
			d1 = 30
		}
		d2 := end.Day()
		if d2 > 30 {
			d2 = 30
		}
		y1, m1 := start.Year(), int(start.Month())
		y2, m2 := end.Year(), int(end.Month())
		return float64(360*(y2-y1)+30*(m2-m1)+(d2-d1)) / 360.0
	case "ACT/ACT":
		return actActISDA(start, end)
	default:
		days := end.Sub(start).Hours() / 24
		return days / 365.0
	}
}

// actActISDA splits the accrual period at calendar year boundaries and
// weights each piece by the actual length of its year (365 or 366).
func actActISDA(start, end time.Time) float64 {
	if !start.Before(end) {
		if start.Equal(end) {
			return 0
		}
		return -actActISDA(end, start)
	}
	sum := 0.0
	cur := start
	for cur.Year() < end.Year() {
		yearEnd := time.Date(cur.Year()+1, time.January, 1, 0, 0, 0, 0, time.UTC)
		sum += yearEnd.Sub(cur).Hours() / 24 / yearLength(cur.Year())
		cur = yearEnd
	}
	sum += end.Sub(cur).Hours() / 24 / yearLength(end.Year())
	return sum
}

func yearLength(year int) float64 {
	if isLeapYear(year) {
		return 366.0
	}
	return 365.0
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
