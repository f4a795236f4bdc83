package calendar

import (
	"fmt"
	"time"
)

var dayNames = [...]string{"일", "월", "화", "수", "목", "금", "토"}

// DayName returns the one-character Korean weekday name (일, 월, ...).
func DayName(date time.Time) string {
	return dayNames[date.Weekday()]
}

// FormatDate renders a civil date as 2006-01-02 (월).
func FormatDate(date time.Time) string {
	return fmt.Sprintf("%s (%s)", date.Format("2006-01-02"), DayName(date))
}

// KoreanAge returns the traditional age count: one at birth, plus one at
// every new civil year.
//
// Examples:
//   - born 1990, as of 1990-12-31: 1
//   - born 1990, as of 2024-01-01: 35
func KoreanAge(birthYear int, asOf time.Time) int {
	return asOf.Year() - birthYear + 1
}

// WeekOfMonth returns the zero-based row of date in a Sunday-first month
// grid.
func WeekOfMonth(date time.Time) int {
	first := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC)
	return (date.Day() - 1 + int(first.Weekday())) / 7
}

// DaysIn returns the number of days of a civil month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
