package engine

import (
	"fmt"
	"time"

	"github.com/zapponejosh/saju-api/internal/calendar"
	"github.com/zapponejosh/saju-api/internal/ganzi"
	"github.com/zapponejosh/saju-api/internal/tables"
)

// annualSpan is the number of years in an annual cycle listing.
const annualSpan = 10

// AnnualEntry is one year of the annual cycle.
type AnnualEntry struct {
	Year       int          `json:"year"`
	Age        int          `json:"age"`
	Pillar     ganzi.Pillar `json:"pillar"`
	Korean     string       `json:"korean"`
	StemRole   Role         `json:"stem_role"`
	BranchRole Role         `json:"branch_role"`
}

// AnnualCycle lists ten years starting at startAge (Korean reckoning) for
// a person born in birthYear, with roles relative to dayStem.
func (e *Engine) AnnualCycle(birthYear, startAge int, dayStem ganzi.Stem) ([]AnnualEntry, error) {
	if !dayStem.Valid() {
		return nil, malformed("day stem %d", int(dayStem))
	}
	if startAge < 1 {
		startAge = 1
	}
	out := make([]AnnualEntry, 0, annualSpan)
	for i := 0; i < annualSpan; i++ {
		age := startAge + i
		year := birthYear + age - 1
		p := ganzi.YearPillar(year)
		out = append(out, AnnualEntry{
			Year:       year,
			Age:        age,
			Pillar:     p,
			Korean:     p.Korean(),
			StemRole:   StemRole(dayStem, p.Stem),
			BranchRole: BranchRole(dayStem, p.Branch),
		})
	}
	return out, nil
}

// MonthlyEntry is one sexagenary month of a year.
type MonthlyEntry struct {
	// Month is 1 (寅) through 12 (丑).
	Month      int          `json:"month"`
	Term       string       `json:"term"`
	Start      time.Time    `json:"start"`
	End        time.Time    `json:"end"`
	Pillar     ganzi.Pillar `json:"pillar"`
	Korean     string       `json:"korean"`
	StemRole   Role         `json:"stem_role"`
	BranchRole Role         `json:"branch_role"`
}

// monthTerm finds the month-changing term with the given index in a
// civil year's term list.
func (e *Engine) monthTerm(year, index int) (tables.SolarTerm, error) {
	for _, st := range e.tables.Terms(year) {
		if st.MonthChange && st.MonthIndex == index {
			return st, nil
		}
	}
	return tables.SolarTerm{}, fmt.Errorf("%w: month term %d of %d", ErrMissingCalendarRecord, index, year)
}

// MonthlyCycle lists the twelve months of a sexagenary year, from Spring
// Begins of year to the one after, with roles relative to dayStem.
func (e *Engine) MonthlyCycle(year int, dayStem ganzi.Stem) ([]MonthlyEntry, error) {
	if !dayStem.Valid() {
		return nil, malformed("day stem %d", int(dayStem))
	}
	yp := ganzi.YearPillar(year)

	// The 丑 month term falls in January of the next civil year.
	termYear := func(m int) int {
		if m == 12 {
			return year + 1
		}
		return year
	}

	out := make([]MonthlyEntry, 0, 12)
	for m := 1; m <= 12; m++ {
		start, err := e.monthTerm(termYear(m), m)
		if err != nil {
			return nil, err
		}
		next, nextYear := m+1, termYear(m+1)
		if m == 12 {
			next, nextYear = 1, year+1
		}
		end, err := e.monthTerm(nextYear, next)
		if err != nil {
			return nil, err
		}
		p := ganzi.MonthPillar(yp.Stem, m)
		out = append(out, MonthlyEntry{
			Month:      m,
			Term:       start.Name,
			Start:      start.At,
			End:        end.At,
			Pillar:     p,
			Korean:     p.Korean(),
			StemRole:   StemRole(dayStem, p.Stem),
			BranchRole: BranchRole(dayStem, p.Branch),
		})
	}
	return out, nil
}

// DayCell is one civil day of a month view.
type DayCell struct {
	Date    time.Time         `json:"date"`
	Weekday string            `json:"weekday"`
	Week    int               `json:"week"`
	Year    ganzi.Pillar      `json:"year"`
	Month   ganzi.Pillar      `json:"month"`
	Day     ganzi.Pillar      `json:"day"`
	Korean  string            `json:"korean"`
	Lunar   *tables.LunarDate `json:"lunar,omitempty"`
	Term    *tables.SolarTerm `json:"term,omitempty"`
}

// MonthView is a civil month laid out for a calendar page.
type MonthView struct {
	Year  int       `json:"year"`
	Month int       `json:"month"`
	Weeks int       `json:"weeks"`
	Days  []DayCell `json:"days"`
}

// MonthView returns every day of a civil month with its pillars, lunar
// date and any solar term falling on it.
func (e *Engine) MonthView(year, month int) (*MonthView, error) {
	if month < 1 || month > 12 {
		return nil, malformed("month %d", month)
	}
	n := calendar.DaysIn(year, time.Month(month))
	v := &MonthView{Year: year, Month: month, Days: make([]DayCell, 0, n)}
	for d := 1; d <= n; d++ {
		date := time.Date(year, time.Month(month), d, 0, 0, 0, 0, time.UTC)
		rec, ok := e.tables.Day(date)
		if !ok {
			return nil, missingRecord(date)
		}
		cell := DayCell{
			Date:    date,
			Weekday: calendar.DayName(date),
			Week:    calendar.WeekOfMonth(date),
			Year:    rec.Year,
			Month:   rec.Month,
			Day:     rec.Day,
			Korean:  rec.Day.Korean(),
		}
		if rec.HasLunar() {
			cell.Lunar = &tables.LunarDate{Year: rec.LunarYear, Month: rec.LunarMonth, Day: rec.LunarDay, Leap: rec.Leap}
		}
		if st, ok := e.tables.TermOn(date); ok {
			cell.Term = &st
		}
		v.Weeks = max(v.Weeks, cell.Week+1)
		v.Days = append(v.Days, cell)
	}
	return v, nil
}
