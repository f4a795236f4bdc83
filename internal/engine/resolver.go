package engine

import (
	"fmt"
	"time"

	"github.com/zapponejosh/saju-api/internal/calendar"
	"github.com/zapponejosh/saju-api/internal/ganzi"
	"github.com/zapponejosh/saju-api/internal/tables"
)

// maxTermGap bounds the distance to the governing month term. Months are
// at most 32 days long; a larger gap means the term table ends early.
const maxTermGap = 32 * 24 * time.Hour

// Resolution records how the chart was read from the tables.
type Resolution struct {
	// RecordDate is the civil date whose record supplied year and month.
	RecordDate time.Time `json:"record_date"`
	// DayRecordDate supplied the day pillar; it differs from RecordDate
	// when a late-boundary-hour birth rolls to the next day.
	DayRecordDate time.Time `json:"day_record_date"`
	// GoverningTerm is the month-changing term in force at birth.
	GoverningTerm *tables.SolarTerm `json:"governing_term,omitempty"`
	// NextTerm is the month-changing term that follows it.
	NextTerm *tables.SolarTerm `json:"next_term,omitempty"`
	// Adjustment is set when the precise term disagreed with the table.
	Adjustment *TermAdjustment `json:"adjustment,omitempty"`
	TieBreak   TieBreak        `json:"tie_break"`
}

// TermAdjustment describes a month (and possibly year) pillar stepped one
// position to match the precise solar-term instant.
type TermAdjustment struct {
	Term       string       `json:"term"`
	At         time.Time    `json:"at"`
	Step       int          `json:"step"`
	TableYear  ganzi.Pillar `json:"table_year"`
	TableMonth ganzi.Pillar `json:"table_month"`
}

type resolver struct {
	tbl *tables.Tables
	tie TieBreak
}

// governing returns the month term in force at the standard-clock moment
// std, honoring the tie-break at the exact instant, and the term after it.
func (r *resolver) governing(std time.Time) (tables.SolarTerm, tables.SolarTerm, bool) {
	at := std
	if r.tie == StrictlyAfter {
		at = at.Add(-time.Nanosecond)
	}
	cur, ok := r.tbl.PrevMonthTerm(at)
	if !ok || at.Sub(cur.At) > maxTermGap {
		return tables.SolarTerm{}, tables.SolarTerm{}, false
	}
	next, ok := r.tbl.NextMonthTerm(cur.At)
	if !ok {
		return tables.SolarTerm{}, tables.SolarTerm{}, false
	}
	return cur, next, true
}

// termPillars returns the year and month pillars opened by a month term.
// The 丑 month term falls in January of the next civil year.
func termPillars(st tables.SolarTerm) (ganzi.Pillar, ganzi.Pillar) {
	y := st.At.Year()
	if st.MonthIndex == 12 {
		y--
	}
	yp := ganzi.YearPillar(y)
	return yp, ganzi.MonthPillar(yp.Stem, st.MonthIndex)
}

// cycleStep returns +1 or -1 when want is the neighbor of got on the
// sixty-cycle, 0 otherwise.
func cycleStep(got, want ganzi.Pillar) int {
	switch (want.Index() - got.Index() + ganzi.CycleLength) % ganzi.CycleLength {
	case 1:
		return 1
	case ganzi.CycleLength - 1:
		return -1
	}
	return 0
}

// HourBlock returns the two-hour block index 0-11 of a wall-clock time.
// Block 0 (子) runs from 23:00 to 01:00.
func HourBlock(t time.Time) int {
	return ((t.Hour()*60 + t.Minute() + 60) % 1440) / 120
}

// HourPillar returns the hour pillar for a block on a day with stem dayStem.
func HourPillar(dayStem ganzi.Stem, block int) ganzi.Pillar {
	return ganzi.Pillar{
		Stem:   ganzi.Stem((int(ganzi.HourStemStart(dayStem)) + block) % 10),
		Branch: ganzi.Branch(block % 12),
	}
}

func missingRecord(d time.Time) error {
	return fmt.Errorf("%w: %s", ErrMissingCalendarRecord, d.Format("2006-01-02"))
}

// resolve reads the four pillars for a normalized moment.
func (r *resolver) resolve(m *calendar.Moment) (Chart, Resolution, error) {
	actual := tables.Midnight(m.Corrected)
	rec, ok := r.tbl.Day(actual)
	if !ok {
		return Chart{}, Resolution{}, missingRecord(actual)
	}
	res := Resolution{RecordDate: actual, DayRecordDate: actual, TieBreak: r.tie}

	dayRec := rec
	if d := m.DayDate(); !d.Equal(actual) {
		if dayRec, ok = r.tbl.Day(d); !ok {
			return Chart{}, Resolution{}, missingRecord(d)
		}
		res.DayRecordDate = d
	}

	c := Chart{Year: rec.Year, Month: rec.Month, Day: dayRec.Day}

	// The table is built per civil day; the precise term instant decides
	// births on the day a month changes.
	if cur, next, ok := r.governing(m.Standard); ok {
		res.GoverningTerm, res.NextTerm = &cur, &next
		py, pm := termPillars(cur)
		if step := cycleStep(c.Month, pm); step != 0 {
			res.Adjustment = &TermAdjustment{
				Term: cur.Name, At: cur.At, Step: step,
				TableYear: c.Year, TableMonth: c.Month,
			}
			c.Month = pm
			if cycleStep(c.Year, py) != 0 {
				c.Year = py
			}
		}
	}

	// The hour always counts from the chart's own day stem.
	c.Hour = HourPillar(c.Day.Stem, HourBlock(m.Corrected))
	return c, res, nil
}
