// Package tables holds the immutable lookup tables the engine reads: one
// Calendar Record per civil day and the solar-term boundaries per year.
//
// Tables are built once at startup (from JSON files or the SQLite table
// store) and never mutated afterwards, so a *Tables can be shared by any
// number of goroutines without locking.
//
// All timestamps are civil wall-clock times of the reference zone (UTC+9)
// stored as time.Time values in time.UTC. Only their wall-clock fields are
// meaningful.
package tables

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/zapponejosh/saju-api/internal/ganzi"
)

// ErrInvalidTable is returned when table content cannot be used.
var ErrInvalidTable = errors.New("tables: invalid table")

// CalendarRecord is the precomputed data for one civil day.
type CalendarRecord struct {
	Date       time.Time    `json:"date"`
	LunarYear  int          `json:"lunar_year"`
	LunarMonth int          `json:"lunar_month"`
	LunarDay   int          `json:"lunar_day"`
	Leap       bool         `json:"leap"`
	Year       ganzi.Pillar `json:"year"`
	Month      ganzi.Pillar `json:"month"`
	Day        ganzi.Pillar `json:"day"`
}

// HasLunar reports whether the record carries a lunar date.
func (r CalendarRecord) HasLunar() bool { return r.LunarMonth > 0 && r.LunarDay > 0 }

// SolarTerm is one of the 24 yearly boundaries.
type SolarTerm struct {
	Name string    `json:"name"`
	At   time.Time `json:"at"`
	// MonthChange is set for the twelve terms that open a sexagenary month.
	MonthChange bool `json:"month_change"`
	// MonthIndex is 1 (寅 month, Spring Begins) through 12 (丑 month) for
	// month-changing terms, 0 otherwise.
	MonthIndex int `json:"month_index,omitempty"`
}

// LunarDate identifies a day in the lunisolar calendar.
type LunarDate struct {
	Year  int  `json:"year"`
	Month int  `json:"month"`
	Day   int  `json:"day"`
	Leap  bool `json:"leap"`
}

// Tables is the loaded, read-only lookup data.
type Tables struct {
	days       map[int]CalendarRecord
	lunar      map[LunarDate]int
	terms      map[int][]SolarTerm
	monthTerms []SolarTerm
	first      int
	last       int
}

// Stats summarizes what was loaded.
type Stats struct {
	Days       int       `json:"days"`
	TermYears  int       `json:"term_years"`
	MonthTerms int       `json:"month_terms"`
	First      time.Time `json:"first"`
	Last       time.Time `json:"last"`
}

// DateKey returns the 8-digit yyyymmdd key of t's civil date.
func DateKey(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

// KeyDate converts an 8-digit key back to a UTC midnight.
func KeyDate(key int) time.Time {
	return time.Date(key/10000, time.Month(key/100%100), key%100, 0, 0, 0, 0, time.UTC)
}

// Midnight truncates t to its civil date.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// New validates and indexes records and terms. Terms are sorted per year
// and the month-changing ones are merged into one chronological list.
func New(records []CalendarRecord, terms map[int][]SolarTerm) (*Tables, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: calendar table is empty", ErrInvalidTable)
	}
	t := &Tables{
		days:  make(map[int]CalendarRecord, len(records)),
		lunar: make(map[LunarDate]int),
		terms: make(map[int][]SolarTerm, len(terms)),
	}

	for _, r := range records {
		if !r.Year.Valid() || !r.Month.Valid() || !r.Day.Valid() {
			return nil, fmt.Errorf("%w: record %s has an invalid pillar", ErrInvalidTable, r.Date.Format("2006-01-02"))
		}
		r.Date = Midnight(r.Date)
		key := DateKey(r.Date)
		if _, dup := t.days[key]; dup {
			return nil, fmt.Errorf("%w: duplicate record for %d", ErrInvalidTable, key)
		}
		t.days[key] = r
		if r.HasLunar() {
			t.lunar[LunarDate{r.LunarYear, r.LunarMonth, r.LunarDay, r.Leap}] = key
		}
		if t.first == 0 || key < t.first {
			t.first = key
		}
		if key > t.last {
			t.last = key
		}
	}

	for year, list := range terms {
		sorted := make([]SolarTerm, len(list))
		copy(sorted, list)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].At.Before(sorted[j].At) })
		for _, st := range sorted {
			if st.MonthChange && (st.MonthIndex < 1 || st.MonthIndex > 12) {
				return nil, fmt.Errorf("%w: term %s of %d has month index %d", ErrInvalidTable, st.Name, year, st.MonthIndex)
			}
			if st.MonthChange {
				t.monthTerms = append(t.monthTerms, st)
			}
		}
		t.terms[year] = sorted
	}
	sort.SliceStable(t.monthTerms, func(i, j int) bool { return t.monthTerms[i].At.Before(t.monthTerms[j].At) })

	return t, nil
}

// Day returns the record for the civil date of d.
func (t *Tables) Day(d time.Time) (CalendarRecord, bool) {
	r, ok := t.days[DateKey(d)]
	return r, ok
}

// FindLunar reverse-searches the calendar for an exact lunar date match.
func (t *Tables) FindLunar(ld LunarDate) (CalendarRecord, bool) {
	key, ok := t.lunar[ld]
	if !ok {
		return CalendarRecord{}, false
	}
	return t.days[key], true
}

// Terms returns the year's terms in chronological order. The slice is
// shared and must not be modified.
func (t *Tables) Terms(year int) []SolarTerm {
	return t.terms[year]
}

// MonthTermOn returns the month-changing term that falls on the civil
// date of d, if any.
func (t *Tables) MonthTermOn(d time.Time) (SolarTerm, bool) {
	key := DateKey(d)
	for _, st := range t.terms[d.Year()] {
		if st.MonthChange && DateKey(st.At) == key {
			return st, true
		}
	}
	return SolarTerm{}, false
}

// TermOn returns any term (month-changing or not) that falls on d.
func (t *Tables) TermOn(d time.Time) (SolarTerm, bool) {
	key := DateKey(d)
	for _, st := range t.terms[d.Year()] {
		if DateKey(st.At) == key {
			return st, true
		}
	}
	return SolarTerm{}, false
}

// PrevMonthTerm returns the latest month-changing term at or before at.
func (t *Tables) PrevMonthTerm(at time.Time) (SolarTerm, bool) {
	i := sort.Search(len(t.monthTerms), func(i int) bool { return t.monthTerms[i].At.After(at) })
	if i == 0 {
		return SolarTerm{}, false
	}
	return t.monthTerms[i-1], true
}

// NextMonthTerm returns the earliest month-changing term strictly after at.
func (t *Tables) NextMonthTerm(at time.Time) (SolarTerm, bool) {
	i := sort.Search(len(t.monthTerms), func(i int) bool { return t.monthTerms[i].At.After(at) })
	if i == len(t.monthTerms) {
		return SolarTerm{}, false
	}
	return t.monthTerms[i], true
}

// Range returns the first and last civil dates covered by the calendar.
func (t *Tables) Range() (time.Time, time.Time) {
	return KeyDate(t.first), KeyDate(t.last)
}

// Stats reports table sizes for startup logging.
func (t *Tables) Stats() Stats {
	first, last := t.Range()
	return Stats{
		Days:       len(t.days),
		TermYears:  len(t.terms),
		MonthTerms: len(t.monthTerms),
		First:      first,
		Last:       last,
	}
}

// Records returns all calendar records in date order. Used by the importer.
func (t *Tables) Records() []CalendarRecord {
	keys := make([]int, 0, len(t.days))
	for k := range t.days {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	out := make([]CalendarRecord, len(keys))
	for i, k := range keys {
		out[i] = t.days[k]
	}
	return out
}

// AllTerms returns a copy of the per-year term lists.
func (t *Tables) AllTerms() map[int][]SolarTerm {
	out := make(map[int][]SolarTerm, len(t.terms))
	for y, list := range t.terms {
		out[y] = append([]SolarTerm(nil), list...)
	}
	return out
}
