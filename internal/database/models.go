package database

import (
	"fmt"
	"time"

	"github.com/zapponejosh/saju-api/internal/ganzi"
	"github.com/zapponejosh/saju-api/internal/tables"
)

// Stored text layouts.
const (
	dateLayout = "2006-01-02"
	termLayout = "2006-01-02T15:04"
)

// dayRow is one calendar_days row.
type dayRow struct {
	Date        string
	LunarYear   int
	LunarMonth  int
	LunarDay    int
	Leap        bool
	YearPillar  string
	MonthPillar string
	DayPillar   string
}

func newDayRow(r tables.CalendarRecord) dayRow {
	return dayRow{
		Date:        r.Date.Format(dateLayout),
		LunarYear:   r.LunarYear,
		LunarMonth:  r.LunarMonth,
		LunarDay:    r.LunarDay,
		Leap:        r.Leap,
		YearPillar:  r.Year.String(),
		MonthPillar: r.Month.String(),
		DayPillar:   r.Day.String(),
	}
}

// record converts the row back, validating every stored code.
func (r dayRow) record() (tables.CalendarRecord, error) {
	date, err := time.Parse(dateLayout, r.Date)
	if err != nil {
		return tables.CalendarRecord{}, fmt.Errorf("%w: calendar date %q", tables.ErrInvalidTable, r.Date)
	}
	rec := tables.CalendarRecord{
		Date:       date,
		LunarYear:  r.LunarYear,
		LunarMonth: r.LunarMonth,
		LunarDay:   r.LunarDay,
		Leap:       r.Leap,
	}
	if rec.Year, err = ganzi.ParsePillar(r.YearPillar); err != nil {
		return tables.CalendarRecord{}, fmt.Errorf("%w: %s year: %v", tables.ErrInvalidTable, r.Date, err)
	}
	if rec.Month, err = ganzi.ParsePillar(r.MonthPillar); err != nil {
		return tables.CalendarRecord{}, fmt.Errorf("%w: %s month: %v", tables.ErrInvalidTable, r.Date, err)
	}
	if rec.Day, err = ganzi.ParsePillar(r.DayPillar); err != nil {
		return tables.CalendarRecord{}, fmt.Errorf("%w: %s day: %v", tables.ErrInvalidTable, r.Date, err)
	}
	return rec, nil
}

// termRow is one solar_terms row.
type termRow struct {
	Year        int
	Name        string
	At          string
	MonthChange bool
	MonthIndex  int
}

func newTermRow(year int, st tables.SolarTerm) termRow {
	return termRow{
		Year:        year,
		Name:        st.Name,
		At:          st.At.Format(termLayout),
		MonthChange: st.MonthChange,
		MonthIndex:  st.MonthIndex,
	}
}

func (r termRow) term() (tables.SolarTerm, error) {
	at, err := time.Parse(termLayout, r.At)
	if err != nil {
		return tables.SolarTerm{}, fmt.Errorf("%w: term %q at %q", tables.ErrInvalidTable, r.Name, r.At)
	}
	return tables.SolarTerm{Name: r.Name, At: at, MonthChange: r.MonthChange, MonthIndex: r.MonthIndex}, nil
}

// ImportRecord is one row of the import log.
type ImportRecord struct {
	ID         int64      `json:"id"`
	Source     string     `json:"source"`
	Days       int        `json:"days"`
	Terms      int        `json:"terms"`
	FirstDate  string     `json:"first_date"`
	LastDate   string     `json:"last_date"`
	ImportedAt *time.Time `json:"imported_at,omitempty"`
}

// StoreStats summarizes the store contents.
type StoreStats struct {
	Days       int           `json:"days"`
	Terms      int           `json:"terms"`
	MonthTerms int           `json:"month_terms"`
	FirstDate  string        `json:"first_date,omitempty"`
	LastDate   string        `json:"last_date,omitempty"`
	LastImport *ImportRecord `json:"last_import,omitempty"`
}
