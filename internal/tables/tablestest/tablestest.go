// Package tablestest builds small deterministic lookup tables for tests.
//
// Solar terms are listed to the minute for 1989–1991 and 2023–2026 (the
// month-changing twelve plus a few others), and calendar records are
// derived from them for every day of those years. Lunar dates are filled
// for the spans listed in lunarStarts only.
package tablestest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/zapponejosh/saju-api/internal/ganzi"
	"github.com/zapponejosh/saju-api/internal/tables"
)

// Options tunes how calendar records are derived.
type Options struct {
	// StartOfDay evaluates each record's month and year at 00:00:01, so a
	// term day still carries the old month. The default evaluates at
	// 23:59:59, so the record already carries the new month.
	StartOfDay bool
}

type term struct {
	name  string
	at    string
	month int
}

var monthTerms = []term{
	{"대설", "1988-12-07T01:34", 11},

	{"소한", "1989-01-05T17:46", 12}, {"입춘", "1989-02-04T05:27", 1}, {"경칩", "1989-03-05T23:34", 2},
	{"청명", "1989-04-05T04:30", 3}, {"입하", "1989-05-05T21:54", 4}, {"망종", "1989-06-06T02:05", 5},
	{"소서", "1989-07-07T12:19", 6}, {"입추", "1989-08-07T22:04", 7}, {"백로", "1989-09-08T00:54", 8},
	{"한로", "1989-10-08T16:27", 9}, {"입동", "1989-11-07T19:34", 10}, {"대설", "1989-12-07T12:21", 11},

	{"소한", "1990-01-05T23:33", 12}, {"입춘", "1990-02-04T11:14", 1}, {"경칩", "1990-03-06T05:19", 2},
	{"청명", "1990-04-05T10:13", 3}, {"입하", "1990-05-06T03:35", 4}, {"망종", "1990-06-06T07:46", 5},
	{"소서", "1990-07-07T18:00", 6}, {"입추", "1990-08-08T03:46", 7}, {"백로", "1990-09-08T06:37", 8},
	{"한로", "1990-10-08T22:14", 9}, {"입동", "1990-11-08T01:23", 10}, {"대설", "1990-12-07T18:14", 11},
	{"동지", "1990-12-22T12:07", 0},

	{"소한", "1991-01-06T05:28", 12}, {"입춘", "1991-02-04T17:08", 1}, {"경칩", "1991-03-06T11:12", 2},
	{"청명", "1991-04-05T16:05", 3}, {"입하", "1991-05-06T09:27", 4}, {"망종", "1991-06-06T13:38", 5},
	{"소서", "1991-07-07T23:53", 6}, {"입추", "1991-08-08T09:37", 7}, {"백로", "1991-09-08T12:27", 8},
	{"한로", "1991-10-09T04:01", 9}, {"입동", "1991-11-08T07:08", 10}, {"대설", "1991-12-08T00:56", 11},

	{"대설", "2022-12-07T17:46", 11},

	{"소한", "2023-01-06T00:05", 12}, {"입춘", "2023-02-04T11:43", 1}, {"경칩", "2023-03-06T05:36", 2},
	{"청명", "2023-04-05T10:13", 3}, {"입하", "2023-05-06T03:19", 4}, {"망종", "2023-06-06T07:18", 5},
	{"소서", "2023-07-07T17:31", 6}, {"입추", "2023-08-08T03:23", 7}, {"백로", "2023-09-08T06:27", 8},
	{"한로", "2023-10-08T22:16", 9}, {"입동", "2023-11-08T01:36", 10}, {"대설", "2023-12-07T18:33", 11},

	{"소한", "2024-01-06T05:49", 12}, {"입춘", "2024-02-04T17:27", 1}, {"경칩", "2024-03-05T11:23", 2},
	{"청명", "2024-04-04T16:02", 3}, {"입하", "2024-05-05T09:10", 4}, {"망종", "2024-06-05T13:10", 5},
	{"하지", "2024-06-21T05:51", 0},
	{"소서", "2024-07-06T23:20", 6}, {"입추", "2024-08-07T09:09", 7}, {"백로", "2024-09-07T12:11", 8},
	{"한로", "2024-10-08T04:00", 9}, {"입동", "2024-11-07T07:20", 10}, {"대설", "2024-12-07T00:17", 11},
	{"동지", "2024-12-21T18:20", 0},

	{"소한", "2025-01-05T11:33", 12}, {"입춘", "2025-02-03T23:10", 1}, {"경칩", "2025-03-05T17:07", 2},
	{"청명", "2025-04-04T21:48", 3}, {"입하", "2025-05-05T14:57", 4}, {"망종", "2025-06-05T18:56", 5},
	{"소서", "2025-07-07T05:05", 6}, {"입추", "2025-08-07T14:52", 7}, {"백로", "2025-09-07T17:52", 8},
	{"한로", "2025-10-08T09:41", 9}, {"입동", "2025-11-07T13:04", 10}, {"대설", "2025-12-07T06:05", 11},

	{"소한", "2026-01-05T17:23", 12}, {"입춘", "2026-02-04T05:02", 1}, {"경칩", "2026-03-05T22:59", 2},
	{"청명", "2026-04-05T03:40", 3}, {"입하", "2026-05-05T20:48", 4}, {"망종", "2026-06-06T00:48", 5},
	{"소서", "2026-07-07T10:57", 6}, {"입추", "2026-08-07T20:43", 7}, {"백로", "2026-09-07T23:41", 8},
	{"한로", "2026-10-08T15:29", 9}, {"입동", "2026-11-07T18:52", 10}, {"대설", "2026-12-07T11:52", 11},
}

// Years lists the civil years for which calendar records are built.
var Years = []int{1989, 1990, 1991, 2023, 2024, 2025, 2026}

type lunarStart struct {
	date  string
	year  int
	month int
	leap  bool
}

// lunarStarts are first days of lunar months; each span ends the day
// before the next entry. The last entry of each run only closes it.
var lunarStarts = []lunarStart{
	{"1989-12-28", 1989, 12, false},
	{"1990-01-27", 1990, 1, false}, {"1990-02-25", 1990, 2, false}, {"1990-03-27", 1990, 3, false},
	{"1990-04-25", 1990, 4, false}, {"1990-05-24", 1990, 5, false}, {"1990-06-23", 1990, 5, true},
	{"1990-07-22", 1990, 6, false}, {"1990-08-20", 1990, 7, false}, {"1990-09-19", 1990, 8, false},
	{"1990-10-18", 1990, 9, false}, {"1990-11-17", 1990, 10, false}, {"1990-12-17", 1990, 11, false},
	{"1991-01-16", 1990, 12, false}, {"1991-02-15", 1991, 1, false},

	{"2023-01-22", 2023, 1, false}, {"2023-02-20", 2023, 2, false}, {"2023-03-22", 2023, 2, true},
	{"2023-04-20", 2023, 3, false}, {"2023-05-19", 2023, 4, false}, {"2023-06-18", 2023, 5, false},
	{"2023-07-18", 2023, 6, false}, {"2023-08-16", 2023, 7, false}, {"2023-09-15", 2023, 8, false},
	{"2023-10-15", 2023, 9, false}, {"2023-11-13", 2023, 10, false}, {"2023-12-13", 2023, 11, false},
	{"2024-01-11", 2023, 12, false}, {"2024-02-10", 2024, 1, false},

	{"2025-01-29", 2025, 1, false}, {"2025-02-28", 2025, 2, false}, {"2025-03-29", 2025, 3, false},
	{"2025-04-28", 2025, 4, false}, {"2025-05-27", 2025, 5, false}, {"2025-06-25", 2025, 6, false},
	{"2025-07-25", 2025, 6, true}, {"2025-08-23", 2025, 7, false}, {"2025-09-22", 2025, 8, false},
	{"2025-10-21", 2025, 9, false}, {"2025-11-20", 2025, 10, false}, {"2025-12-20", 2025, 11, false},
	{"2026-01-19", 2025, 12, false}, {"2026-02-17", 2026, 1, false},
}

// dayEpoch is 1900-01-01, a 甲戌 day (cycle index 10).
var dayEpoch = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// DayPillar returns the day pillar of a civil date.
func DayPillar(d time.Time) ganzi.Pillar {
	days := int(tables.Midnight(d).Sub(dayEpoch).Hours() / 24)
	return ganzi.FromIndex(10 + days)
}

// New builds the default fixture tables or fails the test.
func New(tb testing.TB) *tables.Tables {
	tb.Helper()
	t, err := Build(Options{})
	if err != nil {
		tb.Fatalf("build fixture tables: %v", err)
	}
	return t
}

// Build derives the fixture tables.
func Build(opts Options) (*tables.Tables, error) {
	terms := make(map[int][]tables.SolarTerm)
	var months []tables.SolarTerm
	for _, tm := range monthTerms {
		at, err := time.Parse("2006-01-02T15:04", tm.at)
		if err != nil {
			return nil, err
		}
		st := tables.SolarTerm{Name: tm.name, At: at, MonthChange: tm.month > 0, MonthIndex: tm.month}
		terms[at.Year()] = append(terms[at.Year()], st)
		if st.MonthChange {
			months = append(months, st)
		}
	}
	sort.Slice(months, func(i, j int) bool { return months[i].At.Before(months[j].At) })

	var records []tables.CalendarRecord
	for _, year := range Years {
		for d := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC); d.Year() == year; d = d.AddDate(0, 0, 1) {
			check := d.Add(23*time.Hour + 59*time.Minute + 59*time.Second)
			if opts.StartOfDay {
				check = d.Add(time.Second)
			}
			latest := latestTerm(months, check)
			yp, mp := monthPillars(latest)
			rec := tables.CalendarRecord{Date: d, Year: yp, Month: mp, Day: DayPillar(d)}
			fillLunar(&rec)
			records = append(records, rec)
		}
	}
	return tables.New(records, terms)
}

func latestTerm(months []tables.SolarTerm, at time.Time) tables.SolarTerm {
	i := sort.Search(len(months), func(i int) bool { return months[i].At.After(at) })
	return months[i-1]
}

// monthPillars derives year and month pillars from the month term in force.
// The 丑 month term (index 12) falls in January of the following civil year.
func monthPillars(st tables.SolarTerm) (ganzi.Pillar, ganzi.Pillar) {
	year := st.At.Year()
	if st.MonthIndex == 12 {
		year--
	}
	yp := ganzi.YearPillar(year)
	return yp, ganzi.MonthPillar(yp.Stem, st.MonthIndex)
}

func fillLunar(rec *tables.CalendarRecord) {
	for i := 0; i+1 < len(lunarStarts); i++ {
		start, _ := time.Parse("2006-01-02", lunarStarts[i].date)
		next, _ := time.Parse("2006-01-02", lunarStarts[i+1].date)
		if rec.Date.Before(start) || !rec.Date.Before(next) {
			continue
		}
		if next.Sub(start) > 31*24*time.Hour {
			continue
		}
		ls := lunarStarts[i]
		rec.LunarYear, rec.LunarMonth, rec.Leap = ls.year, ls.month, ls.leap
		rec.LunarDay = int(rec.Date.Sub(start).Hours()/24) + 1
		return
	}
}

// WriteFiles writes t in the JSON file format and returns the two paths.
func WriteFiles(tb testing.TB, t *tables.Tables) (calendarPath, termsPath string) {
	tb.Helper()
	dir := tb.TempDir()
	days, terms := t.Raw()
	calendarPath = filepath.Join(dir, "calendar.json")
	termsPath = filepath.Join(dir, "terms.json")
	for path, v := range map[string]any{calendarPath: days, termsPath: terms} {
		b, err := json.Marshal(v)
		if err != nil {
			tb.Fatalf("marshal %s: %v", path, err)
		}
		if err := os.WriteFile(path, b, 0o644); err != nil {
			tb.Fatalf("write %s: %v", path, err)
		}
	}
	return calendarPath, termsPath
}

// Time parses a "2006-01-02 15:04" wall-clock time for test tables.
func Time(tb testing.TB, s string) time.Time {
	tb.Helper()
	t, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		tb.Fatalf("parse %q: %v", s, err)
	}
	return t
}
