package tables

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	"github.com/zapponejosh/saju-api/internal/ganzi"
)

// RawDay is one entry of the calendar table file, keyed by yyyymmdd.
type RawDay struct {
	LunarYear  int    `json:"ly"`
	LunarMonth int    `json:"lm"`
	LunarDay   int    `json:"ld"`
	Leap       bool   `json:"ls"`
	Year       string `json:"yG"`
	Month      string `json:"mG"`
	Day        string `json:"dG"`
}

// RawTerm is one entry of the solar-term table file, grouped by year.
type RawTerm struct {
	Term          string `json:"term"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	Datetime      string `json:"datetime"`
	IsMonthChange bool   `json:"isMonthChange"`
	MonthIndex    *int   `json:"monthIndex"`
}

// termLayout is the ISO-like minute-precision layout of RawTerm.Datetime.
const termLayout = "2006-01-02T15:04"

// LoadFiles reads both table files and builds the Tables. The two files are
// decoded concurrently; the call returns only when both are done.
func LoadFiles(ctx context.Context, calendarPath, termsPath string, logger *slog.Logger) (*Tables, error) {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	var (
		days  map[string]RawDay
		terms map[string][]RawTerm
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		f, err := os.Open(calendarPath)
		if err != nil {
			return fmt.Errorf("open calendar table: %w", err)
		}
		defer f.Close()
		if err := json.NewDecoder(f).Decode(&days); err != nil {
			return fmt.Errorf("decode calendar table: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		f, err := os.Open(termsPath)
		if err != nil {
			return fmt.Errorf("open solar-term table: %w", err)
		}
		defer f.Close()
		if err := json.NewDecoder(f).Decode(&terms); err != nil {
			return fmt.Errorf("decode solar-term table: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	t, err := FromRaw(days, terms)
	if err != nil {
		return nil, err
	}

	st := t.Stats()
	logger.Info("lookup tables loaded",
		slog.String("source", "json"),
		slog.Int("days", st.Days),
		slog.Int("term_years", st.TermYears),
		slog.String("first", st.First.Format("2006-01-02")),
		slog.String("last", st.Last.Format("2006-01-02")),
		slog.Duration("took", time.Since(start)),
	)
	return t, nil
}

// Decode builds Tables from two JSON streams.
func Decode(calendar, terms io.Reader) (*Tables, error) {
	var days map[string]RawDay
	if err := json.NewDecoder(calendar).Decode(&days); err != nil {
		return nil, fmt.Errorf("decode calendar table: %w", err)
	}
	var rawTerms map[string][]RawTerm
	if err := json.NewDecoder(terms).Decode(&rawTerms); err != nil {
		return nil, fmt.Errorf("decode solar-term table: %w", err)
	}
	return FromRaw(days, rawTerms)
}

// FromRaw converts decoded table files into Tables.
func FromRaw(days map[string]RawDay, terms map[string][]RawTerm) (*Tables, error) {
	records := make([]CalendarRecord, 0, len(days))
	for key, d := range days {
		r, err := d.Record(key)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}

	byYear := make(map[int][]SolarTerm, len(terms))
	for yk, list := range terms {
		year, err := strconv.Atoi(yk)
		if err != nil || len(yk) != 4 {
			return nil, fmt.Errorf("%w: solar-term year key %q", ErrInvalidTable, yk)
		}
		for _, rt := range list {
			st, err := rt.SolarTerm()
			if err != nil {
				return nil, fmt.Errorf("year %d: %w", year, err)
			}
			byYear[year] = append(byYear[year], st)
		}
	}
	return New(records, byYear)
}

// Record converts one raw calendar entry.
func (d RawDay) Record(key string) (CalendarRecord, error) {
	date, err := ParseDateKey(key)
	if err != nil {
		return CalendarRecord{}, err
	}
	r := CalendarRecord{
		Date:       date,
		LunarYear:  d.LunarYear,
		LunarMonth: d.LunarMonth,
		LunarDay:   d.LunarDay,
		Leap:       d.Leap,
	}
	for _, f := range []struct {
		code string
		dst  *ganzi.Pillar
	}{{d.Year, &r.Year}, {d.Month, &r.Month}, {d.Day, &r.Day}} {
		p, err := ganzi.ParsePillar(norm.NFC.String(f.code))
		if err != nil {
			return CalendarRecord{}, fmt.Errorf("%w: %s: %v", ErrInvalidTable, key, err)
		}
		*f.dst = p
	}
	return r, nil
}

// SolarTerm converts one raw solar-term entry.
func (rt RawTerm) SolarTerm() (SolarTerm, error) {
	at, err := time.Parse(termLayout, rt.Datetime)
	if err != nil {
		return SolarTerm{}, fmt.Errorf("%w: term %q datetime %q", ErrInvalidTable, rt.Term, rt.Datetime)
	}
	st := SolarTerm{
		Name:        norm.NFC.String(rt.Term),
		At:          at,
		MonthChange: rt.IsMonthChange,
	}
	if rt.MonthIndex != nil {
		st.MonthIndex = *rt.MonthIndex
	}
	return st, nil
}

// ParseDateKey parses an 8-digit yyyymmdd key.
func ParseDateKey(key string) (time.Time, error) {
	if len(key) != 8 {
		return time.Time{}, fmt.Errorf("%w: date key %q", ErrInvalidTable, key)
	}
	d, err := time.Parse("20060102", key)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date key %q", ErrInvalidTable, key)
	}
	return d, nil
}

// Raw converts the tables back into the file representation.
func (t *Tables) Raw() (map[string]RawDay, map[string][]RawTerm) {
	days := make(map[string]RawDay, len(t.days))
	for key, r := range t.days {
		days[strconv.Itoa(key)] = RawDay{
			LunarYear:  r.LunarYear,
			LunarMonth: r.LunarMonth,
			LunarDay:   r.LunarDay,
			Leap:       r.Leap,
			Year:       r.Year.String(),
			Month:      r.Month.String(),
			Day:        r.Day.String(),
		}
	}
	terms := make(map[string][]RawTerm, len(t.terms))
	for year, list := range t.terms {
		out := make([]RawTerm, 0, len(list))
		for _, st := range list {
			rt := RawTerm{
				Term:          st.Name,
				Date:          st.At.Format("20060102"),
				Time:          st.At.Format("15:04"),
				Datetime:      st.At.Format(termLayout),
				IsMonthChange: st.MonthChange,
			}
			if st.MonthChange {
				mi := st.MonthIndex
				rt.MonthIndex = &mi
			}
			out = append(out, rt)
		}
		terms[strconv.Itoa(year)] = out
	}
	return days, terms
}
