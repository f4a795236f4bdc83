package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/zapponejosh/saju-api/internal/tables"
)

// =============================================================================
// Helper Functions
// =============================================================================

// parseTimestamp parses a timestamp from SQLite TEXT format.
// Tries multiple formats and returns nil if parsing fails.
func parseTimestamp(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05.999999"} {
		if t, err := time.Parse(layout, ns.String); err == nil {
			return &t
		}
	}
	return nil
}

// =============================================================================
// Import
// =============================================================================

// ImportTables replaces the store contents with t in one transaction and
// logs the run. source names where the tables came from.
func (db *DB) ImportTables(ctx context.Context, t *tables.Tables, source string) (*ImportRecord, error) {
	records := t.Records()
	terms := t.AllTerms()
	first, last := t.Range()

	rec := &ImportRecord{
		Source:    source,
		Days:      len(records),
		FirstDate: first.Format(dateLayout),
		LastDate:  last.Format(dateLayout),
	}

	years := make([]int, 0, len(terms))
	for y := range terms {
		years = append(years, y)
	}
	sort.Ints(years)

	err := db.WithTx(ctx, func(tx *Tx) error {
		for _, stmt := range []string{"DELETE FROM calendar_days", "DELETE FROM solar_terms"} {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("clear store: %w", err)
			}
		}

		dayStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO calendar_days (
				date, lunar_year, lunar_month, lunar_day, leap,
				year_pillar, month_pillar, day_pillar
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("prepare day insert: %w", err)
		}
		defer dayStmt.Close()

		for _, r := range records {
			row := newDayRow(r)
			if _, err := dayStmt.ExecContext(ctx,
				row.Date, row.LunarYear, row.LunarMonth, row.LunarDay, row.Leap,
				row.YearPillar, row.MonthPillar, row.DayPillar,
			); err != nil {
				return fmt.Errorf("insert day %s: %w", row.Date, err)
			}
		}

		termStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO solar_terms (year, name, at, month_change, month_index)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("prepare term insert: %w", err)
		}
		defer termStmt.Close()

		for _, y := range years {
			for _, st := range terms[y] {
				row := newTermRow(y, st)
				if _, err := termStmt.ExecContext(ctx,
					row.Year, row.Name, row.At, row.MonthChange, row.MonthIndex,
				); err != nil {
					return fmt.Errorf("insert term %d %s: %w", y, row.Name, err)
				}
				rec.Terms++
			}
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO table_imports (source, days, terms, first_date, last_date)
			VALUES (?, ?, ?, ?, ?)
		`, rec.Source, rec.Days, rec.Terms, rec.FirstDate, rec.LastDate)
		if err != nil {
			return fmt.Errorf("log import: %w", err)
		}
		rec.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return nil, err
	}

	db.logger.Info("tables imported",
		slog.String("source", source),
		slog.Int("days", rec.Days),
		slog.Int("terms", rec.Terms),
	)
	return rec, nil
}

// =============================================================================
// Load
// =============================================================================

// LoadTables reads the whole store back into lookup tables. It returns
// ErrEmptyStore before the first import.
func (db *DB) LoadTables(ctx context.Context) (*tables.Tables, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT date, lunar_year, lunar_month, lunar_day, leap,
			year_pillar, month_pillar, day_pillar
		FROM calendar_days
		ORDER BY date
	`)
	if err != nil {
		return nil, fmt.Errorf("query calendar days: %w", err)
	}
	defer rows.Close()

	var records []tables.CalendarRecord
	for rows.Next() {
		var row dayRow
		if err := rows.Scan(
			&row.Date, &row.LunarYear, &row.LunarMonth, &row.LunarDay, &row.Leap,
			&row.YearPillar, &row.MonthPillar, &row.DayPillar,
		); err != nil {
			return nil, fmt.Errorf("scan calendar day: %w", err)
		}
		r, err := row.record()
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calendar days: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyStore
	}

	terms, err := db.loadTerms(ctx)
	if err != nil {
		return nil, err
	}
	return tables.New(records, terms)
}

func (db *DB) loadTerms(ctx context.Context) (map[int][]tables.SolarTerm, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT year, name, at, month_change, month_index
		FROM solar_terms
		ORDER BY at
	`)
	if err != nil {
		return nil, fmt.Errorf("query solar terms: %w", err)
	}
	defer rows.Close()

	terms := make(map[int][]tables.SolarTerm)
	for rows.Next() {
		var row termRow
		if err := rows.Scan(&row.Year, &row.Name, &row.At, &row.MonthChange, &row.MonthIndex); err != nil {
			return nil, fmt.Errorf("scan solar term: %w", err)
		}
		st, err := row.term()
		if err != nil {
			return nil, err
		}
		terms[row.Year] = append(terms[row.Year], st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate solar terms: %w", err)
	}
	return terms, nil
}

// DayByDate returns one stored calendar record. Returns ErrNotFound if the
// date is not in the store.
func (db *DB) DayByDate(ctx context.Context, date time.Time) (tables.CalendarRecord, error) {
	var row dayRow
	err := db.QueryRowContext(ctx, `
		SELECT date, lunar_year, lunar_month, lunar_day, leap,
			year_pillar, month_pillar, day_pillar
		FROM calendar_days
		WHERE date = ?
	`, date.Format(dateLayout)).Scan(
		&row.Date, &row.LunarYear, &row.LunarMonth, &row.LunarDay, &row.Leap,
		&row.YearPillar, &row.MonthPillar, &row.DayPillar,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return tables.CalendarRecord{}, ErrNotFound
		}
		return tables.CalendarRecord{}, fmt.Errorf("query day by date: %w", err)
	}
	return row.record()
}

// =============================================================================
// Stats
// =============================================================================

// Stats returns counts and the covered range.
func (db *DB) Stats(ctx context.Context) (*StoreStats, error) {
	var stats StoreStats
	err := db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(MIN(date), ''),
			COALESCE(MAX(date), '')
		FROM calendar_days
	`).Scan(&stats.Days, &stats.FirstDate, &stats.LastDate)
	if err != nil {
		return nil, fmt.Errorf("query day stats: %w", err)
	}

	err = db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(month_change), 0) FROM solar_terms
	`).Scan(&stats.Terms, &stats.MonthTerms)
	if err != nil {
		return nil, fmt.Errorf("query term stats: %w", err)
	}

	last, err := db.LatestImport(ctx)
	switch {
	case err == nil:
		stats.LastImport = last
	case !IsNotFound(err):
		return nil, err
	}
	return &stats, nil
}

// LatestImport returns the most recent import log entry.
func (db *DB) LatestImport(ctx context.Context) (*ImportRecord, error) {
	var rec ImportRecord
	var importedAt sql.NullString
	err := db.QueryRowContext(ctx, `
		SELECT id, source, days, terms, first_date, last_date, imported_at
		FROM table_imports
		ORDER BY id DESC
		LIMIT 1
	`).Scan(&rec.ID, &rec.Source, &rec.Days, &rec.Terms, &rec.FirstDate, &rec.LastDate, &importedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query latest import: %w", err)
	}
	rec.ImportedAt = parseTimestamp(importedAt)
	return &rec, nil
}
