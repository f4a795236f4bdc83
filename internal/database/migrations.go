package database

// migrationsSQL contains all database migrations, applied in version order.
// Each migration must be safe to run against a fresh database.
var migrationsSQL = map[int]string{
	1: migrationV1TableStore,
	2: migrationV2ImportLog,
}

// migrationV1TableStore creates the two lookup tables.
//
// Dates are stored as 'YYYY-MM-DD' and term instants as 'YYYY-MM-DDTHH:MM'
// wall-clock text in the reference zone, so lexical order is chronological.
// Pillars are stored as their two-character hanja code (e.g. '甲子').
const migrationV1TableStore = `
-- Migration 001: calendar records and solar terms

CREATE TABLE IF NOT EXISTS calendar_days (
    date TEXT PRIMARY KEY,

    -- Lunar date; month and day are 0 when the source has none.
    lunar_year  INTEGER NOT NULL DEFAULT 0,
    lunar_month INTEGER NOT NULL DEFAULT 0 CHECK (lunar_month BETWEEN 0 AND 12),
    lunar_day   INTEGER NOT NULL DEFAULT 0 CHECK (lunar_day BETWEEN 0 AND 30),
    leap        INTEGER NOT NULL DEFAULT 0 CHECK (leap IN (0, 1)),

    year_pillar  TEXT NOT NULL,
    month_pillar TEXT NOT NULL,
    day_pillar   TEXT NOT NULL
);

-- Reverse lookup for lunar input.
CREATE INDEX IF NOT EXISTS idx_calendar_days_lunar
    ON calendar_days(lunar_year, lunar_month, lunar_day, leap);

CREATE TABLE IF NOT EXISTS solar_terms (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    year INTEGER NOT NULL,
    name TEXT NOT NULL,
    at TEXT NOT NULL,
    month_change INTEGER NOT NULL DEFAULT 0 CHECK (month_change IN (0, 1)),
    -- 1 (寅) through 12 (丑) for month-changing terms, 0 otherwise.
    month_index INTEGER NOT NULL DEFAULT 0 CHECK (month_index BETWEEN 0 AND 12),

    UNIQUE (year, name)
);

CREATE INDEX IF NOT EXISTS idx_solar_terms_at ON solar_terms(at);
`

// migrationV2ImportLog records each import run.
const migrationV2ImportLog = `
-- Migration 002: import log

CREATE TABLE IF NOT EXISTS table_imports (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    source TEXT NOT NULL,
    days INTEGER NOT NULL,
    terms INTEGER NOT NULL,
    first_date TEXT NOT NULL,
    last_date TEXT NOT NULL,
    imported_at TEXT NOT NULL DEFAULT (datetime('now'))
);
`
