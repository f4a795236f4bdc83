// Command import loads the calendar and solar-term JSON tables into the
// SQLite table store.
//
// Usage:
//
//	go run ./cmd/import -calendar data/calendar.json -terms data/terms.json -db data/tables.db
//
// This tool:
//  1. Reads and validates both JSON tables
//  2. Creates/opens the SQLite database and runs migrations
//  3. Replaces the stored tables in a single transaction
//  4. Reads the store back and checks it matches the files
//
// Running it again replaces the previous contents.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/zapponejosh/saju-api/internal/database"
	"github.com/zapponejosh/saju-api/internal/logger"
	"github.com/zapponejosh/saju-api/internal/tables"
)

func main() {
	calendarPath := flag.String("calendar", "data/calendar.json", "Path to calendar table JSON")
	termsPath := flag.String("terms", "data/terms.json", "Path to solar-term table JSON")
	dbPath := flag.String("db", "data/tables.db", "Path to SQLite database")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	level := "info"
	if *verbose {
		level = "debug"
	}
	log := logger.New(os.Stdout, level, "text")

	if err := run(*calendarPath, *termsPath, *dbPath, log); err != nil {
		log.Error("import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("import complete")
}

func run(calendarPath, termsPath, dbPath string, log *slog.Logger) error {
	ctx := context.Background()
	startTime := time.Now()

	// Step 1: read and validate the files.
	tbls, err := tables.LoadFiles(ctx, calendarPath, termsPath, log)
	if err != nil {
		return err
	}

	// Step 2: open database and run migrations.
	log.Info("opening database", slog.String("path", dbPath))

	db, err := database.Open(database.DefaultConfig(dbPath), log)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	migrated, err := db.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	log.Info("migrations complete", slog.Int("applied", migrated))

	// Step 3: import.
	rec, err := db.ImportTables(ctx, tbls, calendarPath+" + "+termsPath)
	if err != nil {
		return fmt.Errorf("import tables: %w", err)
	}

	// Step 4: verify the round trip.
	back, err := db.LoadTables(ctx)
	if err != nil {
		return fmt.Errorf("reload tables: %w", err)
	}
	got, want := back.Stats(), tbls.Stats()
	if got.Days != want.Days || got.TermYears != want.TermYears || got.MonthTerms != want.MonthTerms {
		return fmt.Errorf("store mismatch: loaded %+v, imported %+v", got, want)
	}

	stats, err := db.Stats(ctx)
	if err != nil {
		return fmt.Errorf("store stats: %w", err)
	}
	elapsed := time.Since(startTime)

	// Print summary
	fmt.Println()
	fmt.Println("=== Import Summary ===")
	fmt.Printf("Import ID:           %d\n", rec.ID)
	fmt.Printf("Calendar days:       %d\n", stats.Days)
	fmt.Printf("Solar terms:         %d\n", stats.Terms)
	fmt.Printf("Month terms:         %d\n", stats.MonthTerms)
	fmt.Printf("Covered range:       %s .. %s\n", stats.FirstDate, stats.LastDate)
	fmt.Printf("Time elapsed:        %v\n", elapsed.Round(time.Millisecond))

	return nil
}
