// Command coverage sweeps every civil day of a year range through the
// engine and reports the days that cannot be charted, grouped by error
// kind. Use it after an import to find gaps in the lookup tables.
//
// Usage:
//
//	go run ./cmd/coverage -start 1900 -years 150 -o coverage.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zapponejosh/saju-api/internal/bootstrap"
	"github.com/zapponejosh/saju-api/internal/config"
	"github.com/zapponejosh/saju-api/internal/engine"
	"github.com/zapponejosh/saju-api/internal/logger"
)

// DayResult holds the outcome for a single date.
type DayResult struct {
	Date    string `json:"date"`
	Success bool   `json:"success"`
	Chart   string `json:"chart,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Error   string `json:"error,omitempty"`
}

// KindStats tracks failures of one error kind.
type KindStats struct {
	Kind        string   `json:"kind"`
	FailedDays  int      `json:"failed_days"`
	FailedDates []string `json:"failed_dates"`
}

type YearStats struct {
	Year        int `json:"year"`
	TotalDays   int `json:"total_days"`
	SuccessDays int `json:"success_days"`
	FailedDays  int `json:"failed_days"`
}

type Analysis struct {
	TotalDays    int
	TotalSuccess int
	TotalFailed  int
	ByKind       map[string]*KindStats
	ByYear       map[int]*YearStats
	AllFailures  []DayResult
}

func main() {
	startYear := flag.Int("start", 2024, "Start year")
	years := flag.Int("years", 4, "Number of years to sweep")
	hour := flag.Int("hour", 12, "Hour of day charted for every date")
	workers := flag.Int("workers", runtime.NumCPU(), "Concurrent months")
	verbose := flag.Bool("v", false, "Verbose output (show each date)")
	outputFile := flag.String("o", "", "Output results to JSON file")
	flag.Parse()

	endYear := *startYear + *years - 1

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(os.Stderr, "warn", cfg.LogFormat)

	ctx := context.Background()
	rt, err := bootstrap.Load(ctx, cfg, log)
	if err != nil {
		log.Error("load tables", slog.Any("error", err))
		os.Exit(1)
	}
	defer rt.Close()

	st := rt.Tables.Stats()
	fmt.Println("================================================================")
	fmt.Println("Saju Tables - Full Coverage Sweep")
	fmt.Println("================================================================")
	fmt.Printf("Source:      %s\n", cfg.TableSource)
	fmt.Printf("Tables:      %s to %s\n", st.First.Format("2006-01-02"), st.Last.Format("2006-01-02"))
	fmt.Printf("Date Range:  %d-01-01 to %d-12-31 at %02d:00\n", *startYear, endYear, *hour)
	fmt.Println()

	results, err := sweep(ctx, rt.Engine, *startYear, endYear, *hour, *workers)
	if err != nil {
		log.Error("sweep", slog.Any("error", err))
		os.Exit(1)
	}

	if *verbose {
		for _, r := range results {
			if r.Success {
				fmt.Printf("  ✓ %s: %s\n", r.Date, r.Chart)
			} else {
				fmt.Printf("  ✗ %s: %s\n", r.Date, r.Error)
			}
		}
		fmt.Println()
	}

	analysis := analyzeResults(results)
	printSummary(analysis, *startYear, endYear)
	printFailuresByKind(analysis)

	if *outputFile != "" {
		saveResults(*outputFile, analysis)
	}

	if analysis.TotalFailed > 0 {
		os.Exit(1)
	}
}

// sweep charts every day from startYear-01-01 to endYear-12-31 for both
// genders, so luck periods are resolved in both directions. Results come
// back in date order.
func sweep(ctx context.Context, eng *engine.Engine, startYear, endYear, hour, workers int) ([]DayResult, error) {
	first := time.Date(startYear, 1, 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(endYear, 12, 31, 0, 0, 0, 0, time.UTC)
	if last.Before(first) {
		return nil, fmt.Errorf("empty range %d..%d", startYear, endYear)
	}
	results := make([]DayResult, int(last.Sub(first).Hours()/24)+1)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for m := first; !m.After(last); m = m.AddDate(0, 1, 0) {
		m := m
		g.Go(func() error {
			end := m.AddDate(0, 1, 0)
			for d := m; d.Before(end); d = d.AddDate(0, 0, 1) {
				if err := ctx.Err(); err != nil {
					return err
				}
				i := int(d.Sub(first).Hours() / 24)
				results[i] = chartDay(eng, d, hour)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func chartDay(eng *engine.Engine, d time.Time, hour int) DayResult {
	r := DayResult{Date: d.Format("2006-01-02")}
	moment := fmt.Sprintf("%s %02d:00", r.Date, hour)

	for _, g := range []engine.Gender{engine.Male, engine.Female} {
		res, err := eng.Analyze(engine.Input{Moment: moment, Gender: g})
		if err != nil {
			r.Kind = engine.Kind(err)
			r.Error = err.Error()
			return r
		}
		c := res.Chart
		r.Chart = fmt.Sprintf("%s %s %s %s", c.Year, c.Month, c.Day, c.Hour)
	}
	r.Success = true
	return r
}

func analyzeResults(results []DayResult) *Analysis {
	analysis := &Analysis{
		ByKind: make(map[string]*KindStats),
		ByYear: make(map[int]*YearStats),
	}

	for _, r := range results {
		analysis.TotalDays++

		date, _ := time.Parse("2006-01-02", r.Date)
		year := date.Year()
		if _, ok := analysis.ByYear[year]; !ok {
			analysis.ByYear[year] = &YearStats{Year: year}
		}
		analysis.ByYear[year].TotalDays++

		if r.Success {
			analysis.TotalSuccess++
			analysis.ByYear[year].SuccessDays++
			continue
		}

		analysis.TotalFailed++
		analysis.ByYear[year].FailedDays++
		if _, ok := analysis.ByKind[r.Kind]; !ok {
			analysis.ByKind[r.Kind] = &KindStats{Kind: r.Kind}
		}
		analysis.ByKind[r.Kind].FailedDays++
		analysis.ByKind[r.Kind].FailedDates = append(analysis.ByKind[r.Kind].FailedDates, r.Date)
		analysis.AllFailures = append(analysis.AllFailures, r)
	}

	return analysis
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

func printSummary(analysis *Analysis, startYear, endYear int) {
	fmt.Println("================================================================")
	fmt.Println("SUMMARY")
	fmt.Println("================================================================")
	fmt.Printf("Total Days Swept:  %d\n", analysis.TotalDays)
	fmt.Printf("Successful:        %d (%.1f%%)\n", analysis.TotalSuccess, percent(analysis.TotalSuccess, analysis.TotalDays))
	fmt.Printf("Failed:            %d (%.1f%%)\n", analysis.TotalFailed, percent(analysis.TotalFailed, analysis.TotalDays))
	fmt.Println()

	fmt.Println("By Year:")
	for year := startYear; year <= endYear; year++ {
		if stats, ok := analysis.ByYear[year]; ok {
			status := "✓"
			if stats.FailedDays > 0 {
				status = "✗"
			}
			fmt.Printf("  %s %d: %d/%d days (%.1f%% success)\n",
				status, year, stats.SuccessDays, stats.TotalDays, percent(stats.SuccessDays, stats.TotalDays))
		}
	}
	fmt.Println()
}

func printFailuresByKind(analysis *Analysis) {
	if analysis.TotalFailed == 0 {
		fmt.Println("No failures!")
		return
	}

	fmt.Println("================================================================")
	fmt.Println("FAILURES BY KIND")
	fmt.Println("================================================================")

	kinds := make([]*KindStats, 0, len(analysis.ByKind))
	for _, stats := range analysis.ByKind {
		kinds = append(kinds, stats)
	}
	sort.Slice(kinds, func(i, j int) bool {
		return kinds[i].FailedDays > kinds[j].FailedDays
	})

	for _, stats := range kinds {
		fmt.Printf("\n%s: %d failures\n", stats.Kind, stats.FailedDays)
		for i, date := range stats.FailedDates {
			if i == 5 {
				fmt.Printf("  ... and %d more\n", len(stats.FailedDates)-5)
				break
			}
			fmt.Printf("  - %s\n", date)
		}
	}
	fmt.Println()
}

func saveResults(filename string, analysis *Analysis) {
	output := struct {
		GeneratedAt string                `json:"generated_at"`
		Summary     map[string]any        `json:"summary"`
		ByKind      map[string]*KindStats `json:"by_kind"`
		Failures    []DayResult           `json:"failures"`
	}{
		GeneratedAt: time.Now().Format(time.RFC3339),
		Summary: map[string]any{
			"total_days":    analysis.TotalDays,
			"total_success": analysis.TotalSuccess,
			"total_failed":  analysis.TotalFailed,
			"success_rate":  fmt.Sprintf("%.2f%%", percent(analysis.TotalSuccess, analysis.TotalDays)),
		},
		ByKind:   analysis.ByKind,
		Failures: analysis.AllFailures,
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		fmt.Printf("Error marshaling results: %v\n", err)
		return
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		fmt.Printf("Error writing file: %v\n", err)
		return
	}

	fmt.Printf("Results saved to: %s\n", filename)
}
