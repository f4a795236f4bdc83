package main

import (
	"context"
	"strings"
	"testing"

	"github.com/zapponejosh/saju-api/internal/correction"
	"github.com/zapponejosh/saju-api/internal/engine"
	"github.com/zapponejosh/saju-api/internal/tables/tablestest"
)

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	eng, err := engine.New(tablestest.New(t), correction.Default(), engine.Options{})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return eng
}

func TestSweep(t *testing.T) {
	eng := newEngine(t)

	tests := []struct {
		name       string
		start, end int
		wantDays   int
		wantFailed int
		wantKind   string
	}{
		{"covered leap year", 2024, 2024, 366, 0, ""},
		{"outside tables", 1995, 1995, 365, 365, engine.KindMissingCalendarRecord},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := sweep(context.Background(), eng, tt.start, tt.end, 12, 4)
			if err != nil {
				t.Fatalf("sweep() error = %v", err)
			}
			a := analyzeResults(results)
			if a.TotalDays != tt.wantDays {
				t.Errorf("TotalDays = %d, want %d", a.TotalDays, tt.wantDays)
			}
			if a.TotalFailed != tt.wantFailed {
				t.Errorf("TotalFailed = %d, want %d (first failures %v)", a.TotalFailed, tt.wantFailed, head(a.AllFailures))
			}
			if tt.wantKind != "" {
				if ks := a.ByKind[tt.wantKind]; ks == nil || ks.FailedDays != tt.wantFailed {
					t.Errorf("ByKind[%s] = %+v", tt.wantKind, ks)
				}
			}
		})
	}
}

func TestSweepOrder(t *testing.T) {
	results, err := sweep(context.Background(), newEngine(t), 2024, 2024, 12, 8)
	if err != nil {
		t.Fatalf("sweep() error = %v", err)
	}
	if results[0].Date != "2024-01-01" || results[len(results)-1].Date != "2024-12-31" {
		t.Errorf("range = %s..%s", results[0].Date, results[len(results)-1].Date)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Date <= results[i-1].Date {
			t.Fatalf("results out of order at %d: %s after %s", i, results[i].Date, results[i-1].Date)
		}
	}
	// 입추 2024-08-07T09:09 makes the noon chart a 壬申 month.
	for _, r := range results {
		if r.Date == "2024-08-07" && strings.Fields(r.Chart)[1] != "壬申" {
			t.Errorf("2024-08-07 chart = %s", r.Chart)
		}
	}
}

func TestSweepRejectsEmptyRange(t *testing.T) {
	if _, err := sweep(context.Background(), newEngine(t), 2025, 2024, 12, 1); err == nil {
		t.Error("sweep() with end before start succeeded")
	}
}

func head(rs []DayResult) []DayResult {
	if len(rs) > 3 {
		return rs[:3]
	}
	return rs
}
