// Command apitest runs a smoke suite against a running saju API.
//
// Usage:
//
//	go run ./cmd/apitest -url http://localhost:8080 -birth "1990-02-04 11:14"
//
// The birth moment must fall inside the server's tables.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// =============================================================================
// Response Types - Match the actual API response structure
// =============================================================================

type APIResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *ErrorInfo      `json:"error,omitempty"`
}

type ErrorInfo struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// HealthResponse is the response for /health
type HealthResponse struct {
	Status string `json:"status"`
	Source string `json:"source"`
	Tables struct {
		Days      int `json:"days"`
		TermYears int `json:"term_years"`
	} `json:"tables"`
}

type Location struct {
	Name      string  `json:"name"`
	Longitude float64 `json:"longitude"`
}

// AnalysisResponse holds the parts of /analyze the suite checks.
type AnalysisResponse struct {
	Chart struct {
		Year  string `json:"year"`
		Month string `json:"month"`
		Day   string `json:"day"`
		Hour  string `json:"hour"`
	} `json:"chart"`
	Self     string `json:"self"`
	Strength struct {
		Status string  `json:"status"`
		Index  float64 `json:"index"`
	} `json:"strength"`
	Luck struct {
		Forward  bool `json:"forward"`
		StartAge int  `json:"start_age"`
		Periods  []struct {
			Pillar   string `json:"pillar"`
			StartAge int    `json:"start_age"`
		} `json:"periods"`
	} `json:"luck"`
}

type CycleEntry struct {
	Year   int    `json:"year"`
	Month  int    `json:"month"`
	Age    int    `json:"age"`
	Pillar string `json:"pillar"`
}

type MonthViewResponse struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Days  []struct {
		Date string `json:"date"`
		Day  string `json:"day"`
	} `json:"days"`
}

// =============================================================================
// Test Runner
// =============================================================================

type TestRunner struct {
	baseURL      string
	apiKey       string
	birth        string
	client       *http.Client
	verbose      bool
	successCount int
	errorCount   int
	errors       []string
}

func NewTestRunner(baseURL, apiKey, birth string, verbose bool) *TestRunner {
	return &TestRunner{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		birth:   birth,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		verbose: verbose,
	}
}

func (tr *TestRunner) Run() {
	fmt.Println("==============================================")
	fmt.Println("Saju API Smoke Suite")
	fmt.Println("==============================================")
	fmt.Printf("Base URL: %s\n", tr.baseURL)
	fmt.Printf("Birth:    %s\n", tr.birth)

	tr.testHealth()
	tr.testLocations()
	stem, year := tr.testAnalyze()
	if stem != "" {
		tr.testCycles(stem, year)
	}
	tr.testMonthView(year)
	tr.testErrors()

	tr.printSummary()
}

// =============================================================================
// Test Groups
// =============================================================================

func (tr *TestRunner) testHealth() {
	tr.printSection("Health Check")

	var health HealthResponse
	if err := tr.call("GET", "/health", nil, &health); err != nil {
		tr.recordError("Health", err.Error())
		return
	}
	if health.Status != "healthy" {
		tr.recordError("Health", fmt.Sprintf("Unexpected status: %s", health.Status))
		return
	}
	tr.recordSuccess(fmt.Sprintf("Healthy, source %s, %d days, %d term years",
		health.Source, health.Tables.Days, health.Tables.TermYears))
}

func (tr *TestRunner) testLocations() {
	tr.printSection("Locations")

	var locs []Location
	if err := tr.call("GET", "/api/v1/locations", nil, &locs); err != nil {
		tr.recordError("Locations", err.Error())
		return
	}
	if len(locs) == 0 {
		tr.recordError("Locations", "empty list")
		return
	}
	tr.recordSuccess(fmt.Sprintf("%d locations", len(locs)))
	if tr.verbose {
		for _, l := range locs {
			fmt.Printf("    %s %.2f\n", l.Name, l.Longitude)
		}
	}
}

// testAnalyze returns the day stem and birth year for the cycle tests.
func (tr *TestRunner) testAnalyze() (string, int) {
	tr.printSection("Analyze")

	year := 0
	if len(tr.birth) >= 4 {
		fmt.Sscanf(tr.birth[:4], "%d", &year)
	}

	var best AnalysisResponse
	for _, gender := range []string{"male", "female"} {
		body := map[string]any{"birth": tr.birth, "gender": gender, "seasonal_correction": true}
		var res AnalysisResponse
		if err := tr.call("POST", "/api/v1/analyze", body, &res); err != nil {
			tr.recordError("Analyze "+gender, err.Error())
			continue
		}
		if len(res.Luck.Periods) == 0 {
			tr.recordError("Analyze "+gender, "no luck periods")
			continue
		}
		dir := "forward"
		if !res.Luck.Forward {
			dir = "backward"
		}
		tr.recordSuccess(fmt.Sprintf("%s: %s %s %s %s, %s %.1f, luck %s from %d",
			gender, res.Chart.Year, res.Chart.Month, res.Chart.Day, res.Chart.Hour,
			res.Strength.Status, res.Strength.Index, dir, res.Luck.StartAge))
		best = res
	}
	return best.Self, year
}

func (tr *TestRunner) testCycles(stem string, birthYear int) {
	tr.printSection("Cycles")

	q := url.Values{"birth_year": {fmt.Sprint(birthYear)}, "start_age": {"1"}, "day_stem": {stem}}
	var annual []CycleEntry
	if err := tr.call("GET", "/api/v1/cycles/annual?"+q.Encode(), nil, &annual); err != nil {
		tr.recordError("Annual", err.Error())
	} else if len(annual) != 10 || annual[0].Year != birthYear {
		tr.recordError("Annual", fmt.Sprintf("got %d entries", len(annual)))
	} else {
		tr.recordSuccess(fmt.Sprintf("Annual from %d: %s ... %s", birthYear, annual[0].Pillar, annual[9].Pillar))
	}

	q = url.Values{"year": {fmt.Sprint(birthYear)}, "day_stem": {stem}}
	var monthly []CycleEntry
	if err := tr.call("GET", "/api/v1/cycles/monthly?"+q.Encode(), nil, &monthly); err != nil {
		tr.recordError("Monthly", err.Error())
	} else if len(monthly) != 12 {
		tr.recordError("Monthly", fmt.Sprintf("got %d entries, want 12", len(monthly)))
	} else {
		tr.recordSuccess(fmt.Sprintf("Monthly %d: %s ... %s", birthYear, monthly[0].Pillar, monthly[11].Pillar))
	}
}

func (tr *TestRunner) testMonthView(year int) {
	tr.printSection("Month View")

	for _, month := range []int{1, 2, 12} {
		path := fmt.Sprintf("/api/v1/calendar/%d/%d", year, month)
		var v MonthViewResponse
		if err := tr.call("GET", path, nil, &v); err != nil {
			tr.recordError(path, err.Error())
			continue
		}
		if len(v.Days) < 28 {
			tr.recordError(path, fmt.Sprintf("got %d days", len(v.Days)))
			continue
		}
		tr.recordSuccess(fmt.Sprintf("%d-%02d: %d days, first %s", year, month, len(v.Days), v.Days[0].Day))
	}
}

func (tr *TestRunner) testErrors() {
	tr.printSection("Error Cases")

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"bad gender", "POST", "/api/v1/analyze", map[string]any{"birth": tr.birth, "gender": "x"}, 400, "MALFORMED_INPUT"},
		{"bad moment", "POST", "/api/v1/analyze", map[string]any{"birth": "yesterday", "gender": "m"}, 400, "MALFORMED_INPUT"},
		{"outside tables", "POST", "/api/v1/analyze", map[string]any{"birth": "1000-01-01 00:00", "gender": "m"}, 422, "MISSING_CALENDAR_RECORD"},
		{"bad month", "GET", "/api/v1/calendar/2024/13", nil, 400, "MALFORMED_INPUT"},
		{"missing stem", "GET", "/api/v1/cycles/annual?birth_year=1990", nil, 400, "MALFORMED_INPUT"},
		{"unknown route", "GET", "/api/v1/readings", nil, 404, "NOT_FOUND"},
	}

	for _, c := range cases {
		status, info, err := tr.do(c.method, c.path, c.body)
		if err != nil {
			tr.recordError(c.name, err.Error())
			continue
		}
		if status != c.status || info == nil || info.Code != c.code {
			tr.recordError(c.name, fmt.Sprintf("got HTTP %d %+v, want %d %s", status, info, c.status, c.code))
			continue
		}
		tr.recordSuccess(fmt.Sprintf("%s: HTTP %d %s", c.name, status, info.Code))
	}
}

// =============================================================================
// Helper Methods
// =============================================================================

// call performs a request and decodes the data of a successful envelope.
func (tr *TestRunner) call(method, path string, body, target any) error {
	resp, err := tr.send(method, path, body)
	if err != nil {
		return err
	}
	if !resp.Success {
		errMsg := "unknown error"
		if resp.Error != nil {
			errMsg = resp.Error.Code + ": " + resp.Error.Message
		}
		return fmt.Errorf("API error: %s", errMsg)
	}
	return json.Unmarshal(resp.Data, target)
}

// do returns the status and error info of a request expected to fail.
func (tr *TestRunner) do(method, path string, body any) (int, *ErrorInfo, error) {
	req, err := tr.request(method, path, body)
	if err != nil {
		return 0, nil, err
	}
	httpResp, err := tr.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer httpResp.Body.Close()

	var resp APIResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return httpResp.StatusCode, nil, fmt.Errorf("parse error: %w", err)
	}
	return httpResp.StatusCode, resp.Error, nil
}

func (tr *TestRunner) send(method, path string, body any) (*APIResponse, error) {
	req, err := tr.request(method, path, body)
	if err != nil {
		return nil, err
	}
	httpResp, err := tr.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read error: %w", err)
	}
	var resp APIResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return &resp, nil
}

func (tr *TestRunner) request(method, path string, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, tr.baseURL+path, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tr.apiKey != "" {
		req.Header.Set("X-API-Key", tr.apiKey)
	}
	return req, nil
}

func (tr *TestRunner) printSection(name string) {
	fmt.Println()
	fmt.Printf("--- %s ---\n", name)
	fmt.Println()
}

func (tr *TestRunner) recordSuccess(msg string) {
	tr.successCount++
	fmt.Printf("  ✓ %s\n", msg)
}

func (tr *TestRunner) recordError(context, msg string) {
	tr.errorCount++
	errStr := fmt.Sprintf("%s: %s", context, msg)
	tr.errors = append(tr.errors, errStr)
	fmt.Printf("  ✗ %s\n", errStr)
}

func (tr *TestRunner) printSummary() {
	fmt.Println()
	fmt.Println("==============================================")
	fmt.Println("Summary")
	fmt.Println("==============================================")
	fmt.Printf("  Passed: %d\n", tr.successCount)
	fmt.Printf("  Failed: %d\n", tr.errorCount)
	fmt.Println()

	if tr.errorCount > 0 {
		fmt.Println("Failures:")
		for _, err := range tr.errors {
			fmt.Printf("  • %s\n", err)
		}
		fmt.Println()
		fmt.Printf("Tests completed with %d failure(s)\n", tr.errorCount)
		return
	}
	fmt.Println("All tests passed! ✓")
}

// =============================================================================
// Main
// =============================================================================

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Base URL of the API")
	apiKey := flag.String("key", os.Getenv("API_KEY"), "API key sent as X-API-Key")
	birth := flag.String("birth", "1990-02-04 11:14", "Birth moment inside the server's tables")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	// Check if server is reachable
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(*baseURL + "/health")
	if err != nil {
		fmt.Printf("Error: Cannot connect to %s\n", *baseURL)
		fmt.Println("Make sure the API server is running.")
		os.Exit(1)
	}
	resp.Body.Close()

	runner := NewTestRunner(*baseURL, *apiKey, *birth, *verbose)
	runner.Run()

	if runner.errorCount > 0 {
		os.Exit(1)
	}
}
