package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/zapponejosh/saju-api/internal/config"
	"github.com/zapponejosh/saju-api/internal/correction"
	"github.com/zapponejosh/saju-api/internal/database"
	"github.com/zapponejosh/saju-api/internal/engine"
	"github.com/zapponejosh/saju-api/internal/tables/tablestest"
)

// =============================================================================
// TEST SETUP HELPERS
// =============================================================================

type testEnv struct {
	cfg     *config.Config
	db      *database.DB
	handler http.Handler
}

// setupTest builds the router over the fixture tables. With apiKey set the
// /api/v1 routes require it. withStore adds an in-memory SQLite store.
func setupTest(t *testing.T, apiKey string, withStore bool) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError, // Quiet during tests
	}))

	tbls := tablestest.New(t)
	eng, err := engine.New(tbls, correction.Default(), engine.Options{})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}

	cfg := &config.Config{
		Port:        8080,
		Env:         config.EnvDevelopment,
		TableSource: config.SourceJSON,
		APIKey:      apiKey,
		LogLevel:    "error",
		LogFormat:   "text",
	}

	var db *database.DB
	if withStore {
		cfg.TableSource = config.SourceSQLite
		db, err = database.Open(database.Config{
			Path:            ":memory:",
			MaxOpenConns:    1,
			MaxIdleConns:    1,
			ConnMaxLifetime: time.Hour,
		}, logger)
		if err != nil {
			t.Fatalf("open test database: %v", err)
		}
		t.Cleanup(func() { db.Close() })

		ctx := context.Background()
		if _, err := db.Migrate(ctx); err != nil {
			t.Fatalf("migrate test database: %v", err)
		}
		if _, err := db.ImportTables(ctx, tbls, "fixture"); err != nil {
			t.Fatalf("import fixture: %v", err)
		}
	}

	handlers := NewHandlers(eng, tbls, db, cfg.TableSource, logger)
	return &testEnv{cfg: cfg, db: db, handler: SetupRoutes(handlers, cfg, logger)}
}

// makeRequest builds a request with an optional JSON body and API key.
func makeRequest(method, path string, body any, apiKey string) *http.Request {
	var bodyReader io.Reader
	if body != nil {
		jsonData, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(jsonData)
	}

	req := httptest.NewRequest(method, path, bodyReader)
	req.Header.Set("Content-Type", "application/json")

	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	return req
}

func (env *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	env.handler.ServeHTTP(rr, req)
	return rr
}

// parseResponse parses JSON response
func parseResponse(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v, body: %s", err, rr.Body.String())
	}
}

// geng is the stem 庚, escaped for query strings.
var geng = url.QueryEscape("庚")

type errorResponse struct {
	Success bool      `json:"success"`
	Error   ErrorInfo `json:"error"`
}

// =============================================================================
// MIDDLEWARE TESTS
// =============================================================================

func TestAuthMiddleware(t *testing.T) {
	env := setupTest(t, "secret", false)

	tests := []struct {
		name string
		key  string
		want int
	}{
		{"valid key", "secret", http.StatusOK},
		{"missing key", "", http.StatusUnauthorized},
		{"wrong key", "guess", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(makeRequest("GET", "/api/v1/locations", nil, tt.key))
			if rr.Code != tt.want {
				t.Errorf("Status = %d, want %d, body: %s", rr.Code, tt.want, rr.Body.String())
			}
		})
	}

	// Health stays public.
	if rr := env.do(makeRequest("GET", "/health", nil, "")); rr.Code != http.StatusOK {
		t.Errorf("health Status = %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	env := setupTest(t, "", false)

	rr := env.do(makeRequest("GET", "/health", nil, ""))
	if id := rr.Header().Get("X-Request-ID"); len(id) != 36 {
		t.Errorf("X-Request-ID = %q, want a UUID", id)
	}

	req := makeRequest("GET", "/health", nil, "")
	req.Header.Set("X-Request-ID", "client-7")
	if id := env.do(req).Header().Get("X-Request-ID"); id != "client-7" {
		t.Errorf("X-Request-ID = %q, want client-7", id)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := RecoveryMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, makeRequest("GET", "/x", nil, ""))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("Status = %d, want %d", rr.Code, http.StatusInternalServerError)
	}
}

func TestCORSPreflight(t *testing.T) {
	env := setupTest(t, "", false)
	rr := env.do(makeRequest("OPTIONS", "/api/v1/analyze", nil, ""))
	if rr.Code != http.StatusNoContent {
		t.Errorf("Status = %d, want %d", rr.Code, http.StatusNoContent)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q", got)
	}
}

// =============================================================================
// ENDPOINT TESTS
// =============================================================================

func TestHealthCheck(t *testing.T) {
	t.Run("json tables", func(t *testing.T) {
		env := setupTest(t, "", false)
		rr := env.do(makeRequest("GET", "/health", nil, ""))

		var resp struct {
			Success bool         `json:"success"`
			Data    healthStatus `json:"data"`
		}
		parseResponse(t, rr, &resp)
		if !resp.Success || resp.Data.Status != "healthy" || resp.Data.Source != config.SourceJSON {
			t.Errorf("health = %+v", resp)
		}
		if resp.Data.Tables.Days == 0 || resp.Data.Store != nil {
			t.Errorf("tables = %+v, store = %+v", resp.Data.Tables, resp.Data.Store)
		}
	})

	t.Run("sqlite store", func(t *testing.T) {
		env := setupTest(t, "", true)
		rr := env.do(makeRequest("GET", "/health", nil, ""))

		var resp struct {
			Data healthStatus `json:"data"`
		}
		parseResponse(t, rr, &resp)
		if resp.Data.Store == nil || resp.Data.Store.Days != resp.Data.Tables.Days {
			t.Fatalf("store = %+v, want %d days", resp.Data.Store, resp.Data.Tables.Days)
		}
		if resp.Data.Store.LastImport == nil || resp.Data.Store.LastImport.Source != "fixture" {
			t.Errorf("last import = %+v", resp.Data.Store.LastImport)
		}
	})

	t.Run("store without import", func(t *testing.T) {
		env := setupTest(t, "", true)
		if _, err := env.db.ExecContext(context.Background(), `DELETE FROM table_imports`); err != nil {
			t.Fatal(err)
		}
		rr := env.do(makeRequest("GET", "/health", nil, ""))
		if rr.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want %d", rr.Code, http.StatusServiceUnavailable)
		}
	})
}

func TestListLocations(t *testing.T) {
	env := setupTest(t, "", false)
	rr := env.do(makeRequest("GET", "/api/v1/locations", nil, ""))

	var resp struct {
		Data struct {
			Default   string                `json:"default"`
			Locations []correction.Location `json:"locations"`
		} `json:"data"`
	}
	parseResponse(t, rr, &resp)
	if resp.Data.Default == "" || len(resp.Data.Locations) == 0 {
		t.Errorf("locations = %+v", resp.Data)
	}
}

func TestAnalyze_Success(t *testing.T) {
	env := setupTest(t, "", false)

	body := map[string]any{
		"birth":               "1990-02-04 11:14",
		"gender":              "male",
		"location":            "Reference",
		"seasonal_correction": true,
		"as_of":               "2024-08-07",
	}
	rr := env.do(makeRequest("POST", "/api/v1/analyze", body, ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d, body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Chart struct {
				Year  string `json:"year"`
				Month string `json:"month"`
			} `json:"chart"`
			Luck struct {
				Forward  bool `json:"forward"`
				StartAge int  `json:"start_age"`
			} `json:"luck"`
			Current *struct {
				Age int `json:"age"`
			} `json:"current"`
		} `json:"data"`
	}
	parseResponse(t, rr, &resp)

	if !resp.Success {
		t.Error("Success = false, want true")
	}
	if resp.Data.Chart.Year != "庚午" || resp.Data.Chart.Month != "戊寅" {
		t.Errorf("chart = %+v, want 庚午 戊寅", resp.Data.Chart)
	}
	if !resp.Data.Luck.Forward || resp.Data.Luck.StartAge != 10 {
		t.Errorf("luck = %+v, want forward from 10", resp.Data.Luck)
	}
	if resp.Data.Current == nil || resp.Data.Current.Age != 35 {
		t.Errorf("current = %+v, want age 35", resp.Data.Current)
	}
}

func TestAnalyze_Errors(t *testing.T) {
	env := setupTest(t, "", false)

	tests := []struct {
		name     string
		body     any
		wantCode int
		wantKind string
	}{
		{"missing birth", map[string]any{"gender": "male"}, http.StatusBadRequest, engine.KindMalformedInput},
		{"missing gender", map[string]any{"birth": "1990-02-04 11:14"}, http.StatusBadRequest, engine.KindMalformedInput},
		{"bad gender", map[string]any{"birth": "1990-02-04 11:14", "gender": "x"}, http.StatusBadRequest, engine.KindMalformedInput},
		{"bad calendar", map[string]any{"birth": "1990-02-04 11:14", "gender": "f", "calendar": "julian"}, http.StatusBadRequest, engine.KindMalformedInput},
		{"bad as_of", map[string]any{"birth": "1990-02-04 11:14", "gender": "f", "as_of": "tomorrow"}, http.StatusBadRequest, engine.KindMalformedInput},
		{"unknown field", map[string]any{"birth": "1990-02-04 11:14", "gender": "f", "sex": "f"}, http.StatusBadRequest, engine.KindMalformedInput},
		{"unknown location", map[string]any{"birth": "1990-02-04 11:14", "gender": "f", "location": "Atlantis"}, http.StatusBadRequest, engine.KindMalformedInput},
		{"leap month absent", map[string]any{"birth": "2024-02-20 10:00", "gender": "f", "calendar": "lunar-leap"}, http.StatusNotFound, engine.KindInputDateNotFound},
		{"outside tables", map[string]any{"birth": "1995-06-01 10:00", "gender": "f"}, http.StatusUnprocessableEntity, engine.KindMissingCalendarRecord},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(makeRequest("POST", "/api/v1/analyze", tt.body, ""))
			if rr.Code != tt.wantCode {
				t.Errorf("Status = %d, want %d, body: %s", rr.Code, tt.wantCode, rr.Body.String())
			}
			var resp errorResponse
			parseResponse(t, rr, &resp)
			if resp.Success || resp.Error.Code != tt.wantKind {
				t.Errorf("error = %+v, want code %s", resp.Error, tt.wantKind)
			}
		})
	}
}

func TestAnnualCycle(t *testing.T) {
	env := setupTest(t, "", false)

	rr := env.do(makeRequest("GET", "/api/v1/cycles/annual?birth_year=1990&start_age=35&day_stem="+geng, nil, ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d, body: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Data []struct {
			Year   int    `json:"year"`
			Pillar string `json:"pillar"`
		} `json:"data"`
	}
	parseResponse(t, rr, &resp)
	if len(resp.Data) != 10 {
		t.Fatalf("entries = %d, want 10", len(resp.Data))
	}
	if first := resp.Data[0]; first.Year != 2024 || first.Pillar != "甲辰" {
		t.Errorf("first = %+v, want 2024 甲辰", first)
	}

	// Korean stem names work too.
	if rr := env.do(makeRequest("GET", "/api/v1/cycles/annual?birth_year=1990&day_stem="+url.QueryEscape("경"), nil, "")); rr.Code != http.StatusOK {
		t.Errorf("Korean stem Status = %d", rr.Code)
	}

	for _, q := range []string{"day_stem=" + geng, "birth_year=x&day_stem=" + geng, "birth_year=1990&day_stem=Z"} {
		if rr := env.do(makeRequest("GET", "/api/v1/cycles/annual?"+q, nil, "")); rr.Code != http.StatusBadRequest {
			t.Errorf("%s: Status = %d, want 400", q, rr.Code)
		}
	}
}

func TestMonthlyCycle(t *testing.T) {
	env := setupTest(t, "", false)

	rr := env.do(makeRequest("GET", "/api/v1/cycles/monthly?year=2024&day_stem="+geng, nil, ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d, body: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Data []struct {
			Pillar string `json:"pillar"`
		} `json:"data"`
	}
	parseResponse(t, rr, &resp)
	if len(resp.Data) != 12 || resp.Data[0].Pillar != "丙寅" {
		t.Errorf("entries = %d, first %v", len(resp.Data), resp.Data)
	}

	// 2026 needs the 丑 month term of 2027, which the tables lack.
	rr = env.do(makeRequest("GET", "/api/v1/cycles/monthly?year=2026&day_stem="+geng, nil, ""))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("Status = %d, want %d", rr.Code, http.StatusUnprocessableEntity)
	}
}

func TestMonthView(t *testing.T) {
	env := setupTest(t, "", false)

	rr := env.do(makeRequest("GET", "/api/v1/calendar/2024/8", nil, ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("Status = %d, body: %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Data struct {
			Weeks int `json:"weeks"`
			Days  []struct {
				Korean string `json:"korean"`
			} `json:"days"`
		} `json:"data"`
	}
	parseResponse(t, rr, &resp)
	if len(resp.Data.Days) != 31 || resp.Data.Weeks != 5 {
		t.Errorf("days = %d weeks = %d, want 31 and 5", len(resp.Data.Days), resp.Data.Weeks)
	}

	tests := []struct {
		path string
		want int
	}{
		{"/api/v1/calendar/2024/13", http.StatusBadRequest},
		{"/api/v1/calendar/abc/1", http.StatusBadRequest},
		{"/api/v1/calendar/1995/1", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		if rr := env.do(makeRequest("GET", tt.path, nil, "")); rr.Code != tt.want {
			t.Errorf("GET %s Status = %d, want %d", tt.path, rr.Code, tt.want)
		}
	}
}

func TestUnknownRoute(t *testing.T) {
	env := setupTest(t, "", false)

	rr := env.do(makeRequest("GET", "/api/v1/readings/today", nil, ""))
	if rr.Code != http.StatusNotFound {
		t.Errorf("Status = %d, want %d", rr.Code, http.StatusNotFound)
	}
	rr = env.do(makeRequest("GET", "/api/v1/analyze", nil, ""))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("Status = %d, want %d", rr.Code, http.StatusMethodNotAllowed)
	}
}
