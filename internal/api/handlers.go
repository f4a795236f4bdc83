package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zapponejosh/saju-api/internal/calendar"
	"github.com/zapponejosh/saju-api/internal/database"
	"github.com/zapponejosh/saju-api/internal/engine"
	"github.com/zapponejosh/saju-api/internal/ganzi"
	"github.com/zapponejosh/saju-api/internal/logger"
	"github.com/zapponejosh/saju-api/internal/tables"
)

// maxBodyBytes caps the analyze request body.
const maxBodyBytes = 1 << 16

// Handlers contains all HTTP handlers and their dependencies.
type Handlers struct {
	eng    *engine.Engine
	tables *tables.Tables
	db     *database.DB // nil unless tables come from the SQLite store
	source string
	logger *slog.Logger
}

// NewHandlers creates a new Handlers instance. db may be nil.
func NewHandlers(eng *engine.Engine, tbls *tables.Tables, db *database.DB, source string, logger *slog.Logger) *Handlers {
	return &Handlers{
		eng:    eng,
		tables: tbls,
		db:     db,
		source: source,
		logger: logger,
	}
}

// writeEngineError maps an engine error onto the response envelope.
func (h *Handlers) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	kind := engine.Kind(err)
	status := statusFor(kind)
	if status == http.StatusInternalServerError {
		logger.Error(r.Context(), h.logger, "request failed", err, slog.String("path", r.URL.Path))
		WriteInternalError(w, "Internal server error")
		return
	}
	WriteError(w, status, err.Error(), kind)
}

// healthStatus is the GET /health payload.
type healthStatus struct {
	Status string               `json:"status"`
	Source string               `json:"source"`
	Tables tables.Stats         `json:"tables"`
	Store  *database.StoreStats `json:"store,omitempty"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	out := healthStatus{Status: "healthy", Source: h.source, Tables: h.tables.Stats()}

	if h.db != nil {
		ctx := r.Context()
		if err := h.db.Health(ctx); err != nil {
			h.logger.Warn("health check failed", slog.Any("error", err))
			WriteError(w, http.StatusServiceUnavailable, "Database unhealthy", "HEALTH_CHECK_FAILED")
			return
		}
		stats, err := h.db.Stats(ctx)
		if err != nil {
			h.logger.Warn("store stats failed", slog.Any("error", err))
		} else {
			out.Store = stats
		}
	}

	WriteSuccess(w, out)
}

// ListLocations handles GET /api/v1/locations
func (h *Handlers) ListLocations(w http.ResponseWriter, r *http.Request) {
	p := h.eng.Profile()
	WriteSuccess(w, map[string]any{
		"default":   p.DefaultLocation,
		"locations": p.Locations,
	})
}

// analyzeRequest is the POST /api/v1/analyze body.
type analyzeRequest struct {
	Birth                 string   `json:"birth"`
	Gender                string   `json:"gender"`
	Location              string   `json:"location"`
	Longitude             *float64 `json:"longitude"`
	Calendar              string   `json:"calendar"`
	BoundaryPolicy        string   `json:"boundary_policy"`
	CombinationCorrection bool     `json:"combination_correction"`
	SeasonalCorrection    bool     `json:"seasonal_correction"`
	ApparentSolarTime     bool     `json:"apparent_solar_time"`
	AsOf                  string   `json:"as_of"`
}

func (req analyzeRequest) input() (engine.Input, error) {
	in := engine.Input{
		Moment:                req.Birth,
		Location:              req.Location,
		Longitude:             req.Longitude,
		CombinationCorrection: req.CombinationCorrection,
		SeasonalCorrection:    req.SeasonalCorrection,
		ApparentSolarTime:     req.ApparentSolarTime,
	}
	if req.Birth == "" {
		return in, fmt.Errorf("%w: birth is required", engine.ErrMalformedInput)
	}
	if req.Gender == "" {
		return in, fmt.Errorf("%w: gender is required", engine.ErrMalformedInput)
	}

	var err error
	if in.Gender, err = engine.ParseGender(req.Gender); err != nil {
		return in, err
	}
	if in.Calendar, err = calendar.ParseType(req.Calendar); err != nil {
		return in, err
	}
	if in.BoundaryPolicy, err = calendar.ParseBoundaryPolicy(req.BoundaryPolicy); err != nil {
		return in, err
	}
	if req.AsOf != "" {
		if in.AsOf, err = time.Parse("2006-01-02", req.AsOf); err != nil {
			return in, fmt.Errorf("%w: as_of %q, use YYYY-MM-DD", engine.ErrMalformedInput, req.AsOf)
		}
	}
	return in, nil
}

// Analyze handles POST /api/v1/analyze
func (h *Handlers) Analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON body: "+err.Error())
		return
	}

	in, err := req.input()
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}

	res, err := h.eng.Analyze(in)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}

	WriteSuccess(w, res)
}

// queryInt reads a required integer query parameter.
func queryInt(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, fmt.Errorf("%w: %s is required", engine.ErrMalformedInput, name)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", engine.ErrMalformedInput, name, v)
	}
	return n, nil
}

func queryStem(r *http.Request) (ganzi.Stem, error) {
	s, err := ganzi.ParseStem(r.URL.Query().Get("day_stem"))
	if err != nil {
		return 0, fmt.Errorf("%w: day_stem: %v", engine.ErrMalformedInput, err)
	}
	return s, nil
}

// AnnualCycle handles GET /api/v1/cycles/annual?birth_year=&start_age=&day_stem=
func (h *Handlers) AnnualCycle(w http.ResponseWriter, r *http.Request) {
	birthYear, err := queryInt(r, "birth_year")
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	startAge := 1
	if r.URL.Query().Get("start_age") != "" {
		if startAge, err = queryInt(r, "start_age"); err != nil {
			h.writeEngineError(w, r, err)
			return
		}
	}
	stem, err := queryStem(r)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}

	entries, err := h.eng.AnnualCycle(birthYear, startAge, stem)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	WriteSuccess(w, entries)
}

// MonthlyCycle handles GET /api/v1/cycles/monthly?year=&day_stem=
func (h *Handlers) MonthlyCycle(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r, "year")
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	stem, err := queryStem(r)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}

	entries, err := h.eng.MonthlyCycle(year, stem)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	WriteSuccess(w, entries)
}

// MonthView handles GET /api/v1/calendar/{year}/{month}
func (h *Handlers) MonthView(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid year: %s", chi.URLParam(r, "year")))
		return
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid month: %s", chi.URLParam(r, "month")))
		return
	}

	view, err := h.eng.MonthView(year, month)
	if err != nil {
		h.writeEngineError(w, r, err)
		return
	}
	WriteSuccess(w, view)
}
