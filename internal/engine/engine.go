// Package engine builds a four-pillar chart from a birth moment and derives
// its diagnostics: elemental strength, ten roles, markers, favorable
// elements, the luck cycle and the interactions among the eight characters.
//
// An Engine holds only immutable state (the lookup tables, the correction
// profile and the options), so Analyze and the cycle queries are pure and
// safe for concurrent use. Nothing here reads the clock, logs or touches the
// disk.
//
// Basic usage:
//
//	eng, err := engine.New(tbls, correction.Default(), engine.Options{})
//	res, err := eng.Analyze(engine.Input{Moment: "1990-02-04 11:14", Gender: engine.Male})
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/zapponejosh/saju-api/internal/calendar"
	"github.com/zapponejosh/saju-api/internal/correction"
	"github.com/zapponejosh/saju-api/internal/ganzi"
	"github.com/zapponejosh/saju-api/internal/tables"
)

// Engine analyzes birth moments against loaded tables.
type Engine struct {
	tables  *tables.Tables
	profile *correction.Profile
	norm    *calendar.Normalizer
	res     resolver
	opts    Options
}

// New creates an engine. A nil profile selects the embedded default.
func New(tbls *tables.Tables, profile *correction.Profile, opts Options) (*Engine, error) {
	if tbls == nil {
		return nil, errors.New("engine: nil tables")
	}
	if profile == nil {
		profile = correction.Default()
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()
	return &Engine{
		tables:  tbls,
		profile: profile,
		norm:    calendar.NewNormalizer(tbls, profile),
		res:     resolver{tbl: tbls, tie: opts.TieBreak},
		opts:    opts,
	}, nil
}

// Options returns the effective options, defaults applied.
func (e *Engine) Options() Options { return e.opts }

// Profile returns the correction profile in use.
func (e *Engine) Profile() *correction.Profile { return e.profile }

// Input is one analysis request.
type Input struct {
	// Moment is the birth wall-clock reading, "YYYY-MM-DD HH:MM".
	Moment   string
	Gender   Gender
	Location string
	// Longitude overrides Location when set.
	Longitude             *float64
	Calendar              calendar.Type
	BoundaryPolicy        calendar.BoundaryPolicy
	CombinationCorrection bool
	SeasonalCorrection    bool
	// ApparentSolarTime adds the equation-of-time correction.
	ApparentSolarTime bool
	// AsOf, when set, adds the current trace for that date.
	AsOf time.Time
}

// CurrentTrace places a date within the person's timeline.
type CurrentTrace struct {
	Date time.Time `json:"date"`
	// Age counts one at birth and one more every civil new year.
	Age  int         `json:"age"`
	Luck *LuckPeriod `json:"luck,omitempty"`
	// Today holds the year, month and day pillars of Date when the tables
	// cover it.
	Today *tables.CalendarRecord `json:"today,omitempty"`
}

// AnalysisResult is the full diagnostic output. It is built once per call
// and never mutated.
type AnalysisResult struct {
	Birth        string          `json:"birth"`
	Gender       Gender          `json:"gender"`
	Moment       calendar.Moment `json:"moment"`
	Chart        Chart           `json:"chart"`
	Resolution   Resolution      `json:"resolution"`
	Self         ganzi.Stem      `json:"self"`
	SelfElement  ganzi.Element   `json:"self_element"`
	Pillars      [4]PillarReport `json:"pillars"`
	Strength     Strength        `json:"strength"`
	Roles        []RoleShare     `json:"roles"`
	Favorable    Favorable       `json:"favorable"`
	Luck         Luck            `json:"luck"`
	Interactions []Interaction   `json:"interactions"`
	Current      *CurrentTrace   `json:"current,omitempty"`
}

// Analyze runs the whole pipeline for one birth input.
func (e *Engine) Analyze(in Input) (*AnalysisResult, error) {
	if in.Gender != Male && in.Gender != Female {
		return nil, malformed("gender %d", int(in.Gender))
	}

	m, err := e.norm.Normalize(calendar.Request{
		Moment:            in.Moment,
		Calendar:          in.Calendar,
		Location:          in.Location,
		Longitude:         in.Longitude,
		ApparentSolarTime: in.ApparentSolarTime,
		Policy:            in.BoundaryPolicy,
	})
	if err != nil {
		return nil, err
	}

	chart, res, err := e.res.resolve(m)
	if err != nil {
		return nil, err
	}

	scheme := resolveScheme(e.opts.Weights, in.SeasonalCorrection)
	st := measureStrength(chart, e.opts, scheme, in.CombinationCorrection, in.SeasonalCorrection)
	fav := resolveFavorable(chart, st)

	luck, err := buildLuck(chart, in.Gender, res, m.Standard, fav, e.opts.LuckPeriods)
	if err != nil {
		return nil, err
	}

	out := &AnalysisResult{
		Birth:        in.Moment,
		Gender:       in.Gender,
		Moment:       *m,
		Chart:        chart,
		Resolution:   res,
		Self:         chart.Self(),
		SelfElement:  chart.Self().Element(),
		Pillars:      reportPillars(chart),
		Strength:     st,
		Roles:        roleDistribution(chart, scheme),
		Favorable:    fav,
		Luck:         luck,
		Interactions: detectInteractions(chart),
	}
	if !in.AsOf.IsZero() {
		out.Current = e.trace(m.Recorded.Year(), in.AsOf, luck)
	}
	return out, nil
}

func (e *Engine) trace(birthYear int, asOf time.Time, luck Luck) *CurrentTrace {
	asOf = tables.Midnight(asOf)
	t := &CurrentTrace{Date: asOf, Age: calendar.KoreanAge(birthYear, asOf)}
	if p, ok := luck.Current(t.Age); ok {
		t.Luck = &p
	}
	if rec, ok := e.tables.Day(asOf); ok {
		t.Today = &rec
	}
	return t
}

// String summarizes the result on one line.
func (r *AnalysisResult) String() string {
	return fmt.Sprintf("%s %s strength=%.1f (%s) luck from %d",
		r.Chart, r.Self.Korean(), r.Strength.Index, r.Strength.Status, r.Luck.StartAge)
}
