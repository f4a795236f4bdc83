// Package calendar turns a raw birth input into a corrected civil moment.
//
// Normalization runs in a fixed order: parse the wall-clock reading,
// convert a lunar date to its civil date, add the historical clock offsets
// (standard-meridian eras and daylight-saving windows), then the longitude
// and optional equation-of-time adjustments. The result also classifies the
// corrected hour around civil midnight so the resolver can apply the
// caller's boundary-hour policy.
package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zapponejosh/saju-api/internal/correction"
	"github.com/zapponejosh/saju-api/internal/tables"
)

var (
	// ErrMalformedInput is returned for an unparsable birth moment or an
	// out-of-domain parameter.
	ErrMalformedInput = errors.New("malformed input")
	// ErrInputDateNotFound is returned when a lunar date has no civil match.
	ErrInputDateNotFound = errors.New("input date not found")
)

// ============================================================================
// Calendar type
// ============================================================================

// Type is the calendar convention of the input date.
type Type int

const (
	Solar Type = iota
	Lunar
	LunarLeap
)

var typeNames = [...]string{"solar", "lunar", "lunar-leap"}

func (c Type) String() string {
	if c < 0 || int(c) >= len(typeNames) {
		return fmt.Sprintf("Type(%d)", int(c))
	}
	return typeNames[c]
}

// ParseType accepts the English names and the Korean 양력/음력/윤달.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "solar", "양력":
		return Solar, nil
	case "lunar", "음력":
		return Lunar, nil
	case "lunar-leap", "leap", "윤달", "음력윤달":
		return LunarLeap, nil
	}
	return Solar, fmt.Errorf("%w: calendar type %q", ErrMalformedInput, s)
}

func (c Type) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Type) UnmarshalText(b []byte) error {
	v, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ============================================================================
// Boundary hour
// ============================================================================

// BoundaryPolicy decides which civil day a late-boundary-hour birth
// (23:00-24:00) takes its day pillar from.
type BoundaryPolicy int

const (
	// KeepDay keeps the current civil day's day pillar.
	KeepDay BoundaryPolicy = iota
	// RollDay takes the day pillar from the next civil day.
	RollDay
)

func (p BoundaryPolicy) String() string {
	if p == RollDay {
		return "roll-day"
	}
	return "keep-day"
}

// ParseBoundaryPolicy accepts "keep-day" and "roll-day".
func ParseBoundaryPolicy(s string) (BoundaryPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "keep-day", "keep":
		return KeepDay, nil
	case "roll-day", "roll":
		return RollDay, nil
	}
	return KeepDay, fmt.Errorf("%w: boundary policy %q", ErrMalformedInput, s)
}

func (p BoundaryPolicy) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *BoundaryPolicy) UnmarshalText(b []byte) error {
	v, err := ParseBoundaryPolicy(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// HourClass marks the two clock hours around civil midnight.
type HourClass int

const (
	Normal HourClass = iota
	LateBoundary
	EarlyBoundary
)

func (h HourClass) String() string {
	switch h {
	case LateBoundary:
		return "late-boundary-hour"
	case EarlyBoundary:
		return "early-boundary-hour"
	}
	return "normal"
}

func (h HourClass) MarshalText() ([]byte, error) { return []byte(h.String()), nil }

// ClassifyHour classifies the clock hour of t.
func ClassifyHour(t time.Time) HourClass {
	switch t.Hour() {
	case 23:
		return LateBoundary
	case 0:
		return EarlyBoundary
	}
	return Normal
}

// ============================================================================
// Normalizer
// ============================================================================

// Request is the raw birth input.
type Request struct {
	Moment   string
	Calendar Type
	// Location is a profile location name or alias; empty selects the
	// profile default. Ignored when Longitude is set.
	Location  string
	Longitude *float64
	// ApparentSolarTime adds the equation-of-time adjustment.
	ApparentSolarTime bool
	Policy            BoundaryPolicy
}

// Corrections lists each applied adjustment in minutes.
type Corrections struct {
	Era            int `json:"era_minutes"`
	DST            int `json:"dst_minutes"`
	Longitude      int `json:"longitude_minutes"`
	EquationOfTime int `json:"equation_of_time_minutes"`
}

// Total is the sum of all adjustments.
func (c Corrections) Total() int { return c.Era + c.DST + c.Longitude + c.EquationOfTime }

// Moment is a normalized birth moment. All times are wall-clock values.
type Moment struct {
	// Recorded is the civil reading as given, after lunar conversion.
	Recorded time.Time `json:"recorded"`
	// Standard is Recorded on the UTC+9 standard clock.
	Standard time.Time `json:"standard"`
	// Corrected is local solar time; it drives table lookup and the hour.
	Corrected   time.Time           `json:"corrected"`
	Corrections Corrections         `json:"corrections"`
	Location    correction.Location `json:"location"`
	Calendar    Type                `json:"calendar"`
	Lunar       *tables.LunarDate   `json:"lunar,omitempty"`
	Hour        HourClass           `json:"hour_class"`
	Policy      BoundaryPolicy      `json:"boundary_policy"`
}

// DayDate is the civil date whose record supplies the day pillar.
func (m *Moment) DayDate() time.Time {
	d := tables.Midnight(m.Corrected)
	if m.Hour == LateBoundary && m.Policy == RollDay {
		return d.AddDate(0, 0, 1)
	}
	return d
}

// LunarFinder reverse-searches calendar records by lunar date.
type LunarFinder interface {
	FindLunar(tables.LunarDate) (tables.CalendarRecord, bool)
}

// Normalizer applies the correction chain. It is safe for concurrent use.
type Normalizer struct {
	lunar   LunarFinder
	profile *correction.Profile
}

// NewNormalizer creates a normalizer over the given tables and profile.
func NewNormalizer(lunar LunarFinder, profile *correction.Profile) *Normalizer {
	return &Normalizer{lunar: lunar, profile: profile}
}

// Normalize parses and corrects req.
func (n *Normalizer) Normalize(req Request) (*Moment, error) {
	f, err := ParseMoment(req.Moment)
	if err != nil {
		return nil, err
	}

	m := &Moment{Calendar: req.Calendar, Policy: req.Policy}
	switch req.Calendar {
	case Solar:
		if m.Recorded, err = f.Solar(); err != nil {
			return nil, err
		}
	case Lunar, LunarLeap:
		ld := tables.LunarDate{Year: f.Year, Month: f.Month, Day: f.Day, Leap: req.Calendar == LunarLeap}
		if ld.Day > 30 {
			return nil, fmt.Errorf("%w: lunar day %d", ErrMalformedInput, ld.Day)
		}
		rec, ok := n.lunar.FindLunar(ld)
		if !ok {
			return nil, fmt.Errorf("%w: lunar %s", ErrInputDateNotFound, formatLunar(ld))
		}
		m.Lunar = &ld
		m.Recorded = rec.Date.Add(time.Duration(f.Hour)*time.Hour + time.Duration(f.Minute)*time.Minute)
	default:
		return nil, fmt.Errorf("%w: calendar type %d", ErrMalformedInput, int(req.Calendar))
	}
	if req.Policy != KeepDay && req.Policy != RollDay {
		return nil, fmt.Errorf("%w: boundary policy %d", ErrMalformedInput, int(req.Policy))
	}

	if req.Longitude != nil {
		if *req.Longitude < -180 || *req.Longitude > 180 {
			return nil, fmt.Errorf("%w: longitude %v", ErrMalformedInput, *req.Longitude)
		}
		m.Location = correction.Location{Name: "custom", Longitude: *req.Longitude}
	} else {
		loc, err := n.profile.Location(req.Location)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedInput, err)
		}
		m.Location = loc
	}

	m.Corrections.Era, m.Corrections.DST = n.profile.Historical(m.Recorded)
	m.Standard = m.Recorded.Add(time.Duration(m.Corrections.Era+m.Corrections.DST) * time.Minute)
	m.Corrections.Longitude = n.profile.LongitudeMinutes(m.Location.Longitude)
	if req.ApparentSolarTime {
		m.Corrections.EquationOfTime = correction.EquationOfTime(m.Standard)
	}
	m.Corrected = m.Recorded.Add(time.Duration(m.Corrections.Total()) * time.Minute)
	m.Hour = ClassifyHour(m.Corrected)
	return m, nil
}

func formatLunar(ld tables.LunarDate) string {
	s := fmt.Sprintf("%04d-%02d-%02d", ld.Year, ld.Month, ld.Day)
	if ld.Leap {
		s += " (leap month)"
	}
	return s
}
