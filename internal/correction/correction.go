// Package correction holds the Correction Profile: historical clock eras,
// daylight-saving windows and named locations, plus the longitude and
// equation-of-time adjustments that turn a recorded wall-clock reading into
// local mean (or apparent) solar time on the UTC+9 reference clock.
//
// A profile is parsed once and read-only afterwards.
package correction

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed profile.yaml
var defaultProfile []byte

// timeLayout is the wall-clock layout used in profile documents.
const timeLayout = "2006-01-02 15:04"

var (
	// ErrInvalidProfile is returned when a profile document cannot be used.
	ErrInvalidProfile = errors.New("correction: invalid profile")
	// ErrUnknownLocation is returned for a location name not in the profile.
	ErrUnknownLocation = errors.New("correction: unknown location")
)

// Window is a half-open wall-clock interval [Start, End) with a fixed
// minute offset.
type Window struct {
	Name    string
	Start   time.Time
	End     time.Time
	Minutes int
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Location is a named place with its longitude in degrees east.
type Location struct {
	Name      string   `json:"name" yaml:"name"`
	Aliases   []string `json:"aliases,omitempty" yaml:"aliases"`
	Longitude float64  `json:"longitude" yaml:"longitude"`
}

// Profile is a parsed, validated correction profile.
type Profile struct {
	ReferenceMeridian float64
	DefaultLocation   string
	Eras              []Window
	DST               []Window
	Locations         []Location

	byName map[string]Location
}

// document is the YAML shape of a profile.
type document struct {
	ReferenceMeridian float64          `yaml:"reference_meridian"`
	DefaultLocation   string           `yaml:"default_location"`
	Eras              []windowDocument `yaml:"eras"`
	DST               []windowDocument `yaml:"dst"`
	Locations         []Location       `yaml:"locations"`
}

type windowDocument struct {
	Name    string `yaml:"name"`
	Start   string `yaml:"start"`
	End     string `yaml:"end"`
	Minutes int    `yaml:"minutes"`
}

// Default returns the embedded profile. It panics if the embedded document
// is broken, which the package tests rule out.
func Default() *Profile {
	p, err := Parse(defaultProfile)
	if err != nil {
		panic(err)
	}
	return p
}

// Load reads a profile document from path. An empty path yields the
// embedded default.
func Load(path string) (*Profile, error) {
	if path == "" {
		return Parse(defaultProfile)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read correction profile: %w", err)
	}
	return Parse(b)
}

// Parse decodes and validates a YAML profile document.
func Parse(b []byte) (*Profile, error) {
	var doc document
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}

	p := &Profile{
		ReferenceMeridian: doc.ReferenceMeridian,
		DefaultLocation:   doc.DefaultLocation,
		Locations:         doc.Locations,
	}
	var err error
	if p.Eras, err = parseWindows("eras", doc.Eras); err != nil {
		return nil, err
	}
	if p.DST, err = parseWindows("dst", doc.DST); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func parseWindows(kind string, docs []windowDocument) ([]Window, error) {
	out := make([]Window, 0, len(docs))
	for _, d := range docs {
		start, err := time.Parse(timeLayout, d.Start)
		if err != nil {
			return nil, fmt.Errorf("%w: %s %q start %q", ErrInvalidProfile, kind, d.Name, d.Start)
		}
		end, err := time.Parse(timeLayout, d.End)
		if err != nil {
			return nil, fmt.Errorf("%w: %s %q end %q", ErrInvalidProfile, kind, d.Name, d.End)
		}
		out = append(out, Window{Name: d.Name, Start: start, End: end, Minutes: d.Minutes})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

// Validate checks the profile and builds the location index. Windows of the
// same kind must not overlap; eras and DST windows may.
func (p *Profile) Validate() error {
	var errs []error

	if p.ReferenceMeridian < -180 || p.ReferenceMeridian > 180 {
		errs = append(errs, fmt.Errorf("reference meridian %v out of range", p.ReferenceMeridian))
	}
	for kind, list := range map[string][]Window{"eras": p.Eras, "dst": p.DST} {
		for i, w := range list {
			if !w.End.After(w.Start) {
				errs = append(errs, fmt.Errorf("%s %q: end is not after start", kind, w.Name))
			}
			if i > 0 && w.Start.Before(list[i-1].End) {
				errs = append(errs, fmt.Errorf("%s %q overlaps %q", kind, w.Name, list[i-1].Name))
			}
		}
	}

	p.byName = make(map[string]Location, len(p.Locations)*2)
	for _, loc := range p.Locations {
		if loc.Longitude < -180 || loc.Longitude > 180 {
			errs = append(errs, fmt.Errorf("location %q: longitude %v out of range", loc.Name, loc.Longitude))
		}
		own := make(map[string]bool, len(loc.Aliases)+1)
		for _, key := range append([]string{loc.Name}, loc.Aliases...) {
			k := strings.ToLower(strings.TrimSpace(key))
			// An alias repeating its own location's name is harmless.
			if own[k] {
				continue
			}
			own[k] = true
			if _, dup := p.byName[k]; dup {
				errs = append(errs, fmt.Errorf("location name %q is used twice", key))
				continue
			}
			p.byName[k] = loc
		}
	}
	if p.DefaultLocation != "" {
		if _, ok := p.byName[strings.ToLower(p.DefaultLocation)]; !ok {
			errs = append(errs, fmt.Errorf("default location %q is not listed", p.DefaultLocation))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidProfile, errors.Join(errs...))
	}
	return nil
}

// Location looks a place up by name or alias, case-insensitively. An empty
// name selects the profile's default location.
func (p *Profile) Location(name string) (Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = p.DefaultLocation
	}
	if loc, ok := p.byName[strings.ToLower(name)]; ok {
		return loc, nil
	}
	// "서울특별시, 대한민국" style inputs: try the part before the first comma.
	if i := strings.IndexByte(name, ','); i > 0 {
		if loc, ok := p.byName[strings.ToLower(strings.TrimSpace(name[:i]))]; ok {
			return loc, nil
		}
	}
	return Location{}, fmt.Errorf("%w: %q", ErrUnknownLocation, name)
}

// Historical returns the era and daylight-saving offsets, in minutes, that
// apply to the wall-clock reading t. Either is zero outside every window.
func (p *Profile) Historical(t time.Time) (era, dst int) {
	return lookup(p.Eras, t), lookup(p.DST, t)
}

// lookup finds the window containing t. Windows are sorted and disjoint.
func lookup(list []Window, t time.Time) int {
	i := sort.Search(len(list), func(i int) bool { return list[i].End.After(t) })
	if i < len(list) && list[i].Contains(t) {
		return list[i].Minutes
	}
	return 0
}

// LongitudeMinutes is the mean-solar-time offset of a meridian relative to
// the reference meridian, four minutes per degree, rounded.
func (p *Profile) LongitudeMinutes(longitude float64) int {
	return int(math.Round((longitude - p.ReferenceMeridian) * 4))
}

// EquationOfTime approximates apparent minus mean solar time, in whole
// minutes, for the day of year of t. The value stays within about ±17.
func EquationOfTime(t time.Time) int {
	n := float64(t.YearDay())
	b := (360.0 / 365.0) * (n - 81) * math.Pi / 180
	return int(math.Round(9.87*math.Sin(2*b) - 7.53*math.Cos(b) - 1.5*math.Sin(b)))
}
