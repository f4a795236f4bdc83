package engine

import (
	"errors"
	"fmt"
	"strings"
)

// WeightScheme selects how the eight characters are weighted.
type WeightScheme int

const (
	// WeightAuto uses WeightPositional when seasonal correction is
	// requested and WeightUniform otherwise.
	WeightAuto WeightScheme = iota
	// WeightUniform gives each character 12.5%.
	WeightUniform
	// WeightPositional favors the month branch (season) and the day branch
	// (root).
	WeightPositional
)

func (w WeightScheme) String() string {
	switch w {
	case WeightUniform:
		return "uniform"
	case WeightPositional:
		return "positional"
	}
	return "auto"
}

// ParseWeightScheme accepts "auto", "uniform" and "positional".
func ParseWeightScheme(s string) (WeightScheme, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return WeightAuto, nil
	case "uniform":
		return WeightUniform, nil
	case "positional":
		return WeightPositional, nil
	}
	return WeightAuto, fmt.Errorf("%w: weight scheme %q", ErrMalformedInput, s)
}

func (w WeightScheme) MarshalText() ([]byte, error) { return []byte(w.String()), nil }

// TieBreak decides which month a birth exactly at a month-changing solar
// term belongs to.
type TieBreak int

const (
	// AtOrAfter puts a birth at the term instant in the new month.
	AtOrAfter TieBreak = iota
	// StrictlyAfter keeps a birth at the term instant in the old month.
	StrictlyAfter
)

func (t TieBreak) String() string {
	if t == StrictlyAfter {
		return "strictly-after"
	}
	return "at-or-after"
}

// ParseTieBreak accepts "at-or-after" and "strictly-after".
func ParseTieBreak(s string) (TieBreak, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "at-or-after":
		return AtOrAfter, nil
	case "strictly-after":
		return StrictlyAfter, nil
	}
	return AtOrAfter, fmt.Errorf("%w: tie break %q", ErrMalformedInput, s)
}

func (t TieBreak) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// Options tunes the engine. The zero value selects the defaults.
type Options struct {
	Weights  WeightScheme
	TieBreak TieBreak
	// LuckPeriods is the number of decades generated, 10 or 11.
	LuckPeriods int
	// CombinationShare is the fraction of a combined branch's weight moved
	// to the combination's element.
	CombinationShare float64
	// RootingBonus is added to a stem's element when it is rooted in a
	// branch's hidden stems (seasonal correction only).
	RootingBonus float64
	// StrongThreshold splits weak from strong charts.
	StrongThreshold float64
	// ConformLow and ConformHigh are the extreme bands where the chart
	// follows its dominant element.
	ConformLow  float64
	ConformHigh float64
}

// Defaults.
const (
	DefaultLuckPeriods      = 10
	DefaultCombinationShare = 0.5
	DefaultRootingBonus     = 2
	DefaultStrongThreshold  = 45
	DefaultConformLow       = 15
	DefaultConformHigh      = 85
)

func (o Options) withDefaults() Options {
	if o.LuckPeriods == 0 {
		o.LuckPeriods = DefaultLuckPeriods
	}
	if o.CombinationShare == 0 {
		o.CombinationShare = DefaultCombinationShare
	}
	if o.RootingBonus == 0 {
		o.RootingBonus = DefaultRootingBonus
	}
	if o.StrongThreshold == 0 {
		o.StrongThreshold = DefaultStrongThreshold
	}
	if o.ConformLow == 0 {
		o.ConformLow = DefaultConformLow
	}
	if o.ConformHigh == 0 {
		o.ConformHigh = DefaultConformHigh
	}
	return o
}

// Validate checks the options after defaults are applied.
func (o Options) Validate() error {
	o = o.withDefaults()
	var errs []error
	if o.Weights < WeightAuto || o.Weights > WeightPositional {
		errs = append(errs, fmt.Errorf("unknown weight scheme %d", int(o.Weights)))
	}
	if o.TieBreak != AtOrAfter && o.TieBreak != StrictlyAfter {
		errs = append(errs, fmt.Errorf("unknown tie break %d", int(o.TieBreak)))
	}
	if o.LuckPeriods < 1 || o.LuckPeriods > 12 {
		errs = append(errs, fmt.Errorf("luck periods must be between 1 and 12, got %d", o.LuckPeriods))
	}
	if o.CombinationShare < 0 || o.CombinationShare > 1 {
		errs = append(errs, fmt.Errorf("combination share must be within [0, 1], got %v", o.CombinationShare))
	}
	if o.RootingBonus < 0 || o.RootingBonus > 10 {
		errs = append(errs, fmt.Errorf("rooting bonus must be within [0, 10], got %v", o.RootingBonus))
	}
	if !(o.ConformLow < o.StrongThreshold && o.StrongThreshold < o.ConformHigh && o.ConformHigh <= 100) {
		errs = append(errs, fmt.Errorf("thresholds must satisfy conform-low < strong < conform-high <= 100"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrMalformedInput, errors.Join(errs...))
	}
	return nil
}
