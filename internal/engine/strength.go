package engine

import (
	"math"

	"github.com/zapponejosh/saju-api/internal/ganzi"
)

// positionalWeights are the slot weights of WeightPositional: the month
// branch carries the season, the day branch the root. Slot 4 is the self
// weight.
var positionalWeights = [8]float64{10, 10, 10, 30, 10, 15, 15, 10}

// slotWeights returns the eight slot weights for a resolved scheme.
func slotWeights(scheme WeightScheme) [8]float64 {
	if scheme == WeightPositional {
		return positionalWeights
	}
	var w [8]float64
	for i := range w {
		w[i] = 12.5
	}
	return w
}

// resolveScheme picks the concrete scheme for a request.
func resolveScheme(scheme WeightScheme, seasonal bool) WeightScheme {
	if scheme != WeightAuto {
		return scheme
	}
	if seasonal {
		return WeightPositional
	}
	return WeightUniform
}

// StrengthStatus labels the strength index.
type StrengthStatus int

const (
	StatusWeak StrengthStatus = iota
	StatusBalanced
	StatusStrong
	StatusConformingWeak
	StatusConformingStrong
)

var strengthNames = [...]string{"신약", "중화", "신강", "종약", "종강"}
var strengthKeys = [...]string{"weak", "balanced", "strong", "conforming-weak", "conforming-strong"}

// String returns the Korean label.
func (s StrengthStatus) String() string { return strengthNames[s] }

func (s StrengthStatus) MarshalText() ([]byte, error) { return []byte(strengthKeys[s]), nil }

// balancedBand is the half-width of the balanced label around the strong
// threshold.
const balancedBand = 5

// ElementShare is one element's part of the chart.
type ElementShare struct {
	Element ganzi.Element `json:"element"`
	Percent float64       `json:"percent"`
	Count   int           `json:"count"`
}

// Combination records weight moved by a branch group.
type Combination struct {
	Kind      RelationKind  `json:"kind"`
	Branches  string        `json:"branches"`
	Element   ganzi.Element `json:"element"`
	Positions []Position    `json:"positions"`
}

// Strength is the elemental balance of a chart.
type Strength struct {
	Scheme       WeightScheme   `json:"scheme"`
	Index        float64        `json:"index"`
	Strong       bool           `json:"strong"`
	Conforming   bool           `json:"conforming"`
	Status       StrengthStatus `json:"status"`
	Distribution []ElementShare `json:"distribution"`
	Combinations []Combination  `json:"combinations,omitempty"`
	// Rooted lists the positions whose stem is rooted in a natal branch.
	Rooted []Position `json:"rooted,omitempty"`
}

// Share returns the percentage of element e.
func (s Strength) Share(e ganzi.Element) float64 {
	for _, d := range s.Distribution {
		if d.Element == e {
			return d.Percent
		}
	}
	return 0
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

// measureStrength computes the distribution and strength index.
func measureStrength(c Chart, opts Options, scheme WeightScheme, combine, seasonal bool) Strength {
	w := slotWeights(scheme)
	var byElem [5]float64
	var count [5]int
	for s := Slot(0); s < 8; s++ {
		e := c.Element(s)
		byElem[e] += w[s]
		count[e]++
	}

	st := Strength{Scheme: scheme}

	if combine {
		moved := [4]bool{}
		for _, g := range findGroups(c.Branches()) {
			comb := Combination{Kind: g.kind, Branches: g.group.label(), Element: g.group.element}
			for _, p := range g.positions {
				comb.Positions = append(comb.Positions, p)
				if moved[p] {
					continue
				}
				moved[p] = true
				slot := Slot(2*int(p) + 1)
				share := w[slot] * opts.CombinationShare
				byElem[c.Element(slot)] -= share
				byElem[g.group.element] += share
			}
			st.Combinations = append(st.Combinations, comb)
		}
	}

	if seasonal {
		branches := c.Branches()
		for _, p := range Positions {
			e := c.At(p).Stem.Element()
			for _, b := range branches {
				if b.HasHiddenElement(e) {
					byElem[e] += opts.RootingBonus
					st.Rooted = append(st.Rooted, p)
					break
				}
			}
		}
	}

	var total, support float64
	self := c.Self().Element()
	for _, e := range ganzi.Elements {
		total += byElem[e]
		if ganzi.Supports(self, e) {
			support += byElem[e]
		}
	}
	for _, e := range ganzi.Elements {
		st.Distribution = append(st.Distribution, ElementShare{
			Element: e,
			Percent: round1(byElem[e] / total * 100),
			Count:   count[e],
		})
	}

	idx := support / total * 100
	st.Index = round1(idx)
	st.Strong = idx > opts.StrongThreshold
	st.Conforming = idx <= opts.ConformLow || idx >= opts.ConformHigh
	switch {
	case idx >= opts.ConformHigh:
		st.Status = StatusConformingStrong
	case idx <= opts.ConformLow:
		st.Status = StatusConformingWeak
	case math.Abs(idx-opts.StrongThreshold) <= balancedBand:
		st.Status = StatusBalanced
	case st.Strong:
		st.Status = StatusStrong
	default:
		st.Status = StatusWeak
	}
	return st
}
