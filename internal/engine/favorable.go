package engine

import (
	"github.com/zapponejosh/saju-api/internal/ganzi"
)

// Strategy is how the favorable set was chosen.
type Strategy string

const (
	// StrategySupport strengthens a weak day stem: peer and resource.
	StrategySupport Strategy = "support"
	// StrategyDrain weakens a strong day stem: output, wealth and officer.
	StrategyDrain Strategy = "drain"
	// StrategyConform follows the chart's dominant element.
	StrategyConform Strategy = "conform"
)

// Season is the seasonal band of the month branch.
type Season string

const (
	Spring Season = "spring"
	Summer Season = "summer"
	Autumn Season = "autumn"
	Winter Season = "winter"
)

// SeasonalNeed is the warming or cooling element the birth season calls for.
type SeasonalNeed struct {
	Season  Season        `json:"season"`
	Element ganzi.Element `json:"element"`
	Reason  string        `json:"reason"`
}

// Favorable is the favorable-element recommendation.
type Favorable struct {
	Strategy Strategy        `json:"strategy"`
	Elements []ganzi.Element `json:"elements"`
	// Present is Elements restricted to elements found in the chart.
	Present  []ganzi.Element `json:"present"`
	Seasonal SeasonalNeed    `json:"seasonal"`
}

// Contains reports whether e is in the theoretical favorable set.
func (f Favorable) Contains(e ganzi.Element) bool {
	for _, x := range f.Elements {
		if x == e {
			return true
		}
	}
	return false
}

// Nourishes reports whether e produces a favorable element.
func (f Favorable) Nourishes(e ganzi.Element) bool {
	return f.Contains(e.Produces())
}

// seasonOf maps a month branch to its season: 寅卯辰 spring, 巳午未 summer,
// 申酉戌 autumn, 亥子丑 winter.
func seasonOf(b ganzi.Branch) Season {
	switch b {
	case ganzi.BranchYin, ganzi.BranchMao, ganzi.BranchChen:
		return Spring
	case ganzi.BranchSi, ganzi.BranchWu, ganzi.BranchWei:
		return Summer
	case ganzi.BranchShen, ganzi.BranchYou, ganzi.BranchXu:
		return Autumn
	}
	return Winter
}

var seasonalNeeds = map[Season]SeasonalNeed{
	Spring: {Spring, ganzi.Fire, "spring chart still carries the late cold; fire warms it"},
	Summer: {Summer, ganzi.Water, "summer chart is hot and dry; water cools it"},
	Autumn: {Autumn, ganzi.Water, "autumn chart is hard and dry; water moistens it"},
	Winter: {Winter, ganzi.Fire, "winter chart is cold; fire warms it"},
}

// dominantElement returns the element with the most characters. Ties go to
// the larger weighted share, then to the earlier element.
func dominantElement(st Strength) ganzi.Element {
	best := st.Distribution[0]
	for _, d := range st.Distribution[1:] {
		if d.Count > best.Count || (d.Count == best.Count && d.Percent > best.Percent) {
			best = d
		}
	}
	return best.Element
}

// resolveFavorable chooses the favorable elements for a chart.
func resolveFavorable(c Chart, st Strength) Favorable {
	self := c.Self().Element()
	f := Favorable{Seasonal: seasonalNeeds[seasonOf(c.Month.Branch)]}

	switch {
	case st.Conforming:
		f.Strategy = StrategyConform
		f.Elements = []ganzi.Element{dominantElement(st)}
	case st.Strong:
		f.Strategy = StrategyDrain
		f.Elements = []ganzi.Element{self.Produces(), self.Overcomes(), self.OvercomeBy()}
	default:
		f.Strategy = StrategySupport
		f.Elements = []ganzi.Element{self, self.ProducedBy()}
	}

	f.Present = []ganzi.Element{}
	for _, e := range f.Elements {
		for _, d := range st.Distribution {
			if d.Element == e && d.Count > 0 {
				f.Present = append(f.Present, e)
				break
			}
		}
	}
	return f
}
