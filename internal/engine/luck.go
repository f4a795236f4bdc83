package engine

import (
	"math"
	"time"

	"github.com/zapponejosh/saju-api/internal/ganzi"
)

// Gender selects the luck-cycle direction together with the year stem.
type Gender int

const (
	Male Gender = iota
	Female
)

func (g Gender) String() string {
	if g == Female {
		return "female"
	}
	return "male"
}

// ParseGender accepts m/male/남 and f/female/여.
func ParseGender(s string) (Gender, error) {
	switch s {
	case "m", "M", "male", "Male", "남", "남자":
		return Male, nil
	case "f", "F", "female", "Female", "여", "여자":
		return Female, nil
	}
	return Male, malformed("gender %q", s)
}

func (g Gender) MarshalText() ([]byte, error) { return []byte(g.String()), nil }

func (g *Gender) UnmarshalText(b []byte) error {
	v, err := ParseGender(string(b))
	if err != nil {
		return err
	}
	*g = v
	return nil
}

// daysPerYear converts days to the nearest term into the start age.
const daysPerYear = 3.0

// Luck scoring constants.
const (
	luckBase          = 50
	luckFavorable     = 15
	luckNourishing    = 5
	luckUnfavorable   = -10
	luckCombination   = 5
	luckStemClash     = -5
	luckBranchClash   = -10
	luckSoftenedClash = -4
)

// LuckPeriod is one decade of the luck cycle.
type LuckPeriod struct {
	Index      int          `json:"index"`
	StartAge   int          `json:"start_age"`
	EndAge     int          `json:"end_age"`
	Pillar     ganzi.Pillar `json:"pillar"`
	Korean     string       `json:"korean"`
	StemRole   Role         `json:"stem_role"`
	BranchRole Role         `json:"branch_role"`
	Score      int          `json:"score"`
}

// Luck is the decade sequence.
type Luck struct {
	Forward  bool `json:"forward"`
	StartAge int  `json:"start_age"`
	// DaysToTerm is the distance from birth to the term that fixes the
	// start age.
	DaysToTerm float64      `json:"days_to_term"`
	Periods    []LuckPeriod `json:"periods"`
}

// Current returns the period covering a Korean-reckoning age.
func (l Luck) Current(age int) (LuckPeriod, bool) {
	for _, p := range l.Periods {
		if age >= p.StartAge && age <= p.EndAge {
			return p, true
		}
	}
	return LuckPeriod{}, false
}

// forward reports the cycle direction: forward for a yang year with a male
// or a yin year with a female.
func forward(yearStem ganzi.Stem, g Gender) bool {
	yang := yearStem.Polarity() == ganzi.Yang
	return (g == Male && yang) || (g == Female && !yang)
}

// startAge converts the distance to the boundary term into an age, minimum 1.
func startAge(birth, term time.Time) (int, float64) {
	days := math.Abs(term.Sub(birth).Hours() / 24)
	age := int(math.Round(days / daysPerYear))
	if age < 1 {
		age = 1
	}
	return age, days
}

// buildLuck generates and scores the decades.
func buildLuck(c Chart, g Gender, res Resolution, birth time.Time, fav Favorable, periods int) (Luck, error) {
	if res.GoverningTerm == nil || res.NextTerm == nil {
		return Luck{}, missingTerm(birth)
	}
	l := Luck{Forward: forward(c.Year.Stem, g)}
	target := res.GoverningTerm.At
	step := -1
	if l.Forward {
		target = res.NextTerm.At
		step = 1
	}
	l.StartAge, l.DaysToTerm = startAge(birth, target)
	l.DaysToTerm = round1(l.DaysToTerm)

	self := c.Self()
	for i := 1; i <= periods; i++ {
		p := c.Month.Add(step * i)
		l.Periods = append(l.Periods, LuckPeriod{
			Index:      i,
			StartAge:   l.StartAge + (i-1)*10,
			EndAge:     l.StartAge + i*10 - 1,
			Pillar:     p,
			Korean:     p.Korean(),
			StemRole:   StemRole(self, p.Stem),
			BranchRole: BranchRole(self, p.Branch),
			Score:      scorePillar(c, p, fav),
		})
	}
	return l, nil
}

// elementScore rates one element against the favorable set.
func elementScore(e ganzi.Element, fav Favorable) int {
	switch {
	case fav.Contains(e):
		return luckFavorable
	case fav.Nourishes(e):
		return luckNourishing
	}
	return luckUnfavorable
}

// scorePillar scores a luck pillar against the natal chart, 0 to 100.
func scorePillar(c Chart, p ganzi.Pillar, fav Favorable) int {
	score := luckBase + elementScore(p.Stem.Element(), fav) + elementScore(p.Branch.Element(), fav)

	branchFavorable := fav.Contains(p.Branch.Element())
	for _, s := range c.Stems() {
		if _, ok := StemCombines(p.Stem, s); ok {
			score += luckCombination
		}
		if StemsClash(p.Stem, s) {
			score += luckStemClash
		}
	}
	for _, b := range c.Branches() {
		if BranchesCombine(p.Branch, b) {
			score += luckCombination
		}
		if BranchesClash(p.Branch, b) {
			if branchFavorable {
				score += luckSoftenedClash
			} else {
				score += luckBranchClash
			}
		}
	}
	return min(max(score, 0), 100)
}
