package ganzi

import (
	"errors"
	"fmt"
)

// CycleLength is the length of the sexagenary cycle.
const CycleLength = 60

// ErrMismatchedPolarity is returned for a stem/branch pair that never
// occurs in the cycle (a yang stem with a yin branch or vice versa).
var ErrMismatchedPolarity = errors.New("ganzi: stem and branch polarity differ")

// Pillar is a stem/branch pair. Only the sixty pairs with matching
// polarity are valid.
type Pillar struct {
	Stem   Stem
	Branch Branch
}

// FromIndex returns the pillar at position i of the cycle. Any integer is
// accepted and reduced modulo 60.
func FromIndex(i int) Pillar {
	i = ((i % CycleLength) + CycleLength) % CycleLength
	return Pillar{Stem: Stem(i % 10), Branch: Branch(i % 12)}
}

// Index returns the pillar's position 0-59 in the cycle, or -1 when the
// pair is not part of the cycle.
func (p Pillar) Index() int {
	if !p.Stem.Valid() || !p.Branch.Valid() || p.Stem.Polarity() != p.Branch.Polarity() {
		return -1
	}
	// i ≡ s (mod 10) and i ≡ b (mod 12) solve to i ≡ 6s - 5b (mod 60).
	i := (6*int(p.Stem) - 5*int(p.Branch)) % CycleLength
	if i < 0 {
		i += CycleLength
	}
	return i
}

// Valid reports whether the pair belongs to the cycle.
func (p Pillar) Valid() bool { return p.Index() >= 0 }

// Add steps n positions along the cycle (negative n steps backward).
func (p Pillar) Add(n int) Pillar { return FromIndex(p.Index() + n) }

// VoidBranches returns the two branches left without a stem in the
// ten-pillar block that contains p.
func (p Pillar) VoidBranches() [2]Branch {
	start := p.Index() - p.Index()%10
	return [2]Branch{Branch((start + 10) % 12), Branch((start + 11) % 12)}
}

func (p Pillar) String() string { return p.Stem.String() + p.Branch.String() }

// Korean returns the Hangul reading, e.g. 갑자.
func (p Pillar) Korean() string { return p.Stem.Korean() + p.Branch.Korean() }

// ParsePillar parses a two-character code such as "甲子" or "갑자".
func ParsePillar(code string) (Pillar, error) {
	r := []rune(code)
	if len(r) != 2 {
		return Pillar{}, fmt.Errorf("pillar code %q: want two characters", code)
	}
	s, err := ParseStem(string(r[0]))
	if err != nil {
		return Pillar{}, fmt.Errorf("pillar code %q: %w", code, err)
	}
	b, err := ParseBranch(string(r[1]))
	if err != nil {
		return Pillar{}, fmt.Errorf("pillar code %q: %w", code, err)
	}
	p := Pillar{Stem: s, Branch: b}
	if !p.Valid() {
		return Pillar{}, fmt.Errorf("pillar code %q: %w", code, ErrMismatchedPolarity)
	}
	return p, nil
}

// MustPillar is ParsePillar for package-level tables and tests.
func MustPillar(code string) Pillar {
	p, err := ParsePillar(code)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Pillar) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Pillar) UnmarshalText(b []byte) error {
	v, err := ParsePillar(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// YearPillar returns the pillar of a sexagenary year (the year that starts
// at Spring Begins). 1984 is 甲子.
func YearPillar(year int) Pillar { return FromIndex(year - 4) }

// MonthPillar returns the pillar of month m (1 = the 寅 month that starts at
// Spring Begins, 12 = the 丑 month) in a year whose stem is yearStem.
func MonthPillar(yearStem Stem, m int) Pillar {
	start := (int(yearStem)%5)*2 + 2
	return Pillar{
		Stem:   Stem((start + m - 1) % 10),
		Branch: Branch((m + 1) % 12),
	}
}

// HourStemStart returns the stem of the 子 hour for a day with stem dayStem.
func HourStemStart(dayStem Stem) Stem {
	return Stem((int(dayStem) % 5) * 2)
}
