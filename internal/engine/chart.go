package engine

import (
	"fmt"

	"github.com/zapponejosh/saju-api/internal/ganzi"
)

// Position is one of the four pillar positions.
type Position int

const (
	YearPos Position = iota
	MonthPos
	DayPos
	HourPos
)

// Positions lists the four positions in chart order.
var Positions = [4]Position{YearPos, MonthPos, DayPos, HourPos}

var positionNames = [4]string{"year", "month", "day", "hour"}
var positionKorean = [4]string{"년", "월", "일", "시"}

func (p Position) String() string {
	if p < 0 || p > HourPos {
		return fmt.Sprintf("Position(%d)", int(p))
	}
	return positionNames[p]
}

// Korean returns the one-character Korean label (년, 월, 일, 시).
func (p Position) Korean() string { return positionKorean[p&3] }

func (p Position) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// Slot addresses one of the eight characters: the stem and branch of each
// position, in chart order (year stem first, hour branch last).
type Slot int

// SelfSlot is the day stem.
const SelfSlot Slot = 4

// Position returns the slot's pillar position.
func (s Slot) Position() Position { return Position(s / 2) }

// IsStem reports whether the slot holds a stem.
func (s Slot) IsStem() bool { return s%2 == 0 }

// Chart is the four resolved pillars.
type Chart struct {
	Year  ganzi.Pillar `json:"year"`
	Month ganzi.Pillar `json:"month"`
	Day   ganzi.Pillar `json:"day"`
	Hour  ganzi.Pillar `json:"hour"`
}

// Pillars returns the pillars in chart order.
func (c Chart) Pillars() [4]ganzi.Pillar {
	return [4]ganzi.Pillar{c.Year, c.Month, c.Day, c.Hour}
}

// At returns the pillar at position p.
func (c Chart) At(p Position) ganzi.Pillar { return c.Pillars()[p&3] }

// Self is the day stem, the reference for every relational computation.
func (c Chart) Self() ganzi.Stem { return c.Day.Stem }

// Stems returns the four stems in chart order.
func (c Chart) Stems() [4]ganzi.Stem {
	return [4]ganzi.Stem{c.Year.Stem, c.Month.Stem, c.Day.Stem, c.Hour.Stem}
}

// Branches returns the four branches in chart order.
func (c Chart) Branches() [4]ganzi.Branch {
	return [4]ganzi.Branch{c.Year.Branch, c.Month.Branch, c.Day.Branch, c.Hour.Branch}
}

// Element returns the element of the character in slot s.
func (c Chart) Element(s Slot) ganzi.Element {
	p := c.At(s.Position())
	if s.IsStem() {
		return p.Stem.Element()
	}
	return p.Branch.Element()
}

// Polarity returns the polarity of the character in slot s. A branch takes
// the polarity of its main hidden stem.
func (c Chart) Polarity(s Slot) ganzi.Polarity {
	p := c.At(s.Position())
	if s.IsStem() {
		return p.Stem.Polarity()
	}
	return p.Branch.Main().Polarity()
}

// Label returns the character in slot s as a one-character string.
func (c Chart) Label(s Slot) string {
	p := c.At(s.Position())
	if s.IsStem() {
		return p.Stem.String()
	}
	return p.Branch.String()
}

func (c Chart) String() string {
	return c.Year.String() + " " + c.Month.String() + " " + c.Day.String() + " " + c.Hour.String()
}
