// Package ganzi defines the closed enumerations of the sexagenary system:
// the five elements, polarity, the ten stems, the twelve branches and the
// sixty-pillar cycle built from them.
//
// Every value here is a small integer with an exhaustive lookup table, so
// rule tables elsewhere index arrays instead of matching strings.
package ganzi

import "fmt"

// Element is one of the five phases, ordered along the generating cycle:
// Wood produces Fire, Fire produces Earth, and so on back to Wood.
type Element uint8

const (
	Wood Element = iota
	Fire
	Earth
	Metal
	Water
)

// Elements lists all five elements in generating-cycle order.
var Elements = [5]Element{Wood, Fire, Earth, Metal, Water}

var elementNames = [5]string{"wood", "fire", "earth", "metal", "water"}
var elementHanja = [5]string{"木", "火", "土", "金", "水"}
var elementKorean = [5]string{"목", "화", "토", "금", "수"}

// Produces returns the element this one generates.
func (e Element) Produces() Element { return (e + 1) % 5 }

// ProducedBy returns the element that generates this one.
func (e Element) ProducedBy() Element { return (e + 4) % 5 }

// Overcomes returns the element this one controls.
func (e Element) Overcomes() Element { return (e + 2) % 5 }

// OvercomeBy returns the element that controls this one.
func (e Element) OvercomeBy() Element { return (e + 3) % 5 }

// Valid reports whether e is one of the five elements.
func (e Element) Valid() bool { return e < 5 }

func (e Element) String() string {
	if !e.Valid() {
		return fmt.Sprintf("Element(%d)", uint8(e))
	}
	return elementNames[e]
}

// Hanja returns the single-character form (木, 火, ...).
func (e Element) Hanja() string { return elementHanja[e%5] }

// Korean returns the Hangul reading (목, 화, ...).
func (e Element) Korean() string { return elementKorean[e%5] }

// ParseElement accepts the English name, the hanja or the Hangul reading.
func ParseElement(s string) (Element, error) {
	for i := range elementNames {
		if s == elementNames[i] || s == elementHanja[i] || s == elementKorean[i] {
			return Element(i), nil
		}
	}
	return 0, fmt.Errorf("unknown element %q", s)
}

func (e Element) MarshalText() ([]byte, error) { return []byte(e.String()), nil }

func (e *Element) UnmarshalText(b []byte) error {
	v, err := ParseElement(string(b))
	if err != nil {
		return err
	}
	*e = v
	return nil
}

// Relation is how one element stands toward a reference element.
type Relation uint8

const (
	// Peer: same element.
	Peer Relation = iota
	// Output: the reference produces it.
	Output
	// Wealth: the reference overcomes it.
	Wealth
	// Officer: it overcomes the reference.
	Officer
	// Resource: it produces the reference.
	Resource
)

var relationNames = [5]string{"peer", "output", "wealth", "officer", "resource"}

func (r Relation) String() string {
	if r > Resource {
		return fmt.Sprintf("Relation(%d)", uint8(r))
	}
	return relationNames[r]
}

func (r Relation) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// RelationTo returns how other stands toward the reference element self.
// The result is the distance along the generating cycle.
func RelationTo(self, other Element) Relation {
	return Relation((int(other) - int(self) + 5) % 5)
}

// Supports reports whether other strengthens self (peer or resource).
func Supports(self, other Element) bool {
	r := RelationTo(self, other)
	return r == Peer || r == Resource
}

// Polarity is yin or yang.
type Polarity uint8

const (
	Yang Polarity = iota
	Yin
)

func (p Polarity) String() string {
	if p == Yang {
		return "yang"
	}
	return "yin"
}

func (p Polarity) MarshalText() ([]byte, error) { return []byte(p.String()), nil }
