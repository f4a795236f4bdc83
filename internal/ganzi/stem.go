package ganzi

import (
	"fmt"
	"strings"
)

// Stem is one of the ten heavenly stems, 甲 (0) through 癸 (9).
type Stem uint8

const (
	StemJia Stem = iota
	StemYi
	StemBing
	StemDing
	StemWu
	StemJi
	StemGeng
	StemXin
	StemRen
	StemGui
)

const stemHanja = "甲乙丙丁戊己庚辛壬癸"

var stemRunes = []rune(stemHanja)
var stemKorean = [10]string{"갑", "을", "병", "정", "무", "기", "경", "신", "임", "계"}

// Valid reports whether s is one of the ten stems.
func (s Stem) Valid() bool { return s < 10 }

// Element returns the stem's phase: two consecutive stems per element.
func (s Stem) Element() Element { return Element(s / 2) }

// Polarity is yang for even stems and yin for odd ones.
func (s Stem) Polarity() Polarity { return Polarity(s % 2) }

func (s Stem) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Stem(%d)", uint8(s))
	}
	return string(stemRunes[s])
}

// Korean returns the Hangul reading.
func (s Stem) Korean() string { return stemKorean[s%10] }

// ParseStem accepts a single hanja or Hangul character.
func ParseStem(v string) (Stem, error) {
	v = strings.TrimSpace(v)
	for i, r := range stemRunes {
		if v == string(r) || v == stemKorean[i] {
			return Stem(i), nil
		}
	}
	return 0, fmt.Errorf("unknown stem %q", v)
}

func (s Stem) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Stem) UnmarshalText(b []byte) error {
	v, err := ParseStem(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
