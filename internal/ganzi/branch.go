package ganzi

import (
	"fmt"
	"strings"
)

// Branch is one of the twelve earthly branches, 子 (0) through 亥 (11).
type Branch uint8

const (
	BranchZi Branch = iota
	BranchChou
	BranchYin
	BranchMao
	BranchChen
	BranchSi
	BranchWu
	BranchWei
	BranchShen
	BranchYou
	BranchXu
	BranchHai
)

const branchHanja = "子丑寅卯辰巳午未申酉戌亥"

var branchRunes = []rune(branchHanja)
var branchKorean = [12]string{"자", "축", "인", "묘", "진", "사", "오", "미", "신", "유", "술", "해"}

var branchElements = [12]Element{
	Water, Earth, Wood, Wood, Earth, Fire,
	Fire, Earth, Metal, Metal, Earth, Water,
}

// hiddenStems lists each branch's sub-element stems from the residual
// qi to the main qi. The main qi is always last.
var hiddenStems = [12][]Stem{
	BranchZi:   {StemRen, StemGui},
	BranchChou: {StemGui, StemXin, StemJi},
	BranchYin:  {StemWu, StemBing, StemJia},
	BranchMao:  {StemJia, StemYi},
	BranchChen: {StemYi, StemGui, StemWu},
	BranchSi:   {StemWu, StemGeng, StemBing},
	BranchWu:   {StemBing, StemJi, StemDing},
	BranchWei:  {StemDing, StemYi, StemJi},
	BranchShen: {StemWu, StemRen, StemGeng},
	BranchYou:  {StemGeng, StemXin},
	BranchXu:   {StemXin, StemDing, StemWu},
	BranchHai:  {StemWu, StemJia, StemRen},
}

// Valid reports whether b is one of the twelve branches.
func (b Branch) Valid() bool { return b < 12 }

// Element returns the branch's phase.
func (b Branch) Element() Element { return branchElements[b%12] }

// Polarity is the positional polarity: yang for even branches.
func (b Branch) Polarity() Polarity { return Polarity(b % 2) }

// Hidden returns a copy of the branch's hidden stems, main qi last.
func (b Branch) Hidden() []Stem {
	h := hiddenStems[b%12]
	out := make([]Stem, len(h))
	copy(out, h)
	return out
}

// Main returns the main-qi hidden stem.
func (b Branch) Main() Stem {
	h := hiddenStems[b%12]
	return h[len(h)-1]
}

// HasHiddenElement reports whether any hidden stem carries element e.
func (b Branch) HasHiddenElement(e Element) bool {
	for _, s := range hiddenStems[b%12] {
		if s.Element() == e {
			return true
		}
	}
	return false
}

// Add steps the branch n positions around the twelve-cycle.
func (b Branch) Add(n int) Branch {
	return Branch(((int(b)+n)%12 + 12) % 12)
}

// Distance returns how many steps forward from b reach other (0-11).
func (b Branch) Distance(other Branch) int {
	return ((int(other)-int(b))%12 + 12) % 12
}

func (b Branch) String() string {
	if !b.Valid() {
		return fmt.Sprintf("Branch(%d)", uint8(b))
	}
	return string(branchRunes[b])
}

// Korean returns the Hangul reading.
func (b Branch) Korean() string { return branchKorean[b%12] }

// ParseBranch accepts a single hanja or Hangul character.
func ParseBranch(v string) (Branch, error) {
	v = strings.TrimSpace(v)
	for i, r := range branchRunes {
		if v == string(r) || v == branchKorean[i] {
			return Branch(i), nil
		}
	}
	return 0, fmt.Errorf("unknown branch %q", v)
}

func (b Branch) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

func (b *Branch) UnmarshalText(t []byte) error {
	v, err := ParseBranch(string(t))
	if err != nil {
		return err
	}
	*b = v
	return nil
}
