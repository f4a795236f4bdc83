package engine

import (
	"fmt"

	"github.com/zapponejosh/saju-api/internal/ganzi"
)

// RelationKind names an interaction between characters.
type RelationKind int

const (
	StemCombination RelationKind = iota
	StemClash
	SixCombination
	BranchClash
	Punishment
	SelfPunishment
	TriplePunishment
	Break
	Harm
	Grudge
	ThreeHarmony
	HalfHarmony
	Directional
	Void
)

var relationKindNames = [...]string{
	"천간합", "천간충", "육합", "충", "형", "자형", "삼형",
	"파", "해", "원진", "삼합", "반합", "방합", "공망",
}

var relationKindKeys = [...]string{
	"stem-combination", "stem-clash", "six-combination", "clash", "punishment",
	"self-punishment", "triple-punishment", "break", "harm", "grudge",
	"three-harmony", "half-harmony", "directional", "void",
}

// String returns the Korean name of the relation.
func (k RelationKind) String() string {
	if k < 0 || int(k) >= len(relationKindNames) {
		return fmt.Sprintf("RelationKind(%d)", int(k))
	}
	return relationKindNames[k]
}

// Key returns a stable ASCII identifier.
func (k RelationKind) Key() string {
	if k < 0 || int(k) >= len(relationKindKeys) {
		return ""
	}
	return relationKindKeys[k]
}

func (k RelationKind) MarshalText() ([]byte, error) { return []byte(k.Key()), nil }

// ============================================================================
// Two-character tables
// ============================================================================

// pairRule matches an unordered pair of stems or branches.
type pairRule struct {
	kind RelationKind
	a, b int
	// element is the combination's resulting element; -1 for none.
	element int
}

func stemPairs() []pairRule {
	const none = -1
	s := func(kind RelationKind, a, b ganzi.Stem, e int) pairRule { return pairRule{kind, int(a), int(b), e} }
	return []pairRule{
		s(StemCombination, ganzi.StemJia, ganzi.StemJi, int(ganzi.Earth)),
		s(StemCombination, ganzi.StemYi, ganzi.StemGeng, int(ganzi.Metal)),
		s(StemCombination, ganzi.StemBing, ganzi.StemXin, int(ganzi.Water)),
		s(StemCombination, ganzi.StemDing, ganzi.StemRen, int(ganzi.Wood)),
		s(StemCombination, ganzi.StemWu, ganzi.StemGui, int(ganzi.Fire)),
		s(StemClash, ganzi.StemJia, ganzi.StemGeng, none),
		s(StemClash, ganzi.StemYi, ganzi.StemXin, none),
		s(StemClash, ganzi.StemBing, ganzi.StemRen, none),
		s(StemClash, ganzi.StemDing, ganzi.StemGui, none),
	}
}

func branchPairs() []pairRule {
	const none = -1
	const (
		zi, chou, yin, mao, chen, si = ganzi.BranchZi, ganzi.BranchChou, ganzi.BranchYin, ganzi.BranchMao, ganzi.BranchChen, ganzi.BranchSi
		wu, wei, shen, you, xu, hai  = ganzi.BranchWu, ganzi.BranchWei, ganzi.BranchShen, ganzi.BranchYou, ganzi.BranchXu, ganzi.BranchHai
	)
	b := func(kind RelationKind, x, y ganzi.Branch, e int) pairRule { return pairRule{kind, int(x), int(y), e} }
	rules := []pairRule{
		b(SixCombination, zi, chou, int(ganzi.Earth)),
		b(SixCombination, yin, hai, int(ganzi.Wood)),
		b(SixCombination, mao, xu, int(ganzi.Fire)),
		b(SixCombination, chen, you, int(ganzi.Metal)),
		b(SixCombination, si, shen, int(ganzi.Water)),
		b(SixCombination, wu, wei, int(ganzi.Fire)),

		b(Punishment, yin, si, none),
		b(Punishment, si, shen, none),
		b(Punishment, yin, shen, none),
		b(Punishment, chou, xu, none),
		b(Punishment, xu, wei, none),
		b(Punishment, chou, wei, none),
		b(Punishment, zi, mao, none),
		b(SelfPunishment, chen, chen, none),
		b(SelfPunishment, wu, wu, none),
		b(SelfPunishment, you, you, none),
		b(SelfPunishment, hai, hai, none),

		b(Break, zi, you, none),
		b(Break, chou, chen, none),
		b(Break, yin, hai, none),
		b(Break, mao, wu, none),
		b(Break, si, shen, none),
		b(Break, wei, xu, none),

		b(Harm, zi, wei, none),
		b(Harm, chou, wu, none),
		b(Harm, yin, si, none),
		b(Harm, mao, chen, none),
		b(Harm, shen, hai, none),
		b(Harm, you, xu, none),

		b(Grudge, zi, wei, none),
		b(Grudge, chou, wu, none),
		b(Grudge, yin, you, none),
		b(Grudge, mao, shen, none),
		b(Grudge, chen, hai, none),
		b(Grudge, si, xu, none),
	}
	for x := ganzi.BranchZi; x < 6; x++ {
		rules = append(rules, b(BranchClash, x, x.Add(6), none))
	}
	return rules
}

// pairTable indexes pair rules by unordered key.
type pairTable map[[2]int][]pairRule

func newPairTable(rules []pairRule) pairTable {
	t := make(pairTable, len(rules))
	for _, r := range rules {
		k := pairKey(r.a, r.b)
		t[k] = append(t[k], r)
	}
	return t
}

func pairKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

// match returns every rule for the unordered pair (a, b).
func (t pairTable) match(a, b int) []pairRule { return t[pairKey(a, b)] }

var (
	stemRelations   = newPairTable(stemPairs())
	branchRelations = newPairTable(branchPairs())
)

// StemCombines reports whether two stems combine, and into which element.
func StemCombines(a, b ganzi.Stem) (ganzi.Element, bool) {
	for _, r := range stemRelations.match(int(a), int(b)) {
		if r.kind == StemCombination {
			return ganzi.Element(r.element), true
		}
	}
	return 0, false
}

// StemsClash reports whether two stems clash.
func StemsClash(a, b ganzi.Stem) bool { return hasKind(stemRelations.match(int(a), int(b)), StemClash) }

// BranchesCombine reports whether two branches form a six-combination.
func BranchesCombine(a, b ganzi.Branch) bool {
	return hasKind(branchRelations.match(int(a), int(b)), SixCombination)
}

// BranchesClash reports whether two branches clash (six apart).
func BranchesClash(a, b ganzi.Branch) bool {
	return hasKind(branchRelations.match(int(a), int(b)), BranchClash)
}

func hasKind(rules []pairRule, k RelationKind) bool {
	for _, r := range rules {
		if r.kind == k {
			return true
		}
	}
	return false
}

// ============================================================================
// Branch groups
// ============================================================================

// branchGroup is a three-branch combination.
type branchGroup struct {
	kind     RelationKind
	members  [3]ganzi.Branch
	dominant ganzi.Branch
	element  ganzi.Element
}

func (g branchGroup) has(b ganzi.Branch) bool {
	return g.members[0] == b || g.members[1] == b || g.members[2] == b
}

func (g branchGroup) label() string {
	return g.members[0].String() + g.members[1].String() + g.members[2].String()
}

var (
	harmonyGroups = []branchGroup{
		{ThreeHarmony, [3]ganzi.Branch{ganzi.BranchShen, ganzi.BranchZi, ganzi.BranchChen}, ganzi.BranchZi, ganzi.Water},
		{ThreeHarmony, [3]ganzi.Branch{ganzi.BranchHai, ganzi.BranchMao, ganzi.BranchWei}, ganzi.BranchMao, ganzi.Wood},
		{ThreeHarmony, [3]ganzi.Branch{ganzi.BranchYin, ganzi.BranchWu, ganzi.BranchXu}, ganzi.BranchWu, ganzi.Fire},
		{ThreeHarmony, [3]ganzi.Branch{ganzi.BranchSi, ganzi.BranchYou, ganzi.BranchChou}, ganzi.BranchYou, ganzi.Metal},
	}
	directionalGroups = []branchGroup{
		{Directional, [3]ganzi.Branch{ganzi.BranchYin, ganzi.BranchMao, ganzi.BranchChen}, ganzi.BranchMao, ganzi.Wood},
		{Directional, [3]ganzi.Branch{ganzi.BranchSi, ganzi.BranchWu, ganzi.BranchWei}, ganzi.BranchWu, ganzi.Fire},
		{Directional, [3]ganzi.Branch{ganzi.BranchShen, ganzi.BranchYou, ganzi.BranchXu}, ganzi.BranchYou, ganzi.Metal},
		{Directional, [3]ganzi.Branch{ganzi.BranchHai, ganzi.BranchZi, ganzi.BranchChou}, ganzi.BranchZi, ganzi.Water},
	}
	triplePunishments = [][3]ganzi.Branch{
		{ganzi.BranchYin, ganzi.BranchSi, ganzi.BranchShen},
		{ganzi.BranchChou, ganzi.BranchXu, ganzi.BranchWei},
	}
)

// groupMatch is a branch group found among the natal branches.
type groupMatch struct {
	group     branchGroup
	kind      RelationKind // ThreeHarmony, HalfHarmony or Directional
	positions []Position   // positions holding a member, chart order
}

// findGroups returns full three-harmony, full directional and half
// three-harmony matches, in that order. A half match needs two distinct
// members, one of them the dominant branch.
func findGroups(branches [4]ganzi.Branch) []groupMatch {
	var out []groupMatch
	scan := func(groups []branchGroup, full RelationKind, half bool) {
		for _, g := range groups {
			var present [3]bool
			var pos []Position
			for i, b := range branches {
				for k, m := range g.members {
					if b == m {
						present[k] = true
						pos = append(pos, Position(i))
					}
				}
			}
			n := 0
			for _, p := range present {
				if p {
					n++
				}
			}
			hasDominant := false
			for k, m := range g.members {
				if m == g.dominant && present[k] {
					hasDominant = true
				}
			}
			switch {
			case !half && n == 3:
				out = append(out, groupMatch{g, full, pos})
			case half && n == 2 && hasDominant:
				out = append(out, groupMatch{g, HalfHarmony, pos})
			}
		}
	}
	scan(harmonyGroups, ThreeHarmony, false)
	scan(directionalGroups, Directional, false)
	scan(harmonyGroups, ThreeHarmony, true)
	return out
}
