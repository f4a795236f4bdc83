package engine

import (
	"fmt"

	"github.com/zapponejosh/saju-api/internal/ganzi"
)

// Role is one of the ten relational roles of a character toward the day
// stem, or RoleSelf for the day stem itself.
type Role int

const (
	RoleCompanion Role = iota // 비견: peer, same polarity
	RoleRival                 // 겁재: peer, opposite polarity
	RoleEatingGod             // 식신: output, same polarity
	RoleHurtingOfficer        // 상관: output, opposite polarity
	RoleIndirectWealth        // 편재: wealth, same polarity
	RoleDirectWealth          // 정재: wealth, opposite polarity
	RoleSevenKillings         // 편관: officer, same polarity
	RoleDirectOfficer         // 정관: officer, opposite polarity
	RoleIndirectResource      // 편인: resource, same polarity
	RoleDirectResource        // 정인: resource, opposite polarity
	RoleSelf                  // 일간
)

// Roles lists the ten relational roles in order.
var Roles = [10]Role{
	RoleCompanion, RoleRival, RoleEatingGod, RoleHurtingOfficer, RoleIndirectWealth,
	RoleDirectWealth, RoleSevenKillings, RoleDirectOfficer, RoleIndirectResource, RoleDirectResource,
}

var roleNames = [11]string{"비견", "겁재", "식신", "상관", "편재", "정재", "편관", "정관", "편인", "정인", "일간"}
var roleHanja = [11]string{"比肩", "劫財", "食神", "傷官", "偏財", "正財", "偏官", "正官", "偏印", "正印", "日干"}

// String returns the Korean role name.
func (r Role) String() string {
	if r < 0 || r > RoleSelf {
		return fmt.Sprintf("Role(%d)", int(r))
	}
	return roleNames[r]
}

// Hanja returns the role name in hanja.
func (r Role) Hanja() string { return roleHanja[r] }

// Relation returns the element relation the role belongs to.
func (r Role) Relation() ganzi.Relation { return ganzi.Relation(r / 2) }

func (r Role) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// RoleOf classifies an element and polarity against the day stem.
func RoleOf(self ganzi.Stem, e ganzi.Element, p ganzi.Polarity) Role {
	r := Role(ganzi.RelationTo(self.Element(), e)) * 2
	if p != self.Polarity() {
		r++
	}
	return r
}

// StemRole classifies a stem against the day stem.
func StemRole(self, s ganzi.Stem) Role { return RoleOf(self, s.Element(), s.Polarity()) }

// BranchRole classifies a branch by its element and the polarity of its
// main hidden stem.
func BranchRole(self ganzi.Stem, b ganzi.Branch) Role {
	return RoleOf(self, b.Element(), b.Main().Polarity())
}

// slotRole returns the role of slot s; the day stem is RoleSelf.
func slotRole(c Chart, s Slot) Role {
	if s == SelfSlot {
		return RoleSelf
	}
	return RoleOf(c.Self(), c.Element(s), c.Polarity(s))
}

// RoleShare is one role's part of the seven non-self characters.
type RoleShare struct {
	Role    Role    `json:"role"`
	Percent float64 `json:"percent"`
	Count   int     `json:"count"`
}

// roleDistribution weights the seven non-self characters like the element
// distribution and returns all ten roles in order.
func roleDistribution(c Chart, scheme WeightScheme) []RoleShare {
	w := slotWeights(scheme)
	var byRole [10]float64
	var count [10]int
	var total float64
	for s := Slot(0); s < 8; s++ {
		if s == SelfSlot {
			continue
		}
		r := slotRole(c, s)
		byRole[r] += w[s]
		count[r]++
		total += w[s]
	}
	out := make([]RoleShare, 0, len(Roles))
	for _, r := range Roles {
		out = append(out, RoleShare{Role: r, Percent: round1(byRole[r] / total * 100), Count: count[r]})
	}
	return out
}
