package engine

import (
	"sort"
	"strings"

	"github.com/zapponejosh/saju-api/internal/ganzi"
)

// Interaction is a named relation among natal characters. Results with the
// same name are merged and carry every contributing position.
type Interaction struct {
	Name       string         `json:"name"`
	Kind       RelationKind   `json:"kind"`
	Characters string         `json:"characters"`
	Element    *ganzi.Element `json:"element,omitempty"`
	Positions  []Position     `json:"positions"`
}

type interactionSet struct {
	byName map[string]*Interaction
}

func (s *interactionSet) add(kind RelationKind, chars string, elem *ganzi.Element, positions ...Position) {
	name := chars + " " + kind.String()
	if elem != nil {
		name += "(" + elem.Hanja() + ")"
	}
	it, ok := s.byName[name]
	if !ok {
		it = &Interaction{Name: name, Kind: kind, Characters: chars, Element: elem}
		s.byName[name] = it
	}
	for _, p := range positions {
		if !containsPosition(it.Positions, p) {
			it.Positions = append(it.Positions, p)
		}
	}
}

func containsPosition(list []Position, p Position) bool {
	for _, x := range list {
		if x == p {
			return true
		}
	}
	return false
}

// result sorts positions, annotates names that span more than two
// positions and returns the set ordered by name.
func (s *interactionSet) result() []Interaction {
	out := make([]Interaction, 0, len(s.byName))
	for _, it := range s.byName {
		sort.Slice(it.Positions, func(i, j int) bool { return it.Positions[i] < it.Positions[j] })
		if len(it.Positions) > 2 {
			labels := make([]string, len(it.Positions))
			for i, p := range it.Positions {
				labels[i] = p.Korean()
			}
			it.Name += " [" + strings.Join(labels, "·") + "]"
		}
		out = append(out, *it)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func elementPtr(r pairRule) *ganzi.Element {
	if r.element < 0 {
		return nil
	}
	e := ganzi.Element(r.element)
	return &e
}

// detectInteractions checks every unordered stem pair and branch pair, the
// branch groups and the void branches of the day pillar.
func detectInteractions(c Chart) []Interaction {
	set := &interactionSet{byName: make(map[string]*Interaction)}
	stems, branches := c.Stems(), c.Branches()

	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			for _, r := range stemRelations.match(int(stems[i]), int(stems[j])) {
				chars := ganzi.Stem(r.a).String() + ganzi.Stem(r.b).String()
				set.add(r.kind, chars, elementPtr(r), Position(i), Position(j))
			}
			for _, r := range branchRelations.match(int(branches[i]), int(branches[j])) {
				chars := ganzi.Branch(r.a).String() + ganzi.Branch(r.b).String()
				set.add(r.kind, chars, elementPtr(r), Position(i), Position(j))
			}
		}
	}

	for _, g := range findGroups(branches) {
		e := g.group.element
		chars := g.group.label()
		if g.kind == HalfHarmony {
			var b strings.Builder
			for _, m := range g.group.members {
				for _, nb := range branches {
					if nb == m {
						b.WriteString(m.String())
						break
					}
				}
			}
			chars = b.String()
		}
		set.add(g.kind, chars, &e, g.positions...)
	}

	for _, tp := range triplePunishments {
		var pos []Position
		found := 0
		for _, m := range tp {
			hit := false
			for i, b := range branches {
				if b == m {
					pos = append(pos, Position(i))
					hit = true
				}
			}
			if hit {
				found++
			}
		}
		if found == 3 {
			set.add(TriplePunishment, tp[0].String()+tp[1].String()+tp[2].String(), nil, pos...)
		}
	}

	void := c.Day.VoidBranches()
	for i, b := range branches {
		if Position(i) != DayPos && (b == void[0] || b == void[1]) {
			set.add(Void, b.String(), nil, Position(i))
		}
	}

	return set.result()
}
