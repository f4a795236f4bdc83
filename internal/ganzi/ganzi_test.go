package ganzi

import (
	"encoding/json"
	"testing"
)

func TestCycleIsBijection(t *testing.T) {
	seen := make(map[Pillar]int)
	for i := 0; i < CycleLength; i++ {
		p := FromIndex(i)
		if p.Stem != Stem(i%10) || p.Branch != Branch(i%12) {
			t.Fatalf("FromIndex(%d) = %v, want stem %d branch %d", i, p, i%10, i%12)
		}
		if prev, dup := seen[p]; dup {
			t.Fatalf("FromIndex(%d) = %v duplicates index %d", i, p, prev)
		}
		seen[p] = i
	}
	if len(seen) != CycleLength {
		t.Errorf("cycle has %d distinct pillars, want %d", len(seen), CycleLength)
	}
}

func TestIndexRoundTrip(t *testing.T) {
	for i := 0; i < CycleLength; i++ {
		p := FromIndex(i)
		if got := p.Index(); got != i {
			t.Errorf("FromIndex(%d).Index() = %d", i, got)
		}
		back := FromIndex(p.Index())
		if back != p {
			t.Errorf("round trip of %v = %v", p, back)
		}
	}
}

func TestIndexRejectsMismatchedPolarity(t *testing.T) {
	p := Pillar{Stem: StemJia, Branch: BranchChou}
	if p.Index() != -1 || p.Valid() {
		t.Errorf("甲丑 should not be part of the cycle")
	}
	if _, err := ParsePillar("甲丑"); err == nil {
		t.Error("ParsePillar(甲丑) should fail")
	}
}

func TestFromIndexWraps(t *testing.T) {
	if got := FromIndex(-1); got.String() != "癸亥" {
		t.Errorf("FromIndex(-1) = %v, want 癸亥", got)
	}
	if got := FromIndex(60); got.String() != "甲子" {
		t.Errorf("FromIndex(60) = %v, want 甲子", got)
	}
	if got := MustPillar("癸亥").Add(1); got.String() != "甲子" {
		t.Errorf("癸亥+1 = %v, want 甲子", got)
	}
}

func TestParsePillar(t *testing.T) {
	tests := []struct {
		in   string
		want string
		err  bool
	}{
		{"甲子", "甲子", false},
		{"경오", "庚午", false},
		{"庚午", "庚午", false},
		{"甲", "", true},
		{"AB", "", true},
		{"甲子丑", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p, err := ParsePillar(tt.in)
			if tt.err {
				if err == nil {
					t.Fatalf("ParsePillar(%q) = %v, want error", tt.in, p)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePillar(%q): %v", tt.in, err)
			}
			if p.String() != tt.want {
				t.Errorf("ParsePillar(%q) = %v, want %s", tt.in, p, tt.want)
			}
		})
	}
}

func TestYearAndMonthPillars(t *testing.T) {
	tests := []struct {
		year  int
		month int
		year1 string
		mon   string
	}{
		{1984, 1, "甲子", "丙寅"},
		{1990, 1, "庚午", "戊寅"},
		{1990, 12, "庚午", "己丑"},
		{2024, 7, "甲辰", "壬申"},
		{2025, 1, "乙巳", "戊寅"},
		{2023, 11, "癸卯", "甲子"},
	}
	for _, tt := range tests {
		y := YearPillar(tt.year)
		if y.String() != tt.year1 {
			t.Errorf("YearPillar(%d) = %v, want %s", tt.year, y, tt.year1)
		}
		if m := MonthPillar(y.Stem, tt.month); m.String() != tt.mon {
			t.Errorf("MonthPillar(%v, %d) = %v, want %s", y.Stem, tt.month, m, tt.mon)
		}
	}
}

func TestHourStemStart(t *testing.T) {
	want := map[Stem]Stem{
		StemJia: StemJia, StemJi: StemJia,
		StemYi: StemBing, StemGeng: StemBing,
		StemBing: StemWu, StemXin: StemWu,
		StemDing: StemGeng, StemRen: StemGeng,
		StemWu: StemRen, StemGui: StemRen,
	}
	for day, start := range want {
		if got := HourStemStart(day); got != start {
			t.Errorf("HourStemStart(%v) = %v, want %v", day, got, start)
		}
	}
}

func TestVoidBranches(t *testing.T) {
	tests := map[string]string{
		"甲子": "戌亥",
		"癸酉": "戌亥",
		"甲戌": "申酉",
		"丙寅": "戌亥",
		"甲寅": "子丑",
		"癸亥": "子丑",
	}
	for code, want := range tests {
		v := MustPillar(code).VoidBranches()
		if got := v[0].String() + v[1].String(); got != want {
			t.Errorf("VoidBranches(%s) = %s, want %s", code, got, want)
		}
	}
}

func TestElementRelations(t *testing.T) {
	if RelationTo(Wood, Fire) != Output {
		t.Error("fire is wood's output")
	}
	if RelationTo(Wood, Water) != Resource {
		t.Error("water is wood's resource")
	}
	if RelationTo(Wood, Metal) != Officer {
		t.Error("metal is wood's officer")
	}
	if RelationTo(Wood, Earth) != Wealth {
		t.Error("earth is wood's wealth")
	}
	for _, e := range Elements {
		if e.Produces().ProducedBy() != e || e.Overcomes().OvercomeBy() != e {
			t.Errorf("cycle inverse broken for %v", e)
		}
		if !Supports(e, e) || !Supports(e, e.ProducedBy()) || Supports(e, e.Produces()) {
			t.Errorf("Supports wrong for %v", e)
		}
	}
}

func TestBranchHiddenStems(t *testing.T) {
	for b := BranchZi; b <= BranchHai; b++ {
		h := b.Hidden()
		if len(h) < 2 || len(h) > 3 {
			t.Errorf("%v has %d hidden stems", b, len(h))
		}
		if b.Main().Element() != b.Element() {
			t.Errorf("%v main qi %v has element %v, want %v", b, b.Main(), b.Main().Element(), b.Element())
		}
	}
	if !BranchYin.HasHiddenElement(Fire) || BranchYou.HasHiddenElement(Wood) {
		t.Error("HasHiddenElement mismatch")
	}
}

func TestPillarJSON(t *testing.T) {
	in := struct {
		P Pillar  `json:"p"`
		E Element `json:"e"`
	}{MustPillar("丙午"), Fire}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"p":"丙午","e":"fire"}` {
		t.Errorf("json = %s", b)
	}
	var out struct {
		P Pillar  `json:"p"`
		E Element `json:"e"`
	}
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatal(err)
	}
	if out.P != in.P || out.E != in.E {
		t.Errorf("decoded %+v, want %+v", out, in)
	}
}
