package engine

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/zapponejosh/saju-api/internal/ganzi"
)

func chartOf(year, month, day, hour string) Chart {
	return Chart{
		Year:  ganzi.MustPillar(year),
		Month: ganzi.MustPillar(month),
		Day:   ganzi.MustPillar(day),
		Hour:  ganzi.MustPillar(hour),
	}
}

// sample has a 子午 clash, a 子辰 half harmony, a 戊癸 combination, a 辰亥
// grudge and a void 亥 hour.
var sample = chartOf("甲子", "丙午", "戊辰", "癸亥")

func TestPairRulesSymmetric(t *testing.T) {
	for a := 0; a < 12; a++ {
		for b := 0; b < 12; b++ {
			if !cmp.Equal(branchRelations.match(a, b), branchRelations.match(b, a), cmp.AllowUnexported(pairRule{})) {
				t.Errorf("branch relations differ for %d,%d", a, b)
			}
			if a < 10 && b < 10 {
				ea, oka := StemCombines(ganzi.Stem(a), ganzi.Stem(b))
				eb, okb := StemCombines(ganzi.Stem(b), ganzi.Stem(a))
				if ea != eb || oka != okb {
					t.Errorf("stem combination differs for %d,%d", a, b)
				}
			}
		}
	}
}

func TestBranchClashes(t *testing.T) {
	for b := ganzi.Branch(0); b < 12; b++ {
		if !BranchesClash(b, b.Add(6)) {
			t.Errorf("%s should clash with %s", b, b.Add(6))
		}
		if BranchesClash(b, b.Add(5)) {
			t.Errorf("%s should not clash with %s", b, b.Add(5))
		}
	}
}

func TestDetectInteractions(t *testing.T) {
	got := detectInteractions(sample)

	want := map[string][]Position{
		"亥 공망":      {HourPos},
		"子午 충":      {YearPos, MonthPos},
		"子辰 반합(水)":  {YearPos, DayPos},
		"戊癸 천간합(火)": {DayPos, HourPos},
		"辰亥 원진":     {DayPos, HourPos},
	}
	if len(got) != len(want) {
		t.Errorf("got %d interactions, want %d: %+v", len(got), len(want), got)
	}
	for _, it := range got {
		pos, ok := want[it.Name]
		if !ok {
			t.Errorf("unexpected interaction %q", it.Name)
			continue
		}
		if diff := cmp.Diff(pos, it.Positions); diff != "" {
			t.Errorf("%s positions (-want +got):\n%s", it.Name, diff)
		}
	}
	if !slices.IsSortedFunc(got, func(a, b Interaction) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	}) {
		t.Error("interactions are not sorted by name")
	}
}

func TestInteractionsMergePositions(t *testing.T) {
	// Both 子 branches clash with both 午 branches.
	got := detectInteractions(chartOf("甲子", "丙午", "戊子", "戊午"))
	for _, it := range got {
		if it.Kind == BranchClash {
			if it.Name != "子午 충 [년·월·일·시]" {
				t.Errorf("name = %q", it.Name)
			}
			if len(it.Positions) != 4 {
				t.Errorf("positions = %v, want all four", it.Positions)
			}
			return
		}
	}
	t.Error("clash not found")
}

func TestMeasureStrength(t *testing.T) {
	opts := Options{}.withDefaults()
	tests := []struct {
		name      string
		scheme    WeightScheme
		combine   bool
		wantIndex float64
		strong    bool
		status    StrengthStatus
	}{
		{"uniform", WeightUniform, false, 50, true, StatusBalanced},
		{"positional", WeightPositional, false, 59.1, true, StatusStrong},
		// The half harmony moves half the 辰 weight from earth to water.
		{"uniform combined", WeightUniform, true, 43.8, false, StatusBalanced},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := measureStrength(sample, opts, tt.scheme, tt.combine, false)
			if st.Index != tt.wantIndex {
				t.Errorf("index = %v, want %v", st.Index, tt.wantIndex)
			}
			if st.Strong != tt.strong {
				t.Errorf("strong = %v, want %v", st.Strong, tt.strong)
			}
			if st.Status != tt.status {
				t.Errorf("status = %s, want %s", st.Status, tt.status)
			}
		})
	}

	st := measureStrength(sample, opts, WeightUniform, true, false)
	if len(st.Combinations) != 1 || st.Combinations[0].Kind != HalfHarmony {
		t.Errorf("combinations = %+v, want one half harmony", st.Combinations)
	}
	if got := st.Share(ganzi.Water); got != 43.8 {
		t.Errorf("water share = %v, want 43.8", got)
	}
}

func TestRootingBonus(t *testing.T) {
	opts := Options{}.withDefaults()
	plain := measureStrength(sample, opts, WeightUniform, false, false)
	seasonal := measureStrength(sample, opts, WeightUniform, false, true)
	if len(plain.Rooted) != 0 {
		t.Errorf("rooting applied without seasonal correction: %v", plain.Rooted)
	}
	// 甲 roots in 辰 and 亥, 丙 in 午, 戊 in 辰, 癸 in 子.
	want := []Position{YearPos, MonthPos, DayPos, HourPos}
	if diff := cmp.Diff(want, seasonal.Rooted); diff != "" {
		t.Errorf("rooted (-want +got):\n%s", diff)
	}
}

func TestResolveScheme(t *testing.T) {
	if resolveScheme(WeightAuto, true) != WeightPositional || resolveScheme(WeightAuto, false) != WeightUniform {
		t.Error("auto scheme should follow seasonal correction")
	}
	if resolveScheme(WeightUniform, true) != WeightUniform {
		t.Error("explicit scheme overridden")
	}
}

func TestResolveFavorable(t *testing.T) {
	opts := Options{}.withDefaults()
	st := measureStrength(sample, opts, WeightUniform, false, false)
	f := resolveFavorable(sample, st)

	if f.Strategy != StrategyDrain {
		t.Errorf("strategy = %s, want drain", f.Strategy)
	}
	if diff := cmp.Diff([]ganzi.Element{ganzi.Metal, ganzi.Water, ganzi.Wood}, f.Elements); diff != "" {
		t.Errorf("elements (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]ganzi.Element{ganzi.Water, ganzi.Wood}, f.Present); diff != "" {
		t.Errorf("present (-want +got):\n%s", diff)
	}
	if f.Seasonal.Season != Summer || f.Seasonal.Element != ganzi.Water {
		t.Errorf("seasonal = %+v, want summer water", f.Seasonal)
	}

	weak := resolveFavorable(sample, Strength{Distribution: st.Distribution})
	if weak.Strategy != StrategySupport || !weak.Contains(ganzi.Earth) || !weak.Contains(ganzi.Fire) {
		t.Errorf("weak favorable = %+v, want earth and fire", weak)
	}
	if !weak.Nourishes(ganzi.Wood) {
		t.Error("wood produces fire and should nourish")
	}
}

func TestScorePillar(t *testing.T) {
	fav := Favorable{Elements: []ganzi.Element{ganzi.Metal, ganzi.Water, ganzi.Wood}}
	tests := []struct {
		pillar string
		want   int
	}{
		// Two favorable metals, 庚 clashes 甲.
		{"庚申", 75},
		// Fire nourishes nothing favorable; 午 clashes 子 once and combines
		// with nothing.
		{"丙午", 20},
		// Both water favorable; 壬 clashes 丙 and the favorable 子 clashes 午
		// at the softened rate.
		{"壬子", 71},
	}
	for _, tt := range tests {
		t.Run(tt.pillar, func(t *testing.T) {
			if got := scorePillar(sample, ganzi.MustPillar(tt.pillar), fav); got != tt.want {
				t.Errorf("score = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRoles(t *testing.T) {
	self := ganzi.StemWu
	tests := []struct {
		name string
		got  Role
		want Role
	}{
		{"甲", StemRole(self, ganzi.StemJia), RoleSevenKillings},
		{"癸", StemRole(self, ganzi.StemGui), RoleDirectWealth},
		{"戊", StemRole(self, ganzi.StemWu), RoleCompanion},
		{"丁", StemRole(self, ganzi.StemDing), RoleDirectResource},
		{"子", BranchRole(self, ganzi.BranchZi), RoleDirectWealth},
		{"亥", BranchRole(self, ganzi.BranchHai), RoleIndirectWealth},
		{"申", BranchRole(self, ganzi.BranchShen), RoleEatingGod},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: role = %s, want %s", tt.name, tt.got, tt.want)
		}
	}

	shares := roleDistribution(sample, WeightUniform)
	if len(shares) != len(Roles) {
		t.Fatalf("shares = %d, want %d", len(shares), len(Roles))
	}
	var count int
	for _, s := range shares {
		count += s.Count
	}
	if count != 7 {
		t.Errorf("role counts sum to %d, want 7", count)
	}
}

func TestStages(t *testing.T) {
	tests := []struct {
		stem   ganzi.Stem
		branch ganzi.Branch
		want   Stage
	}{
		{ganzi.StemJia, ganzi.BranchHai, StageBirth},
		{ganzi.StemJia, ganzi.BranchYin, StageOffice},
		{ganzi.StemJia, ganzi.BranchMao, StageEmperor},
		{ganzi.StemJia, ganzi.BranchWei, StageTomb},
		{ganzi.StemYi, ganzi.BranchWu, StageBirth},
		{ganzi.StemYi, ganzi.BranchMao, StageOffice},
		{ganzi.StemGeng, ganzi.BranchShen, StageOffice},
		{ganzi.StemGui, ganzi.BranchMao, StageBirth},
	}
	for _, tt := range tests {
		if got := StageOf(tt.stem, tt.branch); got != tt.want {
			t.Errorf("StageOf(%s, %s) = %s, want %s", tt.stem, tt.branch, got, tt.want)
		}
	}
}

func TestSpirits(t *testing.T) {
	tests := []struct {
		anchor, branch ganzi.Branch
		want           Spirit
	}{
		{ganzi.BranchZi, ganzi.BranchSi, SpiritRobbery},
		{ganzi.BranchZi, ganzi.BranchYou, SpiritPeachBlossom},
		{ganzi.BranchZi, ganzi.BranchYin, SpiritTravel},
		{ganzi.BranchWu, ganzi.BranchXu, SpiritCanopy},
		{ganzi.BranchYou, ganzi.BranchHai, SpiritTravel},
		{ganzi.BranchMao, ganzi.BranchZi, SpiritPeachBlossom},
	}
	for _, tt := range tests {
		if got := SpiritOf(tt.anchor, tt.branch); got != tt.want {
			t.Errorf("SpiritOf(%s, %s) = %s, want %s", tt.anchor, tt.branch, got, tt.want)
		}
	}
}

func TestReportPillars(t *testing.T) {
	c := chartOf("乙丑", "庚辰", "甲子", "丙寅")
	reports := reportPillars(c)

	if !slices.Contains(reports[YearPos].Markers, MarkerNobleman) {
		t.Errorf("year markers = %v, want 천을귀인 for 甲 in 丑", reports[YearPos].Markers)
	}
	if !slices.Contains(reports[MonthPos].Markers, MarkerKuiGang) {
		t.Errorf("month markers = %v, want 괴강살 for 庚辰", reports[MonthPos].Markers)
	}
	if !slices.Contains(reports[HourPos].Markers, MarkerProsperity) {
		t.Errorf("hour markers = %v, want 정록 for 甲 in 寅", reports[HourPos].Markers)
	}
	if reports[DayPos].StemRole != RoleSelf {
		t.Errorf("day stem role = %s, want self", reports[DayPos].StemRole)
	}
	for _, r := range reports {
		if r.Markers == nil {
			t.Errorf("%s markers are nil", r.Position)
		}
		if !slices.IsSorted(r.Markers) {
			t.Errorf("%s markers unsorted: %v", r.Position, r.Markers)
		}
		if r.Void {
			t.Errorf("%s unexpectedly void", r.Position)
		}
	}
}

func TestByDayStem(t *testing.T) {
	match := byDayStem(map[string]string{"甲戊": "丑未", "辛": "寅"})
	tests := []struct {
		day, other string
		want       bool
	}{
		{"甲子", "乙丑", true},
		{"戊辰", "丁未", true},
		{"甲子", "丙寅", false},
		{"辛酉", "丙寅", true},
		{"癸亥", "乙丑", false},
	}
	for _, tt := range tests {
		c := chartOf("甲子", "丙午", tt.day, "癸亥")
		in := markerInput{chart: c, pos: YearPos, pillar: ganzi.MustPillar(tt.other)}
		if got := match(in); got != tt.want {
			t.Errorf("day %s, pillar %s: match = %v, want %v", tt.day, tt.other, got, tt.want)
		}
	}
}

func TestByDayStemPanicsOnBadCode(t *testing.T) {
	tests := []struct {
		name  string
		table map[string]string
	}{
		{"bad stem", map[string]string{"X": "子"}},
		{"bad branch", map[string]string{"甲": "甲"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("byDayStem(%v) did not panic", tt.table)
				}
			}()
			byDayStem(tt.table)
		})
	}
}
