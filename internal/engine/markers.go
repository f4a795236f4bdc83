package engine

import (
	"fmt"
	"sort"

	"github.com/zapponejosh/saju-api/internal/ganzi"
)

// ============================================================================
// Twelve spirits (십이신살)
// ============================================================================

// Spirit is one of the twelve cyclical stars counted from a triplet anchor.
type Spirit int

const (
	SpiritRobbery      Spirit = iota // 겁살
	SpiritDisaster                   // 재살
	SpiritHeaven                     // 천살
	SpiritEarth                      // 지살
	SpiritPeachBlossom               // 년살 (도화)
	SpiritMonth                      // 월살
	SpiritLostSpirit                 // 망신살
	SpiritGeneral                    // 장성살
	SpiritSaddle                     // 반안살
	SpiritTravel                     // 역마살
	SpiritSixHarm                    // 육해살
	SpiritCanopy                     // 화개살
)

var spiritNames = [12]string{
	"겁살", "재살", "천살", "지살", "년살", "월살",
	"망신살", "장성살", "반안살", "역마살", "육해살", "화개살",
}

func (s Spirit) String() string {
	if s < 0 || s > SpiritCanopy {
		return fmt.Sprintf("Spirit(%d)", int(s))
	}
	return spiritNames[s]
}

func (s Spirit) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// spiritStart maps each branch to the 겁살 branch of its three-harmony
// triplet: 申子辰 → 巳, 寅午戌 → 亥, 巳酉丑 → 寅, 亥卯未 → 申.
func spiritStart(anchor ganzi.Branch) ganzi.Branch {
	switch anchor % 4 {
	case 0: // 子辰申
		return ganzi.BranchSi
	case 2: // 寅午戌
		return ganzi.BranchHai
	case 1: // 丑巳酉
		return ganzi.BranchYin
	}
	return ganzi.BranchShen // 卯未亥
}

// SpiritOf returns the spirit of branch b counted from anchor's triplet.
func SpiritOf(anchor, b ganzi.Branch) Spirit {
	return Spirit(spiritStart(anchor).Distance(b))
}

// ============================================================================
// Twelve life stages (십이운성)
// ============================================================================

// Stage is one of the twelve life stages of a stem through the branches.
type Stage int

const (
	StageBirth    Stage = iota // 장생
	StageBath                  // 목욕
	StageCapping               // 관대
	StageOffice                // 건록
	StageEmperor               // 제왕
	StageDecline               // 쇠
	StageSickness              // 병
	StageDeath                 // 사
	StageTomb                  // 묘
	StageExtinct               // 절
	StageWomb                  // 태
	StageNurture               // 양
)

var stageNames = [12]string{"장생", "목욕", "관대", "건록", "제왕", "쇠", "병", "사", "묘", "절", "태", "양"}

func (s Stage) String() string {
	if s < 0 || s > StageNurture {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

func (s Stage) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// birthBranch is the 장생 branch of each stem.
var birthBranch = [10]ganzi.Branch{
	ganzi.BranchHai, ganzi.BranchWu, ganzi.BranchYin, ganzi.BranchYou, ganzi.BranchYin,
	ganzi.BranchYou, ganzi.BranchSi, ganzi.BranchZi, ganzi.BranchShen, ganzi.BranchMao,
}

// StageOf returns the life stage of stem s in branch b. Yang stems advance
// through the branches, yin stems retreat.
func StageOf(s ganzi.Stem, b ganzi.Branch) Stage {
	start := birthBranch[s%10]
	if s.Polarity() == ganzi.Yang {
		return Stage(start.Distance(b))
	}
	return Stage(b.Distance(start))
}

// ============================================================================
// Markers (신살)
// ============================================================================

// Marker is a named auspicious or inauspicious star.
type Marker int

const (
	MarkerNobleman       Marker = iota // 천을귀인
	MarkerTaegeuk                      // 태극귀인
	MarkerMunchang                     // 문창귀인
	MarkerHakgwan                      // 관귀학관
	MarkerHakdang                      // 학당귀인
	MarkerMonthVirtue                  // 월덕귀인
	MarkerProsperity                   // 정록
	MarkerHiddenProsperity             // 암록
	MarkerGoldenCarriage               // 금여록
	MarkerBlade                        // 양인살
	MarkerRedFlame                     // 홍염살
	MarkerPeachBlossom                 // 도화살
	MarkerTravel                       // 역마살
	MarkerCanopy                       // 화개살
	MarkerNeedle                       // 현침살
	MarkerWhiteTiger                   // 백호대살
	MarkerKuiGang                      // 괴강살
	MarkerLonely                       // 고란살
	MarkerYinYangError                 // 음양차착살
	MarkerVoid                         // 공망
)

var markerNames = [...]string{
	"천을귀인", "태극귀인", "문창귀인", "관귀학관", "학당귀인", "월덕귀인",
	"정록", "암록", "금여록", "양인살", "홍염살", "도화살", "역마살", "화개살",
	"현침살", "백호대살", "괴강살", "고란살", "음양차착살", "공망",
}

func (m Marker) String() string {
	if m < 0 || int(m) >= len(markerNames) {
		return fmt.Sprintf("Marker(%d)", int(m))
	}
	return markerNames[m]
}

func (m Marker) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// markerInput is what a marker rule sees for one pillar.
type markerInput struct {
	chart   Chart
	pos     Position
	pillar  ganzi.Pillar
	spirits [2]Spirit
}

// markerRule is one declarative marker pattern.
type markerRule struct {
	marker Marker
	match  func(in markerInput) bool
}

// byDayStem matches when the pillar's branch is listed for the day stem.
// Keys are stem strings; values are branch strings.
func byDayStem(table map[string]string) func(markerInput) bool {
	idx := make(map[ganzi.Stem][]ganzi.Branch, 10)
	for stems, branches := range table {
		for _, s := range stems {
			st, err := ganzi.ParseStem(string(s))
			if err != nil {
				panic(err)
			}
			for _, b := range branches {
				br, err := ganzi.ParseBranch(string(b))
				if err != nil {
					panic(err)
				}
				idx[st] = append(idx[st], br)
			}
		}
	}
	return func(in markerInput) bool {
		for _, b := range idx[in.chart.Self()] {
			if b == in.pillar.Branch {
				return true
			}
		}
		return false
	}
}

// pillarIn matches exact pillar codes.
func pillarIn(codes ...string) func(markerInput) bool {
	set := make(map[ganzi.Pillar]bool, len(codes))
	for _, c := range codes {
		set[ganzi.MustPillar(c)] = true
	}
	return func(in markerInput) bool { return set[in.pillar] }
}

// dayPillarIn matches exact codes at the day position only.
func dayPillarIn(codes ...string) func(markerInput) bool {
	m := pillarIn(codes...)
	return func(in markerInput) bool { return in.pos == DayPos && m(in) }
}

// characterIn matches when the pillar's stem or branch is listed.
func characterIn(chars string) func(markerInput) bool {
	return func(in markerInput) bool {
		for _, r := range chars {
			s := string(r)
			if s == in.pillar.Stem.String() || s == in.pillar.Branch.String() {
				return true
			}
		}
		return false
	}
}

// spiritIs matches when either twelve-spirit label equals sp.
func spiritIs(sp Spirit) func(markerInput) bool {
	return func(in markerInput) bool { return in.spirits[0] == sp || in.spirits[1] == sp }
}

// monthVirtue matches the pillar stem against the month branch's triplet:
// 寅午戌 丙, 申子辰 壬, 亥卯未 甲, 巳酉丑 庚.
func monthVirtue(in markerInput) bool {
	var want ganzi.Stem
	switch in.chart.Month.Branch % 4 {
	case 2:
		want = ganzi.StemBing
	case 0:
		want = ganzi.StemRen
	case 3:
		want = ganzi.StemJia
	default:
		want = ganzi.StemGeng
	}
	return in.pillar.Stem == want
}

func isVoid(in markerInput) bool {
	v := in.chart.Day.VoidBranches()
	return in.pos != DayPos && (in.pillar.Branch == v[0] || in.pillar.Branch == v[1])
}

// markerRules is evaluated in order for every pillar.
var markerRules = []markerRule{
	{MarkerNobleman, byDayStem(map[string]string{"甲戊庚": "丑未", "乙己": "子申", "丙丁": "亥酉", "辛": "寅午", "壬癸": "巳卯"})},
	{MarkerTaegeuk, byDayStem(map[string]string{"甲乙": "子午", "丙丁": "卯酉", "戊己": "辰戌丑未", "庚辛": "寅亥", "壬癸": "巳申"})},
	{MarkerMunchang, byDayStem(map[string]string{"甲": "巳", "乙": "午", "丙戊": "申", "丁己": "酉", "庚": "亥", "辛": "子", "壬": "寅", "癸": "卯"})},
	{MarkerHakgwan, byDayStem(map[string]string{"甲乙": "巳", "丙丁": "申", "戊己": "亥", "庚辛": "寅", "壬癸": "申"})},
	{MarkerHakdang, byDayStem(map[string]string{"甲": "亥", "乙": "午", "丙戊": "寅", "丁己": "酉", "庚": "巳", "辛": "子", "壬": "申", "癸": "卯"})},
	{MarkerMonthVirtue, monthVirtue},
	{MarkerProsperity, byDayStem(map[string]string{"甲": "寅", "乙": "卯", "丙戊": "巳", "丁己": "午", "庚": "申", "辛": "酉", "壬": "亥", "癸": "子"})},
	{MarkerHiddenProsperity, byDayStem(map[string]string{"甲": "亥", "乙": "戌", "丙戊": "申", "丁己": "未", "庚": "巳", "辛": "辰", "壬": "寅", "癸": "丑"})},
	{MarkerGoldenCarriage, byDayStem(map[string]string{"甲": "辰", "乙": "巳", "丙戊": "未", "丁己": "申", "庚": "戌", "辛": "亥", "壬": "丑", "癸": "寅"})},
	{MarkerBlade, byDayStem(map[string]string{"甲": "卯", "乙": "辰", "丙戊": "午", "丁己": "未", "庚": "酉", "辛": "戌", "壬": "子", "癸": "丑"})},
	{MarkerRedFlame, byDayStem(map[string]string{"甲乙": "午", "丙": "寅", "丁": "未", "戊己": "辰", "庚": "戌", "辛": "酉", "壬": "子", "癸": "申"})},
	{MarkerPeachBlossom, spiritIs(SpiritPeachBlossom)},
	{MarkerTravel, spiritIs(SpiritTravel)},
	{MarkerCanopy, spiritIs(SpiritCanopy)},
	{MarkerNeedle, characterIn("甲辛卯午申")},
	{MarkerWhiteTiger, pillarIn("甲辰", "乙未", "丙戌", "丁丑", "戊辰", "壬戌", "癸丑")},
	{MarkerKuiGang, pillarIn("庚辰", "庚戌", "壬辰", "壬戌", "戊戌")},
	{MarkerLonely, dayPillarIn("甲寅", "乙巳", "丁巳", "戊申", "辛亥")},
	{MarkerYinYangError, dayPillarIn("丙子", "丙午", "丁丑", "丁未", "戊寅", "戊申", "辛卯", "辛酉", "壬辰", "壬戌", "癸巳", "癸亥")},
	{MarkerVoid, isVoid},
}

// scanMarkers evaluates every rule for one pillar and returns the matches
// deduplicated in marker order.
func scanMarkers(in markerInput) []Marker {
	seen := make(map[Marker]bool)
	var out []Marker
	for _, r := range markerRules {
		if !seen[r.marker] && r.match(in) {
			seen[r.marker] = true
			out = append(out, r.marker)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// PillarReport is the per-pillar diagnostic view.
type PillarReport struct {
	Position      Position      `json:"position"`
	Pillar        ganzi.Pillar  `json:"pillar"`
	Korean        string        `json:"korean"`
	StemElement   ganzi.Element `json:"stem_element"`
	BranchElement ganzi.Element `json:"branch_element"`
	StemRole      Role          `json:"stem_role"`
	BranchRole    Role          `json:"branch_role"`
	Hidden        []ganzi.Stem  `json:"hidden_stems"`
	// SpiritByYear and SpiritByDay are counted from the year and day
	// branch triplets.
	SpiritByYear Spirit   `json:"spirit_by_year"`
	SpiritByDay  Spirit   `json:"spirit_by_day"`
	Stage        Stage    `json:"stage"`
	Void         bool     `json:"void"`
	Markers      []Marker `json:"markers"`
}

// Spirits returns the distinct twelve-spirit labels, year anchor first.
func (r PillarReport) Spirits() []Spirit {
	if r.SpiritByYear == r.SpiritByDay {
		return []Spirit{r.SpiritByYear}
	}
	return []Spirit{r.SpiritByYear, r.SpiritByDay}
}

// reportPillars builds the four pillar reports.
func reportPillars(c Chart) [4]PillarReport {
	var out [4]PillarReport
	self := c.Self()
	for _, pos := range Positions {
		p := c.At(pos)
		in := markerInput{
			chart:  c,
			pos:    pos,
			pillar: p,
			spirits: [2]Spirit{
				SpiritOf(c.Year.Branch, p.Branch),
				SpiritOf(c.Day.Branch, p.Branch),
			},
		}
		markers := scanMarkers(in)
		r := PillarReport{
			Position:      pos,
			Pillar:        p,
			Korean:        p.Korean(),
			StemElement:   p.Stem.Element(),
			BranchElement: p.Branch.Element(),
			StemRole:      slotRole(c, Slot(2*int(pos))),
			BranchRole:    BranchRole(self, p.Branch),
			Hidden:        p.Branch.Hidden(),
			SpiritByYear:  in.spirits[0],
			SpiritByDay:   in.spirits[1],
			Stage:         StageOf(self, p.Branch),
			Void:          isVoid(in),
			Markers:       markers,
		}
		if r.Markers == nil {
			r.Markers = []Marker{}
		}
		out[pos] = r
	}
	return out
}
