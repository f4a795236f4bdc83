package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zapponejosh/saju-api/internal/calendar"
	"github.com/zapponejosh/saju-api/internal/engine"
	"github.com/zapponejosh/saju-api/internal/ganzi"
)

// Element colors follow the traditional palette.
var elementColors = [5]lipgloss.Color{
	ganzi.Wood:  lipgloss.Color("#4CAF50"),
	ganzi.Fire:  lipgloss.Color("#E53935"),
	ganzi.Earth: lipgloss.Color("#FFC107"),
	ganzi.Metal: lipgloss.Color("#B0BEC5"),
	ganzi.Water: lipgloss.Color("#2196F3"),
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BC34A"))
	labelStyle  = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#78909C"))
	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#2a3850")).
			Padding(0, 1).
			Align(lipgloss.Center)
	selfColumnStyle = columnStyle.BorderForeground(lipgloss.Color("#8BC34A"))
)

func elementStyle(e ganzi.Element) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(elementColors[e%5])
}

func stemCell(s ganzi.Stem) string {
	return elementStyle(s.Element()).Render(s.String() + " " + s.Korean())
}

func branchCell(b ganzi.Branch) string {
	return elementStyle(b.Element()).Render(b.String() + " " + b.Korean())
}

func elementList(list []ganzi.Element) string {
	if len(list) == 0 {
		return mutedStyle.Render("-")
	}
	parts := make([]string, len(list))
	for i, e := range list {
		parts[i] = elementStyle(e).Render(e.Hanja() + e.Korean())
	}
	return strings.Join(parts, " ")
}

func signed(n int) string {
	if n > 0 {
		return fmt.Sprintf("+%d", n)
	}
	return fmt.Sprintf("%d", n)
}

// table renders rows under a header with padded columns.
type table struct {
	headers []string
	rows    [][]string
}

func (t *table) add(row ...string) { t.rows = append(t.rows, row) }

func (t *table) String() string {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	var sb strings.Builder
	line := func(cells []string, style *lipgloss.Style) {
		for i, cell := range cells {
			if i >= len(widths) {
				break
			}
			if style != nil {
				cell = style.Render(cell)
			}
			sb.WriteString(cell)
			if i < len(widths)-1 {
				sb.WriteString(strings.Repeat(" ", widths[i]-lipgloss.Width(cell)+2))
			}
		}
		sb.WriteString("\n")
	}
	line(t.headers, &labelStyle)
	for _, row := range t.rows {
		line(row, nil)
	}
	return sb.String()
}

// pillarColumn is one boxed pillar of the chart, top to bottom.
func pillarColumn(r engine.PillarReport) string {
	spirits := make([]string, 0, 2)
	for _, s := range r.Spirits() {
		spirits = append(spirits, s.String())
	}
	body := lipgloss.JoinVertical(lipgloss.Center,
		labelStyle.Render(r.Position.Korean()+"주"),
		mutedStyle.Render(r.StemRole.String()),
		stemCell(r.Pillar.Stem),
		branchCell(r.Pillar.Branch),
		mutedStyle.Render(r.BranchRole.String()),
		r.Stage.String(),
		mutedStyle.Render(strings.Join(spirits, "·")),
	)
	if r.Position == engine.DayPos {
		return selfColumnStyle.Render(body)
	}
	return columnStyle.Render(body)
}

// renderAnalysis lays the result out like a printed chart: pillars right
// to left (hour first), then strength, favorable elements and luck.
func renderAnalysis(r *engine.AnalysisResult) string {
	var sb strings.Builder
	m := r.Moment

	fmt.Fprintf(&sb, "%s %s (%s) %s\n", titleStyle.Render("사주"), r.Birth, m.Calendar, r.Gender)
	fmt.Fprintf(&sb, "%s %s\n", labelStyle.Render("원국"), r.Chart)
	fmt.Fprintf(&sb, "%s %s %.2f°E\n", labelStyle.Render("위치"), m.Location.Name, m.Location.Longitude)
	c := m.Corrections
	fmt.Fprintf(&sb, "%s %s %s\n", labelStyle.Render("보정"), m.Corrected.Format("2006-01-02 15:04"),
		mutedStyle.Render(fmt.Sprintf("(표준시 %s분, 서머타임 %s분, 경도 %s분, 균시차 %s분)",
			signed(c.Era), signed(c.DST), signed(c.Longitude), signed(c.EquationOfTime))))
	if adj := r.Resolution.Adjustment; adj != nil {
		fmt.Fprintf(&sb, "%s %s %s: %s%s → %s%s\n", labelStyle.Render("절입"), adj.Term,
			adj.At.Format("2006-01-02 15:04"), adj.TableYear, adj.TableMonth, r.Chart.Year, r.Chart.Month)
	}
	sb.WriteString("\n")

	cols := make([]string, 0, 4)
	for i := len(r.Pillars) - 1; i >= 0; i-- {
		cols = append(cols, pillarColumn(r.Pillars[i]))
	}
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cols...))
	sb.WriteString("\n\n")

	st := r.Strength
	fmt.Fprintf(&sb, "%s %s %.1f (%s, %s)\n", labelStyle.Render("강약"),
		st.Status, st.Index, st.Scheme, r.Self.String()+r.SelfElement.Hanja())
	dist := make([]string, 0, len(st.Distribution))
	for _, d := range st.Distribution {
		dist = append(dist, elementStyle(d.Element).Render(fmt.Sprintf("%s %.1f%%", d.Element.Hanja(), d.Percent)))
	}
	fmt.Fprintf(&sb, "%s %s\n", labelStyle.Render("오행"), strings.Join(dist, "  "))

	roles := make([]string, 0, len(r.Roles))
	for _, rs := range r.Roles {
		if rs.Count > 0 {
			roles = append(roles, fmt.Sprintf("%s %.1f%%", rs.Role, rs.Percent))
		}
	}
	fmt.Fprintf(&sb, "%s %s\n", labelStyle.Render("십성"), strings.Join(roles, "  "))

	f := r.Favorable
	fmt.Fprintf(&sb, "%s %s (%s) %s %s\n", labelStyle.Render("용신"), elementList(f.Elements), f.Strategy,
		mutedStyle.Render("원국:"), elementList(f.Present))
	fmt.Fprintf(&sb, "%s %s %s\n", labelStyle.Render("조후"), elementList([]ganzi.Element{f.Seasonal.Element}),
		mutedStyle.Render(f.Seasonal.Reason))

	if len(r.Interactions) > 0 {
		names := make([]string, len(r.Interactions))
		for i, in := range r.Interactions {
			names[i] = in.Name
		}
		fmt.Fprintf(&sb, "%s %s\n", labelStyle.Render("합충"), strings.Join(names, ", "))
	}

	for _, p := range r.Pillars {
		if len(p.Markers) == 0 {
			continue
		}
		marks := make([]string, len(p.Markers))
		for i, mk := range p.Markers {
			marks[i] = mk.String()
		}
		fmt.Fprintf(&sb, "%s %s\n", labelStyle.Render(p.Position.Korean()+"주 신살"), strings.Join(marks, ", "))
	}

	dir := "순행"
	if !r.Luck.Forward {
		dir = "역행"
	}
	fmt.Fprintf(&sb, "\n%s %s, %d세 시작 (%.1f일)\n", titleStyle.Render("대운"), dir, r.Luck.StartAge, r.Luck.DaysToTerm)
	lt := &table{headers: []string{"나이", "대운", "천간", "지지", "점수"}}
	for _, p := range r.Luck.Periods {
		lt.add(fmt.Sprintf("%d-%d", p.StartAge, p.EndAge), p.Pillar.String()+" "+p.Korean,
			p.StemRole.String(), p.BranchRole.String(), fmt.Sprintf("%d", p.Score))
	}
	sb.WriteString(lt.String())

	if cur := r.Current; cur != nil {
		fmt.Fprintf(&sb, "\n%s %s, %d세", titleStyle.Render("현재"), calendar.FormatDate(cur.Date), cur.Age)
		if cur.Luck != nil {
			fmt.Fprintf(&sb, ", 대운 %s", cur.Luck.Pillar)
		}
		if cur.Today != nil {
			fmt.Fprintf(&sb, ", %s년 %s월 %s일", cur.Today.Year, cur.Today.Month, cur.Today.Day)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func renderAnnual(entries []engine.AnnualEntry) string {
	t := &table{headers: []string{"연도", "나이", "세운", "천간", "지지"}}
	for _, e := range entries {
		t.add(fmt.Sprintf("%d", e.Year), fmt.Sprintf("%d", e.Age), e.Pillar.String()+" "+e.Korean,
			e.StemRole.String(), e.BranchRole.String())
	}
	return titleStyle.Render("세운") + "\n" + t.String()
}

func renderMonthly(entries []engine.MonthlyEntry) string {
	t := &table{headers: []string{"월", "절기", "시작", "월운", "천간", "지지"}}
	for _, e := range entries {
		t.add(fmt.Sprintf("%d", e.Month), e.Term, e.Start.Format("2006-01-02 15:04"), e.Pillar.String()+" "+e.Korean,
			e.StemRole.String(), e.BranchRole.String())
	}
	return titleStyle.Render("월운") + "\n" + t.String()
}

func renderMonth(v *engine.MonthView) string {
	t := &table{headers: []string{"날짜", "요일", "일진", "음력", "절기"}}
	for _, d := range v.Days {
		lunar := ""
		if d.Lunar != nil {
			lunar = fmt.Sprintf("%d.%d", d.Lunar.Month, d.Lunar.Day)
			if d.Lunar.Leap {
				lunar = "윤" + lunar
			}
		}
		term := ""
		if d.Term != nil {
			term = d.Term.Name
		}
		t.add(d.Date.Format("01-02"), d.Weekday, d.Day.String()+" "+d.Korean, lunar, term)
	}
	head := fmt.Sprintf("%d년 %d월", v.Year, v.Month)
	if len(v.Days) > 0 {
		head += fmt.Sprintf(" (%s년 %s월)", v.Days[0].Year, v.Days[0].Month)
	}
	return titleStyle.Render(head) + "\n" + t.String()
}
