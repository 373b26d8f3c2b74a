package tui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"todo-tui/app"
	"todo-tui/model"
)

var (
	pulseFrames = []string{"◐", "◓", "◑", "◒"}
	sparkLevels = []rune("▁▂▃▄▅▆▇█")
)

func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "loading..."
	}

	snap := m.state.Snapshot()
	viewW := m.viewportWidth()
	bodyH := m.bodyHeight()

	parts := []string{m.renderHeader(snap)}

	var body string
	switch m.tab {
	case tabDashboard:
		body = m.renderDashboard(snap, viewW, bodyH)
	default:
		body = m.renderTodos(snap, viewW, bodyH)
	}

	switch {
	case snap.Insert:
		body = lipgloss.Place(viewW, bodyH, lipgloss.Center, lipgloss.Center, m.renderDraft(snap, viewW))
	case m.showHelp:
		body = lipgloss.Place(viewW, bodyH, lipgloss.Center, lipgloss.Center, m.renderHelpOverlay(viewW))
	}

	text, style := m.statusLine(snap.Status)
	hint := m.help.ShortHelpView(m.keys.ShortHelp())
	if snap.Insert {
		hint = m.help.ShortHelpView(m.insertKeys.ShortHelp())
	}
	parts = append(parts, body, m.renderFooter(text, style, hint))
	return strings.Join(parts, "\n")
}

func (m *Model) renderHeader(snap app.Snapshot) string {
	title := lipgloss.NewStyle().Bold(true).Render("todo")
	pulse := lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Render(pulseFrames[m.frame%len(pulseFrames)])

	tabs := make([]string, 0, 2)
	for _, t := range []tab{tabTodos, tabDashboard} {
		tabs = append(tabs, panelTitleStyled(t.String(), t == m.tab))
	}

	summary := fmt.Sprintf("filter: %s • %d active • %d done", snap.Filter, snap.Active, snap.Done)
	if snap.Dirty {
		summary += " • unsaved"
	}
	return lipgloss.JoinHorizontal(lipgloss.Left,
		title, " ", pulse, "  ",
		strings.Join(tabs, "  "),
		lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("  "+summary),
	)
}

func (m *Model) renderTodos(snap app.Snapshot, width, height int) string {
	leftW, rightW := m.paneWidths(width, 1)

	list := m.table.View()
	if len(snap.Rows) == 0 {
		empty := "No tasks yet. Press 'a' to add one."
		if snap.Filter != app.FilterAll {
			empty = fmt.Sprintf("No %s tasks. Press 'f' to change the filter.", snap.Filter)
		}
		list = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render(empty)
	}

	left := lipgloss.NewStyle().Width(leftW).Height(height).Render(list)
	sep := lipgloss.NewStyle().Foreground(lipgloss.Color("240")).
		Render(strings.TrimSuffix(strings.Repeat("│\n", height), "\n"))
	right := lipgloss.NewStyle().Width(rightW).Height(height).Render(
		lipgloss.JoinVertical(lipgloss.Left, panelTitleStyled("Details", false), m.detail.View()),
	)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, sep, right)
}

func (m *Model) renderDashboard(snap app.Snapshot, width, height int) string {
	section := lipgloss.NewStyle().Foreground(lipgloss.Color("111")).Bold(true)
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	rows := []string{
		section.Render("Completion"),
		m.gauge.ViewAs(snap.PercentDone) + fmt.Sprintf(" %3.0f%%", snap.PercentDone*100),
		muted.Render(fmt.Sprintf("%d active • %d done • %d total", snap.Active, snap.Done, snap.Total)),
		"",
		section.Render("By priority"),
	}

	maxCount := 0
	for _, n := range snap.ByPriority {
		if n > maxCount {
			maxCount = n
		}
	}
	barW := clamp(width-16, 5, 50)
	for i, n := range snap.ByPriority {
		p := i + 1
		bar := 0
		if maxCount > 0 {
			bar = n * barW / maxCount
		}
		if n > 0 && bar == 0 {
			bar = 1
		}
		rows = append(rows, fmt.Sprintf("%s P%d %s %d",
			priorityIndicator(p), p,
			lipgloss.NewStyle().Foreground(priorityColor(p)).Render(strings.Repeat("█", bar)),
			n))
	}

	rows = append(rows, "", section.Render("Activity"), sparkline(m.activity, clamp(width-4, 8, activitySamples)))
	return lipgloss.NewStyle().Width(width).Height(height).Padding(0, 1).Render(strings.Join(rows, "\n"))
}

func (m *Model) renderDraft(snap app.Snapshot, width int) string {
	d := snap.Draft
	boxW := clamp(width-8, 30, 72)

	heading := "New task"
	if d.Purpose == app.PurposeTimeframe {
		heading = "Timeframe for " + truncateRunes(d.Title, boxW-20)
	}

	label := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(10)
	activeLabel := lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true).Width(10)

	rows := []string{lipgloss.NewStyle().Bold(true).Render(heading), ""}
	for i, f := range d.Fields {
		active := i == d.Active
		value := d.Value(f)
		if f == app.FieldPriority {
			value = fmt.Sprintf("%s P%d", priorityIndicator(d.Priority), d.Priority)
		} else if active {
			value += "▌"
		}
		l := label
		if active {
			l = activeLabel
		}
		rows = append(rows, l.Render(f.String())+" "+value)
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("220")).
		Padding(0, 1).
		Width(boxW).
		Render(strings.Join(rows, "\n"))
}

func (m *Model) renderHelpOverlay(width int) string {
	popupW := clamp(width-8, 40, 96)
	title := lipgloss.NewStyle().Bold(true).Render("Shortcuts")
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("111")).
		Padding(0, 1).
		Width(popupW).
		Render(title + "\n\n" + m.help.FullHelpView(m.keys.FullHelp()))
}

func (m *Model) renderFooter(statusText string, statusStyle lipgloss.Style, rightHint string) string {
	left := strings.TrimSpace(statusText)
	width := m.viewportWidth()
	rightW := lipgloss.Width(rightHint)

	if utf8.RuneCountInString(left)+rightW+1 > width {
		maxLeft := width - rightW - 1
		if maxLeft < 8 {
			maxLeft = 8
			rightHint = ""
			rightW = 0
		}
		left = truncateRunes(left, maxLeft)
	}

	padding := width - utf8.RuneCountInString(left) - rightW
	if padding < 1 {
		padding = 1
	}
	return statusStyle.Render(left) + strings.Repeat(" ", padding) + rightHint
}

func taskColumns(width int) []table.Column {
	const (
		markW = 3
		prioW = 3
		whenW = 14
		// Each cell carries one column of padding on either side.
		padding = 8
	)
	titleW := width - markW - prioW - whenW - padding
	if titleW < 10 {
		titleW = 10
	}
	return []table.Column{
		{Title: "", Width: markW},
		{Title: "P", Width: prioW},
		{Title: "Title", Width: titleW},
		{Title: "When", Width: whenW},
	}
}

func taskRows(snap app.Snapshot) []table.Row {
	rows := make([]table.Row, 0, len(snap.Rows))
	for _, r := range snap.Rows {
		mark := "[ ]"
		if r.Task.IsDone() {
			mark = "[x]"
		}
		rows = append(rows, table.Row{
			mark,
			fmt.Sprintf("P%d", model.ClampPriority(r.Task.Priority)),
			r.Task.Title,
			r.Task.TimeframeText(),
		})
	}
	return rows
}

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	return s
}

func detailCacheKey(t model.Task, width int) string {
	return fmt.Sprintf("%s|%s|%s|%s|%d", t.ID, t.Status, t.TimeframeText(), t.NotesText(), width)
}

func taskMarkdown(t model.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", t.Title)
	fmt.Fprintf(&b, "**Priority** P%d · **Status** %s", model.ClampPriority(t.Priority), t.Status)
	if tf := t.TimeframeText(); tf != "" {
		fmt.Fprintf(&b, " · **When** %s", tf)
	}
	b.WriteString("\n\n")
	if notes := t.NotesText(); notes != "" {
		b.WriteString(notes)
		b.WriteString("\n")
	} else {
		b.WriteString("_No notes._\n")
	}
	return b.String()
}

// renderMarkdown renders md with glamour and falls back to the raw text.
func renderMarkdown(md, style string, width int) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(clamp(width-2, 10, 120)),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}

// sparkline draws the last width samples scaled to the largest one.
func sparkline(samples []int, width int) string {
	if width <= 0 {
		return ""
	}
	if len(samples) > width {
		samples = samples[len(samples)-width:]
	}
	peak := 0
	for _, s := range samples {
		if s > peak {
			peak = s
		}
	}
	out := make([]rune, 0, width)
	for i := len(samples); i < width; i++ {
		out = append(out, sparkLevels[0])
	}
	for _, s := range samples {
		level := 0
		if peak > 0 {
			level = s * (len(sparkLevels) - 1) / peak
		}
		out = append(out, sparkLevels[level])
	}
	return string(out)
}

func panelTitleStyled(title string, active bool) string {
	base := lipgloss.NewStyle().Bold(true)
	if !active {
		return base.Foreground(lipgloss.Color("245")).Render(title)
	}
	text := base.Foreground(lipgloss.Color("229")).Render(title)
	marker := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")).Render("*")
	return lipgloss.JoinHorizontal(lipgloss.Left, text, " ", marker)
}

func priorityColor(p int) lipgloss.Color {
	switch model.ClampPriority(p) {
	case 1:
		return lipgloss.Color("203")
	case 2:
		return lipgloss.Color("214")
	case 3:
		return lipgloss.Color("220")
	case 4:
		return lipgloss.Color("114")
	default:
		return lipgloss.Color("245")
	}
}

func priorityIndicator(p int) string {
	return lipgloss.NewStyle().Foreground(priorityColor(p)).Render("●")
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	if max <= 1 {
		return "…"
	}
	r := []rune(s)
	return string(r[:max-1]) + "…"
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
