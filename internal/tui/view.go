package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"xmlannotator/internal/highlight"
	"xmlannotator/internal/host"
	"xmlannotator/internal/types"
)

const (
	tabWidth     = 4
	maxTabName   = 24
	gutterMark   = "▌"
	lineNumWidth = 5
)

var (
	tabStyle       = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("7"))
	activeTabStyle = tabStyle.Copy().Bold(true).Foreground(lipgloss.Color("#FAFAFA")).Background(lipgloss.Color("#5d5d5d"))
	lineNoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	emptyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	statusStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	normalMode     = lipgloss.NewStyle().Bold(true).Padding(0, 1).Background(lipgloss.Color("4")).Foreground(lipgloss.Color("15"))
	insertMode     = normalMode.Copy().Background(lipgloss.Color("2"))
	tooltipStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	infoStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.tabBar())
	b.WriteString("\n")

	t := m.current()
	h := m.bodyHeight()
	for i := 0; i < h; i++ {
		switch {
		case t == nil && i == 0:
			b.WriteString(emptyStyle.Render("No open documents."))
		case t != nil && t.top+i < t.buf.LineCount():
			b.WriteString(m.renderLine(t, t.top+i))
		default:
			b.WriteString(lineNoStyle.Render("~"))
		}
		b.WriteString("\n")
	}

	b.WriteString(m.statusBar())
	b.WriteString("\n")
	b.WriteString(tooltipStyle.Render(runewidth.Truncate(m.cursorTooltip(), m.width, "…")))
	b.WriteString("\n")
	b.WriteString(m.noticeLine())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) tabBar() string {
	if len(m.tabs) == 0 {
		return tabStyle.Render("xmlannotator")
	}
	parts := make([]string, len(m.tabs))
	for i, t := range m.tabs {
		name := runewidth.Truncate(filepath.Base(t.buf.Path()), maxTabName, "…")
		if t.buf.Dirty() {
			name += "*"
		}
		if i == m.active {
			parts[i] = activeTabStyle.Render(name)
		} else {
			parts[i] = tabStyle.Render(name)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) regionsAt(line int) []types.HighlightRegion {
	var out []types.HighlightRegion
	for _, r := range m.rendered {
		if r.LineIndex == line {
			out = append(out, r)
		}
	}
	return out
}

// strongest picks the region whose colours a shared line is drawn with.
func strongest(regions []types.HighlightRegion) types.HighlightRegion {
	best := regions[0]
	for _, r := range regions[1:] {
		if r.Severity > best.Severity {
			best = r
		}
	}
	return best
}

func (m *Model) renderLine(t *tab, i int) string {
	gutter := " "
	base := lipgloss.NewStyle()
	if regions := m.regionsAt(i); len(regions) > 0 {
		r := strongest(regions)
		gutter = lipgloss.NewStyle().Foreground(lipgloss.Color(r.Style.Border)).Render(gutterMark)
		base = base.Background(lipgloss.Color(r.Style.Fill)).Foreground(lipgloss.Color("#000000"))
	}
	cursor := -1
	if i == t.line {
		cursor = t.col
	}
	avail := m.width - 1 - lineNumWidth
	return gutter + lineNoStyle.Render(fmt.Sprintf("%4d ", i+1)) + styledText(t.buf.Line(i), cursor, avail, base)
}

// styledText renders text with base, marking the rune at cursor (or the end
// of line) in reverse video. A negative cursor draws no cursor.
func styledText(text string, cursor, avail int, base lipgloss.Style) string {
	if avail < 1 {
		return ""
	}
	var before, after strings.Builder
	at := ""
	for i, r := range []rune(text) {
		s := string(r)
		if r == '\t' {
			s = strings.Repeat(" ", tabWidth)
		}
		switch {
		case cursor < 0 || i < cursor:
			before.WriteString(s)
		case i == cursor:
			at = s
		default:
			after.WriteString(s)
		}
	}
	if cursor >= 0 && at == "" {
		at = " "
	}

	head := runewidth.Truncate(before.String(), avail, "…")
	out := render(base, head)
	rem := avail - runewidth.StringWidth(head)
	if at == "" || rem <= 0 {
		return out
	}
	at = runewidth.Truncate(at, rem, "")
	out += base.Copy().Reverse(true).Render(at)
	rem -= runewidth.StringWidth(at)
	if rem > 0 {
		out += render(base, runewidth.Truncate(after.String(), rem, "…"))
	}
	return out
}

func render(s lipgloss.Style, text string) string {
	if text == "" {
		return ""
	}
	return s.Render(text)
}

func (m *Model) statusBar() string {
	mode := normalMode.Render("NORMAL")
	if m.insert {
		mode = insertMode.Render("INSERT")
	}
	t := m.current()
	if t == nil {
		return mode
	}
	info := fmt.Sprintf(" %s  Ln %d, Col %d  %d highlight(s)",
		t.buf.Path(), t.line+1, t.col+1, len(m.rendered))
	return mode + statusStyle.Render(runewidth.Truncate(info, m.width-lipgloss.Width(mode), "…"))
}

func (m *Model) cursorTooltip() string {
	t := m.current()
	if t == nil {
		return ""
	}
	regions := m.regionsAt(t.line)
	parts := make([]string, len(regions))
	for i, r := range regions {
		parts[i] = highlight.PlainTooltip(r.Tooltip)
	}
	return strings.Join(parts, " | ")
}

func (m *Model) noticeLine() string {
	if m.notice == "" {
		return ""
	}
	msg := runewidth.Truncate(m.notice, m.width, "…")
	switch m.noticeLevel {
	case host.LevelError:
		return errStyle.Render(msg)
	case host.LevelWarning:
		return warnStyle.Render(msg)
	default:
		return infoStyle.Render(msg)
	}
}
