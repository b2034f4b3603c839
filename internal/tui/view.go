package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// — styles ——————————————————————————————————————————————————————————————————

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("33")).
			MarginLeft(2)

	dimStyle    = lipgloss.NewStyle().Faint(true)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).PaddingLeft(2)

	helpStyle = lipgloss.NewStyle().
			Faint(true).
			PaddingLeft(2)

	inputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("33")).
			Padding(0, 1)

	menuStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("33")).
			Padding(1, 3).
			Width(40)
)

// chromeHeight is the number of lines around the list.
const chromeHeight = 7

func (m Model) listHeight() int {
	return max(m.height-chromeHeight, 3)
}

func (m Model) View() string {
	if m.width == 0 {
		return ""
	}
	if m.state == stateStatusMenu {
		return m.renderMenuOverlay()
	}

	var b strings.Builder
	b.WriteString(inputStyle.Render(m.input.View()) + "\n")
	b.WriteString(m.renderFilters() + "\n")

	switch {
	case m.err != nil:
		b.WriteString(lipgloss.NewStyle().Padding(1, 2).Render(errStyle.Render("Error: " + m.err.Error())))
	case m.loading && len(m.issues) == 0:
		b.WriteString(lipgloss.NewStyle().Padding(1, 2).Render("Searching…"))
	case len(m.issues) == 0:
		b.WriteString(lipgloss.NewStyle().Padding(1, 2).Render(dimStyle.Render("No issues found")))
	default:
		b.WriteString(m.list.View())
	}
	b.WriteString("\n")

	if m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice) + "\n")
	}
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m Model) renderFilters() string {
	st := m.search.State()

	mine := dimStyle.Render("[ ] assigned to me")
	if st.MineOnly {
		mine = okStyle.Render("[x] assigned to me")
	}

	statuses := dimStyle.Render("all statuses")
	if len(st.Statuses) > 0 {
		statuses = okStyle.Render(strings.Join(st.Statuses, ", "))
	}

	loading := ""
	if m.loading {
		loading = dimStyle.Render("  searching…")
	}
	return helpStyle.Render(mine+"   status: ") + statuses + loading
}

func (m Model) renderHelp() string {
	if m.state == stateStatusMenu {
		return helpStyle.Render("↑/↓ move · space toggle · ctrl+r reload · esc close")
	}
	return helpStyle.Render("↑/↓ select · enter insert · ctrl+a mine · ctrl+s status · esc quit")
}

func (m Model) renderMenu() string {
	var b strings.Builder
	b.WriteString(titleStyle.UnsetMarginLeft().Render("Filter by status") + "\n\n")

	if m.menuBusy && len(m.menu) == 0 {
		b.WriteString(dimStyle.Render("Loading statuses…"))
		return menuStyle.Render(b.String())
	}

	st := m.search.State()
	for i, s := range m.menu {
		cursor := "  "
		if i == m.menuCursor {
			cursor = "> "
		}
		mark := "[ ]"
		if activeStatus(st, s.Name) {
			mark = okStyle.Render("[x]")
		}
		line := fmt.Sprintf("%s%s %s", cursor, mark, s.Name)
		if s.StatusCategory != nil && s.StatusCategory.Name != "" {
			line += dimStyle.Render(" (" + s.StatusCategory.Name + ")")
		}
		b.WriteString(line + "\n")
	}
	return menuStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) renderMenuOverlay() string {
	body := lipgloss.JoinVertical(lipgloss.Left, m.renderMenu(), m.renderHelp())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
}
