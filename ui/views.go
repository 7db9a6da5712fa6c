package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"toolbelt/version"
)

// TabBar renders the tool tabs. active is the index into tabs (the
// dashboard occupies slot 0).
func TabBar(tabs []string, active int, width int) string {
	parts := make([]string, len(tabs))
	for i, tab := range tabs {
		label := fmt.Sprintf("%d:%s", i, tab)
		if i == 0 {
			label = tab
		}
		if i == active {
			parts[i] = tabActiveStyle.Render(label)
		} else {
			parts[i] = tabInactiveStyle.Render(label)
		}
	}
	bar := lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	return lipgloss.NewStyle().Width(width).Render(bar)
}

// DashboardEntry is one tool line on the home screen.
type DashboardEntry struct {
	Index       int
	Title       string
	Description string
}

// Dashboard renders the home screen with the registered tools.
func Dashboard(entries []DashboardEntry, width, height int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Toolbelt"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(version.Tagline))
	b.WriteString("\n\n")
	for _, e := range entries {
		b.WriteString(fmt.Sprintf("  %s  %s  %s\n",
			keyStyle.Render(fmt.Sprintf("[%d]", e.Index)),
			normalStyle.Render(e.Title),
			dimStyle.Render(e.Description)))
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("  space leader · ? keys · / search · : commands"))
	return lipgloss.NewStyle().Width(width).Height(height).Render(b.String())
}

// StatusBar renders the bottom line: mode badge plus any pending key
// sequence awaiting disambiguation.
func StatusBar(mode, pending string, width int) string {
	left := modeStyle.Render(mode)
	if pending != "" {
		left += pendingStyle.Render(pending)
	}
	return lipgloss.NewStyle().Width(width).Render(left)
}

// Compose stacks the chrome into the final frame. The overlay, when
// present, floats between content and status bar.
func Compose(header, content, overlay, status string, width, height int) string {
	sections := []string{header, content}
	if overlay != "" {
		sections = append(sections, overlay)
	}
	sections = append(sections, status)
	frame := lipgloss.JoinVertical(lipgloss.Left, sections...)
	return lipgloss.NewStyle().Width(width).MaxHeight(height).Render(frame)
}
