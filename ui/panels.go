package ui

import (
	"fmt"
	"strings"
)

// WhichKeyRow is one binding or group reachable from the current
// which-key prefix.
type WhichKeyRow struct {
	Chord       string
	Description string
	Group       bool
}

// WhichKeyPanel renders the leader-key menu for the current prefix.
func WhichKeyPanel(title string, rows []WhichKeyRow, width int) string {
	var b strings.Builder
	b.WriteString(panelTitleStyle.Render(title))
	b.WriteString("\n")
	if len(rows) == 0 {
		b.WriteString(dimStyle.Render("(no bindings)"))
	}
	for _, row := range rows {
		desc := row.Description
		style := normalStyle
		if row.Group {
			desc = "+" + desc
			style = groupStyle
		}
		b.WriteString(fmt.Sprintf("%s  %s\n",
			keyStyle.Render(fmt.Sprintf("%6s", row.Chord)),
			style.Render(desc)))
	}
	return panelStyle.Width(min(width-2, 48)).Render(strings.TrimRight(b.String(), "\n"))
}

// TelescopeRow is one ranked finder result.
type TelescopeRow struct {
	Tool      string
	Primary   string
	Secondary string
	Selected  bool
}

// TelescopePanel renders the fuzzy finder: query prompt on top,
// ranked results below. Global sessions prefix each row with the
// owning tool.
func TelescopePanel(title, query string, rows []TelescopeRow, global bool, width int) string {
	var b strings.Builder
	b.WriteString(panelTitleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(keyStyle.Render("> "))
	b.WriteString(normalStyle.Render(query))
	b.WriteString("\n")
	if len(rows) == 0 {
		b.WriteString(dimStyle.Render("(no matches)"))
	}
	for _, row := range rows {
		marker := "  "
		style := normalStyle
		if row.Selected {
			marker = "❯ "
			style = selectedStyle
		}
		line := marker
		if global {
			line += sourceStyle.Render(fmt.Sprintf("[%s] ", row.Tool))
		}
		line += style.Render(row.Primary)
		if row.Secondary != "" {
			line += dimStyle.Render("  " + row.Secondary)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return panelStyle.Width(min(width-2, 72)).Render(strings.TrimRight(b.String(), "\n"))
}

// CommandLine renders the `:` prompt overlay around a textinput view.
func CommandLine(inputView string, width int) string {
	return panelStyle.Width(min(width-2, 72)).Render(inputView)
}
