// Package hub owns the tool registry, the active-tool pointer and the
// Bubble Tea router that feeds key events through the overlay, the
// layered key sequence matcher and finally the active tool. It also
// drives the render tick that expires deadlines and polls background
// task slots, so tools never own timer goroutines or block the loop.
package hub

import (
	tea "github.com/charmbracelet/bubbletea"

	"toolbelt/bridge"
	"toolbelt/keymap"
	"toolbelt/telescope"
)

// Tool is the capability contract every embedded tool satisfies. Tools
// are registered once at startup and stay resident for the process
// lifetime; switching away never destroys their state.
type Tool interface {
	// Title labels the tab bar entry.
	Title() string
	// Description is the one-line summary shown on the dashboard and
	// in the tool picker.
	Description() string

	// Mode returns the tool's current input mode. Each tool owns its
	// mode; it survives switching away and back.
	Mode() keymap.Mode
	// Keymap returns the tool-local bindings, layered in front of the
	// global keymap while the tool is active. Built once, immutable.
	Keymap() *keymap.Keymap

	// SearchItems snapshots the tool's searchable entities for the
	// telescope. Called when a search session opens, never per keystroke.
	SearchItems() []telescope.Item
	// NavigateTo focuses the entity a telescope confirm selected.
	NavigateTo(itemID string)

	// HandleAction runs a resolved tool-local binding.
	HandleAction(payload string) tea.Cmd
	// HandleText receives raw key input while the tool is in Insert
	// mode and the chord resolved to no binding.
	HandleText(msg tea.KeyMsg) tea.Cmd
	// HandleCommand gets first refusal on a `:` command line entry.
	// Returning false passes the command to the hub built-ins.
	HandleCommand(cmd string) bool

	// HandleDeadline receives a fired deadline the tool scheduled.
	HandleDeadline(payload string)
	// Bridge exposes the tool's background task slots for the hub's
	// per-tick poll.
	Bridge() *bridge.Bridge
	// HandleTaskResult receives one completed background task result.
	HandleTaskResult(slot string, res bridge.Result)

	// View renders the tool into the content area.
	View(width, height int) string
}
