package keymap

import "fmt"

// ActionKind discriminates what a resolved key sequence should do.
type ActionKind int

const (
	// ActionNone is the zero value; it is never bound.
	ActionNone ActionKind = iota
	// ActionQuit closes the active tool, or the hub from the dashboard.
	ActionQuit
	// ActionSwitchTool activates the tool at Action.Tool.
	ActionSwitchTool
	// ActionNextTool activates the next tool tab.
	ActionNextTool
	// ActionPrevTool activates the previous tool tab.
	ActionPrevTool
	// ActionOpenToolPicker opens the telescope over the tool list.
	ActionOpenToolPicker
	// ActionToggleWhichKey opens the which-key overlay at the root.
	ActionToggleWhichKey
	// ActionEnterCommandLine opens the `:` command line.
	ActionEnterCommandLine
	// ActionOpenGlobalSearch opens the telescope across all tools.
	ActionOpenGlobalSearch
	// ActionOpenLocalSearch opens the telescope scoped to the active tool.
	ActionOpenLocalSearch
	// ActionToolLocal carries an opaque payload the owning tool interprets.
	// The hub never inspects the payload.
	ActionToolLocal
)

// Action is what a completed key sequence dispatches.
type Action struct {
	Kind    ActionKind
	Tool    int    // target index for ActionSwitchTool
	Payload string // opaque payload for ActionToolLocal
}

// Global builds a hub-level action.
func Global(kind ActionKind) Action {
	return Action{Kind: kind}
}

// SwitchTool builds an action activating the tool at index i.
func SwitchTool(i int) Action {
	return Action{Kind: ActionSwitchTool, Tool: i}
}

// ToolLocal builds an action whose payload only the owning tool understands.
func ToolLocal(payload string) Action {
	return Action{Kind: ActionToolLocal, Payload: payload}
}

// IsZero reports whether no action is set.
func (a Action) IsZero() bool {
	return a.Kind == ActionNone
}

func (a Action) String() string {
	switch a.Kind {
	case ActionSwitchTool:
		return fmt.Sprintf("switch-tool(%d)", a.Tool)
	case ActionToolLocal:
		return fmt.Sprintf("tool-local(%s)", a.Payload)
	case ActionQuit:
		return "quit"
	case ActionNextTool:
		return "next-tool"
	case ActionPrevTool:
		return "prev-tool"
	case ActionOpenToolPicker:
		return "tool-picker"
	case ActionToggleWhichKey:
		return "which-key"
	case ActionEnterCommandLine:
		return "command-line"
	case ActionOpenGlobalSearch:
		return "global-search"
	case ActionOpenLocalSearch:
		return "local-search"
	default:
		return "none"
	}
}
