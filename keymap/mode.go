package keymap

// Mode is a vim-style input mode. Each tool owns its own Mode; the hub
// owns one more for the dashboard and the global overlays.
type Mode int

const (
	// ModeNormal is the default mode: navigation and actions via keybinds.
	ModeNormal Mode = iota
	// ModeInsert is text input mode, exited with Esc.
	ModeInsert
	// ModeCommand is command-line mode, entered with `:`.
	ModeCommand
)

// String returns the status bar label for the mode.
func (m Mode) String() string {
	switch m {
	case ModeInsert:
		return "INSERT"
	case ModeCommand:
		return "COMMAND"
	default:
		return "NORMAL"
	}
}
