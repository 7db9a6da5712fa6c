package hub

import (
	"fmt"

	"toolbelt/keymap"
)

// GlobalKeymap builds the hub-level bindings shared by every tool.
// toolTitles drive the numeric switch bindings (1..9) and their
// which-key descriptions. Binding errors are configuration errors and
// abort startup.
func GlobalKeymap(toolTitles []string) (*keymap.Keymap, error) {
	km := keymap.New("global")

	type binding struct {
		spec   string
		desc   string
		action keymap.Action
	}
	bindings := []binding{
		{"space q", "Close", keymap.Global(keymap.ActionQuit)},
		{"space f f", "Find everywhere", keymap.Global(keymap.ActionOpenGlobalSearch)},
		{"space f t", "Switch tool", keymap.Global(keymap.ActionOpenToolPicker)},
		{"?", "Keybinding help", keymap.Global(keymap.ActionToggleWhichKey)},
		{":", "Command line", keymap.Global(keymap.ActionEnterCommandLine)},
		{"/", "Search in tool", keymap.Global(keymap.ActionOpenLocalSearch)},
		{"tab", "Next tool", keymap.Global(keymap.ActionNextTool)},
		{"shift+tab", "Previous tool", keymap.Global(keymap.ActionPrevTool)},
		{"g t", "Next tool tab", keymap.Global(keymap.ActionNextTool)},
		{"g T", "Previous tool tab", keymap.Global(keymap.ActionPrevTool)},
		{"g h", "Go to dashboard", keymap.SwitchTool(Dashboard)},
	}
	for i, title := range toolTitles {
		if i >= 9 {
			break
		}
		bindings = append(bindings, binding{
			spec:   fmt.Sprintf("%d", i+1),
			desc:   title,
			action: keymap.SwitchTool(i),
		})
	}

	groups := []struct{ spec, desc string }{
		{"space", "leader"},
		{"space f", "find"},
		{"g", "go"},
	}
	for _, g := range groups {
		if err := km.Group(keymap.ModeNormal, g.spec, g.desc); err != nil {
			return nil, err
		}
	}
	for _, b := range bindings {
		if err := km.Bind(keymap.ModeNormal, b.spec, b.desc, b.action); err != nil {
			return nil, err
		}
	}
	if err := km.Validate(); err != nil {
		return nil, err
	}
	return km, nil
}
