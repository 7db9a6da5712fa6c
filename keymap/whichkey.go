package keymap

// WhichKeyEntry is one row of the which-key overlay: either a leaf
// (selecting it fires Action) or a group (selecting it descends one
// level). The tree is derived fresh from the live keymaps on every
// open or descent, so it can never drift from the bindings.
type WhichKeyEntry struct {
	Chord       Chord
	Description string
	Action      Action
	Group       bool
}

// WhichKeyTree lists the continuations reachable from a prefix across
// layered keymaps, in binding registration order. An earlier layer
// shadows same-chord entries from later layers, mirroring the
// matcher's precedence.
func WhichKeyTree(layers []*Keymap, mode Mode, prefix Sequence) []WhichKeyEntry {
	var entries []WhichKeyEntry
	seen := make(map[Chord]bool)
	for _, layer := range layers {
		n, ok := layer.at(mode, prefix)
		if !ok {
			continue
		}
		for _, c := range n.order {
			if seen[c] {
				continue
			}
			seen[c] = true
			child := n.children[c]
			entries = append(entries, WhichKeyEntry{
				Chord:       c,
				Description: child.desc,
				Action:      child.action,
				Group:       len(child.children) > 0,
			})
		}
	}
	return entries
}

// WhichKeyTitle returns the label registered for a prefix, preferring
// earlier layers. The empty prefix has no label; callers title the
// root themselves.
func WhichKeyTitle(layers []*Keymap, mode Mode, prefix Sequence) string {
	if len(prefix) == 0 {
		return ""
	}
	for _, layer := range layers {
		if n, ok := layer.at(mode, prefix); ok && n.desc != "" {
			return n.desc
		}
	}
	return ""
}
