package hub

import "fmt"

// Registry is the ordered, fixed-at-startup set of tools. Indices are
// stable for the lifetime of the process so the tab bar and
// SwitchTool bindings never shift.
type Registry struct {
	names []string
	tools []Tool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends a tool under a unique routing name. Keymap problems
// (missing descriptions, duplicate sequences) surface here, before the
// loop starts, never mid-session.
func (r *Registry) Register(name string, t Tool) error {
	if name == "" {
		return fmt.Errorf("tool registered with empty name")
	}
	for _, existing := range r.names {
		if existing == name {
			return fmt.Errorf("tool %q registered twice", name)
		}
	}
	km := t.Keymap()
	if km == nil {
		return fmt.Errorf("tool %q has no keymap", name)
	}
	if err := km.Validate(); err != nil {
		return fmt.Errorf("tool %q: %w", name, err)
	}
	r.names = append(r.names, name)
	r.tools = append(r.tools, t)
	return nil
}

// Len returns the number of registered tools.
func (r *Registry) Len() int { return len(r.tools) }

// Tool returns the tool at index i.
func (r *Registry) Tool(i int) Tool { return r.tools[i] }

// Name returns the routing name of the tool at index i.
func (r *Registry) Name(i int) string { return r.names[i] }

// Index finds a tool by routing name.
func (r *Registry) Index(name string) (int, bool) {
	for i, n := range r.names {
		if n == name {
			return i, true
		}
	}
	return 0, false
}
