package keymap

import "fmt"

// ConfigError reports an invalid binding registration: a missing
// description, a duplicate sequence, or a group without a label.
// Registration errors are fatal at startup and never occur at runtime.
type ConfigError struct {
	Context  string
	Mode     Mode
	Sequence string
	Reason   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("keymap %q (%s mode): %q: %s", e.Context, e.Mode, e.Sequence, e.Reason)
}

// node is one trie level. Children keep registration order so the
// which-key overlay lists entries the way they were declared.
type node struct {
	desc     string
	action   Action
	terminal bool
	children map[Chord]*node
	order    []Chord
}

func newNode() *node {
	return &node{children: make(map[Chord]*node)}
}

func (n *node) child(c Chord) *node {
	if next, ok := n.children[c]; ok {
		return next
	}
	next := newNode()
	n.children[c] = next
	n.order = append(n.order, c)
	return next
}

// Keymap maps key sequences to actions for one context (the hub's
// global context or a single tool), per mode. It is built once at
// startup and treated as immutable afterwards.
type Keymap struct {
	context string
	modes   map[Mode]*node
}

// New creates an empty keymap for the named context.
func New(context string) *Keymap {
	return &Keymap{context: context, modes: make(map[Mode]*node)}
}

// Context returns the context name the keymap was created with.
func (k *Keymap) Context() string {
	return k.context
}

// Bind registers a terminal binding. The description is mandatory;
// duplicate sequences within one mode are a configuration error.
func (k *Keymap) Bind(mode Mode, spec, desc string, action Action) error {
	seq := ParseSequence(spec)
	if len(seq) == 0 {
		return &ConfigError{k.context, mode, spec, "empty sequence"}
	}
	if desc == "" {
		return &ConfigError{k.context, mode, spec, "binding registered without a description"}
	}
	if action.IsZero() {
		return &ConfigError{k.context, mode, spec, "binding registered without an action"}
	}
	n := k.root(mode)
	for _, c := range seq {
		n = n.child(c)
	}
	if n.terminal {
		return &ConfigError{k.context, mode, spec, "sequence already bound"}
	}
	n.terminal = true
	n.action = action
	n.desc = desc
	return nil
}

// Group labels a prefix so the which-key overlay can title it. Every
// prefix with children must be labeled; Validate enforces this.
func (k *Keymap) Group(mode Mode, spec, desc string) error {
	seq := ParseSequence(spec)
	if len(seq) == 0 {
		return &ConfigError{k.context, mode, spec, "empty group prefix"}
	}
	if desc == "" {
		return &ConfigError{k.context, mode, spec, "group registered without a description"}
	}
	n := k.root(mode)
	for _, c := range seq {
		n = n.child(c)
	}
	n.desc = desc
	return nil
}

// Validate checks that every prefix with continuations carries a
// which-key label. Called once at registration time.
func (k *Keymap) Validate() error {
	for mode, root := range k.modes {
		if err := k.validateNode(mode, root, nil); err != nil {
			return err
		}
	}
	return nil
}

func (k *Keymap) validateNode(mode Mode, n *node, prefix Sequence) error {
	if len(prefix) > 0 && len(n.children) > 0 && n.desc == "" {
		return &ConfigError{k.context, mode, prefix.String(), "prefix group has no description"}
	}
	for _, c := range n.order {
		if err := k.validateNode(mode, n.children[c], append(prefix, c)); err != nil {
			return err
		}
	}
	return nil
}

func (k *Keymap) root(mode Mode) *node {
	if n, ok := k.modes[mode]; ok {
		return n
	}
	n := newNode()
	k.modes[mode] = n
	return n
}

// Resolution describes what a sequence means within one keymap.
type Resolution struct {
	Action           Action
	Description      string
	Terminal         bool // the sequence itself is bound
	HasContinuations bool // the sequence is a strict prefix of longer bindings
}

// Resolve looks a sequence up in O(len(seq)).
func (k *Keymap) Resolve(mode Mode, seq Sequence) Resolution {
	n, ok := k.modes[mode]
	if !ok {
		return Resolution{}
	}
	for _, c := range seq {
		n, ok = n.children[c]
		if !ok {
			return Resolution{}
		}
	}
	return Resolution{
		Action:           n.action,
		Description:      n.desc,
		Terminal:         n.terminal,
		HasContinuations: len(n.children) > 0,
	}
}

// at returns the trie node for a prefix, if any.
func (k *Keymap) at(mode Mode, prefix Sequence) (*node, bool) {
	n, ok := k.modes[mode]
	if !ok {
		return nil, false
	}
	for _, c := range prefix {
		n, ok = n.children[c]
		if !ok {
			return nil, false
		}
	}
	return n, true
}
