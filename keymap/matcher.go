package keymap

// Status is the outcome of feeding one chord into the matcher.
type Status int

const (
	// StatusRejected means no binding starts with the sequence; the
	// buffer was cleared and the chord may be forwarded as raw text.
	StatusRejected Status = iota
	// StatusPending means the sequence is a strict prefix of at least
	// one binding (possibly while also being bound itself); the caller
	// should arm the inactivity timeout.
	StatusPending
	// StatusResolved means a binding completed unambiguously.
	StatusResolved
)

// Matcher resolves a stream of chords against layered keymaps, the
// active tool's keymap taking precedence over the global one. A
// sequence bound in an earlier layer shadows the same sequence in a
// later layer; continuations from any layer keep a prefix alive.
type Matcher struct {
	layers  []*Keymap
	pending Sequence
}

// NewMatcher creates a matcher over keymaps in precedence order.
func NewMatcher(layers ...*Keymap) *Matcher {
	return &Matcher{layers: layers}
}

// SetLayers swaps the layered keymaps (on tool switch) and clears any
// pending sequence.
func (m *Matcher) SetLayers(layers ...*Keymap) {
	m.layers = layers
	m.pending = nil
}

// Pending returns a copy of the buffered sequence.
func (m *Matcher) Pending() Sequence {
	return append(Sequence(nil), m.pending...)
}

// HasPending reports whether chords are buffered awaiting resolution.
func (m *Matcher) HasPending() bool {
	return len(m.pending) > 0
}

// Reset clears the pending sequence. Called on Escape, mode changes
// and overlay transitions.
func (m *Matcher) Reset() {
	m.pending = nil
}

// Feed appends a chord to the pending sequence and resolves it.
// A sequence that is both bound and a prefix of longer bindings stays
// Pending so the longer bindings remain reachable; Flush fires the
// shorter binding when the inactivity timeout expires.
func (m *Matcher) Feed(mode Mode, c Chord) (Status, Action) {
	seq := append(m.pending, c)

	var resolved Action
	terminal := false
	continuations := false
	for _, layer := range m.layers {
		r := layer.Resolve(mode, seq)
		if r.Terminal && !terminal {
			terminal = true
			resolved = r.Action
		}
		if r.HasContinuations {
			continuations = true
		}
	}

	switch {
	case terminal && !continuations:
		m.pending = nil
		return StatusResolved, resolved
	case terminal || continuations:
		m.pending = seq
		return StatusPending, Action{}
	default:
		m.pending = nil
		return StatusRejected, Action{}
	}
}

// Flush resolves an ambiguous pending sequence after the inactivity
// timeout: if the sequence is itself bound, that shorter binding
// fires; otherwise the sequence is simply abandoned. Either way the
// buffer is cleared.
func (m *Matcher) Flush(mode Mode) (Action, bool) {
	if len(m.pending) == 0 {
		return Action{}, false
	}
	seq := m.pending
	m.pending = nil
	for _, layer := range m.layers {
		if r := layer.Resolve(mode, seq); r.Terminal {
			return r.Action, true
		}
	}
	return Action{}, false
}
