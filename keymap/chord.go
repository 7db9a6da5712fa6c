package keymap

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Chord is the normalized label of a single key press including
// modifiers, in Bubble Tea's key naming ("g", "G", "ctrl+d", "esc").
// The space bar is normalized to "space" so sequences stay readable.
type Chord string

// Well-known chords the router treats specially.
const (
	ChordEscape Chord = "esc"
	ChordEnter  Chord = "enter"
	ChordSpace  Chord = "space"
)

// ChordOf normalizes a Bubble Tea key message into a Chord.
func ChordOf(msg tea.KeyMsg) Chord {
	s := msg.String()
	if s == " " {
		return ChordSpace
	}
	return Chord(s)
}

// Printable reports whether the chord is a single printable character
// with no modifier, i.e. raw text in Insert/Command mode.
func (c Chord) Printable() bool {
	if c == ChordSpace {
		return true
	}
	r := []rune(string(c))
	return len(r) == 1 && r[0] >= ' '
}

// Sequence is an ordered buffer of chords awaiting resolution.
type Sequence []Chord

// ParseSequence parses a space-separated chord spec such as
// "g g", "ctrl+d" or "space f". The literal space bar is written "space".
func ParseSequence(spec string) Sequence {
	fields := strings.Fields(spec)
	seq := make(Sequence, 0, len(fields))
	for _, f := range fields {
		seq = append(seq, Chord(f))
	}
	return seq
}

// String renders the sequence back to its space-separated spec form.
func (s Sequence) String() string {
	parts := make([]string, len(s))
	for i, c := range s {
		parts[i] = string(c)
	}
	return strings.Join(parts, " ")
}

// Equal reports whether two sequences hold the same chords.
func (s Sequence) Equal(other Sequence) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}
