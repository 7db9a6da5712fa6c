package keymap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindRequiresDescription(t *testing.T) {
	km := New("global")

	err := km.Bind(ModeNormal, "q", "", Global(ActionQuit))

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Error(), "description")
}

func TestBindRejectsDuplicateSequence(t *testing.T) {
	km := New("global")
	require.NoError(t, km.Bind(ModeNormal, "q", "Quit", Global(ActionQuit)))

	err := km.Bind(ModeNormal, "q", "Quit again", Global(ActionQuit))

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Error(), "already bound")
}

func TestSameSequenceAllowedInDifferentModes(t *testing.T) {
	km := New("global")
	require.NoError(t, km.Bind(ModeNormal, "q", "Quit", Global(ActionQuit)))
	assert.NoError(t, km.Bind(ModeInsert, "q", "Type q", ToolLocal("noop")))
}

func TestValidateRequiresGroupDescriptions(t *testing.T) {
	km := New("global")
	require.NoError(t, km.Bind(ModeNormal, "g g", "Go to top", ToolLocal("top")))

	err := km.Validate()

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "g", cfgErr.Sequence)

	require.NoError(t, km.Group(ModeNormal, "g", "Go"))
	assert.NoError(t, km.Validate())
}

func TestResolveReportsPrefixAndTerminal(t *testing.T) {
	km := New("global")
	require.NoError(t, km.Group(ModeNormal, "g", "Go"))
	require.NoError(t, km.Bind(ModeNormal, "g g", "Go to top", ToolLocal("top")))

	r := km.Resolve(ModeNormal, ParseSequence("g"))
	assert.False(t, r.Terminal)
	assert.True(t, r.HasContinuations)

	r = km.Resolve(ModeNormal, ParseSequence("g g"))
	assert.True(t, r.Terminal)
	assert.False(t, r.HasContinuations)
	assert.Equal(t, "top", r.Action.Payload)

	r = km.Resolve(ModeNormal, ParseSequence("x"))
	assert.False(t, r.Terminal)
	assert.False(t, r.HasContinuations)
}

func TestParseSequence(t *testing.T) {
	seq := ParseSequence("space f t")
	require.Len(t, seq, 3)
	assert.Equal(t, ChordSpace, seq[0])
	assert.Equal(t, "space f t", seq.String())
}

func TestChordPrintable(t *testing.T) {
	assert.True(t, Chord("a").Printable())
	assert.True(t, ChordSpace.Printable())
	assert.False(t, Chord("ctrl+d").Printable())
	assert.False(t, ChordEscape.Printable())
	assert.False(t, ChordEnter.Printable())
}
