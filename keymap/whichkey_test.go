package keymap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhichKeyTreeListsContinuations(t *testing.T) {
	km := testGlobalKeymap(t)
	layers := []*Keymap{km}

	root := WhichKeyTree(layers, ModeNormal, nil)
	require.Len(t, root, 3)
	assert.Equal(t, Chord("g"), root[0].Chord)
	assert.True(t, root[0].Group)
	assert.Equal(t, "Go", root[0].Description)
	assert.Equal(t, Chord("d"), root[1].Chord)
	assert.Equal(t, Chord("q"), root[2].Chord)
	assert.False(t, root[2].Group)

	goGroup := WhichKeyTree(layers, ModeNormal, ParseSequence("g"))
	require.Len(t, goGroup, 3)
	assert.Equal(t, "Go to top", goGroup[0].Description)
	assert.Equal(t, "top", goGroup[0].Action.Payload)
}

func TestWhichKeyLeafMatchesDirectTyping(t *testing.T) {
	km := testGlobalKeymap(t)
	layers := []*Keymap{km}

	// Every leaf reachable from the prefix must resolve to the same
	// action the matcher would produce for the typed sequence.
	for _, entry := range WhichKeyTree(layers, ModeNormal, ParseSequence("g")) {
		m := NewMatcher(km)
		m.Feed(ModeNormal, "g")
		status, action := m.Feed(ModeNormal, entry.Chord)
		require.Equal(t, StatusResolved, status)
		assert.Equal(t, entry.Action, action)
	}
}

func TestWhichKeyToolEntriesShadowGlobal(t *testing.T) {
	global := testGlobalKeymap(t)
	tool := New("todo")
	require.NoError(t, tool.Bind(ModeNormal, "q", "Close list", ToolLocal("close")))

	entries := WhichKeyTree([]*Keymap{tool, global}, ModeNormal, nil)

	var qDescs []string
	for _, e := range entries {
		if e.Chord == "q" {
			qDescs = append(qDescs, e.Description)
		}
	}
	require.Len(t, qDescs, 1, "same-chord global entry is shadowed")
	assert.Equal(t, "Close list", qDescs[0])
}

func TestWhichKeyEmptyPrefixOnUnknownGroup(t *testing.T) {
	km := testGlobalKeymap(t)

	entries := WhichKeyTree([]*Keymap{km}, ModeNormal, ParseSequence("z"))
	assert.Empty(t, entries, "descending into an unknown group yields nothing")
}

func TestWhichKeyTitle(t *testing.T) {
	km := testGlobalKeymap(t)
	layers := []*Keymap{km}

	assert.Equal(t, "Go", WhichKeyTitle(layers, ModeNormal, ParseSequence("g")))
	assert.Equal(t, "", WhichKeyTitle(layers, ModeNormal, nil))
}
