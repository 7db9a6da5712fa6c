package todo

import (
	"context"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolbelt/keymap"
	"toolbelt/storage"
)

func newTestTool(t *testing.T, seed ...string) *Tool {
	t.Helper()
	store, err := storage.NewStore(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	for _, text := range seed {
		_, err := store.AddTodo(context.Background(), text, "")
		require.NoError(t, err)
	}
	tool, err := New(store)
	require.NoError(t, err)
	return tool
}

func typeText(tool *Tool, text string) {
	for _, r := range text {
		tool.HandleText(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func TestNavigationClampsAtEdges(t *testing.T) {
	tool := newTestTool(t, "one", "two", "three")

	tool.HandleAction("up")
	assert.Equal(t, 0, tool.cursor, "up at the top stays put")

	tool.HandleAction("bottom")
	assert.Equal(t, 2, tool.cursor)
	tool.HandleAction("down")
	assert.Equal(t, 2, tool.cursor, "down at the bottom stays put")

	tool.HandleAction("top")
	assert.Equal(t, 0, tool.cursor)
}

func TestMoveReordersTasks(t *testing.T) {
	tool := newTestTool(t, "first", "second", "third")

	tool.HandleAction("movedown")
	require.Len(t, tool.items, 3)
	assert.Equal(t, "second", tool.items[0].Text)
	assert.Equal(t, "first", tool.items[1].Text)
	assert.Equal(t, 1, tool.cursor, "cursor follows the moved task")

	tool.HandleAction("moveup")
	assert.Equal(t, "first", tool.items[0].Text)
	assert.Equal(t, 0, tool.cursor)

	tool.HandleAction("moveup")
	assert.Equal(t, "first", tool.items[0].Text, "moving past the top edge is a no-op")
}

func TestMoveNeverCrossesDoneBoundary(t *testing.T) {
	tool := newTestTool(t, "open", "finished")

	tool.HandleAction("down")
	tool.HandleAction("toggle") // finished sinks below the open items
	tool.HandleAction("top")

	tool.HandleAction("movedown")
	assert.Equal(t, "open", tool.items[0].Text)
	assert.Equal(t, 0, tool.cursor)
	assert.True(t, tool.items[1].Done)
}

func TestToggleMarksDone(t *testing.T) {
	tool := newTestTool(t, "only")

	tool.HandleAction("toggle")
	require.Len(t, tool.items, 1)
	assert.True(t, tool.items[0].Done)
}

func TestDeleteRemovesCurrent(t *testing.T) {
	tool := newTestTool(t, "first", "second")

	tool.HandleAction("down")
	tool.HandleAction("delete")

	require.Len(t, tool.items, 1)
	assert.Equal(t, "first", tool.items[0].Text)
	assert.Equal(t, 0, tool.cursor)
}

func TestAddFlowThroughInsertMode(t *testing.T) {
	tool := newTestTool(t)

	tool.HandleAction("add")
	assert.Equal(t, keymap.ModeInsert, tool.Mode())

	typeText(tool, "write tests")
	tool.HandleAction("commit")

	assert.Equal(t, keymap.ModeNormal, tool.Mode())
	require.Len(t, tool.items, 1)
	assert.Equal(t, "write tests", tool.items[0].Text)
}

func TestEscapeAbandonsEdit(t *testing.T) {
	tool := newTestTool(t, "keep me")

	tool.HandleAction("edit")
	typeText(tool, " changed")
	tool.HandleText(tea.KeyMsg{Type: tea.KeyEsc})

	assert.Equal(t, keymap.ModeNormal, tool.Mode())
	assert.Equal(t, "keep me", tool.items[0].Text)
}

func TestCommitEmptyTextIsNoop(t *testing.T) {
	tool := newTestTool(t)

	tool.HandleAction("add")
	tool.HandleAction("commit")

	assert.Equal(t, keymap.ModeNormal, tool.Mode())
	assert.Empty(t, tool.items)
}

func TestEditRewritesText(t *testing.T) {
	tool := newTestTool(t, "draft")

	tool.HandleAction("edit")
	assert.Equal(t, "draft", tool.input.Value(), "editor is prefilled")
	tool.input.SetValue("final")
	tool.HandleAction("commit")

	require.Len(t, tool.items, 1)
	assert.Equal(t, "final", tool.items[0].Text)
}

func TestSearchItemsAndNavigate(t *testing.T) {
	tool := newTestTool(t, "alpha", "beta")

	items := tool.SearchItems()
	require.Len(t, items, 2)
	assert.Equal(t, "alpha", items[0].Primary)

	tool.NavigateTo(items[1].ID)
	assert.Equal(t, 1, tool.cursor)

	tool.NavigateTo("not-a-number")
	assert.Equal(t, 1, tool.cursor, "bad ids are ignored")
}

func TestKeymapValidates(t *testing.T) {
	km, err := buildKeymap()
	require.NoError(t, err)
	require.NoError(t, km.Validate())

	r := km.Resolve(keymap.ModeNormal, keymap.ParseSequence("d d"))
	assert.True(t, r.Terminal)
	r = km.Resolve(keymap.ModeNormal, keymap.ParseSequence("d"))
	assert.False(t, r.Terminal, "lone d is only a prefix")
	assert.True(t, r.HasContinuations)
}
