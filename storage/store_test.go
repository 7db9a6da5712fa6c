package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestAddAndListTodos(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.AddTodo(ctx, "Ship demo mode", "seed data for screenshots")
	require.NoError(t, err)
	second, err := store.AddTodo(ctx, "Polish README copy", "")
	require.NoError(t, err)

	todos, err := store.ListTodos(ctx)
	require.NoError(t, err)
	require.Len(t, todos, 2)
	assert.Equal(t, first.ID, todos[0].ID)
	assert.Equal(t, second.ID, todos[1].ID)
	assert.Equal(t, "Ship demo mode", todos[0].Text)
	assert.False(t, todos[0].Done)
}

func TestToggleTodoMovesItBelowOpenItems(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.AddTodo(ctx, "first", "")
	require.NoError(t, err)
	_, err = store.AddTodo(ctx, "second", "")
	require.NoError(t, err)

	require.NoError(t, store.ToggleTodo(ctx, first.ID))

	todos, err := store.ListTodos(ctx)
	require.NoError(t, err)
	require.Len(t, todos, 2)
	assert.Equal(t, "second", todos[0].Text, "open items list before done items")
	assert.True(t, todos[1].Done)

	// Toggling back restores position order.
	require.NoError(t, store.ToggleTodo(ctx, first.ID))
	todos, err = store.ListTodos(ctx)
	require.NoError(t, err)
	assert.Equal(t, "first", todos[0].Text)
}

func TestToggleMissingTodo(t *testing.T) {
	store := newTestStore(t)
	err := store.ToggleTodo(context.Background(), 42)
	assert.Error(t, err)
}

func TestUpdateAndDeleteTodo(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	todo, err := store.AddTodo(ctx, "draft", "")
	require.NoError(t, err)

	require.NoError(t, store.UpdateTodo(ctx, todo.ID, "final", "with a note"))
	todos, err := store.ListTodos(ctx)
	require.NoError(t, err)
	assert.Equal(t, "final", todos[0].Text)
	assert.Equal(t, "with a note", todos[0].Note)

	require.NoError(t, store.DeleteTodo(ctx, todo.ID))
	todos, err = store.ListTodos(ctx)
	require.NoError(t, err)
	assert.Empty(t, todos)

	assert.Error(t, store.DeleteTodo(ctx, todo.ID))
}

func TestSwapTodoPositions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a, err := store.AddTodo(ctx, "a", "")
	require.NoError(t, err)
	b, err := store.AddTodo(ctx, "b", "")
	require.NoError(t, err)

	require.NoError(t, store.SwapTodoPositions(ctx, a.ID, b.ID))

	todos, err := store.ListTodos(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", todos[0].Text)
	assert.Equal(t, "a", todos[1].Text)
}

func TestRequestRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	req := &Request{
		Name:    "get-user",
		Method:  "GET",
		URL:     "https://example.com/users/1",
		Headers: `{"Accept":"application/json"}`,
	}
	require.NoError(t, store.SaveRequest(ctx, req))
	require.NotZero(t, req.ID)

	got, err := store.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "get-user", got.Name)
	assert.Equal(t, "https://example.com/users/1", got.URL)

	// Non-zero ID updates in place.
	got.URL = "https://example.com/users/2"
	require.NoError(t, store.SaveRequest(ctx, got))
	requests, err := store.ListRequests(ctx)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, "https://example.com/users/2", requests[0].URL)
}

func TestListRequestsOrderedByName(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRequest(ctx, &Request{Name: "login", Method: "POST", URL: "https://example.com/auth/login"}))
	require.NoError(t, store.SaveRequest(ctx, &Request{Name: "get-user", Method: "GET", URL: "https://example.com/users/1"}))

	requests, err := store.ListRequests(ctx)
	require.NoError(t, err)
	require.Len(t, requests, 2)
	assert.Equal(t, "get-user", requests[0].Name)
	assert.Equal(t, "login", requests[1].Name)
}

func TestNoteEntriesListFoldersFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.AddNoteEntry(ctx, nil, "zebra", NoteKindNote)
	require.NoError(t, err)
	folder, err := store.AddNoteEntry(ctx, nil, "work", NoteKindFolder)
	require.NoError(t, err)
	_, err = store.AddNoteEntry(ctx, &folder.ID, "standup", NoteKindNote)
	require.NoError(t, err)

	entries, err := store.ListNoteEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "work", entries[0].Name, "folders list before notes")
	assert.Equal(t, "standup", entries[1].Name)
	assert.Equal(t, folder.ID, *entries[1].ParentID)
	assert.Equal(t, "zebra", entries[2].Name)
}

func TestNoteBodyRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	note, err := store.AddNoteEntry(ctx, nil, "scratch", NoteKindNote)
	require.NoError(t, err)

	body, err := store.GetNoteBody(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, "", body, "new notes start with an empty body")

	require.NoError(t, store.SaveNoteBody(ctx, note.ID, "hello, world"))
	body, err = store.GetNoteBody(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello, world", body)
}

func TestFoldersHaveNoBody(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	folder, err := store.AddNoteEntry(ctx, nil, "work", NoteKindFolder)
	require.NoError(t, err)

	_, err = store.GetNoteBody(ctx, folder.ID)
	assert.Error(t, err)
	assert.Error(t, store.SaveNoteBody(ctx, folder.ID, "nope"))

	_, err = store.AddNoteEntry(ctx, nil, "bad", "directory")
	assert.Error(t, err, "unknown kinds are rejected")
}

func TestDeleteNoteEntryRemovesSubtree(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	root, err := store.AddNoteEntry(ctx, nil, "root", NoteKindFolder)
	require.NoError(t, err)
	sub, err := store.AddNoteEntry(ctx, &root.ID, "sub", NoteKindFolder)
	require.NoError(t, err)
	note, err := store.AddNoteEntry(ctx, &sub.ID, "deep", NoteKindNote)
	require.NoError(t, err)
	_, err = store.AddNoteEntry(ctx, nil, "survivor", NoteKindNote)
	require.NoError(t, err)

	require.NoError(t, store.DeleteNoteEntry(ctx, root.ID))

	entries, err := store.ListNoteEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "survivor", entries[0].Name)

	_, err = store.GetNoteBody(ctx, note.ID)
	assert.Error(t, err, "bodies go with their entries")

	assert.Error(t, store.DeleteNoteEntry(ctx, root.ID))
}

func TestRenameAndExpandNoteEntry(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	folder, err := store.AddNoteEntry(ctx, nil, "old", NoteKindFolder)
	require.NoError(t, err)
	assert.False(t, folder.Expanded)

	require.NoError(t, store.RenameNoteEntry(ctx, folder.ID, "new"))
	require.NoError(t, store.SetNoteExpanded(ctx, folder.ID, true))

	entries, err := store.ListNoteEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "new", entries[0].Name)
	assert.True(t, entries[0].Expanded)

	assert.Error(t, store.RenameNoteEntry(ctx, 999, "ghost"))
}

func TestDeleteRequest(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	req := &Request{Name: "tmp", URL: "https://example.com", Method: "GET"}
	require.NoError(t, store.SaveRequest(ctx, req))
	require.NoError(t, store.DeleteRequest(ctx, req.ID))

	_, err := store.GetRequest(ctx, req.ID)
	assert.Error(t, err)
	assert.Error(t, store.DeleteRequest(ctx, req.ID))
}
