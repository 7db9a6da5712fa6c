package cmd

import (
	"context"

	"golang.org/x/sync/errgroup"

	"toolbelt/storage"
)

// seedDemoData fills an empty database with sample todos, saved
// requests and notes. Existing rows are left alone so repeated --demo
// runs do not pile up duplicates.
func seedDemoData(store *storage.Store) error {
	ctx := context.Background()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		todos, err := store.ListTodos(ctx)
		if err != nil {
			return err
		}
		if len(todos) > 0 {
			return nil
		}
		// Sequential inserts keep the position counter consistent.
		seeds := []struct{ text, note string }{
			{"Review the deploy checklist", "staging first, then prod"},
			{"Rotate the registry credentials", ""},
			{"Write release notes for v0.3", "mention the new search"},
			{"Clean up stale feature branches", ""},
		}
		for _, s := range seeds {
			if _, err := store.AddTodo(ctx, s.text, s.note); err != nil {
				return err
			}
		}
		return nil
	})

	g.Go(func() error {
		requests, err := store.ListRequests(ctx)
		if err != nil {
			return err
		}
		if len(requests) > 0 {
			return nil
		}
		seeds := []storage.Request{
			{
				Name:    "httpbin get",
				Method:  "GET",
				URL:     "https://httpbin.org/get",
				Headers: `{"Accept": "application/json"}`,
			},
			{
				Name:    "httpbin post",
				Method:  "POST",
				URL:     "https://httpbin.org/post",
				Headers: `{"Content-Type": "application/json"}`,
				Body:    `{"hello": "world"}`,
			},
			{
				Name:   "status 500",
				Method: "GET",
				URL:    "https://httpbin.org/status/500",
			},
		}
		for i := range seeds {
			if err := store.SaveRequest(ctx, &seeds[i]); err != nil {
				return err
			}
		}
		return nil
	})

	g.Go(func() error {
		entries, err := store.ListNoteEntries(ctx)
		if err != nil {
			return err
		}
		if len(entries) > 0 {
			return nil
		}
		folder, err := store.AddNoteEntry(ctx, nil, "ideas", storage.NoteKindFolder)
		if err != nil {
			return err
		}
		if err := store.SetNoteExpanded(ctx, folder.ID, true); err != nil {
			return err
		}
		note, err := store.AddNoteEntry(ctx, &folder.ID, "toolbelt v0.4", storage.NoteKindNote)
		if err != nil {
			return err
		}
		return store.SaveNoteBody(ctx, note.ID,
			"- ship the notes sidebar\n- request history for the http tool\n- vault entries from a real kdbx file")
	})

	return g.Wait()
}
