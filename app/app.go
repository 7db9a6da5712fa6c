// Package app wires the tools, registry and router into a runnable
// Bubble Tea model. Both the local TUI and the SSH server build their
// models here so the two entry points never drift.
package app

import (
	"fmt"
	"time"

	"toolbelt/config"
	"toolbelt/deadline"
	"toolbelt/hub"
	"toolbelt/storage"
	"toolbelt/tools/httpclient"
	"toolbelt/tools/notes"
	"toolbelt/tools/todo"
	"toolbelt/tools/vault"
)

// DemoPIN unlocks the demo vault provider.
const DemoPIN = "1234"

// Build assembles the hub model over an open store. Registration and
// keymap problems are configuration errors; they abort startup.
func Build(store *storage.Store, settings *config.Settings) (hub.Model, error) {
	queue := deadline.NewQueue()

	todoTool, err := todo.New(store)
	if err != nil {
		return hub.Model{}, fmt.Errorf("building todo tool: %w", err)
	}
	notesTool, err := notes.New(store, queue, "notes")
	if err != nil {
		return hub.Model{}, fmt.Errorf("building notes tool: %w", err)
	}
	httpTool, err := httpclient.New(store)
	if err != nil {
		return hub.Model{}, fmt.Errorf("building http tool: %w", err)
	}
	vaultTool, err := vault.New(
		vault.NewDemoProvider(DemoPIN, vault.DemoEntries()),
		vault.SystemClipboard{},
		queue,
		"vault",
		vaultOptions(settings),
	)
	if err != nil {
		return hub.Model{}, fmt.Errorf("building vault tool: %w", err)
	}

	registry := hub.NewRegistry()
	if err := registry.Register("todo", todoTool); err != nil {
		return hub.Model{}, err
	}
	if err := registry.Register("notes", notesTool); err != nil {
		return hub.Model{}, err
	}
	if err := registry.Register("http", httpTool); err != nil {
		return hub.Model{}, err
	}
	if err := registry.Register("vault", vaultTool); err != nil {
		return hub.Model{}, err
	}

	titles := make([]string, 0, registry.Len())
	for i := 0; i < registry.Len(); i++ {
		titles = append(titles, registry.Tool(i).Title())
	}
	global, err := hub.GlobalKeymap(titles)
	if err != nil {
		return hub.Model{}, err
	}

	return hub.New(registry, global, queue, hubOptions(settings))
}

func hubOptions(settings *config.Settings) hub.Options {
	opts := hub.Options{}
	if settings != nil {
		if settings.SequenceTimeoutMillis != nil {
			opts.SequenceTimeout = time.Duration(*settings.SequenceTimeoutMillis) * time.Millisecond
		}
		if settings.TickMillis != nil {
			opts.TickInterval = time.Duration(*settings.TickMillis) * time.Millisecond
		}
	}
	return opts
}

func vaultOptions(settings *config.Settings) vault.Options {
	opts := vault.Options{}
	if settings != nil {
		if settings.RevealHideSeconds != nil {
			opts.RevealHide = time.Duration(*settings.RevealHideSeconds) * time.Second
		}
		if settings.ClipboardClearSeconds != nil {
			opts.ClipboardClear = time.Duration(*settings.ClipboardClearSeconds) * time.Second
		}
		if settings.AutoLockMinutes != nil {
			opts.AutoLock = time.Duration(*settings.AutoLockMinutes) * time.Minute
		}
	}
	return opts
}
