package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"toolbelt/app"
	"toolbelt/logging"
	"toolbelt/storage"
)

// RunCmd starts the TUI application
type RunCmd struct {
	Demo bool `help:"Seed the database with demo todos and requests"`
}

// Run executes the TUI
func (r *RunCmd) Run(cli *CLI) error {
	logging.Logger.Info("Starting toolbelt TUI", "db_path", cli.DBPath)

	store, err := storage.NewStore(cli.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()

	if r.Demo {
		if err := seedDemoData(store); err != nil {
			return fmt.Errorf("failed to seed demo data: %w", err)
		}
		logging.Logger.Info("Seeded demo data")
	}

	model, err := app.Build(store, cli.settings)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	logging.Logger.Debug("Initializing Bubble Tea program")
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		logging.Logger.Error("TUI program error", "error", err)
		return fmt.Errorf("error running program: %w", err)
	}

	logging.Logger.Info("TUI program exited normally")
	return nil
}
