package cmd

import (
	"fmt"

	"toolbelt/logging"
	"toolbelt/server"
)

// ServeCmd starts the SSH server
type ServeCmd struct {
	Host string `help:"Host to bind to" default:"localhost"`
	Port string `help:"Port to listen on" default:"23234"`
}

// Run executes the serve command
func (s *ServeCmd) Run(cli *CLI) error {
	logging.Logger.Info("Starting toolbelt SSH server",
		"host", s.Host,
		"port", s.Port,
		"db_path", cli.DBPath)

	srv, err := server.NewServer(s.Host, s.Port, cli.DBPath, cli.settings)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// Blocks until shutdown
	return srv.Start()
}
