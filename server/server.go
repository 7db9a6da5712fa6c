package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"toolbelt/config"
	"toolbelt/logging"
	"toolbelt/paths"

	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/bubbletea"
	wishlogging "github.com/charmbracelet/wish/logging"
)

// shutdownGrace bounds how long open sessions get to wind down.
const shutdownGrace = 30 * time.Second

// Server serves the TUI over SSH. Each session runs its own model
// over its own store; the WAL-mode database is what they share.
type Server struct {
	dbPath         string
	addr           string
	settings       *config.Settings
	authorizedKeys string
	wishServer     *ssh.Server
}

// NewServer builds the wish server. The host key lives under
// $TOOLBELT_HOME/ssh and is generated on first start.
func NewServer(host, port, dbPath string, settings *config.Settings) (*Server, error) {
	s := &Server{
		dbPath:         dbPath,
		addr:           net.JoinHostPort(host, port),
		settings:       settings,
		authorizedKeys: authorizedKeysPath(settings),
	}

	sshDir := paths.GetSSHDir()
	if err := os.MkdirAll(sshDir, 0700); err != nil {
		return nil, fmt.Errorf("creating ssh directory: %w", err)
	}

	wishServer, err := wish.NewServer(
		wish.WithAddress(s.addr),
		wish.WithHostKeyPath(filepath.Join(sshDir, "id_ed25519")),
		wish.WithPublicKeyAuth(s.publicKeyAuth),
		wish.WithMiddleware(
			bubbletea.Middleware(s.teaHandler),
			activeterm.Middleware(),
			wishlogging.Middleware(),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ssh server: %w", err)
	}
	s.wishServer = wishServer
	return s, nil
}

// authorizedKeysPath resolves which key file admits clients: the
// settings.json override when present, else the user's own
// ~/.ssh/authorized_keys.
func authorizedKeysPath(settings *config.Settings) string {
	if settings != nil && settings.AuthorizedKeys != "" {
		return settings.AuthorizedKeys
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".ssh", "authorized_keys")
}

// Start serves until a signal or a listener error stops it.
func (s *Server) Start() error {
	logging.Logger.Info("ssh server starting",
		"address", s.addr,
		"authorized_keys", s.authorizedKeys)
	fmt.Printf("SSH server listening on %s\n", s.addr)

	serveErr := make(chan error, 1)
	go func() { serveErr <- s.wishServer.ListenAndServe() }()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, ssh.ErrServerClosed) {
			return fmt.Errorf("ssh server: %w", err)
		}
		return nil
	case got := <-sig:
		logging.Logger.Info("ssh server stopping", "signal", got.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := s.wishServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ssh server shutdown: %w", err)
	}
	logging.Logger.Info("ssh server stopped")
	return nil
}
