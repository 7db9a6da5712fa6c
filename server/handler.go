package server

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/ssh"

	"toolbelt/app"
	"toolbelt/logging"
	"toolbelt/storage"
)

// sessionModel wraps the hub model to handle resource cleanup
type sessionModel struct {
	inner     tea.Model
	sessionID string
	startTime time.Time
	store     *storage.Store
}

func (s *sessionModel) Init() tea.Cmd {
	return s.inner.Init()
}

func (s *sessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Check for quit message to trigger cleanup
	if _, ok := msg.(tea.QuitMsg); ok {
		duration := time.Since(s.startTime)

		// Close store before quitting
		if err := s.store.Close(); err != nil {
			logging.Logger.Error("Failed to close store for SSH session",
				"error", err,
				"session_id", s.sessionID,
				"duration", duration.String())
		} else {
			logging.Logger.Debug("Closed store for SSH session",
				"session_id", s.sessionID,
				"duration", duration.String())
		}

		logging.Logger.Info("SSH session ended",
			"session_id", s.sessionID,
			"duration", duration.String())
	}

	updated, cmd := s.inner.Update(msg)
	s.inner = updated
	return s, cmd
}

func (s *sessionModel) View() string {
	return s.inner.View()
}

// teaHandler creates a Bubble Tea model for each SSH session
func (s *Server) teaHandler(sess ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, _ := sess.Pty()
	sessionID := fmt.Sprintf("%s@%s", sess.User(), sess.RemoteAddr().String())

	logging.Logger.Info("New SSH session",
		"session_id", sessionID,
		"user", sess.User(),
		"remote_addr", sess.RemoteAddr().String(),
		"term", pty.Term,
		"window", fmt.Sprintf("%dx%d", pty.Window.Width, pty.Window.Height))

	// Each session gets its own store over the shared database; WAL
	// mode keeps concurrent sessions from blocking each other.
	store, err := storage.NewStore(s.dbPath)
	if err != nil {
		logging.Logger.Error("Failed to open database for SSH session",
			"error", err,
			"session_id", sessionID)
		return errorModel{err}, nil
	}

	model, err := app.Build(store, s.settings)
	if err != nil {
		logging.Logger.Error("Failed to build application for SSH session",
			"error", err,
			"session_id", sessionID)
		store.Close()
		return errorModel{err}, nil
	}

	wrappedModel := &sessionModel{
		inner:     model,
		sessionID: sessionID,
		startTime: time.Now(),
		store:     store,
	}

	return wrappedModel, []tea.ProgramOption{
		tea.WithAltScreen(),
	}
}

// errorModel is a simple model that displays an error
type errorModel struct {
	err error
}

func (e errorModel) Init() tea.Cmd {
	return nil
}

func (e errorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return e, tea.Quit
}

func (e errorModel) View() string {
	return fmt.Sprintf("Error: %v\n", e.err)
}
