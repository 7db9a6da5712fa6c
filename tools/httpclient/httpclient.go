// Package httpclient is the HTTP request tool: a persisted request
// collection where sends run on the background task bridge so slow
// endpoints never freeze the input loop.
package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"toolbelt/bridge"
	"toolbelt/keymap"
	"toolbelt/logging"
	"toolbelt/storage"
	"toolbelt/telescope"
)

// SlotSend is the bridge slot carrying request execution. A re-send
// while a send is in flight supersedes it; only the newest response is
// ever shown.
const SlotSend = "send"

// bodyExcerptLimit caps how much of a response body travels back to
// the render loop.
const bodyExcerptLimit = 2048

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	cursorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	methodStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	rowStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	responseStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
	errStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

// Tool is the HTTP client.
type Tool struct {
	store  *storage.Store
	tasks  *bridge.Bridge
	client *http.Client
	km     *keymap.Keymap
	mode   keymap.Mode

	requests []storage.Request
	cursor   int

	form  *huh.Form
	draft storage.Request

	sending  bool
	response string
	respErr  error
	loadErr  error
}

// New builds the tool and loads the saved collection.
func New(store *storage.Store) (*Tool, error) {
	t := &Tool{
		store:  store,
		tasks:  bridge.New(),
		client: &http.Client{Timeout: 30 * time.Second},
		mode:   keymap.ModeNormal,
	}
	km, err := buildKeymap()
	if err != nil {
		return nil, err
	}
	t.km = km
	t.reload()
	return t, nil
}

func buildKeymap() (*keymap.Keymap, error) {
	km := keymap.New("http")

	normal := []struct {
		spec, desc, payload string
	}{
		{"j", "Down", "down"},
		{"k", "Up", "up"},
		{"g g", "Go to top", "top"},
		{"G", "Go to bottom", "bottom"},
		{"enter", "Send request", "send"},
		{"s", "Send request (s)", "send"},
		{"a", "New request", "add"},
		{"e", "Edit request", "edit"},
		{"d d", "Delete request", "delete"},
		{"space r s", "Send request", "send"},
		{"space r a", "New request", "add"},
	}
	groups := []struct{ spec, desc string }{
		{"g", "go"},
		{"d", "delete"},
		{"space", "leader"},
		{"space r", "requests"},
	}
	for _, g := range groups {
		if err := km.Group(keymap.ModeNormal, g.spec, g.desc); err != nil {
			return nil, err
		}
	}
	for _, b := range normal {
		if err := km.Bind(keymap.ModeNormal, b.spec, b.desc, keymap.ToolLocal(b.payload)); err != nil {
			return nil, err
		}
	}
	return km, km.Validate()
}

func (t *Tool) reload() {
	requests, err := t.store.ListRequests(context.Background())
	if err != nil {
		t.loadErr = err
		logging.Logger.Error("request list load failed", "error", err)
		return
	}
	t.loadErr = nil
	t.requests = requests
	if t.cursor >= len(t.requests) {
		t.cursor = len(t.requests) - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
}

// Title implements hub.Tool.
func (t *Tool) Title() string { return "HTTP" }

// Description implements hub.Tool.
func (t *Tool) Description() string { return "Saved requests and responses" }

// Mode implements hub.Tool.
func (t *Tool) Mode() keymap.Mode { return t.mode }

// Keymap implements hub.Tool.
func (t *Tool) Keymap() *keymap.Keymap { return t.km }

// SearchItems implements hub.Tool.
func (t *Tool) SearchItems() []telescope.Item {
	items := make([]telescope.Item, 0, len(t.requests))
	for _, req := range t.requests {
		items = append(items, telescope.Item{
			ID:        strconv.FormatUint(uint64(req.ID), 10),
			Primary:   req.Name,
			Secondary: req.Method + " " + req.URL,
		})
	}
	return items
}

// NavigateTo implements hub.Tool.
func (t *Tool) NavigateTo(itemID string) {
	id, err := strconv.ParseUint(itemID, 10, 64)
	if err != nil {
		return
	}
	for i, req := range t.requests {
		if uint64(req.ID) == id {
			t.cursor = i
			return
		}
	}
}

// HandleAction implements hub.Tool.
func (t *Tool) HandleAction(payload string) tea.Cmd {
	switch payload {
	case "down":
		t.move(1)
	case "up":
		t.move(-1)
	case "top":
		t.cursor = 0
	case "bottom":
		t.cursor = len(t.requests) - 1
		if t.cursor < 0 {
			t.cursor = 0
		}
	case "send":
		t.send()
	case "add":
		t.draft = storage.Request{Method: "GET"}
		return t.openForm()
	case "edit":
		if req, ok := t.current(); ok {
			t.draft = req
			return t.openForm()
		}
	case "delete":
		if req, ok := t.current(); ok {
			if err := t.store.DeleteRequest(context.Background(), req.ID); err != nil {
				logging.Logger.Error("request delete failed", "id", req.ID, "error", err)
			}
			t.reload()
		}
	}
	return nil
}

// send spawns the request on the bridge. Spawning into a busy slot
// supersedes the in-flight send, so a late response from the old
// attempt is discarded rather than shown.
func (t *Tool) send() {
	req, ok := t.current()
	if !ok {
		return
	}
	// Another session over the same database may have edited the row
	// since the last reload; execute what is stored, not the cache.
	if fresh, err := t.store.GetRequest(context.Background(), req.ID); err == nil {
		req = *fresh
	}
	t.sending = true
	t.response = ""
	t.respErr = nil
	client := t.client
	t.tasks.Spawn(SlotSend, func() (string, error) {
		return execute(client, req)
	})
}

// execute runs off the render loop.
func execute(client *http.Client, req storage.Request) (string, error) {
	httpReq, err := http.NewRequest(req.Method, req.URL, strings.NewReader(req.Body))
	if err != nil {
		return "", fmt.Errorf("building request %s: %w", req.Name, err)
	}
	if req.Headers != "" {
		var headers map[string]string
		if err := json.Unmarshal([]byte(req.Headers), &headers); err != nil {
			return "", fmt.Errorf("parsing headers for %s: %w", req.Name, err)
		}
		for name, value := range headers {
			httpReq.Header.Set(name, value)
		}
	}

	start := time.Now()
	resp, err := client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, bodyExcerptLimit))
	if err != nil {
		return "", fmt.Errorf("reading response for %s: %w", req.Name, err)
	}
	return fmt.Sprintf("%s in %s\n%s", resp.Status, time.Since(start).Round(time.Millisecond), string(body)), nil
}

func (t *Tool) openForm() tea.Cmd {
	t.form = huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Name").
			Value(&t.draft.Name).
			Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("name required")
				}
				return nil
			}),
		huh.NewSelect[string]().
			Title("Method").
			Options(huh.NewOptions("GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS")...).
			Value(&t.draft.Method),
		huh.NewInput().
			Title("URL").
			Value(&t.draft.URL).
			Validate(func(s string) error {
				if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
					return fmt.Errorf("url must start with http:// or https://")
				}
				return nil
			}),
		huh.NewText().
			Title("Headers (JSON object)").
			Value(&t.draft.Headers),
		huh.NewText().
			Title("Body").
			Value(&t.draft.Body),
	))
	t.mode = keymap.ModeInsert
	return t.form.Init()
}

// HandleText implements hub.Tool: Insert mode feeds the request form.
func (t *Tool) HandleText(msg tea.KeyMsg) tea.Cmd {
	if t.mode != keymap.ModeInsert || t.form == nil {
		return nil
	}
	if keymap.ChordOf(msg) == keymap.ChordEscape {
		t.form = nil
		t.mode = keymap.ModeNormal
		return nil
	}

	form, cmd := t.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		t.form = f
	}
	if t.form.State == huh.StateCompleted {
		if err := t.store.SaveRequest(context.Background(), &t.draft); err != nil {
			logging.Logger.Error("request save failed", "name", t.draft.Name, "error", err)
		}
		t.form = nil
		t.mode = keymap.ModeNormal
		t.reload()
	}
	return cmd
}

// HandleCommand implements hub.Tool: `:send` fires the current request.
func (t *Tool) HandleCommand(cmd string) bool {
	if cmd == "send" {
		t.send()
		return true
	}
	return false
}

// HandleDeadline implements hub.Tool; the client schedules none.
func (t *Tool) HandleDeadline(string) {}

// Bridge implements hub.Tool.
func (t *Tool) Bridge() *bridge.Bridge { return t.tasks }

// HandleTaskResult implements hub.Tool: responses land here on a later
// tick. Failures are shown, never dropped.
func (t *Tool) HandleTaskResult(slot string, res bridge.Result) {
	if slot != SlotSend {
		return
	}
	t.sending = false
	t.response = res.Payload
	t.respErr = res.Err
}

func (t *Tool) move(delta int) {
	if len(t.requests) == 0 {
		return
	}
	t.cursor += delta
	if t.cursor < 0 {
		t.cursor = 0
	}
	if t.cursor >= len(t.requests) {
		t.cursor = len(t.requests) - 1
	}
}

func (t *Tool) current() (storage.Request, bool) {
	if t.cursor < 0 || t.cursor >= len(t.requests) {
		return storage.Request{}, false
	}
	return t.requests[t.cursor], true
}

// View implements hub.Tool.
func (t *Tool) View(width, height int) string {
	if t.mode == keymap.ModeInsert && t.form != nil {
		return lipgloss.NewStyle().Width(width).MaxHeight(height).Render(t.form.View())
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Requests"))
	b.WriteString("\n\n")

	if t.loadErr != nil {
		b.WriteString(errStyle.Render("could not load requests: " + t.loadErr.Error()))
		return b.String()
	}
	if len(t.requests) == 0 {
		b.WriteString(dimStyle.Render("no saved requests, press a to create one"))
	}
	for i, req := range t.requests {
		marker := "  "
		if i == t.cursor {
			marker = cursorStyle.Render("❯ ")
		}
		b.WriteString(fmt.Sprintf("%s%s %s  %s\n",
			marker,
			methodStyle.Render(fmt.Sprintf("%-7s", req.Method)),
			rowStyle.Render(req.Name),
			dimStyle.Render(req.URL)))
	}

	switch {
	case t.sending:
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("sending..."))
	case t.respErr != nil:
		b.WriteString("\n")
		b.WriteString(responseStyle.Render(errStyle.Render(t.respErr.Error())))
	case t.response != "":
		b.WriteString("\n")
		b.WriteString(responseStyle.Render(t.response))
	}
	return lipgloss.NewStyle().Width(width).MaxHeight(height).Render(b.String())
}
