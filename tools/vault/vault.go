// Package vault is the credential viewer: a locked-by-default entry
// list with reveal, clipboard copy and inactivity auto-lock. Every
// sensitive exposure is bounded by a deadline (reveal auto-hide,
// clipboard auto-clear, auto-lock).
package vault

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"toolbelt/bridge"
	"toolbelt/deadline"
	"toolbelt/keymap"
	"toolbelt/logging"
	"toolbelt/telescope"
)

// SlotUnlock carries the unlock attempt; vault parsing may be slow.
const SlotUnlock = "unlock"

// Deadline payloads routed back through HandleDeadline.
const (
	payloadLock      = "lock"
	payloadClipClear = "clipclear"
	payloadHide      = "hide:" // + entry id
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	cursorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	rowStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	secretStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	lockStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
)

// Options bound how long secrets stay exposed.
type Options struct {
	RevealHide     time.Duration // password reveal auto-hide
	ClipboardClear time.Duration // clipboard auto-clear after a sensitive copy
	AutoLock       time.Duration // inactivity auto-lock
}

func (o Options) withDefaults() Options {
	if o.RevealHide <= 0 {
		o.RevealHide = 30 * time.Second
	}
	if o.ClipboardClear <= 0 {
		o.ClipboardClear = 30 * time.Second
	}
	if o.AutoLock <= 0 {
		o.AutoLock = 15 * time.Minute
	}
	return o
}

// Tool is the vault viewer.
type Tool struct {
	provider Provider
	clip     Clipboard
	queue    *deadline.Queue
	owner    string
	tasks    *bridge.Bridge
	km       *keymap.Keymap
	opts     Options

	mode      keymap.Mode
	locked    bool
	unlocking bool
	entries   []Entry
	cursor    int
	status    string

	pin textinput.Model

	revealed    map[string]bool
	revealTimer map[string]deadline.Handle
	clipTimer   deadline.Handle
	clipArmed   bool
	lockTimer   deadline.Handle
	lockArmed   bool
}

// New builds a locked vault tool. owner is the routing name the hub
// registered the tool under; deadlines are scheduled against it.
func New(provider Provider, clip Clipboard, queue *deadline.Queue, owner string, opts Options) (*Tool, error) {
	pin := textinput.New()
	pin.Prompt = "PIN: "
	pin.EchoMode = textinput.EchoPassword
	pin.CharLimit = 32

	t := &Tool{
		provider:    provider,
		clip:        clip,
		queue:       queue,
		owner:       owner,
		tasks:       bridge.New(),
		opts:        opts.withDefaults(),
		mode:        keymap.ModeNormal,
		locked:      true,
		pin:         pin,
		revealed:    make(map[string]bool),
		revealTimer: make(map[string]deadline.Handle),
	}
	km, err := buildKeymap()
	if err != nil {
		return nil, err
	}
	t.km = km
	return t, nil
}

func buildKeymap() (*keymap.Keymap, error) {
	km := keymap.New("vault")

	normal := []struct {
		spec, desc, payload string
	}{
		{"j", "Down", "down"},
		{"k", "Up", "up"},
		{"g g", "Go to top", "top"},
		{"G", "Go to bottom", "bottom"},
		{"u", "Unlock", "unlock"},
		{"r", "Reveal password", "reveal"},
		{"y u", "Copy username", "copyuser"},
		{"y p", "Copy password", "copypass"},
		{"space v l", "Lock vault", "lock"},
		{"space v u", "Unlock vault", "unlock"},
	}
	groups := []struct{ spec, desc string }{
		{"g", "go"},
		{"y", "yank"},
		{"space", "leader"},
		{"space v", "vault"},
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
	if err := km.Bind(keymap.ModeInsert, "enter", "Submit PIN", keymap.ToolLocal("pin-submit")); err != nil {
		return nil, err
	}
	return km, km.Validate()
}

// Title implements hub.Tool.
func (t *Tool) Title() string { return "Vault" }

// Description implements hub.Tool.
func (t *Tool) Description() string { return "Credentials, locked by default" }

// Mode implements hub.Tool.
func (t *Tool) Mode() keymap.Mode { return t.mode }

// Keymap implements hub.Tool.
func (t *Tool) Keymap() *keymap.Keymap { return t.km }

// SearchItems implements hub.Tool. A locked vault exposes nothing, and
// passwords never enter the search index.
func (t *Tool) SearchItems() []telescope.Item {
	if t.locked {
		return nil
	}
	items := make([]telescope.Item, 0, len(t.entries))
	for _, e := range t.entries {
		items = append(items, telescope.Item{
			ID:        e.ID,
			Primary:   e.Title,
			Secondary: e.Username,
		})
	}
	return items
}

// NavigateTo implements hub.Tool.
func (t *Tool) NavigateTo(itemID string) {
	for i, e := range t.entries {
		if e.ID == itemID {
			t.cursor = i
			return
		}
	}
}

// HandleAction implements hub.Tool. Every handled action counts as
// activity and pushes the auto-lock deadline out.
func (t *Tool) HandleAction(payload string) tea.Cmd {
	defer t.touch()
	switch payload {
	case "down":
		t.move(1)
	case "up":
		t.move(-1)
	case "top":
		t.cursor = 0
	case "bottom":
		t.cursor = len(t.entries) - 1
		if t.cursor < 0 {
			t.cursor = 0
		}
	case "unlock":
		if !t.locked {
			return nil
		}
		t.status = ""
		t.pin.SetValue("")
		t.mode = keymap.ModeInsert
		return t.pin.Focus()
	case "pin-submit":
		return t.submitPIN()
	case "lock":
		t.lock()
	case "reveal":
		t.toggleReveal()
	case "copyuser":
		if e, ok := t.current(); ok {
			t.copy(e.Username, false)
		}
	case "copypass":
		if e, ok := t.current(); ok {
			t.copy(e.Password, true)
		}
	}
	return nil
}

func (t *Tool) submitPIN() tea.Cmd {
	pin := t.pin.Value()
	t.pin.SetValue("")
	t.pin.Blur()
	t.mode = keymap.ModeNormal
	t.unlocking = true
	provider := t.provider
	t.tasks.Spawn(SlotUnlock, func() (string, error) {
		return "", provider.Unlock(pin)
	})
	return nil
}

func (t *Tool) lock() {
	t.provider.Lock()
	t.locked = true
	t.entries = nil
	t.cursor = 0
	t.revealed = make(map[string]bool)
	for _, h := range t.revealTimer {
		t.queue.Cancel(h)
	}
	t.revealTimer = make(map[string]deadline.Handle)
	if t.lockArmed {
		t.queue.Cancel(t.lockTimer)
		t.lockArmed = false
	}
	t.status = ""
}

func (t *Tool) toggleReveal() {
	e, ok := t.current()
	if !ok {
		return
	}
	if t.revealed[e.ID] {
		t.revealed[e.ID] = false
		if h, ok := t.revealTimer[e.ID]; ok {
			t.queue.Cancel(h)
			delete(t.revealTimer, e.ID)
		}
		return
	}
	t.revealed[e.ID] = true
	if h, ok := t.revealTimer[e.ID]; ok {
		t.queue.Cancel(h)
	}
	t.revealTimer[e.ID] = t.queue.Schedule(t.owner, t.opts.RevealHide, payloadHide+e.ID)
}

// copy places text on the clipboard. Sensitive copies arm the
// auto-clear deadline; rescheduling replaces any earlier one.
func (t *Tool) copy(text string, sensitive bool) {
	if err := t.clip.Write(text); err != nil {
		logging.Logger.Error("clipboard write failed", "error", err)
		t.status = "clipboard unavailable"
		return
	}
	if sensitive {
		if t.clipArmed {
			t.queue.Cancel(t.clipTimer)
		}
		t.clipTimer = t.queue.Schedule(t.owner, t.opts.ClipboardClear, payloadClipClear)
		t.clipArmed = true
		t.status = "password copied, clears soon"
	} else {
		t.status = "username copied"
	}
}

// touch reschedules the inactivity auto-lock. Only an unlocked vault
// needs one.
func (t *Tool) touch() {
	if t.locked {
		return
	}
	if t.lockArmed {
		t.queue.Cancel(t.lockTimer)
	}
	t.lockTimer = t.queue.Schedule(t.owner, t.opts.AutoLock, payloadLock)
	t.lockArmed = true
}

// HandleText implements hub.Tool: Insert mode types the PIN.
func (t *Tool) HandleText(msg tea.KeyMsg) tea.Cmd {
	if t.mode != keymap.ModeInsert {
		return nil
	}
	if keymap.ChordOf(msg) == keymap.ChordEscape {
		t.pin.SetValue("")
		t.pin.Blur()
		t.mode = keymap.ModeNormal
		return nil
	}
	var cmd tea.Cmd
	t.pin, cmd = t.pin.Update(msg)
	return cmd
}

// HandleCommand implements hub.Tool: `:lock` locks immediately.
func (t *Tool) HandleCommand(cmd string) bool {
	if cmd == "lock" {
		t.lock()
		return true
	}
	return false
}

// HandleDeadline implements hub.Tool: reveal hide, clipboard clear and
// auto-lock land here.
func (t *Tool) HandleDeadline(payload string) {
	switch {
	case payload == payloadLock:
		t.lockArmed = false
		t.lock()
	case payload == payloadClipClear:
		t.clipArmed = false
		if err := t.clip.Write(""); err != nil {
			logging.Logger.Error("clipboard clear failed", "error", err)
		}
		if t.status == "password copied, clears soon" {
			t.status = "clipboard cleared"
		}
	case strings.HasPrefix(payload, payloadHide):
		id := strings.TrimPrefix(payload, payloadHide)
		t.revealed[id] = false
		delete(t.revealTimer, id)
	}
}

// Bridge implements hub.Tool.
func (t *Tool) Bridge() *bridge.Bridge { return t.tasks }

// HandleTaskResult implements hub.Tool: unlock outcomes arrive here.
func (t *Tool) HandleTaskResult(slot string, res bridge.Result) {
	if slot != SlotUnlock {
		return
	}
	t.unlocking = false
	if res.Err != nil {
		t.status = res.Err.Error()
		return
	}
	entries, err := t.provider.Entries()
	if err != nil {
		t.status = err.Error()
		return
	}
	t.locked = false
	t.entries = entries
	t.cursor = 0
	t.status = ""
	t.touch()
}

func (t *Tool) move(delta int) {
	if len(t.entries) == 0 {
		return
	}
	t.cursor += delta
	if t.cursor < 0 {
		t.cursor = 0
	}
	if t.cursor >= len(t.entries) {
		t.cursor = len(t.entries) - 1
	}
}

func (t *Tool) current() (Entry, bool) {
	if t.locked || t.cursor < 0 || t.cursor >= len(t.entries) {
		return Entry{}, false
	}
	return t.entries[t.cursor], true
}

// View implements hub.Tool.
func (t *Tool) View(width, height int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Vault"))
	b.WriteString("\n\n")

	switch {
	case t.mode == keymap.ModeInsert:
		b.WriteString(t.pin.View())
	case t.unlocking:
		b.WriteString(dimStyle.Render("unlocking..."))
	case t.locked:
		b.WriteString(lockStyle.Render("locked"))
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("press u to unlock"))
	default:
		for i, e := range t.entries {
			marker := "  "
			if i == t.cursor {
				marker = cursorStyle.Render("❯ ")
			}
			password := "••••••••"
			style := dimStyle
			if t.revealed[e.ID] {
				password = e.Password
				style = secretStyle
			}
			b.WriteString(fmt.Sprintf("%s%s  %s  %s\n",
				marker,
				rowStyle.Render(fmt.Sprintf("%-20s", e.Title)),
				dimStyle.Render(fmt.Sprintf("%-20s", e.Username)),
				style.Render(password)))
		}
	}

	if t.status != "" {
		b.WriteString("\n")
		if strings.Contains(t.status, "PIN") || strings.Contains(t.status, "unavailable") {
			b.WriteString(errStyle.Render(t.status))
		} else {
			b.WriteString(dimStyle.Render(t.status))
		}
	}
	return lipgloss.NewStyle().Width(width).MaxHeight(height).Render(b.String())
}
