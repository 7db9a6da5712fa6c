// Package todo is the task list tool: a GORM-backed checklist with
// vim-style navigation and an inline Insert-mode editor.
package todo

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"toolbelt/bridge"
	"toolbelt/keymap"
	"toolbelt/logging"
	"toolbelt/storage"
	"toolbelt/telescope"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	cursorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Strikethrough(true)
	itemStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	noteStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Tool is the todo list. It caches the visible rows and reloads them
// from the store after every mutation.
type Tool struct {
	store  *storage.Store
	tasks  *bridge.Bridge
	km     *keymap.Keymap
	mode   keymap.Mode
	items  []storage.Todo
	cursor int

	input   textinput.Model
	editing uint // 0 while adding, else the id being edited
	loadErr error
}

// New builds the tool and loads the initial list. Keymap construction
// errors are configuration errors and abort startup.
func New(store *storage.Store) (*Tool, error) {
	input := textinput.New()
	input.Prompt = "> "
	input.CharLimit = 200

	t := &Tool{
		store: store,
		tasks: bridge.New(),
		mode:  keymap.ModeNormal,
		input: input,
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
	km := keymap.New("todo")

	normal := []struct {
		spec, desc, payload string
	}{
		{"j", "Down", "down"},
		{"k", "Up", "up"},
		{"g g", "Go to top", "top"},
		{"G", "Go to bottom", "bottom"},
		{"ctrl+d", "Half page down", "halfdown"},
		{"ctrl+u", "Half page up", "halfup"},
		{"enter", "Toggle done", "toggle"},
		{"x", "Toggle done (x)", "toggle"},
		{"J", "Move task down", "movedown"},
		{"K", "Move task up", "moveup"},
		{"d d", "Delete task", "delete"},
		{"a", "Add task", "add"},
		{"e", "Edit task", "edit"},
		{"space t a", "Add task", "add"},
		{"space t d", "Delete task", "delete"},
		{"space t x", "Toggle done", "toggle"},
	}
	groups := []struct{ spec, desc string }{
		{"g", "go"},
		{"d", "delete"},
		{"space", "leader"},
		{"space t", "todo"},
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
	if err := km.Bind(keymap.ModeInsert, "enter", "Save task", keymap.ToolLocal("commit")); err != nil {
		return nil, err
	}
	return km, km.Validate()
}

func (t *Tool) reload() {
	items, err := t.store.ListTodos(context.Background())
	if err != nil {
		t.loadErr = err
		logging.Logger.Error("todo list load failed", "error", err)
		return
	}
	t.loadErr = nil
	t.items = items
	if t.cursor >= len(t.items) {
		t.cursor = len(t.items) - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
}

// Title implements hub.Tool.
func (t *Tool) Title() string { return "Todo" }

// Description implements hub.Tool.
func (t *Tool) Description() string { return "Task list with notes" }

// Mode implements hub.Tool.
func (t *Tool) Mode() keymap.Mode { return t.mode }

// Keymap implements hub.Tool.
func (t *Tool) Keymap() *keymap.Keymap { return t.km }

// SearchItems implements hub.Tool.
func (t *Tool) SearchItems() []telescope.Item {
	items := make([]telescope.Item, 0, len(t.items))
	for _, todo := range t.items {
		items = append(items, telescope.Item{
			ID:        strconv.FormatUint(uint64(todo.ID), 10),
			Primary:   todo.Text,
			Secondary: todo.Note,
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
	for i, todo := range t.items {
		if uint64(todo.ID) == id {
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
		t.cursor = len(t.items) - 1
		if t.cursor < 0 {
			t.cursor = 0
		}
	case "halfdown":
		t.move(10)
	case "halfup":
		t.move(-10)
	case "movedown":
		t.swap(1)
	case "moveup":
		t.swap(-1)
	case "toggle":
		if todo, ok := t.current(); ok {
			if err := t.store.ToggleTodo(context.Background(), todo.ID); err != nil {
				logging.Logger.Error("todo toggle failed", "id", todo.ID, "error", err)
			}
			t.reload()
		}
	case "delete":
		if todo, ok := t.current(); ok {
			if err := t.store.DeleteTodo(context.Background(), todo.ID); err != nil {
				logging.Logger.Error("todo delete failed", "id", todo.ID, "error", err)
			}
			t.reload()
		}
	case "add":
		t.editing = 0
		t.input.SetValue("")
		t.mode = keymap.ModeInsert
		return t.input.Focus()
	case "edit":
		if todo, ok := t.current(); ok {
			t.editing = todo.ID
			t.input.SetValue(todo.Text)
			t.mode = keymap.ModeInsert
			return t.input.Focus()
		}
	case "commit":
		t.commit()
	}
	return nil
}

func (t *Tool) commit() {
	text := strings.TrimSpace(t.input.Value())
	defer func() {
		t.mode = keymap.ModeNormal
		t.input.Blur()
		t.input.SetValue("")
	}()
	if text == "" {
		return
	}
	ctx := context.Background()
	if t.editing == 0 {
		if _, err := t.store.AddTodo(ctx, text, ""); err != nil {
			logging.Logger.Error("todo add failed", "error", err)
		}
	} else {
		var note string
		if todo, ok := t.current(); ok && todo.ID == t.editing {
			note = todo.Note
		}
		if err := t.store.UpdateTodo(ctx, t.editing, text, note); err != nil {
			logging.Logger.Error("todo edit failed", "id", t.editing, "error", err)
		}
	}
	t.reload()
}

// HandleText implements hub.Tool: raw Insert-mode input feeds the
// inline editor. Escape abandons the edit.
func (t *Tool) HandleText(msg tea.KeyMsg) tea.Cmd {
	if t.mode != keymap.ModeInsert {
		return nil
	}
	if keymap.ChordOf(msg) == keymap.ChordEscape {
		t.mode = keymap.ModeNormal
		t.input.Blur()
		t.input.SetValue("")
		return nil
	}
	var cmd tea.Cmd
	t.input, cmd = t.input.Update(msg)
	return cmd
}

// HandleCommand implements hub.Tool; the todo list claims no commands.
func (t *Tool) HandleCommand(string) bool { return false }

// HandleDeadline implements hub.Tool; the todo list schedules none.
func (t *Tool) HandleDeadline(string) {}

// Bridge implements hub.Tool.
func (t *Tool) Bridge() *bridge.Bridge { return t.tasks }

// HandleTaskResult implements hub.Tool; no background work today.
func (t *Tool) HandleTaskResult(string, bridge.Result) {}

func (t *Tool) move(delta int) {
	if len(t.items) == 0 {
		return
	}
	t.cursor += delta
	if t.cursor < 0 {
		t.cursor = 0
	}
	if t.cursor >= len(t.items) {
		t.cursor = len(t.items) - 1
	}
}

// swap reorders the current task with its neighbor. Positions only
// order tasks within the same done state, so crossing the open/done
// boundary is a no-op.
func (t *Tool) swap(delta int) {
	other := t.cursor + delta
	if t.cursor < 0 || t.cursor >= len(t.items) || other < 0 || other >= len(t.items) {
		return
	}
	a, b := t.items[t.cursor], t.items[other]
	if a.Done != b.Done {
		return
	}
	if err := t.store.SwapTodoPositions(context.Background(), a.ID, b.ID); err != nil {
		logging.Logger.Error("todo reorder failed", "id", a.ID, "error", err)
		return
	}
	t.cursor = other
	t.reload()
}

func (t *Tool) current() (storage.Todo, bool) {
	if t.cursor < 0 || t.cursor >= len(t.items) {
		return storage.Todo{}, false
	}
	return t.items[t.cursor], true
}

// View implements hub.Tool.
func (t *Tool) View(width, height int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Tasks"))
	b.WriteString("\n\n")

	if t.loadErr != nil {
		b.WriteString(noteStyle.Render("could not load tasks: " + t.loadErr.Error()))
		return b.String()
	}
	if len(t.items) == 0 {
		b.WriteString(noteStyle.Render("nothing here yet, press a to add a task"))
	}
	for i, todo := range t.items {
		marker := "  "
		if i == t.cursor {
			marker = cursorStyle.Render("❯ ")
		}
		box := "[ ]"
		style := itemStyle
		if todo.Done {
			box = "[x]"
			style = doneStyle
		}
		line := fmt.Sprintf("%s%s %s", marker, box, style.Render(todo.Text))
		if todo.Note != "" {
			line += noteStyle.Render("  " + todo.Note)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if t.mode == keymap.ModeInsert {
		label := "new task"
		if t.editing != 0 {
			label = "edit task"
		}
		b.WriteString("\n")
		b.WriteString(noteStyle.Render(label))
		b.WriteString("\n")
		b.WriteString(t.input.View())
	}
	return lipgloss.NewStyle().Width(width).MaxHeight(height).Render(b.String())
}
