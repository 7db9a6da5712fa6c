// Package notes is the notebook tool: a folder/note tree in a sidebar
// with the selected note's content editable next to it. Bodies
// auto-save on a short deadline after the last keystroke and whenever
// the editor loses focus, so closing a note never loses text.
package notes

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"toolbelt/bridge"
	"toolbelt/deadline"
	"toolbelt/keymap"
	"toolbelt/logging"
	"toolbelt/storage"
	"toolbelt/telescope"
)

// autosaveDelay is how long after the last edit a dirty body persists
// itself.
const autosaveDelay = 2 * time.Second

const payloadAutosave = "autosave"

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	cursorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	folderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	rowStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	paneStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// row is one visible line of the flattened tree.
type row struct {
	entry storage.NoteEntry
	depth int
	path  string
}

// Tool is the notebook.
type Tool struct {
	store *storage.Store
	queue *deadline.Queue
	owner string
	tasks *bridge.Bridge
	km    *keymap.Keymap
	mode  keymap.Mode

	entries []storage.NoteEntry
	rows    []row
	cursor  int

	openID   uint // 0 while no note is open
	openName string
	body     textarea.Model
	dirty    bool
	editing  bool

	name     textinput.Model
	naming   bool
	renaming uint // 0 while adding, else the id being renamed

	saveTimer deadline.Handle
	saveArmed bool

	status  string
	loadErr error
}

// New builds the tool and loads the tree. owner is the routing name
// the hub registered the tool under; autosave deadlines are scheduled
// against it.
func New(store *storage.Store, queue *deadline.Queue, owner string) (*Tool, error) {
	name := textinput.New()
	name.Prompt = "> "
	name.CharLimit = 200

	body := textarea.New()
	body.CharLimit = 0
	body.ShowLineNumbers = false

	t := &Tool{
		store: store,
		queue: queue,
		owner: owner,
		tasks: bridge.New(),
		mode:  keymap.ModeNormal,
		name:  name,
		body:  body,
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
	km := keymap.New("notes")

	normal := []struct {
		spec, desc, payload string
	}{
		{"j", "Down", "down"},
		{"k", "Up", "up"},
		{"g g", "Go to top", "top"},
		{"G", "Go to bottom", "bottom"},
		{"enter", "Open note / toggle folder", "open"},
		{"l", "Expand folder", "expand"},
		{"h", "Collapse folder", "collapse"},
		{"a", "Add entry", "add"},
		{"r", "Rename entry", "rename"},
		{"d d", "Delete entry", "delete"},
		{"i", "Edit note", "editbody"},
		{"space n a", "Add entry", "add"},
		{"space n r", "Rename entry", "rename"},
		{"space n d", "Delete entry", "delete"},
	}
	groups := []struct{ spec, desc string }{
		{"g", "go"},
		{"d", "delete"},
		{"space", "leader"},
		{"space n", "notes"},
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
	if err := km.Bind(keymap.ModeInsert, "enter", "Confirm / newline", keymap.ToolLocal("commit")); err != nil {
		return nil, err
	}
	if err := km.Bind(keymap.ModeInsert, "ctrl+s", "Save note", keymap.ToolLocal("save")); err != nil {
		return nil, err
	}
	return km, km.Validate()
}

func (t *Tool) reload() {
	entries, err := t.store.ListNoteEntries(context.Background())
	if err != nil {
		t.loadErr = err
		logging.Logger.Error("notes tree load failed", "error", err)
		return
	}
	t.loadErr = nil
	t.entries = entries
	t.flatten()

	if t.openID != 0 && !t.entryExists(t.openID) {
		t.closeNote()
	}
}

// flatten rebuilds the visible rows: a depth-first walk that only
// descends into expanded folders. ListNoteEntries already orders
// folders before notes within each parent.
func (t *Tool) flatten() {
	children := make(map[uint][]storage.NoteEntry)
	var roots []storage.NoteEntry
	for _, e := range t.entries {
		if e.ParentID == nil {
			roots = append(roots, e)
		} else {
			children[*e.ParentID] = append(children[*e.ParentID], e)
		}
	}

	t.rows = t.rows[:0]
	var walk func(list []storage.NoteEntry, depth int, prefix string)
	walk = func(list []storage.NoteEntry, depth int, prefix string) {
		for _, e := range list {
			t.rows = append(t.rows, row{entry: e, depth: depth, path: prefix + e.Name})
			if e.Kind == storage.NoteKindFolder && e.Expanded {
				walk(children[e.ID], depth+1, prefix+e.Name+"/")
			}
		}
	}
	walk(roots, 0, "")

	if t.cursor >= len(t.rows) {
		t.cursor = len(t.rows) - 1
	}
	if t.cursor < 0 {
		t.cursor = 0
	}
}

func (t *Tool) entryExists(id uint) bool {
	for _, e := range t.entries {
		if e.ID == id {
			return true
		}
	}
	return false
}

// Title implements hub.Tool.
func (t *Tool) Title() string { return "Notes" }

// Description implements hub.Tool.
func (t *Tool) Description() string { return "Folders and notes" }

// Mode implements hub.Tool.
func (t *Tool) Mode() keymap.Mode { return t.mode }

// Keymap implements hub.Tool.
func (t *Tool) Keymap() *keymap.Keymap { return t.km }

// SearchItems implements hub.Tool: every note, collapsed folders
// included, with its folder path as the secondary text.
func (t *Tool) SearchItems() []telescope.Item {
	children := make(map[uint][]storage.NoteEntry)
	var roots []storage.NoteEntry
	for _, e := range t.entries {
		if e.ParentID == nil {
			roots = append(roots, e)
		} else {
			children[*e.ParentID] = append(children[*e.ParentID], e)
		}
	}

	var items []telescope.Item
	var walk func(list []storage.NoteEntry, prefix string)
	walk = func(list []storage.NoteEntry, prefix string) {
		for _, e := range list {
			if e.Kind == storage.NoteKindNote {
				items = append(items, telescope.Item{
					ID:        strconv.FormatUint(uint64(e.ID), 10),
					Primary:   e.Name,
					Secondary: strings.TrimSuffix(prefix, "/"),
				})
				continue
			}
			walk(children[e.ID], prefix+e.Name+"/")
		}
	}
	walk(roots, "")
	return items
}

// NavigateTo implements hub.Tool: expands the ancestor folders so the
// note is visible, selects it and opens it.
func (t *Tool) NavigateTo(itemID string) {
	id64, err := strconv.ParseUint(itemID, 10, 64)
	if err != nil {
		return
	}
	id := uint(id64)

	byID := make(map[uint]storage.NoteEntry, len(t.entries))
	for _, e := range t.entries {
		byID[e.ID] = e
	}
	target, ok := byID[id]
	if !ok {
		return
	}

	ctx := context.Background()
	for parent := target.ParentID; parent != nil; {
		folder, ok := byID[*parent]
		if !ok {
			break
		}
		if !folder.Expanded {
			if err := t.store.SetNoteExpanded(ctx, folder.ID, true); err != nil {
				logging.Logger.Error("notes expand failed", "id", folder.ID, "error", err)
			}
		}
		parent = folder.ParentID
	}
	t.reload()
	t.selectRow(id)
	if target.Kind == storage.NoteKindNote {
		t.openNote(target)
	}
}

func (t *Tool) selectRow(id uint) {
	for i, r := range t.rows {
		if r.entry.ID == id {
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
		t.cursor = len(t.rows) - 1
		if t.cursor < 0 {
			t.cursor = 0
		}
	case "open":
		if cur, ok := t.current(); ok {
			if cur.Kind == storage.NoteKindFolder {
				t.setExpanded(cur, !cur.Expanded)
			} else {
				t.openNote(cur)
			}
		}
	case "expand":
		if cur, ok := t.current(); ok && cur.Kind == storage.NoteKindFolder && !cur.Expanded {
			t.setExpanded(cur, true)
		}
	case "collapse":
		if cur, ok := t.current(); ok && cur.Kind == storage.NoteKindFolder && cur.Expanded {
			t.setExpanded(cur, false)
		}
	case "add":
		t.naming = true
		t.renaming = 0
		t.name.SetValue("")
		t.mode = keymap.ModeInsert
		return t.name.Focus()
	case "rename":
		if cur, ok := t.current(); ok {
			t.naming = true
			t.renaming = cur.ID
			t.name.SetValue(cur.Name)
			t.mode = keymap.ModeInsert
			return t.name.Focus()
		}
	case "delete":
		if cur, ok := t.current(); ok {
			if err := t.store.DeleteNoteEntry(context.Background(), cur.ID); err != nil {
				logging.Logger.Error("notes delete failed", "id", cur.ID, "error", err)
			}
			t.reload()
		}
	case "editbody":
		if t.openID != 0 {
			t.editing = true
			t.mode = keymap.ModeInsert
			return t.body.Focus()
		}
	case "commit":
		if t.naming {
			t.submitName()
		} else if t.editing {
			var cmd tea.Cmd
			t.body, cmd = t.body.Update(tea.KeyMsg{Type: tea.KeyEnter})
			t.markDirty()
			return cmd
		}
	case "save":
		if t.editing {
			t.saveCurrent()
			t.status = "saved"
		}
	}
	return nil
}

func (t *Tool) setExpanded(e storage.NoteEntry, expanded bool) {
	if err := t.store.SetNoteExpanded(context.Background(), e.ID, expanded); err != nil {
		logging.Logger.Error("notes expand failed", "id", e.ID, "error", err)
		return
	}
	t.reload()
}

// openNote loads an entry's body into the editor panel, saving the
// previous note first.
func (t *Tool) openNote(e storage.NoteEntry) {
	t.saveCurrent()
	body, err := t.store.GetNoteBody(context.Background(), e.ID)
	if err != nil {
		logging.Logger.Error("notes body load failed", "id", e.ID, "error", err)
		t.status = "could not open note"
		return
	}
	t.openID = e.ID
	t.openName = e.Name
	t.body.SetValue(body)
	t.dirty = false
	t.status = ""
}

func (t *Tool) closeNote() {
	t.openID = 0
	t.openName = ""
	t.body.SetValue("")
	t.body.Blur()
	t.editing = false
	t.dirty = false
	if t.saveArmed {
		t.queue.Cancel(t.saveTimer)
		t.saveArmed = false
	}
}

// saveCurrent persists the open body if it has unsaved edits and
// disarms any pending autosave.
func (t *Tool) saveCurrent() {
	if t.saveArmed {
		t.queue.Cancel(t.saveTimer)
		t.saveArmed = false
	}
	if t.openID == 0 || !t.dirty {
		return
	}
	if err := t.store.SaveNoteBody(context.Background(), t.openID, t.body.Value()); err != nil {
		logging.Logger.Error("notes body save failed", "id", t.openID, "error", err)
		return
	}
	t.dirty = false
}

// markDirty reschedules the autosave deadline after every edit, so the
// body persists shortly after typing pauses.
func (t *Tool) markDirty() {
	t.dirty = true
	if t.saveArmed {
		t.queue.Cancel(t.saveTimer)
	}
	t.saveTimer = t.queue.Schedule(t.owner, autosaveDelay, payloadAutosave)
	t.saveArmed = true
}

// submitName resolves the pending add or rename. Added paths follow
// the folder/subfolder/note convention: every segment but the last is
// a folder, and a trailing slash makes the last one a folder too.
// Existing folders along the path are reused and expanded.
func (t *Tool) submitName() {
	text := strings.TrimSpace(t.name.Value())
	t.name.SetValue("")
	t.name.Blur()
	t.naming = false
	t.mode = keymap.ModeNormal
	if text == "" {
		return
	}

	ctx := context.Background()
	if t.renaming != 0 {
		if err := t.store.RenameNoteEntry(ctx, t.renaming, text); err != nil {
			logging.Logger.Error("notes rename failed", "id", t.renaming, "error", err)
		}
		if t.openID == t.renaming {
			t.openName = text
		}
		t.renaming = 0
		t.reload()
		return
	}
	t.createPath(text)
}

func (t *Tool) createPath(path string) {
	trailingSlash := strings.HasSuffix(path, "/")
	var segments []string
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	if len(segments) == 0 {
		return
	}

	ctx := context.Background()
	parent := t.selectedParent()
	var lastID uint
	for i, seg := range segments {
		kind := storage.NoteKindFolder
		if i == len(segments)-1 && !trailingSlash {
			kind = storage.NoteKindNote
		}

		if kind == storage.NoteKindFolder {
			if id, ok := t.findFolder(parent, seg); ok {
				if err := t.store.SetNoteExpanded(ctx, id, true); err != nil {
					logging.Logger.Error("notes expand failed", "id", id, "error", err)
				}
				pid := id
				parent = &pid
				lastID = id
				continue
			}
		}

		entry, err := t.store.AddNoteEntry(ctx, parent, seg, kind)
		if err != nil {
			logging.Logger.Error("notes add failed", "name", seg, "error", err)
			break
		}
		lastID = entry.ID
		if kind == storage.NoteKindFolder {
			if err := t.store.SetNoteExpanded(ctx, entry.ID, true); err != nil {
				logging.Logger.Error("notes expand failed", "id", entry.ID, "error", err)
			}
			pid := entry.ID
			parent = &pid
		}
	}

	t.reload()
	if lastID != 0 {
		t.selectRow(lastID)
	}
}

// selectedParent is where a new path starts: the selected folder, a
// selected note's parent, or the root.
func (t *Tool) selectedParent() *uint {
	cur, ok := t.current()
	if !ok {
		return nil
	}
	if cur.Kind == storage.NoteKindFolder {
		id := cur.ID
		return &id
	}
	return cur.ParentID
}

func (t *Tool) findFolder(parent *uint, name string) (uint, bool) {
	for _, e := range t.entries {
		if e.Kind != storage.NoteKindFolder || e.Name != name {
			continue
		}
		switch {
		case parent == nil && e.ParentID == nil:
			return e.ID, true
		case parent != nil && e.ParentID != nil && *parent == *e.ParentID:
			return e.ID, true
		}
	}
	return 0, false
}

// HandleText implements hub.Tool: Insert mode feeds the name input
// while adding or renaming, the body editor otherwise. Escape saves
// and leaves the editor, or abandons a pending name.
func (t *Tool) HandleText(msg tea.KeyMsg) tea.Cmd {
	if t.mode != keymap.ModeInsert {
		return nil
	}
	if keymap.ChordOf(msg) == keymap.ChordEscape {
		if t.naming {
			t.naming = false
			t.renaming = 0
			t.name.SetValue("")
			t.name.Blur()
		} else {
			t.saveCurrent()
			t.editing = false
			t.body.Blur()
		}
		t.mode = keymap.ModeNormal
		return nil
	}
	if t.naming {
		var cmd tea.Cmd
		t.name, cmd = t.name.Update(msg)
		return cmd
	}
	if t.editing {
		var cmd tea.Cmd
		t.body, cmd = t.body.Update(msg)
		t.markDirty()
		return cmd
	}
	return nil
}

// HandleCommand implements hub.Tool: `:w` saves the open note.
func (t *Tool) HandleCommand(cmd string) bool {
	if cmd == "w" && t.openID != 0 {
		t.dirty = true
		t.saveCurrent()
		t.status = "saved"
		return true
	}
	return false
}

// HandleDeadline implements hub.Tool: the autosave deadline lands here.
func (t *Tool) HandleDeadline(payload string) {
	if payload != payloadAutosave {
		return
	}
	t.saveArmed = false
	if t.dirty {
		t.saveCurrent()
	}
}

// Bridge implements hub.Tool.
func (t *Tool) Bridge() *bridge.Bridge { return t.tasks }

// HandleTaskResult implements hub.Tool; no background work today.
func (t *Tool) HandleTaskResult(string, bridge.Result) {}

func (t *Tool) move(delta int) {
	if len(t.rows) == 0 {
		return
	}
	t.cursor += delta
	if t.cursor < 0 {
		t.cursor = 0
	}
	if t.cursor >= len(t.rows) {
		t.cursor = len(t.rows) - 1
	}
}

func (t *Tool) current() (storage.NoteEntry, bool) {
	if t.cursor < 0 || t.cursor >= len(t.rows) {
		return storage.NoteEntry{}, false
	}
	return t.rows[t.cursor].entry, true
}

// View implements hub.Tool: the tree on the left, the open note on the
// right.
func (t *Tool) View(width, height int) string {
	var tree strings.Builder
	tree.WriteString(titleStyle.Render("Notes"))
	tree.WriteString("\n\n")

	switch {
	case t.loadErr != nil:
		tree.WriteString(dimStyle.Render("could not load notes: " + t.loadErr.Error()))
	case len(t.rows) == 0:
		tree.WriteString(dimStyle.Render("nothing here yet, press a to add a note"))
	default:
		for i, r := range t.rows {
			marker := "  "
			if i == t.cursor {
				marker = cursorStyle.Render("❯ ")
			}
			indent := strings.Repeat("  ", r.depth)
			label := rowStyle.Render(r.entry.Name)
			if r.entry.Kind == storage.NoteKindFolder {
				arrow := "▸"
				if r.entry.Expanded {
					arrow = "▾"
				}
				label = folderStyle.Render(arrow + " " + r.entry.Name)
			}
			tree.WriteString(fmt.Sprintf("%s%s%s\n", marker, indent, label))
		}
	}

	if t.naming {
		label := "new entry (folder/name, trailing / for a folder)"
		if t.renaming != 0 {
			label = "rename entry"
		}
		tree.WriteString("\n")
		tree.WriteString(dimStyle.Render(label))
		tree.WriteString("\n")
		tree.WriteString(t.name.View())
	}

	treeWidth := width / 3
	if treeWidth < 24 {
		treeWidth = 24
	}
	left := lipgloss.NewStyle().Width(treeWidth).MaxHeight(height).Render(tree.String())

	var pane strings.Builder
	if t.openID == 0 {
		pane.WriteString(dimStyle.Render("open a note with enter, edit with i"))
	} else {
		header := t.openName
		if t.dirty {
			header += " *"
		}
		pane.WriteString(titleStyle.Render(header))
		pane.WriteString("\n")
		t.body.SetWidth(width - treeWidth - 6)
		t.body.SetHeight(height - 4)
		pane.WriteString(t.body.View())
	}
	if t.status != "" {
		pane.WriteString("\n")
		pane.WriteString(dimStyle.Render(t.status))
	}
	right := paneStyle.Width(width - treeWidth - 4).MaxHeight(height).Render(pane.String())

	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}
