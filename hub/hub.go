package hub

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"toolbelt/deadline"
	"toolbelt/keymap"
	"toolbelt/logging"
	"toolbelt/telescope"
	"toolbelt/ui"
)

// Dashboard is the active index meaning no tool is focused.
const Dashboard = -1

// ownerHub marks deadlines the router schedules for itself.
const ownerHub = "hub"

const (
	// DefaultSequenceTimeout is how long an ambiguous key prefix waits
	// for more input before the shorter binding fires or the prefix is
	// discarded.
	DefaultSequenceTimeout = 600 * time.Millisecond
	// DefaultTickInterval drives deadline expiry and background task
	// polling.
	DefaultTickInterval = 50 * time.Millisecond
)

type overlayKind int

const (
	overlayNone overlayKind = iota
	overlayWhichKey
	overlayTelescope
	overlayCommand
)

type telescopeKind int

const (
	telePicker telescopeKind = iota // switch tool only
	teleGlobal                      // switch tool + navigate
	teleLocal                       // navigate within the active tool
)

// TickMsg drives one deadline/poll/render cycle.
type TickMsg time.Time

// Options tune the router's timers.
type Options struct {
	SequenceTimeout time.Duration
	TickInterval    time.Duration
	Clock           func() time.Time
}

// Model is the Bubble Tea root: tab bar, active tool (or dashboard),
// and at most one modal overlay on top.
type Model struct {
	registry *Registry
	global   *keymap.Keymap
	matcher  *keymap.Matcher
	queue    *deadline.Queue
	opts     Options

	active  int
	overlay overlayKind

	whichPrefix keymap.Sequence

	tele     *telescope.Session
	teleKind telescopeKind

	cmdline textinput.Model

	// generation guard for the sequence-timeout deadline; a stale
	// fire must never flush a newer pending sequence
	seqGen    uint64
	seqHandle deadline.Handle
	seqArmed  bool

	width  int
	height int
}

// New assembles the router over a validated registry and global keymap.
func New(registry *Registry, global *keymap.Keymap, queue *deadline.Queue, opts Options) (Model, error) {
	if err := global.Validate(); err != nil {
		return Model{}, err
	}
	if opts.SequenceTimeout <= 0 {
		opts.SequenceTimeout = DefaultSequenceTimeout
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	cmdline := textinput.New()
	cmdline.Prompt = ":"
	cmdline.CharLimit = 120

	return Model{
		registry: registry,
		global:   global,
		matcher:  keymap.NewMatcher(global),
		queue:    queue,
		opts:     opts,
		active:   Dashboard,
		cmdline:  cmdline,
	}, nil
}

// Init starts the render tick.
func (m Model) Init() tea.Cmd {
	return m.tickCmd()
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.opts.TickInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// Update routes messages: window sizing, the render tick, and key
// events through overlay → matcher → raw tool input.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case TickMsg:
		return m.handleTick(time.Time(msg))
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleTick(now time.Time) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	for _, fired := range m.queue.Tick(now) {
		if fired.Owner == ownerHub {
			next, cmd := m.handleSequenceTimeout(fired.Payload)
			m = next
			if cmd != nil {
				cmds = append(cmds, cmd)
			}
			continue
		}
		if i, ok := m.registry.Index(fired.Owner); ok {
			m.registry.Tool(i).HandleDeadline(fired.Payload)
		} else {
			logging.Logger.Warn("deadline fired for unknown owner", "owner", fired.Owner)
		}
	}

	for i := 0; i < m.registry.Len(); i++ {
		tool := m.registry.Tool(i)
		b := tool.Bridge()
		if b == nil {
			continue
		}
		for _, sr := range b.PollAll() {
			tool.HandleTaskResult(sr.Slot, sr.Result)
		}
	}

	cmds = append(cmds, m.tickCmd())
	return m, tea.Batch(cmds...)
}

// handleSequenceTimeout flushes an ambiguous pending sequence when its
// inactivity deadline fires. The generation in the payload guards
// against a stale deadline flushing a newer sequence.
func (m Model) handleSequenceTimeout(payload string) (Model, tea.Cmd) {
	gen, err := strconv.ParseUint(strings.TrimPrefix(payload, "seq:"), 10, 64)
	if err != nil || !m.seqArmed || gen != m.seqGen {
		return m, nil
	}
	m.seqArmed = false
	action, ok := m.matcher.Flush(m.mode())
	if !ok {
		return m, nil
	}
	return m.dispatch(action)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.overlay {
	case overlayCommand:
		return m.handleCommandKey(msg)
	case overlayTelescope:
		return m.handleTelescopeKey(msg)
	case overlayWhichKey:
		return m.handleWhichKeyKey(msg)
	}

	chord := keymap.ChordOf(msg)
	mode := m.mode()

	// Escape always force-clears the pending sequence; in Insert mode
	// the tool also sees it so it can drop back to Normal.
	if chord == keymap.ChordEscape {
		m.matcher.Reset()
		m = m.cancelSequenceTimeout()
		if m.active >= 0 && m.registry.Tool(m.active).Mode() != keymap.ModeNormal {
			return m, m.registry.Tool(m.active).HandleText(msg)
		}
		return m, nil
	}

	status, action := m.matcher.Feed(mode, chord)
	switch status {
	case keymap.StatusResolved:
		m = m.cancelSequenceTimeout()
		return m.dispatch(action)
	case keymap.StatusPending:
		// The bare leader opens which-key immediately rather than
		// waiting out the timeout.
		if mode == keymap.ModeNormal && m.matcher.Pending().Equal(keymap.Sequence{keymap.ChordSpace}) {
			m = m.cancelSequenceTimeout()
			return m.openWhichKey(keymap.Sequence{keymap.ChordSpace}), nil
		}
		return m.armSequenceTimeout(), nil
	default: // StatusRejected
		m = m.cancelSequenceTimeout()
		if m.active >= 0 && mode != keymap.ModeNormal {
			return m, m.registry.Tool(m.active).HandleText(msg)
		}
		return m, nil
	}
}

func (m Model) handleCommandKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch keymap.ChordOf(msg) {
	case keymap.ChordEscape:
		m.overlay = overlayNone
		m.cmdline.Blur()
		return m, nil
	case keymap.ChordEnter:
		line := m.cmdline.Value()
		m.overlay = overlayNone
		m.cmdline.Blur()
		return m.runCommand(line)
	}
	var cmd tea.Cmd
	m.cmdline, cmd = m.cmdline.Update(msg)
	return m, cmd
}

func (m Model) runCommand(line string) (tea.Model, tea.Cmd) {
	cmd := strings.TrimSpace(line)
	if cmd == "" {
		return m, nil
	}
	if m.active >= 0 && m.registry.Tool(m.active).HandleCommand(cmd) {
		return m, nil
	}
	switch cmd {
	case "q":
		if m.active >= 0 {
			return m.setActive(Dashboard), nil
		}
		return m, tea.Quit
	case "qa", "quit":
		return m, tea.Quit
	}
	// Unknown commands are silent no-ops.
	logging.Logger.Debug("unhandled command", "command", cmd)
	return m, nil
}

func (m Model) handleTelescopeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	chord := keymap.ChordOf(msg)
	switch chord {
	case keymap.ChordEscape:
		m.overlay = overlayNone
		m.tele = nil
		return m, nil
	case keymap.ChordEnter:
		item, ok := m.tele.Confirm()
		m.overlay = overlayNone
		m.tele = nil
		if !ok {
			// Confirm with no ranked results is a recoverable no-op.
			return m, nil
		}
		return m.openTelescopeResult(item), nil
	case "up", "ctrl+p":
		m.tele.Move(-1)
		return m, nil
	case "down", "ctrl+n":
		m.tele.Move(1)
		return m, nil
	case "backspace":
		m.tele.Backspace()
		return m, nil
	}
	if chord == keymap.ChordSpace {
		m.tele.Type(' ')
		return m, nil
	}
	if chord.Printable() {
		for _, r := range string(chord) {
			m.tele.Type(r)
		}
	}
	return m, nil
}

func (m Model) openTelescopeResult(item telescope.Item) Model {
	switch m.teleKind {
	case telePicker:
		if i, ok := m.registry.Index(item.Tool); ok {
			m = m.setActive(i)
		}
	case teleGlobal:
		if i, ok := m.registry.Index(item.Tool); ok {
			m = m.setActive(i)
			m.registry.Tool(i).NavigateTo(item.ID)
		}
	case teleLocal:
		if m.active >= 0 {
			m.registry.Tool(m.active).NavigateTo(item.ID)
		}
	}
	return m
}

func (m Model) handleWhichKeyKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	chord := keymap.ChordOf(msg)
	if chord == keymap.ChordEscape {
		if len(m.whichPrefix) > 0 {
			m.whichPrefix = m.whichPrefix[:len(m.whichPrefix)-1]
			return m, nil
		}
		m.overlay = overlayNone
		return m, nil
	}

	for _, entry := range keymap.WhichKeyTree(m.layers(), keymap.ModeNormal, m.whichPrefix) {
		if entry.Chord != chord {
			continue
		}
		if entry.Group {
			m.whichPrefix = append(m.whichPrefix, chord)
			return m, nil
		}
		m.overlay = overlayNone
		m.whichPrefix = nil
		return m.dispatch(entry.Action)
	}
	// Chords outside the tree are recoverable no-ops.
	return m, nil
}

func (m Model) dispatch(action keymap.Action) (Model, tea.Cmd) {
	switch action.Kind {
	case keymap.ActionQuit:
		if m.active >= 0 {
			return m.setActive(Dashboard), nil
		}
		return m, tea.Quit
	case keymap.ActionSwitchTool:
		if action.Tool == Dashboard || (action.Tool >= 0 && action.Tool < m.registry.Len()) {
			return m.setActive(action.Tool), nil
		}
		return m, nil
	case keymap.ActionNextTool:
		return m.cycle(1), nil
	case keymap.ActionPrevTool:
		return m.cycle(-1), nil
	case keymap.ActionOpenToolPicker:
		return m.openTelescope(telePicker), nil
	case keymap.ActionOpenGlobalSearch:
		return m.openTelescope(teleGlobal), nil
	case keymap.ActionOpenLocalSearch:
		if m.active < 0 {
			return m.openTelescope(teleGlobal), nil
		}
		return m.openTelescope(teleLocal), nil
	case keymap.ActionToggleWhichKey:
		if m.overlay == overlayWhichKey {
			m.overlay = overlayNone
			m.whichPrefix = nil
			return m, nil
		}
		return m.openWhichKey(nil), nil
	case keymap.ActionEnterCommandLine:
		m.overlay = overlayCommand
		m.cmdline.SetValue("")
		return m, m.cmdline.Focus()
	case keymap.ActionToolLocal:
		if m.active >= 0 {
			return m, m.registry.Tool(m.active).HandleAction(action.Payload)
		}
		return m, nil
	}
	return m, nil
}

func (m Model) openWhichKey(prefix keymap.Sequence) Model {
	m.matcher.Reset()
	m = m.cancelSequenceTimeout()
	m.overlay = overlayWhichKey
	m.whichPrefix = prefix
	return m
}

func (m Model) openTelescope(kind telescopeKind) Model {
	m.matcher.Reset()
	m = m.cancelSequenceTimeout()

	var items []telescope.Item
	var title string
	global := kind != teleLocal
	switch kind {
	case telePicker:
		title = "Tools"
		for i := 0; i < m.registry.Len(); i++ {
			t := m.registry.Tool(i)
			items = append(items, telescope.Item{
				Tool:      m.registry.Name(i),
				ID:        m.registry.Name(i),
				Primary:   t.Title(),
				Secondary: t.Description(),
			})
		}
	case teleGlobal:
		title = "Find everywhere"
		for i := 0; i < m.registry.Len(); i++ {
			name := m.registry.Name(i)
			for _, it := range m.registry.Tool(i).SearchItems() {
				it.Tool = name
				items = append(items, it)
			}
		}
	case teleLocal:
		title = "Find in " + m.registry.Tool(m.active).Title()
		name := m.registry.Name(m.active)
		for _, it := range m.registry.Tool(m.active).SearchItems() {
			it.Tool = name
			items = append(items, it)
		}
	}

	m.overlay = overlayTelescope
	m.teleKind = kind
	m.tele = telescope.NewSession(title, global, items)
	return m
}

func (m Model) setActive(i int) Model {
	m.active = i
	m.overlay = overlayNone
	m.whichPrefix = nil
	m.tele = nil
	m = m.cancelSequenceTimeout()
	if i >= 0 {
		m.matcher.SetLayers(m.registry.Tool(i).Keymap(), m.global)
	} else {
		m.matcher.SetLayers(m.global)
	}
	return m
}

func (m Model) cycle(delta int) Model {
	n := m.registry.Len()
	if n == 0 {
		return m
	}
	next := m.active + delta
	if m.active == Dashboard {
		if delta > 0 {
			next = 0
		} else {
			next = n - 1
		}
	}
	return m.setActive(((next % n) + n) % n)
}

func (m Model) armSequenceTimeout() Model {
	m = m.cancelSequenceTimeout()
	m.seqGen++
	m.seqHandle = m.queue.Schedule(ownerHub, m.opts.SequenceTimeout, "seq:"+strconv.FormatUint(m.seqGen, 10))
	m.seqArmed = true
	return m
}

func (m Model) cancelSequenceTimeout() Model {
	if m.seqArmed {
		m.queue.Cancel(m.seqHandle)
		m.seqArmed = false
	}
	return m
}

// layers returns the matcher precedence order for overlay derivation.
func (m Model) layers() []*keymap.Keymap {
	if m.active >= 0 {
		return []*keymap.Keymap{m.registry.Tool(m.active).Keymap(), m.global}
	}
	return []*keymap.Keymap{m.global}
}

// mode returns the effective input mode: the command line overrides,
// otherwise the active tool owns its mode, and the dashboard is Normal.
func (m Model) mode() keymap.Mode {
	if m.overlay == overlayCommand {
		return keymap.ModeCommand
	}
	if m.active >= 0 {
		return m.registry.Tool(m.active).Mode()
	}
	return keymap.ModeNormal
}

// Active returns the focused tool index, or Dashboard.
func (m Model) Active() int { return m.active }

// View composes tab bar, content, overlay and status bar.
func (m Model) View() string {
	width, height := m.width, m.height
	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}

	tabs := make([]string, 0, m.registry.Len()+1)
	tabs = append(tabs, "Home")
	for i := 0; i < m.registry.Len(); i++ {
		tabs = append(tabs, m.registry.Tool(i).Title())
	}
	header := ui.TabBar(tabs, m.active+1, width)

	contentHeight := height - 4
	if contentHeight < 1 {
		contentHeight = 1
	}
	var content string
	if m.active >= 0 {
		content = m.registry.Tool(m.active).View(width, contentHeight)
	} else {
		entries := make([]ui.DashboardEntry, 0, m.registry.Len())
		for i := 0; i < m.registry.Len(); i++ {
			t := m.registry.Tool(i)
			entries = append(entries, ui.DashboardEntry{
				Index:       i + 1,
				Title:       t.Title(),
				Description: t.Description(),
			})
		}
		content = ui.Dashboard(entries, width, contentHeight)
	}

	var overlay string
	switch m.overlay {
	case overlayWhichKey:
		entries := keymap.WhichKeyTree(m.layers(), keymap.ModeNormal, m.whichPrefix)
		rows := make([]ui.WhichKeyRow, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, ui.WhichKeyRow{
				Chord:       string(e.Chord),
				Description: e.Description,
				Group:       e.Group,
			})
		}
		title := keymap.WhichKeyTitle(m.layers(), keymap.ModeNormal, m.whichPrefix)
		if title == "" {
			title = "keys"
		}
		overlay = ui.WhichKeyPanel(title, rows, width)
	case overlayTelescope:
		rows := make([]ui.TelescopeRow, 0, len(m.tele.Ranked()))
		for i, match := range m.tele.Ranked() {
			rows = append(rows, ui.TelescopeRow{
				Tool:      match.Item.Tool,
				Primary:   match.Item.Primary,
				Secondary: match.Item.Secondary,
				Selected:  i == m.tele.SelectedIndex(),
			})
		}
		overlay = ui.TelescopePanel(m.tele.Title(), m.tele.Query(), rows, m.tele.Global(), width)
	case overlayCommand:
		overlay = ui.CommandLine(m.cmdline.View(), width)
	}

	status := ui.StatusBar(m.mode().String(), m.matcher.Pending().String(), width)
	return ui.Compose(header, content, overlay, status, width, height)
}
