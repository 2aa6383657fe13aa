// Package tui provides the BubbleTea-based terminal user interface.
package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/azkar/internal/adapter/output"
	"github.com/jmylchreest/azkar/internal/control"
	"github.com/jmylchreest/azkar/internal/core"
	"github.com/jmylchreest/azkar/internal/model"
	"github.com/jmylchreest/azkar/internal/store"
)

// Mode represents the current UI mode.
type Mode int

const (
	ModeList Mode = iota
	ModeInput
	ModeSearch
	ModeHelp
)

// Options configures the TUI.
type Options struct {
	Clipboard string           // Copy command; empty = auto-detect
	Now       func() time.Time // Clock for relative times; nil = time.Now
}

// Model is the main TUI model.
type Model struct {
	ctrl control.Controller
	opts Options

	// Current mode
	mode Mode

	// Components
	list        list.Model
	input       textinput.Model
	searchInput textinput.Model
	help        help.Model

	// State
	state       model.SchedulerState
	loaded      bool
	editingID   string // Empty while adding a new item
	searchQuery string
	width       int
	height      int
	ready       bool

	// Key bindings
	keys KeyMap

	// Status message
	statusMsg string
	statusErr bool

	changes <-chan store.ChangeEvent
}

// reminderItem wraps a ReminderItem for the list component.
type reminderItem struct {
	item      model.ReminderItem
	index     int // 1-based position in the full item list
	lastShown bool
}

func (i reminderItem) Title() string {
	return strings.Join(strings.Fields(i.item.Text), " ")
}

func (i reminderItem) Description() string {
	desc := fmt.Sprintf("#%d  %s", i.index, i.item.ID)
	if i.lastShown {
		desc += "  (last shown)"
	}
	return desc
}

func (i reminderItem) FilterValue() string {
	return i.item.Text
}

// reminderDelegate highlights the last shown item.
type reminderDelegate struct {
	list.DefaultDelegate
}

func newReminderDelegate() reminderDelegate {
	return reminderDelegate{DefaultDelegate: list.NewDefaultDelegate()}
}

// Render renders a list item, accenting the last shown item.
func (d reminderDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ri, ok := item.(reminderItem)
	if !ok {
		d.DefaultDelegate.Render(w, m, index, item)
		return
	}

	isSelected := index == m.Index()
	itemWidth := m.Width() - d.DefaultDelegate.Styles.NormalTitle.GetHorizontalPadding()

	var titleStyle, descStyle lipgloss.Style
	if isSelected {
		titleStyle = d.DefaultDelegate.Styles.SelectedTitle
		descStyle = d.DefaultDelegate.Styles.SelectedDesc
	} else {
		titleStyle = d.DefaultDelegate.Styles.NormalTitle
		descStyle = d.DefaultDelegate.Styles.NormalDesc
	}
	if ri.lastShown {
		descStyle = descStyle.Foreground(lipgloss.Color("10"))
	}
	if itemWidth > 0 {
		titleStyle = titleStyle.MaxWidth(itemWidth + titleStyle.GetHorizontalPadding())
		descStyle = descStyle.MaxWidth(itemWidth + descStyle.GetHorizontalPadding())
	}

	fmt.Fprint(w, titleStyle.Render(ri.Title()))
	fmt.Fprint(w, "\n")
	fmt.Fprint(w, descStyle.Render(ri.Description()))
}

// New creates a new TUI model driving ctrl.
func New(ctrl control.Controller, opts Options) Model {
	l := list.New(nil, newReminderDelegate(), 0, 0)
	l.Title = "Azkar"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()

	input := textinput.New()
	input.Placeholder = "Zekr text..."
	input.CharLimit = 500

	searchInput := textinput.New()
	searchInput.Placeholder = "Search..."
	searchInput.CharLimit = 100

	m := Model{
		ctrl:        ctrl,
		opts:        opts,
		mode:        ModeList,
		list:        l,
		input:       input,
		searchInput: searchInput,
		help:        help.New(),
		keys:        DefaultKeyMap(),
	}

	if ch, err := ctrl.Changes(); err == nil {
		m.changes = ch
	} else {
		m.statusMsg = "Live updates unavailable: " + err.Error()
		m.statusErr = true
	}

	return m
}

// Init initializes the TUI.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadState,
		m.watchForChanges,
	)
}

type stateMsg struct {
	state  model.SchedulerState
	err    error
	status func(model.SchedulerState) string
}

type refreshMsg struct{}

type statusMsg struct {
	text  string
	isErr bool
}

type clearStatusMsg struct{}

type copyResultMsg struct {
	err error
}

// loadState fetches the current state from the controller.
func (m Model) loadState() tea.Msg {
	st, err := m.ctrl.Get()
	return stateMsg{state: st, err: err}
}

// watchForChanges waits for the next change event.
func (m Model) watchForChanges() tea.Msg {
	if m.changes == nil {
		return nil
	}
	if _, ok := <-m.changes; !ok {
		return nil
	}
	return refreshMsg{}
}

// run calls a controller mutation off the UI goroutine.
func (m Model) run(op func() (model.SchedulerState, error), status func(model.SchedulerState) string) tea.Cmd {
	return func() tea.Msg {
		st, err := op()
		return stateMsg{state: st, err: err, status: status}
	}
}

func fixedStatus(text string) func(model.SchedulerState) string {
	return func(model.SchedulerState) string { return text }
}

func (m Model) now() time.Time {
	if m.opts.Now != nil {
		return m.opts.Now()
	}
	return time.Now()
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.list.SetSize(msg.Width, msg.Height-3)
		m.input.Width = msg.Width - 10
		m.help.Width = msg.Width
		return m, nil

	case stateMsg:
		if msg.err != nil {
			return m, showStatus("Error: "+msg.err.Error(), true)
		}
		m.state = msg.state
		m.loaded = true
		m.list.SetItems(m.buildListItems())
		if msg.status != nil {
			return m, showStatus(msg.status(msg.state), false)
		}
		return m, nil

	case refreshMsg:
		return m, tea.Batch(m.loadState, m.watchForChanges)

	case statusMsg:
		m.statusMsg = msg.text
		m.statusErr = msg.isErr
		return m, tea.Tick(3*time.Second, func(t time.Time) tea.Msg {
			return clearStatusMsg{}
		})

	case clearStatusMsg:
		m.statusMsg = ""
		m.statusErr = false
		return m, nil

	case copyResultMsg:
		if msg.err != nil {
			return m, showStatus("Copy failed: "+msg.err.Error(), true)
		}
		return m, showStatus("Copied to clipboard", false)
	}

	// Update child components
	var cmd tea.Cmd
	switch m.mode {
	case ModeList:
		m.list, cmd = m.list.Update(msg)
	case ModeInput:
		m.input, cmd = m.input.Update(msg)
	case ModeSearch:
		m.searchInput, cmd = m.searchInput.Update(msg)
	}
	return m, cmd
}

func showStatus(text string, isErr bool) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: text, isErr: isErr}
	}
}

// handleKey handles key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	// Text entry modes consume every other key
	switch m.mode {
	case ModeInput:
		return m.handleInputKey(msg)
	case ModeSearch:
		return m.handleSearchKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		if m.mode == ModeHelp {
			m.mode = ModeList
		} else {
			m.mode = ModeHelp
		}
		return m, nil
	}

	if m.mode == ModeHelp {
		if key.Matches(msg, m.keys.Back) {
			m.mode = ModeList
		}
		return m, nil
	}

	return m.handleListKey(msg)
}

func (m Model) selectedItem() (reminderItem, bool) {
	ri, ok := m.list.SelectedItem().(reminderItem)
	return ri, ok
}

// handleListKey handles keys in list mode.
func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Add):
		m.editingID = ""
		m.input.SetValue("")
		m.input.Focus()
		m.mode = ModeInput
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Edit):
		if ri, ok := m.selectedItem(); ok {
			m.editingID = ri.item.ID
			m.input.SetValue(ri.item.Text)
			m.input.CursorEnd()
			m.input.Focus()
			m.mode = ModeInput
			return m, textinput.Blink
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if ri, ok := m.selectedItem(); ok {
			id := ri.item.ID
			return m, m.run(func() (model.SchedulerState, error) {
				return m.ctrl.RemoveItem(id)
			}, fixedStatus("Item deleted"))
		}
		return m, nil

	case key.Matches(msg, m.keys.Pause):
		return m, m.run(m.ctrl.TogglePause, func(st model.SchedulerState) string {
			if st.IsPaused {
				return "Reminders paused"
			}
			return "Reminders resumed"
		})

	case key.Matches(msg, m.keys.IntervalUp), key.Matches(msg, m.keys.IntervalDown):
		current := m.state.IntervalSeconds
		step := intervalStep(current)
		next := current + step
		if key.Matches(msg, m.keys.IntervalDown) {
			next = current - intervalStep(current-1)
		}
		next = model.ClampInterval(next)
		return m, m.run(func() (model.SchedulerState, error) {
			return m.ctrl.SetInterval(next)
		}, func(st model.SchedulerState) string {
			return "Interval: " + output.FormatInterval(st.IntervalSeconds)
		})

	case key.Matches(msg, m.keys.Copy):
		if ri, ok := m.selectedItem(); ok {
			return m, m.copyToClipboard(ri.item.Text)
		}
		return m, nil

	case key.Matches(msg, m.keys.Search):
		m.searchInput.SetValue("")
		m.searchQuery = ""
		m.list.SetItems(m.buildListItems())
		m.mode = ModeSearch
		m.searchInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Refresh):
		return m, m.loadState
	}

	// Pass to list
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// intervalStep returns the +/- adjustment for an interval: fine-grained for
// short intervals, coarser for long ones.
func intervalStep(seconds int64) int64 {
	switch {
	case seconds < 60:
		return 5
	case seconds < 10*60:
		return 60
	default:
		return 5 * 60
	}
}

// handleInputKey handles keys while adding or editing an item.
func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = ModeList
		m.input.Blur()
		return m, nil

	case tea.KeyEnter:
		text := m.input.Value()
		m.mode = ModeList
		m.input.Blur()

		if m.editingID == "" {
			return m, m.run(func() (model.SchedulerState, error) {
				return m.ctrl.AddItem(text)
			}, fixedStatus("Item added"))
		}
		id := m.editingID
		return m, m.run(func() (model.SchedulerState, error) {
			return m.ctrl.UpdateItem(id, text)
		}, fixedStatus("Item updated"))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleSearchKey handles keys in search mode.
func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		// Esc exits search mode and clears search
		m.mode = ModeList
		m.searchInput.Blur()
		m.searchInput.SetValue("")
		m.searchQuery = ""
		m.list.SetItems(m.buildListItems())
		return m, nil

	case tea.KeyEnter:
		// Enter keeps the filter and returns to the list
		m.mode = ModeList
		m.searchInput.Blur()
		return m, nil

	case tea.KeyUp, tea.KeyDown:
		// Allow navigating the list while searching
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)

	// Live filtering
	m.searchQuery = m.searchInput.Value()
	m.list.SetItems(m.buildListItems())

	return m, cmd
}

// buildListItems creates list items from the current state and search query.
func (m Model) buildListItems() []list.Item {
	positions := make(map[string]int, len(m.state.Items))
	for i, item := range m.state.Items {
		positions[item.ID] = i + 1
	}

	visible := core.Search(m.state.Items, m.searchQuery)
	items := make([]list.Item, len(visible))
	for i, item := range visible {
		items[i] = reminderItem{
			item:      item,
			index:     positions[item.ID],
			lastShown: item.ID == m.state.LastShownItemID,
		}
	}
	return items
}

// copyToClipboard copies text to the system clipboard.
func (m Model) copyToClipboard(text string) tea.Cmd {
	command := m.opts.Clipboard
	return func() tea.Msg {
		return copyResultMsg{err: copyText(text, command)}
	}
}

// View renders the TUI.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	switch m.mode {
	case ModeHelp:
		return m.viewHelp()
	case ModeInput:
		return m.viewInput()
	case ModeSearch:
		return m.viewSearch()
	default:
		return m.viewList()
	}
}

// renderHeader summarizes the scheduler state on one line.
func (m Model) renderHeader() string {
	if !m.loaded {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render("Loading...")
	}

	st := m.state
	stateStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	stateText := "active"
	if st.IsPaused {
		stateStyle = stateStyle.Foreground(lipgloss.Color("11"))
		stateText = "paused"
	}

	last := "never"
	if st.HasFired() {
		last = humanize.RelTime(st.LastNotificationAt(), m.now(), "ago", "from now")
	}

	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	parts := []string{
		stateStyle.Render(stateText),
		labelStyle.Render("today ") + fmt.Sprintf("%d", st.DailyCount),
		labelStyle.Render("every ") + output.FormatInterval(st.IntervalSeconds),
		labelStyle.Render("last ") + last,
	}
	return strings.Join(parts, labelStyle.Render("  |  "))
}

func (m Model) renderStatusOrBar(mode string) string {
	if m.statusMsg != "" {
		statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
		if m.statusErr {
			statusStyle = statusStyle.Foreground(lipgloss.Color("9"))
		}
		return statusStyle.Render(m.statusMsg)
	}
	return m.buildKeybindBar(m.width, mode)
}

func (m Model) viewList() string {
	return m.renderHeader() + "\n" + m.list.View() + "\n" + m.renderStatusOrBar("list")
}

func (m Model) viewInput() string {
	title := "Add zekr"
	if m.editingID != "" {
		title = "Edit zekr"
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))

	return m.renderHeader() + "\n" + m.list.View() + "\n" +
		titleStyle.Render(title+": ") + m.input.View() + "\n" + m.buildKeybindBar(m.width, "input")
}

func (m Model) viewSearch() string {
	countStr := fmt.Sprintf("(%d matches)", len(m.list.Items()))

	searchBar := "Search: " + m.searchInput.View() + " " +
		lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(countStr)

	return searchBar + "\n" + m.list.View() + "\n" + m.buildKeybindBar(m.width, "search")
}

func (m Model) viewHelp() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		MarginBottom(1)

	h := m.help
	h.ShowAll = true

	return titleStyle.Render("Keyboard Shortcuts") + "\n\n" + h.View(m.keys) + "\n\n" +
		lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render("Press ? or esc to return")
}

// keybind represents a single keybind with priority for the status bar.
type keybind struct {
	key      string
	desc     string
	priority int // lower = more important (shown first)
}

// buildKeybindBar builds a keybind bar that fits within the given width.
// mode determines which keybinds are shown: "list", "input", "search"
func (m Model) buildKeybindBar(width int, mode string) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

	var binds []keybind

	switch mode {
	case "list":
		binds = []keybind{
			{"q", "quit", 1},
			{"a", "add", 2},
			{"e", "edit", 3},
			{"d", "delete", 4},
			{"p", "pause", 5},
			{"+/-", "interval", 6},
			{"?", "help", 7},
			{"/", "search", 8},
			{"c", "copy", 9},
			{"r", "refresh", 10},
		}
	case "input":
		binds = []keybind{
			{"enter", "save", 1},
			{"esc", "cancel", 2},
		}
	case "search":
		binds = []keybind{
			{"enter", "keep", 1},
			{"esc", "clear", 2},
			{"↑/↓", "navigate", 3},
		}
	}

	// Build the bar, adding keybinds until we run out of space
	const separator = "  "
	var parts []string
	used := 0
	for _, b := range binds {
		plain := b.key + " " + b.desc
		needed := lipgloss.Width(plain)
		if len(parts) > 0 {
			needed += len(separator)
		}
		if width > 0 && used+needed > width {
			break
		}
		used += needed
		parts = append(parts, keyStyle.Render(b.key)+" "+b.desc)
	}

	return style.Render(strings.Join(parts, separator))
}

// Run starts the TUI on ctrl and blocks until the user quits.
func Run(ctrl control.Controller, opts Options) error {
	p := tea.NewProgram(New(ctrl, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
