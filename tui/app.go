// Package tui is the terminal adapter for the trajectory viewer: a file
// list with a detail viewport over the rendered steps, driven by the
// collection controller.
package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/arsalan924/trajlens/internal/trajectory"
	"github.com/arsalan924/trajlens/internal/viewer"
)

type focus int

const (
	focusList focus = iota
	focusDetail
	focusSearch
	focusOverlay
)

// viewEvent carries controller view callbacks into the bubbletea loop.
type viewEvent struct {
	kind     string // "show", "error", "selected"
	name     string
	rendered *trajectory.RenderedTrajectory
	scroll   int
	err      error
}

// channelView adapts viewer.View onto a message channel.
type channelView chan viewEvent

func (v channelView) ShowTrajectory(name string, rendered *trajectory.RenderedTrajectory, scroll int) {
	v <- viewEvent{kind: "show", name: name, rendered: rendered, scroll: scroll}
}

func (v channelView) ShowError(name string, err error) {
	v <- viewEvent{kind: "error", name: name, err: err}
}

func (v channelView) SetSelected(name string) {
	v <- viewEvent{kind: "selected", name: name}
}

// filesMsg is the result of (re)listing the collection.
type filesMsg struct {
	files []string
	label string
	err   error
}

// Model is the bubbletea model for the viewer.
type Model struct {
	ctrl   *viewer.Controller
	events chan viewEvent

	files    []string
	filtered []string
	label    string

	cursor  int
	listOff int

	selected string // exactly-one highlight, confirmed by the controller

	rendered *trajectory.RenderedTrajectory
	lines    []string
	offset   int

	loading  bool
	loadName string
	errText  string

	focus       focus
	searchInput textinput.Model

	overlayCursor int
	expandedID    string

	renderer *glamour.TermRenderer

	width    int
	height   int
	quitting bool
}

// Run starts the terminal viewer over the given source.
func Run(source viewer.Source, opts trajectory.RenderOptions) error {
	events := make(chan viewEvent, 16)
	ctrl := viewer.New(source, channelView(events), opts)

	si := textinput.New()
	si.Placeholder = "filter..."
	si.CharLimit = 100

	m := Model{
		ctrl:        ctrl,
		events:      events,
		searchInput: si,
		width:       120,
		height:      30,
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.listFiles(), m.waitEvent())
}

func (m Model) listFiles() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		files, err := ctrl.Files()
		return filesMsg{files: files, label: ctrl.Label(), err: err}
	}
}

func (m Model) waitEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		return <-events
	}
}

func (m Model) selectCmd(name string) tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		ctrl.Select(name)
		return nil
	}
}

func (m Model) refreshCmd() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		ctrl.Refresh()
		return nil
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(m.detailWidth()-2),
		)
		m.rebuildLines()
		return m, nil

	case filesMsg:
		if msg.err == nil {
			m.files = msg.files
			m.label = msg.label
			m.applyFilter()
		}
		return m, nil

	case viewEvent:
		return m.handleViewEvent(msg)

	case tea.KeyMsg:
		switch m.focus {
		case focusList:
			return m.updateList(msg)
		case focusDetail:
			return m.updateDetail(msg)
		case focusSearch:
			return m.updateSearch(msg)
		case focusOverlay:
			return m.updateOverlay(msg)
		}
	}
	return m, nil
}

func (m Model) handleViewEvent(ev viewEvent) (tea.Model, tea.Cmd) {
	switch ev.kind {
	case "show":
		m.rendered = ev.rendered
		m.offset = ev.scroll
		m.errText = ""
		m.loading = false
		m.overlayCursor = 0
		m.expandedID = ""
		m.rebuildLines()
		m.clampDetail()
	case "error":
		m.errText = ev.err.Error()
		m.rendered = nil
		m.lines = nil
		m.loading = false
	case "selected":
		m.selected = ev.name
	}
	return m, m.waitEvent()
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			m.clampList()
		}

	case "down", "j":
		if m.cursor < len(m.filtered)-1 {
			m.cursor++
			m.clampList()
		}

	case "home", "g":
		m.cursor = 0
		m.clampList()

	case "end", "G":
		m.cursor = maxInt(0, len(m.filtered)-1)
		m.clampList()

	case "enter":
		if len(m.filtered) > 0 {
			name := m.filtered[m.cursor]
			m.loading = true
			m.loadName = name
			return m, m.selectCmd(name)
		}

	case "r":
		if m.selected != "" {
			m.loading = true
			m.loadName = m.selected
			return m, m.refreshCmd()
		}

	case "/":
		m.searchInput.Focus()
		m.focus = focusSearch

	case "tab", "l":
		if m.rendered != nil {
			m.focus = focusDetail
		}
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		m.searchInput.Blur()
		m.focus = focusList
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m *Model) applyFilter() {
	m.filtered = filterNames(m.files, m.searchInput.Value())
	if m.cursor >= len(m.filtered) {
		m.cursor = maxInt(0, len(m.filtered)-1)
	}
	m.clampList()
}

// filterNames returns the names containing the query, case-insensitive.
func filterNames(names []string, query string) []string {
	if query == "" {
		return names
	}
	query = strings.ToLower(query)
	var out []string
	for _, name := range names {
		if strings.Contains(strings.ToLower(name), query) {
			out = append(out, name)
		}
	}
	return out
}

func (m *Model) clampList() {
	visible := m.listRows()
	if m.cursor < m.listOff {
		m.listOff = m.cursor
	}
	if m.cursor >= m.listOff+visible {
		m.listOff = m.cursor - visible + 1
	}
	if m.listOff < 0 {
		m.listOff = 0
	}
}

func (m Model) listRows() int {
	rows := m.height - 4
	if rows < 1 {
		rows = 1
	}
	return rows
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
