package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dd0wney/zonemap/pkg/logging"
	"github.com/dd0wney/zonemap/pkg/mapdata"
	"github.com/dd0wney/zonemap/pkg/mapview"
	"github.com/dd0wney/zonemap/pkg/visualization"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF")).
			MarginLeft(2).
			MarginTop(1)

	graphBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("#FFFF00"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FFFF")).
			MarginLeft(2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1).
			MarginLeft(2)
)

type keyMap struct {
	Next         key.Binding
	Prev         key.Binding
	Select       key.Binding
	Layout       key.Binding
	UpdateLayout key.Binding
	Dark         key.Binding
	Rerun        key.Binding
	Help         key.Binding
	Quit         key.Binding
}

var keys = keyMap{
	Next: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next zone"),
	),
	Prev: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "prev zone"),
	),
	Select: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select"),
	),
	Layout: key.NewBinding(
		key.WithKeys("l"),
		key.WithHelp("l", "next layout"),
	),
	UpdateLayout: key.NewBinding(
		key.WithKeys("u"),
		key.WithHelp("u", "update layout on change"),
	),
	Dark: key.NewBinding(
		key.WithKeys("d"),
		key.WithHelp("d", "dark"),
	),
	Rerun: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "rerun layout"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "more keys"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Select, k.Layout, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.Select},
		{k.Layout, k.UpdateLayout, k.Dark, k.Rerun},
		{k.Help, k.Quit},
	}
}

type snapshotMsg mapdata.Snapshot

type feedClosedMsg struct{}

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitForSnapshot blocks on the feed subscription and hands the next
// snapshot to the event loop.
func waitForSnapshot(ch <-chan mapdata.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return feedClosedMsg{}
		}
		return snapshotMsg(snap)
	}
}

type model struct {
	view      *mapview.View
	snapshots <-chan mapdata.Snapshot
	logger    logging.Logger

	zoneTable table.Model
	help      help.Model
	keys      keyMap

	width  int
	height int
	focus  int

	lastPass   mapview.Pass
	passes     int
	message    string
	messageErr bool
}

func initialModel(v *mapview.View, snapshots <-chan mapdata.Snapshot, logger logging.Logger) model {
	columns := []table.Column{
		{Title: "Zone", Width: 20},
		{Title: "Type", Width: 22},
		{Title: "Resources", Width: 30},
		{Title: "Markers", Width: 24},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(2),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#00FFFF")).
		BorderBottom(true).
		Bold(true)
	t.SetStyles(s)

	return model{
		view:      v,
		snapshots: snapshots,
		logger:    logger,
		zoneTable: t,
		help:      help.New(),
		keys:      keys,
		focus:     -1,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(waitForSnapshot(m.snapshots), tickCmd())
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tickMsg:
		// Layout runs finish in the background; redraw to pick them up.
		return m, tickCmd()

	case snapshotMsg:
		pass, err := m.view.Apply(mapdata.Snapshot(msg))
		if err != nil {
			m.setError(err)
			return m, nil
		}
		m.lastPass = pass
		m.passes++
		if n := len(pass.Result.Failed); n > 0 {
			m.setError(fmt.Errorf("%d graph updates failed, retrying next refresh", n))
		}
		m.refreshZoneTable()
		return m, waitForSnapshot(m.snapshots)

	case feedClosedMsg:
		m.setError(fmt.Errorf("snapshot feed closed"))

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Next):
		m.moveFocus(1)

	case key.Matches(msg, m.keys.Prev):
		m.moveFocus(-1)

	case key.Matches(msg, m.keys.Select):
		id := m.focusedNode()
		if id == "" {
			return m, nil
		}
		if err := m.view.Select(id); err != nil {
			m.setError(err)
			return m, nil
		}
		m.refreshZoneTable()

	case key.Matches(msg, m.keys.Layout):
		name := visualization.Next(m.view.Layout())
		if err := m.view.SetLayout(name); err != nil {
			m.setError(err)
			return m, nil
		}
		m.setMessage("layout: " + name)

	case key.Matches(msg, m.keys.UpdateLayout):
		on := !m.view.UpdateLayoutOnChange()
		m.view.SetUpdateLayoutOnChange(on)
		m.setMessage(fmt.Sprintf("update layout on change: %t", on))

	case key.Matches(msg, m.keys.Dark):
		m.view.SetDark(!m.view.Dark())

	case key.Matches(msg, m.keys.Rerun):
		m.view.RunLayout()
		m.setMessage("layout rerun")
	}
	return m, nil
}

func (m *model) moveFocus(delta int) {
	nodes := m.view.Canvas().NodeIDs()
	if len(nodes) == 0 {
		m.focus = -1
		return
	}
	m.focus = ((m.focus+delta)%len(nodes) + len(nodes)) % len(nodes)
}

func (m model) focusedNode() string {
	nodes := m.view.Canvas().NodeIDs()
	if m.focus < 0 || m.focus >= len(nodes) {
		return ""
	}
	return nodes[m.focus]
}

func (m *model) refreshZoneTable() {
	info, ok := m.view.ActiveZone()
	if !ok {
		m.zoneTable.SetRows(nil)
		return
	}
	m.zoneTable.SetRows([]table.Row{{info.Name, info.Type, info.Resources, info.Markers}})
}

func (m *model) setMessage(s string) {
	m.message = s
	m.messageErr = false
}

func (m *model) setError(err error) {
	m.message = err.Error()
	m.messageErr = true
	m.logger.Warn("zonemap", logging.Error(err))
}

func (m model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var s strings.Builder

	s.WriteString(titleStyle.Render("Zone Map"))
	s.WriteString("\n\n")
	s.WriteString(m.renderStatus())
	s.WriteString("\n")

	// Leave room for the title, status, table and help lines.
	cols := max(m.width-4, 10)
	rows := max(m.height-16, 5)
	s.WriteString(graphBoxStyle.Render(m.view.Canvas().Render(cols, rows)))
	s.WriteString("\n")

	s.WriteString(m.zoneTable.View())

	if m.message != "" {
		s.WriteString("\n")
		if m.messageErr {
			s.WriteString(errorStyle.Render("✗ " + m.message))
		} else {
			s.WriteString(successStyle.Render("✓ " + m.message))
		}
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return s.String()
}

func (m model) renderStatus() string {
	c := m.view.Canvas()
	focus := m.focusedNode()
	if focus == "" {
		focus = "-"
	}
	return statusStyle.Render(fmt.Sprintf(
		"zones %d  portals %d  layout %s  auto %t  dark %t  focus %s  refreshes %d",
		len(c.NodeIDs()), len(c.EdgeIDs()), m.view.Layout(),
		m.view.UpdateLayoutOnChange(), m.view.Dark(), focus, m.passes,
	))
}
