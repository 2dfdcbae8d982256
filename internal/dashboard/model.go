// Package dashboard renders a live view of the current match in the terminal.
package dashboard

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hslog/hslog-go/pkg/hslog/event"
)

// recentZones is how many zone changes the view keeps.
const recentZones = 8

// EventMsg carries one event from the watcher.
type EventMsg struct{ Event event.Event }

// ErrMsg carries one watcher error.
type ErrMsg struct{ Err error }

type streamClosedMsg struct{}

// Model is the bubbletea model of the dashboard.
type Model struct {
	events <-chan event.Event
	errs   <-chan error

	phase    string
	players  []event.Player
	turn     int
	active   *event.Player
	zones    []event.ZoneChange
	result   []event.Player
	matches  int
	lastErr  error
	stopped  bool
	width    int
	logLabel string
}

// New creates a dashboard reading from the watcher channels. errs may be nil.
func New(events <-chan event.Event, errs <-chan error, logLabel string) Model {
	return Model{
		events:   events,
		errs:     errs,
		phase:    "waiting for a match",
		logLabel: logLabel,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.waitEvent(), m.waitErr())
}

func (m Model) waitEvent() tea.Cmd {
	if m.events == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return streamClosedMsg{}
		}
		return EventMsg{Event: ev}
	}
}

func (m Model) waitErr() tea.Cmd {
	if m.errs == nil {
		return nil
	}
	return func() tea.Msg {
		err, ok := <-m.errs
		if !ok {
			return nil
		}
		return ErrMsg{Err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case EventMsg:
		m = m.Apply(msg.Event)
		return m, m.waitEvent()
	case ErrMsg:
		m.lastErr = msg.Err
		return m, m.waitErr()
	case streamClosedMsg:
		m.stopped = true
	}
	return m, nil
}

// Apply folds one event into the view state.
func (m Model) Apply(ev event.Event) Model {
	switch ev := ev.(type) {
	case event.GameStart:
		m.phase = "mulligan"
		m.players = ev.Players
		m.turn = 0
		m.active = nil
		m.zones = nil
		m.result = nil
	case event.MulliganStart:
		m.phase = "mulligan"
	case event.TurnStart:
		m.phase = "playing"
		m.turn = ev.Number
		p := ev.Player
		m.active = &p
	case event.ZoneChange:
		m.zones = append(m.zones, ev)
		if len(m.zones) > recentZones {
			m.zones = m.zones[len(m.zones)-recentZones:]
		}
	case event.GameOver:
		m.phase = "game over"
		m.result = ev.Players
		m.active = nil
		m.matches++
	}
	return m
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("hslog"))
	if m.logLabel != "" {
		b.WriteString(dimStyle.Render("  " + m.logLabel))
	}
	b.WriteString("\n\n")

	status := fmt.Sprintf("Phase: %s", m.phase)
	if m.turn > 0 {
		status += fmt.Sprintf("   Turn: %d", m.turn)
	}
	if m.active != nil {
		status += "   Active: " + teamStyle(m.active.Team).Render(m.active.Name)
	}
	status += fmt.Sprintf("   Matches: %d", m.matches)
	b.WriteString(status + "\n\n")

	left := boxStyle.Render(m.viewPlayers())
	right := boxStyle.Render(m.viewZones())
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right))
	b.WriteString("\n")

	if len(m.result) > 0 {
		b.WriteString("\n" + m.viewResult() + "\n")
	}
	if m.lastErr != nil {
		b.WriteString("\n" + errorStyle.Render("error: "+m.lastErr.Error()) + "\n")
	}
	if m.stopped {
		b.WriteString("\n" + dimStyle.Render("watcher stopped") + "\n")
	}
	b.WriteString("\n" + dimStyle.Render("q: quit"))

	return docStyle.Render(b.String())
}

func (m Model) viewPlayers() string {
	if len(m.players) == 0 {
		return dimStyle.Render("no players yet")
	}
	lines := []string{"Players"}
	for _, p := range m.players {
		line := teamStyle(p.Team).Render(p.Name)
		if p.Team != "" {
			line += dimStyle.Render(" " + strings.ToLower(string(p.Team)))
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) viewZones() string {
	if len(m.zones) == 0 {
		return dimStyle.Render("no zone changes")
	}
	lines := []string{"Recent zone changes"}
	for _, z := range m.zones {
		lines = append(lines, fmt.Sprintf("%s %s %s",
			z.CardName, dimStyle.Render("->"), teamStyle(z.Team).Render(string(z.Team)+" "+z.Zone)))
	}
	return strings.Join(lines, "\n")
}

func (m Model) viewResult() string {
	parts := make([]string, 0, len(m.result))
	for _, p := range m.result {
		style := lostStyle
		if p.Status == event.Won {
			style = wonStyle
		}
		parts = append(parts, fmt.Sprintf("%s %s", p.Name, style.Render(string(p.Status))))
	}
	return "Result: " + strings.Join(parts, ", ")
}

func teamStyle(t event.Team) lipgloss.Style {
	switch t {
	case event.Friendly:
		return friendlyStyle
	case event.Opposing:
		return opposingStyle
	default:
		return lipgloss.NewStyle()
	}
}
