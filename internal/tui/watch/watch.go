// Package watch implements a live, event-driven view of task state
// transitions, built on Bubble Tea and Lip Gloss. Rather than polling on a
// tick, the model's Init command blocks on the event bus and requeues
// itself after each delivery, so the view only redraws when state actually
// changes.
package watch

import (
	"sort"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kessler-frost/mesos-scheduler/internal/tui/styles"
	"github.com/kessler-frost/mesos-scheduler/pkg/mesos"
)

var tableStyles = func() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(styles.ColorBorder).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(styles.ColorPrimary).
		Bold(false)
	return s
}()

// row is one tracked task's last-known state.
type row struct {
	id    mesos.TaskID
	state mesos.TaskState
	note  string
}

// eventMsg wraps a single bus event for delivery through tea.Program.
type eventMsg mesos.Event

// closedMsg marks the event channel as drained (the bus subscription was
// torn down).
type closedMsg struct{}

// NameLookup resolves a task ID to a human label, typically the descriptor
// name a task was launched from. Implementations must be safe for
// concurrent use: the caller often still be populating task names on a
// background goroutine while the watch Model is already rendering.
type NameLookup func(mesos.TaskID) (string, bool)

// Model renders a table of task IDs to their last observed state, updating
// live as TaskEvent events arrive on events.
type Model struct {
	events <-chan mesos.Event
	rows   map[mesos.TaskID]*row
	lookup NameLookup
	order  []mesos.TaskID
	done   bool

	table table.Model
}

// New creates a watch Model that reads from events until it closes. lookup
// resolves task IDs to labels; task IDs it doesn't recognize are labeled by
// their raw value. A nil lookup labels every task by its raw ID.
func New(events <-chan mesos.Event, lookup NameLookup) Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Task", Width: 20},
			{Title: "State", Width: 12},
			{Title: "Note", Width: 30},
		}),
		table.WithFocused(false),
		table.WithHeight(15),
	)
	t.SetStyles(tableStyles)

	return Model{
		events: events,
		rows:   make(map[mesos.TaskID]*row),
		lookup: lookup,
		table:  t,
	}
}

func waitForEvent(events <-chan mesos.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return closedMsg{}
		}
		return eventMsg(ev)
	}
}

func (m Model) Init() tea.Cmd {
	return waitForEvent(m.events)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
		return m, nil

	case eventMsg:
		ev := mesos.Event(msg)
		if ev.Kind == mesos.EventTaskEvent {
			m.track(ev)
			m.table.SetRows(m.rowsForTable())
		}
		if m.done {
			return m, nil
		}
		return m, waitForEvent(m.events)

	case closedMsg:
		m.done = true
		return m, nil
	}
	return m, nil
}

func (m *Model) track(ev mesos.Event) {
	r, ok := m.rows[ev.TaskID]
	if !ok {
		r = &row{id: ev.TaskID}
		m.rows[ev.TaskID] = r
		m.order = append(m.order, ev.TaskID)
	}
	r.state = ev.State
	r.note = ev.StatusMessage
}

func (m Model) labelFor(id mesos.TaskID) string {
	if m.lookup != nil {
		if name, ok := m.lookup(id); ok {
			return name
		}
	}
	return id.Value
}

func (m Model) rowsForTable() []table.Row {
	ordered := make([]mesos.TaskID, len(m.order))
	copy(ordered, m.order)
	sort.Slice(ordered, func(i, j int) bool {
		return m.labelFor(ordered[i]) < m.labelFor(ordered[j])
	})

	rows := make([]table.Row, len(ordered))
	for i, id := range ordered {
		r := m.rows[id]
		rows[i] = table.Row{m.labelFor(id), styles.RenderTaskState(r.state), r.note}
	}
	return rows
}

func (m Model) View() string {
	out := styles.TitleStyle.Render("Task Watch") + "\n"
	out += styles.RenderDivider(40) + "\n"
	if len(m.order) == 0 {
		out += styles.SubtitleStyle.Render("waiting for task events...") + "\n"
	} else {
		out += m.table.View() + "\n"
	}
	out += "\n" + styles.RenderKeyHelp("q", "quit")
	return out
}
