package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/kessler-frost/mesos-scheduler/pkg/mesos"
)

// Colors
var (
	ColorPrimary = lipgloss.Color("#7C3AED") // Purple
	ColorSuccess = lipgloss.Color("#10B981") // Green
	ColorWarning = lipgloss.Color("#F59E0B") // Amber
	ColorError   = lipgloss.Color("#EF4444") // Red
	ColorMuted   = lipgloss.Color("#6B7280") // Gray
	ColorBorder  = lipgloss.Color("#374151") // Dark gray
)

// Styles for different UI elements
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			MarginBottom(1)

	// Status indicators
	InstalledStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	PendingStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError)

	// Key binding help
	KeyStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	DescStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// Divider
	DividerStyle = lipgloss.NewStyle().
			Foreground(ColorBorder)
)

// RenderKeyHelp renders a key binding with description.
func RenderKeyHelp(key, desc string) string {
	return KeyStyle.Render(key) + " " + DescStyle.Render(desc)
}

// RenderDivider renders a horizontal divider.
func RenderDivider(width int) string {
	divider := ""
	for i := 0; i < width; i++ {
		divider += "─"
	}
	return DividerStyle.Render(divider)
}

// TaskStateStyle maps a task's lifecycle state to the color it should be
// rendered with in the watch view: green once running or finished, amber
// while still coming up, muted once cleanly killed, red on any other state
// (failed, lost, error).
func TaskStateStyle(state mesos.TaskState) lipgloss.Style {
	switch state {
	case mesos.TaskRunning, mesos.TaskFinished:
		return InstalledStyle
	case mesos.TaskStaging, mesos.TaskStarting:
		return PendingStyle
	case mesos.TaskKilled:
		return lipgloss.NewStyle().Foreground(ColorMuted)
	default:
		return ErrorStyle
	}
}

// RenderTaskState renders state's name in its TaskStateStyle color.
func RenderTaskState(state mesos.TaskState) string {
	return TaskStateStyle(state).Render(state.String())
}
