package ui

import (
	"github.com/charmbracelet/lipgloss"

	"taskdeck/internal/deadline"
	"taskdeck/internal/task"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	clockStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	faintStyle    = lipgloss.NewStyle().Faint(true)
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	expiredStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	invalidStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	doneTextStyle = lipgloss.NewStyle().Faint(true).Strikethrough(true)
)

// rowStyle strikes through completed tasks whether or not they have a
// deadline; expired rows are dimmed.
func rowStyle(t task.Task, ev deadline.Evaluation) lipgloss.Style {
	switch {
	case t.Completed:
		return doneTextStyle
	case ev.Inactive():
		return faintStyle
	default:
		return lipgloss.NewStyle()
	}
}

func statusLabelStyle(ev deadline.Evaluation) lipgloss.Style {
	switch ev.Status {
	case deadline.Expired:
		return expiredStyle
	case deadline.Invalid:
		return invalidStyle
	default:
		return labelStyle
	}
}
