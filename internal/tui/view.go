package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"

	"taskdesk/internal/router"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle   = lipgloss.NewStyle().Faint(true)
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	frameStyle  = lipgloss.NewStyle().Padding(1, 2)
)

// View implements tea.Model.
func (m Model) View() string {
	var body string
	switch m.route {
	case router.Login:
		body = m.viewLogin()
	case router.Organizations:
		body = m.viewOrgs()
	case router.Tasks:
		body = m.viewTasks()
	}
	return frameStyle.Render(body)
}

func row(selected bool, line string) string {
	if selected {
		return cursorStyle.Render("> ") + line
	}
	return "  " + line
}

func formView(title string, labels []string, inputs []textinput.Model, notice string) string {
	var b strings.Builder
	b.WriteString(labelStyle.Render(title))
	b.WriteString("\n")
	for i, in := range inputs {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Width(12).Render(labels[i]), in.View()))
		b.WriteString("\n")
	}
	if notice != "" {
		b.WriteString(errorStyle.Render(notice))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}
