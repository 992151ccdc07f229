package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

const (
	loginEmail = iota
	loginPassword
)

func (m Model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, tea.Quit
	case "tab", "down":
		m.inputIdx = cycle(m.loginInputs, m.inputIdx, 1)
		return m, nil
	case "shift+tab", "up":
		m.inputIdx = cycle(m.loginInputs, m.inputIdx, -1)
		return m, nil
	case "enter":
		if m.inputIdx == loginEmail {
			m.inputIdx = cycle(m.loginInputs, m.inputIdx, 1)
			return m, nil
		}
		return m, m.submitLogin()
	}
	return m, typeInto(m.loginInputs, m.inputIdx, msg)
}

func (m Model) submitLogin() tea.Cmd {
	m.login.SetEmail(m.loginInputs[loginEmail].Value())
	m.login.SetPassword(m.loginInputs[loginPassword].Value())
	login, ctx := m.login, m.ctx
	return func() tea.Msg {
		return loginDoneMsg{err: login.Submit(ctx)}
	}
}

func (m Model) viewLogin() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Sign in"))
	b.WriteString("\n\n")
	for i, in := range m.loginInputs {
		label := "Email"
		if i == loginPassword {
			label = "Password"
		}
		b.WriteString(labelStyle.Render(label))
		b.WriteString("\n")
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	if msg := m.login.Snapshot().Error; msg != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(msg))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("tab: next field  enter: sign in  esc: quit"))
	return b.String()
}
