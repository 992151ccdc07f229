package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"taskdesk/internal/router"
	"taskdesk/internal/service"
)

const (
	orgName = iota
	orgType
	orgCode
)

func (m Model) updateOrgs(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.focus == focusForm {
		return m.updateOrgForm(msg)
	}

	list := m.orgs.Snapshot().List
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "up", "k":
		m.moveCursor(-1, len(list))
	case "down", "j":
		m.moveCursor(1, len(list))
	case "n":
		m.openOrgForm(service.OrganizationFields{}, "")
	case "u", "e":
		if len(list) > 0 {
			org := list[m.cursor]
			m.openOrgForm(org.Fields(), org.ID)
		}
	case "d":
		if len(list) > 0 {
			id, auth := list[m.cursor].ID, m.auth
			return m, m.op("delete organization", func(ctx context.Context) error {
				return m.orgs.Delete(ctx, auth, id)
			})
		}
	case "r":
		return m, m.loadOrgs()
	case "t":
		return m.enter(router.Tasks)
	case "L":
		return m.logout()
	}
	return m, nil
}

func (m *Model) openOrgForm(fields service.OrganizationFields, editID string) {
	m.focus = focusForm
	m.editID = editID
	m.notice = ""
	m.orgForm[orgName].SetValue(fields.Name)
	m.orgForm[orgType].SetValue(fields.Type)
	m.orgForm[orgCode].SetValue(fields.Code)
	m.inputIdx = 0
	focusInputs(m.orgForm, 0)
}

func (m Model) updateOrgForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeOrgForm()
		return m, nil
	case "tab", "down":
		m.inputIdx = cycle(m.orgForm, m.inputIdx, 1)
		return m, nil
	case "shift+tab", "up":
		m.inputIdx = cycle(m.orgForm, m.inputIdx, -1)
		return m, nil
	case "enter":
		return m.submitOrgForm()
	}
	return m, typeInto(m.orgForm, m.inputIdx, msg)
}

func (m Model) submitOrgForm() (tea.Model, tea.Cmd) {
	fields := service.OrganizationFields{
		Name: strings.TrimSpace(m.orgForm[orgName].Value()),
		Type: strings.TrimSpace(m.orgForm[orgType].Value()),
		Code: strings.TrimSpace(m.orgForm[orgCode].Value()),
	}
	if fields.Name == "" || fields.Type == "" || fields.Code == "" {
		m.notice = "name, type and code are required"
		return m, nil
	}

	auth, editID := m.auth, m.editID
	m.closeOrgForm()

	if editID != "" {
		return m, m.op("update organization", func(ctx context.Context) error {
			_, err := m.orgs.Update(ctx, auth, editID, fields)
			return err
		})
	}
	m.orgs.SetForm(fields)
	return m, m.op("create organization", func(ctx context.Context) error {
		_, err := m.orgs.Create(ctx, auth)
		return err
	})
}

func (m *Model) closeOrgForm() {
	m.focus = focusList
	m.editID = ""
	m.notice = ""
	resetInputs(m.orgForm)
}

func (m Model) viewOrgs() string {
	st := m.orgs.Snapshot()

	var b strings.Builder
	b.WriteString(titleStyle.Render("Organizations"))
	b.WriteString("\n\n")

	switch {
	case st.Loading:
		b.WriteString(mutedStyle.Render("loading..."))
		b.WriteString("\n")
	case len(st.List) == 0:
		b.WriteString(mutedStyle.Render("no organizations"))
		b.WriteString("\n")
	}
	for i, org := range st.List {
		line := fmt.Sprintf("%s  %s", org.Name, mutedStyle.Render(fmt.Sprintf("[%s/%s]", org.Type, org.Code)))
		b.WriteString(row(i == m.cursor && m.focus == focusList, line))
		b.WriteString("\n")
	}

	if m.focus == focusForm {
		title := "New organization"
		if m.editID != "" {
			title = "Edit organization"
		}
		b.WriteString("\n")
		b.WriteString(formView(title, []string{"Name", "Type", "Code"}, m.orgForm, m.notice))
		b.WriteString(helpStyle.Render("tab: next field  enter: save  esc: cancel"))
		return b.String()
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("n: new  u: edit  d: delete  r: reload  t: tasks  L: sign out  q: quit"))
	return b.String()
}
