package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"taskdesk/internal/output"
	"taskdesk/internal/router"
	"taskdesk/internal/service"
)

const (
	taskName = iota
	taskDescription
	taskProgress
	taskDue
	taskDepartment
)

func (m Model) updateTasks(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.focus == focusForm {
		return m.updateTaskForm(msg)
	}

	list := m.tasks.Snapshot().List
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit
	case "up", "k":
		m.moveCursor(-1, len(list))
	case "down", "j":
		m.moveCursor(1, len(list))
	case "n":
		m.focus = focusForm
		m.notice = ""
		m.inputIdx = 0
		focusInputs(m.taskForm, 0)
	case "p":
		if len(list) > 0 {
			id := list[m.cursor].ID
			return m, m.op("update task", func(ctx context.Context) error {
				_, err := m.tasks.Update(ctx, id)
				return err
			})
		}
	case "d":
		if len(list) > 0 {
			id := list[m.cursor].ID
			return m, m.op("delete task", func(ctx context.Context) error {
				_, err := m.tasks.Delete(ctx, id)
				return err
			})
		}
	case "r":
		m.tasks.Unmount()
		m.tasks.Mount(m.ctx)
	case "o":
		return m.enter(router.Organizations)
	case "L":
		return m.logout()
	}
	return m, nil
}

func (m Model) updateTaskForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeTaskForm()
		return m, nil
	case "tab", "down":
		m.inputIdx = cycle(m.taskForm, m.inputIdx, 1)
		return m, nil
	case "shift+tab", "up":
		m.inputIdx = cycle(m.taskForm, m.inputIdx, -1)
		return m, nil
	case "enter":
		return m.submitTaskForm()
	}
	return m, typeInto(m.taskForm, m.inputIdx, msg)
}

func (m Model) submitTaskForm() (tea.Model, tea.Cmd) {
	fields, err := taskFields(m.taskForm)
	if err != nil {
		m.notice = err.Error()
		return m, nil
	}
	m.closeTaskForm()
	return m, m.op("create task", func(ctx context.Context) error {
		_, err := m.tasks.Create(ctx, fields)
		return err
	})
}

// taskFields reads and checks the create form.
func taskFields(inputs []textinput.Model) (service.TaskFields, error) {
	fields := service.TaskFields{
		Name:         strings.TrimSpace(inputs[taskName].Value()),
		Description:  strings.TrimSpace(inputs[taskDescription].Value()),
		DueDate:      strings.TrimSpace(inputs[taskDue].Value()),
		DepartmentID: strings.TrimSpace(inputs[taskDepartment].Value()),
	}
	if fields.Name == "" {
		return fields, fmt.Errorf("name is required")
	}
	if p := strings.TrimSpace(inputs[taskProgress].Value()); p != "" {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return fields, fmt.Errorf("progress must be a number")
		}
		fields.Progress = v
	}
	if fields.DueDate != "" {
		if _, err := time.Parse("2006-01-02", fields.DueDate); err != nil {
			return fields, fmt.Errorf("due date must be YYYY-MM-DD")
		}
	}
	return fields, nil
}

func (m *Model) closeTaskForm() {
	m.focus = focusList
	m.notice = ""
	resetInputs(m.taskForm)
}

func (m Model) viewTasks() string {
	st := m.tasks.Snapshot()

	var b strings.Builder
	b.WriteString(titleStyle.Render("Tasks"))
	b.WriteString("\n\n")

	switch {
	case st.Loading:
		b.WriteString(mutedStyle.Render("loading..."))
		b.WriteString("\n")
	case st.Err != nil:
		b.WriteString(errorStyle.Render("could not load tasks: " + st.Err.Error()))
		b.WriteString("\n")
	case len(st.List) == 0:
		b.WriteString(mutedStyle.Render("no tasks"))
		b.WriteString("\n")
	}
	for i, t := range st.List {
		line := fmt.Sprintf("%s %4s%%  %s", m.bar.ViewAs(fraction(t.Progress)), output.FormatProgress(t.Progress), t.Name)
		if t.DueDate != "" {
			line += mutedStyle.Render("  due " + output.FormatDate(t.DueDate))
		}
		b.WriteString(row(i == m.cursor && m.focus == focusList, line))
		b.WriteString("\n")
		if detail := output.TaskDetail(t); detail != "" {
			b.WriteString("    " + mutedStyle.Render(detail))
			b.WriteString("\n")
		}
	}

	if m.focus == focusForm {
		b.WriteString("\n")
		b.WriteString(formView("New task", []string{"Name", "Description", "Progress", "Due", "Department"}, m.taskForm, m.notice))
		b.WriteString(helpStyle.Render("tab: next field  enter: save  esc: cancel"))
		return b.String()
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("n: new  p: progress +10  d: delete  r: reload  o: organizations  L: sign out  q: quit"))
	return b.String()
}

// fraction maps a progress percentage onto the bar's 0..1 range.
func fraction(p float64) float64 {
	switch {
	case p <= 0:
		return 0
	case p >= 100:
		return 1
	default:
		return p / 100
	}
}
