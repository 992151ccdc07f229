// Package tui is the interactive front end: three screens (login,
// organizations, tasks) over the views package.
package tui

import (
	"context"
	"errors"
	"log/slog"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"taskdesk/internal/live"
	"taskdesk/internal/logging"
	"taskdesk/internal/router"
	"taskdesk/internal/service"
	"taskdesk/internal/session"
	"taskdesk/internal/views"
)

// Deps are the collaborators of the terminal UI.
type Deps struct {
	Service    service.Service
	Store      session.Store
	Channel    live.Channel
	Logger     *slog.Logger
	SelfNotify bool
}

// changedMsg tells the model a view changed outside Update (live events,
// background fetches).
type changedMsg struct{}

type loginDoneMsg struct{ err error }

type opDoneMsg struct {
	op  string
	err error
}

type focus int

const (
	focusList focus = iota
	focusForm
)

// Model is the bubbletea model for the whole app.
type Model struct {
	ctx    context.Context
	deps   Deps
	logger *slog.Logger
	hist   *router.History

	route router.Route
	auth  session.Auth

	login *views.Login
	orgs  *views.Organizations
	tasks *views.Tasks

	loginInputs []textinput.Model
	orgForm     []textinput.Model
	taskForm    []textinput.Model
	inputIdx    int
	focus       focus
	cursor      int
	// editID is the organization being edited, "" when the form creates.
	editID string
	notice string

	bar    progress.Model
	width  int
	height int
}

// New builds the model. The first screen is decided by the route guard.
func New(ctx context.Context, deps Deps) Model {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	hist := &router.History{}

	auth, err := deps.Store.Load()
	if err != nil {
		logger.Error("failed to load session", "err", err)
	}

	m := Model{
		ctx:    ctx,
		deps:   deps,
		logger: logger,
		hist:   hist,
		auth:   auth,
		login:  views.NewLogin(deps.Service, deps.Store, hist, logger),
		orgs:   views.NewOrganizations(deps.Service, hist, logger),
		tasks:  views.NewTasks(deps.Service, deps.Channel, logger, views.TaskOptions{SelfNotify: deps.SelfNotify}),
		loginInputs: []textinput.Model{
			newInput("email", false),
			newInput("password", true),
		},
		orgForm: []textinput.Model{
			newInput("name", false),
			newInput("type", false),
			newInput("code", false),
		},
		taskForm: []textinput.Model{
			newInput("name", false),
			newInput("description", false),
			newInput("progress", false),
			newInput("due (YYYY-MM-DD)", false),
			newInput("department id", false),
		},
		bar: progress.New(progress.WithDefaultGradient(), progress.WithWidth(20), progress.WithoutPercentage()),
	}
	m.route = router.RequireAuth(auth, router.Organizations)
	if m.route == router.Login {
		focusInputs(m.loginInputs, 0)
	}
	return m
}

// Route returns the current screen.
func (m Model) Route() router.Route { return m.route }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	if m.route == router.Organizations {
		return m.loadOrgs()
	}
	return nil
}

// Run starts the UI and blocks until the user quits or ctx ends.
func Run(ctx context.Context, deps Deps) error {
	m := New(ctx, deps)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	// Views also change from inside Update (form setters), where a blocking
	// Send would wait on the loop that is running it.
	notify := func() { go p.Send(changedMsg{}) }
	m.login.OnChange(notify)
	m.orgs.OnChange(notify)
	m.tasks.OnChange(notify)
	defer m.tasks.Unmount()

	if _, err := p.Run(); err != nil && !(errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil) {
		return err
	}
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case changedMsg:
		m.clampCursor()
		return m, nil

	case loginDoneMsg:
		if msg.err != nil {
			return m, nil
		}
		auth, err := m.deps.Store.Load()
		if err != nil {
			m.logger.Error("failed to load session", "err", err)
		}
		m.auth = auth
		for i := range m.loginInputs {
			m.loginInputs[i].Reset()
		}
		to := m.hist.Current()
		if to == "" || to == router.Login {
			to = router.Organizations
		}
		return m.enter(to)

	case opDoneMsg:
		if msg.err != nil {
			m.logger.Debug("operation failed", "op", msg.op, "err", msg.err)
		}
		m.clampCursor()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.route {
		case router.Login:
			return m.updateLogin(msg)
		case router.Organizations:
			return m.updateOrgs(msg)
		case router.Tasks:
			return m.updateTasks(msg)
		}
	}
	return m, nil
}

// enter switches to a screen. Leaving the task screen unmounts its view.
func (m Model) enter(to router.Route) (Model, tea.Cmd) {
	to = router.RequireAuth(m.auth, to)
	if m.route == router.Tasks && to != router.Tasks {
		m.tasks.Unmount()
	}
	m.route = to
	m.cursor = 0
	m.focus = focusList
	m.editID = ""
	m.notice = ""

	switch to {
	case router.Login:
		m.inputIdx = 0
		focusInputs(m.loginInputs, 0)
	case router.Organizations:
		return m, m.loadOrgs()
	case router.Tasks:
		m.tasks.Mount(m.ctx)
	}
	return m, nil
}

// op runs fn off the UI goroutine and reports back with opDoneMsg.
func (m Model) op(name string, fn func(ctx context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return opDoneMsg{op: name, err: fn(ctx)}
	}
}

func (m Model) loadOrgs() tea.Cmd {
	auth := m.auth
	return m.op("load organizations", func(ctx context.Context) error {
		return m.orgs.Mount(ctx, auth)
	})
}

func (m Model) logout() (Model, tea.Cmd) {
	if err := m.deps.Store.Clear(); err != nil {
		m.logger.Error("failed to clear session", "err", err)
	}
	m.auth = session.Absent()
	return m.enter(router.Login)
}

func (m *Model) clampCursor() {
	n := 0
	switch m.route {
	case router.Organizations:
		n = len(m.orgs.Snapshot().List)
	case router.Tasks:
		n = len(m.tasks.Snapshot().List)
	}
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) moveCursor(delta, n int) {
	m.cursor += delta
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}
