package commands_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"taskdesk/internal/commands"
	"taskdesk/internal/config"
	"taskdesk/internal/exitcode"
	"taskdesk/internal/live"
	"taskdesk/internal/logging"
	"taskdesk/internal/service"
	"taskdesk/internal/session"
	"taskdesk/internal/testutil"
	"taskdesk/internal/views"
)

// newEnv builds an Env around FakeService, an in-memory session and a
// loopback live channel.
func newEnv(t *testing.T, svc *testutil.FakeService, token string, quiet bool) (*commands.Env, *live.Loopback) {
	t.Helper()

	store := session.NewMemoryStore(token)
	auth, err := store.Load()
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	ch := live.NewLoopback()

	env := &commands.Env{
		Config: &config.Config{
			Dir:     t.TempDir(),
			Server:  config.DefaultServer,
			Timeout: config.DefaultTimeout,
			Quiet:   quiet,
		},
		Service: svc,
		Store:   store,
		Auth:    auth,
		Live:    func(ctx context.Context) (live.Conn, error) { return ch, nil },
		Logger:  logging.Discard(),
	}
	return env, ch
}

// runCommand is a helper to run a command against env.
func runCommand(t *testing.T, cmd commands.Command, env *commands.Env, args []string) (stdout, stderr string, code int) {
	t.Helper()

	var outBuf, errBuf bytes.Buffer
	code = cmd.Run(context.Background(), env, args, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

func seeded() *testutil.FakeService {
	svc := testutil.NewFakeService()
	svc.AddOrganization("o1", "Acme", "company", "AC")
	svc.AddOrganization("o2", "Globex", "ngo", "GX")
	svc.AddTask(service.Task{ID: "t1", Name: "Write docs", Progress: 0, DueDate: "2024-05-01T00:00:00.000Z"})
	svc.AddTask(service.Task{ID: "t2", Name: "Ship", Progress: 40})
	return svc
}

func TestVersionCommand(t *testing.T) {
	env, _ := newEnv(t, nil, "", false)

	stdout, stderr, code := runCommand(t, &commands.VersionCmd{}, env, nil)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "taskdesk "+commands.Version+"\n" {
		t.Errorf("unexpected version output %q", stdout)
	}
}

func TestHelpCommand(t *testing.T) {
	env, _ := newEnv(t, nil, "", false)

	stdout, _, code := runCommand(t, &commands.HelpCmd{}, env, nil)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	for _, want := range []string{"Usage:", "orgs", "progress", "watch", "ui"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("help output should mention %q", want)
		}
	}
}

func TestTasksCommand(t *testing.T) {
	env, _ := newEnv(t, seeded(), testutil.DefaultToken, false)

	stdout, stderr, code := runCommand(t, &commands.TasksCmd{}, env, nil)

	if code != exitcode.Success {
		t.Fatalf("expected success, got %d (%s)", code, stderr)
	}
	expected := "   1     0%  Write docs  due 2024-05-01\n   2    40%  Ship\n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}
}

func TestTasksCommand_Empty(t *testing.T) {
	env, _ := newEnv(t, testutil.NewFakeService(), testutil.DefaultToken, false)

	stdout, _, code := runCommand(t, &commands.TasksCmd{}, env, nil)

	if code != exitcode.Success {
		t.Fatalf("expected success, got %d", code)
	}
	if stdout != "no tasks found\n" {
		t.Errorf("unexpected output %q", stdout)
	}
}

func TestTasksCommand_BackendError(t *testing.T) {
	svc := seeded()
	svc.ListTasksErr = errors.New("boom")
	env, _ := newEnv(t, svc, testutil.DefaultToken, false)

	stdout, stderr, code := runCommand(t, &commands.TasksCmd{}, env, nil)

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if stdout != "" {
		t.Errorf("expected no stdout, got %q", stdout)
	}
	if stderr != "error: backend error: boom\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestOrgsCommand(t *testing.T) {
	env, _ := newEnv(t, seeded(), testutil.DefaultToken, false)

	stdout, _, code := runCommand(t, &commands.OrgsCmd{}, env, nil)

	if code != exitcode.Success {
		t.Fatalf("expected success, got %d", code)
	}
	expected := "   1  Acme  [company/AC]\n   2  Globex  [ngo/GX]\n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}
}

func TestOrgsCommand_RejectedToken(t *testing.T) {
	env, _ := newEnv(t, seeded(), "stale", false)

	_, stderr, code := runCommand(t, &commands.OrgsCmd{}, env, nil)

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if !strings.HasPrefix(stderr, "error: auth error:") {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestAddOrgCommand(t *testing.T) {
	svc := seeded()
	env, _ := newEnv(t, svc, testutil.DefaultToken, false)

	cmd := &commands.AddOrgCmd{}
	cmd.SetFields("Initech", "company", "IN")
	stdout, _, code := runCommand(t, cmd, env, nil)

	if code != exitcode.Success {
		t.Fatalf("expected success, got %d", code)
	}
	if stdout != "ok\n" {
		t.Errorf("expected ok, got %q", stdout)
	}
	orgs := svc.Organizations()
	if len(orgs) != 3 || orgs[2].Name != "Initech" || orgs[2].Type != "company" || orgs[2].Code != "IN" {
		t.Errorf("unexpected organizations %+v", orgs)
	}
}

func TestAddOrgCommand_MissingField(t *testing.T) {
	svc := seeded()
	env, _ := newEnv(t, svc, testutil.DefaultToken, false)

	cmd := &commands.AddOrgCmd{}
	cmd.SetFields("Initech", "", "IN")
	_, stderr, code := runCommand(t, cmd, env, nil)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: --type required\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if svc.TotalCalls() != 0 {
		t.Errorf("expected no backend calls, got %d", svc.TotalCalls())
	}
}

func TestUpdateOrgCommand_KeepsUnsetFields(t *testing.T) {
	svc := seeded()
	env, _ := newEnv(t, svc, testutil.DefaultToken, true)

	cmd := &commands.UpdateOrgCmd{}
	cmd.SetFields("", "", "GX2")
	stdout, _, code := runCommand(t, cmd, env, []string{"2"})

	if code != exitcode.Success {
		t.Fatalf("expected success, got %d", code)
	}
	if stdout != "" {
		t.Errorf("expected quiet output, got %q", stdout)
	}
	org := svc.Organizations()[1]
	if org.Name != "Globex" || org.Type != "ngo" || org.Code != "GX2" {
		t.Errorf("unexpected organization %+v", org)
	}
}

func TestUpdateOrgCommand_NothingToUpdate(t *testing.T) {
	env, _ := newEnv(t, seeded(), testutil.DefaultToken, false)

	_, stderr, code := runCommand(t, &commands.UpdateOrgCmd{}, env, []string{"1"})

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: nothing to update\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestRmOrgCommand(t *testing.T) {
	svc := seeded()
	env, _ := newEnv(t, svc, testutil.DefaultToken, false)

	_, _, code := runCommand(t, &commands.RmOrgCmd{}, env, []string{"id:o1"})

	if code != exitcode.Success {
		t.Fatalf("expected success, got %d", code)
	}
	orgs := svc.Organizations()
	if len(orgs) != 1 || orgs[0].ID != "o2" {
		t.Errorf("unexpected organizations %+v", orgs)
	}
}

func TestRmOrgCommand_NotFound(t *testing.T) {
	svc := seeded()
	env, _ := newEnv(t, svc, testutil.DefaultToken, false)

	_, _, code := runCommand(t, &commands.RmOrgCmd{}, env, []string{"9"})

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if svc.Calls("DeleteOrganization") != 0 {
		t.Error("expected no delete request")
	}
}

func TestAddCommand_AnnouncesCreation(t *testing.T) {
	svc := testutil.NewFakeService()
	env, ch := newEnv(t, svc, testutil.DefaultToken, false)

	cmd := &commands.AddCmd{}
	cmd.SetFields(service.TaskFields{Description: "by friday", Progress: 5, DueDate: "2024-06-01"})
	stdout, stderr, code := runCommand(t, cmd, env, []string{"Buy", "milk"})

	if code != exitcode.Success {
		t.Fatalf("expected success, got %d (%s)", code, stderr)
	}
	if stdout != "ok\n" {
		t.Errorf("expected ok, got %q", stdout)
	}

	tasks := svc.Tasks()
	if len(tasks) != 1 || tasks[0].Name != "Buy milk" || tasks[0].Progress != 5 || tasks[0].DueDate != "2024-06-01" {
		t.Fatalf("unexpected tasks %+v", tasks)
	}
	emitted := ch.Emitted()
	if len(emitted) != 1 || emitted[0].Event != live.TaskCreated {
		t.Errorf("expected one task-created announcement, got %+v", emitted)
	}
}

func TestAddCommand_InvalidDueDate(t *testing.T) {
	svc := testutil.NewFakeService()
	env, _ := newEnv(t, svc, testutil.DefaultToken, false)

	cmd := &commands.AddCmd{}
	cmd.SetFields(service.TaskFields{Name: "x", DueDate: "next week"})
	_, stderr, code := runCommand(t, cmd, env, nil)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if !strings.HasPrefix(stderr, "error: invalid due date") {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if svc.TotalCalls() != 0 {
		t.Error("expected no backend calls")
	}
}

func TestAddCommand_NameRequired(t *testing.T) {
	env, _ := newEnv(t, testutil.NewFakeService(), testutil.DefaultToken, false)

	_, stderr, code := runCommand(t, &commands.AddCmd{}, env, nil)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: name required\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestAddCommand_LiveUnavailableStillCreates(t *testing.T) {
	svc := testutil.NewFakeService()
	env, _ := newEnv(t, svc, testutil.DefaultToken, false)
	env.Live = func(ctx context.Context) (live.Conn, error) {
		return nil, errors.New("connection refused")
	}

	cmd := &commands.AddCmd{}
	cmd.SetFields(service.TaskFields{Name: "Offline"})
	_, _, code := runCommand(t, cmd, env, nil)

	if code != exitcode.Success {
		t.Fatalf("expected success, got %d", code)
	}
	if len(svc.Tasks()) != 1 {
		t.Error("expected task to be created")
	}
}

func TestProgressCommand(t *testing.T) {
	svc := seeded()
	env, ch := newEnv(t, svc, testutil.DefaultToken, false)

	stdout, stderr, code := runCommand(t, &commands.ProgressCmd{}, env, []string{"2"})

	if code != exitcode.Success {
		t.Fatalf("expected success, got %d (%s)", code, stderr)
	}
	if stdout != "ok\n" {
		t.Errorf("expected ok, got %q", stdout)
	}
	if got := svc.Tasks()[1].Progress; got != 40+views.ProgressStep {
		t.Errorf("expected progress %d, got %v", 40+views.ProgressStep, got)
	}
	emitted := ch.Emitted()
	if len(emitted) != 1 || emitted[0].Event != live.TaskUpdated {
		t.Errorf("expected one task-updated announcement, got %+v", emitted)
	}
}

func TestProgressCommand_RefRequired(t *testing.T) {
	svc := seeded()
	env, _ := newEnv(t, svc, testutil.DefaultToken, false)

	_, stderr, code := runCommand(t, &commands.ProgressCmd{}, env, nil)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr == "" {
		t.Error("expected an error message")
	}
	if svc.TotalCalls() != 0 {
		t.Error("expected no backend calls")
	}
}

func TestRmCommand(t *testing.T) {
	svc := seeded()
	env, ch := newEnv(t, svc, testutil.DefaultToken, false)

	_, _, code := runCommand(t, &commands.RmCmd{}, env, []string{"id:t1"})

	if code != exitcode.Success {
		t.Fatalf("expected success, got %d", code)
	}
	tasks := svc.Tasks()
	if len(tasks) != 1 || tasks[0].ID != "t2" {
		t.Errorf("unexpected tasks %+v", tasks)
	}
	emitted := ch.Emitted()
	if len(emitted) != 1 || emitted[0].Event != live.TaskDeleted {
		t.Errorf("expected one task-deleted announcement, got %+v", emitted)
	}
}

func TestRmCommand_NotFound(t *testing.T) {
	svc := seeded()
	env, _ := newEnv(t, svc, testutil.DefaultToken, false)

	_, stderr, code := runCommand(t, &commands.RmCmd{}, env, []string{"7"})

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if !strings.HasPrefix(stderr, "error: ") {
		t.Errorf("unexpected stderr %q", stderr)
	}
	if svc.Calls("DeleteTask") != 0 {
		t.Error("expected no delete request")
	}
}

func TestWatchCommand_PrintsEvents(t *testing.T) {
	env, ch := newEnv(t, seeded(), testutil.DefaultToken, false)

	go func() {
		deadline := time.Now().Add(5 * time.Second)
		for ch.Count(live.TaskDeleted) == 0 && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}
		ch.Inject(live.TaskCreated, service.Task{ID: "t3", Name: "New"})
		ch.Inject(live.TaskDeleted, service.Task{ID: "t1", Name: "Write docs"})
	}()

	cmd := &commands.WatchCmd{}
	cmd.SetCount(2)
	stdout, stderr, code := runCommand(t, cmd, env, nil)

	if code != exitcode.Success {
		t.Fatalf("expected success, got %d (%s)", code, stderr)
	}
	expected := "created   t3  New\ndeleted   t1  Write docs\n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}
	if stderr != "watching for task changes\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestWatchCommand_ChannelClosed(t *testing.T) {
	env, ch := newEnv(t, seeded(), testutil.DefaultToken, true)
	ch.Close()

	_, stderr, code := runCommand(t, &commands.WatchCmd{}, env, nil)

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if stderr != "error: live channel closed by server\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestWatchCommand_NoDialer(t *testing.T) {
	env, _ := newEnv(t, seeded(), testutil.DefaultToken, false)
	env.Live = nil

	_, stderr, code := runCommand(t, &commands.WatchCmd{}, env, nil)

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if stderr != "error: live channel not configured\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestTasksCommand_Golden(t *testing.T) {
	svc := seeded()
	svc.AddTask(service.Task{ID: "t3", Progress: 12.5, DueDate: "2024-07-15"})
	svc.AddTask(service.Task{ID: "t4", Name: "Line\nbreak", Progress: 100})
	svc.AddTask(service.Task{ID: "t5", Name: "Review", Progress: 60, Description: "second pass", Assignee: "ana"})
	svc.AddTask(service.Task{ID: "t6", Name: "Triage", Progress: 10, Assignee: "luis"})
	env, _ := newEnv(t, svc, testutil.DefaultToken, false)

	stdout, _, code := runCommand(t, &commands.TasksCmd{}, env, nil)

	if code != exitcode.Success {
		t.Fatalf("expected success, got %d", code)
	}
	testutil.GoldenString(t, "tasks", stdout)
}

func TestOrgsCommand_Golden(t *testing.T) {
	svc := seeded()
	svc.AddOrganization("o3", " ", "", "")
	env, _ := newEnv(t, svc, testutil.DefaultToken, false)

	stdout, _, code := runCommand(t, &commands.OrgsCmd{}, env, nil)

	if code != exitcode.Success {
		t.Fatalf("expected success, got %d", code)
	}
	testutil.GoldenString(t, "orgs", stdout)
}

func TestHelpCommand_SingleCommand(t *testing.T) {
	env, _ := newEnv(t, nil, "", false)

	stdout, _, code := runCommand(t, &commands.HelpCmd{}, env, []string{"delete"})

	if code != exitcode.Success {
		t.Fatalf("expected success, got %d", code)
	}
	expected := "Usage: taskdesk rm [common flags] <ref>\n\nDelete a task\n\nAliases: delete\n"
	if stdout != expected {
		t.Errorf("expected %q, got %q", expected, stdout)
	}
}

func TestHelpCommand_UnknownCommand(t *testing.T) {
	env, _ := newEnv(t, nil, "", false)

	_, stderr, code := runCommand(t, &commands.HelpCmd{}, env, []string{"frobnicate"})

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: unknown command: frobnicate\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestRegistry_AliasClash(t *testing.T) {
	r := commands.NewRegistry()
	if err := r.Register(&commands.RmCmd{}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register(&commands.RmOrgCmd{}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register(&commands.TasksCmd{}); err != nil {
		t.Fatalf("register: %v", err)
	}

	// "delete" is already an alias of rm
	clash := &commands.ProgressCmd{}
	if err := r.Register(aliasOf{clash, "delete"}); err == nil {
		t.Fatal("expected alias clash")
	}
	if _, ok := r.Find("progress"); ok {
		t.Fatal("a rejected command must not be partly registered")
	}

	var names []string
	for _, c := range r.All() {
		names = append(names, c.Name())
	}
	if strings.Join(names, ",") != "rm,rmorg,tasks" {
		t.Errorf("unexpected order %v", names)
	}
	if c, ok := r.Find("list"); !ok || c.Name() != "tasks" {
		t.Error("expected alias lookup to work")
	}
}

// aliasOf overrides a command's aliases.
type aliasOf struct {
	commands.Command
	alias string
}

func (a aliasOf) Aliases() []string { return []string{a.alias} }
