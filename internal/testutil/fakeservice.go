// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"taskdesk/internal/service"
	"taskdesk/internal/session"
)

// DefaultToken is the token FakeService hands out on login.
const DefaultToken = "T1"

var _ service.Service = (*FakeService)(nil)

// FakeService is an in-memory implementation of service.Service for testing.
type FakeService struct {
	mu    sync.RWMutex
	orgs  []service.Organization
	tasks []service.Task
	next  int
	calls map[string]int

	// Token is returned by Login. Organization calls accept only this token.
	Token string

	// LastCredentials is the body of the latest Login call.
	LastCredentials service.Credentials

	// ListTasksGate, when set, holds ListTasks until it is closed or the
	// context ends.
	ListTasksGate chan struct{}

	// Error injection for testing
	LoginErr              error
	ListOrganizationsErr  error
	CreateOrganizationErr error
	UpdateOrganizationErr error
	DeleteOrganizationErr error
	ListTasksErr          error
	CreateTaskErr         error
	UpdateTaskErr         error
	DeleteTaskErr         error
}

// NewFakeService creates an empty FakeService that logs in with DefaultToken.
func NewFakeService() *FakeService {
	return &FakeService{
		Token: DefaultToken,
		calls: make(map[string]int),
		next:  100,
	}
}

// AddOrganization adds an organization record.
func (f *FakeService) AddOrganization(id, name, typ, code string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orgs = append(f.orgs, service.Organization{ID: id, Name: name, Type: typ, Code: code})
}

// AddTask adds a task record.
func (f *FakeService) AddTask(t service.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, t)
}

// Organizations returns the server-side organizations.
func (f *FakeService) Organizations() []service.Organization {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]service.Organization, len(f.orgs))
	copy(out, f.orgs)
	return out
}

// Tasks returns the server-side tasks.
func (f *FakeService) Tasks() []service.Task {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]service.Task, len(f.tasks))
	copy(out, f.tasks)
	return out
}

// Calls returns how many times method was called.
func (f *FakeService) Calls(method string) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.calls[method]
}

// TotalCalls returns the number of backend calls of any kind.
func (f *FakeService) TotalCalls() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *FakeService) record(method string) {
	f.mu.Lock()
	f.calls[method]++
	f.mu.Unlock()
}

func (f *FakeService) newID() string {
	f.next++
	return fmt.Sprintf("%d", f.next)
}

// checkAuth mirrors the REST client: no request without a token, 401 for a
// token the server does not know.
func (f *FakeService) checkAuth(auth session.Auth) error {
	tok, ok := auth.Token()
	if !ok {
		return service.ErrNotLoggedIn
	}
	if f.Token != "" && tok != f.Token {
		return &service.APIError{StatusCode: http.StatusUnauthorized, Message: "invalid token"}
	}
	return nil
}

// Login implements service.Service.
func (f *FakeService) Login(ctx context.Context, creds service.Credentials) (string, error) {
	f.record("Login")
	f.mu.Lock()
	f.LastCredentials = creds
	f.mu.Unlock()
	if f.LoginErr != nil {
		return "", f.LoginErr
	}
	return f.Token, nil
}

// ListOrganizations implements service.Service.
func (f *FakeService) ListOrganizations(ctx context.Context, auth session.Auth) ([]service.Organization, error) {
	if err := f.checkAuth(auth); err != nil {
		return nil, err
	}
	f.record("ListOrganizations")
	if f.ListOrganizationsErr != nil {
		return nil, f.ListOrganizationsErr
	}
	return f.Organizations(), nil
}

// CreateOrganization implements service.Service.
func (f *FakeService) CreateOrganization(ctx context.Context, auth session.Auth, fields service.OrganizationFields) (service.Organization, error) {
	if err := f.checkAuth(auth); err != nil {
		return service.Organization{}, err
	}
	f.record("CreateOrganization")
	if f.CreateOrganizationErr != nil {
		return service.Organization{}, f.CreateOrganizationErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	org := service.Organization{ID: f.newID(), Name: fields.Name, Type: fields.Type, Code: fields.Code}
	f.orgs = append(f.orgs, org)
	return org, nil
}

// UpdateOrganization implements service.Service.
func (f *FakeService) UpdateOrganization(ctx context.Context, auth session.Auth, id string, fields service.OrganizationFields) (service.Organization, error) {
	if err := f.checkAuth(auth); err != nil {
		return service.Organization{}, err
	}
	f.record("UpdateOrganization")
	if f.UpdateOrganizationErr != nil {
		return service.Organization{}, f.UpdateOrganizationErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, o := range f.orgs {
		if o.ID == id {
			f.orgs[i] = service.Organization{ID: id, Name: fields.Name, Type: fields.Type, Code: fields.Code}
			return f.orgs[i], nil
		}
	}
	return service.Organization{}, &service.APIError{StatusCode: http.StatusNotFound, Message: "organization not found"}
}

// DeleteOrganization implements service.Service.
func (f *FakeService) DeleteOrganization(ctx context.Context, auth session.Auth, id string) error {
	if err := f.checkAuth(auth); err != nil {
		return err
	}
	f.record("DeleteOrganization")
	if f.DeleteOrganizationErr != nil {
		return f.DeleteOrganizationErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, o := range f.orgs {
		if o.ID == id {
			f.orgs = append(f.orgs[:i], f.orgs[i+1:]...)
			return nil
		}
	}
	return &service.APIError{StatusCode: http.StatusNotFound, Message: "organization not found"}
}

// ListTasks implements service.Service.
func (f *FakeService) ListTasks(ctx context.Context) ([]service.Task, error) {
	f.record("ListTasks")
	if gate := f.ListTasksGate; gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.ListTasksErr != nil {
		return nil, f.ListTasksErr
	}
	return f.Tasks(), nil
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, fields service.TaskFields) (service.Task, error) {
	f.record("CreateTask")
	if f.CreateTaskErr != nil {
		return service.Task{}, f.CreateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t := service.Task{
		ID:           f.newID(),
		Name:         fields.Name,
		Description:  fields.Description,
		Progress:     fields.Progress,
		DueDate:      fields.DueDate,
		DepartmentID: fields.DepartmentID,
	}
	f.tasks = append(f.tasks, t)
	return t, nil
}

// UpdateTask implements service.Service.
func (f *FakeService) UpdateTask(ctx context.Context, task service.Task) (service.Task, error) {
	f.record("UpdateTask")
	if f.UpdateTaskErr != nil {
		return service.Task{}, f.UpdateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks {
		if t.ID == task.ID {
			f.tasks[i] = task
			return task, nil
		}
	}
	return service.Task{}, &service.APIError{StatusCode: http.StatusNotFound, Message: "task not found"}
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, id string) (service.Task, error) {
	f.record("DeleteTask")
	if f.DeleteTaskErr != nil {
		return service.Task{}, f.DeleteTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return t, nil
		}
	}
	return service.Task{}, &service.APIError{StatusCode: http.StatusNotFound, Message: "task not found"}
}
