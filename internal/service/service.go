// Package service defines the backend-agnostic interface for organization
// and task operations.
package service

import (
	"context"

	"taskdesk/internal/session"
)

// Service defines the interface for backend operations.
// Views and commands never talk HTTP directly.
type Service interface {
	// Login exchanges credentials for a session token.
	Login(ctx context.Context, creds Credentials) (string, error)

	// ListOrganizations returns all organizations in server order.
	ListOrganizations(ctx context.Context, auth session.Auth) ([]Organization, error)

	// CreateOrganization creates an organization and returns the server record.
	CreateOrganization(ctx context.Context, auth session.Auth, fields OrganizationFields) (Organization, error)

	// UpdateOrganization replaces an organization and returns the server record.
	UpdateOrganization(ctx context.Context, auth session.Auth, id string, fields OrganizationFields) (Organization, error)

	// DeleteOrganization deletes an organization.
	DeleteOrganization(ctx context.Context, auth session.Auth, id string) error

	// ListTasks returns all tasks in server order. Not authenticated.
	ListTasks(ctx context.Context) ([]Task, error)

	// CreateTask creates a task and returns the server record.
	CreateTask(ctx context.Context, fields TaskFields) (Task, error)

	// UpdateTask replaces a task (by task.ID) and returns the server record.
	UpdateTask(ctx context.Context, task Task) (Task, error)

	// DeleteTask deletes a task and returns the record the server reports.
	DeleteTask(ctx context.Context, id string) (Task, error)
}
