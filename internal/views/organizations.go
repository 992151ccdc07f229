package views

import (
	"context"
	"log/slog"
	"sync"

	"taskdesk/internal/router"
	"taskdesk/internal/service"
	"taskdesk/internal/session"
)

// OrganizationsState is a copy of the organization screen.
type OrganizationsState struct {
	Loading bool
	List    []service.Organization
	Form    service.OrganizationFields
}

// Organizations is the authenticated organization list with its create form.
//
// Failures are logged and returned; the list is never touched on failure and
// nothing is shown to the user beyond the loading flag clearing.
type Organizations struct {
	notifier

	svc    service.Service
	nav    router.Navigator
	logger *slog.Logger

	mu      sync.Mutex
	loading bool
	list    []service.Organization
	form    service.OrganizationFields
}

// NewOrganizations returns a view in the loading state. nav may be nil.
func NewOrganizations(svc service.Service, nav router.Navigator, logger *slog.Logger) *Organizations {
	return &Organizations{svc: svc, nav: nav, logger: orDiscard(logger), loading: true}
}

// Snapshot returns a copy of the current state.
func (v *Organizations) Snapshot() OrganizationsState {
	v.mu.Lock()
	defer v.mu.Unlock()
	list := make([]service.Organization, len(v.list))
	copy(list, v.list)
	return OrganizationsState{Loading: v.loading, List: list, Form: v.form}
}

// Mount fetches the list. Without a session it navigates to the login screen
// and returns service.ErrNotLoggedIn without a request.
func (v *Organizations) Mount(ctx context.Context, auth session.Auth) error {
	if !router.Guard(auth, v.nav) {
		return service.ErrNotLoggedIn
	}

	orgs, err := v.svc.ListOrganizations(ctx, auth)

	v.mu.Lock()
	v.loading = false
	if err == nil {
		v.list = orgs
	}
	v.mu.Unlock()
	v.changed()

	if err != nil {
		v.logger.Error("failed to fetch organizations", "err", err)
		return err
	}
	return nil
}

// SetForm replaces the create form.
func (v *Organizations) SetForm(fields service.OrganizationFields) {
	v.mu.Lock()
	v.form = fields
	v.mu.Unlock()
	v.changed()
}

// Form returns the create form.
func (v *Organizations) Form() service.OrganizationFields {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.form
}

// Create posts the form. On success the returned record is appended and the
// form is reset.
func (v *Organizations) Create(ctx context.Context, auth session.Auth) (service.Organization, error) {
	if !router.Guard(auth, v.nav) {
		return service.Organization{}, service.ErrNotLoggedIn
	}

	org, err := v.svc.CreateOrganization(ctx, auth, v.Form())
	if err != nil {
		v.logger.Error("failed to create organization", "err", err)
		return service.Organization{}, err
	}

	v.mu.Lock()
	v.list = append(v.list, org)
	v.form = service.OrganizationFields{}
	v.mu.Unlock()
	v.changed()
	return org, nil
}

// Update replaces the organization id with fields. On success the list entry
// with that id is replaced in place.
func (v *Organizations) Update(ctx context.Context, auth session.Auth, id string, fields service.OrganizationFields) (service.Organization, error) {
	if !router.Guard(auth, v.nav) {
		return service.Organization{}, service.ErrNotLoggedIn
	}

	org, err := v.svc.UpdateOrganization(ctx, auth, id, fields)
	if err != nil {
		v.logger.Error("failed to update organization", "id", id, "err", err)
		return service.Organization{}, err
	}
	switch {
	case org.ID == "" && org.Fields().IsZero():
		// No organization in the response: list what was sent.
		org = service.Organization{ID: id, Name: fields.Name, Type: fields.Type, Code: fields.Code}
	case org.ID == "":
		org.ID = id
	}

	v.mu.Lock()
	for i := range v.list {
		if v.list[i].ID == id {
			v.list[i] = org
		}
	}
	v.mu.Unlock()
	v.changed()
	return org, nil
}

// Delete removes the organization id. Removing an id that is no longer listed
// is a no-op locally.
func (v *Organizations) Delete(ctx context.Context, auth session.Auth, id string) error {
	if !router.Guard(auth, v.nav) {
		return service.ErrNotLoggedIn
	}

	if err := v.svc.DeleteOrganization(ctx, auth, id); err != nil {
		v.logger.Error("failed to delete organization", "id", id, "err", err)
		return err
	}

	v.mu.Lock()
	kept := v.list[:0]
	for _, o := range v.list {
		if o.ID != id {
			kept = append(kept, o)
		}
	}
	v.list = kept
	v.mu.Unlock()
	v.changed()
	return nil
}
