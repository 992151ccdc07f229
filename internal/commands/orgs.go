package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"taskdesk/internal/exitcode"
	"taskdesk/internal/output"
	"taskdesk/internal/service"
	"taskdesk/internal/views"
)

func init() {
	Register(&OrgsCmd{})
	Register(&AddOrgCmd{})
	Register(&UpdateOrgCmd{})
	Register(&RmOrgCmd{})
}

// loadOrganizations mounts an organization view and returns it with the list
// fetched.
func loadOrganizations(ctx context.Context, env *Env) (*views.Organizations, error) {
	v := views.NewOrganizations(env.Service, nil, env.Logger)
	if err := v.Mount(ctx, env.Auth); err != nil {
		return nil, err
	}
	return v, nil
}

// OrgsCmd implements the orgs command.
type OrgsCmd struct{}

func (c *OrgsCmd) Name() string      { return "orgs" }
func (c *OrgsCmd) Aliases() []string { return []string{"organizations"} }
func (c *OrgsCmd) Synopsis() string  { return "List organizations" }
func (c *OrgsCmd) Usage() string     { return "taskdesk orgs [common flags]" }
func (c *OrgsCmd) NeedsAuth() bool   { return true }

func (c *OrgsCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *OrgsCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	v, err := loadOrganizations(ctx, env)
	if err != nil {
		return reportError(errOut, err)
	}

	list := v.Snapshot().List
	for i, org := range list {
		output.FormatOrganization(out, i+1, org)
	}
	if len(list) == 0 && !env.Config.Quiet {
		fmt.Fprintln(out, "no organizations found")
	}
	return exitcode.Success
}

// orgFlags are the editable organization fields.
type orgFlags struct {
	name, typ, code string
}

func (f *orgFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.name, "name", "", "")
	fs.StringVar(&f.typ, "type", "", "")
	fs.StringVar(&f.code, "code", "", "")
}

// AddOrgCmd implements the addorg command.
type AddOrgCmd struct {
	fields orgFlags
}

// SetFields sets the organization fields (for testing).
func (c *AddOrgCmd) SetFields(name, typ, code string) {
	c.fields = orgFlags{name: name, typ: typ, code: code}
}

func (c *AddOrgCmd) Name() string      { return "addorg" }
func (c *AddOrgCmd) Aliases() []string { return nil }
func (c *AddOrgCmd) Synopsis() string  { return "Create an organization" }
func (c *AddOrgCmd) Usage() string {
	return "taskdesk addorg [common flags] --name <name> --type <type> --code <code>"
}
func (c *AddOrgCmd) NeedsAuth() bool { return true }

func (c *AddOrgCmd) RegisterFlags(fs *flag.FlagSet) { c.fields.register(fs) }

func (c *AddOrgCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	for _, f := range []struct{ flag, value string }{
		{"--name", c.fields.name},
		{"--type", c.fields.typ},
		{"--code", c.fields.code},
	} {
		if blank(f.value) {
			fmt.Fprintf(errOut, "error: %s required\n", f.flag)
			return exitcode.UserError
		}
	}

	v := views.NewOrganizations(env.Service, nil, env.Logger)
	v.SetForm(service.OrganizationFields{Name: c.fields.name, Type: c.fields.typ, Code: c.fields.code})
	if _, err := v.Create(ctx, env.Auth); err != nil {
		return reportError(errOut, err)
	}
	return ok(env, out)
}

// UpdateOrgCmd implements the updateorg command. Unset flags keep the
// current value; the server receives the full record.
type UpdateOrgCmd struct {
	fields orgFlags
}

// SetFields sets the organization fields (for testing).
func (c *UpdateOrgCmd) SetFields(name, typ, code string) {
	c.fields = orgFlags{name: name, typ: typ, code: code}
}

func (c *UpdateOrgCmd) Name() string      { return "updateorg" }
func (c *UpdateOrgCmd) Aliases() []string { return nil }
func (c *UpdateOrgCmd) Synopsis() string  { return "Update an organization" }
func (c *UpdateOrgCmd) Usage() string {
	return "taskdesk updateorg [common flags] [--name <name>] [--type <type>] [--code <code>] <ref>"
}
func (c *UpdateOrgCmd) NeedsAuth() bool { return true }

func (c *UpdateOrgCmd) RegisterFlags(fs *flag.FlagSet) { c.fields.register(fs) }

func (c *UpdateOrgCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	ref, err := ParseRef(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if blank(c.fields.name) && blank(c.fields.typ) && blank(c.fields.code) {
		fmt.Fprintln(errOut, "error: nothing to update")
		return exitcode.UserError
	}

	v, err := loadOrganizations(ctx, env)
	if err != nil {
		return reportError(errOut, err)
	}
	org, err := ResolveOrganization(v.Snapshot().List, ref)
	if err != nil {
		return reportError(errOut, err)
	}

	fields := org.Fields()
	if !blank(c.fields.name) {
		fields.Name = c.fields.name
	}
	if !blank(c.fields.typ) {
		fields.Type = c.fields.typ
	}
	if !blank(c.fields.code) {
		fields.Code = c.fields.code
	}

	if _, err := v.Update(ctx, env.Auth, org.ID, fields); err != nil {
		return reportError(errOut, err)
	}
	return ok(env, out)
}

// RmOrgCmd implements the rmorg command.
type RmOrgCmd struct{}

func (c *RmOrgCmd) Name() string      { return "rmorg" }
func (c *RmOrgCmd) Aliases() []string { return nil }
func (c *RmOrgCmd) Synopsis() string  { return "Delete an organization" }
func (c *RmOrgCmd) Usage() string     { return "taskdesk rmorg [common flags] <ref>" }
func (c *RmOrgCmd) NeedsAuth() bool   { return true }

func (c *RmOrgCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *RmOrgCmd) Run(ctx context.Context, env *Env, args []string, out, errOut io.Writer) int {
	ref, err := ParseRef(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	v, err := loadOrganizations(ctx, env)
	if err != nil {
		return reportError(errOut, err)
	}
	org, err := ResolveOrganization(v.Snapshot().List, ref)
	if err != nil {
		return reportError(errOut, err)
	}

	if err := v.Delete(ctx, env.Auth, org.ID); err != nil {
		return reportError(errOut, err)
	}
	return ok(env, out)
}
