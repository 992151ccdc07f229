// Package exitcode defines exit codes for the CLI.
package exitcode

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, unknown reference, empty fields).
	UserError = 1

	// AuthError indicates a missing session or a rejected token.
	AuthError = 2

	// BackendError indicates a backend, network or live channel error.
	BackendError = 3
)
