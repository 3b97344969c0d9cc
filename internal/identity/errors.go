package identity

import "errors"

// Sentinel errors shared by every provider implementation. Providers map their
// own failure codes onto these so callers can branch with errors.Is.
var (
	// ErrEmailExists indicates a sign-up attempt for an email that already has an account.
	ErrEmailExists = errors.New("an account with this email already exists")

	// ErrInvalidCredentials indicates a sign-in attempt with an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrWeakPassword indicates the provider rejected the password as too weak.
	ErrWeakPassword = errors.New("password is too weak")

	// ErrInvalidEmail indicates the provider rejected the email address.
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrNoSession is returned when an operation requires a signed-in user.
	ErrNoSession = errors.New("no active session")

	// ErrProvider wraps failures that have no more specific mapping
	// (transport errors, unexpected responses).
	ErrProvider = errors.New("identity provider error")
)
