// Package identity defines the narrow contract this application consumes from an
// external identity provider: account creation, password sign-in, sign-out and
// session-change notifications.
package identity

import "context"

// User is the provider's record of an authenticated principal. It is owned and
// mutated by the provider client; callers only observe it.
type User interface {
	// UID is the opaque subject identifier, stable per account.
	UID() string
	// Email returns the account email, or "" when the provider has none.
	Email() string
	// Token returns a bearer token for the user, refreshing it if needed.
	Token(ctx context.Context) (string, error)
}

// Unsubscribe removes a session-change listener. It is safe to call more than once.
type Unsubscribe func()

// Client is a session-scoped handle onto the identity provider. Each mounted
// application owns exactly one Client.
type Client interface {
	CreateAccount(ctx context.Context, email, password string) (User, error)
	SignIn(ctx context.Context, email, password string) (User, error)
	SignOut(ctx context.Context) error

	// OnSessionChange registers fn to receive every session change. A nil User
	// means signed out. The first call to fn happens once the client has
	// finished initialising, even if nobody is signed in.
	OnSessionChange(fn func(User)) Unsubscribe

	// Close releases the client. Listeners receive nothing after Close.
	Close() error
}

// Provider creates session-scoped clients against one identity backend.
type Provider interface {
	Name() string
	NewClient() Client
}
