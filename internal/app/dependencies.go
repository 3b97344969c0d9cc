package app

import (
	"github.com/nfrund/authtest/internal/identity"
	"github.com/nfrund/authtest/internal/meapi"
	"github.com/nfrund/authtest/internal/pubsub"
)

// Dependencies holds the services every application instance needs.
// It is built once at startup and shared by all instances.
type Dependencies struct {
	// Provider creates the session-scoped identity client of each instance.
	Provider identity.Provider
	// Me fetches the backend "me" resource for the protected view.
	Me meapi.Fetcher
	// Publisher receives render requests. Nil disables them.
	Publisher pubsub.Publisher
	// BlockSignUpOnMismatch stops sign-up when the confirmation differs.
	BlockSignUpOnMismatch bool
}
