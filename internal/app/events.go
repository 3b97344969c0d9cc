package app

import "github.com/nfrund/authtest/internal/pubsub"

// RenderRequest asks the browser connection of one application to re-render
// its root. Requests are idempotent: the newest snapshot is always rendered.
type RenderRequest struct {
	Screen string `json:"screen"`
	Reason string `json:"reason"`
}

// RenderRequested is published, keyed by application id, after the view
// state of an application changes outside a request/response exchange.
var RenderRequested = pubsub.NewEvent[RenderRequest](
	"ui.render.requested",
	"An application's view state changed; push a fresh root to its browser.",
)
