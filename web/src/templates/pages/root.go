// Package pages renders the application's screens.
package pages

import (
	g "maragu.dev/gomponents"
	hx "maragu.dev/gomponents-htmx"
	h "maragu.dev/gomponents/html"

	"github.com/nfrund/authtest/internal/view"
	"github.com/nfrund/authtest/internal/view/dto/auth"
	"github.com/nfrund/authtest/web/src/templates/layouts"
	"github.com/nfrund/authtest/web/src/templates/partials"
)

// RootID is the element every fragment and push replaces.
const RootID = "root"

// Index is the full page.
func Index(d auth.RootData) g.Node {
	return layouts.Base("", Root(d))
}

// Root renders the screen selected by d.Screen inside #root.
func Root(d auth.RootData) g.Node {
	return root(d)
}

// RootOOB is Root marked for an out-of-band swap, as sent over the websocket.
func RootOOB(d auth.RootData) g.Node {
	return root(d, hx.SwapOOB("true"))
}

func root(d auth.RootData, attrs ...g.Node) g.Node {
	return h.Div(
		h.ID(RootID),
		g.Group(attrs),
		view.AdaptTemplToGomponent(partials.Notices(d.Notices)),
		screen(d),
	)
}

func screen(d auth.RootData) g.Node {
	switch {
	case d.Screen == auth.ScreenPublic && d.Public != nil:
		return Public(d.Public)
	case d.Screen == auth.ScreenProtected && d.Protected != nil:
		return Protected(d.Protected)
	default:
		return Loading()
	}
}

// Loading is shown until the provider reports the initial session.
func Loading() g.Node {
	return h.Div(h.Class("loading"), g.Text("Loading"))
}

// swapRoot makes an htmx request replace #root with the response.
func swapRoot() g.Node {
	return g.Group{hx.Target("#" + RootID), hx.Swap("outerHTML")}
}
