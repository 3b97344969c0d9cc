package pages

import (
	g "maragu.dev/gomponents"
	hx "maragu.dev/gomponents-htmx"
	h "maragu.dev/gomponents/html"

	"github.com/nfrund/authtest/internal/view/dto/auth"
)

// Protected shows the signed-in user and the sign-out link.
func Protected(d *auth.ProtectedData) g.Node {
	return h.Div(
		h.Class("protected"),
		h.Div(g.Text("uid: "+d.UID)),
		h.Div(g.Text("email: "+d.Email)),
		g.If(d.MeStatus != "", h.Div(h.Class("me-status"), g.Text("me: "+d.MeStatus))),
		h.A(
			h.Class("sign-out"),
			h.Href("#"),
			hx.Post("/ui/sign-out"),
			swapRoot(),
			g.Text("Sign Out"),
		),
	)
}
