package layouts

import (
	g "maragu.dev/gomponents"
	hx "maragu.dev/gomponents-htmx"
	c "maragu.dev/gomponents/components"
	h "maragu.dev/gomponents/html"
)

const (
	htmxSrc   = "https://unpkg.com/htmx.org@2.0.4"
	htmxWSSrc = "https://unpkg.com/htmx-ext-ws@2.0.2/ws.js"
)

// Base is the page shell. The body opens a websocket to /ws through the htmx
// ws extension so server-side state changes are pushed into the page.
func Base(title string, body ...g.Node) g.Node {
	return c.HTML5(c.HTML5Props{
		Title:    CalculateTitle(title),
		Language: "en",
		Head: []g.Node{
			h.Meta(h.Name("viewport"), h.Content("width=device-width, initial-scale=1")),
			h.Link(h.Rel("stylesheet"), h.Href("/static/app.css")),
			h.Script(h.Src(htmxSrc)),
			h.Script(h.Src(htmxWSSrc)),
		},
		Body: []g.Node{
			hx.Ext("ws"),
			g.Attr("ws-connect", "/ws"),
			h.Div(
				h.Class("app"),
				h.Div(h.Class("app-title"), g.Text(AppName)),
				g.Group(body),
			),
		},
	})
}
