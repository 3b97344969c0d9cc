package pages

import (
	"encoding/json"

	g "maragu.dev/gomponents"
	hx "maragu.dev/gomponents-htmx"
	h "maragu.dev/gomponents/html"

	"github.com/nfrund/authtest/internal/view/dto/auth"
)

// Public renders the active form and the link that toggles to the other one.
func Public(d *auth.PublicData) g.Node {
	var form g.Node
	if d.SignUp != nil {
		form = SignUpForm(d.SignUp)
	} else if d.SignIn != nil {
		form = SignInForm(d.SignIn)
	}
	return h.Div(
		h.Class("public"),
		h.Div(
			form,
			tabLink(d.Tab.Other()),
		),
	)
}

func tabLink(to auth.Tab) g.Node {
	text := "to sign in"
	if to == auth.TabSignUp {
		text = "to sign up"
	}
	return h.A(
		h.Class("tab-toggle"),
		h.Href("#"),
		hx.Post("/ui/tab"),
		hx.Vals(vals(map[string]string{"tab": string(to)})),
		swapRoot(),
		g.Text(text),
	)
}

// SignUpForm renders the email, password and confirmation fields.
func SignUpForm(d *auth.SignUpData) g.Node {
	return h.Div(
		h.Form(
			h.ID("sign-up-form"),
			hx.Post("/ui/sign-up"),
			swapRoot(),
			emailField(auth.FormSignUp, d.Email, d.Errors),
			passwordField(auth.FormSignUp, auth.FieldPassword, "Password", d.Errors),
			passwordField(auth.FormSignUp, auth.FieldConfirmation, "Confirmation", d.Errors),
			h.Button(h.Type("submit"), g.Text("Sign Up")),
		),
	)
}

// SignInForm renders the email and password fields.
func SignInForm(d *auth.SignInData) g.Node {
	return h.Div(
		h.Form(
			h.ID("sign-in-form"),
			hx.Post("/ui/sign-in"),
			swapRoot(),
			emailField(auth.FormSignIn, d.Email, d.Errors),
			passwordField(auth.FormSignIn, auth.FieldPassword, "Password", d.Errors),
			h.Button(h.Type("submit"), g.Text("Sign In")),
		),
	)
}

func emailField(form, value string, errs map[string]string) g.Node {
	return field(form, auth.FieldEmail, "Email", errs,
		h.Type("email"),
		h.Value(value),
	)
}

// passwordField carries no value: a re-rendered form asks for the password again.
func passwordField(form, name, label string, errs map[string]string) g.Node {
	return field(form, name, label, errs,
		h.Type("password"),
		h.MinLength("8"),
	)
}

// field renders one controlled input. Every change is posted so the server
// side input always holds what the browser shows.
func field(form, name, label string, errs map[string]string, attrs ...g.Node) g.Node {
	id := form + "-" + name
	msg := errs[name]
	return h.Div(
		h.Class("field"),
		h.Label(h.For(id), g.Text(label)),
		h.Input(
			h.ID(id),
			h.Name(name),
			h.Required(),
			g.Group(attrs),
			hx.Post("/ui/input"),
			hx.Trigger("change"),
			hx.Swap("none"),
			hx.Vals(vals(map[string]string{"form": form, "field": name})),
		),
		g.If(msg != "", h.Div(h.Class("field-error"), g.Text(msg))),
	)
}

func vals(m map[string]string) string {
	b, _ := json.Marshal(m)
	return string(b)
}
