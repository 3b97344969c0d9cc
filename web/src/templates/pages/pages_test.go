package pages

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	g "maragu.dev/gomponents"

	"github.com/nfrund/authtest/internal/view/dto/auth"
)

func render(t *testing.T, n g.Node) string {
	t.Helper()
	var b strings.Builder
	require.NoError(t, n.Render(&b))
	return b.String()
}

func TestRoot_Loading(t *testing.T) {
	out := render(t, Root(auth.RootData{Screen: auth.ScreenLoading}))
	assert.Contains(t, out, `id="root"`)
	assert.Contains(t, out, "Loading")
	assert.NotContains(t, out, "<form")
}

func TestRoot_PublicRendersExactlyOneForm(t *testing.T) {
	signIn := render(t, Root(auth.RootData{
		Screen: auth.ScreenPublic,
		Public: &auth.PublicData{Tab: auth.TabSignIn, SignIn: &auth.SignInData{Email: "a@b.com"}},
	}))
	assert.Equal(t, 1, strings.Count(signIn, "<form"))
	assert.Contains(t, signIn, `id="sign-in-form"`)
	assert.Contains(t, signIn, `value="a@b.com"`)
	assert.Contains(t, signIn, "to sign up")
	assert.NotContains(t, signIn, "Confirmation")

	signUp := render(t, Root(auth.RootData{
		Screen: auth.ScreenPublic,
		Public: &auth.PublicData{Tab: auth.TabSignUp, SignUp: &auth.SignUpData{}},
	}))
	assert.Equal(t, 1, strings.Count(signUp, "<form"))
	assert.Contains(t, signUp, `id="sign-up-form"`)
	assert.Contains(t, signUp, "Confirmation")
	assert.Contains(t, signUp, "to sign in")
}

func TestPublic_InputsCarryNativeConstraints(t *testing.T) {
	out := render(t, SignUpForm(&auth.SignUpData{}))
	assert.Contains(t, out, `type="email"`)
	assert.Equal(t, 2, strings.Count(out, `minlength="8"`))
	assert.Equal(t, 3, strings.Count(out, "required"))
	assert.Equal(t, 3, strings.Count(out, `hx-post="/ui/input"`))
}

func TestPublic_PasswordFieldsHaveNoValue(t *testing.T) {
	out := render(t, SignUpForm(&auth.SignUpData{Email: "a@b.com"}))
	assert.Equal(t, 1, strings.Count(out, "value="), "only the email is rendered back")
	assert.Contains(t, out, `value="a@b.com"`)
}

func TestPublic_ToggleLinkDoesNotNavigate(t *testing.T) {
	out := render(t, Public(&auth.PublicData{Tab: auth.TabSignIn, SignIn: &auth.SignInData{}}))
	assert.Contains(t, out, `href="#"`)
	assert.Contains(t, out, `hx-post="/ui/tab"`)
	assert.Contains(t, out, "sign-up")
}

func TestPublic_FieldErrorsShown(t *testing.T) {
	out := render(t, SignInForm(&auth.SignInData{Errors: map[string]string{
		auth.FieldEmail: "Please enter an email address.",
	}}))
	assert.Contains(t, out, "Please enter an email address.")
}

func TestRoot_Protected(t *testing.T) {
	out := render(t, Root(auth.RootData{
		Screen:    auth.ScreenProtected,
		Protected: &auth.ProtectedData{UID: "u1", Email: "a@b.com", MeStatus: "200 OK"},
	}))
	assert.Contains(t, out, "uid: u1")
	assert.Contains(t, out, "email: a@b.com")
	assert.Contains(t, out, "me: 200 OK")
	assert.Contains(t, out, `hx-post="/ui/sign-out"`)
	assert.Contains(t, out, "Sign Out")
}

func TestRoot_NoticesEscaped(t *testing.T) {
	out := render(t, Root(auth.RootData{
		Screen:  auth.ScreenLoading,
		Notices: []auth.Notice{{Level: auth.NoticeWarning, Message: "<b>Password does not match.</b>"}},
	}))
	assert.Contains(t, out, `role="alert"`)
	assert.Contains(t, out, "&lt;b&gt;Password does not match.&lt;/b&gt;")
}

func TestRootOOB(t *testing.T) {
	out := render(t, RootOOB(auth.RootData{Screen: auth.ScreenLoading}))
	assert.Contains(t, out, `hx-swap-oob="true"`)
	assert.Contains(t, out, `id="root"`)
}

func TestIndex_ConnectsWebsocket(t *testing.T) {
	out := render(t, Index(auth.RootData{Screen: auth.ScreenLoading}))
	assert.True(t, strings.HasPrefix(out, "<!doctype html>"))
	assert.Contains(t, out, `ws-connect="/ws"`)
	assert.Contains(t, out, `hx-ext="ws"`)
	assert.Contains(t, out, "<title>Firebase Auth Test</title>")
}
