package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/authtest/internal/app"
	"github.com/nfrund/authtest/internal/identity"
	"github.com/nfrund/authtest/internal/middleware"
	"github.com/nfrund/authtest/internal/rendering"
	"github.com/nfrund/authtest/internal/testutils"
	"github.com/nfrund/authtest/internal/view/dto/auth"
)

type uiFixture struct {
	e        *echo.Echo
	provider *testutils.FakeProvider
	registry *app.Registry
	cookies  []*http.Cookie
}

func newUIFixture(t *testing.T) *uiFixture {
	t.Helper()
	provider := &testutils.FakeProvider{AutoEmit: true}
	registry := app.NewRegistry(app.Dependencies{Provider: provider}, 0)
	t.Cleanup(func() { _ = registry.Close() })

	h := NewUIHandler(rendering.NewUniversalRenderer())
	e := echo.New()
	e.Validator = NewValidator()
	e.Use(session.Middleware(sessions.NewCookieStore([]byte("0123456789abcdef0123456789abcdef"))))
	ui := e.Group("", middleware.Session(registry))
	ui.GET("/", h.IndexGet)
	ui.POST("/ui/tab", h.TabPost)
	ui.POST("/ui/input", h.InputPost)
	ui.POST("/ui/sign-up", h.SignUpPost)
	ui.POST("/ui/sign-in", h.SignInPost)
	ui.POST("/ui/sign-out", h.SignOutPost)

	return &uiFixture{e: e, provider: provider, registry: registry}
}

func (f *uiFixture) do(t *testing.T, method, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	}
	for _, c := range f.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	if cookies := rec.Result().Cookies(); len(cookies) > 0 {
		f.cookies = cookies
	}
	return rec
}

// client returns the provider client of the fixture's only session.
func (f *uiFixture) client(t *testing.T) *testutils.FakeClient {
	t.Helper()
	clients := f.provider.Clients()
	require.Len(t, clients, 1)
	return clients[0]
}

// signedOut loads the page and reports the initial signed-out state.
func (f *uiFixture) signedOut(t *testing.T) {
	t.Helper()
	rec := f.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	f.client(t).Emit(nil)
}

func TestUI_IndexShowsLoadingBeforeFirstEvent(t *testing.T) {
	f := newUIFixture(t)

	rec := f.do(t, http.MethodGet, "/", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<!doctype html>")
	assert.Contains(t, rec.Body.String(), "Loading")
	assert.NotEmpty(t, f.cookies, "a session cookie is issued")
}

func TestUI_TabPostSwitchesForm(t *testing.T) {
	f := newUIFixture(t)
	f.signedOut(t)

	rec := f.do(t, http.MethodPost, "/ui/tab", url.Values{"tab": {"sign-up"}})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="sign-up-form"`)
	assert.NotContains(t, rec.Body.String(), `id="sign-in-form"`)
}

func TestUI_TabPostRejectsUnknownTab(t *testing.T) {
	f := newUIFixture(t)
	f.signedOut(t)

	rec := f.do(t, http.MethodPost, "/ui/tab", url.Values{"tab": {"register"}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUI_TabPostWhileLoadingRerendersRoot(t *testing.T) {
	f := newUIFixture(t)
	f.do(t, http.MethodGet, "/", nil)

	rec := f.do(t, http.MethodPost, "/ui/tab", url.Values{"tab": {"sign-up"}})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Loading")
}

func TestUI_InputPostRecordsValue(t *testing.T) {
	f := newUIFixture(t)
	f.signedOut(t)

	rec := f.do(t, http.MethodPost, "/ui/input", url.Values{
		"form":  {auth.FormSignIn},
		"field": {auth.FieldEmail},
		"email": {"a@b.com"},
	})
	require.Equal(t, http.StatusNoContent, rec.Code)

	a, ok := f.registry.Get(f.onlyAppID(t))
	require.True(t, ok)
	d := a.Snapshot()
	require.NotNil(t, d.Public)
	require.NotNil(t, d.Public.SignIn)
	assert.Equal(t, "a@b.com", d.Public.SignIn.Email)
}

func TestUI_InputPostForHiddenFormIsDropped(t *testing.T) {
	f := newUIFixture(t)
	f.signedOut(t)

	rec := f.do(t, http.MethodPost, "/ui/input", url.Values{
		"form":         {auth.FormSignUp},
		"field":        {auth.FieldConfirmation},
		"confirmation": {"secret"},
	})

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestUI_SignInShowsProtectedView(t *testing.T) {
	f := newUIFixture(t)
	f.signedOut(t)

	rec := f.do(t, http.MethodPost, "/ui/sign-in", url.Values{
		"email":    {"a@b.com"},
		"password": {"abcdefgh"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "email: a@b.com")
	assert.Equal(t, []testutils.Credentials{{Email: "a@b.com", Password: "abcdefgh"}}, f.client(t).SignedIn())
}

func TestUI_SignInFailureShowsNotice(t *testing.T) {
	f := newUIFixture(t)
	f.signedOut(t)
	f.client(t).Err = identity.ErrInvalidCredentials

	rec := f.do(t, http.MethodPost, "/ui/sign-in", url.Values{
		"email":    {"a@b.com"},
		"password": {"abcdefgh"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `role="alert"`)
	assert.Contains(t, rec.Body.String(), "Incorrect email or password.")
	assert.Contains(t, rec.Body.String(), `value="a@b.com"`)
	assert.NotContains(t, rec.Body.String(), "abcdefgh", "the password is never rendered back")
}

func TestUI_SignUpConstraintViolationShowsFieldErrors(t *testing.T) {
	f := newUIFixture(t)
	f.signedOut(t)
	f.do(t, http.MethodPost, "/ui/tab", url.Values{"tab": {"sign-up"}})

	rec := f.do(t, http.MethodPost, "/ui/sign-up", url.Values{
		"email":        {"not-an-email"},
		"password":     {"short"},
		"confirmation": {"short"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please enter an email address.")
	assert.Empty(t, f.client(t).Created())
}

func TestUI_SignOutFromPublicRerendersRoot(t *testing.T) {
	f := newUIFixture(t)
	f.signedOut(t)

	rec := f.do(t, http.MethodPost, "/ui/sign-out", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="sign-in-form"`)
	assert.Zero(t, f.client(t).SignOuts())
}

func TestUI_SignOutEndsSession(t *testing.T) {
	f := newUIFixture(t)
	f.signedOut(t)
	f.client(t).Emit(&testutils.FakeUser{ID: "u1", Mail: "a@b.com", IDToken: "t"})

	rec := f.do(t, http.MethodPost, "/ui/sign-out", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, f.client(t).SignOuts())
}

// onlyAppID returns the id of the fixture's single application.
func (f *uiFixture) onlyAppID(t *testing.T) string {
	t.Helper()
	require.Equal(t, 1, f.registry.Len())
	for _, id := range f.registry.IDs() {
		return id
	}
	return ""
}
