package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/authtest/internal/app"
	"github.com/nfrund/authtest/internal/testutils"
)

func newSessionEcho(t *testing.T) (*echo.Echo, *app.Registry) {
	t.Helper()
	registry := app.NewRegistry(app.Dependencies{Provider: &testutils.FakeProvider{}}, 0)
	t.Cleanup(func() { _ = registry.Close() })

	e := echo.New()
	e.Use(session.Middleware(sessions.NewCookieStore([]byte("0123456789abcdef0123456789abcdef"))))
	e.Use(Session(registry))
	e.GET("/", func(c echo.Context) error {
		a, ok := AppFrom(c)
		if !ok {
			return c.String(http.StatusInternalServerError, "no app")
		}
		return c.String(http.StatusOK, a.ID())
	})
	return e, registry
}

func TestSession_IssuesAndReusesID(t *testing.T) {
	e, registry := newSessionEcho(t)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	id := rec.Body.String()
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, id, rec.Body.String())
	assert.Empty(t, rec.Result().Cookies(), "existing session is not re-issued")
	assert.Equal(t, 1, registry.Len())
}

func TestSession_TamperedCookieGetsNewID(t *testing.T) {
	e, registry := newSessionEcho(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionName, Value: "garbage"})
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	_, err := uuid.Parse(rec.Body.String())
	assert.NoError(t, err)
	assert.Len(t, rec.Result().Cookies(), 1)
	assert.Equal(t, 1, registry.Len())
}

func TestSession_ClosedRegistry(t *testing.T) {
	e, registry := newSessionEcho(t)
	require.NoError(t, registry.Close())

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
