package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	"github.com/nfrund/authtest/internal/app"
)

const (
	// SessionName is the cookie holding the browser session.
	SessionName = "authtest-session"

	sessionAppKey = "app_id"
	appContextKey = "app"
)

// AppRegistry hands out the application of a browser session.
type AppRegistry interface {
	GetOrCreate(id string) *app.App
}

// Session attaches the browser session's application to the request. A new
// session id is issued when the cookie is missing or cannot be decoded. It
// must run after session.Middleware.
func Session(registry AppRegistry) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			logger := FromContext(c.Request().Context())

			sess, err := session.Get(SessionName, c)
			if err != nil {
				logger.Debug("Discarding unreadable session cookie", "error", err)
				if sess == nil {
					return echo.NewHTTPError(http.StatusInternalServerError, "session unavailable")
				}
			}

			id, _ := sess.Values[sessionAppKey].(string)
			if _, perr := uuid.Parse(id); perr != nil {
				id = uuid.NewString()
				sess.Values[sessionAppKey] = id
				sess.Options = &sessions.Options{
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				}
				if err := sess.Save(c.Request(), c.Response()); err != nil {
					logger.Error("Failed to save session", "error", err)
					return echo.NewHTTPError(http.StatusInternalServerError, "session unavailable")
				}
				logger.Info("Issued new session", "app_id", id)
			}

			a := registry.GetOrCreate(id)
			if a == nil {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "shutting down")
			}
			c.Set(appContextKey, a)
			WithLogger(c, logger.With("app_id", id))
			return next(c)
		}
	}
}

// AppFrom returns the application attached by Session.
func AppFrom(c echo.Context) (*app.App, bool) {
	a, ok := c.Get(appContextKey).(*app.App)
	return a, ok && a != nil
}
