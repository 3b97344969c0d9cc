package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/authtest/internal/app"
	"github.com/nfrund/authtest/internal/middleware"
	"github.com/nfrund/authtest/internal/rendering"
	"github.com/nfrund/authtest/internal/view/dto/auth"
	"github.com/nfrund/authtest/web/src/templates/pages"
)

// settleTimeout bounds how long a submit waits for its provider call before
// answering. Anything later reaches the browser over the websocket.
const settleTimeout = 2 * time.Second

// UIHandler serves the page and the htmx fragments of #root.
type UIHandler struct {
	renderer rendering.Renderer
}

// NewUIHandler creates a new UIHandler.
func NewUIHandler(renderer rendering.Renderer) *UIHandler {
	return &UIHandler{renderer: renderer}
}

// IndexGet renders the full page for the session's application.
func (h *UIHandler) IndexGet(c echo.Context) error {
	a, err := appFrom(c)
	if err != nil {
		return err
	}
	return h.renderer.RenderPage(c, http.StatusOK, pages.Index(a.Snapshot()))
}

// TabPost switches the public view's form.
func (h *UIHandler) TabPost(c echo.Context) error {
	a, err := appFrom(c)
	if err != nil {
		return err
	}
	var req TabRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := a.SetTab(auth.Tab(req.Tab)); err != nil {
		return h.actionError(c, a, err)
	}
	return h.root(c, a)
}

// InputPost records one input change. Nothing is re-rendered: the browser
// already shows the value.
func (h *UIHandler) InputPost(c echo.Context) error {
	a, err := appFrom(c)
	if err != nil {
		return err
	}
	var req InputRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if err := a.ChangeInput(req.Form, req.Field, c.FormValue(req.Field)); err != nil {
		if errors.Is(err, app.ErrNotAvailable) {
			middleware.FromContext(c.Request().Context()).Debug("Dropping input for hidden form", "form", req.Form, "field", req.Field)
			return c.NoContent(http.StatusNoContent)
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// SignUpPost submits the sign-up form.
func (h *UIHandler) SignUpPost(c echo.Context) error {
	a, err := appFrom(c)
	if err != nil {
		return err
	}
	var req SignUpRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	started, err := a.SubmitSignUp(map[string]string{
		auth.FieldEmail:        req.Email,
		auth.FieldPassword:     req.Password,
		auth.FieldConfirmation: req.Confirmation,
	})
	if err != nil {
		return h.actionError(c, a, err)
	}
	return h.settled(c, a, started)
}

// SignInPost submits the sign-in form.
func (h *UIHandler) SignInPost(c echo.Context) error {
	a, err := appFrom(c)
	if err != nil {
		return err
	}
	var req SignInRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	started, err := a.SubmitSignIn(map[string]string{
		auth.FieldEmail:    req.Email,
		auth.FieldPassword: req.Password,
	})
	if err != nil {
		return h.actionError(c, a, err)
	}
	return h.settled(c, a, started)
}

// SignOutPost starts one sign-out per request.
func (h *UIHandler) SignOutPost(c echo.Context) error {
	a, err := appFrom(c)
	if err != nil {
		return err
	}
	if err := a.SignOut(); err != nil {
		return h.actionError(c, a, err)
	}
	return h.settled(c, a, true)
}

// settled answers a submit once its provider call has finished, or after
// settleTimeout, whichever comes first.
func (h *UIHandler) settled(c echo.Context, a *app.App, started bool) error {
	if started {
		ctx, cancel := context.WithTimeout(c.Request().Context(), settleTimeout)
		defer cancel()
		if err := a.Settle(ctx); err != nil {
			middleware.FromContext(c.Request().Context()).Debug("Answering before provider call finished", "error", err)
		}
	}
	return h.root(c, a)
}

func (h *UIHandler) root(c echo.Context, a *app.App) error {
	return h.renderer.RenderPage(c, http.StatusOK, pages.Root(a.Snapshot()))
}

// actionError answers an action the current screen cannot take with the
// current root, since the browser is showing stale state.
func (h *UIHandler) actionError(c echo.Context, a *app.App, err error) error {
	if errors.Is(err, app.ErrNotAvailable) {
		middleware.FromContext(c.Request().Context()).Info("Action not available, re-rendering", "path", c.Path())
		return h.root(c, a)
	}
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}

func appFrom(c echo.Context) (*app.App, error) {
	a, ok := middleware.AppFrom(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "no application for session")
	}
	return a, nil
}

func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}
