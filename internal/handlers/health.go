package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// AppCounter reports the number of live applications.
type AppCounter interface {
	Len() int
}

// HealthHandler reports liveness.
type HealthHandler struct {
	provider string
	apps     AppCounter
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(provider string, apps AppCounter) *HealthHandler {
	return &HealthHandler{provider: provider, apps: apps}
}

// HealthGet answers with the provider name and the live application count.
func (h *HealthHandler) HealthGet(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:   "ok",
		Provider: h.provider,
		Apps:     h.apps.Len(),
	})
}
