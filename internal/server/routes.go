package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nfrund/authtest/internal/middleware"
	"github.com/nfrund/authtest/web"
)

const (
	submitRate  = 1.0
	submitBurst = 10
)

// RegisterRoutes sets up all the application routes.
func (s *Server) RegisterRoutes() {
	s.E.GET("/health", s.healthHandler.HealthGet)
	s.E.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.E.StaticFS("/static", echo.MustSubFS(web.FS, "static"))

	// Everything below belongs to a browser session and its application.
	ui := s.E.Group("", middleware.Session(s.Registry))
	rateLimiter := middleware.RateLimiter(submitRate, submitBurst)

	ui.GET("/", s.uiHandler.IndexGet)
	ui.GET("/ws", s.Bridge.Handler())

	ui.POST("/ui/tab", s.uiHandler.TabPost)
	ui.POST("/ui/input", s.uiHandler.InputPost)
	ui.POST("/ui/sign-up", s.uiHandler.SignUpPost, rateLimiter)
	ui.POST("/ui/sign-in", s.uiHandler.SignInPost, rateLimiter)
	ui.POST("/ui/sign-out", s.uiHandler.SignOutPost, rateLimiter)
}
