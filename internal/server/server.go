package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/samber/do/v2"
	"github.com/spf13/afero"

	"github.com/nfrund/authtest/internal/app"
	"github.com/nfrund/authtest/internal/config"
	"github.com/nfrund/authtest/internal/handlers"
	"github.com/nfrund/authtest/internal/identity"
	"github.com/nfrund/authtest/internal/identity/firebase"
	"github.com/nfrund/authtest/internal/identity/memory"
	"github.com/nfrund/authtest/internal/meapi"
	appmw "github.com/nfrund/authtest/internal/middleware"
	"github.com/nfrund/authtest/internal/pubsub"
	"github.com/nfrund/authtest/internal/rendering"
	"github.com/nfrund/authtest/internal/websocket"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	E        *echo.Echo
	Cfg      *config.Config
	Provider identity.Provider
	Registry *app.Registry
	Bus      *pubsub.Bus
	Bridge   *websocket.Bridge

	uiHandler     *handlers.UIHandler
	healthHandler *handlers.HealthHandler
}

// Option customises the services New wires.
type Option func(i do.Injector)

// WithIdentityProvider replaces the provider selected by IDENTITY_PROVIDER.
func WithIdentityProvider(p identity.Provider) Option {
	return func(i do.Injector) {
		do.ProvideValue(i, p)
	}
}

// WithFs sets the filesystem used by the memory provider's snapshot.
func WithFs(fs afero.Fs) Option {
	return func(i do.Injector) {
		do.ProvideValue(i, fs)
	}
}

// New wires every service from cfg and builds the echo instance.
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	injector := do.New()
	do.ProvideValue(injector, cfg)
	for _, opt := range opts {
		opt(injector)
	}
	provideDefaults(injector)

	provider, err := do.Invoke[identity.Provider](injector)
	if err != nil {
		return nil, fmt.Errorf("identity provider: %w", err)
	}

	s := &Server{
		E:        echo.New(),
		Cfg:      cfg,
		Provider: provider,
		Registry: do.MustInvoke[*app.Registry](injector),
		Bus:      do.MustInvoke[*pubsub.Bus](injector),
		Bridge:   do.MustInvoke[*websocket.Bridge](injector),
	}
	renderer := do.MustInvoke[*rendering.UniversalRenderer](injector)
	s.uiHandler = handlers.NewUIHandler(renderer)
	s.healthHandler = handlers.NewHealthHandler(provider.Name(), s.Registry)

	s.E.HideBanner = true
	s.E.Renderer = renderer
	s.E.Validator = handlers.NewValidator()
	s.E.Use(middleware.RequestID())
	s.E.Use(appmw.Logger)
	s.E.Use(middleware.Recover())
	setupErrorHandling(s.E)

	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	s.E.Use(session.Middleware(store))

	s.RegisterRoutes()
	return s, nil
}

// provideDefaults registers every service an Option has not already provided.
func provideDefaults(i do.Injector) {
	if _, err := do.Invoke[afero.Fs](i); err != nil {
		do.ProvideValue[afero.Fs](i, afero.NewOsFs())
	}
	if _, err := do.Invoke[identity.Provider](i); err != nil {
		do.Provide(i, newIdentityProvider)
	}
	do.Provide(i, newBus)
	do.Provide(i, newMeClient)
	do.Provide(i, newRegistry)
	do.Provide(i, newRenderer)
	do.Provide(i, newBridge)
}

func newIdentityProvider(i do.Injector) (identity.Provider, error) {
	cfg := do.MustInvoke[*config.Config](i)
	switch cfg.IdentityProvider {
	case config.ProviderFirebase:
		var opts []firebase.Option
		if cfg.FirebaseEmulatorHost != "" {
			opts = append(opts, firebase.WithEmulatorHost(cfg.FirebaseEmulatorHost))
		}
		return firebase.New(cfg.FirebaseAPIKey, opts...)
	default:
		opts := []memory.Option{memory.WithInitDelay(cfg.MemoryInitDelay)}
		if cfg.MemoryTokenSecret != "" {
			opts = append(opts, memory.WithSecret(cfg.MemoryTokenSecret))
		}
		if cfg.MemoryStorePath != "" {
			opts = append(opts, memory.WithSnapshot(do.MustInvoke[afero.Fs](i), cfg.MemoryStorePath))
		}
		return memory.New(opts...)
	}
}

func newBus(i do.Injector) (*pubsub.Bus, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return pubsub.NewBus(cfg.LogLevel == "debug"), nil
}

func newMeClient(i do.Injector) (meapi.Fetcher, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return meapi.NewClient(cfg.BackendBaseURL, nil), nil
}

func newRegistry(i do.Injector) (*app.Registry, error) {
	cfg := do.MustInvoke[*config.Config](i)
	deps := app.Dependencies{
		Provider:              do.MustInvoke[identity.Provider](i),
		Me:                    do.MustInvoke[meapi.Fetcher](i),
		Publisher:             do.MustInvoke[*pubsub.Bus](i),
		BlockSignUpOnMismatch: cfg.BlockSignUpOnMismatch,
	}
	slog.Info("Application registry configured",
		"provider", deps.Provider.Name(),
		"backend", cfg.BackendBaseURL,
		"block_signup_on_mismatch", deps.BlockSignUpOnMismatch,
	)
	return app.NewRegistry(deps, cfg.SessionIdleTimeout), nil
}

func newRenderer(do.Injector) (*rendering.UniversalRenderer, error) {
	return rendering.NewUniversalRenderer(), nil
}

func newBridge(i do.Injector) (*websocket.Bridge, error) {
	bridge := websocket.NewBridge(
		do.MustInvoke[*pubsub.Bus](i),
		do.MustInvoke[*rendering.UniversalRenderer](i),
	)
	// Browsers of a closed application reconnect to its replacement.
	do.MustInvoke[*app.Registry](i).OnClose(func(a *app.App) {
		bridge.Disconnect(a)
	})
	return bridge, nil
}
