package app

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Registry owns the application instance of every browser session.
type Registry struct {
	deps        Dependencies
	idleTimeout time.Duration
	logger      *slog.Logger
	now         func() time.Time

	mu      sync.Mutex
	apps    map[string]*App
	closed  bool
	onClose []func(*App)
}

// NewRegistry creates an empty registry. Apps idle for longer than
// idleTimeout are closed by Sweep; zero disables expiry.
func NewRegistry(deps Dependencies, idleTimeout time.Duration) *Registry {
	return &Registry{
		deps:        deps,
		idleTimeout: idleTimeout,
		logger:      slog.Default().With("component", "app_registry"),
		now:         time.Now,
		apps:        make(map[string]*App),
	}
}

// OnClose registers fn to run after the registry closes an application,
// whether it expired or the registry shut down.
func (r *Registry) OnClose(fn func(*App)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onClose = append(r.onClose, fn)
}

// GetOrCreate returns the mounted application for id, creating and mounting
// it on first use. The returned app is touched. A closed registry returns nil.
func (r *Registry) GetOrCreate(id string) *App {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	a, ok := r.apps[id]
	if ok {
		// Touched under r.mu so a concurrent Sweep cannot expire it first.
		a.Touch()
		r.mu.Unlock()
		return a
	}
	a = New(id, r.deps)
	a.now = r.now
	r.apps[id] = a
	r.mu.Unlock()

	a.Mount()
	r.logger.Info("Application created", "app_id", id)
	return a
}

// Get returns the application for id without creating it.
func (r *Registry) Get(id string) (*App, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.apps[id]
	return a, ok
}

// Len returns the number of live applications.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.apps)
}

// IDs returns the session ids of the live applications.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.apps))
	for id := range r.apps {
		ids = append(ids, id)
	}
	return ids
}

// Sweep closes applications idle for longer than the idle timeout and
// returns how many were closed.
func (r *Registry) Sweep() int {
	if r.idleTimeout <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idleTimeout)

	r.mu.Lock()
	var expired []*App
	for id, a := range r.apps {
		if a.LastSeen().Before(cutoff) {
			expired = append(expired, a)
			delete(r.apps, id)
		}
	}
	r.mu.Unlock()

	for _, a := range expired {
		r.closeApp(a)
		r.logger.Info("Idle application closed", "app_id", a.ID())
	}
	return len(expired)
}

// Run sweeps periodically until ctx is cancelled.
func (r *Registry) Run(ctx context.Context) {
	if r.idleTimeout <= 0 {
		return
	}
	interval := r.idleTimeout / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Close closes every application and rejects new ones.
func (r *Registry) Close() error {
	r.mu.Lock()
	r.closed = true
	apps := r.apps
	r.apps = make(map[string]*App)
	r.mu.Unlock()

	for _, a := range apps {
		r.closeApp(a)
	}
	r.logger.Info("Application registry closed", "closed_apps", len(apps))
	return nil
}

func (r *Registry) closeApp(a *App) {
	if err := a.Close(); err != nil {
		r.logger.Warn("Failed to close application", "app_id", a.ID(), "error", err)
	}
	r.mu.Lock()
	hooks := append(([]func(*App))(nil), r.onClose...)
	r.mu.Unlock()
	for _, fn := range hooks {
		fn(a)
	}
}
