// Package authstate mirrors an identity client's session events into a single
// read-only state holder that the rest of the application observes.
package authstate

import (
	"log/slog"
	"sync"

	"github.com/nfrund/authtest/internal/identity"
)

// State is the application's view of authentication.
type State struct {
	// Initialized becomes true on the first provider event and never reverts.
	Initialized bool
	// User is the signed-in user, or nil.
	User identity.User
}

// SignedIn reports whether a user is present.
func (s State) SignedIn() bool {
	return s.User != nil
}

// Observer holds the State for one mounted application. The provider callback
// is its only writer; subscribers receive read-only snapshots.
type Observer struct {
	client identity.Client
	logger *slog.Logger

	mu          sync.RWMutex
	state       State
	unsubscribe identity.Unsubscribe
	subscribers map[uint64]func(State)
	nextID      uint64
}

// NewObserver creates an Observer for client. Nothing is registered until Mount.
func NewObserver(client identity.Client) *Observer {
	return &Observer{
		client:      client,
		logger:      slog.Default().With("component", "authstate"),
		subscribers: make(map[uint64]func(State)),
	}
}

// Mount registers the session listener with the provider. A mounted observer
// holds exactly one registration; repeated calls do nothing.
func (o *Observer) Mount() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.unsubscribe != nil {
		return
	}
	o.unsubscribe = o.client.OnSessionChange(o.handle)
}

// Unmount removes the provider registration. State is kept, so a later Mount
// continues from it.
func (o *Observer) Unmount() {
	o.mu.Lock()
	unsubscribe := o.unsubscribe
	o.unsubscribe = nil
	o.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Mounted reports whether a provider registration is active.
func (o *Observer) Mounted() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.unsubscribe != nil
}

// State returns the current snapshot.
func (o *Observer) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// Subscribe registers fn to receive every new State. The returned func cancels it.
func (o *Observer) Subscribe(fn func(State)) func() {
	o.mu.Lock()
	o.nextID++
	id := o.nextID
	o.subscribers[id] = fn
	o.mu.Unlock()

	return func() {
		o.mu.Lock()
		delete(o.subscribers, id)
		o.mu.Unlock()
	}
}

// handle is the provider callback. Provider events arrive serialized, so
// subscribers see states in delivery order.
func (o *Observer) handle(u identity.User) {
	o.mu.Lock()
	first := !o.state.Initialized
	o.state.Initialized = true
	o.state.User = u
	snapshot := o.state
	subscribers := make([]func(State), 0, len(o.subscribers))
	for _, fn := range o.subscribers {
		subscribers = append(subscribers, fn)
	}
	o.mu.Unlock()

	if u != nil {
		o.logger.Info("Session changed", "signed_in", true, "uid", u.UID(), "initial", first)
	} else {
		o.logger.Info("Session changed", "signed_in", false, "initial", first)
	}

	for _, fn := range subscribers {
		fn(snapshot)
	}
}
