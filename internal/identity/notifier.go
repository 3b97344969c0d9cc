package identity

import (
	"sync"
)

// Notifier is the session-change core shared by provider clients. It keeps the
// current user and delivers changes to listeners one at a time, in order, on its
// own goroutine, so listeners never run under the client's locks.
//
// Until Ready is called nothing is delivered: a listener's first event is the
// state at the moment initialisation finished.
type Notifier struct {
	mu        sync.Mutex
	ready     bool
	current   User
	listeners map[uint64]func(User)
	nextID    uint64
	pending   []delivery

	wake      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

type delivery struct {
	listener uint64
	user     User
}

// NewNotifier creates a Notifier and starts its delivery loop.
func NewNotifier() *Notifier {
	n := &Notifier{
		listeners: make(map[uint64]func(User)),
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	go n.run()
	return n
}

// Subscribe registers fn. If the notifier is already initialised, fn receives the
// current state as its first event.
func (n *Notifier) Subscribe(fn func(User)) Unsubscribe {
	n.mu.Lock()
	n.nextID++
	id := n.nextID
	n.listeners[id] = fn
	if n.ready {
		n.enqueueLocked(id, n.current)
	}
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.listeners, id)
			n.mu.Unlock()
		})
	}
}

// Ready marks initialisation as finished and notifies every listener of the
// current state. Calling it again is a no-op.
func (n *Notifier) Ready() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.ready {
		return
	}
	n.ready = true
	n.broadcastLocked()
}

// Set replaces the current user (nil means signed out) and notifies listeners
// once the notifier is ready.
func (n *Notifier) Set(u User) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current = u
	if n.ready {
		n.broadcastLocked()
	}
}

// Current returns the current user, or nil.
func (n *Notifier) Current() User {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Listeners reports how many listeners are registered.
func (n *Notifier) Listeners() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.listeners)
}

// Close stops the delivery loop. Pending deliveries are dropped.
func (n *Notifier) Close() {
	n.closeOnce.Do(func() { close(n.done) })
}

func (n *Notifier) broadcastLocked() {
	for id := range n.listeners {
		n.enqueueLocked(id, n.current)
	}
}

func (n *Notifier) enqueueLocked(id uint64, u User) {
	n.pending = append(n.pending, delivery{listener: id, user: u})
	select {
	case n.wake <- struct{}{}:
	default:
	}
}

func (n *Notifier) run() {
	for {
		select {
		case <-n.done:
			return
		case <-n.wake:
		}
		for {
			n.mu.Lock()
			if len(n.pending) == 0 {
				n.mu.Unlock()
				break
			}
			d := n.pending[0]
			n.pending = n.pending[1:]
			fn, ok := n.listeners[d.listener]
			n.mu.Unlock()

			// Unsubscribed listeners lose deliveries that were already queued.
			if ok {
				fn(d.user)
			}
		}
	}
}
