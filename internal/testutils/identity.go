package testutils

import (
	"context"
	"sync"

	"github.com/nfrund/authtest/internal/identity"
)

// FakeUser is an identity.User with a fixed token.
type FakeUser struct {
	ID       string
	Mail     string
	IDToken  string
	TokenErr error
}

func (u *FakeUser) UID() string   { return u.ID }
func (u *FakeUser) Email() string { return u.Mail }

func (u *FakeUser) Token(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if u.TokenErr != nil {
		return "", u.TokenErr
	}
	return u.IDToken, nil
}

// Credentials records one CreateAccount or SignIn call.
type Credentials struct {
	Email    string
	Password string
}

// FakeClient is a scriptable identity.Client. Events are delivered
// synchronously by Emit; provider operations only record their arguments
// unless AutoEmit is set.
type FakeClient struct {
	mu        sync.Mutex
	listeners map[int]func(identity.User)
	nextID    int

	created  []Credentials
	signedIn []Credentials
	signOuts int
	closed   bool

	// AutoEmit makes successful operations emit the resulting session change.
	AutoEmit bool
	// Err is returned by CreateAccount, SignIn and SignOut when set.
	Err error
	// Block, when non-nil, makes operations wait until it is closed.
	Block chan struct{}

	emitMu sync.Mutex
}

// NewFakeClient returns an empty FakeClient.
func NewFakeClient() *FakeClient {
	return &FakeClient{listeners: make(map[int]func(identity.User))}
}

func (f *FakeClient) CreateAccount(ctx context.Context, email, password string) (identity.User, error) {
	f.wait()
	f.mu.Lock()
	f.created = append(f.created, Credentials{Email: email, Password: password})
	err := f.Err
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	u := &FakeUser{ID: "uid-" + email, Mail: email, IDToken: "token-" + email}
	if f.AutoEmit {
		f.Emit(u)
	}
	return u, nil
}

func (f *FakeClient) SignIn(ctx context.Context, email, password string) (identity.User, error) {
	f.wait()
	f.mu.Lock()
	f.signedIn = append(f.signedIn, Credentials{Email: email, Password: password})
	err := f.Err
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	u := &FakeUser{ID: "uid-" + email, Mail: email, IDToken: "token-" + email}
	if f.AutoEmit {
		f.Emit(u)
	}
	return u, nil
}

func (f *FakeClient) SignOut(ctx context.Context) error {
	f.wait()
	f.mu.Lock()
	f.signOuts++
	err := f.Err
	f.mu.Unlock()
	if err != nil {
		return err
	}
	if f.AutoEmit {
		f.Emit(nil)
	}
	return nil
}

func (f *FakeClient) OnSessionChange(fn func(identity.User)) identity.Unsubscribe {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := f.nextID
	f.listeners[id] = fn
	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.listeners, id)
			f.mu.Unlock()
		})
	}
}

func (f *FakeClient) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Emit delivers u (nil for signed out) to every listener, one event at a time.
// A nil *FakeUser is delivered as a nil identity.User.
func (f *FakeClient) Emit(u *FakeUser) {
	f.emitMu.Lock()
	defer f.emitMu.Unlock()

	f.mu.Lock()
	listeners := make([]func(identity.User), 0, len(f.listeners))
	for _, fn := range f.listeners {
		listeners = append(listeners, fn)
	}
	f.mu.Unlock()

	var user identity.User
	if u != nil {
		user = u
	}
	for _, fn := range listeners {
		fn(user)
	}
}

// Listeners reports the number of registered listeners.
func (f *FakeClient) Listeners() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}

// Created returns the recorded CreateAccount calls.
func (f *FakeClient) Created() []Credentials {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Credentials(nil), f.created...)
}

// SignedIn returns the recorded SignIn calls.
func (f *FakeClient) SignedIn() []Credentials {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Credentials(nil), f.signedIn...)
}

// SignOuts returns the number of SignOut calls.
func (f *FakeClient) SignOuts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signOuts
}

// Closed reports whether Close was called.
func (f *FakeClient) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *FakeClient) wait() {
	if f.Block != nil {
		<-f.Block
	}
}

// FakeProvider hands out a fixed sequence of clients, creating new ones on demand.
type FakeProvider struct {
	mu      sync.Mutex
	clients []*FakeClient
	// AutoEmit is copied to every client the provider creates.
	AutoEmit bool
}

func (p *FakeProvider) Name() string { return "fake" }

func (p *FakeProvider) NewClient() identity.Client {
	p.mu.Lock()
	defer p.mu.Unlock()
	c := NewFakeClient()
	c.AutoEmit = p.AutoEmit
	p.clients = append(p.clients, c)
	return c
}

// Clients returns every client created so far.
func (p *FakeProvider) Clients() []*FakeClient {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*FakeClient(nil), p.clients...)
}
