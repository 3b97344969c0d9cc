// Package firebase implements identity.Provider against the Firebase
// Authentication REST API (or its local emulator).
package firebase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/nfrund/authtest/internal/identity"
)

// refreshWindow is how long before expiry an ID token is refreshed.
const refreshWindow = 5 * time.Minute

// Option configures a Provider.
type Option func(*Provider)

// WithEmulatorHost routes all calls to a local Auth emulator (host:port).
func WithEmulatorHost(host string) Option {
	return func(p *Provider) {
		if host == "" {
			return
		}
		p.api.identityURL = "http://" + host + "/identitytoolkit.googleapis.com"
		p.api.secureTokenURL = "http://" + host + "/securetoken.googleapis.com"
	}
}

// WithBaseURLs overrides both REST roots.
func WithBaseURLs(identityURL, secureTokenURL string) Option {
	return func(p *Provider) {
		p.api.identityURL = identityURL
		p.api.secureTokenURL = secureTokenURL
	}
}

// WithHTTPClient sets the HTTP client used for every call.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) {
		p.api.http = c
	}
}

// WithClock overrides the time source used for token expiry.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		p.now = now
	}
}

// Provider creates clients against one Firebase project.
type Provider struct {
	api    *restAPI
	now    func() time.Time
	logger *slog.Logger
}

// New creates a Provider for the project identified by apiKey.
func New(apiKey string, opts ...Option) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("firebase: api key is required")
	}
	p := &Provider{
		api: &restAPI{
			apiKey:         apiKey,
			identityURL:    identityToolkitURL,
			secureTokenURL: secureTokenURL,
			http:           http.DefaultClient,
		},
		now:    time.Now,
		logger: slog.Default().With("component", "identity.firebase"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Name implements identity.Provider.
func (p *Provider) Name() string { return "firebase" }

// NewClient implements identity.Provider. Sessions are not persisted between
// processes, so a new client initialises as signed out straight away.
func (p *Provider) NewClient() identity.Client {
	c := &client{provider: p, notifier: identity.NewNotifier()}
	c.notifier.Ready()
	return c
}

type client struct {
	provider *Provider
	notifier *identity.Notifier
}

func (c *client) CreateAccount(ctx context.Context, email, password string) (identity.User, error) {
	resp, err := c.provider.api.signUp(ctx, email, password)
	if err != nil {
		return nil, err
	}
	u, err := c.provider.newUser(resp)
	if err != nil {
		return nil, err
	}
	c.notifier.Set(u)
	return u, nil
}

func (c *client) SignIn(ctx context.Context, email, password string) (identity.User, error) {
	resp, err := c.provider.api.signInWithPassword(ctx, email, password)
	if err != nil {
		return nil, err
	}
	u, err := c.provider.newUser(resp)
	if err != nil {
		return nil, err
	}
	c.notifier.Set(u)
	return u, nil
}

// SignOut drops the local session. ID tokens already issued stay valid until
// they expire; revocation is a server-side concern.
func (c *client) SignOut(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.notifier.Current() == nil {
		return nil
	}
	c.notifier.Set(nil)
	return nil
}

func (c *client) OnSessionChange(fn func(identity.User)) identity.Unsubscribe {
	return c.notifier.Subscribe(fn)
}

func (c *client) Close() error {
	c.notifier.Close()
	return nil
}

type user struct {
	provider *Provider
	uid      string
	email    string

	mu           sync.Mutex
	idToken      string
	refreshToken string
	expiresAt    time.Time
}

func (p *Provider) newUser(resp *credentialsResponse) (*user, error) {
	secs, err := parseExpiresIn(resp.ExpiresIn)
	if err != nil {
		return nil, err
	}
	return &user{
		provider:     p,
		uid:          resp.LocalID,
		email:        resp.Email,
		idToken:      resp.IDToken,
		refreshToken: resp.RefreshToken,
		expiresAt:    p.now().Add(time.Duration(secs) * time.Second),
	}, nil
}

func (u *user) UID() string   { return u.uid }
func (u *user) Email() string { return u.email }

func (u *user) Token(ctx context.Context) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.provider.now().Add(refreshWindow).Before(u.expiresAt) {
		return u.idToken, nil
	}

	resp, err := u.provider.api.refresh(ctx, u.refreshToken)
	if err != nil {
		return "", fmt.Errorf("refresh id token: %w", err)
	}
	secs, err := parseExpiresIn(resp.ExpiresIn)
	if err != nil {
		return "", err
	}
	u.idToken = resp.IDToken
	u.refreshToken = resp.RefreshToken
	u.expiresAt = u.provider.now().Add(time.Duration(secs) * time.Second)
	u.provider.logger.Debug("Refreshed id token", "uid", u.uid)
	return u.idToken, nil
}
