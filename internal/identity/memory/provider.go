// Package memory is an in-process identity provider for local development and
// tests. Accounts are held in memory and can be snapshotted to disk.
package memory

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"golang.org/x/text/cases"

	"github.com/nfrund/authtest/internal/identity"
)

const (
	// minPasswordLength mirrors the hosted provider's weak-password rule.
	minPasswordLength = 6

	// emailRule is the address check applied before an account is stored. It
	// accepts bare addresses only, so stored emails stay canonical.
	emailRule = "required,email"

	defaultIssuer   = "authtest-memory"
	defaultAudience = "authtest"
	defaultTokenTTL = time.Hour

	// tokenRefreshWindow is how close to expiry a cached token is re-minted.
	tokenRefreshWindow = time.Minute
)

var validate = validator.New()

// Option configures a Provider.
type Option func(*Provider)

// WithSnapshot persists accounts to path on fs.
func WithSnapshot(fs afero.Fs, path string) Option {
	return func(p *Provider) {
		p.store = newSnapshotStore(fs, path)
	}
}

// WithSecret sets the HMAC secret used to sign ID tokens.
func WithSecret(secret string) Option {
	return func(p *Provider) {
		if secret != "" {
			p.tokens.secret = []byte(secret)
		}
	}
}

// WithInitDelay delays the first session notification of every new client.
func WithInitDelay(d time.Duration) Option {
	return func(p *Provider) {
		p.initDelay = d
	}
}

// WithTokenTTL sets the lifetime of minted ID tokens.
func WithTokenTTL(ttl time.Duration) Option {
	return func(p *Provider) {
		p.tokens.ttl = ttl
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Provider) {
		p.tokens.now = now
	}
}

// Provider is the in-process identity backend shared by all clients.
type Provider struct {
	mu        sync.RWMutex
	accounts  map[string]account // folded email -> account
	store     *snapshotStore
	tokens    *tokenIssuer
	initDelay time.Duration
	logger    *slog.Logger
}

// New creates a Provider and loads any existing snapshot.
func New(opts ...Option) (*Provider, error) {
	p := &Provider{
		accounts: make(map[string]account),
		store:    newSnapshotStore(nil, ""),
		tokens: &tokenIssuer{
			issuer:   defaultIssuer,
			audience: defaultAudience,
			ttl:      defaultTokenTTL,
			now:      time.Now,
		},
		logger: slog.Default().With("component", "identity.memory"),
	}
	for _, opt := range opts {
		opt(p)
	}
	if len(p.tokens.secret) == 0 {
		// Tokens from a random secret only verify within this process.
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate token secret: %w", err)
		}
		p.tokens.secret = secret
	}

	accounts, err := p.store.Load()
	if err != nil {
		return nil, err
	}
	for _, acc := range accounts {
		p.accounts[foldEmail(acc.Email)] = acc
	}
	if len(accounts) > 0 {
		p.logger.Info("Loaded account snapshot", "accounts", len(accounts))
	}
	return p, nil
}

// Name implements identity.Provider.
func (p *Provider) Name() string { return "memory" }

// NewClient implements identity.Provider. The client reports its initial
// (signed-out) state after the configured init delay.
func (p *Provider) NewClient() identity.Client {
	c := &client{
		provider: p,
		notifier: identity.NewNotifier(),
		closed:   make(chan struct{}),
	}
	go c.initialise(p.initDelay)
	return c
}

// Verify validates an ID token minted by this provider.
func (p *Provider) Verify(token string) (*Claims, error) {
	return p.tokens.verify(token)
}

// Accounts reports the number of registered accounts.
func (p *Provider) Accounts() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.accounts)
}

func (p *Provider) createAccount(email, password string) (account, error) {
	if err := validate.Var(email, emailRule); err != nil {
		return account{}, identity.ErrInvalidEmail
	}
	if len(password) < minPasswordLength {
		return account{}, identity.ErrWeakPassword
	}

	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return account{}, fmt.Errorf("%w: hash password: %v", identity.ErrProvider, err)
	}

	key := foldEmail(email)
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.accounts[key]; exists {
		return account{}, identity.ErrEmailExists
	}
	acc := account{UID: uuid.NewString(), Email: email, PasswordHash: hash}
	p.accounts[key] = acc
	if err := p.store.Save(p.snapshotLocked()); err != nil {
		delete(p.accounts, key)
		return account{}, fmt.Errorf("%w: %v", identity.ErrProvider, err)
	}
	return acc, nil
}

func (p *Provider) authenticate(email, password string) (account, error) {
	p.mu.RLock()
	acc, ok := p.accounts[foldEmail(email)]
	p.mu.RUnlock()
	if !ok {
		return account{}, identity.ErrInvalidCredentials
	}
	match, err := argon2id.ComparePasswordAndHash(password, acc.PasswordHash)
	if err != nil {
		return account{}, fmt.Errorf("%w: verify password: %v", identity.ErrProvider, err)
	}
	if !match {
		return account{}, identity.ErrInvalidCredentials
	}
	return acc, nil
}

func (p *Provider) snapshotLocked() []account {
	out := make([]account, 0, len(p.accounts))
	for _, acc := range p.accounts {
		out = append(out, acc)
	}
	return out
}

func foldEmail(email string) string {
	return cases.Fold().String(email)
}

// client is a session-scoped handle onto a Provider.
type client struct {
	provider  *Provider
	notifier  *identity.Notifier
	closed    chan struct{}
	closeOnce sync.Once
}

func (c *client) initialise(delay time.Duration) {
	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-c.closed:
			return
		}
	}
	c.notifier.Ready()
}

func (c *client) CreateAccount(ctx context.Context, email, password string) (identity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	acc, err := c.provider.createAccount(email, password)
	if err != nil {
		return nil, err
	}
	u := c.provider.newUser(acc)
	c.notifier.Set(u)
	return u, nil
}

func (c *client) SignIn(ctx context.Context, email, password string) (identity.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	acc, err := c.provider.authenticate(email, password)
	if err != nil {
		return nil, err
	}
	u := c.provider.newUser(acc)
	c.notifier.Set(u)
	return u, nil
}

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
	c.closeOnce.Do(func() {
		close(c.closed)
		c.notifier.Close()
	})
	return nil
}

// user is the identity.User handed out by this provider.
type user struct {
	provider *Provider
	uid      string
	email    string

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func (p *Provider) newUser(acc account) *user {
	return &user{provider: p, uid: acc.UID, email: acc.Email}
}

func (u *user) UID() string   { return u.uid }
func (u *user) Email() string { return u.email }

func (u *user) Token(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.token != "" && u.provider.tokens.now().Add(tokenRefreshWindow).Before(u.expiresAt) {
		return u.token, nil
	}
	token, expiresAt, err := u.provider.tokens.issue(u.uid, u.email)
	if err != nil {
		return "", fmt.Errorf("%w: %v", identity.ErrProvider, err)
	}
	u.token, u.expiresAt = token, expiresAt
	return token, nil
}
