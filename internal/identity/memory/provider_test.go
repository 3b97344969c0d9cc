package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/authtest/internal/identity"
)

// sessionLog records session events delivered to a listener.
type sessionLog struct {
	mu     sync.Mutex
	events []identity.User
}

func (l *sessionLog) record(u identity.User) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, u)
}

func (l *sessionLog) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

func (l *sessionLog) last() identity.User {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.events[len(l.events)-1]
}

func newTestProvider(t *testing.T, opts ...Option) *Provider {
	t.Helper()
	p, err := New(append([]Option{WithSecret("test-secret")}, opts...)...)
	require.NoError(t, err)
	return p
}

func TestProvider_SignUpSignInSignOut(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)
	c := p.NewClient()
	defer c.Close()

	log := &sessionLog{}
	c.OnSessionChange(log.record)

	require.Eventually(t, func() bool { return log.len() == 1 }, time.Second, 5*time.Millisecond)
	assert.Nil(t, log.last(), "first event reports no user")

	created, err := c.CreateAccount(ctx, "a@b.com", "abcdefgh")
	require.NoError(t, err)
	assert.NotEmpty(t, created.UID())
	assert.Equal(t, "a@b.com", created.Email())

	require.Eventually(t, func() bool { return log.len() == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, created.UID(), log.last().UID())

	require.NoError(t, c.SignOut(ctx))
	require.Eventually(t, func() bool { return log.len() == 3 }, time.Second, 5*time.Millisecond)
	assert.Nil(t, log.last())

	signedIn, err := c.SignIn(ctx, "A@B.com", "abcdefgh")
	require.NoError(t, err)
	assert.Equal(t, created.UID(), signedIn.UID(), "email lookup is case-insensitive")
}

func TestProvider_CreateAccountErrors(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)
	c := p.NewClient()
	defer c.Close()

	_, err := c.CreateAccount(ctx, "dup@example.com", "password1")
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{"duplicate email", "dup@example.com", "password1", identity.ErrEmailExists},
		{"duplicate email other case", "DUP@example.com", "password1", identity.ErrEmailExists},
		{"weak password", "weak@example.com", "12345", identity.ErrWeakPassword},
		{"invalid email", "not-an-email", "password1", identity.ErrInvalidEmail},
		{"display name form", "Bob <bob@x.com>", "password1", identity.ErrInvalidEmail},
		{"empty email", "", "password1", identity.ErrInvalidEmail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.CreateAccount(ctx, tt.email, tt.password)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Equal(t, 1, p.Accounts())
}

func TestProvider_SignInRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)
	c := p.NewClient()
	defer c.Close()

	_, err := c.CreateAccount(ctx, "user@example.com", "correct-horse")
	require.NoError(t, err)

	_, err = c.SignIn(ctx, "user@example.com", "wrong-horse")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)

	_, err = c.SignIn(ctx, "nobody@example.com", "correct-horse")
	assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
}

func TestProvider_TokenRoundTrip(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	p := newTestProvider(t, WithClock(clock), WithTokenTTL(10*time.Minute))
	c := p.NewClient()
	defer c.Close()

	u, err := c.CreateAccount(ctx, "tok@example.com", "password1")
	require.NoError(t, err)

	first, err := u.Token(ctx)
	require.NoError(t, err)
	claims, err := p.Verify(first)
	require.NoError(t, err)
	assert.Equal(t, u.UID(), claims.Subject)
	assert.Equal(t, "tok@example.com", claims.Email)

	again, err := u.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, again, "token is cached while fresh")

	now = now.Add(9*time.Minute + 30*time.Second)
	refreshed, err := u.Token(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first, refreshed, "token is re-minted near expiry")

	_, err = p.Verify("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestProvider_SnapshotPersistsAccounts(t *testing.T) {
	ctx := context.Background()
	fs := afero.NewMemMapFs()

	p := newTestProvider(t, WithSnapshot(fs, "/data/accounts.json"))
	c := p.NewClient()
	_, err := c.CreateAccount(ctx, "persist@example.com", "password1")
	require.NoError(t, err)
	require.NoError(t, c.Close())

	exists, err := afero.Exists(fs, "/data/accounts.json")
	require.NoError(t, err)
	assert.True(t, exists)

	reloaded := newTestProvider(t, WithSnapshot(fs, "/data/accounts.json"))
	assert.Equal(t, 1, reloaded.Accounts())

	c2 := reloaded.NewClient()
	defer c2.Close()
	_, err = c2.SignIn(ctx, "persist@example.com", "password1")
	assert.NoError(t, err)
}

func TestProvider_InitDelayHoldsFirstEvent(t *testing.T) {
	p := newTestProvider(t, WithInitDelay(50*time.Millisecond))
	c := p.NewClient()
	defer c.Close()

	log := &sessionLog{}
	c.OnSessionChange(log.record)

	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, 0, log.len())
	require.Eventually(t, func() bool { return log.len() == 1 }, time.Second, 5*time.Millisecond)
}
