package identity

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUser struct{ uid string }

func (u stubUser) UID() string { return u.uid }
func (u stubUser) Email() string { return u.uid + "@example.com" }
func (u stubUser) Token(ctx context.Context) (string, error) { return "token-" + u.uid, nil }

// recorder collects deliveries for assertions.
type recorder struct {
	mu     sync.Mutex
	events []User
}

func (r *recorder) add(u User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, u)
}

func (r *recorder) snapshot() []User {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]User, len(r.events))
	copy(out, r.events)
	return out
}

func TestNotifier_NoDeliveryBeforeReady(t *testing.T) {
	n := NewNotifier()
	defer n.Close()

	rec := &recorder{}
	n.Subscribe(rec.add)
	n.Set(stubUser{uid: "a"})

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, rec.snapshot())

	n.Ready()
	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "a", rec.snapshot()[0].UID())
}

func TestNotifier_ReadyWithoutUserDeliversNil(t *testing.T) {
	n := NewNotifier()
	defer n.Close()

	rec := &recorder{}
	n.Subscribe(rec.add)
	n.Ready()

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Nil(t, rec.snapshot()[0])
}

func TestNotifier_LateSubscriberGetsCurrentState(t *testing.T) {
	n := NewNotifier()
	defer n.Close()

	n.Set(stubUser{uid: "late"})
	n.Ready()

	rec := &recorder{}
	n.Subscribe(rec.add)
	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "late", rec.snapshot()[0].UID())
}

func TestNotifier_PreservesOrder(t *testing.T) {
	n := NewNotifier()
	defer n.Close()

	rec := &recorder{}
	n.Subscribe(rec.add)
	n.Ready()
	for _, uid := range []string{"1", "2", "3"} {
		n.Set(stubUser{uid: uid})
	}
	n.Set(nil)

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 5 }, time.Second, 5*time.Millisecond)
	got := rec.snapshot()
	assert.Nil(t, got[0])
	assert.Equal(t, "1", got[1].UID())
	assert.Equal(t, "2", got[2].UID())
	assert.Equal(t, "3", got[3].UID())
	assert.Nil(t, got[4])
}

func TestNotifier_Unsubscribe(t *testing.T) {
	n := NewNotifier()
	defer n.Close()

	rec := &recorder{}
	unsubscribe := n.Subscribe(rec.add)
	assert.Equal(t, 1, n.Listeners())

	unsubscribe()
	unsubscribe()
	assert.Equal(t, 0, n.Listeners())

	n.Ready()
	n.Set(stubUser{uid: "x"})
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, rec.snapshot())
}
