package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingPayload struct {
	Screen string `json:"screen"`
}

var testPing = NewEvent[pingPayload]("test.ping", "bus round trip")

func TestBus_TypedRoundTrip(t *testing.T) {
	bus := NewBus(false)
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan Message, 1)
	err := bus.Subscribe(ctx, testPing.Name(), func(ctx context.Context, msg Message) error {
		received <- msg
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, Publish(ctx, bus, testPing, "session-1", pingPayload{Screen: "public"}))

	select {
	case msg := <-received:
		assert.Equal(t, "session-1", msg.AppID)
		payload, err := Decode(testPing, msg)
		require.NoError(t, err)
		assert.Equal(t, "public", payload.Screen)
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}
}

func TestDecode_RejectsOtherTopic(t *testing.T) {
	_, err := Decode(testPing, Message{Topic: "other", Payload: []byte(`{}`)})
	assert.Error(t, err)
}

func TestBus_PublishWithoutSubscribers(t *testing.T) {
	bus := NewBus(false)
	defer bus.Close()

	assert.NoError(t, bus.Publish(context.Background(), Message{Topic: "nobody.listens"}))
}
