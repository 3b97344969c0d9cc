package pubsub

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// metaKeyAppID and metaKeyTopic carry Message fields through watermill metadata.
const (
	metaKeyAppID = "app_id"
	metaKeyTopic = "topic"
)

// subscriberBuffer is the per-subscriber output buffer. A slow websocket
// writer must not stall the application publishing to it.
const subscriberBuffer = 64

// Bus is the Publisher and Subscriber of the process, backed by a single
// watermill GoChannel.
type Bus struct {
	channel *gochannel.GoChannel
	logger  *slog.Logger
}

// NewBus creates the in-memory bus. debug enables watermill's own tracing.
func NewBus(debug bool) *Bus {
	return &Bus{
		channel: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: subscriberBuffer},
			watermill.NewStdLogger(debug, false),
		),
		logger: slog.Default().With("component", "bus"),
	}
}

func toWatermill(msg Message) *message.Message {
	wm := message.NewMessage(watermill.NewUUID(), msg.Payload)
	for k, v := range msg.Metadata {
		wm.Metadata.Set(k, v)
	}
	wm.Metadata.Set(metaKeyAppID, msg.AppID)
	wm.Metadata.Set(metaKeyTopic, msg.Topic)
	return wm
}

func fromWatermill(wm *message.Message) Message {
	msg := Message{
		Topic:   wm.Metadata.Get(metaKeyTopic),
		AppID:   wm.Metadata.Get(metaKeyAppID),
		Payload: wm.Payload,
	}
	for k, v := range wm.Metadata {
		if k == metaKeyAppID || k == metaKeyTopic {
			continue
		}
		if msg.Metadata == nil {
			msg.Metadata = make(map[string]string)
		}
		msg.Metadata[k] = v
	}
	return msg
}

// Publish implements Publisher.
func (b *Bus) Publish(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	wm := toWatermill(msg)
	wm.SetContext(ctx)
	return b.channel.Publish(msg.Topic, wm)
}

// Subscribe implements Subscriber. Every message is acked after handler
// returns, failed or not: a render request is superseded by the next one,
// so redelivery would only repeat stale work.
func (b *Bus) Subscribe(ctx context.Context, topic string, handler Handler) error {
	messages, err := b.channel.Subscribe(ctx, topic)
	if err != nil {
		return err
	}

	go func() {
		for wm := range messages {
			if err := handler(ctx, fromWatermill(wm)); err != nil {
				b.logger.Error("Failed to handle message", "topic", topic, "msg_id", wm.UUID, "error", err)
			}
			wm.Ack()
		}
		b.logger.Debug("Subscription ended", "topic", topic)
	}()
	return nil
}

// Close ends every subscription.
func (b *Bus) Close() error {
	return b.channel.Close()
}
