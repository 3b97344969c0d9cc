// Package websocket pushes re-rendered roots to the browsers of applications
// whose state changed outside a request.
package websocket

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/labstack/echo/v4"

	"github.com/nfrund/authtest/internal/app"
	"github.com/nfrund/authtest/internal/middleware"
	"github.com/nfrund/authtest/internal/pubsub"
	"github.com/nfrund/authtest/internal/rendering"
	"github.com/nfrund/authtest/web/src/templates/pages"
)

const (
	// writeWait is the time allowed to write one push.
	writeWait = 10 * time.Second
)

// Client is one browser connection of an application.
type Client struct {
	app  *app.App
	conn *websocket.Conn
	// send is signalled when the root should be pushed. Signals coalesce:
	// every push renders the newest snapshot.
	send   chan struct{}
	bridge *Bridge
}

// Bridge routes render requests from the bus to the connections of the
// application they concern.
type Bridge struct {
	subscriber pubsub.Subscriber
	renderer   rendering.Renderer
	logger     *slog.Logger

	mu      sync.RWMutex
	clients map[string][]*Client
	closed  bool
}

// NewBridge creates a Bridge. Nothing is received until Start.
func NewBridge(sub pubsub.Subscriber, renderer rendering.Renderer) *Bridge {
	return &Bridge{
		subscriber: sub,
		renderer:   renderer,
		logger:     slog.Default().With("component", "websocket_bridge"),
		clients:    make(map[string][]*Client),
	}
}

// Start subscribes to render requests until ctx is cancelled.
func (b *Bridge) Start(ctx context.Context) error {
	if err := b.subscriber.Subscribe(ctx, app.RenderRequested.Name(), b.handleRender); err != nil {
		return err
	}
	b.logger.Info("WebSocket bridge started", "topic", app.RenderRequested.Name())
	return nil
}

func (b *Bridge) handleRender(_ context.Context, msg pubsub.Message) error {
	req, err := pubsub.Decode(app.RenderRequested, msg)
	if err != nil {
		return err
	}
	n := b.notify(msg.AppID)
	b.logger.Debug("Render requested", "app_id", msg.AppID, "reason", req.Reason, "connections", n)
	return nil
}

// notify signals every connection of appID and returns how many there were.
func (b *Bridge) notify(appID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	clients := b.clients[appID]
	for _, c := range clients {
		select {
		case c.send <- struct{}{}:
		default:
			// A push is already pending and will render the newest state.
		}
	}
	return len(clients)
}

// Connections returns the number of open connections of appID.
func (b *Bridge) Connections(appID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients[appID])
}

// Handler upgrades the request of the session's application to a websocket.
// The current root is pushed as soon as the connection opens.
func (b *Bridge) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		a, ok := middleware.AppFrom(c)
		if !ok {
			return c.String(http.StatusInternalServerError, "no application for session")
		}

		conn, err := websocket.Accept(c.Response(), c.Request(), nil)
		if err != nil {
			middleware.FromContext(c.Request().Context()).Error("Failed to upgrade connection to WebSocket", "error", err)
			return nil
		}

		client := &Client{
			app:    a,
			conn:   conn,
			send:   make(chan struct{}, 1),
			bridge: b,
		}
		if !b.register(client) {
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return nil
		}
		select {
		case client.send <- struct{}{}:
		default:
		}

		go client.writePump()
		go client.readPump()
		return nil
	}
}

func (b *Bridge) register(c *Client) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false
	}
	id := c.app.ID()
	b.clients[id] = append(b.clients[id], c)
	b.logger.Info("Client registered", "app_id", id)
	return true
}

func (b *Bridge) unregister(c *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := c.app.ID()
	clients, ok := b.clients[id]
	if !ok {
		return
	}
	for i, other := range clients {
		if other == c {
			b.clients[id] = append(clients[:i], clients[i+1:]...)
			close(c.send)
			break
		}
	}
	if len(b.clients[id]) == 0 {
		delete(b.clients, id)
	}
	b.logger.Info("Client unregistered", "app_id", id)
}

// Disconnect closes the connections displaying a, typically because the
// application was closed. Connections of a newer application under the same
// session id are kept. The browser reconnects and is served by that one.
func (b *Bridge) Disconnect(a *app.App) int {
	b.mu.RLock()
	var stale []*Client
	for _, c := range b.clients[a.ID()] {
		if c.app == a {
			stale = append(stale, c)
		}
	}
	b.mu.RUnlock()

	for _, c := range stale {
		// Close waits for the peer's close frame; the sweeper must not.
		go c.conn.Close(websocket.StatusGoingAway, "session expired")
	}
	if len(stale) > 0 {
		b.logger.Info("Disconnected clients of closed application", "app_id", a.ID(), "connections", len(stale))
	}
	return len(stale)
}

// Close disconnects every client and refuses new ones.
func (b *Bridge) Close() error {
	b.mu.Lock()
	b.closed = true
	var all []*Client
	for _, clients := range b.clients {
		all = append(all, clients...)
	}
	b.mu.Unlock()

	for _, c := range all {
		c.conn.Close(websocket.StatusGoingAway, "server shutting down")
	}
	return nil
}

// readPump drains the connection until it closes. Browsers send nothing the
// application needs; reading keeps control frames flowing.
func (c *Client) readPump() {
	defer func() {
		c.bridge.unregister(c)
		c.conn.Close(websocket.StatusNormalClosure, "Client disconnected")
	}()

	for {
		_, _, err := c.conn.Read(context.Background())
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				c.bridge.logger.Debug("WebSocket closed normally by client", "app_id", c.app.ID())
			} else if !errors.Is(err, io.EOF) {
				c.bridge.logger.Debug("WebSocket read ended", "app_id", c.app.ID(), "error", err)
			}
			return
		}
	}
}

// writePump renders and writes the root on every signal.
func (c *Client) writePump() {
	defer c.conn.Close(websocket.StatusNormalClosure, "Server-side cleanup")

	for range c.send {
		ctx, cancel := context.WithTimeout(context.Background(), writeWait)
		body, err := c.bridge.renderer.RenderComponent(ctx, pages.RootOOB(c.app.Snapshot()))
		if err == nil {
			err = c.conn.Write(ctx, websocket.MessageText, body)
		}
		cancel()
		if err != nil {
			c.bridge.logger.Error("WebSocket push failed", "app_id", c.app.ID(), "error", err)
			return
		}
	}
}
