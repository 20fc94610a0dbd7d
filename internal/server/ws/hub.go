// Package ws implements the live-update WebSocket hub. The hub owns two
// independent subscriber sets, one per channel (price updates and arbitrage
// alerts), and delivers best-effort, at-most-once fan-out: a subscriber that
// is not connected at broadcast time never receives that message.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeWait is the maximum time to wait for a write to complete.
	writeWait = 10 * time.Second

	// pongWait is the maximum time to wait for a pong from the client.
	pongWait = 60 * time.Second

	// pingPeriod sends pings at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize is the maximum size of an incoming message.
	maxMessageSize = 512

	// sendBufferSize is the channel buffer for outgoing messages per client.
	sendBufferSize = 256
)

// Channel names served by the hub.
const (
	ChannelPrices    = "prices"
	ChannelArbitrage = "arbitrage"
)

// upgrader configures the WebSocket upgrade parameters.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins. In production, restrict this to known origins.
		return true
	},
}

// client represents a single WebSocket connection bound to one channel.
type client struct {
	hub     *Hub
	conn    *websocket.Conn
	channel string
	send    chan []byte
}

// Hub maintains the subscriber sets and fans broadcast messages out to them.
// The sets are only touched under the mutex; delivery to one connection is
// independent of the others.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*client]bool // channel -> subscriber set
	logger  *slog.Logger
}

// NewHub creates a hub with empty subscriber sets for both channels.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: map[string]map[*client]bool{
			ChannelPrices:    {},
			ChannelArbitrage: {},
		},
		logger: logger.With(slog.String("component", "ws_hub")),
	}
}

// Run blocks until ctx is cancelled, then closes every remaining connection
// and drains both subscriber sets.
func (h *Hub) Run(ctx context.Context) error {
	<-ctx.Done()

	h.mu.Lock()
	for _, set := range h.clients {
		for c := range set {
			close(c.send)
			delete(set, c)
		}
	}
	h.mu.Unlock()

	return ctx.Err()
}

// Broadcast delivers data to every connection currently subscribed to the
// channel. A connection whose send buffer is full is treated as failed and
// removed, without affecting delivery to the remaining connections.
func (h *Hub) Broadcast(channel string, data []byte) {
	var stale []*client

	h.mu.RLock()
	for c := range h.clients[channel] {
		select {
		case c.send <- data:
		default:
			stale = append(stale, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range stale {
		h.logger.Warn("dropping unresponsive subscriber",
			slog.String("channel", channel),
		)
		h.unsubscribe(c)
	}
}

// SubscriberCount returns the number of live subscribers on a channel.
func (h *Hub) SubscriberCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[channel])
}

// HandlePrices upgrades the request and subscribes it to the price channel.
// GET /ws/prices
func (h *Hub) HandlePrices(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, ChannelPrices)
}

// HandleArbitrage upgrades the request and subscribes it to the arbitrage
// channel.
// GET /ws/arbitrage
func (h *Hub) HandleArbitrage(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, ChannelArbitrage)
}

// serve performs the channel handshake: upgrade, register, and start the
// read/write pumps.
func (h *Hub) serve(w http.ResponseWriter, r *http.Request, channel string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("upgrade failed",
			slog.String("channel", channel),
			slog.String("error", err.Error()),
		)
		return
	}

	c := &client{
		hub:     h,
		conn:    conn,
		channel: channel,
		send:    make(chan []byte, sendBufferSize),
	}
	h.subscribe(c)
	c.sendWelcome()

	go c.writePump()
	go c.readPump()
}

func (h *Hub) subscribe(c *client) {
	h.mu.Lock()
	h.clients[c.channel][c] = true
	total := len(h.clients[c.channel])
	h.mu.Unlock()

	h.logger.Info("subscriber connected",
		slog.String("channel", c.channel),
		slog.Int("total", total),
	)
}

// unsubscribe removes a client from its channel's set and closes its send
// queue. Removing an already-removed client is a no-op.
func (h *Hub) unsubscribe(c *client) {
	h.mu.Lock()
	set := h.clients[c.channel]
	if _, ok := set[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(set, c)
	close(c.send)
	total := len(set)
	h.mu.Unlock()

	h.logger.Info("subscriber disconnected",
		slog.String("channel", c.channel),
		slog.Int("total", total),
	)
}

// sendWelcome pushes a small envelope so clients can immediately mark the
// subscription as established even before the next cycle broadcasts.
func (c *client) sendWelcome() {
	msg, err := json.Marshal(map[string]any{
		"type":      "subscribed",
		"channel":   c.channel,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

// readPump reads (and discards) incoming frames so that pongs and close
// frames are processed. A read failure is the disconnect signal.
func (c *client) readPump() {
	defer func() {
		c.hub.unsubscribe(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("unexpected close",
					slog.String("channel", c.channel),
					slog.String("error", err.Error()),
				)
			}
			return
		}
	}
}

// writePump pumps broadcast messages to the connection and sends periodic
// ping frames for keepalive. A write failure ends the pump; readPump then
// unregisters the client.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
