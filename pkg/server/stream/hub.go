// Package stream pushes prediction events to connected dashboards over
// WebSocket. A single hub fans every published event out to all clients;
// slow clients are dropped rather than allowed to stall the broadcast loop.
package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// sendBuffer is the per-client outbound queue. A full queue means the
	// client is not keeping up and gets disconnected.
	sendBuffer = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The dashboard may be served from a different origin than the API.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ClientGauge tracks the connected-client count. prometheus.Gauge satisfies it.
type ClientGauge interface {
	Inc()
	Dec()
}

// Hub owns the client set and the broadcast loop.
type Hub struct {
	clients    map[*client]struct{}
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	gauge      ClientGauge
}

// NewHub creates a hub. gauge may be nil.
func NewHub(gauge ClientGauge) *Hub {
	return &Hub{
		clients:    make(map[*client]struct{}),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *client),
		unregister: make(chan *client),
		gauge:      gauge,
	}
}

// Run processes registration and broadcast until ctx is canceled. All
// remaining clients are closed on exit.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.drop(c)
			}
			return
		case c := <-h.register:
			h.clients[c] = struct{}{}
			if h.gauge != nil {
				h.gauge.Inc()
			}
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					h.drop(c)
				}
			}
		}
	}
}

func (h *Hub) drop(c *client) {
	delete(h.clients, c)
	close(c.send)
	if h.gauge != nil {
		h.gauge.Dec()
	}
}

// Publish queues v (JSON-encoded) for every connected client. Events are
// dropped when the broadcast queue is full; the stream is best-effort.
func (h *Hub) Publish(v any) {
	msg, err := json.Marshal(v)
	if err != nil {
		log.Error().
			Str("component", "stream").
			Err(err).
			Msg("Failed to encode stream event")
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		log.Warn().
			Str("component", "stream").
			Msg("Broadcast queue full, dropping event")
	}
}

// Handler upgrades the request to a WebSocket connection and attaches it to
// the hub.
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().
				Str("component", "stream").
				Err(err).
				Msg("WebSocket upgrade failed")
			return
		}

		c := &client{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}
		h.register <- c

		go c.writePump()
		go c.readPump()
	}
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// readPump discards inbound frames; the stream is one-way. It exists to
// process control frames and detect disconnects.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister <- c
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
