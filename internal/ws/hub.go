package ws

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mcoot/seabattle/internal/session"
)

var _ session.Conn = (*Client)(nil)

// Handler receives connection lifecycle events and inbound frames.
// Calls for one connection are never concurrent.
type Handler interface {
	Connect(ctx context.Context, conn session.Conn)
	Handle(ctx context.Context, conn session.Conn, frame []byte)
	Disconnect(ctx context.Context, conn session.Conn)
}

// Config holds websocket timing and buffer settings
type Config struct {
	WriteWait      time.Duration // deadline for a single write
	PongWait       time.Duration // read deadline, extended by each pong
	PingPeriod     time.Duration // must be shorter than PongWait
	MaxMessageSize int64
	SendBufferSize int
}

// DefaultConfig returns sensible defaults for websocket connections
func DefaultConfig() Config {
	return Config{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     54 * time.Second,
		MaxMessageSize: 64 * 1024,
		SendBufferSize: 256,
	}
}

// Hub upgrades HTTP requests to websocket clients and tracks them
type Hub struct {
	cfg      Config
	handler  Handler
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*Client
}

// NewHub creates a Hub dispatching to handler
func NewHub(cfg Config, handler Handler, logger *slog.Logger) *Hub {
	return &Hub{
		cfg:     cfg,
		handler: handler,
		logger:  logger.With(slog.String("component", "ws")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Game clients are served from other origins
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[string]*Client),
	}
}

// ServeHTTP upgrades the request and serves the client until it disconnects
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := newClient(uuid.NewString(), h, conn)
	h.register(client)

	// Handlers outlive the upgrade request's context
	ctx := context.WithoutCancel(r.Context())

	go client.writePump()
	h.handler.Connect(ctx, client)

	client.readPump(func(frame []byte) {
		h.handler.Handle(ctx, client, frame)
	})

	h.unregister(client)
	h.handler.Disconnect(ctx, client)
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	h.clients[client.id] = client
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("websocket client connected",
		slog.String("conn_id", client.id),
		slog.String("remote_addr", client.conn.RemoteAddr().String()),
		slog.Int("total_clients", count),
	)
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	delete(h.clients, client.id)
	count := len(h.clients)
	h.mu.Unlock()

	client.close()
	h.logger.Info("websocket client disconnected",
		slog.String("conn_id", client.id),
		slog.Duration("connection_duration", time.Since(client.connectedAt)),
		slog.Int("total_clients", count),
	)
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close sends a close frame to every client. Their read loops then end
// and the usual disconnect path runs.
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.close()
	}
	h.logger.Info("websocket hub closed", slog.Int("disconnected_clients", len(clients)))
}
