package ws

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var (
	// ErrClientClosed is returned when sending to a disconnected client
	ErrClientClosed = errors.New("client closed")
	// ErrSendBufferFull is returned when a slow client's queue is full
	ErrSendBufferFull = errors.New("client send buffer full")
)

// Client is one websocket connection. Outbound messages are queued on a
// buffered channel and written by writePump; inbound frames are read by
// readPump and handed to the hub's Handler in arrival order.
type Client struct {
	id          string
	hub         *Hub
	conn        *websocket.Conn
	logger      *slog.Logger
	connectedAt time.Time

	mu     sync.RWMutex
	send   chan []byte
	closed bool
}

func newClient(id string, hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:          id,
		hub:         hub,
		conn:        conn,
		logger:      hub.logger.With(slog.String("conn_id", id)),
		connectedAt: time.Now(),
		send:        make(chan []byte, hub.cfg.SendBufferSize),
	}
}

// ID returns the connection's unique id
func (c *Client) ID() string {
	return c.id
}

// Send queues msg without blocking
func (c *Client) Send(msg []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClientClosed
	}
	select {
	case c.send <- msg:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// close stops the write pump; safe to call more than once
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// readPump delivers inbound text frames until the connection fails or
// the peer stops answering pings
func (c *Client) readPump(handle func(frame []byte)) {
	cfg := c.hub.cfg
	c.conn.SetReadLimit(cfg.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(cfg.PongWait))
	})

	for {
		msgType, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.logger.Warn("websocket read failed", slog.String("error", err.Error()))
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		handle(frame)
	}
}

// writePump drains the send queue and keeps the connection alive with pings
func (c *Client) writePump() {
	cfg := c.hub.cfg
	ticker := time.NewTicker(cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.logger.Warn("websocket write failed", slog.String("error", err.Error()))
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
