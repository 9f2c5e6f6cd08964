package testutil

import (
	"errors"
	"sync"
)

// ErrConnClosed is returned by FakeConn.Send after Close
var ErrConnClosed = errors.New("fake connection closed")

// FakeConn records every message sent to it
type FakeConn struct {
	id string

	mu     sync.Mutex
	sent   [][]byte
	closed bool
}

// NewFakeConn returns an open FakeConn with the given id
func NewFakeConn(id string) *FakeConn {
	return &FakeConn{id: id}
}

func (c *FakeConn) ID() string {
	return c.id
}

func (c *FakeConn) Send(msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnClosed
	}
	c.sent = append(c.sent, append([]byte(nil), msg...))
	return nil
}

// Close makes later sends fail
func (c *FakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// Sent returns a copy of every message received so far
func (c *FakeConn) Sent() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.sent))
	copy(out, c.sent)
	return out
}

// Reset discards recorded messages
func (c *FakeConn) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = nil
}
