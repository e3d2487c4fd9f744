package tcp

import (
	"net"
	"time"

	"github.com/benbjohnson/clock"
)

type Client interface {
	Read() ([]byte, error)
	Unread([]byte)
	Write([]byte) error
	Remote() net.Addr
	Close() error
}

type client struct {
	pending []byte
	buff    []byte
	conn    net.Conn
	clock   clock.Clock
	timeout time.Duration
}

// NewClient wraps the connection. Every read from the socket is limited by the timeout, counted
// from the clock's current time.
func NewClient(conn net.Conn, clk clock.Clock, timeout time.Duration, buff []byte) Client {
	return &client{
		buff:    buff,
		conn:    conn,
		clock:   clk,
		timeout: timeout,
	}
}

// Read returns the data passed to Unread, if any, otherwise reads from the socket. The returned
// slice is valid until the next call.
func (c *client) Read() ([]byte, error) {
	if len(c.pending) > 0 {
		data := c.pending
		c.pending = nil
		return data, nil
	}

	if err := c.conn.SetReadDeadline(c.clock.Now().Add(c.timeout)); err != nil {
		return nil, err
	}

	n, err := c.conn.Read(c.buff)

	return c.buff[:n], err
}

// Unread makes the next Read return b instead of reading from the socket.
func (c *client) Unread(b []byte) {
	c.pending = b
}

func (c *client) Write(b []byte) error {
	_, err := c.conn.Write(b)

	return err
}

func (c *client) Remote() net.Addr {
	return c.conn.RemoteAddr()
}

func (c *client) Close() error {
	return c.conn.Close()
}
