package dummy

import (
	"io"
	"net"
	"sync"
)

// Client returns the chunks it was initialised with one by one and io.EOF afterwards.
// Everything written into it is recorded.
type Client struct {
	mu      sync.Mutex
	err     error
	data    [][]byte
	pending []byte
	written []byte
	closed  bool
}

func NewClient(data ...[]byte) *Client {
	return &Client{data: data, err: io.EOF}
}

// FailWith makes the client return err instead of io.EOF once the chunks are over.
func (c *Client) FailWith(err error) *Client {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()

	return c
}

func (c *Client) Read() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, net.ErrClosed
	}

	if len(c.pending) > 0 {
		data := c.pending
		c.pending = nil
		return data, nil
	}

	if len(c.data) == 0 {
		return nil, c.err
	}

	data := c.data[0]
	c.data = c.data[1:]

	return data, nil
}

func (c *Client) Unread(takeback []byte) {
	c.mu.Lock()
	c.pending = takeback
	c.mu.Unlock()
}

func (c *Client) Write(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return net.ErrClosed
	}

	c.written = append(c.written, b...)
	return nil
}

func (*Client) Remote() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 1337}
}

func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	return nil
}

// Written returns everything written so far.
func (c *Client) Written() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return string(c.written)
}

func (c *Client) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closed
}
