// Package transport pushes vision messages to the base station over a
// WebSocket.
package transport

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/agingrasc/design3-vision/internal/message"
	"github.com/agingrasc/design3-vision/internal/monitoring"
	"github.com/agingrasc/design3-vision/internal/pipeline"
)

// Defaults for Client.
const (
	DefaultWriteTimeout = 2 * time.Second
	DefaultRedialDelay  = time.Second
)

// ErrNotConnected is returned while the client waits before redialling.
var ErrNotConnected = errors.New("transport: not connected")

// Option configures a Client.
type Option func(*Client)

// WithWriteTimeout bounds each dial and write.
func WithWriteTimeout(d time.Duration) Option {
	return func(c *Client) { c.writeTimeout = d }
}

// WithRedialDelay sets the minimum time between connection attempts.
func WithRedialDelay(d time.Duration) Option {
	return func(c *Client) { c.redialDelay = d }
}

// Client is a pipeline publish sink. It connects lazily and redials after
// a failed write; frames produced while disconnected are dropped.
type Client struct {
	url          string
	assembler    message.Assembler
	writeTimeout time.Duration
	redialDelay  time.Duration

	mu   sync.Mutex
	conn *websocket.Conn
	// alive is done once the peer closes the connection or it fails.
	alive    context.Context
	lastDial time.Time
}

// NewClient returns a client for the WebSocket at url.
func NewClient(url string, a message.Assembler, opts ...Option) *Client {
	c := &Client{
		url:          url,
		assembler:    a,
		writeTimeout: DefaultWriteTimeout,
		redialDelay:  DefaultRedialDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PublishFrame implements pipeline.PublishSink.
func (c *Client) PublishFrame(ctx context.Context, r *pipeline.Result) error {
	msg, err := c.assembler.Assemble(r.Image, r.State)
	if err != nil {
		return err
	}
	return c.Send(ctx, msg)
}

// Send writes v as one JSON text message.
func (c *Client) Send(ctx context.Context, v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil && c.alive.Err() != nil {
		monitoring.Logf("[transport] connection to %s closed, redialling", c.url)
		c.drop()
	}
	if err := c.connect(ctx); err != nil {
		return err
	}
	wctx, cancel := context.WithTimeout(ctx, c.writeTimeout)
	defer cancel()
	if err := wsjson.Write(wctx, c.conn, v); err != nil {
		c.drop()
		return fmt.Errorf("write %s: %w", c.url, err)
	}
	return nil
}

func (c *Client) connect(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}
	if !c.lastDial.IsZero() && time.Since(c.lastDial) < c.redialDelay {
		return ErrNotConnected
	}
	c.lastDial = time.Now()
	dctx, cancel := context.WithTimeout(ctx, c.writeTimeout)
	defer cancel()
	conn, _, err := websocket.Dial(dctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.url, err)
	}
	monitoring.Logf("[transport] connected to %s", c.url)
	c.conn = conn
	// The base station never sends data; reading in the background answers
	// its pings and notices its close frame.
	c.alive = conn.CloseRead(context.Background())
	return nil
}

func (c *Client) drop() {
	if c.conn == nil {
		return
	}
	c.conn.CloseNow()
	c.conn = nil
	c.alive = nil
}

// Connected reports whether a connection is currently open.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil && c.alive.Err() == nil
}

// Close closes the connection, if any.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close(websocket.StatusNormalClosure, "")
	c.conn = nil
	c.alive = nil
	return err
}
