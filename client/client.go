// Package client is the line-protocol client used by cmd/client. A Client
// owns exactly one server connection.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/hongjun500/linechat/internal/chat"
	"github.com/hongjun500/linechat/internal/transport"
	"github.com/hongjun500/linechat/pkg/logger"
)

var (
	// ErrInvalidLine is returned when a message would not survive line framing.
	ErrInvalidLine = errors.New("client: message must be a single line")

	// ErrEmptyName is returned by Dial for a blank display name. The server
	// skips blank lines before the name, so the first chat line would take
	// its place.
	ErrEmptyName = errors.New("client: display name must not be blank")
)

type Client struct {
	conn *transport.TCPConn
	log  *zap.Logger
	msgs chan string

	closeOnce sync.Once
	done      chan struct{}

	mu  sync.Mutex
	err error
}

// Dial connects to addr and announces name. Connection failures are returned
// synchronously; later failures end the Messages channel.
func Dial(ctx context.Context, addr, name string, opts ...Option) (*Client, error) {
	if err := checkLine(name); err != nil {
		return nil, err
	}
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyName
	}
	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", addr, err)
	}
	c := &Client{
		conn: transport.NewTCPConn(nc, transport.Options{}),
		log:  logger.L(),
		msgs: make(chan string, 64),
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.conn.WriteLine(name); err != nil {
		_ = c.conn.Close()
		return nil, fmt.Errorf("send name: %w", err)
	}
	go c.receive()
	return c, nil
}

type Option func(*Client)

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// Messages delivers broadcast lines in arrival order. It is closed when the
// connection ends; Err then reports why.
func (c *Client) Messages() <-chan string { return c.msgs }

// Send posts a chat message.
func (c *Client) Send(text string) error {
	if err := checkLine(text); err != nil {
		return err
	}
	return c.conn.WriteLine(text)
}

// ChangeName asks the server to rename this client.
func (c *Client) ChangeName(name string) error {
	if err := checkLine(name); err != nil {
		return err
	}
	return c.conn.WriteLine(chat.RenamePrefix + name)
}

// Disconnect tells the server goodbye and closes the connection. The
// goodbye is best effort.
func (c *Client) Disconnect() error {
	_ = c.conn.WriteLine(chat.DisconnectCommand)
	return c.Close()
}

func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		err = c.conn.Close()
	})
	return err
}

// Err reports why Messages was closed: nil after a clean end of stream or a
// local Close.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Client) receive() {
	defer close(c.msgs)
	for {
		line, err := c.conn.ReadLine()
		if err != nil {
			select {
			case <-c.done:
				// Local Close; the read error is expected.
			default:
				if !errors.Is(err, io.EOF) {
					c.mu.Lock()
					c.err = err
					c.mu.Unlock()
					c.log.Warn("client_receive_error", zap.Error(err))
				}
				c.closeOnce.Do(func() {
					close(c.done)
					_ = c.conn.Close()
				})
			}
			return
		}
		select {
		case c.msgs <- line:
		case <-c.done:
			return
		}
	}
}

func checkLine(s string) error {
	if strings.ContainsAny(s, "\r\n") {
		return ErrInvalidLine
	}
	return nil
}
