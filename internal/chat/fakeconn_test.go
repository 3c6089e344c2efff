package chat

import (
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errBrokenPipe = errors.New("write: broken pipe")

// fakeConn is a scriptable Conn. Lines pushed with feed are returned by
// ReadLine; hangUp makes ReadLine return io.EOF.
type fakeConn struct {
	addr net.Addr
	in   chan string

	mu        sync.Mutex
	out       []string
	failWrite  bool
	writeDelay time.Duration
	readErr    error

	closeOnce sync.Once
	closed    chan struct{}
	closes    int
}

func newFakeConn(port int) *fakeConn {
	return &fakeConn{
		addr:   &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port},
		in:     make(chan string, 64),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) ReadLine() (string, error) {
	select {
	case line, ok := <-c.in:
		if !ok {
			c.mu.Lock()
			err := c.readErr
			c.mu.Unlock()
			if err != nil {
				return "", err
			}
			return "", io.EOF
		}
		return line, nil
	case <-c.closed:
		return "", net.ErrClosed
	}
}

func (c *fakeConn) WriteLine(line string) error {
	c.mu.Lock()
	delay := c.writeDelay
	c.mu.Unlock()
	time.Sleep(delay)

	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.closed:
		return net.ErrClosed
	default:
	}
	if c.failWrite {
		return errBrokenPipe
	}
	c.out = append(c.out, line)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closes++
	c.mu.Unlock()
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) RemoteAddr() net.Addr { return c.addr }

func (c *fakeConn) feed(lines ...string) {
	for _, l := range lines {
		c.in <- l
	}
}

func (c *fakeConn) hangUp(err error) {
	c.mu.Lock()
	c.readErr = err
	c.mu.Unlock()
	close(c.in)
}

func (c *fakeConn) breakWrites() {
	c.mu.Lock()
	c.failWrite = true
	c.mu.Unlock()
}

func (c *fakeConn) slowWrites(d time.Duration) {
	c.mu.Lock()
	c.writeDelay = d
	c.mu.Unlock()
}

func (c *fakeConn) received() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.out...)
}

func (c *fakeConn) closeCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

const waitFor = 2 * time.Second
const tick = 5 * time.Millisecond

func waitReceived(t *testing.T, c *fakeConn, want ...string) {
	t.Helper()
	require.Eventually(t, func() bool {
		got := c.received()
		if len(got) < len(want) {
			return false
		}
		for i := range want {
			if got[i] != want[i] {
				return false
			}
		}
		return true
	}, waitFor, tick, "want %q", want)
}

func waitRegistered(t *testing.T, reg *Registry, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return reg.Len() == n }, waitFor, tick)
}
