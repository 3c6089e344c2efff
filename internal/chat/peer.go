package chat

import (
	"sync"
)

// Peer is one live client connection as seen by the Registry and the
// Broadcaster. The connection handler owns it; everyone else holds a
// reference keyed by ID.
type Peer struct {
	ID      string
	Session string // log correlation only

	conn      Conn
	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
	closed    chan struct{}

	// Set once, before closed is closed.
	closeReason CloseReason
	closeCause  error
}

func NewPeer(id, session string, conn Conn) *Peer {
	return &Peer{
		ID:      id,
		Session: session,
		conn:    conn,
		closed:  make(chan struct{}),
	}
}

// Send writes one line. Writes from concurrent broadcasts are serialized.
func (p *Peer) Send(line string) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	if p.IsClosed() {
		return ErrPeerClosed
	}
	return p.conn.WriteLine(line)
}

// Close releases the transport. Only the first call reaches the transport;
// later calls return the same result.
func (p *Peer) Close() error { return p.closeWith("", nil) }

// closeWith closes the peer and records why, so the handler blocked on its
// read reports the real cause instead of the closed transport.
func (p *Peer) closeWith(reason CloseReason, cause error) error {
	p.closeOnce.Do(func() {
		p.closeReason, p.closeCause = reason, cause
		close(p.closed)
		p.closeErr = p.conn.Close()
	})
	return p.closeErr
}

// closedBy returns the reason recorded by closeWith, or "" when the peer is
// open or was closed without one.
func (p *Peer) closedBy() (CloseReason, error) {
	if !p.IsClosed() {
		return "", nil
	}
	return p.closeReason, p.closeCause
}

// IsClosed reports whether Close has been called, without blocking.
func (p *Peer) IsClosed() bool {
	select {
	case <-p.closed:
		return true
	default:
		return false
	}
}

func (p *Peer) readLine() (string, error) { return p.conn.ReadLine() }
