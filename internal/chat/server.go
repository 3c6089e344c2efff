package chat

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hongjun500/linechat/pkg/logger"
)

// Server ties the registry, the broadcaster and the event bus together and
// runs one handler per accepted connection.
type Server struct {
	reg    *Registry
	bc     *Broadcaster
	bus    *Bus
	log    *zap.Logger
	newSID func() string
}

type Option func(*Server)

// WithLogger replaces the process-wide logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithBus publishes lifecycle and message events to b.
func WithBus(b *Bus) Option {
	return func(s *Server) { s.bus = b }
}

// WithSessionIDs overrides how per-connection session ids are generated.
func WithSessionIDs(fn func() string) Option {
	return func(s *Server) {
		if fn != nil {
			s.newSID = fn
		}
	}
}

func NewServer(reg *Registry, opts ...Option) *Server {
	s := &Server{
		reg:    reg,
		log:    logger.L(),
		newSID: newSessionID,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.bc = NewBroadcaster(reg, s.log, s.dropped)
	return s
}

func (s *Server) Registry() *Registry { return s.reg }

// Bus returns the event bus, or nil when none was configured.
func (s *Server) Bus() *Bus { return s.bus }

// Broadcast fans msg out to every registered client.
func (s *Server) Broadcast(msg string) (delivered, failed int) {
	return s.bc.Broadcast(msg)
}

// ServeConn runs the connection state machine until the client leaves, the
// transport fails or ctx is cancelled. It closes conn before returning.
func (s *Server) ServeConn(ctx context.Context, conn Conn) {
	p := NewPeer(IdentityOf(conn.RemoteAddr()), s.newSID(), conn)
	sess := &session{
		srv:   s,
		peer:  p,
		log:   s.log.With(zap.String("client", p.ID), zap.String("session", p.Session)),
		state: stateAwaitingName,
	}
	// Closing the peer is the only way to interrupt a blocked read.
	stop := context.AfterFunc(ctx, func() { _ = p.Close() })
	defer stop()

	sess.log.Debug("client_connected", zap.Stringer("remote", conn.RemoteAddr()))
	reason, err := sess.run(ctx)
	sess.finish(reason, err)
}

func (s *Server) dropped(p *Peer, name string, err error) {
	s.bus.Emit(&UserEvent{When: time.Now(), ID: p.ID, Name: name, Left: true, Reason: ReasonWriteFailed, Err: err})
}
