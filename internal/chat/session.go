package chat

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type state int

const (
	stateAwaitingName state = iota
	stateActive
	stateClosed
)

func (st state) String() string {
	switch st {
	case stateAwaitingName:
		return "awaiting_name"
	case stateActive:
		return "active"
	case stateClosed:
		return "closed"
	}
	return "unknown"
}

func newSessionID() string { return uuid.NewString() }

// session is the per-connection state machine:
// AwaitingName -> Active -> Closed.
type session struct {
	srv   *Server
	peer  *Peer
	log   *zap.Logger
	state state
}

func (s *session) run(ctx context.Context) (CloseReason, error) {
	for {
		raw, err := s.peer.readLine()
		if err != nil {
			// A broadcast that closed this peer owns the reason.
			if reason, cause := s.peer.closedBy(); reason != "" {
				return reason, cause
			}
			return classifyReadErr(ctx, err), err
		}
		switch s.state {
		case stateAwaitingName:
			// The first non-blank line is the display name, taken verbatim.
			if ParseLine(raw).Kind == LineBlank {
				continue
			}
			s.join(raw)
		case stateActive:
			if reason, err := s.handle(raw); reason != "" {
				return reason, err
			}
		}
	}
}

func (s *session) join(name string) {
	if prev := s.srv.reg.Register(s.peer, name); prev != nil {
		s.log.Warn("identity_collision", zap.String("name", name), zap.String("displaced_session", prev.Session))
	}
	s.state = stateActive
	s.log.Info("client_joined", zap.String("name", name))
	s.srv.bus.Emit(&UserEvent{When: time.Now(), ID: s.peer.ID, Name: name})
}

// handle processes one line in the Active state. A non-empty reason means
// the session must close.
func (s *session) handle(raw string) (CloseReason, error) {
	line := ParseLine(raw)
	switch line.Kind {
	case LineBlank:
		return "", nil

	case LineDisconnect:
		return ReasonQuit, nil

	case LineRename:
		if line.Arg == "" {
			s.log.Debug("rename_ignored", zap.String("line", raw))
			return "", nil
		}
		old, ok := s.srv.reg.renamePeer(s.peer, line.Arg)
		if !ok {
			return "", nil
		}
		s.log.Info("client_renamed", zap.String("from", old), zap.String("to", line.Arg))
		s.srv.bus.Emit(&RenameEvent{When: time.Now(), ID: s.peer.ID, From: old, To: line.Arg})
		return "", nil

	default:
		// Always re-read the name: a rename may have happened since join.
		name, err := s.srv.reg.nameOf(s.peer)
		if err != nil {
			return ReasonUnknownIdentity, err
		}
		msg := FormatMessage(name, s.peer.ID, line.Arg)
		s.log.Debug("message_received", zap.String("message", msg))
		delivered, failed := s.srv.bc.Broadcast(msg)
		s.srv.bus.Emit(&MessageEvent{
			When:      time.Now(),
			ID:        s.peer.ID,
			From:      name,
			Content:   line.Arg,
			Delivered: delivered,
			Failed:    failed,
		})
		return "", nil
	}
}

// finish moves the session to Closed exactly once: the registry entry and
// the transport go together.
func (s *session) finish(reason CloseReason, err error) {
	if s.state == stateClosed {
		return
	}
	prev := s.state
	s.state = stateClosed

	name, removed := s.srv.reg.release(s.peer)
	if !removed {
		// Never registered, or a broadcast already dropped it and reported.
		s.log.Debug("client_closed", zap.Stringer("state", prev), zap.String("reason", string(reason)), zap.Error(err))
		return
	}

	fields := []zap.Field{zap.String("name", name), zap.String("reason", string(reason))}
	if reason.Clean() {
		s.log.Info("client_left", fields...)
	} else {
		s.log.Warn("client_left", append(fields, zap.Error(err))...)
	}
	s.srv.bus.Emit(&UserEvent{When: time.Now(), ID: s.peer.ID, Name: name, Left: true, Reason: reason, Err: err})
}

// classifyReadErr separates an orderly end of stream from a transport
// failure.
func classifyReadErr(ctx context.Context, err error) CloseReason {
	switch {
	case ctx.Err() != nil:
		return ReasonShutdown
	case errors.Is(err, io.EOF),
		errors.Is(err, io.ErrClosedPipe),
		errors.Is(err, net.ErrClosed),
		errors.Is(err, ErrPeerClosed):
		return ReasonEOF
	default:
		return ReasonTransport
	}
}
