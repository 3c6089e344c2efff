package transport

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hongjun500/linechat/internal/observe"
	"github.com/hongjun500/linechat/pkg/logger"
)

// TCPServer accepts line-protocol clients over TCP and hands each one to a
// ConnHandler on its own goroutine.
type TCPServer struct {
	Options Options
	Logger  *zap.Logger
}

func (s *TCPServer) Name() string { return Tcp }

// Start binds addr and serves until ctx is cancelled. A bind failure is
// returned immediately.
func (s *TCPServer) Start(ctx context.Context, addr string, h ConnHandler) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln, h)
}

// Serve accepts on ln until ctx is cancelled or ln fails permanently, then
// waits for every connection it started to finish. It always closes ln.
func (s *TCPServer) Serve(ctx context.Context, ln net.Listener, h ConnHandler) error {
	log := logger.Or(s.Logger)
	log.Info("tcp_listen", zap.String("addr", ln.Addr().String()))

	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()
	defer ln.Close()

	var wg sync.WaitGroup
	defer wg.Wait()

	var backoff time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			backoff = nextBackoff(backoff)
			log.Warn("tcp_accept_error", zap.Error(err), zap.Duration("retry_in", backoff))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			continue
		}
		backoff = 0
		observe.IncConnection(Tcp)

		wg.Add(1)
		go func() {
			defer wg.Done()
			h.ServeConn(ctx, NewTCPConn(conn, s.Options))
		}()
	}
}

func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	if d *= 2; d > time.Second {
		return time.Second
	}
	return d
}
