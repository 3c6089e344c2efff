package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hongjun500/linechat/internal/chat"
	"github.com/hongjun500/linechat/internal/config"
	"github.com/hongjun500/linechat/internal/observe"
	"github.com/hongjun500/linechat/internal/subscriber"
	"github.com/hongjun500/linechat/internal/transport"
	"github.com/hongjun500/linechat/pkg/logger"
)

func main() {
	cfg := config.Load()
	flag.StringVar(&cfg.TCPAddr, "tcp", cfg.TCPAddr, "TCP listen address")
	flag.StringVar(&cfg.WSAddr, "ws", cfg.WSAddr, "WebSocket listen address (empty disables)")
	flag.StringVar(&cfg.HTTPAddr, "http", cfg.HTTPAddr, "metrics/health listen address (empty disables)")
	flag.IntVar(&cfg.MaxLineBytes, "max-line", cfg.MaxLineBytes, "longest accepted line in bytes")
	flag.DurationVar(&cfg.WriteTimeout, "write-timeout", cfg.WriteTimeout, "per-write deadline, 0 disables")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug|info|warn|error")
	flag.Parse()

	logger.SetLevel(cfg.LogLevel)
	defer logger.Sync()
	log := logger.L()

	if err := run(cfg, log); err != nil {
		log.Error("server_exit", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

type listener struct {
	t    transport.Transport
	addr string
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := chat.NewBus()
	subscriber.RegisterAll(bus, log)
	reg := chat.NewRegistry()
	srv := chat.NewServer(reg, chat.WithLogger(log), chat.WithBus(bus))

	opt := transport.Options{MaxLineBytes: cfg.MaxLineBytes, WriteTimeout: cfg.WriteTimeout}
	listeners := []listener{
		{&transport.TCPServer{Options: opt, Logger: log}, cfg.TCPAddr},
	}
	if cfg.WSAddr != "" {
		listeners = append(listeners, listener{&transport.WebSocketServer{Options: opt, Logger: log}, cfg.WSAddr})
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, l := range listeners {
		l := l
		g.Go(func() error {
			if err := l.t.Start(gctx, l.addr, srv); err != nil {
				return fmt.Errorf("%s listener: %w", l.t.Name(), err)
			}
			return nil
		})
	}
	if cfg.HTTPAddr != "" {
		g.Go(func() error {
			return observe.StartHTTP(gctx, cfg.HTTPAddr, observe.ListerFunc(func() []observe.Member {
				members := reg.Members()
				out := make([]observe.Member, len(members))
				for i, m := range members {
					out[i] = observe.Member{ID: m.ID, Name: m.Name}
				}
				return out
			}))
		})
	}

	log.Info("chat_server_start",
		zap.String("tcp", cfg.TCPAddr),
		zap.String("ws", cfg.WSAddr),
		zap.String("http", cfg.HTTPAddr),
		zap.Duration("write_timeout", cfg.WriteTimeout.Round(time.Millisecond)),
	)
	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("chat_server_stopped")
	return nil
}
