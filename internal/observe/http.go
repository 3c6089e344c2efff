package observe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hongjun500/linechat/pkg/logger"
)

// Member is one row of the /clients listing.
type Member struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Lister reports who is connected.
type Lister interface {
	Members() []Member
}

// ListerFunc adapts a plain function to Lister.
type ListerFunc func() []Member

func (f ListerFunc) Members() []Member { return f() }

// Handler serves /healthz, /metrics and, when l is non-nil, /clients.
func Handler(l Lister) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintln(w, "ok")
	})
	mux.Handle("/metrics", promhttp.Handler())
	if l != nil {
		mux.HandleFunc("/clients", func(w http.ResponseWriter, r *http.Request) {
			members := l.Members()
			if members == nil {
				members = []Member{}
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(members)
		})
	}
	return mux
}

// StartHTTP serves Handler(l) on addr until ctx is cancelled.
func StartHTTP(ctx context.Context, addr string, l Lister) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           Handler(l),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	logger.L().Info("http_listen", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}
