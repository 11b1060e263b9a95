// Package admin provides the administrative HTTP endpoint every weir
// service exposes: liveness, readiness, and Prometheus metrics.
package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/weirlabs/weir/internal/logger"
)

// shutdownTimeout bounds the HTTP server drain once the token is cancelled.
const shutdownTimeout = 5 * time.Second

// Server is the admin endpoint for one service role. Control-plane roles
// bind a fixed port; worker and node pass 0 and get an OS-assigned one.
type Server struct {
	service string
	port    int

	boundPort atomic.Int32
}

// New creates an admin server for the given service role.
func New(service string, port int) *Server {
	return &Server{service: service, port: port}
}

// Port returns the actually bound port. Zero until Run has bound the
// listener.
func (s *Server) Port() int {
	return int(s.boundPort.Load())
}

// Run binds the listener and serves until ctx is cancelled. It matches the
// shutdown coordinator's task contract.
func (s *Server) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("admin server for %s failed to listen on port %d: %w", s.service, s.port, err)
	}
	s.boundPort.Store(int32(lis.Addr().(*net.TCPAddr).Port))

	srv := &http.Server{
		Handler:           s.router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(lis)
	}()

	logger.Info("admin server listening",
		logger.Service(s.service), logger.Port(s.Port()))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)

	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":  "ready",
			"service": s.service,
		})
	})

	r.Get("/name", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(s.service))
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
