// Package ops exposes the operational HTTP surface of the relay worker:
// liveness and readiness probes. The relay itself is headless; this server
// exists so orchestrators can tell a live-but-connecting process from a
// consuming one.
package ops

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	"notifyrelay/internal/types"
)

// shutdownTimeout bounds how long in-flight probe requests may delay exit.
const shutdownTimeout = 5 * time.Second

// Probe tracks whether the relay worker has reached its consuming state.
type Probe struct {
	ready atomic.Bool
}

// NewProbe returns a Probe that is not yet ready.
func NewProbe() *Probe { return &Probe{} }

// MarkReady flips the probe to ready. It is safe to call more than once.
func (p *Probe) MarkReady() { p.ready.Store(true) }

// Ready reports whether MarkReady has been called.
func (p *Probe) Ready() bool { return p.ready.Load() }

// Server serves the probe endpoints.
type Server struct {
	addr   string
	router chi.Router
	logger types.Logger
}

// NewServer builds the ops server on the given port.
func NewServer(port int, probe *Probe, logger types.Logger) *Server {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if !probe.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not consuming"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("consuming"))
	})

	return &Server{
		addr:   fmt.Sprintf(":%d", port),
		router: r,
		logger: logger.With("component", "ops"),
	}
}

// Handler returns the underlying HTTP handler, exposed for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.router}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("ops server listening", "addr", s.addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("ops: server failed: %w", err)
	}
	return nil
}
