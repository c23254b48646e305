package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

// Server exposes /metrics, /healthz and /progress.
type Server struct {
	srv    *http.Server
	logger *slog.Logger
}

// Routes builds the status router.
func Routes(c *Collector, p *Progress) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.HandlerFor(c.Registry(), promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/progress", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, p.Snapshot())
	})
	return r
}

// NewServer creates a status server bound to addr.
func NewServer(addr string, c *Collector, p *Progress) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           Routes(c, p),
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: slog.Default().With("component", "status_server"),
	}
}

// Start listens on the configured address and serves until ctx is done.
// It returns once the listener is bound so the address is usable.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	s.logger.Info("status server listening", "addr", ln.Addr().String())

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("status server failed", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		_ = s.Shutdown()
	}()
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
