package httpingest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tidebase/rowship/internal/domain"
	"github.com/tidebase/rowship/internal/ports"
)

// Ingester is the subset of the engine the HTTP surface needs.
type Ingester interface {
	Append(table string, rows []domain.Row, cols domain.ColumnSpec)
	ForceFlushSync(ctx context.Context) error
	Pending() int
	Evicted() uint64
}

// Server is a thin wrapper over chi and the stdlib http.Server.
type Server struct {
	addr   string
	mux    *chi.Mux
	srv    *http.Server
	logger ports.Logger
}

// NewServer builds the ingest server with its routes and middleware mounted.
func NewServer(addr string, ing Ingester, logger ports.Logger) *Server {
	m := chi.NewRouter()
	m.Use(requestID)
	m.Use(accessLog(logger))

	h := &handler{ingester: ing, logger: logger}
	m.Post("/v1/ingest/{table}", h.ingest)
	m.Post("/v1/flush", h.flush)
	m.Get("/v1/status", h.status)
	m.Get("/healthz", h.health)

	return &Server{
		addr:   addr,
		mux:    m,
		logger: logger,
		srv: &http.Server{
			Addr:              addr,
			Handler:           m,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler returns the underlying mux, mainly for tests.
func (s *Server) Handler() http.Handler { return s.mux }

// Addr returns the listening address.
func (s *Server) Addr() string { return s.addr }

// Run starts the server and blocks until it is shut down.
func (s *Server) Run() error {
	s.logger.Info("http ingest listening", ports.String("addr", s.addr))
	err := s.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
