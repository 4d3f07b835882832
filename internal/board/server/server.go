// Package server exposes the board session over HTTP: the grouped board
// read, the transition resolve/execute/cancel endpoints and the forced
// refresh, plus probes and metrics.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/leetrental/fleetboard/internal/board/core/service"
	"github.com/leetrental/fleetboard/internal/pkg/metrics"
	"github.com/leetrental/fleetboard/pkg/log"
	"github.com/leetrental/fleetboard/pkg/options"
)

type Server struct {
	opts    *options.HttpOptions
	session *service.Session
	log     log.Logger
	srv     *http.Server
}

func New(opts *options.HttpOptions, session *service.Session, logger log.Logger) *Server {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	s := &Server{
		opts:    opts,
		session: session,
		log:     logger.WithName("server"),
	}
	s.srv = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.Router(),
		ReadTimeout:  opts.Timeout,
		WriteTimeout: opts.Timeout,
	}
	return s
}

// Router builds the route table. Exposed separately so tests drive the
// handlers through httptest without binding a port.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.readyz).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/board", s.getBoard).Methods(http.MethodGet)
	api.HandleFunc("/board/refresh", s.postRefresh).Methods(http.MethodPost)
	api.HandleFunc("/vehicles/{id}/transition/resolve", s.postResolve).Methods(http.MethodPost)
	api.HandleFunc("/vehicles/{id}/transition", s.postTransition).Methods(http.MethodPost)
	api.HandleFunc("/vehicles/{id}/transition/cancel", s.postCancel).Methods(http.MethodPost)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen(s.opts.Network, s.opts.Addr)
	if err != nil {
		return err
	}
	s.log.Info("http server listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}
