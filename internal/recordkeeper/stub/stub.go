// Package stub serves the record keeper wire protocol over an in-memory
// store. It exists for local development and demos: a gateway pointed at the
// stub behaves exactly as against the real back office, minus persistence.
package stub

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/leetrental/fleetboard/internal/recordkeeper/memory"
	"github.com/leetrental/fleetboard/pkg/log"
	"github.com/leetrental/fleetboard/pkg/options"
)

type Server struct {
	opts  *options.HttpOptions
	store *memory.Store
	log   log.Logger
	srv   *http.Server
}

func New(opts *options.HttpOptions, store *memory.Store, logger log.Logger) *Server {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	s := &Server{
		opts:  opts,
		store: store,
		log:   logger.WithName("stub"),
	}
	s.srv = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.Router(),
		ReadTimeout:  opts.Timeout,
		WriteTimeout: opts.Timeout,
	}
	return s
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/vehicles", s.listVehicles).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/vehicles/{id}/transitions", s.attemptTransition).Methods(http.MethodPost)
	return r
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen(s.opts.Network, s.opts.Addr)
	if err != nil {
		return err
	}
	s.log.Info("stub record keeper listening", "addr", ln.Addr().String())

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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listVehicles(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.ListVehicles(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, records)
}

type attemptRequest struct {
	From    string         `json:"from"`
	To      string         `json:"to"`
	Payload map[string]any `json:"payload,omitempty"`
}

func (s *Server) attemptTransition(w http.ResponseWriter, r *http.Request) {
	var req attemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
		return
	}

	vehicleID := mux.Vars(r)["id"]
	reply, err := s.store.AttemptTransition(r.Context(), vehicleID, req.From, req.To, req.Payload)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	status := http.StatusOK
	if !reply.Success {
		// Business refusals travel on 409 so intermediaries never mistake
		// them for applied transitions.
		status = http.StatusConflict
	}
	s.log.Info("transition attempt", "vehicle", vehicleID, "from", req.From, "to", req.To, "success", reply.Success)
	writeJSON(w, status, reply)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
