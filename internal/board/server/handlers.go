package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/leetrental/fleetboard/internal/board/core/model"
	"github.com/leetrental/fleetboard/internal/board/core/service"
	"github.com/leetrental/fleetboard/internal/lifecycle"
)

type resolveRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type resolveResponse struct {
	Action string                       `json:"action"`
	Fields []lifecycle.FieldRequirement `json:"fields"`
}

type transitionRequest struct {
	To      string            `json:"to"`
	Payload lifecycle.Payload `json:"payload,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`

	// Fields carries per-field validation details when the payload was
	// refused, so the dialog can highlight exactly what to fix.
	Fields *lifecycle.ValidationError `json:"fields,omitempty"`
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getBoard(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"columns": s.session.Board()})
}

func (s *Server) postRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Refresh(r.Context()); err != nil {
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"columns": s.session.Board()})
}

func (s *Server) postResolve(w http.ResponseWriter, r *http.Request) {
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	intent := model.Intent{
		VehicleID: mux.Vars(r)["id"],
		From:      lifecycle.VehicleState(req.From),
		To:        lifecycle.VehicleState(req.To),
	}
	fields, err := s.session.BeginTransition(r.Context(), intent)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, resolveResponse{
		Action: lifecycle.ActionName(intent.From, intent.To),
		Fields: fields,
	})
}

func (s *Server) postTransition(w http.ResponseWriter, r *http.Request) {
	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	outcome, err := s.session.CompleteTransition(r.Context(), mux.Vars(r)["id"], lifecycle.VehicleState(req.To), req.Payload)
	if err != nil {
		s.writeError(w, err)
		return
	}

	// Rejected is a definitive business answer, Failed means the true state
	// is unknown; the status codes keep the two apart for clients.
	switch outcome.Result {
	case model.ResultFailed:
		writeJSON(w, http.StatusBadGateway, outcome)
	default:
		writeJSON(w, http.StatusOK, outcome)
	}
}

func (s *Server) postCancel(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Cancel(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var verr *lifecycle.ValidationError

	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Error(), Fields: verr})
	case errors.Is(err, service.ErrVehicleUnknown):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, lifecycle.ErrInvalidState), errors.Is(err, lifecycle.ErrNotAllowed):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrAlreadyPending),
		errors.Is(err, service.ErrStale),
		errors.Is(err, service.ErrNotPending),
		errors.Is(err, service.ErrOutdatedIntent):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	default:
		s.log.Error(err, "request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
