package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/getmockd/mockstore/pkg/mockstore"
)

// Control surface routes.
const (
	HealthPath = "/healthz"
	StatePath  = "/__mockstore/state"
	ResetPath  = "/__mockstore/reset"
	RecordPath = "/__mockstore/records/{type}/{id}"
)

// ErrorResponse is the body of a failed control request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Hint    string `json:"hint,omitempty"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
	Uptime int    `json:"uptime"`
}

// StateResponse is the body of GET /__mockstore/state.
type StateResponse struct {
	Overview *mockstore.Overview       `json:"overview"`
	Metrics  mockstore.MetricsSnapshot `json:"metrics"`
	Keys     []string                  `json:"keys"`
}

// ResetResponse is the body of POST /__mockstore/reset.
type ResetResponse struct {
	Cleared int `json:"cleared"`
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle(s.gateway.Pattern(), s.gateway)
	mux.HandleFunc("GET "+HealthPath, s.handleHealth)
	mux.HandleFunc("GET "+StatePath, s.handleState)
	mux.HandleFunc("POST "+ResetPath, s.handleReset)
	mux.HandleFunc("GET "+RecordPath, s.handleGetRecord)
	mux.HandleFunc("DELETE "+RecordPath, s.handleDeleteRecord)
	return mux
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// writeStoreError maps store errors onto HTTP statuses.
func writeStoreError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: "internal", Message: err.Error()}
	status := http.StatusInternalServerError

	var coded mockstore.CodeError
	if errors.As(err, &coded) {
		resp.Error = coded.Code()
		switch coded.Code() {
		case mockstore.CodeUnknownType, mockstore.CodeNotFound:
			status = http.StatusNotFound
		case mockstore.CodeValidation, mockstore.CodeMissingField:
			status = http.StatusUnprocessableEntity
		}
	}
	var hinted mockstore.HintError
	if errors.As(err, &hinted) {
		resp.Hint = hinted.Hint()
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Uptime: int(time.Since(s.startedAt).Seconds()),
	})
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	keys := s.store.Keys()
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = k.String()
	}
	writeJSON(w, http.StatusOK, StateResponse{
		Overview: s.store.Overview(),
		Metrics:  s.metrics.Snapshot(),
		Keys:     names,
	})
}

func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request) {
	cleared := s.store.Len()
	s.store.Reset()
	s.logger.Info("store reset", "cleared", cleared)
	writeJSON(w, http.StatusOK, ResetResponse{Cleared: cleared})
}

// handleGetRecord returns a record, generating it on first access exactly
// like a resolver would.
func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.Get(r.PathValue("type"), r.PathValue("id"))
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.PathValue("type"), r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
