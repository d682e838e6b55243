// Package server is the thin HTTP shell around the query-resolution
// core: it accepts a prompt, hands back a chart spec and the
// underlying aggregated table, and maps the core's tagged errors to
// HTTP responses. All rendering happens client-side.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/SortieWorks/sortiechart-cli/internal/engine"
	"github.com/SortieWorks/sortiechart-cli/internal/query"
)

// Server exposes a session over HTTP.
type Server struct {
	session *engine.Session
	router  *chi.Mux
}

// New builds a server around an existing session. The session's
// datasets and schemas are read-only, so concurrent requests need no
// locking.
func New(session *engine.Session) *Server {
	s := &Server{session: session}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", s.handleHealth)
	r.Get("/v1/datasets", s.handleListDatasets)
	r.Post("/v1/chart", s.handleChart)

	s.router = r
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler { return s.router }

type chartRequest struct {
	Prompt  string `json:"prompt"`
	Dataset string `json:"dataset,omitempty"`
}

type errorResponse struct {
	Kind        string   `json:"kind"`
	Error       string   `json:"error"`
	Column      string   `json:"column,omitempty"`
	Token       string   `json:"token,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListDatasets(w http.ResponseWriter, _ *http.Request) {
	type datasetInfo struct {
		Name    string `json:"name"`
		Columns int    `json:"columns"`
	}
	var out []datasetInfo
	for _, name := range s.session.Datasets() {
		sch, _ := s.session.Schema(name)
		out = append(out, datasetInfo{Name: name, Columns: len(sch.Columns)})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	var req chartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Kind: "bad_request", Error: "invalid JSON body"})
		return
	}
	if req.Prompt == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Kind: "bad_request", Error: "prompt is required"})
		return
	}

	var (
		out *engine.Outcome
		err error
	)
	if req.Dataset != "" {
		out, err = s.session.ResolveIn(r.Context(), req.Prompt, req.Dataset)
	} else {
		out, err = s.session.Resolve(r.Context(), req.Prompt)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// writeError maps the core's tagged errors onto HTTP statuses: parse
// and validation failures are client errors the user can rephrase
// around; an empty result is reported as not found rather than an
// empty chart.
func writeError(w http.ResponseWriter, err error) {
	var parseErr *query.ParseError
	if errors.As(err, &parseErr) {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Kind:  "parse_failure",
			Error: parseErr.Error(),
		})
		return
	}
	var valErr *query.ValidateError
	if errors.As(err, &valErr) {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Kind:        "validation_error",
			Error:       valErr.Error(),
			Column:      valErr.Column,
			Token:       valErr.Token,
			Suggestions: valErr.Suggestions,
		})
		return
	}
	var execErr *query.ExecError
	if errors.As(err, &execErr) {
		writeJSON(w, http.StatusNotFound, errorResponse{
			Kind:  execErr.Kind,
			Error: execErr.Error(),
		})
		return
	}
	writeJSON(w, http.StatusInternalServerError, errorResponse{Kind: "internal", Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
