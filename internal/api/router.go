package api

import (
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/ready", s.handleReady)
		r.Get("/session", s.handleSession)

		r.Route("/entities", func(r chi.Router) {
			r.Get("/", s.handleListEntities)
			r.Get("/{id}", s.handleGetEntity)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}

// handleReady reports snapshot readiness for the current hub.
// Not-ready responds 503 so load balancers and probes can gate on it.
func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	ready := s.session.Ready()

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}

	body := map[string]any{
		"ready": ready,
		"state": s.session.State(),
	}
	if err := s.session.Err(); err != nil {
		body["error"] = err.Error()
	}

	writeJSON(w, status, body)
}

// sessionResponse is the JSON shape for the session summary endpoint.
type sessionResponse struct {
	State       string     `json:"state"`
	Host        string     `json:"host,omitempty"`
	Ready       bool       `json:"ready"`
	LastUpdated *time.Time `json:"last_updated,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// handleSession returns the session's full diagnostic summary.
func (s *Server) handleSession(w http.ResponseWriter, _ *http.Request) {
	resp := sessionResponse{
		State: string(s.session.State()),
		Host:  s.session.Host(),
		Ready: s.session.Ready(),
	}
	if t := s.session.LastUpdated(); !t.IsZero() {
		resp.LastUpdated = &t
	}
	if err := s.session.Err(); err != nil {
		resp.Error = err.Error()
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleListEntities returns the current entity snapshot, sorted by ID.
func (s *Server) handleListEntities(w http.ResponseWriter, _ *http.Request) {
	snapshot := s.session.AllEntities()

	ids := make([]string, 0, len(snapshot))
	for id := range snapshot {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	entities := make([]any, 0, len(ids))
	for _, id := range ids {
		entities = append(entities, snapshot[id])
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":    len(entities),
		"entities": entities,
	})
}

// handleGetEntity returns a single entity from the current snapshot.
func (s *Server) handleGetEntity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ent, err := s.session.GetEntity(id)
	if err != nil {
		writeNotFound(w, "entity not found: "+id)
		return
	}

	writeJSON(w, http.StatusOK, ent)
}
