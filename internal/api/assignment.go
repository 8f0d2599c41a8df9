package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/seantiz/hivegrid/internal/model"
	"github.com/seantiz/hivegrid/internal/store"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// listAssignmentsResponse wraps the assignment list response.
type listAssignmentsResponse struct {
	Assignments []*model.Assignment `json:"assignments"`
	Total       int                 `json:"total"`
}

func (s *Server) handleListAssignments(w http.ResponseWriter, r *http.Request) {
	assignments, err := s.store.ListAssignments(r.Context(), s.run.ID)
	if err != nil {
		s.logger.Error("list assignments", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list assignments")
		return
	}

	if assignments == nil {
		assignments = []*model.Assignment{}
	}

	s.writeJSON(w, http.StatusOK, listAssignmentsResponse{
		Assignments: assignments,
		Total:       len(assignments),
	})
}

func (s *Server) handleGetAssignment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	a, err := s.store.GetAssignment(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "assignment not found")
		return
	}
	if err != nil {
		s.logger.Error("get assignment", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get assignment")
		return
	}

	s.writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleListAssignmentUnits(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := s.store.GetAssignment(r.Context(), id); errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "assignment not found")
		return
	}

	units, err := s.store.ListUnitsForAssignment(r.Context(), id)
	if err != nil {
		s.logger.Error("list assignment units", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list units")
		return
	}

	if units == nil {
		units = []*model.Unit{}
	}

	s.writeJSON(w, http.StatusOK, units)
}

func (s *Server) handleGetUnit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	u, err := s.store.GetUnit(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "unit not found")
		return
	}
	if err != nil {
		s.logger.Error("get unit", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get unit")
		return
	}

	s.writeJSON(w, http.StatusOK, u)
}

// handleListEligibleUnits lists launched units the given worker may take,
// after the blueprint's worker filter.
func (s *Server) handleListEligibleUnits(w http.ResponseWriter, r *http.Request) {
	workerID := r.URL.Query().Get("worker_id")
	if workerID == "" {
		s.writeError(w, http.StatusBadRequest, "worker_id is required")
		return
	}

	limit := parseIntQuery(r, "limit", defaultListLimit)
	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}

	worker, err := s.store.GetWorker(r.Context(), workerID)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, http.StatusNotFound, "worker not found")
		return
	}
	if err != nil {
		s.logger.Error("get worker", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get worker")
		return
	}

	assignments, err := s.store.ListAssignments(r.Context(), s.run.ID)
	if err != nil {
		s.logger.Error("list assignments", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list units")
		return
	}

	open := []*model.Unit{}
	for _, a := range assignments {
		units, err := s.store.ListUnitsForAssignment(r.Context(), a.ID)
		if err != nil {
			s.logger.Error("list assignment units", "error", err)
			s.writeError(w, http.StatusInternalServerError, "failed to list units")
			return
		}
		for _, u := range units {
			if u.Status == model.UnitStatusLaunched && u.AgentID == nil {
				open = append(open, u)
			}
		}
	}

	eligible := s.blueprint.FilterUnitsForWorker(open, worker)
	if len(eligible) > limit {
		eligible = eligible[:limit]
	}
	s.writeJSON(w, http.StatusOK, eligible)
}

// writeJSON writes a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return n
}
