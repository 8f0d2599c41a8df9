package api

import (
	"net/http"

	"github.com/seantiz/hivegrid/internal/launcher"
)

// statsResponse is the JSON response for GET /v1/stats.
type statsResponse struct {
	Assignments   int            `json:"assignments"`
	Units         int            `json:"units"`
	UnitsByStatus map[string]int `json:"units_by_status"`
	Launcher      launcher.Stats `json:"launcher"`
}

func (s *Server) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.GetRunStats(r.Context(), s.run.ID)
	if err != nil {
		s.logger.Error("get run stats", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}

	s.writeJSON(w, http.StatusOK, statsResponse{
		Assignments:   stats.Assignments,
		Units:         stats.Units,
		UnitsByStatus: stats.UnitsByStatus,
		Launcher:      s.launcher.Stats(),
	})
}
