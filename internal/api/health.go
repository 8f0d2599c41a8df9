package api

import "net/http"

type healthResponse struct {
	Status    string `json:"status"`
	TaskRunID string `json:"task_run_id"`
	Launching bool   `json:"launching"`
}

// handleHealthz reports liveness plus a readiness check against the store:
// if the run's own record cannot be read back, something is wrong with the
// database and the process should be restarted.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.GetTaskRun(r.Context(), s.run.ID); err != nil {
		s.logger.Error("health check failed", "task_run_id", s.run.ID, "error", err)
		s.writeJSON(w, http.StatusServiceUnavailable, healthResponse{
			Status:    "degraded",
			TaskRunID: s.run.ID,
		})
		return
	}

	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		TaskRunID: s.run.ID,
		Launching: s.launcher.Stats().Launching,
	})
}
