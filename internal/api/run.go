package api

import (
	"net/http"
)

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.run)
}

func (s *Server) handleListBlueprints(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.registry.List())
}

// handleExpireRun tears the run down: admission stops and every unit ever
// created is force-expired. The call is synchronous and best-effort.
func (s *Server) handleExpireRun(w http.ResponseWriter, r *http.Request) {
	s.launcher.ExpireAll(r.Context())
	s.writeJSON(w, http.StatusOK, s.launcher.Stats())
}
