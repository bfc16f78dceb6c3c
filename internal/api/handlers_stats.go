package api

import (
	"net/http"
)

func (s *Server) handleSynthesisStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"backends": s.orchestrator.Backends().IDs(),
		"stats":    s.orchestrator.Stats().Snapshot(),
	})
}
