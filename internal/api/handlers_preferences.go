package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/docvoice/internal/synth"
)

type preferenceJSON struct {
	UserID  string   `json:"user_id"`
	Backend synth.ID `json:"backend"`
}

func (s *Server) handleGetPreference(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	writeJSON(w, http.StatusOK, preferenceJSON{UserID: userID, Backend: s.prefs.Get(userID)})
}

func (s *Server) handleSetPreference(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var body struct {
		Backend string `json:"backend"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&body); err != nil {
		jsonError(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if err := s.prefs.Set(userID, synth.ID(body.Backend)); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.log.Info("preference updated", "user_id", userID, "backend", s.prefs.Get(userID))
	writeJSON(w, http.StatusOK, preferenceJSON{UserID: userID, Backend: s.prefs.Get(userID)})
}
