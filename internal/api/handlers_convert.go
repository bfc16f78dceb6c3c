package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dgallion1/docvoice/internal/parser"
	"github.com/dgallion1/docvoice/internal/pipeline"
	"github.com/dgallion1/docvoice/internal/synth"
)

type segmentJSON struct {
	Index int    `json:"index"`
	Audio []byte `json:"audio"`
}

type convertResponse struct {
	RunID    string               `json:"run_id"`
	Outcome  pipeline.OutcomeKind `json:"outcome"`
	Backend  synth.ID             `json:"backend"`
	Count    int                  `json:"count"`
	Segments []segmentJSON        `json:"segments"`
	Fallback string               `json:"fallback_text,omitempty"`
}

var outcomeStatus = map[pipeline.OutcomeKind]int{
	pipeline.OutcomeDone:          http.StatusOK,
	pipeline.OutcomeEmptyText:     http.StatusUnprocessableEntity,
	pipeline.OutcomeQuotaExceeded: http.StatusTooManyRequests,
	pipeline.OutcomeFailed:        http.StatusBadGateway,
}

// handleConvert runs a synchronous conversion and returns the audio
// segments base64-encoded in the JSON body.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	// Extra 1MB for form overhead.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	userID := r.FormValue("user_id")
	if userID == "" {
		jsonError(w, "user_id is required", http.StatusBadRequest)
		return
	}

	var backend synth.ID
	if v := r.FormValue("backend"); v != "" {
		id, ok := synth.ParseID(v)
		if !ok {
			jsonError(w, fmt.Sprintf("unknown backend: %s", v), http.StatusBadRequest)
			return
		}
		backend = id
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupported(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}
	if header.Size > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	resp := convertResponse{Segments: []segmentJSON{}}
	out, err := s.orchestrator.Convert(r.Context(), pipeline.Request{
		UserID:   userID,
		Filename: filename,
		Body:     file,
		Backend:  backend,
	}, func(_ context.Context, out pipeline.Outcome) error {
		for _, seg := range out.Segments {
			data, err := os.ReadFile(seg.Path)
			if err != nil {
				return fmt.Errorf("read segment %d: %w", seg.Index, err)
			}
			resp.Segments = append(resp.Segments, segmentJSON{Index: seg.Index, Audio: data})
		}
		return nil
	})
	if err != nil {
		s.log.Error("convert failed", "run_id", out.RunID, "error", err)
		jsonError(w, "conversion failed", http.StatusInternalServerError)
		return
	}

	resp.RunID = out.RunID
	resp.Outcome = out.Kind
	resp.Backend = out.Backend
	resp.Count = out.Count
	resp.Fallback = out.Fallback
	writeJSON(w, outcomeStatus[out.Kind], resp)
}
