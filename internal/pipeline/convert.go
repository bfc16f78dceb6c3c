package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/docvoice/internal/chunker"
	"github.com/dgallion1/docvoice/internal/parser"
	"github.com/dgallion1/docvoice/internal/synth"
)

// ErrUnknownBackend is recorded on runs that name a backend nobody registered.
var ErrUnknownBackend = errors.New("unknown backend")

// Request describes one document to convert.
type Request struct {
	RunID    string // generated when empty
	UserID   string
	Filename string
	Body     io.Reader
	// Backend overrides the user's stored preference when set.
	Backend synth.ID
}

// Deliver receives the terminal outcome while segment files still exist.
type Deliver func(ctx context.Context, out Outcome) error

// Convert runs one document through extraction, chunking and synthesis.
//
// The document is spooled into a fresh workspace that is removed before
// Convert returns, on every path. Deliver, if non-nil, is called exactly
// once with the terminal outcome before that removal. The returned error
// is reserved for infrastructure problems and deliver failures; conversion
// results are reported through the Outcome.
func (o *Orchestrator) Convert(ctx context.Context, req Request, deliver Deliver) (Outcome, error) {
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}
	backendID := req.Backend
	if backendID == "" {
		backendID = o.prefs.Get(req.UserID)
	}

	run := newRun(req.RunID, req.UserID, req.Filename, backendID)
	o.runs.Put(run)
	log := o.log.With("run_id", run.ID, "user_id", req.UserID, "backend", string(backendID))

	recordRunStart()
	out := Outcome{RunID: run.ID, Kind: OutcomeFailed, Backend: backendID}
	defer func() {
		recordRunEnd(string(out.Backend), string(out.Kind))
	}()

	workspace, err := os.MkdirTemp(o.workDir, "docvoice-run-*")
	if err != nil {
		run.AddError(err.Error())
		run.SetStatus(StatusFailed)
		return out, fmt.Errorf("create workspace: %w", err)
	}
	defer os.RemoveAll(workspace)

	docPath := filepath.Join(workspace, "document"+strings.ToLower(filepath.Ext(req.Filename)))
	if err := spool(docPath, req.Body); err != nil {
		run.AddError(err.Error())
		run.SetStatus(StatusFailed)
		return out, err
	}

	out = o.process(ctx, run, workspace, docPath, log)
	run.SetStatus(out.status())
	if out.Err != nil {
		run.AddError(out.Err.Error())
	}
	log.Info("conversion finished", "outcome", out.Kind, "segments", out.Count)

	if deliver != nil {
		if err := deliver(ctx, out); err != nil {
			return out, fmt.Errorf("deliver: %w", err)
		}
	}
	return out, nil
}

func (o *Orchestrator) process(ctx context.Context, run *Run, workspace, docPath string, log *slog.Logger) Outcome {
	out := Outcome{RunID: run.ID, Backend: run.Backend}

	backend, ok := o.backends.Get(run.Backend)
	if !ok {
		os.Remove(docPath)
		log.Error("unknown backend")
		out.Kind = OutcomeFailed
		out.Err = fmt.Errorf("%w: %q", ErrUnknownBackend, run.Backend)
		return out
	}

	// Phase 1: Extract
	run.SetStatus(StatusExtracting)
	text, err := parser.Extract(docPath)
	if rmErr := os.Remove(docPath); rmErr != nil {
		log.Warn("remove document", "error", rmErr)
	}
	if err != nil {
		log.Warn("extraction failed", "error", err)
	}
	if err != nil || strings.TrimSpace(text) == "" {
		out.Kind = OutcomeEmptyText
		out.Err = err
		return out
	}

	// Phase 2: Chunk
	run.SetStatus(StatusChunking)
	chunks := chunker.Split(text, backend.MaxChunkLength())
	run.SetTotalChunks(len(chunks))
	log.Info("chunked document", "chars", len([]rune(text)), "chunks", len(chunks))

	// Phase 3: Synthesize, strictly in order; the first non-OK result ends the run.
	run.SetStatus(StatusSynthesizing)
	var segments []AudioSegment
	for i, chunk := range chunks {
		start := time.Now()
		res := backend.Synthesize(ctx, chunk)
		elapsed := time.Since(start)
		o.stats.Record(backend.ID(), res.Kind, elapsed)
		recordChunk(string(backend.ID()), string(res.Kind), elapsed.Seconds())

		switch res.Kind {
		case synth.KindQuota:
			log.Warn("backend quota exceeded", "chunk", i+1, "error", res.Err)
			out.Kind = OutcomeQuotaExceeded
			out.Fallback = FallbackText(text)
			out.Err = res.Err
			return out
		case synth.KindFailed:
			log.Error("chunk synthesis failed", "chunk", i+1, "error", res.Err)
			out.Kind = OutcomeFailed
			out.Err = res.Err
			return out
		}

		seg, err := writeSegment(workspace, len(segments)+1, res.Audio)
		if err != nil {
			log.Error("write segment", "chunk", i+1, "error", err)
			out.Kind = OutcomeFailed
			out.Err = err
			return out
		}
		segments = append(segments, seg)
		run.IncrChunksDone()
	}

	out.Kind = OutcomeDone
	out.Segments = segments
	out.Count = len(segments)
	return out
}

func spool(path string, body io.Reader) error {
	if body == nil {
		return fmt.Errorf("spool document: no body")
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("spool document: %w", err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		return fmt.Errorf("spool document: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("spool document: %w", err)
	}
	return nil
}

func writeSegment(workspace string, index int, audio []byte) (AudioSegment, error) {
	path := filepath.Join(workspace, fmt.Sprintf("part_%03d.mp3", index))
	if err := os.WriteFile(path, audio, 0o600); err != nil {
		return AudioSegment{}, fmt.Errorf("write segment %d: %w", index, err)
	}
	return AudioSegment{Index: index, Path: path, Size: int64(len(audio))}, nil
}
