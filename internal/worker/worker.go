// Package worker serves document conversions over NATS request/reply.
// Documents and audio travel through an object store; messages carry keys.
package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/dgallion1/docvoice/internal/pipeline"
	"github.com/dgallion1/docvoice/internal/synth"
)

const handleMessageTimeout = 10 * time.Minute

var (
	// ErrDocumentKeyEmpty indicates a request without a document key.
	ErrDocumentKeyEmpty = errors.New("document_key cannot be empty")
	// ErrUnknownBackend indicates a request naming a backend that does not exist.
	ErrUnknownBackend = errors.New("unknown backend")
)

// ObjectStore moves artifacts between processes.
type ObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte) error
}

// Converter runs one conversion.
type Converter interface {
	Convert(ctx context.Context, req pipeline.Request, deliver pipeline.Deliver) (pipeline.Outcome, error)
}

// ConvertRequest is the JSON request body.
type ConvertRequest struct {
	RunID       string `json:"run_id,omitempty"`
	UserID      string `json:"user_id"`
	DocumentKey string `json:"document_key"`
	Filename    string `json:"filename"`
	Backend     string `json:"backend,omitempty"`
}

// ConvertReply is the JSON reply body.
type ConvertReply struct {
	RunID        string               `json:"run_id"`
	Outcome      pipeline.OutcomeKind `json:"outcome,omitempty"`
	Backend      synth.ID             `json:"backend,omitempty"`
	Count        int                  `json:"count"`
	AudioKeys    []string             `json:"audio_keys"`
	FallbackText string               `json:"fallback_text,omitempty"`
	Error        string               `json:"error,omitempty"`
}

// NatsWorker listens for conversion requests on a NATS subject.
type NatsWorker struct {
	natsConnection *nats.Conn
	subject        string
	queue          string
	store          ObjectStore
	converter      Converter
	log            *slog.Logger

	sub *nats.Subscription
}

// NewNatsWorker creates a worker. Workers sharing queue split the load.
func NewNatsWorker(nc *nats.Conn, subject, queue string, store ObjectStore, converter Converter, log *slog.Logger) *NatsWorker {
	return &NatsWorker{
		natsConnection: nc,
		subject:        subject,
		queue:          queue,
		store:          store,
		converter:      converter,
		log:            log,
	}
}

// Start subscribes to the request subject.
func (w *NatsWorker) Start() error {
	sub, err := w.natsConnection.QueueSubscribe(w.subject, w.queue, w.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", w.subject, err)
	}
	w.sub = sub
	w.log.Info("nats worker listening", "subject", w.subject, "queue", w.queue)
	return nil
}

// Stop drains the subscription, letting in-flight requests finish.
func (w *NatsWorker) Stop() error {
	if w.sub == nil {
		return nil
	}
	if err := w.sub.Drain(); err != nil {
		return fmt.Errorf("failed to drain subscription: %w", err)
	}
	return nil
}

// Run subscribes and blocks until ctx is done, then drains.
func (w *NatsWorker) Run(ctx context.Context) error {
	if err := w.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	return w.Stop()
}

func (w *NatsWorker) handleMessage(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), handleMessageTimeout)
	defer cancel()

	reply := w.process(ctx, msg.Data)
	if reply.Error != "" {
		w.log.Error("conversion request failed", "run_id", reply.RunID, "error", reply.Error)
	}

	if err := w.respond(msg, reply); err != nil {
		w.log.Error("failed to publish reply", "run_id", reply.RunID, "error", err)
	}
}

func (w *NatsWorker) process(ctx context.Context, data []byte) ConvertReply {
	var req ConvertRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return ConvertReply{AudioKeys: []string{}, Error: fmt.Sprintf("failed to unmarshal request: %s", err)}
	}
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}
	reply := ConvertReply{RunID: req.RunID, AudioKeys: []string{}}

	if req.DocumentKey == "" {
		reply.Error = ErrDocumentKeyEmpty.Error()
		return reply
	}
	var backend synth.ID
	if req.Backend != "" {
		id, ok := synth.ParseID(req.Backend)
		if !ok {
			reply.Error = fmt.Sprintf("%s: %q", ErrUnknownBackend, req.Backend)
			return reply
		}
		backend = id
	}
	filename := req.Filename
	if filename == "" {
		filename = path.Base(req.DocumentKey)
	}

	doc, err := w.store.Download(ctx, req.DocumentKey)
	if err != nil {
		reply.Error = fmt.Sprintf("failed to download document: %s", err)
		return reply
	}

	out, err := w.converter.Convert(ctx, pipeline.Request{
		RunID:    req.RunID,
		UserID:   req.UserID,
		Filename: filename,
		Body:     bytes.NewReader(doc),
		Backend:  backend,
	}, func(ctx context.Context, out pipeline.Outcome) error {
		for _, seg := range out.Segments {
			audio, err := os.ReadFile(seg.Path)
			if err != nil {
				return fmt.Errorf("read segment %d: %w", seg.Index, err)
			}
			key := SegmentKey(req.RunID, seg.Index)
			if err := w.store.Upload(ctx, key, audio); err != nil {
				return fmt.Errorf("upload segment %d: %w", seg.Index, err)
			}
			reply.AudioKeys = append(reply.AudioKeys, key)
		}
		return nil
	})
	reply.Outcome = out.Kind
	reply.Backend = out.Backend
	reply.Count = out.Count
	reply.FallbackText = out.Fallback
	if err != nil {
		reply.Error = err.Error()
	}
	return reply
}

func (w *NatsWorker) respond(msg *nats.Msg, reply ConvertReply) error {
	data, err := json.Marshal(reply)
	if err != nil {
		return fmt.Errorf("failed to marshal reply: %w", err)
	}
	if msg.Reply == "" {
		return nil
	}
	if err := msg.Respond(data); err != nil {
		return fmt.Errorf("failed to respond: %w", err)
	}
	return nil
}

// SegmentKey is the object key for the index-th audio segment of a run.
func SegmentKey(runID string, index int) string {
	return fmt.Sprintf("%s/part_%03d.mp3", runID, index)
}
