package worker_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docvoice/internal/pipeline"
	"github.com/dgallion1/docvoice/internal/synth"
	"github.com/dgallion1/docvoice/internal/worker"
)

const subject = "docvoice.convert.test"

type memStore struct {
	mu         sync.Mutex
	objects    map[string][]byte
	uploadFail bool
}

func newMemStore() *memStore {
	return &memStore{objects: make(map[string][]byte)}
}

func (m *memStore) Download(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

func (m *memStore) Upload(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.uploadFail {
		return errors.New("bucket full")
	}
	m.objects[key] = data
	return nil
}

// fakeConverter writes segments into a temp dir and hands them to deliver.
type fakeConverter struct {
	mu       sync.Mutex
	t        *testing.T
	outcome  pipeline.Outcome
	segments []string
	got      pipeline.Request
	body     string
}

func (f *fakeConverter) Convert(ctx context.Context, req pipeline.Request, deliver pipeline.Deliver) (pipeline.Outcome, error) {
	data, err := io.ReadAll(req.Body)
	if err != nil {
		return pipeline.Outcome{}, err
	}
	f.mu.Lock()
	f.got = req
	f.body = string(data)
	f.mu.Unlock()

	out := f.outcome
	out.RunID = req.RunID
	dir := f.t.TempDir()
	for i, content := range f.segments {
		p := filepath.Join(dir, filepath.Base(worker.SegmentKey("x", i+1)))
		if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
			return out, err
		}
		out.Segments = append(out.Segments, pipeline.AudioSegment{Index: i + 1, Path: p, Size: int64(len(content))})
	}
	out.Count = len(out.Segments)
	if err := deliver(ctx, out); err != nil {
		return out, err
	}
	return out, nil
}

func (f *fakeConverter) received() (pipeline.Request, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.got, f.body
}

func (m *memStore) get(key string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return string(m.objects[key])
}

func startWorker(t *testing.T, store worker.ObjectStore, conv worker.Converter) *nats.Conn {
	t.Helper()

	opts := test.DefaultTestOptions
	opts.Port = -1
	srv := test.RunServer(&opts)

	nc, err := nats.Connect(srv.ClientURL())
	require.NoError(t, err)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	w := worker.NewNatsWorker(nc, subject, "docvoice-workers", store, conv, log)

	require.NoError(t, w.Start())
	require.NoError(t, nc.Flush())

	t.Cleanup(func() {
		assert.NoError(t, w.Stop())
		nc.Close()
		srv.Shutdown()
	})
	return nc
}

func request(t *testing.T, nc *nats.Conn, req any) worker.ConvertReply {
	t.Helper()
	data, err := json.Marshal(req)
	require.NoError(t, err)

	msg, err := nc.Request(subject, data, 5*time.Second)
	require.NoError(t, err)

	var reply worker.ConvertReply
	require.NoError(t, json.Unmarshal(msg.Data, &reply))
	return reply
}

func TestWorker_ConvertUploadsSegments(t *testing.T) {
	store := newMemStore()
	store.objects["uploads/report.pdf"] = []byte("%PDF-fake")
	conv := &fakeConverter{
		t:        t,
		outcome:  pipeline.Outcome{Kind: pipeline.OutcomeDone, Backend: synth.IDDirect},
		segments: []string{"one", "two"},
	}
	nc := startWorker(t, store, conv)

	reply := request(t, nc, worker.ConvertRequest{
		RunID:       "run-7",
		UserID:      "u1",
		DocumentKey: "uploads/report.pdf",
		Backend:     "gtts",
	})

	assert.Empty(t, reply.Error)
	assert.Equal(t, "run-7", reply.RunID)
	assert.Equal(t, pipeline.OutcomeDone, reply.Outcome)
	assert.Equal(t, 2, reply.Count)
	assert.Equal(t, []string{"run-7/part_001.mp3", "run-7/part_002.mp3"}, reply.AudioKeys)
	assert.Equal(t, "one", store.get("run-7/part_001.mp3"))
	assert.Equal(t, "two", store.get("run-7/part_002.mp3"))

	got, body := conv.received()
	assert.Equal(t, "report.pdf", got.Filename)
	assert.Equal(t, synth.IDDirect, got.Backend)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "%PDF-fake", body)
}

func TestWorker_QuotaReplyCarriesFallback(t *testing.T) {
	store := newMemStore()
	store.objects["doc.txt"] = []byte("text")
	conv := &fakeConverter{
		t: t,
		outcome: pipeline.Outcome{
			Kind:     pipeline.OutcomeQuotaExceeded,
			Backend:  synth.IDEnhanced,
			Fallback: "text",
		},
	}
	nc := startWorker(t, store, conv)

	reply := request(t, nc, worker.ConvertRequest{UserID: "u", DocumentKey: "doc.txt"})
	assert.Empty(t, reply.Error)
	assert.NotEmpty(t, reply.RunID)
	assert.Equal(t, pipeline.OutcomeQuotaExceeded, reply.Outcome)
	assert.Equal(t, "text", reply.FallbackText)
	assert.Empty(t, reply.AudioKeys)
}

func TestWorker_Errors(t *testing.T) {
	store := newMemStore()
	store.objects["doc.txt"] = []byte("text")
	conv := &fakeConverter{t: t, outcome: pipeline.Outcome{Kind: pipeline.OutcomeDone}}
	nc := startWorker(t, store, conv)

	reply := request(t, nc, worker.ConvertRequest{UserID: "u"})
	assert.Contains(t, reply.Error, "document_key")

	reply = request(t, nc, worker.ConvertRequest{UserID: "u", DocumentKey: "missing.txt"})
	assert.Contains(t, reply.Error, "download")

	reply = request(t, nc, worker.ConvertRequest{UserID: "u", DocumentKey: "doc.txt", Backend: "polly"})
	assert.Contains(t, reply.Error, "unknown backend")

	msg, err := nc.Request(subject, []byte("{not json"), 5*time.Second)
	require.NoError(t, err)
	assert.Contains(t, string(msg.Data), "unmarshal")
}

func TestWorker_UploadFailureReported(t *testing.T) {
	store := newMemStore()
	store.objects["doc.txt"] = []byte("text")
	store.uploadFail = true
	conv := &fakeConverter{
		t:        t,
		outcome:  pipeline.Outcome{Kind: pipeline.OutcomeDone, Backend: synth.IDDirect},
		segments: []string{"one"},
	}
	nc := startWorker(t, store, conv)

	reply := request(t, nc, worker.ConvertRequest{UserID: "u", DocumentKey: "doc.txt"})
	assert.Contains(t, reply.Error, "bucket full")
	assert.Equal(t, pipeline.OutcomeDone, reply.Outcome)
}

func TestSegmentKey(t *testing.T) {
	assert.Equal(t, "abc/part_012.mp3", worker.SegmentKey("abc", 12))
}
