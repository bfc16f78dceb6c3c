package pipeline

import (
	"sync"
	"time"

	"github.com/dgallion1/docvoice/internal/synth"
)

// Status is the state of a conversion run.
type Status string

const (
	StatusIdle          Status = "idle"
	StatusExtracting    Status = "extracting"
	StatusChunking      Status = "chunking"
	StatusSynthesizing  Status = "synthesizing"
	StatusEmptyText     Status = "empty_text"
	StatusDone          Status = "done"
	StatusQuotaExceeded Status = "quota_exceeded"
	StatusFailed        Status = "failed"
)

// Terminal reports whether no further transitions can happen.
func (s Status) Terminal() bool {
	switch s {
	case StatusEmptyText, StatusDone, StatusQuotaExceeded, StatusFailed:
		return true
	}
	return false
}

// Run tracks the state of a single conversion.
type Run struct {
	mu sync.Mutex

	ID       string
	UserID   string
	Filename string
	Backend  synth.ID

	Status   Status
	Progress Progress

	CreatedAt time.Time
	UpdatedAt time.Time

	errors []string
}

// Progress tracks chunk synthesis progress.
type Progress struct {
	TotalChunks int      `json:"total_chunks"`
	ChunksDone  int      `json:"chunks_done"`
	Errors      []string `json:"errors"`
}

func newRun(id, userID, filename string, backend synth.ID) *Run {
	now := time.Now()
	return &Run{
		ID:        id,
		UserID:    userID,
		Filename:  filename,
		Backend:   backend,
		Status:    StatusIdle,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// RunStore is a thread-safe in-memory run registry with TTL eviction.
type RunStore struct {
	mu   sync.Mutex
	runs map[string]*Run
	ttl  time.Duration
}

func NewRunStore(ttl time.Duration) *RunStore {
	return &RunStore{
		runs: make(map[string]*Run),
		ttl:  ttl,
	}
}

func (s *RunStore) Put(run *Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
}

func (s *RunStore) Get(id string) *Run {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs[id]
}

// Len returns the number of tracked runs.
func (s *RunStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.runs)
}

// Cleanup removes finished runs not updated within the TTL. Runs still in
// progress are kept regardless of age.
func (s *RunStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, run := range s.runs {
		run.mu.Lock()
		expired := run.Status.Terminal() && now.Sub(run.UpdatedAt) > s.ttl
		run.mu.Unlock()
		if expired {
			delete(s.runs, id)
		}
	}
}

// SetStatus updates run status atomically.
func (r *Run) SetStatus(status Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Status = status
	r.UpdatedAt = time.Now()
}

// AddError records an error.
func (r *Run) AddError(err string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, err)
	r.Progress.Errors = r.errors
	r.UpdatedAt = time.Now()
}

// SetTotalChunks records total chunk count.
func (r *Run) SetTotalChunks(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Progress.TotalChunks = n
	r.UpdatedAt = time.Now()
}

// IncrChunksDone atomically increments synthesized chunks.
func (r *Run) IncrChunksDone() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Progress.ChunksDone++
	r.UpdatedAt = time.Now()
}

// RunSnapshot is a read-only, JSON-safe copy of run state.
type RunSnapshot struct {
	ID        string    `json:"run_id"`
	UserID    string    `json:"user_id"`
	Filename  string    `json:"filename"`
	Backend   synth.ID  `json:"backend"`
	Status    Status    `json:"status"`
	Progress  Progress  `json:"progress"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the run state.
func (r *Run) Snapshot() RunSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	errs := append([]string{}, r.Progress.Errors...)
	return RunSnapshot{
		ID:       r.ID,
		UserID:   r.UserID,
		Filename: r.Filename,
		Backend:  r.Backend,
		Status:   r.Status,
		Progress: Progress{
			TotalChunks: r.Progress.TotalChunks,
			ChunksDone:  r.Progress.ChunksDone,
			Errors:      errs,
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
