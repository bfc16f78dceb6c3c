package pipeline

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/dgallion1/docvoice/internal/config"
	"github.com/dgallion1/docvoice/internal/synth"
)

// PreferenceSource resolves a user's chosen backend.
type PreferenceSource interface {
	Get(userID string) synth.ID
}

// Orchestrator runs document conversions and tracks them for status queries.
type Orchestrator struct {
	runs     *RunStore
	backends *synth.Registry
	prefs    PreferenceSource
	stats    *synth.LatencyStats
	log      *slog.Logger
	workDir  string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewOrchestrator(cfg config.Config, backends *synth.Registry, prefs PreferenceSource, stats *synth.LatencyStats, log *slog.Logger) *Orchestrator {
	workDir := cfg.WorkDir
	if workDir == "" {
		workDir = os.TempDir()
	}
	if stats == nil {
		stats = synth.NewLatencyStats(time.Hour)
	}
	return &Orchestrator{
		runs:     NewRunStore(cfg.RunTTL),
		backends: backends,
		prefs:    prefs,
		stats:    stats,
		log:      log,
		workDir:  workDir,
	}
}

// Start launches the run registry cleanup loop.
func (o *Orchestrator) Start(ctx context.Context) {
	loopCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-loopCtx.Done():
				return
			case <-ticker.C:
				o.runs.Cleanup()
			}
		}
	}()
}

// Stop ends the cleanup loop. Conversions in flight finish on their own
// contexts.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	o.wg.Wait()
}

// GetRun returns a run by ID, or nil.
func (o *Orchestrator) GetRun(id string) *Run {
	return o.runs.Get(id)
}

// Stats returns the per-backend latency tracker.
func (o *Orchestrator) Stats() *synth.LatencyStats {
	return o.stats
}

// Backends returns the backend registry.
func (o *Orchestrator) Backends() *synth.Registry {
	return o.backends
}
