package synth

import (
	"sort"
	"sync"
	"time"
)

type sample struct {
	timestamp  time.Time
	durationMs int64
}

// StatsSnapshot aggregates chunk synthesis latencies for one backend.
type StatsSnapshot struct {
	Count    int     `json:"count"`
	Failures int     `json:"failures"`
	MinMs    int64   `json:"min_ms"`
	MaxMs    int64   `json:"max_ms"`
	AvgMs    float64 `json:"avg_ms"`
	P50Ms    float64 `json:"p50_ms"`
	P95Ms    float64 `json:"p95_ms"`
	P99Ms    float64 `json:"p99_ms"`
}

// LatencyStats tracks recent per-backend chunk latencies within a rolling
// window. Only successful chunks feed the percentiles.
type LatencyStats struct {
	mu       sync.Mutex
	samples  map[ID][]sample
	failures map[ID][]time.Time
	maxAge   time.Duration
}

func NewLatencyStats(maxAge time.Duration) *LatencyStats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &LatencyStats{
		samples:  make(map[ID][]sample),
		failures: make(map[ID][]time.Time),
		maxAge:   maxAge,
	}
}

// Record adds one chunk result for backend id.
func (s *LatencyStats) Record(id ID, kind Kind, d time.Duration) {
	durationMs := d.Milliseconds()
	if durationMs < 0 {
		durationMs = 0
	}
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	if kind != KindOK {
		s.failures[id] = append(s.failures[id], now)
		return
	}
	s.samples[id] = append(s.samples[id], sample{
		timestamp:  now,
		durationMs: durationMs,
	})
}

// Snapshot returns aggregates for every backend seen in the window.
func (s *LatencyStats) Snapshot() map[ID]StatsSnapshot {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	out := make(map[ID]StatsSnapshot, len(s.samples))
	for id, samples := range s.samples {
		snap := summarize(samples)
		snap.Failures = len(s.failures[id])
		out[id] = snap
	}
	for id, fails := range s.failures {
		if _, ok := out[id]; !ok {
			out[id] = StatsSnapshot{Failures: len(fails)}
		}
	}
	return out
}

func summarize(samples []sample) StatsSnapshot {
	if len(samples) == 0 {
		return StatsSnapshot{}
	}

	values := make([]int64, 0, len(samples))
	var sum int64
	for _, sm := range samples {
		values = append(values, sm.durationMs)
		sum += sm.durationMs
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	return StatsSnapshot{
		Count: len(values),
		MinMs: values[0],
		MaxMs: values[len(values)-1],
		AvgMs: float64(sum) / float64(len(values)),
		P50Ms: percentile(values, 50),
		P95Ms: percentile(values, 95),
		P99Ms: percentile(values, 99),
	}
}

func (s *LatencyStats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.maxAge)
	for id, samples := range s.samples {
		writeIdx := 0
		for _, sm := range samples {
			if !sm.timestamp.Before(cutoff) {
				samples[writeIdx] = sm
				writeIdx++
			}
		}
		if writeIdx == 0 {
			delete(s.samples, id)
			continue
		}
		s.samples[id] = samples[:writeIdx]
	}
	for id, fails := range s.failures {
		writeIdx := 0
		for _, ts := range fails {
			if !ts.Before(cutoff) {
				fails[writeIdx] = ts
				writeIdx++
			}
		}
		if writeIdx == 0 {
			delete(s.failures, id)
			continue
		}
		s.failures[id] = fails[:writeIdx]
	}
}

func percentile(sortedValues []int64, pct float64) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sortedValues[0])
	}
	if pct >= 100 {
		return float64(sortedValues[len(sortedValues)-1])
	}

	index := (float64(len(sortedValues)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sortedValues) {
		return float64(sortedValues[lower])
	}
	weight := index - float64(lower)
	lo := float64(sortedValues[lower])
	hi := float64(sortedValues[upper])
	return lo + ((hi - lo) * weight)
}
