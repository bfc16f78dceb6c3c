package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "docvoice"

var (
	// conversionsTotal counts finished runs by backend and outcome.
	conversionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversions_total",
			Help:      "Total number of finished conversion runs",
		},
		[]string{"backend", "outcome"},
	)

	// chunkSynthesisSeconds is a histogram of per-chunk backend latency.
	chunkSynthesisSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "chunk_synthesis_seconds",
			Help:      "Duration of one chunk synthesis call in seconds",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"backend", "result"}, // result: ok, quota, failed
	)

	// runsActive is a gauge of conversions in progress.
	runsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "runs_active",
			Help:      "Number of conversion runs in progress",
		},
	)

	allMetrics = []prometheus.Collector{
		conversionsTotal,
		chunkSynthesisSeconds,
		runsActive,
	}
)

// RegisterMetrics registers pipeline collectors with reg.
func RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range allMetrics {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func recordChunk(backend, result string, seconds float64) {
	chunkSynthesisSeconds.WithLabelValues(backend, result).Observe(seconds)
}

func recordRunStart() {
	runsActive.Inc()
}

func recordRunEnd(backend, outcome string) {
	runsActive.Dec()
	conversionsTotal.WithLabelValues(backend, outcome).Inc()
}
