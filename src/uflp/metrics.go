package uflp

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Registry holds the generator metrics; it is separate from the default
	// registry so that a textfile dump only contains this run.
	Registry = prometheus.NewRegistry()
	// Samples counts samples by outcome: written, skipped or failed.
	Samples = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "uflp_samples_total", Help: "Generated samples by outcome."},
		[]string{"outcome"},
	)
	// SolveDuration records oracle solve times in seconds.
	SolveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "uflp_oracle_solve_seconds", Help: "Oracle solve duration in seconds.", Buckets: prometheus.ExponentialBuckets(0.001, 4, 10)},
		[]string{"oracle"},
	)
	recordBytes = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "uflp_record_bytes_total", Help: "Bytes appended to dataset files."},
	)
)

func init() {
	Registry.MustRegister(Samples)
	Registry.MustRegister(SolveDuration)
	Registry.MustRegister(recordBytes)
}

func observeSolve(oracle string, d time.Duration) {
	if oracle == "" {
		oracle = "unnamed"
	}
	SolveDuration.WithLabelValues(oracle).Observe(d.Seconds())
}

// WriteMetrics dumps Registry in the Prometheus text format, for the node
// exporter textfile collector.
func WriteMetrics(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
