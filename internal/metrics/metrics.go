// Package metrics provides Prometheus metrics for blockpress runs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the compressor.
type Metrics struct {
	// Block metrics
	BlocksCompressed *prometheus.CounterVec
	BlocksFailed     *prometheus.CounterVec

	// Byte metrics
	BytesOriginal   *prometheus.CounterVec
	BytesCompressed *prometheus.CounterVec

	// Timing metrics
	BlockCompressDuration  *prometheus.HistogramVec
	ContainerWriteDuration *prometheus.HistogramVec

	// Size metrics
	BlockCompressedBytes *prometheus.HistogramVec

	// Pipeline metrics
	InFlightBlocks prometheus.Gauge

	// Run metrics
	RunsCompleted *prometheus.CounterVec
	RunsFailed    *prometheus.CounterVec
}

// Config holds metrics configuration.
type Config struct {
	Enabled bool
	Address string // Address for metrics HTTP server (e.g., ":9090")
}

var defaultMetrics *Metrics

// Init initializes the metrics package with global metrics.
// Call this once at startup.
func Init(namespace string) *Metrics {
	if namespace == "" {
		namespace = "blockpress"
	}

	m := &Metrics{
		BlocksCompressed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "blocks_compressed_total",
				Help:      "Total number of blocks compressed successfully",
			},
			[]string{"codec", "strategy"},
		),
		BlocksFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "blocks_failed_total",
				Help:      "Total number of blocks that failed to compress",
			},
			[]string{"codec", "strategy"},
		),
		BytesOriginal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bytes_original_total",
				Help:      "Total uncompressed bytes consumed",
			},
			[]string{"codec", "strategy"},
		),
		BytesCompressed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bytes_compressed_total",
				Help:      "Total compressed bytes produced",
			},
			[]string{"codec", "strategy"},
		),
		BlockCompressDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "block_compress_duration_seconds",
				Help:      "Time to read and compress one block",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~16s
			},
			[]string{"codec", "strategy"},
		),
		ContainerWriteDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "container_write_duration_seconds",
				Help:      "Time to write the finished container",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
			},
			[]string{"codec", "backend"},
		),
		BlockCompressedBytes: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "block_compressed_bytes",
				Help:      "Compressed size of blocks in bytes",
				Buckets:   prometheus.ExponentialBuckets(1024, 2, 15), // 1KB to ~16MB
			},
			[]string{"codec", "strategy"},
		),
		InFlightBlocks: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "in_flight_blocks",
				Help:      "Number of blocks currently being compressed",
			},
		),
		RunsCompleted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_completed_total",
				Help:      "Total number of runs that finished successfully",
			},
			[]string{"codec", "strategy"},
		),
		RunsFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_failed_total",
				Help:      "Total number of runs that failed",
			},
			[]string{"codec", "strategy"},
		),
	}

	defaultMetrics = m
	return m
}

// Get returns the global metrics instance.
// Returns nil if Init has not been called.
func Get() *Metrics {
	return defaultMetrics
}

// StartServer starts an HTTP server for Prometheus metrics scraping.
// Blocks until the server exits.
func StartServer(address string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return http.ListenAndServe(address, mux)
}

// Labels is a convenience type for metric labels.
type Labels struct {
	Codec    string
	Strategy string
	Backend  string
}

// IncBlocksCompressed increments the blocks compressed counter.
func (m *Metrics) IncBlocksCompressed(l Labels) {
	m.BlocksCompressed.WithLabelValues(l.Codec, l.Strategy).Inc()
}

// IncBlocksFailed increments the blocks failed counter.
func (m *Metrics) IncBlocksFailed(l Labels) {
	m.BlocksFailed.WithLabelValues(l.Codec, l.Strategy).Inc()
}

// AddBytesOriginal adds to the uncompressed bytes counter.
func (m *Metrics) AddBytesOriginal(l Labels, n float64) {
	m.BytesOriginal.WithLabelValues(l.Codec, l.Strategy).Add(n)
}

// AddBytesCompressed adds to the compressed bytes counter.
func (m *Metrics) AddBytesCompressed(l Labels, n float64) {
	m.BytesCompressed.WithLabelValues(l.Codec, l.Strategy).Add(n)
}

// ObserveBlockCompressDuration records the time spent on one block.
func (m *Metrics) ObserveBlockCompressDuration(l Labels, seconds float64) {
	m.BlockCompressDuration.WithLabelValues(l.Codec, l.Strategy).Observe(seconds)
}

// ObserveContainerWriteDuration records the time spent writing the container.
func (m *Metrics) ObserveContainerWriteDuration(l Labels, seconds float64) {
	m.ContainerWriteDuration.WithLabelValues(l.Codec, l.Backend).Observe(seconds)
}

// ObserveBlockCompressedBytes records the compressed size of one block.
func (m *Metrics) ObserveBlockCompressedBytes(l Labels, bytes float64) {
	m.BlockCompressedBytes.WithLabelValues(l.Codec, l.Strategy).Observe(bytes)
}

// SetInFlightBlocks sets the number of blocks currently in flight.
func (m *Metrics) SetInFlightBlocks(count float64) {
	m.InFlightBlocks.Set(count)
}

// IncRunsCompleted increments the completed runs counter.
func (m *Metrics) IncRunsCompleted(l Labels) {
	m.RunsCompleted.WithLabelValues(l.Codec, l.Strategy).Inc()
}

// IncRunsFailed increments the failed runs counter.
func (m *Metrics) IncRunsFailed(l Labels) {
	m.RunsFailed.WithLabelValues(l.Codec, l.Strategy).Inc()
}
