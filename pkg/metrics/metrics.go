// Package metrics provides Prometheus metrics for the prospect
// verification pipeline. The process is a batch CLI with no inbound
// listener, so instead of serving /metrics the collected families are
// written to a textfile at the end of a run (node-exporter textfile
// collector format).
package metrics

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

// Manager owns all Prometheus metrics for the pipeline.
type Manager struct {
	namespace string
	registry  *prometheus.Registry

	candidatesTotal    prometheus.Counter
	outcomesTotal      *prometheus.CounterVec
	failuresByReason   *prometheus.CounterVec
	cmsDetections      *prometheus.CounterVec
	recommendations    *prometheus.CounterVec
	scoreDistribution  prometheus.Histogram
	probeLatency       prometheus.Histogram
	fingerprintLatency prometheus.Histogram
	degradedTotal      prometheus.Counter
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithNamespace overrides the metric namespace.
func WithNamespace(ns string) Option {
	return func(m *Manager) {
		if ns != "" {
			m.namespace = ns
		}
	}
}

// Global manager on a private registry so default Go collectors do not
// leak into the snapshot.
var globalManager = NewManager() //nolint:gochecknoglobals // singleton metrics manager

// NewManager creates a Manager with its own registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "prospector",
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initialize()
	return m
}

func (m *Manager) initialize() {
	auto := promauto.With(m.registry)

	m.candidatesTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "candidates_total",
		Help:      "Total number of candidates processed",
	})
	m.outcomesTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "outcomes_total",
		Help:      "Audit trail outcomes by partition",
	}, []string{"outcome"})
	m.failuresByReason = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "verification_failures_total",
		Help:      "Verification failures by reason code",
	}, []string{"reason"})
	m.cmsDetections = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "cms_detections_total",
		Help:      "CMS detections by kind",
	}, []string{"cms"})
	m.recommendations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "recommendations_total",
		Help:      "Scoring recommendations by tier",
	}, []string{"recommendation"})
	m.scoreDistribution = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "score_distribution",
		Help:      "Distribution of total prospect scores",
		Buckets:   prometheus.LinearBuckets(0, 10, 11),
	})
	m.probeLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "probe_latency_seconds",
		Help:      "Verification probe latency",
		Buckets:   prometheus.DefBuckets,
	})
	m.fingerprintLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "fingerprint_latency_seconds",
		Help:      "Fingerprint probe latency",
		Buckets:   prometheus.DefBuckets,
	})
	m.degradedTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "fingerprints_degraded_total",
		Help:      "Fingerprint probes that degraded to sentinel values",
	})
}

// WriteSnapshot gathers the registry and writes all metric families in
// text exposition format.
func (m *Manager) WriteSnapshot(path string) error {
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create metrics file: %w", err)
	}
	defer f.Close()
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(f, mf); err != nil {
			return fmt.Errorf("encode metrics: %w", err)
		}
	}
	return nil
}

// Package-level recording helpers against the global manager.

func RecordCandidate()                 { globalManager.candidatesTotal.Inc() }
func RecordOutcome(outcome string)     { globalManager.outcomesTotal.WithLabelValues(outcome).Inc() }
func RecordFailure(reason string)      { globalManager.failuresByReason.WithLabelValues(reason).Inc() }
func RecordCMS(cms string)             { globalManager.cmsDetections.WithLabelValues(cms).Inc() }
func RecordRecommendation(tier string) { globalManager.recommendations.WithLabelValues(tier).Inc() }
func RecordScore(total int)            { globalManager.scoreDistribution.Observe(float64(total)) }
func RecordProbeLatency(sec float64)   { globalManager.probeLatency.Observe(sec) }
func RecordFingerprintLatency(sec float64) {
	globalManager.fingerprintLatency.Observe(sec)
}
func RecordDegraded() { globalManager.degradedTotal.Inc() }

// WriteSnapshot writes the global manager's metrics to path.
func WriteSnapshot(path string) error {
	return globalManager.WriteSnapshot(path)
}
