package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "diligence"

// Metrics records research pipeline activity. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	runs          *prometheus.CounterVec
	retries       prometheus.Counter
	sources       *prometheus.HistogramVec
	fetches       *prometheus.CounterVec
	memoryDocs    *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	fallbacks     *prometheus.CounterVec
}

// NewMetrics creates the pipeline collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Research runs started, by depth.",
		}, []string{"depth"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_retries_total",
			Help:      "Runs that took the insufficient-evidence retry branch.",
		}),
		sources: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sources",
			Help:      "Source count after a pipeline stage.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 10, 15, 25, 50},
		}, []string{"stage"}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_total",
			Help:      "Page fetches by outcome.",
		}, []string{"outcome"}),
		memoryDocs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memory_docs_added_total",
			Help:      "Documents appended to vector memory, by source type.",
		}, []string{"source_type"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time spent in each pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 3, 10),
		}, []string{"stage"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synth_fallbacks_total",
			Help:      "Deterministic fallbacks substituted for model output, by phase.",
		}, []string{"phase"}),
	}
	if reg != nil {
		reg.MustRegister(m.runs, m.retries, m.sources, m.fetches, m.memoryDocs, m.stageDuration, m.fallbacks)
	}
	return m
}

func (m *Metrics) RunStarted(depth string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(depth).Inc()
}

func (m *Metrics) SearchRetried() {
	if m == nil {
		return
	}
	m.retries.Inc()
}

func (m *Metrics) ObserveSources(stage string, n int) {
	if m == nil {
		return
	}
	m.sources.WithLabelValues(stage).Observe(float64(n))
}

func (m *Metrics) FetchOutcome(outcome string) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(outcome).Inc()
}

func (m *Metrics) MemoryDocsAdded(sourceType string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.memoryDocs.WithLabelValues(sourceType).Add(float64(n))
}

func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *Metrics) SynthFallback(phase string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(phase).Inc()
}
