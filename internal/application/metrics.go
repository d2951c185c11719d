package application

import (
	"sync"
	"time"

	"github.com/bnema/adforge/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the pipeline. All methods are
// safe on a nil receiver.
type Metrics struct {
	transitions       *prometheus.CounterVec
	variantAttempts   *prometheus.CounterVec
	runDuration       *prometheus.HistogramVec
	generating        prometheus.Gauge
	admissionRejected prometheus.Counter
	artifactsEvicted  *prometheus.CounterVec
}

var (
	defaultMetricsOnce sync.Once
	sharedMetrics      *Metrics
)

func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		sharedMetrics = MustNewMetrics(prometheus.DefaultRegisterer)
	})
	return sharedMetrics
}

// MustNewMetrics registers the collectors with reg, reusing collectors that
// are already registered under the same name.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "adforge",
			Name:      "session_transitions_total",
			Help:      "Session stage transitions.",
		}, []string{"from", "to"}),
		variantAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "adforge",
			Name:      "variant_attempts_total",
			Help:      "Generation attempts per variant style and outcome.",
		}, []string{"style", "outcome"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "adforge",
			Name:      "generation_run_seconds",
			Help:      "Wall time of a four-variant generation run.",
			Buckets:   []float64{1, 5, 10, 20, 30, 60, 90, 120, 240},
		}, []string{"outcome"}),
		generating: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "adforge",
			Name:      "sessions_generating",
			Help:      "Sessions currently holding a generation slot.",
		}),
		admissionRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "adforge",
			Name:      "admission_rejections_total",
			Help:      "Answers rejected because the generation cap was reached.",
		}),
		artifactsEvicted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "adforge",
			Name:      "artifacts_evicted_total",
			Help:      "Artifacts removed from the store.",
		}, []string{"cause"}),
	}

	m.transitions = register(reg, m.transitions)
	m.variantAttempts = register(reg, m.variantAttempts)
	m.runDuration = register(reg, m.runDuration)
	m.generating = register(reg, m.generating)
	m.admissionRejected = register(reg, m.admissionRejected)
	m.artifactsEvicted = register(reg, m.artifactsEvicted)

	return m
}

func register[C prometheus.Collector](reg prometheus.Registerer, collector C) C {
	if err := reg.Register(collector); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return collector
}

func (m *Metrics) ObserveTransition(from, to domain.Stage) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(string(from), string(to)).Inc()
}

func (m *Metrics) ObserveAttempt(style domain.VariantStyle, outcome string) {
	if m == nil {
		return
	}
	m.variantAttempts.WithLabelValues(string(style), outcome).Inc()
}

func (m *Metrics) ObserveRun(status domain.RunStatus, duration time.Duration) {
	if m == nil {
		return
	}
	m.runDuration.WithLabelValues(string(status)).Observe(duration.Seconds())
}

func (m *Metrics) IncGenerating() {
	if m == nil {
		return
	}
	m.generating.Inc()
}

func (m *Metrics) DecGenerating() {
	if m == nil {
		return
	}
	m.generating.Dec()
}

func (m *Metrics) IncAdmissionRejected() {
	if m == nil {
		return
	}
	m.admissionRejected.Inc()
}

func (m *Metrics) AddEvicted(cause string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.artifactsEvicted.WithLabelValues(cause).Add(float64(n))
}
