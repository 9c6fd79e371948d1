package infra

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "promptsmith"

// Metrics groups the collectors exported on /metrics. A nil *Metrics is valid
// and records nothing, which keeps tests and the CLI free of registry setup.
type Metrics struct {
	Registry *prometheus.Registry

	generationCalls    *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	compileAttempts    *prometheus.CounterVec
	checkFailures      *prometheus.CounterVec
	compileResults     *prometheus.CounterVec
	bundlesStored      prometheus.Counter
}

// NewMetrics builds a private registry so collectors never leak into
// prometheus.DefaultRegisterer.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)
	return &Metrics{
		Registry: registry,
		generationCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "generation_calls_total",
			Help:      "Provider calls partitioned by provider and outcome.",
		}, []string{"provider", "outcome"}),
		generationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "generation_call_duration_seconds",
			Help:      "Latency of a single provider call.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		compileAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "compile_attempts_total",
			Help:      "Semantic attempts partitioned by outcome (accepted, rejected).",
		}, []string{"outcome"}),
		checkFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "validation_check_failures_total",
			Help:      "Failed validation checks partitioned by check name.",
		}, []string{"check"}),
		compileResults: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "compile_requests_total",
			Help:      "Compile requests partitioned by final result.",
		}, []string{"result"}),
		bundlesStored: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "bundles_stored_total",
			Help:      "Bundles appended to the bundle store.",
		}),
	}
}

func (m *Metrics) ObserveGeneration(provider, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.generationCalls.WithLabelValues(provider, outcome).Inc()
	m.generationDuration.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// ObserveGenerationOutcome counts an outcome detected after the call returned,
// such as an unparsable response.
func (m *Metrics) ObserveGenerationOutcome(provider, outcome string) {
	if m == nil {
		return
	}
	m.generationCalls.WithLabelValues(provider, outcome).Inc()
}

func (m *Metrics) ObserveAttempt(accepted bool, failedChecks []string) {
	if m == nil {
		return
	}
	if accepted {
		m.compileAttempts.WithLabelValues("accepted").Inc()
		return
	}
	m.compileAttempts.WithLabelValues("rejected").Inc()
	for _, check := range failedChecks {
		m.checkFailures.WithLabelValues(check).Inc()
	}
}

func (m *Metrics) ObserveCompile(result string) {
	if m == nil {
		return
	}
	m.compileResults.WithLabelValues(result).Inc()
}

func (m *Metrics) AddBundlesStored(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.bundlesStored.Add(float64(n))
}
