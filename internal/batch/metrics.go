package batch

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"IVSolver/internal/model"
)

// Metrics groups the solver counters on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Solved       *prometheus.CounterVec   // by model, underlying, result
	Iterations   *prometheus.HistogramVec // by model
	BatchSeconds prometheus.Histogram
	LastNaN      prometheus.Gauge
	LastTotal    prometheus.Gauge
}

// NewMetrics creates the registry with Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: reg}
	m.Solved = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ivsolver_trades_total",
		Help: "Trades processed, by pricing model, underlying and result",
	}, []string{"model", "underlying", "result"})
	m.Iterations = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ivsolver_root_iterations",
		Help:    "Root finder iterations per solved trade",
		Buckets: prometheus.LinearBuckets(0, 5, 11),
	}, []string{"model"})
	m.BatchSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ivsolver_batch_duration_seconds",
		Help:    "Wall time of a batch run",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
	})
	m.LastNaN = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ivsolver_last_batch_nan",
		Help: "Trades without a solution in the last batch",
	})
	m.LastTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ivsolver_last_batch_trades",
		Help: "Trades in the last batch",
	})
	reg.MustRegister(m.Solved, m.Iterations, m.BatchSeconds, m.LastNaN, m.LastTotal)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Observe records one solution.
func (m *Metrics) Observe(s *model.Solution) {
	if m == nil {
		return
	}
	result := "solved"
	if !s.Solved() {
		result = "nan"
	}
	m.Solved.WithLabelValues(string(s.ModelType), string(s.UnderlyingType), result).Inc()
	if s.Solved() {
		m.Iterations.WithLabelValues(string(s.ModelType)).Observe(float64(s.Iterations))
	}
}

// ObserveBatch records the totals of a finished run.
func (m *Metrics) ObserveBatch(b *model.BatchSummary) {
	if m == nil {
		return
	}
	m.BatchSeconds.Observe(b.Duration.Seconds())
	m.LastNaN.Set(float64(b.NaNCount))
	m.LastTotal.Set(float64(b.Total))
}
