package association

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics 關聯流程的 Prometheus 指標
type Metrics struct {
	lookups            *prometheus.CounterVec
	generations        *prometheus.CounterVec
	generationDuration prometheus.Histogram
	unresolved         prometheus.Counter
	rejected           prometheus.Counter
}

// MustNewMetrics 以指定 registerer 註冊指標，重複註冊時沿用既有 collector
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recipe_linker",
			Subsystem: "associations",
			Name:      "lookups_total",
			Help:      "Association cache lookups by resulting status.",
		}, []string{"status"}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "recipe_linker",
			Subsystem: "associations",
			Name:      "generations_total",
			Help:      "Association generation attempts by outcome.",
		}, []string{"outcome"}),
		generationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "recipe_linker",
			Subsystem: "associations",
			Name:      "generation_duration_seconds",
			Help:      "Time spent waiting for the association generator.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		}),
		unresolved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "recipe_linker",
			Subsystem: "associations",
			Name:      "unresolved_total",
			Help:      "Associations that could not be matched to an ingredient.",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "recipe_linker",
			Subsystem: "associations",
			Name:      "rejected_total",
			Help:      "Generated associations dropped as incomplete or out of range.",
		}),
	}

	m.lookups = register(reg, m.lookups).(*prometheus.CounterVec)
	m.generations = register(reg, m.generations).(*prometheus.CounterVec)
	m.generationDuration = register(reg, m.generationDuration).(prometheus.Histogram)
	m.unresolved = register(reg, m.unresolved).(prometheus.Counter)
	m.rejected = register(reg, m.rejected).(prometheus.Counter)
	return m
}

func register(reg prometheus.Registerer, c prometheus.Collector) prometheus.Collector {
	if err := reg.Register(c); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return already.ExistingCollector
		}
		panic(err)
	}
	return c
}

func (m *Metrics) observeLookup(status Status) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(string(status)).Inc()
}

func (m *Metrics) observeGeneration(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(outcome).Inc()
	m.generationDuration.Observe(d.Seconds())
}

func (m *Metrics) observeReconcile(unresolved, rejected int) {
	if m == nil {
		return
	}
	m.unresolved.Add(float64(unresolved))
	m.rejected.Add(float64(rejected))
}
