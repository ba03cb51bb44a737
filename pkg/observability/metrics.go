package observability

import (
	"time"

	"github.com/aretw0/arbor/pkg/lsys"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "arbor"

// Metrics holds the build collectors. A nil *Metrics records nothing.
type Metrics struct {
	builds         *prometheus.CounterVec
	buildErrors    *prometheus.CounterVec
	buildDuration  *prometheus.HistogramVec
	generations    prometheus.Counter
	sequenceLength prometheus.Histogram
	nodes          prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		builds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "builds_total",
				Help:      "Total number of tree builds, by species and cache outcome",
			},
			[]string{"species", "cache"},
		),
		buildErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "build_errors_total",
				Help:      "Total number of failed tree builds",
			},
			[]string{"species"},
		),
		buildDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "build_duration_seconds",
				Help:      "Duration of tree builds",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
			},
			[]string{"species"},
		),
		generations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Total number of rewriting generations",
		}),
		sequenceLength: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sequence_length",
			Help:      "Length of the sequence produced by each generation",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 12),
		}),
		nodes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tree_nodes",
			Help:      "Number of nodes in each interpreted tree",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 12),
		}),
	}

	for _, c := range []prometheus.Collector{
		m.builds, m.buildErrors, m.buildDuration,
		m.generations, m.sequenceLength, m.nodes,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lsys hooks that feed the generation and tree collectors.
func (m *Metrics) Hooks() lsys.Hooks {
	if m == nil {
		return lsys.Hooks{}
	}
	return lsys.Hooks{
		OnGeneration: func(e lsys.GenerationEvent) {
			m.generations.Inc()
			m.sequenceLength.Observe(float64(e.OutputLen))
		},
		OnInterpret: func(e lsys.InterpretEvent) {
			m.nodes.Observe(float64(e.Nodes))
		},
	}
}

// ObserveBuild records a finished build.
func (m *Metrics) ObserveBuild(species string, cached bool, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "miss"
	if cached {
		outcome = "hit"
	}
	m.builds.WithLabelValues(species, outcome).Inc()
	m.buildDuration.WithLabelValues(species).Observe(d.Seconds())
}

// ObserveError records a failed build.
func (m *Metrics) ObserveError(species string) {
	if m == nil {
		return
	}
	m.buildErrors.WithLabelValues(species).Inc()
}
