package metric

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mchmarny/menugate/pkg/menu"
)

const namespace = "menugate"

// Counter is a labeled Prometheus counter.
type Counter struct {
	Name string
	Help string

	vec *prometheus.CounterVec
}

// Increment adds one to the series with the given label values.
func (c *Counter) Increment(val ...string) {
	c.vec.WithLabelValues(val...).Inc()
}

// NewCounter registers a namespaced counter vector on reg.
func NewCounter(reg prometheus.Registerer, name, help string, labels ...string) *Counter {
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	}, labels)

	reg.MustRegister(counter)

	return &Counter{
		Name: name,
		Help: help,
		vec:  counter,
	}
}

// Recorder holds the menu service metrics.
type Recorder struct {
	resolves    *Counter
	sourceLoads *Counter
	nodes       prometheus.Histogram
}

// NewRecorder registers the menu service metrics on reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	nodes := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "resolve_nodes",
		Help:      "Number of nodes in successfully resolved menus.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
	})
	reg.MustRegister(nodes)

	return &Recorder{
		resolves:    NewCounter(reg, "resolve_total", "Menu resolve requests by outcome.", "outcome"),
		sourceLoads: NewCounter(reg, "source_load_total", "Menu source loads by kind and outcome.", "kind", "outcome"),
		nodes:       nodes,
	}
}

// ObserveResolve counts a resolve and, on success, records the tree size.
func (r *Recorder) ObserveResolve(outcome string, nodes int) {
	r.resolves.Increment(outcome)
	if outcome == menu.OutcomeOK {
		r.nodes.Observe(float64(nodes))
	}
}

// ObserveLoad counts a source load.
func (r *Recorder) ObserveLoad(kind string, err error) {
	outcome := menu.OutcomeOK
	if err != nil {
		outcome = "error"
	}
	r.sourceLoads.Increment(kind, outcome)
}
