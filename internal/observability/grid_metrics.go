package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
)

// GridCollector exposes grid and spark metrics.
type GridCollector struct {
	gatherer prometheus.Gatherer

	ConnectionPoints prometheus.Gauge
	Cables           prometheus.Gauge
	CablesGenerated  prometheus.Gauge
	Sparks           prometheus.Gauge
	Structures       prometheus.Gauge

	Generations       *prometheus.CounterVec
	JunctionCrossings prometheus.Counter
	TraversalErrors   *prometheus.CounterVec
	TraversalHops     prometheus.Histogram
}

// NewGridCollector registers grid metrics against the provided registerer,
// defaulting to the global Prometheus registry when nil.
func NewGridCollector(reg prometheus.Registerer) (*GridCollector, error) {
	reg, gatherer := registryFor(reg)

	gauge := func(name, help string) (prometheus.Gauge, error) {
		return register(reg, prometheus.NewGauge(prometheus.GaugeOpts{Name: name, Help: help}), name)
	}

	c := &GridCollector{gatherer: gatherer}
	var err error
	if c.ConnectionPoints, err = gauge("grid_connection_points", "Current number of connection points in the grid."); err != nil {
		return nil, err
	}
	if c.Cables, err = gauge("grid_cables", "Current number of cables in the grid."); err != nil {
		return nil, err
	}
	if c.CablesGenerated, err = gauge("grid_cables_generated", "Current number of cables with generated geometry."); err != nil {
		return nil, err
	}
	if c.Sparks, err = gauge("grid_sparks", "Current number of live sparks."); err != nil {
		return nil, err
	}
	if c.Structures, err = gauge("grid_structures", "Current number of structures."); err != nil {
		return nil, err
	}

	generations, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "grid_cable_generations_total",
		Help: "Cable generation attempts, labeled by result (ok or error).",
	}, []string{"result"}), "grid_cable_generations_total")
	if err != nil {
		return nil, err
	}

	crossings, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "grid_junction_crossings_total",
		Help: "Cumulative number of junctions crossed by sparks.",
	}), "grid_junction_crossings_total")
	if err != nil {
		return nil, err
	}

	traversalErrors, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "grid_traversal_errors_total",
		Help: "Failed spark traversal steps, labeled by error kind.",
	}, []string{"kind"}), "grid_traversal_errors_total")
	if err != nil {
		return nil, err
	}

	hops, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "grid_traversal_hops",
		Help:    "Junction hops taken per successful spark step.",
		Buckets: []float64{0, 1, 2, 4, 8, 16, 32},
	}), "grid_traversal_hops")
	if err != nil {
		return nil, err
	}

	c.Generations = generations
	c.JunctionCrossings = crossings
	c.TraversalErrors = traversalErrors
	c.TraversalHops = hops
	return c, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *GridCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Handler exposes a ready-to-use /metrics handler.
func (c *GridCollector) Handler() http.Handler {
	return handlerFor(c.Gatherer())
}

// SetGridCounts updates the size gauges. It satisfies the recorder interface
// used by GridState.
func (c *GridCollector) SetGridCounts(points, cables, generated, sparks, structures int) {
	if c == nil {
		return
	}
	set := func(g prometheus.Gauge, v int) {
		if g != nil {
			g.Set(float64(v))
		}
	}
	set(c.ConnectionPoints, points)
	set(c.Cables, cables)
	set(c.CablesGenerated, generated)
	set(c.Sparks, sparks)
	set(c.Structures, structures)
}

// RecordGeneration counts one generation attempt.
func (c *GridCollector) RecordGeneration(ok bool) {
	if c == nil || c.Generations == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	c.Generations.WithLabelValues(result).Inc()
}

// RecordTraversal records a successful spark step that crossed hops
// junctions.
func (c *GridCollector) RecordTraversal(hops int) {
	if c == nil {
		return
	}
	if c.TraversalHops != nil {
		c.TraversalHops.Observe(float64(hops))
	}
	if c.JunctionCrossings != nil && hops > 0 {
		c.JunctionCrossings.Add(float64(hops))
	}
}

// RecordTraversalError counts a failed spark step.
func (c *GridCollector) RecordTraversalError(kind string) {
	if c == nil || c.TraversalErrors == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	c.TraversalErrors.WithLabelValues(kind).Inc()
}
