// Package kmetrics exports kstats timings as Prometheus metrics.
package kmetrics

import (
	"strconv"

	"github.com/birdayz/kstats"
	"github.com/prometheus/client_golang/prometheus"
)

// Option configures a Collector.
type Option func(*Collector)

// WithNamespace sets the metric namespace. Defaults to "kstats".
var WithNamespace = func(namespace string) Option {
	return func(c *Collector) {
		c.namespace = namespace
	}
}

// WithConstLabels adds labels to every exported metric.
var WithConstLabels = func(labels prometheus.Labels) Option {
	return func(c *Collector) {
		c.constLabels = labels
	}
}

var (
	pathLabels    = []string{"graph", "generation", "path_index", "path"}
	segmentLabels = []string{"graph", "generation", "path_index", "path", "segment_index", "task"}
)

type timingDescs struct {
	calls *prometheus.Desc
	total *prometheus.Desc
	min   *prometheus.Desc
	max   *prometheus.Desc
}

func newTimingDescs(namespace, subsystem string, labels []string, constLabels prometheus.Labels) timingDescs {
	name := func(n string) string {
		return prometheus.BuildFQName(namespace, subsystem, n)
	}
	return timingDescs{
		calls: prometheus.NewDesc(name("calls_total"),
			"Number of recorded "+subsystem+" executions.", labels, constLabels),
		total: prometheus.NewDesc(name("duration_seconds_total"),
			"Sum of recorded "+subsystem+" durations in seconds.", labels, constLabels),
		min: prometheus.NewDesc(name("duration_min_seconds"),
			"Shortest recorded "+subsystem+" duration in seconds.", labels, constLabels),
		max: prometheus.NewDesc(name("duration_max_seconds"),
			"Longest recorded "+subsystem+" duration in seconds.", labels, constLabels),
	}
}

func (d timingDescs) describe(ch chan<- *prometheus.Desc) {
	ch <- d.calls
	ch <- d.total
	ch <- d.min
	ch <- d.max
}

func (d timingDescs) collect(ch chan<- prometheus.Metric, s kstats.Stats, labels []string) {
	ch <- prometheus.MustNewConstMetric(d.calls, prometheus.CounterValue, float64(s.Called), labels...)
	ch <- prometheus.MustNewConstMetric(d.total, prometheus.CounterValue, s.Aggregate.Seconds(), labels...)
	if s.Called == 0 {
		// Min is still the sentinel, max is meaningless.
		return
	}
	ch <- prometheus.MustNewConstMetric(d.min, prometheus.GaugeValue, s.Min.Seconds(), labels...)
	ch <- prometheus.MustNewConstMetric(d.max, prometheus.GaugeValue, s.Max.Seconds(), labels...)
}

// Collector is a prometheus.Collector reading a kstats.Registry on every
// scrape. Graphs sharing a name are told apart by the generation label.
type Collector struct {
	registry    *kstats.Registry
	namespace   string
	constLabels prometheus.Labels

	path    timingDescs
	segment timingDescs
}

// NewCollector creates a collector for reg. Register it with a
// prometheus.Registerer to expose it.
func NewCollector(reg *kstats.Registry, opts ...Option) *Collector {
	c := &Collector{
		registry:  reg,
		namespace: "kstats",
	}
	for _, opt := range opts {
		opt(c)
	}

	c.path = newTimingDescs(c.namespace, "path", pathLabels, c.constLabels)
	c.segment = newTimingDescs(c.namespace, "segment", segmentLabels, c.constLabels)
	return c
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.path.describe(ch)
	c.segment.describe(ch)
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	report := c.registry.Report()
	for _, g := range report.Graphs {
		generation := strconv.Itoa(g.Generation)
		for i, p := range g.Paths {
			pathIndex := strconv.Itoa(i)
			route := p.Route()
			c.path.collect(ch, p.Stats, []string{g.Name, generation, pathIndex, route})

			for j, s := range p.Segments {
				c.segment.collect(ch, s.Stats, []string{
					g.Name, generation, pathIndex, route, strconv.Itoa(j), s.Task,
				})
			}
		}
	}
}
