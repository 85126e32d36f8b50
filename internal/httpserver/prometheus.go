package httpserver

import (
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/skobkin/ryzenmon/internal/metrics"
	"github.com/skobkin/ryzenmon/internal/pmtable"
	"github.com/skobkin/ryzenmon/internal/sampler"
)

const metricsNamespace = "ryzenmon"

// frameCollector exports the latest frame. Each unit gets its own gauge
// family and the computed metric name becomes the "metric" label.
type frameCollector struct {
	hub      *sampler.Hub
	registry *pmtable.Registry

	values    map[metrics.Unit]*prometheus.Desc
	tableInfo *prometheus.Desc
	frames    *prometheus.Desc
	timestamp *prometheus.Desc
	age       *prometheus.Desc
}

var unitFamilies = map[metrics.Unit]struct {
	name string
	help string
}{
	metrics.Count:   {"count", "Counted PM table values."},
	metrics.Ratio:   {"ratio", "PM table fractions between 0 and 1."},
	metrics.MHz:     {"frequency_mhz", "PM table clocks in MHz."},
	metrics.Volts:   {"voltage_volts", "PM table voltages in Volts."},
	metrics.Amps:    {"current_amps", "PM table currents in Amperes."},
	metrics.Watts:   {"power_watts", "PM table power in Watts."},
	metrics.Celsius: {"temperature_celsius", "PM table temperatures in Celsius."},
}

func newFrameCollector(hub *sampler.Hub, registry *pmtable.Registry) prometheus.Collector {
	if hub == nil {
		return nil
	}

	desc := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(metricsNamespace, "pm", name), help, labels, nil)
	}

	c := &frameCollector{
		hub:       hub,
		registry:  registry,
		values:    make(map[metrics.Unit]*prometheus.Desc, len(unitFamilies)),
		tableInfo: desc("table_info", "PM table layout in use.", "version", "codename"),
		frames:    desc("frames_total", "Frames published since start."),
		timestamp: desc("sample_timestamp_seconds", "Unix timestamp of the latest frame."),
		age:       desc("sample_age_seconds", "Seconds elapsed since the latest frame was read."),
	}
	for unit, family := range unitFamilies {
		c.values[unit] = desc(family.name, family.help, "metric")
	}
	return c
}

func (c *frameCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range c.values {
		ch <- d
	}
	ch <- c.tableInfo
	ch <- c.frames
	ch <- c.timestamp
	ch <- c.age
}

func (c *frameCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.frames, prometheus.CounterValue, float64(c.hub.Published()))

	sample, ok := c.hub.Latest()
	if !ok {
		return
	}

	codename := ""
	if schema, err := c.registry.Lookup(sample.Version); err == nil {
		codename = schema.Codename
	}
	ch <- prometheus.MustNewConstMetric(c.tableInfo, prometheus.GaugeValue, 1, pmtable.FormatVersion(sample.Version), codename)

	if !sample.Timestamp.IsZero() {
		ch <- prometheus.MustNewConstMetric(c.timestamp, prometheus.GaugeValue, float64(sample.Timestamp.Unix()))
		age := time.Since(sample.Timestamp).Seconds()
		if age < 0 {
			age = 0
		}
		ch <- prometheus.MustNewConstMetric(c.age, prometheus.GaugeValue, age)
	}

	for _, m := range sample.Snapshot.Metrics() {
		desc, ok := c.values[m.Unit]
		if !ok || math.IsNaN(m.Value) || math.IsInf(m.Value, 0) {
			continue
		}
		ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, m.Value, m.Name)
	}
}
