/*

Package metrics exposes optional Prometheus instrumentation for a Parse
run: packets seen, entities touched, and warnings recorded. It has no
teacher analog (screp parses one replay and exits; there is nothing
long-running to instrument); the collector shape is grounded on
runZeroInc-conniver/pkg/exporter's counter-per-concern style, simplified
from that package's live-socket Collector down to plain counters since
nothing here needs a pull-time recomputation.

A nil *Collector is valid and every method on it is a no-op, matching
spec §2's "a nil ... metrics collector is valid and turns into a
no-op."

*/
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collector holds the counters one or more Parse runs update.
type Collector struct {
	Packets  prometheus.Counter
	Entities prometheus.Counter
	Warnings prometheus.Counter
	Errors   prometheus.Counter
}

// NewCollector builds a Collector with unregistered counters. Call
// Register to expose them on a Prometheus registry.
func NewCollector() *Collector {
	return &Collector{
		Packets: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "demorec_packets_total",
			Help: "Raw packets decoded across all Parse runs sharing this collector.",
		}),
		Entities: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "demorec_entities_total",
			Help: "Entity records (Enter/Preserve/Leave/Delete) decoded.",
		}),
		Warnings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "demorec_warnings_total",
			Help: "Non-fatal faults downgraded to a ParseWarning.",
		}),
		Errors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "demorec_parse_errors_total",
			Help: "Parse runs that ended in a fatal error, including recovered panics.",
		}),
	}
}

// Register adds every counter to reg.
func (c *Collector) Register(reg prometheus.Registerer) error {
	if c == nil {
		return nil
	}
	for _, coll := range []prometheus.Collector{c.Packets, c.Entities, c.Warnings, c.Errors} {
		if err := reg.Register(coll); err != nil {
			return err
		}
	}
	return nil
}

func (c *Collector) IncPackets() {
	if c == nil {
		return
	}
	c.Packets.Inc()
}

func (c *Collector) AddEntities(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.Entities.Add(float64(n))
}

func (c *Collector) IncWarnings() {
	if c == nil {
		return
	}
	c.Warnings.Inc()
}

func (c *Collector) IncErrors() {
	if c == nil {
		return
	}
	c.Errors.Inc()
}
