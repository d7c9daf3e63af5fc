// Package metrics exposes prometheus counters for the moderation lifecycle.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector counts lifecycle outcomes. A nil *Collector is valid and records nothing.
type Collector struct {
	TransitionCounter *prometheus.CounterVec
	ConflictCounter   *prometheus.CounterVec
	DegradedCounter   *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. Already registered collectors are reused
// so that repeated construction in tests does not panic.
func New(reg prometheus.Registerer) *Collector {
	collector := &Collector{
		TransitionCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "moderation_transitions_total", Help: "Total lifecycle operations by outcome"},
			[]string{"operation", "outcome"}),
		ConflictCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "moderation_cas_conflicts_total", Help: "Total version conflicts encountered while persisting"},
			[]string{"operation"}),
		DegradedCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "moderation_degraded_effects_total", Help: "Total failed post-commit side effects"},
			[]string{"effect"}),
	}

	collector.TransitionCounter = register(reg, collector.TransitionCounter)
	collector.ConflictCounter = register(reg, collector.ConflictCounter)
	collector.DegradedCounter = register(reg, collector.DegradedCounter)

	return collector
}

func register(reg prometheus.Registerer, counter *prometheus.CounterVec) *prometheus.CounterVec {
	if err := reg.Register(counter); err != nil {
		var existing prometheus.AlreadyRegisteredError
		if errors.As(err, &existing) {
			if vec, ok := existing.ExistingCollector.(*prometheus.CounterVec); ok {
				return vec
			}
		}
	}

	return counter
}

func (c *Collector) Transition(operation string, outcome string) {
	if c == nil {
		return
	}

	c.TransitionCounter.With(prometheus.Labels{"operation": operation, "outcome": outcome}).Inc()
}

func (c *Collector) Conflict(operation string) {
	if c == nil {
		return
	}

	c.ConflictCounter.With(prometheus.Labels{"operation": operation}).Inc()
}

func (c *Collector) Degraded(effect string) {
	if c == nil {
		return
	}

	c.DegradedCounter.With(prometheus.Labels{"effect": effect}).Inc()
}
