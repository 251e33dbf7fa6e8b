// Package metrics exposes Prometheus collectors for puppet steps and
// scheduled items. A nil *Collectors is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "insitu"

// Item states.
const (
	StateScheduled = "scheduled"
	StateAssigned  = "assigned"
	StateCompleted = "completed"
	StateFailed    = "failed"
)

// Collectors groups the runtime collectors.
type Collectors struct {
	PuppetSteps  *prometheus.CounterVec
	PuppetStep   *prometheus.HistogramVec
	Items        *prometheus.CounterVec
	ItemDuration prometheus.Histogram
}

// New creates the collectors and registers them with registerer when it is
// not nil.
func New(registerer prometheus.Registerer) (*Collectors, error) {
	ret := &Collectors{
		PuppetSteps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "puppet_steps_total",
			Help:      "Number of puppet steps taken.",
		}, []string{"puppet"}),
		PuppetStep: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "puppet_step_seconds",
			Help:      "Time spent inside one puppet step.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"puppet"}),
		Items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_items_total",
			Help:      "Number of work item transitions by state.",
		}, []string{"state"}),
		ItemDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scheduler_item_seconds",
			Help:      "Time from assignment to completion of a work item.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if registerer == nil {
		return ret, nil
	}
	for _, c := range []prometheus.Collector{ret.PuppetSteps, ret.PuppetStep, ret.Items, ret.ItemDuration} {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return ret, nil
}

// ObserveStep records one puppet step.
func (c *Collectors) ObserveStep(puppet string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.PuppetSteps.WithLabelValues(puppet).Inc()
	c.PuppetStep.WithLabelValues(puppet).Observe(elapsed.Seconds())
}

// Item counts a work item transition.
func (c *Collectors) Item(state string) {
	if c == nil {
		return
	}
	c.Items.WithLabelValues(state).Inc()
}

// ObserveItem records the duration of a finished work item.
func (c *Collectors) ObserveItem(elapsed time.Duration) {
	if c == nil {
		return
	}
	c.ItemDuration.Observe(elapsed.Seconds())
}
