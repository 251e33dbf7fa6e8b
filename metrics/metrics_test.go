package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectors(t *testing.T) {
	registry := prometheus.NewRegistry()
	c, err := New(registry)
	require.NoError(t, err)

	c.ObserveStep("simulation", 2*time.Millisecond)
	c.ObserveStep("simulation", time.Millisecond)
	c.Item(StateScheduled)
	c.Item(StateCompleted)
	c.Item(StateCompleted)
	c.ObserveItem(time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.PuppetSteps.WithLabelValues("simulation")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.Items.WithLabelValues(StateCompleted)))
	assert.Equal(t, 1, testutil.CollectAndCount(c.ItemDuration))

	_, err = New(registry)
	assert.Error(t, err)
}

func TestCollectors_Nil(t *testing.T) {
	var c *Collectors
	c.ObserveStep("x", time.Second)
	c.Item(StateFailed)
	c.ObserveItem(time.Second)

	unregistered, err := New(nil)
	require.NoError(t, err)
	unregistered.Item(StateFailed)
	assert.Equal(t, 1.0, testutil.ToFloat64(unregistered.Items.WithLabelValues(StateFailed)))
}
