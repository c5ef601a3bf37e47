package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestNewCounter_GetOrRegisterIsIdempotent(t *testing.T) {
	c1 := NewCounter("test/counter_idempotent")
	c1.Inc(3)
	c2 := NewCounter("test/counter_idempotent")
	assert.Equal(t, int64(3), c2.Count())
}

func TestNewGauge_GetOrRegisterIsIdempotent(t *testing.T) {
	g1 := NewGauge("test/gauge_idempotent")
	g1.Update(42)
	g2 := NewGauge("test/gauge_idempotent")
	assert.Equal(t, int64(42), g2.Value())
}

func TestSanitize_ReplacesNonAlphanumericWithUnderscore(t *testing.T) {
	assert.Equal(t, "propose_blocks_proposed", sanitize("propose/blocks_proposed"))
	assert.Equal(t, "a_b_c", sanitize("a.b-c"))
}

func TestBridgeCollector_CollectEmitsEveryRegisteredMetric(t *testing.T) {
	NewCounter("test/bridge_counter").Inc(5)
	NewGauge("test/bridge_gauge").Update(9)

	b := bridgeCollector{namespace: "test_ns"}
	ch := make(chan prometheus.Metric, 64)
	b.Collect(ch)
	close(ch)

	var descs []string
	for m := range ch {
		descs = append(descs, m.Desc().String())
	}

	var sawCounter, sawGauge bool
	for _, d := range descs {
		if strings.Contains(d, "test_ns_test_bridge_counter") {
			sawCounter = true
		}
		if strings.Contains(d, "test_ns_test_bridge_gauge") {
			sawGauge = true
		}
	}
	assert.True(t, sawCounter)
	assert.True(t, sawGauge)
}
