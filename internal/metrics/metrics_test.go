package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveProviderCall(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveProviderCall("gpt-4o", "openai", 120*time.Millisecond, true)
	m.ObserveProviderCall("gpt-4o", "openai", 80*time.Millisecond, true)
	m.ObserveProviderCall("deepseek-v3", "together", 2*time.Second, false)

	assert.Equal(t, float64(2), testutil.ToFloat64(
		m.providerCalls.WithLabelValues("gpt-4o", "openai", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(
		m.providerCalls.WithLabelValues("deepseek-v3", "together", "error")))
	assert.Equal(t, float64(0), testutil.ToFloat64(
		m.providerCalls.WithLabelValues("gpt-4o", "openai", "error")))

	assert.Equal(t, 2, testutil.CollectAndCount(m.providerLatency),
		"one latency series per provider label")
}
