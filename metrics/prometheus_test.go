package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorderCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusRecorder(reg)
	require.NoError(t, err)

	rec.IncCounter("quote_success", map[string]string{LabelScope: "lifi"})
	rec.IncCounter("quote_success", map[string]string{LabelScope: "lifi"})
	rec.IncCounter("quote_failure", map[string]string{LabelScope: "relay"})
	rec.ObserveLatency("quote", 120*time.Millisecond, map[string]string{LabelScope: "lifi"})

	assert.Equal(t, 2.0, testutil.ToFloat64(rec.counters.WithLabelValues("quote_success", "lifi")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.counters.WithLabelValues("quote_failure", "relay")))
	assert.Equal(t, 1, testutil.CollectAndCount(rec.histogram))
}

func TestPrometheusRecorderDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPrometheusRecorder(reg)
	require.NoError(t, err)

	_, err = NewPrometheusRecorder(reg)
	assert.Error(t, err)
}
