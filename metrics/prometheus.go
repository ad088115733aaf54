package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type PrometheusRecorder struct {
	counters  *prometheus.CounterVec
	histogram *prometheus.HistogramVec
}

// NewPrometheusRecorder registers the stablehop collectors on reg. A nil reg
// uses the default registerer.
func NewPrometheusRecorder(reg prometheus.Registerer) (*PrometheusRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	counters := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stablehop",
			Name:      "events_total",
			Help:      "stablehop event counters",
		},
		[]string{"type", LabelScope},
	)

	histogram := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "stablehop",
			Name:      "latency_seconds",
			Help:      "stablehop operation latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation", LabelScope},
	)

	for _, c := range []prometheus.Collector{counters, histogram} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return &PrometheusRecorder{
		counters:  counters,
		histogram: histogram,
	}, nil
}

func (p *PrometheusRecorder) IncCounter(name string, labels map[string]string) {
	p.counters.With(prometheus.Labels{
		"type":     name,
		LabelScope: labels[LabelScope],
	}).Inc()
}

func (p *PrometheusRecorder) ObserveLatency(name string, d time.Duration, labels map[string]string) {
	p.histogram.With(prometheus.Labels{
		"operation": name,
		LabelScope:  labels[LabelScope],
	}).Observe(d.Seconds())
}
