package aggregator

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/stablehop/stablehop/logger"
	"github.com/stablehop/stablehop/metrics"
	"github.com/stablehop/stablehop/types"
)

const (
	DefaultProviderTimeout = 5 * time.Second
	DefaultMaxAttempts     = 60
	DefaultPollInterval    = 5 * time.Second
)

// DefaultTieThreshold is the relative output difference (0.1%) under which
// two quotes are considered equal and gas decides.
var DefaultTieThreshold = decimal.New(1, -3)

type Option func(*Aggregator)

// WithTimeout bounds each provider call of a fan-out.
func WithTimeout(d time.Duration) Option {
	return func(a *Aggregator) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// WithTieThreshold overrides the relative tie threshold.
func WithTieThreshold(threshold decimal.Decimal) Option {
	return func(a *Aggregator) {
		if !threshold.IsNegative() {
			a.tieThreshold = threshold
		}
	}
}

func WithLogger(l logger.Logger) Option {
	return func(a *Aggregator) {
		a.logger = logger.OrNoop(l)
	}
}

func WithMetrics(r metrics.Recorder) Option {
	return func(a *Aggregator) {
		a.metrics = metrics.OrNoop(r)
	}
}

// WaitOptions controls WaitForCompletion. Zero values take the defaults.
type WaitOptions struct {
	MaxAttempts int
	Interval    time.Duration
	// OnStatus is called after every poll with the 1-based attempt number.
	OnStatus func(status types.BridgeStatus, attempt int)
}

func (o WaitOptions) withDefaults() WaitOptions {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.Interval <= 0 {
		o.Interval = DefaultPollInterval
	}
	return o
}
