package stablehop

import (
	"time"

	"github.com/stablehop/stablehop/clients"
	"github.com/stablehop/stablehop/logger"
	"github.com/stablehop/stablehop/metrics"
	"github.com/stablehop/stablehop/providers"
	"github.com/stablehop/stablehop/settlement"
	"github.com/stablehop/stablehop/signer"
)

type options struct {
	logger    logger.Logger
	metrics   metrics.Recorder
	timeout   time.Duration
	backend   signer.TypedDataSigner
	balances  clients.BalanceReader
	settler   settlement.Settler
	providers []providers.Provider
}

type Option func(*options)

func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func WithMetrics(r metrics.Recorder) Option {
	return func(o *options) {
		o.metrics = r
	}
}

// WithTimeout overrides the per-provider quote timeout.
func WithTimeout(t time.Duration) Option {
	return func(o *options) {
		o.timeout = t
	}
}

// WithSigningBackend supplies the key holder instead of the configured keystore.
func WithSigningBackend(b signer.TypedDataSigner) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithBalanceReader replaces the RPC-backed balance reader.
func WithBalanceReader(r clients.BalanceReader) Option {
	return func(o *options) {
		o.balances = r
	}
}

// WithSettler replaces the HTTP facilitator client.
func WithSettler(s settlement.Settler) Option {
	return func(o *options) {
		o.settler = s
	}
}

// WithProviders replaces the configured provider adapters.
func WithProviders(ps ...providers.Provider) Option {
	return func(o *options) {
		o.providers = ps
	}
}
