// Package stablehop converts tokens on any supported chain into a target
// stablecoin through the best available bridge route, and pays HTTP 402
// challenges with gasless EIP-3009 authorizations.
package stablehop

import (
	"context"
	"fmt"

	"github.com/stablehop/stablehop/aggregator"
	"github.com/stablehop/stablehop/autopay"
	"github.com/stablehop/stablehop/clients"
	"github.com/stablehop/stablehop/config"
	"github.com/stablehop/stablehop/logger"
	"github.com/stablehop/stablehop/metrics"
	"github.com/stablehop/stablehop/providers"
	"github.com/stablehop/stablehop/settlement"
	"github.com/stablehop/stablehop/signer"
	"github.com/stablehop/stablehop/types"
)

// Version information
const Version = "0.3.0"

// Kit wires the aggregator and the auto-pay client from one configuration.
type Kit struct {
	Aggregator *aggregator.Aggregator
	AutoPay    *autopay.Client
	Signer     *signer.Signer

	cfg     *config.Config
	chains  *clients.MultiChain
	logger  logger.Logger
	metrics metrics.Recorder
}

// New builds a Kit. Components whose collaborators are missing (no keystore,
// no RPC, no facilitator) are still created and fail with NOT_CONFIGURED
// when used.
func New(cfg *config.Config, opts ...Option) (*Kit, error) {
	if cfg == nil {
		return nil, types.NewNotConfigured("config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	k := &Kit{
		cfg:     cfg,
		chains:  clients.NewMultiChain(),
		logger:  logger.OrNoop(o.logger),
		metrics: metrics.OrNoop(o.metrics),
	}

	ps := o.providers
	if ps == nil {
		ps = k.providersFromConfig()
	}
	threshold, err := cfg.Aggregator.Threshold()
	if err != nil {
		return nil, types.NewError(types.ErrCodeInvalidParams, "invalid tie threshold: %v", err)
	}
	timeout := cfg.Aggregator.Timeout
	if o.timeout > 0 {
		timeout = o.timeout
	}
	k.Aggregator = aggregator.New(ps,
		aggregator.WithTimeout(timeout),
		aggregator.WithTieThreshold(threshold),
		aggregator.WithLogger(k.logger),
		aggregator.WithMetrics(k.metrics),
	)

	balances := o.balances
	var nonces clients.NonceChecker
	if balances == nil {
		if err := k.dialNetworks(); err != nil {
			k.Close()
			return nil, err
		}
		balances = k.chains
		nonces = k.chains
	}

	backend := o.backend
	if backend == nil && cfg.Keystore.Dir != "" {
		ks, err := signer.NewKeystoreSigner(cfg.Keystore.Dir, cfg.Keystore.Address, cfg.Keystore.Passphrase)
		if err != nil {
			k.Close()
			return nil, fmt.Errorf("open keystore: %w", err)
		}
		backend = ks
	}
	k.Signer = signer.New(backend, signer.WithLogger(k.logger))

	settler := o.settler
	if settler == nil && cfg.AutoPay.FacilitatorURL != "" {
		settler = settlement.NewFacilitatorClient(cfg.AutoPay.FacilitatorURL,
			settlement.WithTimeout(cfg.AutoPay.Timeout),
			settlement.WithLogger(k.logger),
		)
	}

	payOpts := []autopay.Option{
		autopay.WithSigner(k.Signer),
		autopay.WithBalanceReader(balances),
		autopay.WithLogger(k.logger),
		autopay.WithMetrics(k.metrics),
		autopay.WithTimeout(cfg.AutoPay.Timeout),
	}
	if settler != nil {
		payOpts = append(payOpts, autopay.WithSettler(settler))
	}
	if nonces != nil {
		payOpts = append(payOpts, autopay.WithNonceChecker(nonces))
	}
	k.AutoPay = autopay.NewClient(autopay.Config{
		Enabled:             cfg.AutoPay.Enabled,
		PreferredNetwork:    types.Network(cfg.AutoPay.PreferredNetwork),
		MaxAmountPerRequest: cfg.AutoPay.MaxAmount(),
	}, payOpts...)

	k.logger.Info("stablehop ready", map[string]any{
		"providers": len(k.Aggregator.Providers()),
		"networks":  len(k.chains.Networks()),
		"autopay":   cfg.AutoPay.Enabled,
	})
	return k, nil
}

func (k *Kit) providersFromConfig() []providers.Provider {
	pc := k.cfg.Providers
	base := func(p config.ProviderConfig) providers.Config {
		return providers.Config{
			BaseURL:     p.BaseURL,
			APIKey:      p.APIKey,
			Integrator:  p.Integrator,
			Destination: k.cfg.Destination,
			Timeout:     p.Timeout,
			Logger:      k.logger,
		}
	}

	var ps []providers.Provider
	if pc.LiFi.Enabled {
		ps = append(ps, providers.NewLiFi(base(pc.LiFi)))
	}
	if pc.Relay.Enabled {
		ps = append(ps, providers.NewRelay(base(pc.Relay)))
	}
	if pc.DeBridge.Enabled {
		ps = append(ps, providers.NewDeBridge(base(pc.DeBridge)))
	}
	if pc.NearIntents.Enabled {
		ps = append(ps, providers.NewNearIntents(base(pc.NearIntents)))
	}
	return ps
}

func (k *Kit) dialNetworks() error {
	for _, n := range k.cfg.Networks {
		if n.RPCUrl == "" {
			continue
		}
		client, err := clients.NewEVMClient(n.Network, n.RPCUrl)
		if err != nil {
			return fmt.Errorf("failed to create EVM client for %s: %w", n.Network, err)
		}
		k.chains.Add(client)
	}
	return nil
}

// WaitForCompletion polls with the configured attempt budget and interval.
func (k *Kit) WaitForCompletion(ctx context.Context, provider types.ProviderName, ref types.StatusRef, onStatus func(types.BridgeStatus, int)) (types.BridgeStatus, error) {
	return k.Aggregator.WaitForCompletion(ctx, provider, ref, aggregator.WaitOptions{
		MaxAttempts: k.cfg.Aggregator.MaxAttempts,
		Interval:    k.cfg.Aggregator.PollInterval,
		OnStatus:    onStatus,
	})
}

// Close releases chain connections.
func (k *Kit) Close() {
	k.chains.Close()
}
