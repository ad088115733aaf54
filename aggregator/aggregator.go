// Package aggregator fans quote requests out to every provider, ranks the
// answers and routes transaction and status calls back to the provider that
// issued a route.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stablehop/stablehop/logger"
	"github.com/stablehop/stablehop/metrics"
	"github.com/stablehop/stablehop/providers"
	"github.com/stablehop/stablehop/types"
	"github.com/stablehop/stablehop/utils"
)

const scope = "aggregator"

// ProviderError records a provider that failed during a fan-out.
type ProviderError struct {
	Provider types.ProviderName `json:"provider"`
	Err      error              `json:"-"`
	Message  string             `json:"error"`
}

// QuoteResult is the outcome of GetQuotes. Best is nil when no provider
// returned a quote.
type QuoteResult struct {
	RequestID string               `json:"requestId"`
	Best      *types.BridgeQuote   `json:"best,omitempty"`
	All       []*types.BridgeQuote `json:"all"`
	Errors    []ProviderError      `json:"errors,omitempty"`
}

type Aggregator struct {
	providers    []providers.Provider
	byName       map[types.ProviderName]providers.Provider
	timeout      time.Duration
	tieThreshold decimal.Decimal
	logger       logger.Logger
	metrics      metrics.Recorder
	sleep        func(ctx context.Context, d time.Duration) error
}

// New registers providers in the given order. A later provider with a
// duplicate name is ignored.
func New(ps []providers.Provider, opts ...Option) *Aggregator {
	a := &Aggregator{
		byName:       make(map[types.ProviderName]providers.Provider, len(ps)),
		timeout:      DefaultProviderTimeout,
		tieThreshold: DefaultTieThreshold,
		logger:       logger.NoopLogger{},
		metrics:      metrics.NoopRecorder{},
		sleep:        sleepContext,
	}
	for _, opt := range opts {
		opt(a)
	}
	for _, p := range ps {
		if p == nil {
			continue
		}
		if _, dup := a.byName[p.Name()]; dup {
			a.logger.Warn("duplicate provider ignored", map[string]any{"provider": p.Name().String()})
			continue
		}
		a.byName[p.Name()] = p
		a.providers = append(a.providers, p)
	}
	return a
}

// Providers lists the registered provider names in registration order.
func (a *Aggregator) Providers() []types.ProviderName {
	names := make([]types.ProviderName, len(a.providers))
	for i, p := range a.providers {
		names[i] = p.Name()
	}
	return names
}

type quoteOutcome struct {
	index int
	quote *types.BridgeQuote
	err   error
}

// GetQuotes asks every provider concurrently and waits for all of them, each
// bounded by the per-provider timeout. Provider failures are reported in the
// result, never as an error; the error is reserved for invalid params.
func (a *Aggregator) GetQuotes(ctx context.Context, params types.QuoteParams) (*QuoteResult, error) {
	if err := utils.ValidateQuoteParams(params); err != nil {
		return nil, err
	}

	start := time.Now()
	result := &QuoteResult{RequestID: uuid.NewString(), All: []*types.BridgeQuote{}}
	outcomes := make([]quoteOutcome, len(a.providers))

	var wg sync.WaitGroup
	for i, p := range a.providers {
		wg.Add(1)
		go func(i int, p providers.Provider) {
			defer wg.Done()
			q, err := a.callQuote(ctx, p, params)
			outcomes[i] = quoteOutcome{index: i, quote: q, err: err}
		}(i, p)
	}
	wg.Wait()

	ranked := make([]rankedQuote, 0, len(outcomes))
	for _, o := range outcomes {
		p := a.providers[o.index]
		switch {
		case o.err != nil:
			a.metrics.IncCounter("quote_error", map[string]string{metrics.LabelScope: p.Name().String()})
			a.logger.Warn("provider quote failed", map[string]any{
				"requestId": result.RequestID,
				"provider":  p.Name().String(),
				"error":     o.err,
			})
			result.Errors = append(result.Errors, ProviderError{Provider: p.Name(), Err: o.err, Message: o.err.Error()})
		case o.quote == nil:
			a.metrics.IncCounter("no_route", map[string]string{metrics.LabelScope: p.Name().String()})
		default:
			amount, err := o.quote.ToAmountInt()
			if err != nil {
				err = types.NewProviderUnavailable(p.Name(), "quote: malformed amount", err)
				result.Errors = append(result.Errors, ProviderError{Provider: p.Name(), Err: err, Message: err.Error()})
				continue
			}
			a.metrics.IncCounter("quote", map[string]string{metrics.LabelScope: p.Name().String()})
			ranked = append(ranked, rankedQuote{quote: o.quote, amount: amount, order: o.index})
		}
	}

	result.Best = pickBest(ranked, a.tieThreshold)
	result.All = rank(ranked)

	a.metrics.ObserveLatency("get_quotes", time.Since(start), map[string]string{metrics.LabelScope: scope})
	fields := map[string]any{
		"requestId": result.RequestID,
		"quotes":    len(result.All),
		"errors":    len(result.Errors),
	}
	if result.Best != nil {
		fields["best"] = result.Best.Provider.String()
		fields["toAmount"] = result.Best.ToAmount
	}
	a.logger.Info("quotes collected", fields)
	return result, nil
}

// callQuote races one provider against its own deadline. A provider that
// ignores ctx is abandoned at the deadline and its late result dropped;
// panics and overruns become ProviderUnavailable errors.
func (a *Aggregator) callQuote(ctx context.Context, p providers.Provider, params types.QuoteParams) (*types.BridgeQuote, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	type outcome struct {
		quote *types.BridgeQuote
		err   error
	}
	done := make(chan outcome, 1)
	start := time.Now()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: types.NewProviderUnavailable(p.Name(), fmt.Sprintf("quote panicked: %v", r), nil)}
			}
		}()
		q, err := p.Quote(ctx, params)
		done <- outcome{quote: q, err: err}
	}()

	var res outcome
	select {
	case res = <-done:
	case <-ctx.Done():
		a.metrics.ObserveLatency("provider_quote", time.Since(start), map[string]string{metrics.LabelScope: p.Name().String()})
		return nil, types.NewProviderUnavailable(p.Name(), "quote timed out", ctx.Err())
	}
	a.metrics.ObserveLatency("provider_quote", time.Since(start), map[string]string{metrics.LabelScope: p.Name().String()})

	if res.err != nil {
		var typed *types.Error
		if !errors.As(res.err, &typed) {
			return nil, types.NewProviderUnavailable(p.Name(), "quote failed", res.err)
		}
		return nil, res.err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, types.NewProviderUnavailable(p.Name(), "quote timed out", ctxErr)
	}
	return res.quote, nil
}

// GetQuickQuote returns the first non-nil quote any provider produces and
// cancels the rest. It returns nil when every provider fails or has no route.
func (a *Aggregator) GetQuickQuote(ctx context.Context, params types.QuoteParams) *types.BridgeQuote {
	if err := utils.ValidateQuoteParams(params); err != nil {
		a.logger.Warn("quick quote rejected", map[string]any{"error": err})
		return nil
	}
	if len(a.providers) == 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan *types.BridgeQuote, len(a.providers))
	for _, p := range a.providers {
		go func(p providers.Provider) {
			q, err := a.callQuote(ctx, p, params)
			if err != nil {
				a.logger.Debug("quick quote provider failed", map[string]any{"provider": p.Name().String(), "error": err})
			}
			results <- q
		}(p)
	}

	for range a.providers {
		if q := <-results; q != nil {
			a.logger.Info("quick quote", map[string]any{"provider": q.Provider.String(), "toAmount": q.ToAmount})
			return q
		}
	}
	return nil
}

func (a *Aggregator) provider(name types.ProviderName) (providers.Provider, error) {
	p, ok := a.byName[name]
	if !ok {
		return nil, types.NewUnknownProvider(name)
	}
	return p, nil
}

// GetTransaction builds the executable transaction for a route on the named
// provider. It returns a NO_ROUTE error when the provider no longer has one.
func (a *Aggregator) GetTransaction(ctx context.Context, name types.ProviderName, params types.QuoteParams) (*types.BridgeTransaction, error) {
	p, err := a.provider(name)
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateQuoteParams(params); err != nil {
		return nil, err
	}

	start := time.Now()
	tx, err := p.BuildTransaction(ctx, params)
	a.metrics.ObserveLatency("build_transaction", time.Since(start), map[string]string{metrics.LabelScope: name.String()})
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, &types.Error{Code: types.ErrCodeNoRoute, Message: "no route for transaction", Provider: name}
	}
	return tx, nil
}

// GetStatus asks the named provider for the state of an order.
func (a *Aggregator) GetStatus(ctx context.Context, name types.ProviderName, ref types.StatusRef) (types.BridgeStatus, error) {
	p, err := a.provider(name)
	if err != nil {
		return types.BridgeStatus{}, err
	}
	return p.Status(ctx, ref), nil
}

// WaitForCompletion polls the named provider until the order is terminal.
// After MaxAttempts polls it returns an unknown "timeout" status together
// with a TIMEOUT error.
func (a *Aggregator) WaitForCompletion(ctx context.Context, name types.ProviderName, ref types.StatusRef, opts WaitOptions) (types.BridgeStatus, error) {
	p, err := a.provider(name)
	if err != nil {
		return types.BridgeStatus{}, err
	}
	opts = opts.withDefaults()

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		status := p.Status(ctx, ref)
		if opts.OnStatus != nil {
			opts.OnStatus(status, attempt)
		}
		if status.State.IsTerminal() {
			a.metrics.IncCounter("order_"+string(status.State), map[string]string{metrics.LabelScope: name.String()})
			a.logger.Info("order reached terminal state", map[string]any{
				"provider": name.String(),
				"routeId":  ref.RouteID,
				"status":   string(status.State),
				"attempts": attempt,
			})
			return status, nil
		}
		if attempt == opts.MaxAttempts {
			break
		}
		if err := a.sleep(ctx, opts.Interval); err != nil {
			return status, err
		}
	}

	a.metrics.IncCounter("order_timeout", map[string]string{metrics.LabelScope: name.String()})
	return types.UnknownStatus("timeout"), types.NewTimeout(opts.MaxAttempts)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
