// Package autopay pays HTTP 402 challenges with signed EIP-3009
// authorizations and replays the request with a payment proof.
package autopay

import (
	"bytes"
	"context"
	"io"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/stablehop/stablehop/clients"
	"github.com/stablehop/stablehop/logger"
	"github.com/stablehop/stablehop/metrics"
	"github.com/stablehop/stablehop/settlement"
	"github.com/stablehop/stablehop/signer"
	"github.com/stablehop/stablehop/types"
	"github.com/stablehop/stablehop/utils"
)

const (
	HeaderPaymentRequired = "X-Payment-Required"
	HeaderPayment         = "X-Payment"

	scope           = "autopay"
	maxChallengeLen = 1 << 20
)

// Config controls when and how much the client pays.
type Config struct {
	Enabled          bool
	PreferredNetwork types.Network
	// MaxAmountPerRequest is the ceiling in token base units. Nil means no
	// ceiling.
	MaxAmountPerRequest *big.Int
}

type Client struct {
	cfg      Config
	base     http.RoundTripper
	signer   *signer.Signer
	settler  settlement.Settler
	balances clients.BalanceReader
	nonces   clients.NonceChecker
	logger   logger.Logger
	metrics  metrics.Recorder
	now      func() time.Time
	timeout  time.Duration

	mu       sync.RWMutex
	handlers []Handler
}

var _ http.RoundTripper = (*Client)(nil)

type Option func(*Client)

func WithSigner(s *signer.Signer) Option {
	return func(c *Client) {
		c.signer = s
	}
}

func WithSettler(s settlement.Settler) Option {
	return func(c *Client) {
		c.settler = s
	}
}

func WithBalanceReader(r clients.BalanceReader) Option {
	return func(c *Client) {
		c.balances = r
	}
}

// WithNonceChecker enables an on-chain check that a server-supplied nonce
// has not been consumed yet.
func WithNonceChecker(n clients.NonceChecker) Option {
	return func(c *Client) {
		c.nonces = n
	}
}

// WithTransport sets the transport used for the protected requests.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.base = rt
	}
}

func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		c.logger = logger.OrNoop(l)
	}
}

func WithMetrics(r metrics.Recorder) Option {
	return func(c *Client) {
		c.metrics = metrics.OrNoop(r)
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// WithTimeout bounds requests sent through Do.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.PreferredNetwork == "" {
		cfg.PreferredNetwork = types.NetworkPlasma
	}
	c := &Client{
		cfg:     cfg,
		base:    http.DefaultTransport,
		logger:  logger.NoopLogger{},
		metrics: metrics.NoopRecorder{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ChoosePaymentOption applies ChoosePaymentOption with the configured
// preferred network.
func (c *Client) ChoosePaymentOption(options []types.PaymentOption) *types.PaymentOption {
	return ChoosePaymentOption(options, c.cfg.PreferredNetwork)
}

// Do sends req through the paying transport.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	hc := &http.Client{Transport: c, Timeout: c.timeout}
	return hc.Do(req)
}

// RoundTrip sends req and, on a 402 it can parse and pay, replays it once
// with the payment receipt. A 402 on the replay is returned as is.
func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	req, err := rewindable(req)
	if err != nil {
		return nil, err
	}

	resp, err := c.base.RoundTrip(req)
	if err != nil || resp.StatusCode != http.StatusPaymentRequired || !c.cfg.Enabled {
		return resp, err
	}

	challenge, err := readChallenge(resp)
	if err != nil {
		c.logger.Warn("unparseable payment challenge", map[string]any{
			"url":   req.URL.String(),
			"error": err,
		})
		return resp, nil
	}

	receipt, err := c.Pay(req.Context(), *challenge)
	if err != nil {
		resp.Body.Close()
		return nil, err
	}

	proof, err := utils.EncodeBase64JSON(receipt)
	if err != nil {
		resp.Body.Close()
		return nil, err
	}

	retry := req.Clone(req.Context())
	if req.GetBody != nil {
		if retry.Body, err = req.GetBody(); err != nil {
			resp.Body.Close()
			return nil, err
		}
	}
	retry.Header.Set(HeaderPayment, proof)
	resp.Body.Close()

	c.logger.Debug("replaying request with payment", map[string]any{
		"url":       req.URL.String(),
		"invoiceId": receipt.InvoiceID,
	})
	return c.base.RoundTrip(retry)
}

// rewindable returns a request whose body can be replayed. A body without
// GetBody is buffered into a clone; the caller's request is left untouched
// apart from its body being consumed and closed.
func rewindable(req *http.Request) (*http.Request, error) {
	if req.Body == nil || req.Body == http.NoBody || req.GetBody != nil {
		return req, nil
	}
	body, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, err
	}

	out := req.Clone(req.Context())
	out.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	out.Body, _ = out.GetBody()
	out.ContentLength = int64(len(body))
	return out, nil
}

// readChallenge parses the 402 document from the header or, failing that,
// the body. The body stays readable for the caller.
func readChallenge(resp *http.Response) (*types.PaymentRequired, error) {
	if h := resp.Header.Get(HeaderPaymentRequired); h != "" {
		if pr, err := utils.ParsePaymentRequiredHeader(h); err == nil {
			return pr, nil
		}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxChallengeLen))
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	return utils.ParsePaymentRequired(raw)
}

// Pay settles one invoice. The amount ceiling and the balance are checked
// before anything is signed.
func (c *Client) Pay(ctx context.Context, pr types.PaymentRequired) (receipt *types.PaymentReceipt, err error) {
	start := c.now()
	c.emit(ctx, Event{Type: EventPaymentRequired, InvoiceID: pr.InvoiceID})

	var opt *types.PaymentOption
	defer func() {
		labels := map[string]string{metrics.LabelScope: scope}
		c.metrics.ObserveLatency("pay", c.now().Sub(start), labels)
		if err != nil {
			c.metrics.IncCounter("payment_failed", labels)
			c.emit(ctx, Event{Type: EventPaymentFailed, InvoiceID: pr.InvoiceID, Option: opt, Err: err})
			c.logger.Error("payment failed", map[string]any{"invoiceId": pr.InvoiceID, "error": err})
			return
		}
		c.metrics.IncCounter("payment_settled", labels)
	}()

	if err := utils.ValidateStruct(&pr); err != nil {
		return nil, types.NewError(types.ErrCodeInvalidPaymentRequired, "%v", err)
	}

	opt = c.ChoosePaymentOption(pr.PaymentOptions)
	if opt == nil {
		return nil, types.NewError(types.ErrCodeUnsupportedScheme, "no payment option with a supported scheme")
	}
	if err := utils.ValidateStruct(opt); err != nil {
		return nil, types.NewError(types.ErrCodeInvalidPaymentRequired, "%v", err)
	}

	amount, err := utils.ParseUint256(opt.Amount)
	if err != nil || amount.Sign() == 0 {
		return nil, types.NewError(types.ErrCodeInvalidPaymentRequired, "invalid amount %q", opt.Amount)
	}
	if err := c.checkGuards(ctx, opt, amount); err != nil {
		return nil, err
	}

	auth, err := c.authorize(ctx, opt, amount)
	if err != nil {
		return nil, err
	}
	c.emit(ctx, Event{Type: EventPaymentSigned, InvoiceID: pr.InvoiceID, Option: opt})

	if c.settler == nil {
		return nil, types.NewNotConfigured("settlement facilitator")
	}
	settled, err := c.settler.Settle(ctx, settlement.SettleRequest{
		InvoiceID:     pr.InvoiceID,
		Authorization: auth.EIP3009Authorization,
		Scheme:        opt.Scheme,
	})
	if err != nil {
		return nil, err
	}

	receipt = &types.PaymentReceipt{
		InvoiceID: pr.InvoiceID,
		TxHash:    settled.TxHash,
		Timestamp: c.now().Unix(),
		Amount:    amount.String(),
		Token:     opt.Asset,
		Network:   opt.Network,
	}
	c.emit(ctx, Event{Type: EventPaymentSettled, InvoiceID: pr.InvoiceID, Option: opt, Receipt: receipt})
	c.logger.Info("payment settled", map[string]any{
		"invoiceId": pr.InvoiceID,
		"network":   opt.Network.String(),
		"amount":    receipt.Amount,
		"txHash":    receipt.TxHash,
	})
	return receipt, nil
}

func (c *Client) checkGuards(ctx context.Context, opt *types.PaymentOption, amount *big.Int) error {
	if max := c.cfg.MaxAmountPerRequest; max != nil && amount.Cmp(max) > 0 {
		return types.NewAmountExceedsMax(amount.String(), max.String())
	}

	if c.signer == nil {
		return types.NewNotConfigured("signer")
	}
	owner, err := c.signer.Address()
	if err != nil {
		return err
	}
	if c.balances == nil {
		return types.NewNotConfigured("balance reader")
	}
	balance, err := c.balances.BalanceOf(ctx, opt.Network, opt.Asset, owner.Hex())
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return types.NewInsufficientBalance(amount.String(), balance.String())
	}
	return nil
}
