// Package settlement submits signed authorizations to a settlement
// facilitator.
package settlement

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/stablehop/stablehop/internal/httpclient"
	"github.com/stablehop/stablehop/logger"
	"github.com/stablehop/stablehop/types"
)

const (
	settlePath         = "/api/v1/settle"
	paymentSubmitted   = "payment-submitted"
	defaultSettleLimit = 30 * time.Second
)

// Facilitator codes that mean the authorization itself was rejected.
var signatureCodes = map[string]bool{
	"INVALID_SIGNATURE":     true,
	"SIGNATURE_MISMATCH":    true,
	"INVALID_AUTHORIZATION": true,
}

// Settler submits a payment for settlement.
type Settler interface {
	Settle(ctx context.Context, req SettleRequest) (*SettleResponse, error)
}

// SettleRequest is the payment-submitted message.
type SettleRequest struct {
	Type          string                     `json:"type"`
	InvoiceID     string                     `json:"invoiceId"`
	Authorization types.EIP3009Authorization `json:"authorization"`
	Scheme        types.PaymentScheme        `json:"scheme"`
}

// SettleResponse is a successful settlement.
type SettleResponse struct {
	TxHash string `json:"txHash"`
}

type errorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// FacilitatorClient talks to a facilitator over HTTP. Settlement is never
// retried.
type FacilitatorClient struct {
	http   *httpclient.HTTPClient
	logger logger.Logger
}

var _ Settler = (*FacilitatorClient)(nil)

type Option func(*facilitatorOptions)

type facilitatorOptions struct {
	timeout time.Duration
	logger  logger.Logger
	http    []httpclient.ClientOption
}

func WithTimeout(d time.Duration) Option {
	return func(o *facilitatorOptions) {
		o.timeout = d
	}
}

func WithLogger(l logger.Logger) Option {
	return func(o *facilitatorOptions) {
		o.logger = l
	}
}

// WithHTTPOptions appends options to the underlying HTTP client.
func WithHTTPOptions(opts ...httpclient.ClientOption) Option {
	return func(o *facilitatorOptions) {
		o.http = append(o.http, opts...)
	}
}

func NewFacilitatorClient(baseURL string, opts ...Option) *FacilitatorClient {
	o := facilitatorOptions{timeout: defaultSettleLimit}
	for _, opt := range opts {
		opt(&o)
	}
	httpOpts := []httpclient.ClientOption{
		httpclient.WithBaseURL(baseURL),
		httpclient.WithTimeout(o.timeout),
		httpclient.WithRetryConfig(nil),
		httpclient.WithLogger(o.logger),
	}
	return &FacilitatorClient{
		http:   httpclient.NewHTTPClient(append(httpOpts, o.http...)...),
		logger: logger.OrNoop(o.logger),
	}
}

// Settle posts the authorization and returns the settlement transaction.
func (c *FacilitatorClient) Settle(ctx context.Context, req SettleRequest) (*SettleResponse, error) {
	if req.Type == "" {
		req.Type = paymentSubmitted
	}
	if err := validateSettleRequest(req); err != nil {
		return nil, err
	}

	var out SettleResponse
	err := c.http.PostJSON(ctx, settlePath, req, &out)
	if err != nil {
		return nil, c.classify(req.InvoiceID, err)
	}
	if out.TxHash == "" {
		return nil, types.NewError(types.ErrCodeFacilitatorError, "facilitator returned no transaction hash")
	}

	c.logger.Info("payment settled", map[string]any{
		"invoiceId": req.InvoiceID,
		"txHash":    out.TxHash,
	})
	return &out, nil
}

func (c *FacilitatorClient) classify(invoiceID string, err error) error {
	httpErr, ok := httpclient.AsHTTPError(err)
	if !ok {
		return &types.Error{Code: types.ErrCodeFacilitatorError, Message: "settlement request failed", Cause: err}
	}

	var body errorResponse
	_ = json.Unmarshal(httpErr.Body, &body)
	msg := body.Message
	if msg == "" {
		msg = httpErr.Status
	}

	code := types.ErrCodeFacilitatorError
	if signatureCodes[strings.ToUpper(body.Code)] || strings.Contains(strings.ToLower(msg), "signature") {
		code = types.ErrCodeInvalidSignature
	}

	c.logger.Warn("settlement rejected", map[string]any{
		"invoiceId": invoiceID,
		"status":    httpErr.StatusCode,
		"code":      body.Code,
	})
	return &types.Error{
		Code:    code,
		Message: msg,
		Data:    map[string]any{"status": httpErr.StatusCode, "code": body.Code},
		Cause:   err,
	}
}

func validateSettleRequest(req SettleRequest) error {
	switch {
	case req.InvoiceID == "":
		return types.NewError(types.ErrCodeInvalidParams, "invoice id is required")
	case req.Authorization.Signature == "":
		return types.NewError(types.ErrCodeInvalidParams, "authorization is not signed")
	case req.Scheme != types.SchemeTransferWithAuthorization && req.Scheme != types.SchemeGaslessRouter:
		return types.NewError(types.ErrCodeUnsupportedScheme, "unsupported scheme %q", req.Scheme)
	}
	return nil
}
