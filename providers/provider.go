// Package providers adapts cross-chain liquidity providers to one quote,
// transaction and status model.
package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stablehop/stablehop/clients"
	"github.com/stablehop/stablehop/internal/httpclient"
	"github.com/stablehop/stablehop/logger"
	"github.com/stablehop/stablehop/types"
	"github.com/stablehop/stablehop/utils"
)

// Provider is implemented by every adapter. Quote and BuildTransaction return
// (nil, nil) when the provider has no route; Status never fails and reports
// errors as an unknown status.
type Provider interface {
	Name() types.ProviderName
	Quote(ctx context.Context, params types.QuoteParams) (*types.BridgeQuote, error)
	BuildTransaction(ctx context.Context, params types.QuoteParams) (*types.BridgeTransaction, error)
	Status(ctx context.Context, ref types.StatusRef) types.BridgeStatus
}

// PlaceholderGasUSD is charged per submitted call for providers that do not
// price gas.
var PlaceholderGasUSD = decimal.New(5, -1)

// Config is shared by the HTTP adapters.
type Config struct {
	BaseURL     string
	APIKey      string
	Integrator  string
	Destination types.Destination
	Timeout     time.Duration
	Logger      logger.Logger
	// HTTPOptions are appended after the adapter defaults.
	HTTPOptions []httpclient.ClientOption
}

func (c Config) httpClient(defaultBaseURL string, extra ...httpclient.ClientOption) *httpclient.HTTPClient {
	base := c.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	opts := []httpclient.ClientOption{
		httpclient.WithBaseURL(base),
		httpclient.WithTimeout(timeout),
		httpclient.WithLogger(c.Logger),
	}
	opts = append(opts, extra...)
	opts = append(opts, c.HTTPOptions...)
	return httpclient.NewHTTPClient(opts...)
}

// maxMessageLen bounds provider messages copied into errors.
const maxMessageLen = 160

// errorBody is the union of the error fields providers use.
type errorBody struct {
	Message      string          `json:"message"`
	ErrorMessage string          `json:"errorMessage"`
	Code         json.RawMessage `json:"code"`
	ErrorCode    json.RawMessage `json:"errorCode"`
	ErrorID      string          `json:"errorId"`
}

func (b errorBody) text() string {
	msg := b.Message
	if msg == "" {
		msg = b.ErrorMessage
	}
	if len(msg) > maxMessageLen {
		msg = msg[:maxMessageLen] + "..."
	}
	return msg
}

// codeString renders a numeric or string code field.
func codeString(raw json.RawMessage) string {
	return strings.Trim(string(raw), `"`)
}

func parseErrorBody(err error) (int, errorBody) {
	var body errorBody
	httpErr, ok := httpclient.AsHTTPError(err)
	if !ok {
		return 0, body
	}
	_ = json.Unmarshal(httpErr.Body, &body)
	return httpErr.StatusCode, body
}

// unavailable converts a transport or decode failure into a typed error
// without copying raw bodies.
func unavailable(provider types.ProviderName, op string, err error) error {
	status, body := parseErrorBody(err)
	msg := op + " failed"
	switch {
	case status != 0 && body.text() != "":
		msg = fmt.Sprintf("%s (status %d: %s)", msg, status, body.text())
	case status != 0:
		msg = fmt.Sprintf("%s (status %d)", msg, status)
	}
	return types.NewProviderUnavailable(provider, msg, err)
}

func malformed(provider types.ProviderName, op string, err error) error {
	return types.NewProviderUnavailable(provider, op+": malformed response", err)
}

// approvalFor returns the allowance a contract call needs, or nil for native
// input.
func approvalFor(token, spender string, amount *big.Int) (*types.Approval, error) {
	if utils.IsNativeToken(token) {
		return nil, nil
	}
	data, err := clients.PackApprove(spender, amount)
	if err != nil {
		return nil, err
	}
	return &types.Approval{
		Token:   token,
		Spender: spender,
		Amount:  amount.String(),
		Data:    data,
	}, nil
}

// applySlippage returns amount reduced by bps basis points, rounded down.
func applySlippage(amount *big.Int, bps int) *big.Int {
	out := new(big.Int).Mul(amount, big.NewInt(int64(10_000-bps)))
	return out.Quo(out, big.NewInt(10_000))
}

// sumUSD adds USD figures. A missing or malformed figure is an error so an
// unpriced route never looks free.
func sumUSD(values ...string) (decimal.Decimal, error) {
	if len(values) == 0 {
		return decimal.Zero, errors.New("missing gas cost")
	}
	total := decimal.Zero
	for _, v := range values {
		if v == "" {
			return decimal.Zero, errors.New("missing gas cost")
		}
		d, err := utils.ParseUSD(v)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(d)
	}
	return total, nil
}

// valueString normalises a provider tx value (hex or decimal) to decimal.
func valueString(v string) (string, error) {
	n, err := utils.ParseHexOrDecimal(v)
	if err != nil {
		return "", err
	}
	return n.String(), nil
}

func slippageFraction(bps int) string {
	return decimal.New(int64(bps), -4).String()
}

func decimalFromInt(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}
