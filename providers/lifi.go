package providers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/stablehop/stablehop/internal/httpclient"
	"github.com/stablehop/stablehop/logger"
	"github.com/stablehop/stablehop/types"
	"github.com/stablehop/stablehop/utils"
)

const lifiBaseURL = "https://li.quest"

// LI.FI error codes meaning no quote is available.
var lifiNoRouteCodes = map[string]bool{"1002": true, "1003": true}

// lifiStatusMap maps status or status/substatus to a state.
var lifiStatusMap = map[string]types.StatusState{
	"DONE/COMPLETED": types.StatusCompleted,
	"DONE/PARTIAL":   types.StatusCompleted,
	"DONE/REFUNDED":  types.StatusFailed,
	"DONE":           types.StatusCompleted,
	"FAILED":         types.StatusFailed,
	"INVALID":        types.StatusFailed,
	"PENDING":        types.StatusPending,
	"NOT_FOUND":      types.StatusPending,
}

type lifiToken struct {
	Address string `json:"address"`
}

type lifiQuoteResponse struct {
	ID     string `json:"id"`
	Tool   string `json:"tool"`
	Action struct {
		FromChainID int64     `json:"fromChainId"`
		ToChainID   int64     `json:"toChainId"`
		FromAmount  string    `json:"fromAmount"`
		FromToken   lifiToken `json:"fromToken"`
		ToToken     lifiToken `json:"toToken"`
	} `json:"action"`
	Estimate struct {
		ToAmount          string  `json:"toAmount"`
		ToAmountMin       string  `json:"toAmountMin"`
		ApprovalAddress   string  `json:"approvalAddress"`
		ExecutionDuration float64 `json:"executionDuration"`
		FromAmountUSD     string  `json:"fromAmountUSD"`
		ToAmountUSD       string  `json:"toAmountUSD"`
		GasCosts          []struct {
			AmountUSD string `json:"amountUSD"`
		} `json:"gasCosts"`
	} `json:"estimate"`
	TransactionRequest *struct {
		To      string `json:"to"`
		Data    string `json:"data"`
		Value   string `json:"value"`
		ChainID int64  `json:"chainId"`
	} `json:"transactionRequest"`
}

type lifiStatusResponse struct {
	Status           string `json:"status"`
	Substatus        string `json:"substatus"`
	SubstatusMessage string `json:"substatusMessage"`
	Receiving        struct {
		TxHash string `json:"txHash"`
	} `json:"receiving"`
}

// LiFi adapts the LI.FI aggregation API.
type LiFi struct {
	http        *httpclient.HTTPClient
	integrator  string
	destination types.Destination
	logger      logger.Logger
}

var _ Provider = (*LiFi)(nil)

func NewLiFi(cfg Config) *LiFi {
	var extra []httpclient.ClientOption
	if cfg.APIKey != "" {
		extra = append(extra, httpclient.WithDefaultHeader("x-lifi-api-key", cfg.APIKey))
	}
	return &LiFi{
		http:        cfg.httpClient(lifiBaseURL, extra...),
		integrator:  cfg.Integrator,
		destination: cfg.Destination,
		logger:      logger.OrNoop(cfg.Logger),
	}
}

func (l *LiFi) Name() types.ProviderName {
	return types.ProviderLiFi
}

func (l *LiFi) fetchQuote(ctx context.Context, p types.QuoteParams) (*lifiQuoteResponse, error) {
	opts := []httpclient.RequestOption{
		httpclient.WithQueryParam("fromChain", strconv.FormatInt(p.FromChainID, 10)),
		httpclient.WithQueryParam("toChain", strconv.FormatInt(l.destination.ChainID, 10)),
		httpclient.WithQueryParam("fromToken", p.FromToken),
		httpclient.WithQueryParam("toToken", l.destination.Token),
		httpclient.WithQueryParam("fromAmount", p.FromAmount),
		httpclient.WithQueryParam("fromAddress", p.UserAddress),
		httpclient.WithQueryParam("toAddress", p.RecipientAddress),
		httpclient.WithQueryParam("slippage", slippageFraction(p.Slippage())),
	}
	if l.integrator != "" {
		opts = append(opts, httpclient.WithQueryParam("integrator", l.integrator))
	}

	var out lifiQuoteResponse
	if err := l.http.GetJSON(ctx, "/v1/quote", &out, opts...); err != nil {
		status, body := parseErrorBody(err)
		if status == http.StatusNotFound || lifiNoRouteCodes[codeString(body.Code)] {
			l.logger.Debug("lifi has no route", map[string]any{"status": status, "message": body.text()})
			return nil, nil
		}
		return nil, unavailable(types.ProviderLiFi, "quote", err)
	}
	return &out, nil
}

func (l *LiFi) Quote(ctx context.Context, p types.QuoteParams) (*types.BridgeQuote, error) {
	resp, err := l.fetchQuote(ctx, p)
	if err != nil || resp == nil {
		return nil, err
	}

	quote, err := l.normalize(p, resp)
	if err != nil {
		return nil, malformed(types.ProviderLiFi, "quote", err)
	}
	return quote, nil
}

func (l *LiFi) normalize(p types.QuoteParams, r *lifiQuoteResponse) (*types.BridgeQuote, error) {
	if r.ID == "" {
		return nil, errors.New("missing quote id")
	}
	gas := make([]string, 0, len(r.Estimate.GasCosts))
	for _, g := range r.Estimate.GasCosts {
		gas = append(gas, g.AmountUSD)
	}
	gasUSD, err := sumUSD(gas...)
	if err != nil {
		return nil, fmt.Errorf("gas cost: %w", err)
	}

	quote := &types.BridgeQuote{
		Provider:             types.ProviderLiFi,
		FromChainID:          p.FromChainID,
		FromToken:            p.FromToken,
		FromAmount:           p.FromAmount,
		ToChainID:            l.destination.ChainID,
		ToToken:              l.destination.Token,
		ToAmount:             r.Estimate.ToAmount,
		ToAmountMin:          r.Estimate.ToAmountMin,
		GasUSD:               gasUSD,
		EstimatedTimeSeconds: int64(math.Ceil(r.Estimate.ExecutionDuration)),
		RouteID:              r.ID,
		PriceImpact:          lifiPriceImpact(r.Estimate.FromAmountUSD, r.Estimate.ToAmountUSD),
	}
	if err := quote.Validate(); err != nil {
		return nil, err
	}
	return quote, nil
}

// lifiPriceImpact is 1 - toUSD/fromUSD, or nil when either side is unpriced.
func lifiPriceImpact(fromUSD, toUSD string) *decimal.Decimal {
	from, err := utils.ParseUSD(fromUSD)
	if err != nil || from.IsZero() {
		return nil
	}
	to, err := utils.ParseUSD(toUSD)
	if err != nil || toUSD == "" {
		return nil
	}
	impact := decimal.NewFromInt(1).Sub(to.Div(from))
	return &impact
}

func (l *LiFi) BuildTransaction(ctx context.Context, p types.QuoteParams) (*types.BridgeTransaction, error) {
	resp, err := l.fetchQuote(ctx, p)
	if err != nil || resp == nil {
		return nil, err
	}
	if resp.TransactionRequest == nil || resp.TransactionRequest.To == "" {
		return nil, malformed(types.ProviderLiFi, "transaction", errors.New("missing transactionRequest"))
	}

	value, err := valueString(resp.TransactionRequest.Value)
	if err != nil {
		return nil, malformed(types.ProviderLiFi, "transaction", err)
	}
	chainID := resp.TransactionRequest.ChainID
	if chainID == 0 {
		chainID = p.FromChainID
	}

	tx := &types.BridgeTransaction{
		To:      resp.TransactionRequest.To,
		Data:    resp.TransactionRequest.Data,
		Value:   value,
		ChainID: chainID,
		RouteID: resp.ID,
	}

	spender := resp.Estimate.ApprovalAddress
	if spender == "" {
		spender = resp.TransactionRequest.To
	}
	if tx.Approval, err = approvalFor(p.FromToken, spender, p.Amount()); err != nil {
		return nil, malformed(types.ProviderLiFi, "transaction", err)
	}
	return tx, nil
}

func (l *LiFi) Status(ctx context.Context, ref types.StatusRef) types.BridgeStatus {
	if ref.TxHash == "" {
		return types.UnknownStatus("lifi status requires the source transaction hash")
	}
	opts := []httpclient.RequestOption{httpclient.WithQueryParam("txHash", ref.TxHash)}
	if ref.FromChainID != 0 {
		opts = append(opts, httpclient.WithQueryParam("fromChain", strconv.FormatInt(ref.FromChainID, 10)))
	}
	toChain := ref.ToChainID
	if toChain == 0 {
		toChain = l.destination.ChainID
	}
	opts = append(opts, httpclient.WithQueryParam("toChain", strconv.FormatInt(toChain, 10)))

	var out lifiStatusResponse
	if err := l.http.GetJSON(ctx, "/v1/status", &out, opts...); err != nil {
		return types.UnknownStatus(unavailable(types.ProviderLiFi, "status", err).Error())
	}
	return mapLiFiStatus(out)
}

func mapLiFiStatus(r lifiStatusResponse) types.BridgeStatus {
	raw := r.Status
	if r.Substatus != "" {
		raw = r.Status + "/" + r.Substatus
	}
	state, ok := lifiStatusMap[raw]
	if !ok {
		state, ok = lifiStatusMap[r.Status]
		if !ok || r.Status == "DONE" {
			return types.BridgeStatus{State: types.StatusUnknown, ProviderStatus: raw, Error: "unrecognized status " + raw}
		}
	}

	st := types.BridgeStatus{State: state, ProviderStatus: raw, DestTxHash: r.Receiving.TxHash}
	if state == types.StatusFailed {
		st.Error = r.SubstatusMessage
	}
	return st
}
