package providers

import (
	"context"
	"errors"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/stablehop/stablehop/internal/httpclient"
	"github.com/stablehop/stablehop/logger"
	"github.com/stablehop/stablehop/types"
)

const relayBaseURL = "https://api.relay.link"

var relayNoRouteCodes = map[string]bool{
	"NO_SWAP_ROUTES_FOUND":   true,
	"AMOUNT_TOO_LOW":         true,
	"UNSUPPORTED_CHAIN":      true,
	"UNSUPPORTED_CURRENCY":   true,
	"UNSUPPORTED_ROUTE":      true,
	"INSUFFICIENT_LIQUIDITY": true,
}

var relayStatusMap = map[string]types.StatusState{
	"success":   types.StatusCompleted,
	"failure":   types.StatusFailed,
	"refund":    types.StatusFailed,
	"waiting":   types.StatusPending,
	"pending":   types.StatusPending,
	"submitted": types.StatusPending,
	"delayed":   types.StatusPending,
}

type relayQuoteRequest struct {
	User                string `json:"user"`
	Recipient           string `json:"recipient"`
	OriginChainID       int64  `json:"originChainId"`
	DestinationChainID  int64  `json:"destinationChainId"`
	OriginCurrency      string `json:"originCurrency"`
	DestinationCurrency string `json:"destinationCurrency"`
	Amount              string `json:"amount"`
	TradeType           string `json:"tradeType"`
	SlippageTolerance   string `json:"slippageTolerance"`
	Referrer            string `json:"referrer,omitempty"`
}

type relayTxData struct {
	To      string `json:"to"`
	Data    string `json:"data"`
	Value   string `json:"value"`
	ChainID int64  `json:"chainId"`
}

type relayStep struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	RequestID string `json:"requestId"`
	Items     []struct {
		Data relayTxData `json:"data"`
	} `json:"items"`
}

type relayQuoteResponse struct {
	Steps []relayStep `json:"steps"`
	Fees  struct {
		Gas struct {
			AmountUSD string `json:"amountUsd"`
		} `json:"gas"`
	} `json:"fees"`
	Details struct {
		CurrencyOut struct {
			Amount        string `json:"amount"`
			MinimumAmount string `json:"minimumAmount"`
		} `json:"currencyOut"`
		TimeEstimate int64 `json:"timeEstimate"`
		TotalImpact  struct {
			Percent string `json:"percent"`
		} `json:"totalImpact"`
	} `json:"details"`
}

type relayStatusResponse struct {
	Status   string   `json:"status"`
	Details  string   `json:"details"`
	TxHashes []string `json:"txHashes"`
}

// Relay adapts the Relay protocol API.
type Relay struct {
	http        *httpclient.HTTPClient
	referrer    string
	destination types.Destination
	logger      logger.Logger
}

var _ Provider = (*Relay)(nil)

func NewRelay(cfg Config) *Relay {
	var extra []httpclient.ClientOption
	if cfg.APIKey != "" {
		extra = append(extra, httpclient.WithDefaultHeader("x-api-key", cfg.APIKey))
	}
	return &Relay{
		http:        cfg.httpClient(relayBaseURL, extra...),
		referrer:    cfg.Integrator,
		destination: cfg.Destination,
		logger:      logger.OrNoop(cfg.Logger),
	}
}

func (r *Relay) Name() types.ProviderName {
	return types.ProviderRelay
}

func (r *Relay) fetchQuote(ctx context.Context, p types.QuoteParams) (*relayQuoteResponse, error) {
	req := relayQuoteRequest{
		User:                p.UserAddress,
		Recipient:           p.RecipientAddress,
		OriginChainID:       p.FromChainID,
		DestinationChainID:  r.destination.ChainID,
		OriginCurrency:      p.FromToken,
		DestinationCurrency: r.destination.Token,
		Amount:              p.FromAmount,
		TradeType:           "EXACT_INPUT",
		SlippageTolerance:   strconv.Itoa(p.Slippage()),
		Referrer:            r.referrer,
	}

	var out relayQuoteResponse
	if err := r.http.PostJSON(ctx, "/quote", req, &out); err != nil {
		_, body := parseErrorBody(err)
		if relayNoRouteCodes[codeString(body.ErrorCode)] {
			r.logger.Debug("relay has no route", map[string]any{"code": codeString(body.ErrorCode)})
			return nil, nil
		}
		return nil, unavailable(types.ProviderRelay, "quote", err)
	}
	return &out, nil
}

// depositStep returns the step carrying the bridge call and its request id.
func (q *relayQuoteResponse) depositStep() (*relayStep, error) {
	for i := range q.Steps {
		s := &q.Steps[i]
		if s.ID != "approve" && s.Kind == "transaction" && s.RequestID != "" && len(s.Items) > 0 {
			return s, nil
		}
	}
	return nil, errors.New("no deposit step")
}

func (r *Relay) Quote(ctx context.Context, p types.QuoteParams) (*types.BridgeQuote, error) {
	resp, err := r.fetchQuote(ctx, p)
	if err != nil || resp == nil {
		return nil, err
	}

	step, err := resp.depositStep()
	if err != nil {
		return nil, malformed(types.ProviderRelay, "quote", err)
	}
	gasUSD, err := sumUSD(resp.Fees.Gas.AmountUSD)
	if err != nil {
		return nil, malformed(types.ProviderRelay, "quote", err)
	}

	quote := &types.BridgeQuote{
		Provider:             types.ProviderRelay,
		FromChainID:          p.FromChainID,
		FromToken:            p.FromToken,
		FromAmount:           p.FromAmount,
		ToChainID:            r.destination.ChainID,
		ToToken:              r.destination.Token,
		ToAmount:             resp.Details.CurrencyOut.Amount,
		ToAmountMin:          resp.Details.CurrencyOut.MinimumAmount,
		GasUSD:               gasUSD,
		EstimatedTimeSeconds: resp.Details.TimeEstimate,
		RouteID:              step.RequestID,
		PriceImpact:          relayPriceImpact(resp.Details.TotalImpact.Percent),
	}
	if err := quote.Validate(); err != nil {
		return nil, malformed(types.ProviderRelay, "quote", err)
	}
	return quote, nil
}

// relayPriceImpact converts Relay's signed percentage (negative is a loss)
// into a loss fraction.
func relayPriceImpact(percent string) *decimal.Decimal {
	if percent == "" {
		return nil
	}
	d, err := decimal.NewFromString(percent)
	if err != nil {
		return nil
	}
	impact := d.Neg().Div(decimal.NewFromInt(100))
	return &impact
}

func (r *Relay) BuildTransaction(ctx context.Context, p types.QuoteParams) (*types.BridgeTransaction, error) {
	resp, err := r.fetchQuote(ctx, p)
	if err != nil || resp == nil {
		return nil, err
	}

	step, err := resp.depositStep()
	if err != nil {
		return nil, malformed(types.ProviderRelay, "transaction", err)
	}
	call := step.Items[0].Data
	if call.To == "" {
		return nil, malformed(types.ProviderRelay, "transaction", errors.New("deposit step without target"))
	}
	value, err := valueString(call.Value)
	if err != nil {
		return nil, malformed(types.ProviderRelay, "transaction", err)
	}
	chainID := call.ChainID
	if chainID == 0 {
		chainID = p.FromChainID
	}

	tx := &types.BridgeTransaction{
		To:      call.To,
		Data:    call.Data,
		Value:   value,
		ChainID: chainID,
		RouteID: step.RequestID,
	}

	for _, s := range resp.Steps {
		if s.ID != "approve" || len(s.Items) == 0 {
			continue
		}
		// Relay ships a ready-made approve call; keep its calldata.
		approve := s.Items[0].Data
		tx.Approval = &types.Approval{
			Token:   approve.To,
			Spender: call.To,
			Amount:  p.FromAmount,
			Data:    approve.Data,
		}
	}
	return tx, nil
}

func (r *Relay) Status(ctx context.Context, ref types.StatusRef) types.BridgeStatus {
	if ref.RouteID == "" {
		return types.UnknownStatus("relay status requires a request id")
	}

	var out relayStatusResponse
	err := r.http.GetJSON(ctx, "/intents/status/v2", &out, httpclient.WithQueryParam("requestId", ref.RouteID))
	if err != nil {
		return types.UnknownStatus(unavailable(types.ProviderRelay, "status", err).Error())
	}
	return mapRelayStatus(out)
}

func mapRelayStatus(r relayStatusResponse) types.BridgeStatus {
	state, ok := relayStatusMap[r.Status]
	if !ok {
		return types.BridgeStatus{State: types.StatusUnknown, ProviderStatus: r.Status, Error: "unrecognized status " + r.Status}
	}
	st := types.BridgeStatus{State: state, ProviderStatus: r.Status}
	if state == types.StatusCompleted && len(r.TxHashes) > 0 {
		st.DestTxHash = r.TxHashes[len(r.TxHashes)-1]
	}
	if state == types.StatusFailed {
		st.Error = r.Details
	}
	return st
}
