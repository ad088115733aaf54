package providers

import (
	"context"
	"errors"
	"net/url"
	"strconv"

	"github.com/stablehop/stablehop/internal/httpclient"
	"github.com/stablehop/stablehop/logger"
	"github.com/stablehop/stablehop/types"
	"github.com/stablehop/stablehop/utils"
)

const debridgeBaseURL = "https://dln.debridge.finance"

var debridgeNoRouteIDs = map[string]bool{
	"ERROR_LOW_GIVE_AMOUNT": true,
	"UNSUPPORTED_TOKEN_IN":  true,
	"UNSUPPORTED_TOKEN_OUT": true,
	"UNSUPPORTED_CHAIN":     true,
	"NO_ROUTE":              true,
}

var debridgeStatusMap = map[string]types.StatusState{
	"Fulfilled":          types.StatusCompleted,
	"SentUnlock":         types.StatusCompleted,
	"ClaimedUnlock":      types.StatusCompleted,
	"OrderCancelled":     types.StatusFailed,
	"SentOrderCancel":    types.StatusFailed,
	"ClaimedOrderCancel": types.StatusFailed,
	"None":               types.StatusPending,
	"Created":            types.StatusPending,
}

type debridgeCreateTxResponse struct {
	OrderID    string `json:"orderId"`
	Estimation struct {
		DstChainTokenOut struct {
			Amount            string `json:"amount"`
			RecommendedAmount string `json:"recommendedAmount"`
		} `json:"dstChainTokenOut"`
	} `json:"estimation"`
	Order struct {
		ApproximateFulfillmentDelay int64 `json:"approximateFulfillmentDelay"`
	} `json:"order"`
	Tx *struct {
		To              string `json:"to"`
		Data            string `json:"data"`
		Value           string `json:"value"`
		AllowanceTarget string `json:"allowanceTarget"`
	} `json:"tx"`
}

type debridgeStatusResponse struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

// DeBridge adapts the deBridge DLN order API.
type DeBridge struct {
	http        *httpclient.HTTPClient
	accessToken string
	referral    string
	destination types.Destination
	logger      logger.Logger
}

var _ Provider = (*DeBridge)(nil)

func NewDeBridge(cfg Config) *DeBridge {
	return &DeBridge{
		http:        cfg.httpClient(debridgeBaseURL),
		accessToken: cfg.APIKey,
		referral:    cfg.Integrator,
		destination: cfg.Destination,
		logger:      logger.OrNoop(cfg.Logger),
	}
}

func (d *DeBridge) Name() types.ProviderName {
	return types.ProviderDeBridge
}

func (d *DeBridge) createTx(ctx context.Context, p types.QuoteParams) (*debridgeCreateTxResponse, error) {
	query := map[string]string{
		"srcChainId":                    strconv.FormatInt(p.FromChainID, 10),
		"srcChainTokenIn":               p.FromToken,
		"srcChainTokenInAmount":         p.FromAmount,
		"dstChainId":                    strconv.FormatInt(d.destination.ChainID, 10),
		"dstChainTokenOut":              d.destination.Token,
		"dstChainTokenOutAmount":        "auto",
		"dstChainTokenOutRecipient":     p.RecipientAddress,
		"senderAddress":                 p.UserAddress,
		"srcChainOrderAuthorityAddress": p.UserAddress,
		"dstChainOrderAuthorityAddress": p.RecipientAddress,
		"prependOperatingExpenses":      "true",
	}
	if d.accessToken != "" {
		query["accesstoken"] = d.accessToken
	}
	if d.referral != "" {
		query["referralCode"] = d.referral
	}
	opts := make([]httpclient.RequestOption, 0, len(query))
	for k, v := range query {
		opts = append(opts, httpclient.WithQueryParam(k, v))
	}

	var out debridgeCreateTxResponse
	if err := d.http.GetJSON(ctx, "/v1.0/dln/order/create-tx", &out, opts...); err != nil {
		_, body := parseErrorBody(err)
		if debridgeNoRouteIDs[body.ErrorID] {
			d.logger.Debug("debridge has no route", map[string]any{"errorId": body.ErrorID})
			return nil, nil
		}
		return nil, unavailable(types.ProviderDeBridge, "create-tx", err)
	}
	return &out, nil
}

func (d *DeBridge) Quote(ctx context.Context, p types.QuoteParams) (*types.BridgeQuote, error) {
	resp, err := d.createTx(ctx, p)
	if err != nil || resp == nil {
		return nil, err
	}
	if resp.OrderID == "" {
		return nil, malformed(types.ProviderDeBridge, "quote", errors.New("missing order id"))
	}

	out, err := utils.ParseUint256(resp.Estimation.DstChainTokenOut.Amount)
	if err != nil {
		return nil, malformed(types.ProviderDeBridge, "quote", err)
	}

	calls := int64(1)
	if !utils.IsNativeToken(p.FromToken) {
		calls++
	}

	quote := &types.BridgeQuote{
		Provider:             types.ProviderDeBridge,
		FromChainID:          p.FromChainID,
		FromToken:            p.FromToken,
		FromAmount:           p.FromAmount,
		ToChainID:            d.destination.ChainID,
		ToToken:              d.destination.Token,
		ToAmount:             out.String(),
		ToAmountMin:          applySlippage(out, p.Slippage()).String(),
		GasUSD:               PlaceholderGasUSD.Mul(decimalFromInt(calls)),
		EstimatedTimeSeconds: resp.Order.ApproximateFulfillmentDelay,
		RouteID:              resp.OrderID,
	}
	if err := quote.Validate(); err != nil {
		return nil, malformed(types.ProviderDeBridge, "quote", err)
	}
	return quote, nil
}

func (d *DeBridge) BuildTransaction(ctx context.Context, p types.QuoteParams) (*types.BridgeTransaction, error) {
	resp, err := d.createTx(ctx, p)
	if err != nil || resp == nil {
		return nil, err
	}
	if resp.Tx == nil || resp.Tx.To == "" {
		return nil, malformed(types.ProviderDeBridge, "transaction", errors.New("missing tx"))
	}
	value, err := valueString(resp.Tx.Value)
	if err != nil {
		return nil, malformed(types.ProviderDeBridge, "transaction", err)
	}

	tx := &types.BridgeTransaction{
		To:      resp.Tx.To,
		Data:    resp.Tx.Data,
		Value:   value,
		ChainID: p.FromChainID,
		RouteID: resp.OrderID,
	}
	spender := resp.Tx.AllowanceTarget
	if spender == "" {
		spender = resp.Tx.To
	}
	if tx.Approval, err = approvalFor(p.FromToken, spender, p.Amount()); err != nil {
		return nil, malformed(types.ProviderDeBridge, "transaction", err)
	}
	return tx, nil
}

func (d *DeBridge) Status(ctx context.Context, ref types.StatusRef) types.BridgeStatus {
	if ref.RouteID == "" {
		return types.UnknownStatus("debridge status requires an order id")
	}

	var out debridgeStatusResponse
	if err := d.http.GetJSON(ctx, "/v1.0/dln/order/"+url.PathEscape(ref.RouteID)+"/status", &out); err != nil {
		return types.UnknownStatus(unavailable(types.ProviderDeBridge, "status", err).Error())
	}
	return mapDeBridgeStatus(out)
}

func mapDeBridgeStatus(r debridgeStatusResponse) types.BridgeStatus {
	state, ok := debridgeStatusMap[r.Status]
	if !ok {
		return types.BridgeStatus{State: types.StatusUnknown, ProviderStatus: r.Status, Error: "unrecognized status " + r.Status}
	}
	st := types.BridgeStatus{State: state, ProviderStatus: r.Status}
	if state == types.StatusFailed {
		st.Error = "order " + r.Status
	}
	return st
}
