package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/stablehop/stablehop/clients"
	"github.com/stablehop/stablehop/logger"
	"github.com/stablehop/stablehop/types"
	"github.com/stablehop/stablehop/utils"
)

const (
	nearIntentsBaseURL = "https://1click.chaindefuser.com"
	nearTokensTTL      = 5 * time.Minute
	nearQuoteDeadline  = time.Hour
)

// nearChains maps EVM chain ids to 1Click blockchain tags.
var nearChains = map[int64]string{
	1:     "eth",
	8453:  "base",
	42161: "arb",
	10:    "op",
	137:   "pol",
	56:    "bsc",
	43114: "avax",
	100:   "gnosis",
	9745:  "plasma",
}

var nearStatusMap = map[string]types.StatusState{
	"SUCCESS":            types.StatusCompleted,
	"REFUNDED":           types.StatusFailed,
	"FAILED":             types.StatusFailed,
	"PENDING_DEPOSIT":    types.StatusPending,
	"KNOWN_DEPOSIT_TX":   types.StatusPending,
	"INCOMPLETE_DEPOSIT": types.StatusPending,
	"PROCESSING":         types.StatusPending,
}

// Messages 1Click uses for quotes it cannot route.
var nearNoRouteMessages = []string{"too low", "no route", "not supported", "unsupported"}

// NearIntents adapts the NEAR Intents 1Click deposit-address API.
type NearIntents struct {
	api         oneClickAPI
	referral    string
	destination types.Destination
	logger      logger.Logger
	now         func() time.Time

	mu        sync.Mutex
	tokens    []oneClickToken
	fetchedAt time.Time
}

var _ Provider = (*NearIntents)(nil)

func NewNearIntents(cfg Config) *NearIntents {
	base := cfg.BaseURL
	if base == "" {
		base = nearIntentsBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	api := newSDKOneClick(base, cfg.APIKey, &http.Client{Timeout: timeout})
	return newNearIntents(api, cfg)
}

func newNearIntents(api oneClickAPI, cfg Config) *NearIntents {
	return &NearIntents{
		api:         api,
		referral:    cfg.Integrator,
		destination: cfg.Destination,
		logger:      logger.OrNoop(cfg.Logger),
		now:         time.Now,
	}
}

func (n *NearIntents) Name() types.ProviderName {
	return types.ProviderNearIntents
}

func (n *NearIntents) supportedTokens(ctx context.Context) ([]oneClickToken, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.tokens != nil && n.now().Sub(n.fetchedAt) < nearTokensTTL {
		return n.tokens, nil
	}
	tokens, err := n.api.Tokens(ctx)
	if err != nil {
		return nil, err
	}
	n.tokens = tokens
	n.fetchedAt = n.now()
	return tokens, nil
}

// assetID resolves an EVM token to a 1Click asset id. An empty result means
// the pair is not listed.
func (n *NearIntents) assetID(ctx context.Context, chainID int64, token string) (string, error) {
	chain, ok := nearChains[chainID]
	if !ok {
		return "", nil
	}
	tokens, err := n.supportedTokens(ctx)
	if err != nil {
		return "", err
	}
	native := utils.IsNativeToken(token)
	for _, t := range tokens {
		if t.Blockchain != chain {
			continue
		}
		if native && t.ContractAddress == "" {
			return t.AssetID, nil
		}
		if !native && utils.SameAddress(t.ContractAddress, token) {
			return t.AssetID, nil
		}
	}
	return "", nil
}

func (n *NearIntents) fetchQuote(ctx context.Context, p types.QuoteParams, dry bool) (*oneClickQuote, error) {
	origin, err := n.assetID(ctx, p.FromChainID, p.FromToken)
	if err != nil {
		return nil, unavailable(types.ProviderNearIntents, "tokens", err)
	}
	dest, err := n.assetID(ctx, n.destination.ChainID, n.destination.Token)
	if err != nil {
		return nil, unavailable(types.ProviderNearIntents, "tokens", err)
	}
	if origin == "" || dest == "" {
		n.logger.Debug("near intents does not list pair", map[string]any{
			"fromChainId": p.FromChainID,
			"fromToken":   p.FromToken,
		})
		return nil, nil
	}

	quote, err := n.api.Quote(ctx, oneClickQuoteRequest{
		Dry:              dry,
		SlippageBps:      p.Slippage(),
		OriginAsset:      origin,
		DestinationAsset: dest,
		Amount:           p.FromAmount,
		RefundTo:         p.UserAddress,
		Recipient:        p.RecipientAddress,
		Deadline:         n.now().Add(nearQuoteDeadline),
		Referral:         n.referral,
	})
	if err != nil {
		if isNearNoRoute(err) {
			n.logger.Debug("near intents has no route", map[string]any{"error": err})
			return nil, nil
		}
		return nil, types.NewProviderUnavailable(types.ProviderNearIntents, "quote failed", err)
	}
	return quote, nil
}

func isNearNoRoute(err error) bool {
	var apiErr *oneClickError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
		return false
	}
	msg := strings.ToLower(apiErr.Message)
	for _, m := range nearNoRouteMessages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

func (n *NearIntents) Quote(ctx context.Context, p types.QuoteParams) (*types.BridgeQuote, error) {
	resp, err := n.fetchQuote(ctx, p, true)
	if err != nil || resp == nil {
		return nil, err
	}

	minOut := resp.Quote.MinAmountOut
	if minOut == "" {
		out, err := utils.ParseUint256(resp.Quote.AmountOut)
		if err != nil {
			return nil, malformed(types.ProviderNearIntents, "quote", err)
		}
		minOut = applySlippage(out, p.Slippage()).String()
	}

	// Dry quotes carry no deposit address; the quote signature identifies them.
	routeID := resp.Quote.DepositAddress
	if routeID == "" {
		routeID = resp.Signature
	}

	quote := &types.BridgeQuote{
		Provider:             types.ProviderNearIntents,
		FromChainID:          p.FromChainID,
		FromToken:            p.FromToken,
		FromAmount:           p.FromAmount,
		ToChainID:            n.destination.ChainID,
		ToToken:              n.destination.Token,
		ToAmount:             resp.Quote.AmountOut,
		ToAmountMin:          minOut,
		GasUSD:               PlaceholderGasUSD,
		EstimatedTimeSeconds: int64(resp.Quote.TimeEstimate),
		RouteID:              routeID,
	}
	if err := quote.Validate(); err != nil {
		return nil, malformed(types.ProviderNearIntents, "quote", err)
	}
	return quote, nil
}

func (n *NearIntents) BuildTransaction(ctx context.Context, p types.QuoteParams) (*types.BridgeTransaction, error) {
	resp, err := n.fetchQuote(ctx, p, false)
	if err != nil || resp == nil {
		return nil, err
	}
	deposit := resp.Quote.DepositAddress
	if !utils.ValidateAddress(deposit) {
		return nil, malformed(types.ProviderNearIntents, "transaction", fmt.Errorf("bad deposit address %q", deposit))
	}

	tx := &types.BridgeTransaction{
		ChainID: p.FromChainID,
		RouteID: deposit,
	}
	if utils.IsNativeToken(p.FromToken) {
		tx.To = deposit
		tx.Data = "0x"
		tx.Value = p.FromAmount
		return tx, nil
	}

	data, err := clients.PackTransfer(deposit, p.Amount())
	if err != nil {
		return nil, malformed(types.ProviderNearIntents, "transaction", err)
	}
	tx.To = p.FromToken
	tx.Data = data
	tx.Value = "0"
	return tx, nil
}

func (n *NearIntents) Status(ctx context.Context, ref types.StatusRef) types.BridgeStatus {
	if ref.RouteID == "" {
		return types.UnknownStatus("near intents status requires a deposit address")
	}
	resp, err := n.api.Status(ctx, ref.RouteID)
	if err != nil {
		return types.UnknownStatus(types.NewProviderUnavailable(types.ProviderNearIntents, "status failed", err).Error())
	}
	return mapNearStatus(*resp)
}

func mapNearStatus(r oneClickStatus) types.BridgeStatus {
	state, ok := nearStatusMap[r.Status]
	if !ok {
		return types.BridgeStatus{State: types.StatusUnknown, ProviderStatus: r.Status, Error: "unrecognized status " + r.Status}
	}
	st := types.BridgeStatus{State: state, ProviderStatus: r.Status}
	if hashes := r.SwapDetails.DestinationChainTxHashes; state == types.StatusCompleted && len(hashes) > 0 {
		st.DestTxHash = hashes[len(hashes)-1].Hash
	}
	if state == types.StatusFailed {
		st.Error = r.SwapDetails.RefundReason
		if st.Error == "" {
			st.Error = "swap " + strings.ToLower(r.Status)
		}
	}
	return st
}
