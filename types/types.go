package types

import (
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// ProviderName identifies a bridge/swap liquidity provider.
type ProviderName string

const (
	ProviderLiFi        ProviderName = "lifi"
	ProviderRelay       ProviderName = "relay"
	ProviderDeBridge    ProviderName = "debridge"
	ProviderNearIntents ProviderName = "near-intents"
)

// AllProviders lists every provider tag in registration order.
var AllProviders = []ProviderName{ProviderLiFi, ProviderRelay, ProviderDeBridge, ProviderNearIntents}

func (p ProviderName) String() string {
	return string(p)
}

// DefaultSlippageBps is applied when QuoteParams.SlippageBps is nil.
const DefaultSlippageBps = 50

// QuoteParams describes the source side of a conversion. The destination
// stablecoin is fixed per adapter through Destination.
type QuoteParams struct {
	FromChainID      int64  `json:"fromChainId" validate:"required,gt=0"`
	FromToken        string `json:"fromToken" validate:"required,eth_addr"`
	FromAmount       string `json:"fromAmount" validate:"required,uint256,ne=0"`
	UserAddress      string `json:"userAddress" validate:"required,eth_addr"`
	RecipientAddress string `json:"recipientAddress" validate:"required,eth_addr"`
	SlippageBps      *int   `json:"slippageBps,omitempty" validate:"omitempty,min=0,max=10000"`
}

// Slippage returns the requested slippage in basis points, or the default.
func (p QuoteParams) Slippage() int {
	if p.SlippageBps == nil {
		return DefaultSlippageBps
	}
	return *p.SlippageBps
}

// Amount returns FromAmount as an integer. Callers validate first.
func (p QuoteParams) Amount() *big.Int {
	v, ok := new(big.Int).SetString(p.FromAmount, 10)
	if !ok {
		return new(big.Int)
	}
	return v
}

// Destination is the stablecoin every quote converts into.
type Destination struct {
	ChainID int64  `json:"chainId" mapstructure:"chain_id" validate:"required,gt=0"`
	Token   string `json:"token" mapstructure:"token" validate:"required,eth_addr"`
}

// BridgeQuote is a provider quote normalised into one shape.
type BridgeQuote struct {
	Provider             ProviderName     `json:"provider"`
	FromChainID          int64            `json:"fromChainId"`
	FromToken            string           `json:"fromToken"`
	FromAmount           string           `json:"fromAmount"`
	ToChainID            int64            `json:"toChainId"`
	ToToken              string           `json:"toToken"`
	ToAmount             string           `json:"toAmount"`
	ToAmountMin          string           `json:"toAmountMin"`
	GasUSD               decimal.Decimal  `json:"gasUsd"`
	EstimatedTimeSeconds int64            `json:"estimatedTimeSeconds"`
	RouteID              string           `json:"routeId"`
	PriceImpact          *decimal.Decimal `json:"priceImpact,omitempty"`
}

// ToAmountInt parses ToAmount as an exact integer.
func (q *BridgeQuote) ToAmountInt() (*big.Int, error) {
	v, ok := new(big.Int).SetString(q.ToAmount, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid toAmount %q", q.ToAmount)
	}
	return v, nil
}

// Validate checks the amount invariants of a normalised quote.
func (q *BridgeQuote) Validate() error {
	out, err := q.ToAmountInt()
	if err != nil {
		return err
	}
	min, ok := new(big.Int).SetString(q.ToAmountMin, 10)
	if !ok || min.Sign() < 0 {
		return fmt.Errorf("invalid toAmountMin %q", q.ToAmountMin)
	}
	if out.Cmp(min) < 0 {
		return fmt.Errorf("toAmount %s below toAmountMin %s", q.ToAmount, q.ToAmountMin)
	}
	if q.RouteID == "" {
		return fmt.Errorf("missing route id")
	}
	if q.GasUSD.IsNegative() {
		return fmt.Errorf("negative gas cost %s", q.GasUSD)
	}
	return nil
}

// Call is a single EVM call the wallet must submit.
type Call struct {
	To      string `json:"to"`
	Data    string `json:"data"`
	Value   string `json:"value"`
	ChainID int64  `json:"chainId"`
}

// Approval is an ERC-20 allowance the main call depends on.
type Approval struct {
	Token   string `json:"token"`
	Spender string `json:"spender"`
	Amount  string `json:"amount"`
	Data    string `json:"data"`
}

// BridgeTransaction is the executable form of a quote.
type BridgeTransaction struct {
	To       string    `json:"to"`
	Data     string    `json:"data"`
	Value    string    `json:"value"`
	ChainID  int64     `json:"chainId"`
	RouteID  string    `json:"routeId"`
	Approval *Approval `json:"approval,omitempty"`
}

// Calls returns the calls to submit in order: the approval, when present,
// always precedes the main call.
func (t *BridgeTransaction) Calls() []Call {
	calls := make([]Call, 0, 2)
	if t.Approval != nil {
		calls = append(calls, Call{
			To:      t.Approval.Token,
			Data:    t.Approval.Data,
			Value:   "0",
			ChainID: t.ChainID,
		})
	}
	return append(calls, Call{To: t.To, Data: t.Data, Value: t.Value, ChainID: t.ChainID})
}

// StatusRef carries what providers need to look an order up.
type StatusRef struct {
	RouteID     string `json:"routeId"`
	TxHash      string `json:"txHash,omitempty"`
	FromChainID int64  `json:"fromChainId,omitempty"`
	ToChainID   int64  `json:"toChainId,omitempty"`
}

// StatusState is the normalised order state.
type StatusState string

const (
	StatusPending   StatusState = "pending"
	StatusCompleted StatusState = "completed"
	StatusFailed    StatusState = "failed"
	StatusUnknown   StatusState = "unknown"
)

// IsTerminal reports whether polling can stop.
func (s StatusState) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// BridgeStatus is the normalised status of an order.
type BridgeStatus struct {
	State          StatusState `json:"status"`
	DestTxHash     string      `json:"destTxHash,omitempty"`
	Error          string      `json:"error,omitempty"`
	ProviderStatus string      `json:"providerStatus,omitempty"`
}

// UnknownStatus builds an unknown status carrying an error description.
func UnknownStatus(reason string) BridgeStatus {
	return BridgeStatus{State: StatusUnknown, Error: reason}
}

// PaymentScheme names a payment authorization scheme.
type PaymentScheme string

const (
	// SchemeTransferWithAuthorization is a direct EIP-3009 transfer to the recipient.
	SchemeTransferWithAuthorization PaymentScheme = "eip3009-transfer-with-authorization"
	// SchemeGaslessRouter is an EIP-3009 receive authorization consumed by a router contract.
	SchemeGaslessRouter PaymentScheme = "gasless-router"
)

func (s PaymentScheme) String() string {
	return string(s)
}

// EIP3009Authorization is a signed delegated transfer.
type EIP3009Authorization struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Value       string `json:"value"`       // uint256
	ValidAfter  string `json:"validAfter"`  // uint256 timestamp
	ValidBefore string `json:"validBefore"` // uint256 timestamp
	Nonce       string `json:"nonce"`       // bytes32
	V           uint8  `json:"v"`
	R           string `json:"r"`
	S           string `json:"s"`
	Signature   string `json:"signature"`
}

// PaymentOption is one way a server accepts payment.
type PaymentOption struct {
	Network   Network                `json:"network" validate:"required"`
	ChainID   int64                  `json:"chainId,omitempty"`
	Asset     string                 `json:"asset" validate:"required,eth_addr"`
	Amount    string                 `json:"amount" validate:"required,uint256"`
	Recipient string                 `json:"recipient" validate:"required,eth_addr"`
	Scheme    PaymentScheme          `json:"scheme" validate:"required"`
	Deadline  int64                  `json:"deadline,omitempty"`
	Router    string                 `json:"router,omitempty" validate:"omitempty,eth_addr"`
	Nonce     string                 `json:"nonce,omitempty"`
	Extra     map[string]interface{} `json:"extra,omitempty"`
}

// ExtraString reads a string entry of Extra.
func (o PaymentOption) ExtraString(key string) string {
	if o.Extra == nil {
		return ""
	}
	s, _ := o.Extra[key].(string)
	return s
}

// PaymentRequiredType tags a 402 payload.
const PaymentRequiredType = "payment-required"

// PaymentRequired is the 402 challenge body.
type PaymentRequired struct {
	Type           string          `json:"type" validate:"omitempty,eq=payment-required"`
	Version        string          `json:"version,omitempty"`
	InvoiceID      string          `json:"invoiceId" validate:"required"`
	Description    string          `json:"description,omitempty"`
	PaymentOptions []PaymentOption `json:"paymentOptions" validate:"required,min=1"`
}

// PaymentReceipt proves settlement of an invoice.
type PaymentReceipt struct {
	InvoiceID string  `json:"invoiceId"`
	TxHash    string  `json:"txHash"`
	Timestamp int64   `json:"timestamp"`
	Amount    string  `json:"amount"`
	Token     string  `json:"token"`
	Network   Network `json:"network"`
}

// ClientConfig contains configuration for a chain client.
type ClientConfig struct {
	Network Network       `json:"network" mapstructure:"network"`
	RPCUrl  string        `json:"rpcUrl" mapstructure:"rpc_url"`
	ChainID int64         `json:"chainId,omitempty" mapstructure:"chain_id"`
	Timeout time.Duration `json:"timeout,omitempty" mapstructure:"timeout"`
}
