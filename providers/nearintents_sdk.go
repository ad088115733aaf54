package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	oneclick "github.com/defuse-protocol/one-click-sdk-go"
)

// oneClickToken is the subset of a 1Click token entry the adapter reads.
type oneClickToken struct {
	AssetID         string `json:"assetId"`
	Decimals        int    `json:"decimals"`
	Blockchain      string `json:"blockchain"`
	Symbol          string `json:"symbol"`
	ContractAddress string `json:"contractAddress"`
}

type oneClickQuoteRequest struct {
	Dry              bool
	SlippageBps      int
	OriginAsset      string
	DestinationAsset string
	Amount           string
	RefundTo         string
	Recipient        string
	Deadline         time.Time
	Referral         string
}

type oneClickQuote struct {
	Signature string `json:"signature"`
	Quote     struct {
		DepositAddress string  `json:"depositAddress"`
		AmountOut      string  `json:"amountOut"`
		MinAmountOut   string  `json:"minAmountOut"`
		TimeEstimate   float64 `json:"timeEstimate"`
	} `json:"quote"`
}

type oneClickStatus struct {
	Status      string `json:"status"`
	SwapDetails struct {
		DestinationChainTxHashes []struct {
			Hash string `json:"hash"`
		} `json:"destinationChainTxHashes"`
		RefundReason string `json:"refundReason"`
	} `json:"swapDetails"`
}

// oneClickError carries the HTTP status and message of a failed SDK call.
type oneClickError struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *oneClickError) Error() string {
	if e.StatusCode == 0 {
		return e.Cause.Error()
	}
	return fmt.Sprintf("1click returned status %d: %s", e.StatusCode, e.Message)
}

func (e *oneClickError) Unwrap() error {
	return e.Cause
}

// oneClickAPI is the slice of the 1Click service the adapter depends on.
type oneClickAPI interface {
	Tokens(ctx context.Context) ([]oneClickToken, error)
	Quote(ctx context.Context, req oneClickQuoteRequest) (*oneClickQuote, error)
	Status(ctx context.Context, depositAddress string) (*oneClickStatus, error)
}

// sdkOneClick implements oneClickAPI with the generated 1Click client.
type sdkOneClick struct {
	client *oneclick.APIClient
	jwt    string
}

func newSDKOneClick(baseURL, jwt string, hc *http.Client) *sdkOneClick {
	cfg := oneclick.NewConfiguration()
	if baseURL != "" {
		cfg.Servers = oneclick.ServerConfigurations{{URL: baseURL}}
	}
	cfg.HTTPClient = hc
	return &sdkOneClick{client: oneclick.NewAPIClient(cfg), jwt: jwt}
}

func (s *sdkOneClick) authed(ctx context.Context) context.Context {
	if s.jwt == "" {
		return ctx
	}
	return context.WithValue(ctx, oneclick.ContextAccessToken, s.jwt)
}

func (s *sdkOneClick) Tokens(ctx context.Context) ([]oneClickToken, error) {
	resp, httpResp, err := s.client.OneClickAPI.GetTokens(s.authed(ctx)).Execute()
	if err != nil {
		return nil, sdkError(httpResp, err)
	}
	defer httpResp.Body.Close()

	var out []oneClickToken
	if err := remarshal(resp, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *sdkOneClick) Quote(ctx context.Context, req oneClickQuoteRequest) (*oneClickQuote, error) {
	body := map[string]any{
		"dry":               req.Dry,
		"swapType":          "EXACT_INPUT",
		"slippageTolerance": req.SlippageBps,
		"originAsset":       req.OriginAsset,
		"depositType":       "ORIGIN_CHAIN",
		"destinationAsset":  req.DestinationAsset,
		"amount":            req.Amount,
		"refundTo":          req.RefundTo,
		"refundType":        "ORIGIN_CHAIN",
		"recipient":         req.Recipient,
		"recipientType":     "DESTINATION_CHAIN",
		"deadline":          req.Deadline.UTC().Format(time.RFC3339),
	}
	if req.Referral != "" {
		body["referral"] = req.Referral
	}
	var quoteReq oneclick.QuoteRequest
	if err := remarshal(body, &quoteReq); err != nil {
		return nil, fmt.Errorf("build quote request: %w", err)
	}

	resp, httpResp, err := s.client.OneClickAPI.GetQuote(s.authed(ctx)).QuoteRequest(quoteReq).Execute()
	if err != nil {
		return nil, sdkError(httpResp, err)
	}
	defer httpResp.Body.Close()

	var out oneClickQuote
	if err := remarshal(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *sdkOneClick) Status(ctx context.Context, depositAddress string) (*oneClickStatus, error) {
	resp, httpResp, err := s.client.OneClickAPI.GetExecutionStatus(s.authed(ctx)).DepositAddress(depositAddress).Execute()
	if err != nil {
		return nil, sdkError(httpResp, err)
	}
	defer httpResp.Body.Close()

	var out oneClickStatus
	if err := remarshal(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// sdkError extracts the API message from a failed call. The generated client
// leaves the body readable after an error.
func sdkError(httpResp *http.Response, err error) error {
	if httpResp == nil {
		return &oneClickError{Cause: err}
	}
	defer httpResp.Body.Close()

	out := &oneClickError{StatusCode: httpResp.StatusCode, Cause: err}
	raw, readErr := io.ReadAll(io.LimitReader(httpResp.Body, 64<<10))
	if readErr == nil {
		var body errorBody
		if json.Unmarshal(raw, &body) == nil {
			out.Message = body.text()
		}
	}
	return out
}

func remarshal(in, out any) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
