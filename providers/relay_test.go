package providers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stablehop/stablehop/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func relayQuoteFixture() map[string]any {
	return map[string]any{
		"steps": []map[string]any{
			{
				"id":   "approve",
				"kind": "transaction",
				"items": []map[string]any{
					{"data": map[string]any{"to": testUSDCBase, "data": "0x095ea7b3aa", "value": "0", "chainId": 8453}},
				},
			},
			{
				"id":        "deposit",
				"kind":      "transaction",
				"requestId": "0xrequest",
				"items": []map[string]any{
					{"data": map[string]any{"to": testRouter, "data": "0xcafe", "value": "0", "chainId": 8453}},
				},
			},
		},
		"fees": map[string]any{"gas": map[string]any{"amountUsd": "0.031"}},
		"details": map[string]any{
			"currencyOut":  map[string]any{"amount": "996100000", "minimumAmount": "991119500"},
			"timeEstimate": 12,
			"totalImpact":  map[string]any{"percent": "-0.39"},
		},
	}
}

func TestRelayQuote(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/quote", r.URL.Path)

		var req relayQuoteRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(8453), req.OriginChainID)
		assert.Equal(t, int64(9745), req.DestinationChainID)
		assert.Equal(t, testUSDT0, req.DestinationCurrency)
		assert.Equal(t, "EXACT_INPUT", req.TradeType)
		assert.Equal(t, "50", req.SlippageTolerance)

		writeJSON(t, w, http.StatusOK, relayQuoteFixture())
	})

	quote, err := NewRelay(testConfig(srv.URL)).Quote(t.Context(), testParams())
	require.NoError(t, err)
	require.NotNil(t, quote)

	assert.Equal(t, types.ProviderRelay, quote.Provider)
	assert.Equal(t, "996100000", quote.ToAmount)
	assert.Equal(t, "991119500", quote.ToAmountMin)
	assert.Equal(t, "0.031", quote.GasUSD.String())
	assert.Equal(t, int64(12), quote.EstimatedTimeSeconds)
	assert.Equal(t, "0xrequest", quote.RouteID)
	require.NotNil(t, quote.PriceImpact)
	assert.Equal(t, "0.0039", quote.PriceImpact.String())
}

func TestRelayQuoteMissingGasIsMalformed(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		body := relayQuoteFixture()
		body["fees"] = map[string]any{"gas": map[string]any{}}
		writeJSON(t, w, http.StatusOK, body)
	})

	quote, err := NewRelay(testConfig(srv.URL)).Quote(t.Context(), testParams())
	assert.Nil(t, quote)
	assert.ErrorIs(t, err, types.ErrProviderUnavailable)
}

func TestRelayNoRoute(t *testing.T) {
	for code := range relayNoRouteCodes {
		t.Run(code, func(t *testing.T) {
			srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(t, w, http.StatusBadRequest, map[string]any{"message": "nope", "errorCode": code})
			})
			quote, err := NewRelay(testConfig(srv.URL)).Quote(t.Context(), testParams())
			assert.NoError(t, err)
			assert.Nil(t, quote)
		})
	}
}

func TestRelayUnknownErrorIsUnavailable(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusBadRequest, map[string]any{"message": "bad", "errorCode": "INVALID_INPUT"})
	})
	_, err := NewRelay(testConfig(srv.URL)).Quote(t.Context(), testParams())
	assert.ErrorIs(t, err, types.ErrProviderUnavailable)
}

func TestRelayQuoteWithoutDepositStep(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		body := relayQuoteFixture()
		body["steps"] = []map[string]any{}
		writeJSON(t, w, http.StatusOK, body)
	})
	_, err := NewRelay(testConfig(srv.URL)).Quote(t.Context(), testParams())
	assert.ErrorIs(t, err, types.ErrProviderUnavailable)
}

func TestRelayBuildTransaction(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, relayQuoteFixture())
	})

	tx, err := NewRelay(testConfig(srv.URL)).BuildTransaction(t.Context(), testParams())
	require.NoError(t, err)

	assert.Equal(t, testRouter, tx.To)
	assert.Equal(t, "0xcafe", tx.Data)
	assert.Equal(t, "0xrequest", tx.RouteID)
	require.NotNil(t, tx.Approval)
	assert.Equal(t, testUSDCBase, tx.Approval.Token)
	assert.Equal(t, testRouter, tx.Approval.Spender)
	assert.Equal(t, "0x095ea7b3aa", tx.Approval.Data)
}

func TestRelayStatus(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/intents/status/v2", r.URL.Path)
		assert.Equal(t, "0xrequest", r.URL.Query().Get("requestId"))
		writeJSON(t, w, http.StatusOK, map[string]any{
			"status":   "success",
			"txHashes": []string{"0xorigin", "0xdest"},
		})
	})

	st := NewRelay(testConfig(srv.URL)).Status(t.Context(), types.StatusRef{RouteID: "0xrequest"})
	assert.Equal(t, types.StatusCompleted, st.State)
	assert.Equal(t, "0xdest", st.DestTxHash)
}

func TestRelayStatusTransportFailure(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	st := NewRelay(testConfig(srv.URL)).Status(t.Context(), types.StatusRef{RouteID: "0xrequest"})
	assert.Equal(t, types.StatusUnknown, st.State)
	assert.NotEmpty(t, st.Error)
}

func TestMapRelayStatus(t *testing.T) {
	tests := map[string]types.StatusState{
		"success":   types.StatusCompleted,
		"failure":   types.StatusFailed,
		"refund":    types.StatusFailed,
		"waiting":   types.StatusPending,
		"pending":   types.StatusPending,
		"submitted": types.StatusPending,
		"delayed":   types.StatusPending,
		"weird":     types.StatusUnknown,
		"":          types.StatusUnknown,
	}
	for raw, want := range tests {
		t.Run(raw, func(t *testing.T) {
			assert.Equal(t, want, mapRelayStatus(relayStatusResponse{Status: raw}).State)
		})
	}
}
