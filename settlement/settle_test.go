package settlement

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stablehop/stablehop/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRequest() SettleRequest {
	return SettleRequest{
		InvoiceID: "inv-1",
		Scheme:    types.SchemeTransferWithAuthorization,
		Authorization: types.EIP3009Authorization{
			From:        "0x1111111111111111111111111111111111111111",
			To:          "0x2222222222222222222222222222222222222222",
			Value:       "1000",
			ValidAfter:  "1",
			ValidBefore: "2",
			Nonce:       "0x01",
			Signature:   "0xsig",
		},
	}
}

func TestSettleSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/settle", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "payment-submitted", body["type"])
		assert.Equal(t, "inv-1", body["invoiceId"])
		assert.Equal(t, "eip3009-transfer-with-authorization", body["scheme"])
		auth := body["authorization"].(map[string]any)
		assert.Equal(t, "1000", auth["value"])

		_ = json.NewEncoder(w).Encode(map[string]string{"txHash": "0xsettled"})
	}))
	defer srv.Close()

	resp, err := NewFacilitatorClient(srv.URL).Settle(t.Context(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "0xsettled", resp.TxHash)
}

func TestSettleFailures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     map[string]string
		wantCode *types.Error
		wantMsg  string
	}{
		{
			name:     "generic rejection",
			status:   http.StatusBadRequest,
			body:     map[string]string{"message": "invoice expired"},
			wantCode: types.ErrFacilitator,
			wantMsg:  "invoice expired",
		},
		{
			name:     "signature code",
			status:   http.StatusBadRequest,
			body:     map[string]string{"message": "rejected", "code": "INVALID_SIGNATURE"},
			wantCode: types.ErrInvalidSignature,
		},
		{
			name:     "signature message",
			status:   http.StatusUnprocessableEntity,
			body:     map[string]string{"message": "Signature does not recover to from"},
			wantCode: types.ErrInvalidSignature,
		},
		{
			name:     "server error",
			status:   http.StatusInternalServerError,
			body:     map[string]string{},
			wantCode: types.ErrFacilitator,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(tt.body)
			}))
			defer srv.Close()

			_, err := NewFacilitatorClient(srv.URL).Settle(t.Context(), testRequest())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantCode)
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
			assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "settlement must not be retried")
		})
	}
}

func TestSettleMissingTxHash(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := NewFacilitatorClient(srv.URL).Settle(t.Context(), testRequest())
	assert.ErrorIs(t, err, types.ErrFacilitator)
}

func TestSettleValidatesRequest(t *testing.T) {
	c := NewFacilitatorClient("http://127.0.0.1:1")

	req := testRequest()
	req.InvoiceID = ""
	_, err := c.Settle(t.Context(), req)
	assert.ErrorIs(t, err, types.ErrInvalidParams)

	req = testRequest()
	req.Scheme = "permit2"
	_, err = c.Settle(t.Context(), req)
	assert.ErrorIs(t, err, types.ErrUnsupportedScheme)
}

func TestSettleTransportFailure(t *testing.T) {
	_, err := NewFacilitatorClient("http://127.0.0.1:1").Settle(t.Context(), testRequest())
	assert.ErrorIs(t, err, types.ErrFacilitator)
}
