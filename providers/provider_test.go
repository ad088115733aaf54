package providers

import (
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stablehop/stablehop/internal/httpclient"
	"github.com/stablehop/stablehop/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testUSDCBase = "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"
	testUSDT0    = "0xB8CE59FC3717ada4C02eaDF9682A9e934F625ebb"
	testUser     = "0x1111111111111111111111111111111111111111"
	testRouter   = "0x3333333333333333333333333333333333333333"
	testNative   = "0x0000000000000000000000000000000000000000"
)

var testDestination = types.Destination{ChainID: 9745, Token: testUSDT0}

func testParams() types.QuoteParams {
	return types.QuoteParams{
		FromChainID:      8453,
		FromToken:        testUSDCBase,
		FromAmount:       "1000000000",
		UserAddress:      testUser,
		RecipientAddress: testUser,
	}
}

func testConfig(baseURL string) Config {
	return Config{
		BaseURL:     baseURL,
		Destination: testDestination,
		HTTPOptions: []httpclient.ClientOption{httpclient.WithRetryConfig(nil)},
	}
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func newServer(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func TestApplySlippage(t *testing.T) {
	assert.Equal(t, "995000000", applySlippage(big.NewInt(1_000_000_000), 50).String())
	assert.Equal(t, "0", applySlippage(big.NewInt(1), 50).String())
	assert.Equal(t, "1000", applySlippage(big.NewInt(1000), 0).String())
}

func TestApprovalFor(t *testing.T) {
	approval, err := approvalFor(testUSDCBase, testRouter, big.NewInt(42))
	require.NoError(t, err)
	require.NotNil(t, approval)
	assert.Equal(t, testUSDCBase, approval.Token)
	assert.Equal(t, "42", approval.Amount)
	// approve(address,uint256) selector
	assert.Contains(t, approval.Data, "0x095ea7b3")

	approval, err = approvalFor(testNative, testRouter, big.NewInt(42))
	require.NoError(t, err)
	assert.Nil(t, approval)
}

func TestUnavailableDoesNotCopyRawBody(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>upstream secret-token-123</html>"))
	})
	c := testConfig(srv.URL).httpClient("")

	var out map[string]any
	err := c.GetJSON(t.Context(), "/x", &out)
	require.Error(t, err)

	wrapped := unavailable(types.ProviderRelay, "quote", err)
	assert.ErrorIs(t, wrapped, types.ErrProviderUnavailable)
	assert.NotContains(t, wrapped.Error(), "secret-token-123")
	assert.Contains(t, wrapped.Error(), "status 502")
}
