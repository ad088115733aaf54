package utils

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stablehop/stablehop/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUint256(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "0", want: "0"},
		{in: "995000000", want: "995000000"},
		{in: MaxUint256.String(), want: MaxUint256.String()},
		{in: new(big.Int).Add(MaxUint256, big.NewInt(1)).String(), wantErr: true},
		{in: "-1", wantErr: true},
		{in: "+1", wantErr: true},
		{in: "1.5", wantErr: true},
		{in: "", wantErr: true},
		{in: "0x10", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseUint256(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseHexOrDecimal(t *testing.T) {
	v, err := ParseHexOrDecimal("0x0de0b6b3a7640000")
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", v.String())

	v, err = ParseHexOrDecimal("42")
	require.NoError(t, err)
	assert.Equal(t, "42", v.String())

	v, err = ParseHexOrDecimal("")
	require.NoError(t, err)
	assert.Equal(t, "0", v.String())

	_, err = ParseHexOrDecimal("0xzz")
	assert.Error(t, err)
}

func TestUnits(t *testing.T) {
	v, err := ParseUnits("1.5", 6)
	require.NoError(t, err)
	assert.Equal(t, "1500000", v.String())

	_, err = ParseUnits("1.0000001", 6)
	assert.Error(t, err)

	assert.Equal(t, "995", FormatUnits(big.NewInt(995000000), 6))
}

func TestIsNativeToken(t *testing.T) {
	assert.True(t, IsNativeToken("0xeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee"))
	assert.True(t, IsNativeToken("0x0000000000000000000000000000000000000000"))
	assert.False(t, IsNativeToken("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"))
}

func TestValidateQuoteParams(t *testing.T) {
	valid := types.QuoteParams{
		FromChainID:      1,
		FromToken:        "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		FromAmount:       "1000000",
		UserAddress:      "0x1111111111111111111111111111111111111111",
		RecipientAddress: "0x2222222222222222222222222222222222222222",
	}
	assert.NoError(t, ValidateQuoteParams(valid))

	bad := valid
	bad.FromAmount = "-5"
	err := ValidateQuoteParams(bad)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrInvalidParams))

	bad = valid
	bad.FromAmount = "0"
	assert.Error(t, ValidateQuoteParams(bad))

	bad = valid
	bad.UserAddress = "not-an-address"
	assert.Error(t, ValidateQuoteParams(bad))

	slip := 20000
	bad = valid
	bad.SlippageBps = &slip
	assert.Error(t, ValidateQuoteParams(bad))
}

const paymentRequiredJSON = `{
  "type": "payment-required",
  "version": "1",
  "invoiceId": "inv_1",
  "paymentOptions": [{
    "network": "plasma",
    "asset": "0xB8CE59FC3717ada4C02eaDF9682A9e934F625ebb",
    "amount": "1000",
    "recipient": "0x2222222222222222222222222222222222222222",
    "scheme": "eip3009-transfer-with-authorization",
    "deadline": 1900000000
  }]
}`

func TestParsePaymentRequired(t *testing.T) {
	pr, err := ParsePaymentRequired([]byte(paymentRequiredJSON))
	require.NoError(t, err)
	assert.Equal(t, "inv_1", pr.InvoiceID)
	require.Len(t, pr.PaymentOptions, 1)
	assert.Equal(t, types.NetworkPlasma, pr.PaymentOptions[0].Network)

	_, err = ParsePaymentRequired([]byte(`{"type":"payment-required","invoiceId":"x","paymentOptions":[]}`))
	assert.ErrorIs(t, err, types.ErrInvalidPaymentRequired)

	_, err = ParsePaymentRequired([]byte(`not json`))
	assert.ErrorIs(t, err, types.ErrInvalidPaymentRequired)
}

func TestBase64JSONRoundTrip(t *testing.T) {
	receipt := types.PaymentReceipt{InvoiceID: "inv_1", TxHash: "0xabc", Amount: "1000"}

	enc, err := EncodeBase64JSON(receipt)
	require.NoError(t, err)

	var got types.PaymentReceipt
	require.NoError(t, DecodeBase64JSON(enc, &got))
	assert.Equal(t, receipt, got)
}

func TestParsePaymentRequiredHeader(t *testing.T) {
	enc, err := EncodeBase64JSON(map[string]any{
		"type":      "payment-required",
		"invoiceId": "inv_2",
		"paymentOptions": []map[string]any{{
			"network":   "base",
			"asset":     "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913",
			"amount":    "5",
			"recipient": "0x2222222222222222222222222222222222222222",
			"scheme":    "gasless-router",
		}},
	})
	require.NoError(t, err)

	pr, err := ParsePaymentRequiredHeader(enc)
	require.NoError(t, err)
	assert.Equal(t, "inv_2", pr.InvoiceID)

	_, err = ParsePaymentRequiredHeader("%%%")
	assert.ErrorIs(t, err, types.ErrInvalidPaymentRequired)
}
