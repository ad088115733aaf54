package main

import (
	"bytes"
	"testing"

	"github.com/stablehop/stablehop"
	"github.com/stablehop/stablehop/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteParamsDefaultsRecipient(t *testing.T) {
	fromChain, fromToken, fromAmount, fromDecs = 8453, "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", "1000000", -1
	userAddress, recipient, slippageBps = "0x1111111111111111111111111111111111111111", "", 30

	p, err := quoteParams()
	require.NoError(t, err)
	assert.Equal(t, userAddress, p.RecipientAddress)
	assert.Equal(t, "1000000", p.FromAmount)
	assert.Equal(t, 30, p.Slippage())

	recipient = "0x2222222222222222222222222222222222222222"
	p, err = quoteParams()
	require.NoError(t, err)
	assert.Equal(t, recipient, p.RecipientAddress)
}

func TestQuoteParamsDecimalAmount(t *testing.T) {
	fromChain, fromToken, fromAmount, fromDecs = 8453, "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", "1.5", 6
	userAddress, recipient, slippageBps = "0x1111111111111111111111111111111111111111", "", 50
	t.Cleanup(func() { fromDecs = -1 })

	p, err := quoteParams()
	require.NoError(t, err)
	assert.Equal(t, "1500000", p.FromAmount)

	fromAmount = "1.0000001"
	_, err = quoteParams()
	assert.ErrorIs(t, err, types.ErrInvalidParams)
}

func TestDisplayUnits(t *testing.T) {
	toDecimals = 6
	assert.Equal(t, "995", displayUnits("995000000"))
	assert.Equal(t, "0.5", displayUnits("500000"))
	assert.Equal(t, "n/a", displayUnits("n/a"))
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "stablehop "+stablehop.Version+"\n", out.String())
}

func TestProviderList(t *testing.T) {
	assert.Equal(t, "lifi, relay, "+string(types.ProviderDeBridge)+", near-intents", providerList())
}
