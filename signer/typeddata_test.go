package signer

import (
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleParams() AuthorizationParams {
	var nonce [32]byte
	nonce[0] = 0xab
	return AuthorizationParams{
		Domain: Domain{
			Name:              "USD Coin",
			Version:           "2",
			ChainID:           84532,
			VerifyingContract: "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
		},
		From:        "0xE4d365a5a8fC0DCEE9E3C5985D7FcBab8B4A0fE1",
		To:          "0x384Aa214be0B279cbf211e9b2C992d8633F77848",
		Value:       big.NewInt(10000),
		ValidAfter:  big.NewInt(1763450282),
		ValidBefore: big.NewInt(1763451182),
		Nonce:       nonce,
	}
}

func TestTypeStrings(t *testing.T) {
	td := BuildTransferAuthTypedData(sampleParams())
	assert.Equal(t,
		"TransferWithAuthorization(address from,address to,uint256 value,uint256 validAfter,uint256 validBefore,bytes32 nonce)",
		string(td.EncodeType(TransferWithAuthorizationType)))
	assert.Equal(t,
		"EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)",
		string(td.EncodeType("EIP712Domain")))

	rd := BuildReceiveAuthTypedData(sampleParams())
	assert.Equal(t,
		"ReceiveWithAuthorization(address from,address to,uint256 value,uint256 validAfter,uint256 validBefore,bytes32 nonce)",
		string(rd.EncodeType(ReceiveWithAuthorizationType)))
}

func TestTypedDataHashDependsOnEveryField(t *testing.T) {
	base, err := TypedDataHash(BuildTransferAuthTypedData(sampleParams()))
	require.NoError(t, err)
	require.Len(t, base, 32)

	mutations := map[string]func(*AuthorizationParams){
		"value":    func(p *AuthorizationParams) { p.Value = big.NewInt(10001) },
		"chain":    func(p *AuthorizationParams) { p.Domain.ChainID = 8453 },
		"nonce":    func(p *AuthorizationParams) { p.Nonce[31] = 1 },
		"deadline": func(p *AuthorizationParams) { p.ValidBefore = big.NewInt(1763451183) },
		"to":       func(p *AuthorizationParams) { p.To = "0x1111111111111111111111111111111111111111" },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			p := sampleParams()
			mutate(&p)
			h, err := TypedDataHash(BuildTransferAuthTypedData(p))
			require.NoError(t, err)
			assert.NotEqual(t, base, h)
		})
	}

	receive, err := TypedDataHash(BuildReceiveAuthTypedData(sampleParams()))
	require.NoError(t, err)
	assert.NotEqual(t, base, receive)
}

func TestGenerateNonceUnique(t *testing.T) {
	seen := make(map[[32]byte]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		n, err := GenerateNonce()
		require.NoError(t, err)
		_, dup := seen[n]
		require.False(t, dup, "nonce collision at %d", i)
		seen[n] = struct{}{}
	}
}

func TestParseNonce(t *testing.T) {
	n, err := ParseNonce("0xab" + strings.Repeat("00", 31))
	require.NoError(t, err)
	assert.Equal(t, byte(0xab), n[0])

	_, err = ParseNonce("0x1234")
	assert.Error(t, err)
}

func TestParseSignature(t *testing.T) {
	raw := make([]byte, 65)
	raw[0], raw[32] = 1, 2

	for in, want := range map[byte]uint8{0: 27, 1: 28, 27: 27, 28: 28} {
		raw[64] = in
		sig, err := ParseSignature(raw)
		require.NoError(t, err)
		assert.Equal(t, want, sig.V)
		assert.Equal(t, byte(1), sig.R[0])
		assert.Equal(t, byte(2), sig.S[0])
		assert.Equal(t, want-27, sig.RecoveryBytes()[64])
	}

	raw[64] = 5
	_, err := ParseSignature(raw)
	assert.Error(t, err)

	_, err = ParseSignature(raw[:64])
	assert.Error(t, err)
}
