package signer_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stablehop/stablehop/signer"
	"github.com/stablehop/stablehop/signer/signertest"
	"github.com/stablehop/stablehop/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDomain = signer.Domain{
	Name:              "USDT0",
	Version:           "1",
	ChainID:           9745,
	VerifyingContract: "0xB8CE59FC3717ada4C02eaDF9682A9e934F625ebb",
}

const recipient = "0x2222222222222222222222222222222222222222"

func fixedClock() func() time.Time {
	now := time.Unix(1_800_000_000, 0)
	return func() time.Time { return now }
}

func recoverAddress(t *testing.T, auth *signer.SignedAuthorization) common.Address {
	t.Helper()
	digest, err := signer.TypedDataHash(auth.TypedData)
	require.NoError(t, err)

	sig, err := signer.ParseSignatureHex(auth.Signature)
	require.NoError(t, err)

	pub, err := crypto.SigToPub(digest, sig.RecoveryBytes())
	require.NoError(t, err)
	return crypto.PubkeyToAddress(*pub)
}

func TestSignTransferWithAuthRoundTrip(t *testing.T) {
	for _, legacy := range []bool{false, true} {
		backend := signertest.NewBackend(t, signer.TypedDataHash)
		backend.LegacyV = legacy
		s := signer.New(backend, signer.WithClock(fixedClock()))

		auth, err := s.SignTransferWithAuth(context.Background(), signer.AuthorizationRequest{
			Domain: testDomain,
			To:     recipient,
			Value:  big.NewInt(1000),
		})
		require.NoError(t, err)

		assert.Contains(t, []uint8{27, 28}, auth.V)
		assert.Equal(t, backend.Address(), recoverAddress(t, auth))
		assert.Equal(t, backend.Address().Hex(), auth.From)
		assert.Equal(t, common.HexToAddress(recipient).Hex(), auth.To)
		assert.Equal(t, "1000", auth.Value)
		assert.Equal(t, signer.TransferWithAuthorizationType, auth.TypedData.PrimaryType)
	}
}

func TestSignReceiveWithAuthUsesReceiveType(t *testing.T) {
	backend := signertest.NewBackend(t, signer.TypedDataHash)
	s := signer.New(backend)

	auth, err := s.SignReceiveWithAuth(context.Background(), signer.AuthorizationRequest{
		Domain: testDomain,
		To:     recipient,
		Value:  big.NewInt(5),
	})
	require.NoError(t, err)
	assert.Equal(t, signer.ReceiveWithAuthorizationType, auth.TypedData.PrimaryType)
	assert.Equal(t, backend.Address(), recoverAddress(t, auth))
}

func TestValidityWindow(t *testing.T) {
	backend := signertest.NewBackend(t, signer.TypedDataHash)
	s := signer.New(backend, signer.WithClock(fixedClock()))

	auth, err := s.SignTransferWithAuth(context.Background(), signer.AuthorizationRequest{
		Domain: testDomain, To: recipient, Value: big.NewInt(1),
	})
	require.NoError(t, err)
	assert.Equal(t, "1799999940", auth.ValidAfter)
	assert.Equal(t, "1800000300", auth.ValidBefore)

	auth, err = s.SignTransferWithAuth(context.Background(), signer.AuthorizationRequest{
		Domain: testDomain, To: recipient, Value: big.NewInt(1), Deadline: 1_800_000_900,
	})
	require.NoError(t, err)
	assert.Equal(t, "1800000900", auth.ValidBefore)

	_, err = s.SignTransferWithAuth(context.Background(), signer.AuthorizationRequest{
		Domain: testDomain, To: recipient, Value: big.NewInt(1), Deadline: 1_799_999_000,
	})
	assert.ErrorIs(t, err, types.ErrInvalidParams)
}

func TestServerNonceIsUsed(t *testing.T) {
	backend := signertest.NewBackend(t, signer.TypedDataHash)
	s := signer.New(backend)

	var nonce [32]byte
	nonce[31] = 7
	auth, err := s.SignTransferWithAuth(context.Background(), signer.AuthorizationRequest{
		Domain: testDomain, To: recipient, Value: big.NewInt(1), Nonce: &nonce,
	})
	require.NoError(t, err)
	assert.Equal(t, hexutil.Encode(nonce[:]), auth.Nonce)
}

func TestSignWithoutBackend(t *testing.T) {
	s := signer.New(nil)

	_, err := s.SignTransferWithAuth(context.Background(), signer.AuthorizationRequest{
		Domain: testDomain, To: recipient, Value: big.NewInt(1),
	})
	assert.True(t, errors.Is(err, types.ErrNotConfigured))

	_, err = s.Address()
	assert.ErrorIs(t, err, types.ErrNotConfigured)
}

func TestSignRejectsBadInput(t *testing.T) {
	s := signer.New(signertest.NewBackend(t, signer.TypedDataHash))

	_, err := s.SignTransferWithAuth(context.Background(), signer.AuthorizationRequest{
		Domain: signer.Domain{Name: "x"}, To: recipient, Value: big.NewInt(1),
	})
	assert.ErrorIs(t, err, types.ErrInvalidParams)

	_, err = s.SignTransferWithAuth(context.Background(), signer.AuthorizationRequest{
		Domain: testDomain, To: "nope", Value: big.NewInt(1),
	})
	assert.ErrorIs(t, err, types.ErrInvalidParams)

	_, err = s.SignTransferWithAuth(context.Background(), signer.AuthorizationRequest{
		Domain: testDomain, To: recipient, Value: big.NewInt(0),
	})
	assert.ErrorIs(t, err, types.ErrInvalidParams)
}
