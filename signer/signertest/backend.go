// Package signertest provides an in-memory signing backend for tests.
package signertest

import (
	"context"
	"crypto/ecdsa"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Backend signs with a throwaway key and counts calls.
type Backend struct {
	key *ecdsa.PrivateKey
	// LegacyV makes signatures carry v in {27, 28} instead of {0, 1}.
	LegacyV bool
	calls   atomic.Int64
	hash    func(apitypes.TypedData) ([]byte, error)
}

// NewBackend generates a fresh key. hash computes the EIP-712 digest.
func NewBackend(t testing.TB, hash func(apitypes.TypedData) ([]byte, error)) *Backend {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return &Backend{key: key, hash: hash}
}

func (b *Backend) Address() common.Address {
	return crypto.PubkeyToAddress(b.key.PublicKey)
}

func (b *Backend) SignTypedData(_ context.Context, td apitypes.TypedData) ([]byte, error) {
	b.calls.Add(1)
	digest, err := b.hash(td)
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(digest, b.key)
	if err != nil {
		return nil, err
	}
	if b.LegacyV {
		sig[64] += 27
	}
	return sig, nil
}

// Calls reports how many times SignTypedData ran.
func (b *Backend) Calls() int64 {
	return b.calls.Load()
}
