package signer

import (
	"crypto/rand"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// GenerateNonce returns 32 bytes from the system CSPRNG. EIP-3009 nonces are
// single-use per authorizer, so uniqueness rests entirely on randomness.
func GenerateNonce() ([32]byte, error) {
	var nonce [32]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nonce, fmt.Errorf("failed to read random nonce: %w", err)
	}
	return nonce, nil
}

// ParseNonce decodes a 0x-prefixed bytes32 nonce.
func ParseNonce(s string) ([32]byte, error) {
	var nonce [32]byte
	b, err := hexutil.Decode(s)
	if err != nil {
		return nonce, fmt.Errorf("invalid nonce: %w", err)
	}
	if len(b) != 32 {
		return nonce, fmt.Errorf("invalid nonce length: %d", len(b))
	}
	copy(nonce[:], b)
	return nonce, nil
}
