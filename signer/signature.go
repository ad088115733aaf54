package signer

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Signature is a secp256k1 signature with v in {27, 28}.
type Signature struct {
	V uint8
	R [32]byte
	S [32]byte
}

// ParseSignature splits a 65-byte R||S||V signature. Backends that return
// v in {0, 1} are normalised to {27, 28}.
func ParseSignature(sig []byte) (Signature, error) {
	var out Signature
	if len(sig) != 65 {
		return out, fmt.Errorf("invalid signature length: %d", len(sig))
	}

	copy(out.R[:], sig[0:32])
	copy(out.S[:], sig[32:64])
	out.V = sig[64]
	if out.V < 27 {
		out.V += 27
	}
	if out.V != 27 && out.V != 28 {
		return Signature{}, fmt.Errorf("invalid signature recovery id: %d", sig[64])
	}
	return out, nil
}

// ParseSignatureHex is ParseSignature over a 0x-prefixed hex string.
func ParseSignatureHex(sigHex string) (Signature, error) {
	b, err := hexutil.Decode(sigHex)
	if err != nil {
		return Signature{}, fmt.Errorf("bad sig hex: %w", err)
	}
	return ParseSignature(b)
}

// Bytes returns R||S||V with v in {27, 28}.
func (s Signature) Bytes() []byte {
	out := make([]byte, 65)
	copy(out[0:32], s.R[:])
	copy(out[32:64], s.S[:])
	out[64] = s.V
	return out
}

// RecoveryBytes returns R||S||V with v in {0, 1}, as crypto.SigToPub expects.
func (s Signature) RecoveryBytes() []byte {
	out := s.Bytes()
	out[64] -= 27
	return out
}

func (s Signature) Hex() string {
	return hexutil.Encode(s.Bytes())
}
