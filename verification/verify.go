// Package verification checks signed authorizations before they leave the
// process.
package verification

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/stablehop/stablehop/signer"
	"github.com/stablehop/stablehop/types"
	"github.com/stablehop/stablehop/utils"
)

// RecoverAuthorizer returns the address that produced sig over td.
func RecoverAuthorizer(td apitypes.TypedData, sig []byte) (common.Address, error) {
	parsed, err := signer.ParseSignature(sig)
	if err != nil {
		return common.Address{}, err
	}

	digest, err := signer.TypedDataHash(td)
	if err != nil {
		return common.Address{}, err
	}

	pubKey, err := crypto.SigToPub(digest, parsed.RecoveryBytes())
	if err != nil {
		return common.Address{}, fmt.Errorf("sig to pub failed: %w", err)
	}
	return crypto.PubkeyToAddress(*pubKey), nil
}

// VerifyAuthorization checks that auth matches the message in td and that
// its signature recovers to expected.
func VerifyAuthorization(td apitypes.TypedData, auth types.EIP3009Authorization, expected common.Address) error {
	if err := matchMessage(td, auth); err != nil {
		return invalid("authorization does not match signed message", err)
	}

	if err := checkValidity(auth); err != nil {
		return invalid("invalid validity window", err)
	}

	sig, err := signer.ParseSignatureHex(auth.Signature)
	if err != nil {
		return invalid("malformed signature", err)
	}
	if auth.V != 0 && auth.V != sig.V {
		return invalid("v does not match signature", nil)
	}

	recovered, err := RecoverAuthorizer(td, sig.Bytes())
	if err != nil {
		return invalid("signature recovery failed", err)
	}
	if recovered != expected {
		return invalid(fmt.Sprintf("signer %s does not match expected %s", recovered.Hex(), expected.Hex()), nil)
	}
	if !utils.SameAddress(auth.From, expected.Hex()) {
		return invalid("authorization from does not match signer", nil)
	}
	return nil
}

func matchMessage(td apitypes.TypedData, auth types.EIP3009Authorization) error {
	fields := map[string]string{
		"from":        auth.From,
		"to":          auth.To,
		"value":       auth.Value,
		"validAfter":  auth.ValidAfter,
		"validBefore": auth.ValidBefore,
		"nonce":       auth.Nonce,
	}
	for name, want := range fields {
		if got := signer.MessageString(td, name); !strings.EqualFold(got, want) {
			return fmt.Errorf("field %s: signed %q, authorization %q", name, got, want)
		}
	}
	return nil
}

func checkValidity(auth types.EIP3009Authorization) error {
	after, ok := new(big.Int).SetString(auth.ValidAfter, 10)
	if !ok {
		return fmt.Errorf("bad validAfter %q", auth.ValidAfter)
	}
	before, ok := new(big.Int).SetString(auth.ValidBefore, 10)
	if !ok {
		return fmt.Errorf("bad validBefore %q", auth.ValidBefore)
	}
	if after.Cmp(before) >= 0 {
		return fmt.Errorf("validAfter %s not before validBefore %s", after, before)
	}
	return nil
}

func invalid(msg string, cause error) error {
	return &types.Error{Code: types.ErrCodeInvalidSignature, Message: msg, Cause: cause}
}
