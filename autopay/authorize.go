package autopay

import (
	"context"
	"math/big"

	"github.com/stablehop/stablehop/signer"
	"github.com/stablehop/stablehop/types"
	"github.com/stablehop/stablehop/verification"
)

// Token domain defaults when an option carries no extra.name/extra.version.
const (
	DefaultTokenName    = "USD Coin"
	DefaultTokenVersion = "2"
)

// domainFor derives the token's EIP-712 domain from an option.
func domainFor(opt *types.PaymentOption) (signer.Domain, error) {
	chainID := opt.ChainID
	if chainID == 0 {
		id, ok := opt.Network.ChainID()
		if !ok {
			return signer.Domain{}, types.NewError(types.ErrCodeInvalidPaymentRequired, "unknown network %q", opt.Network)
		}
		chainID = id
	}
	name := opt.ExtraString("name")
	if name == "" {
		name = DefaultTokenName
	}
	version := opt.ExtraString("version")
	if version == "" {
		version = DefaultTokenVersion
	}
	return signer.Domain{
		Name:              name,
		Version:           version,
		ChainID:           chainID,
		VerifyingContract: opt.Asset,
	}, nil
}

// authorize signs the option's authorization and checks that it recovers to
// the wallet before it is submitted.
func (c *Client) authorize(ctx context.Context, opt *types.PaymentOption, amount *big.Int) (*signer.SignedAuthorization, error) {
	domain, err := domainFor(opt)
	if err != nil {
		return nil, err
	}
	req := signer.AuthorizationRequest{
		Domain:   domain,
		Value:    amount,
		Deadline: opt.Deadline,
	}
	if opt.Nonce != "" {
		nonce, err := signer.ParseNonce(opt.Nonce)
		if err != nil {
			return nil, types.NewError(types.ErrCodeInvalidPaymentRequired, "invalid nonce: %v", err)
		}
		if err := c.checkNonceUnused(ctx, opt, nonce); err != nil {
			return nil, err
		}
		req.Nonce = &nonce
	}

	var auth *signer.SignedAuthorization
	switch opt.Scheme {
	case types.SchemeTransferWithAuthorization:
		req.To = opt.Recipient
		auth, err = c.signer.SignTransferWithAuth(ctx, req)
	case types.SchemeGaslessRouter:
		if opt.Router == "" {
			return nil, types.NewError(types.ErrCodeInvalidPaymentRequired, "router scheme without router address")
		}
		req.To = opt.Router
		auth, err = c.signer.SignReceiveWithAuth(ctx, req)
	default:
		return nil, types.NewError(types.ErrCodeUnsupportedScheme, "unsupported scheme %q", opt.Scheme)
	}
	if err != nil {
		return nil, err
	}

	owner, err := c.signer.Address()
	if err != nil {
		return nil, err
	}
	if err := verification.VerifyAuthorization(auth.TypedData, auth.EIP3009Authorization, owner); err != nil {
		return nil, err
	}
	return auth, nil
}

// checkNonceUnused refuses a server-supplied nonce the token contract has
// already consumed for the wallet.
func (c *Client) checkNonceUnused(ctx context.Context, opt *types.PaymentOption, nonce [32]byte) error {
	if c.nonces == nil {
		return nil
	}
	owner, err := c.signer.Address()
	if err != nil {
		return err
	}
	used, err := c.nonces.AuthorizationState(ctx, opt.Network, opt.Asset, owner.Hex(), nonce)
	if err != nil {
		return err
	}
	if used {
		return types.NewError(types.ErrCodeInvalidPaymentRequired, "nonce %s already used", opt.Nonce)
	}
	return nil
}
