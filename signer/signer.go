package signer

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/stablehop/stablehop/logger"
	"github.com/stablehop/stablehop/types"
)

const (
	DefaultValiditySkew   = 60 * time.Second
	DefaultValidityWindow = 5 * time.Minute
)

// TypedDataSigner is the key-holding collaborator. It signs EIP-712 typed
// data and returns a 65-byte R||S||V signature; v may be 0/1 or 27/28.
type TypedDataSigner interface {
	Address() common.Address
	SignTypedData(ctx context.Context, td apitypes.TypedData) ([]byte, error)
}

// AuthorizationRequest describes what to authorize. From is always the
// backend's address.
type AuthorizationRequest struct {
	Domain Domain
	To     string
	Value  *big.Int
	// Deadline, when set, is used as validBefore (unix seconds).
	Deadline int64
	// Nonce, when set, is used instead of a fresh random one.
	Nonce *[32]byte
}

// SignedAuthorization is a signed authorization with the typed data it
// commits to.
type SignedAuthorization struct {
	types.EIP3009Authorization
	TypedData apitypes.TypedData
}

type Option func(*Signer)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		s.now = now
	}
}

// WithValiditySkew sets how far validAfter is placed in the past.
func WithValiditySkew(d time.Duration) Option {
	return func(s *Signer) {
		s.skew = d
	}
}

// WithValidityWindow sets validBefore when no deadline is given.
func WithValidityWindow(d time.Duration) Option {
	return func(s *Signer) {
		s.window = d
	}
}

func WithLogger(l logger.Logger) Option {
	return func(s *Signer) {
		s.logger = logger.OrNoop(l)
	}
}

type Signer struct {
	backend TypedDataSigner
	now     func() time.Time
	skew    time.Duration
	window  time.Duration
	logger  logger.Logger
}

// New returns a Signer over backend. A nil backend is allowed; signing then
// fails with a not-configured error.
func New(backend TypedDataSigner, opts ...Option) *Signer {
	s := &Signer{
		backend: backend,
		now:     time.Now,
		skew:    DefaultValiditySkew,
		window:  DefaultValidityWindow,
		logger:  logger.NoopLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Address returns the authorizing wallet.
func (s *Signer) Address() (common.Address, error) {
	if s.backend == nil {
		return common.Address{}, types.NewNotConfigured("signing backend")
	}
	return s.backend.Address(), nil
}

// SignTransferWithAuth signs a TransferWithAuthorization to req.To.
func (s *Signer) SignTransferWithAuth(ctx context.Context, req AuthorizationRequest) (*SignedAuthorization, error) {
	return s.sign(ctx, TransferWithAuthorizationType, req)
}

// SignReceiveWithAuth signs a ReceiveWithAuthorization; req.To must be the
// contract that will call receiveWithAuthorization.
func (s *Signer) SignReceiveWithAuth(ctx context.Context, req AuthorizationRequest) (*SignedAuthorization, error) {
	return s.sign(ctx, ReceiveWithAuthorizationType, req)
}

func (s *Signer) sign(ctx context.Context, primaryType string, req AuthorizationRequest) (*SignedAuthorization, error) {
	if s.backend == nil {
		return nil, types.NewNotConfigured("signing backend")
	}
	if err := req.Domain.validate(); err != nil {
		return nil, types.NewError(types.ErrCodeInvalidParams, "%v", err)
	}
	if !common.IsHexAddress(req.To) {
		return nil, types.NewError(types.ErrCodeInvalidParams, "invalid recipient %q", req.To)
	}
	if req.Value == nil || req.Value.Sign() <= 0 {
		return nil, types.NewError(types.ErrCodeInvalidParams, "authorization value must be positive")
	}

	now := s.now()
	validAfter := now.Add(-s.skew).Unix()
	validBefore := now.Add(s.window).Unix()
	if req.Deadline > 0 {
		validBefore = req.Deadline
	}
	if validBefore <= now.Unix() || validAfter >= validBefore {
		return nil, types.NewError(types.ErrCodeInvalidParams,
			"validity window is empty: validAfter %d, validBefore %d", validAfter, validBefore)
	}

	var nonce [32]byte
	if req.Nonce != nil {
		nonce = *req.Nonce
	} else {
		var err error
		if nonce, err = GenerateNonce(); err != nil {
			return nil, err
		}
	}

	from := s.backend.Address()
	params := AuthorizationParams{
		Domain:      req.Domain,
		From:        from.Hex(),
		To:          common.HexToAddress(req.To).Hex(),
		Value:       req.Value,
		ValidAfter:  big.NewInt(validAfter),
		ValidBefore: big.NewInt(validBefore),
		Nonce:       nonce,
	}
	td := buildAuthTypedData(primaryType, params)

	raw, err := s.backend.SignTypedData(ctx, td)
	if err != nil {
		return nil, fmt.Errorf("signing backend failed: %w", err)
	}
	sig, err := ParseSignature(raw)
	if err != nil {
		return nil, &types.Error{Code: types.ErrCodeInvalidSignature, Message: "backend returned a malformed signature", Cause: err}
	}

	s.logger.Debug("authorization signed", map[string]any{
		"type":        primaryType,
		"from":        params.From,
		"to":          params.To,
		"value":       params.Value.String(),
		"validBefore": validBefore,
	})

	return &SignedAuthorization{
		EIP3009Authorization: types.EIP3009Authorization{
			From:        params.From,
			To:          params.To,
			Value:       params.Value.String(),
			ValidAfter:  params.ValidAfter.String(),
			ValidBefore: params.ValidBefore.String(),
			Nonce:       hexutil.Encode(nonce[:]),
			V:           sig.V,
			R:           hexutil.Encode(sig.R[:]),
			S:           hexutil.Encode(sig.S[:]),
			Signature:   sig.Hex(),
		},
		TypedData: td,
	}, nil
}
