package clients

import (
	"context"
	"fmt"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/stablehop/stablehop/types"
	"github.com/stablehop/stablehop/utils"
)

// ChainBackend is the subset of ethclient.Client the reader needs.
type ChainBackend interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	Close()
}

// EVMClient reads token state from one EVM network.
type EVMClient struct {
	rpcURL  string
	network types.Network
	backend ChainBackend
}

func NewEVMClient(network types.Network, rpcURL string) (*EVMClient, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Ethereum RPC: %w", err)
	}

	return &EVMClient{
		network: network,
		rpcURL:  rpcURL,
		backend: client,
	}, nil
}

// NewEVMClientWithBackend wraps an existing backend.
func NewEVMClientWithBackend(network types.Network, backend ChainBackend) *EVMClient {
	return &EVMClient{network: network, backend: backend}
}

func (e *EVMClient) Close() {
	e.backend.Close()
}

func (e *EVMClient) GetNetwork() types.Network {
	return e.network
}

// BalanceOf returns owner's balance of token. Native placeholder addresses
// read the account balance instead.
func (e *EVMClient) BalanceOf(ctx context.Context, token, owner string) (*big.Int, error) {
	if !common.IsHexAddress(owner) {
		return nil, fmt.Errorf("invalid owner %q", owner)
	}
	if utils.IsNativeToken(token) {
		return e.NativeBalance(ctx, owner)
	}
	if !common.IsHexAddress(token) {
		return nil, fmt.Errorf("invalid token %q", token)
	}

	data, err := erc20ABI.Pack("balanceOf", common.HexToAddress(owner))
	if err != nil {
		return nil, err
	}
	contract := common.HexToAddress(token)
	out, err := e.backend.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("balanceOf on %s: %w", e.network, err)
	}
	return unpackUint256("balanceOf", out)
}

func (e *EVMClient) NativeBalance(ctx context.Context, owner string) (*big.Int, error) {
	bal, err := e.backend.BalanceAt(ctx, common.HexToAddress(owner), nil)
	if err != nil {
		return nil, fmt.Errorf("balance on %s: %w", e.network, err)
	}
	return bal, nil
}

// AuthorizationState reports whether an EIP-3009 nonce was already used.
func (e *EVMClient) AuthorizationState(ctx context.Context, token, authorizer string, nonce [32]byte) (bool, error) {
	data, err := erc20ABI.Pack("authorizationState", common.HexToAddress(authorizer), nonce)
	if err != nil {
		return false, err
	}
	contract := common.HexToAddress(token)
	out, err := e.backend.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, nil)
	if err != nil {
		return false, fmt.Errorf("authorizationState on %s: %w", e.network, err)
	}
	return unpackBool("authorizationState", out)
}
