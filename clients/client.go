// Package clients provides read-only access to EVM chains.
package clients

import (
	"context"
	"math/big"
	"sync"

	"github.com/stablehop/stablehop/types"
)

// BalanceReader reads wallet balances per network.
type BalanceReader interface {
	BalanceOf(ctx context.Context, network types.Network, token, owner string) (*big.Int, error)
}

// NonceChecker reports whether an EIP-3009 nonce was already consumed on a
// token contract.
type NonceChecker interface {
	AuthorizationState(ctx context.Context, network types.Network, token, authorizer string, nonce [32]byte) (bool, error)
}

var (
	_ BalanceReader = (*MultiChain)(nil)
	_ NonceChecker  = (*MultiChain)(nil)
)

// MultiChain routes reads to the client of each network.
type MultiChain struct {
	mu      sync.RWMutex
	clients map[types.Network]*EVMClient
}

func NewMultiChain() *MultiChain {
	return &MultiChain{clients: make(map[types.Network]*EVMClient)}
}

// Add registers the client for its network, replacing any previous one.
func (m *MultiChain) Add(client *EVMClient) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.clients[client.GetNetwork()]; ok && old != client {
		old.Close()
	}
	m.clients[client.GetNetwork()] = client
}

// Client returns the client of network.
func (m *MultiChain) Client(network types.Network) (*EVMClient, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.clients[network]
	return c, ok
}

func (m *MultiChain) BalanceOf(ctx context.Context, network types.Network, token, owner string) (*big.Int, error) {
	c, ok := m.Client(network)
	if !ok {
		return nil, types.NewNotConfigured("rpc for network " + network.String())
	}
	return c.BalanceOf(ctx, token, owner)
}

// NativeBalance reads the gas token balance of owner on network.
func (m *MultiChain) NativeBalance(ctx context.Context, network types.Network, owner string) (*big.Int, error) {
	c, ok := m.Client(network)
	if !ok {
		return nil, types.NewNotConfigured("rpc for network " + network.String())
	}
	return c.NativeBalance(ctx, owner)
}

func (m *MultiChain) AuthorizationState(ctx context.Context, network types.Network, token, authorizer string, nonce [32]byte) (bool, error) {
	c, ok := m.Client(network)
	if !ok {
		return false, types.NewNotConfigured("rpc for network " + network.String())
	}
	return c.AuthorizationState(ctx, token, authorizer, nonce)
}

// Networks lists the configured networks.
func (m *MultiChain) Networks() []types.Network {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.Network, 0, len(m.clients))
	for n := range m.clients {
		out = append(out, n)
	}
	return out
}

func (m *MultiChain) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for n, c := range m.clients {
		c.Close()
		delete(m.clients, n)
	}
}
