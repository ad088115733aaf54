package clients

import (
	"context"
	"errors"
	"math/big"
	"testing"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stablehop/stablehop/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	lastCall ethereum.CallMsg
	callOut  []byte
	callErr  error
	native   *big.Int
	closed   bool
}

func (f *fakeBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.lastCall = msg
	return f.callOut, f.callErr
}

func (f *fakeBackend) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	return f.native, nil
}

func (f *fakeBackend) Close() { f.closed = true }

const (
	usdt  = "0xB8CE59FC3717ada4C02eaDF9682A9e934F625ebb"
	owner = "0x1111111111111111111111111111111111111111"
)

func TestBalanceOfERC20(t *testing.T) {
	out, err := erc20ABI.Methods["balanceOf"].Outputs.Pack(big.NewInt(1_500_000))
	require.NoError(t, err)
	backend := &fakeBackend{callOut: out}
	c := NewEVMClientWithBackend(types.NetworkPlasma, backend)

	bal, err := c.BalanceOf(context.Background(), usdt, owner)
	require.NoError(t, err)
	assert.Equal(t, "1500000", bal.String())

	require.NotNil(t, backend.lastCall.To)
	assert.Equal(t, common.HexToAddress(usdt), *backend.lastCall.To)
	assert.Equal(t, erc20ABI.Methods["balanceOf"].ID, backend.lastCall.Data[:4])
}

func TestBalanceOfNative(t *testing.T) {
	backend := &fakeBackend{native: big.NewInt(7)}
	c := NewEVMClientWithBackend(types.NetworkBase, backend)

	bal, err := c.BalanceOf(context.Background(), "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE", owner)
	require.NoError(t, err)
	assert.Equal(t, int64(7), bal.Int64())
}

func TestBalanceOfPropagatesRPCError(t *testing.T) {
	c := NewEVMClientWithBackend(types.NetworkBase, &fakeBackend{callErr: errors.New("rpc down")})
	_, err := c.BalanceOf(context.Background(), usdt, owner)
	assert.ErrorContains(t, err, "rpc down")
}

func TestAuthorizationState(t *testing.T) {
	out, err := erc20ABI.Methods["authorizationState"].Outputs.Pack(true)
	require.NoError(t, err)
	c := NewEVMClientWithBackend(types.NetworkPlasma, &fakeBackend{callOut: out})

	used, err := c.AuthorizationState(context.Background(), usdt, owner, [32]byte{1})
	require.NoError(t, err)
	assert.True(t, used)
}

func TestPackApproveAndTransfer(t *testing.T) {
	data, err := PackApprove("0x2222222222222222222222222222222222222222", big.NewInt(10))
	require.NoError(t, err)
	raw, err := hexutil.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, erc20ABI.Methods["approve"].ID, raw[:4])
	assert.Len(t, raw, 4+64)

	args, err := erc20ABI.Methods["approve"].Inputs.Unpack(raw[4:])
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x2222222222222222222222222222222222222222"), args[0])
	assert.Equal(t, big.NewInt(10), args[1])

	data, err = PackTransfer("0x3333333333333333333333333333333333333333", big.NewInt(99))
	require.NoError(t, err)
	raw, err = hexutil.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, erc20ABI.Methods["transfer"].ID, raw[:4])

	_, err = PackApprove("bogus", big.NewInt(1))
	assert.Error(t, err)
}

func TestMultiChainRouting(t *testing.T) {
	out, err := erc20ABI.Methods["balanceOf"].Outputs.Pack(big.NewInt(3))
	require.NoError(t, err)

	m := NewMultiChain()
	first := &fakeBackend{callOut: out}
	m.Add(NewEVMClientWithBackend(types.NetworkPlasma, first))

	bal, err := m.BalanceOf(context.Background(), types.NetworkPlasma, usdt, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(3), bal.Int64())

	_, err = m.BalanceOf(context.Background(), types.NetworkBase, usdt, owner)
	assert.ErrorIs(t, err, types.ErrNotConfigured)

	m.Add(NewEVMClientWithBackend(types.NetworkPlasma, &fakeBackend{callOut: out}))
	assert.True(t, first.closed)
	assert.Len(t, m.Networks(), 1)

	m.Close()
	assert.Empty(t, m.Networks())
}

func TestMultiChainNativeBalance(t *testing.T) {
	m := NewMultiChain()
	m.Add(NewEVMClientWithBackend(types.NetworkBase, &fakeBackend{native: big.NewInt(42)}))

	bal, err := m.NativeBalance(context.Background(), types.NetworkBase, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(42), bal.Int64())

	_, err = m.NativeBalance(context.Background(), types.NetworkPlasma, owner)
	assert.ErrorIs(t, err, types.ErrNotConfigured)
}

func TestMultiChainAuthorizationState(t *testing.T) {
	out, err := erc20ABI.Methods["authorizationState"].Outputs.Pack(false)
	require.NoError(t, err)
	backend := &fakeBackend{callOut: out}

	m := NewMultiChain()
	m.Add(NewEVMClientWithBackend(types.NetworkPlasma, backend))

	used, err := m.AuthorizationState(context.Background(), types.NetworkPlasma, usdt, owner, [32]byte{7})
	require.NoError(t, err)
	assert.False(t, used)
	assert.Equal(t, erc20ABI.Methods["authorizationState"].ID, backend.lastCall.Data[:4])

	_, err = m.AuthorizationState(context.Background(), types.NetworkBase, usdt, owner, [32]byte{7})
	assert.ErrorIs(t, err, types.ErrNotConfigured)
}

func TestBalanceOfNativeMatchesPlaceholderList(t *testing.T) {
	c := NewEVMClientWithBackend(types.NetworkBase, &fakeBackend{native: big.NewInt(5)})

	bal, err := c.BalanceOf(context.Background(), "0x0000000000000000000000000000000000000000", owner)
	require.NoError(t, err)
	assert.Equal(t, int64(5), bal.Int64())

	_, err = c.BalanceOf(context.Background(), "", owner)
	assert.ErrorContains(t, err, "invalid token")
}
