package clients

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

const erc20ABIJSON = `[
  {"type":"function","name":"balanceOf","stateMutability":"view",
   "inputs":[{"name":"owner","type":"address"}],
   "outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"approve","stateMutability":"nonpayable",
   "inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],
   "outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"transfer","stateMutability":"nonpayable",
   "inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],
   "outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"authorizationState","stateMutability":"view",
   "inputs":[{"name":"authorizer","type":"address"},{"name":"nonce","type":"bytes32"}],
   "outputs":[{"name":"","type":"bool"}]}
]`

var erc20ABI abi.ABI

func init() {
	parsed, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		panic(fmt.Sprintf("erc20 abi: %v", err))
	}
	erc20ABI = parsed
}

// PackApprove returns 0x-hex calldata for approve(spender, amount).
func PackApprove(spender string, amount *big.Int) (string, error) {
	if !common.IsHexAddress(spender) {
		return "", fmt.Errorf("invalid spender %q", spender)
	}
	data, err := erc20ABI.Pack("approve", common.HexToAddress(spender), amount)
	if err != nil {
		return "", err
	}
	return hexutil.Encode(data), nil
}

// PackTransfer returns 0x-hex calldata for transfer(to, amount).
func PackTransfer(to string, amount *big.Int) (string, error) {
	if !common.IsHexAddress(to) {
		return "", fmt.Errorf("invalid recipient %q", to)
	}
	data, err := erc20ABI.Pack("transfer", common.HexToAddress(to), amount)
	if err != nil {
		return "", err
	}
	return hexutil.Encode(data), nil
}

func unpackUint256(method string, out []byte) (*big.Int, error) {
	values, err := erc20ABI.Unpack(method, out)
	if err != nil {
		return nil, err
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("%s: unexpected output count %d", method, len(values))
	}
	v, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected output type %T", method, values[0])
	}
	return v, nil
}

func unpackBool(method string, out []byte) (bool, error) {
	values, err := erc20ABI.Unpack(method, out)
	if err != nil {
		return false, err
	}
	if len(values) != 1 {
		return false, fmt.Errorf("%s: unexpected output count %d", method, len(values))
	}
	v, ok := values[0].(bool)
	if !ok {
		return false, fmt.Errorf("%s: unexpected output type %T", method, values[0])
	}
	return v, nil
}
