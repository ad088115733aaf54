package utils

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// MaxUint256 is 2^256 - 1.
var MaxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// NativeTokenAddresses are the placeholder addresses providers use for a
// chain's gas token.
var NativeTokenAddresses = []string{
	"0x0000000000000000000000000000000000000000",
	"0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE",
}

// ParseUint256 parses a base-10 unsigned integer that fits in 256 bits.
func ParseUint256(value string) (*big.Int, error) {
	if value == "" {
		return nil, fmt.Errorf("value cannot be empty")
	}
	if strings.HasPrefix(value, "+") || strings.HasPrefix(value, "-") {
		return nil, fmt.Errorf("invalid unsigned integer %q", value)
	}

	n, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid unsigned integer %q", value)
	}
	if n.Cmp(MaxUint256) > 0 {
		return nil, fmt.Errorf("value %q overflows uint256", value)
	}
	return n, nil
}

// ParseHexOrDecimal parses "0x"-prefixed hex or base-10 integers, as
// provider APIs mix both for transaction values.
func ParseHexOrDecimal(value string) (*big.Int, error) {
	if value == "" {
		return big.NewInt(0), nil
	}
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		if len(value) == 2 {
			return big.NewInt(0), nil
		}
		n, ok := new(big.Int).SetString(value[2:], 16)
		if !ok {
			return nil, fmt.Errorf("invalid hex integer %q", value)
		}
		return n, nil
	}
	return ParseUint256(value)
}

// ParseUSD parses a non-negative USD figure; empty means zero.
func ParseUSD(value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	dec, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount format: %w", err)
	}
	if dec.IsNegative() {
		return decimal.Zero, fmt.Errorf("amount cannot be negative")
	}
	return dec, nil
}

// ValidateAddress reports whether address is a 0x-prefixed EVM address.
func ValidateAddress(address string) bool {
	return strings.HasPrefix(address, "0x") && common.IsHexAddress(address)
}

// IsNativeToken reports whether address denotes the chain's gas token.
func IsNativeToken(address string) bool {
	for _, a := range NativeTokenAddresses {
		if strings.EqualFold(a, address) {
			return true
		}
	}
	return false
}

// SameAddress compares two EVM addresses case-insensitively.
func SameAddress(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// FormatUnits renders an integer amount with the given decimals.
func FormatUnits(amount *big.Int, decimals int32) string {
	return decimal.NewFromBigInt(amount, -decimals).String()
}

// ParseUnits converts a human amount ("1.5") into integer units.
func ParseUnits(amount string, decimals int32) (*big.Int, error) {
	dec, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount format: %w", err)
	}
	if dec.IsNegative() {
		return nil, fmt.Errorf("amount cannot be negative")
	}
	scaled := dec.Shift(decimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, fmt.Errorf("amount %s has more than %d decimals", amount, decimals)
	}
	return scaled.BigInt(), nil
}
