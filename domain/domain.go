package domain

import (
	"math/big"
	"strings"

	"golang.org/x/xerrors"
)

type TokenType int

const (
	TokenType721  TokenType = 721
	TokenType1155 TokenType = 1155
)

// Address is a lowercase hex account or contract address.
type Address string

const EmptyAddress = Address("0x0000000000000000000000000000000000000000")

// NativeCurrency is the sentinel currency identity for the chain's base
// asset, as opposed to an erc20 contract.
const NativeCurrency = EmptyAddress

func (a Address) ToLower() Address {
	return Address(strings.ToLower(string(a)))
}

func (a Address) ToLowerStr() string {
	return strings.ToLower(string(a))
}

func (a Address) IsEmpty() bool {
	return len(a) == 0 || a.Equals(EmptyAddress)
}

func (a Address) Equals(b Address) bool {
	return a.ToLowerStr() == b.ToLowerStr()
}

// TokenId is a decimal-encoded uint256 token id.
type TokenId string

func (t TokenId) Big() (*big.Int, error) {
	if t == "" {
		return big.NewInt(0), nil
	}
	v, ok := new(big.Int).SetString(string(t), 10)
	if !ok || v.Sign() < 0 {
		return nil, xerrors.Errorf("parse token id %q: %w", string(t), ErrInvalidNumberFormat)
	}
	return v, nil
}

// ListingId identifies a listing. Ids are assigned monotonically and never
// reused.
type ListingId uint64

// FeeRateDenominator is the denominator of marketplace fee rates, i.e. a
// fee rate of 1000 is 1%.
const FeeRateDenominator = 100000

// ParseAmount parses a non-negative integer amount in base units.
func ParseAmount(s string) (*big.Int, error) {
	if s == "" {
		return big.NewInt(0), nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, xerrors.Errorf("parse amount %q: %w", s, ErrInvalidNumberFormat)
	}
	return v, nil
}
