package zeroexorder

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/kaifufi/zeroex-order-sdk-go/chain"
)

const (
	MaxDecimals = 18
	NullAddress = chain.NullAddress
)

var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// ToBaseUnits converts a human-readable token amount to base units,
// e.g. "1.5" with 18 decimals is 1500000000000000000
func ToBaseUnits(amount string, decimals int) (*big.Int, error) {
	if decimals < 0 || decimals > MaxDecimals {
		return nil, &InvalidParamError{Message: fmt.Sprintf("decimals must be between 0 and %d, got: %d", MaxDecimals, decimals)}
	}

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, &InvalidParamError{Message: fmt.Sprintf("invalid amount %q: %v", amount, err)}
	}
	if d.Sign() <= 0 {
		return nil, &InvalidParamError{Message: fmt.Sprintf("amount must be positive, got: %s", amount)}
	}

	shifted := d.Shift(int32(decimals))
	if !shifted.IsInteger() {
		return nil, &InvalidParamError{Message: fmt.Sprintf("amount %s has more than %d decimal places", amount, decimals)}
	}

	result := shifted.BigInt()
	if result.Cmp(maxUint256) > 0 {
		return nil, &InvalidParamError{Message: fmt.Sprintf("amount too large for uint256: %s", result.String())}
	}

	return result, nil
}

// FromBaseUnits renders base units as a human-readable decimal string
func FromBaseUnits(amount *big.Int, decimals int) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -int32(decimals)).String()
}

// GeneratePseudoRandomSalt returns a fresh 256-bit order salt
func GeneratePseudoRandomSalt() (*big.Int, error) {
	return chain.GeneratePseudoRandomSalt()
}

// IsValidOrderHash reports whether candidate has the order hash shape.
// It is a syntactic pre-check, not proof of origin.
func IsValidOrderHash(candidate string) bool {
	return chain.IsValidOrderHash(candidate)
}

// DidUserDenyRequest reports whether err came from the user rejecting a wallet prompt
func DidUserDenyRequest(err error) bool {
	return chain.DidUserDenyRequest(err)
}
