package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// OrderHashLength is the length of a 0x-prefixed order hash string
const OrderHashLength = 66

// ComputeHash encodes the fields, digests them with keccak256 and applies the
// personal message wrapping expected by wallet "sign message" calls:
// keccak256("\x19Ethereum Signed Message:\n32" ++ keccak256(encoded))
func ComputeHash(fields ...Field) (string, error) {
	encoded, err := Encode(fields...)
	if err != nil {
		return "", err
	}

	digest, err := keccak256(encoded)
	if err != nil {
		return "", err
	}

	return hexutil.Encode(accounts.TextHash(digest)), nil
}

// HashOrder computes the order hash over the protocol field order
func HashOrder(o *Order) (string, error) {
	return ComputeHash(o.Fields()...)
}

// IsValidOrderHash is a syntactic check only: 66 characters with a 0x prefix.
// It does not prove the hash belongs to any order, use VerifyOrderHash for that.
func IsValidOrderHash(candidate string) bool {
	return len(candidate) == OrderHashLength && strings.HasPrefix(candidate, "0x")
}

// VerifyOrderHash recomputes the order hash and compares it to candidate
func VerifyOrderHash(o *Order, candidate string) bool {
	if !IsValidOrderHash(candidate) {
		return false
	}
	h, err := HashOrder(o)
	if err != nil {
		return false
	}
	return strings.EqualFold(h, candidate)
}

func keccak256(data []byte) ([]byte, error) {
	h := crypto.NewKeccakState()
	if _, err := h.Write(data); err != nil {
		return nil, &HashingError{Err: err}
	}
	out := make([]byte, 32)
	if _, err := h.Read(out); err != nil {
		return nil, &HashingError{Err: err}
	}
	return out, nil
}
