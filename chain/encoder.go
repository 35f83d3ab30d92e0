package chain

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

const (
	// AddressLength is the encoded width of an address field
	AddressLength = common.AddressLength

	// WordLength is the encoded width of a numeric field
	WordLength = 32

	// ZeroAddressLiteral is the short form accepted for the zero address
	ZeroAddressLiteral = "0x0"
)

// Field is one element of the canonical order encoding
type Field interface {
	kind() string
	encode() ([]byte, string)
}

// AddressField is an address-shaped field, always encoded as 20 bytes.
// The empty string and "0x0" both mean the zero address.
type AddressField string

// AmountField is an unsigned integer encoded as a 32-byte big-endian word
type AmountField struct {
	Value *big.Int
}

// RawHexField is copied byte for byte from its hex representation
type RawHexField string

// Address wraps a hex address as a Field
func Address(addr string) AddressField {
	return AddressField(addr)
}

// Amount wraps an integer as a Field
func Amount(v *big.Int) AmountField {
	return AmountField{Value: v}
}

// RawHex wraps a hex string as a Field
func RawHex(h string) RawHexField {
	return RawHexField(h)
}

func (f AddressField) kind() string { return "address" }

func (f AddressField) encode() ([]byte, string) {
	s := string(f)
	if s == "" || s == ZeroAddressLiteral {
		return make([]byte, AddressLength), ""
	}
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return nil, "address must be 0x-prefixed"
	}
	if !common.IsHexAddress(s) {
		return nil, "address must be 20 bytes of hex"
	}
	return common.HexToAddress(s).Bytes(), ""
}

func (f AmountField) kind() string { return "amount" }

func (f AmountField) encode() ([]byte, string) {
	if f.Value == nil {
		return nil, "amount is missing"
	}
	if f.Value.Sign() < 0 {
		return nil, "amount must not be negative"
	}
	word, overflow := uint256.FromBig(f.Value)
	if overflow {
		return nil, "amount does not fit in 32 bytes"
	}
	b := word.Bytes32()
	return b[:], ""
}

func (f AmountField) String() string {
	if f.Value == nil {
		return "<nil>"
	}
	return f.Value.String()
}

func (f RawHexField) kind() string { return "hex" }

func (f RawHexField) encode() ([]byte, string) {
	b, err := hexutil.Decode(string(f))
	if err != nil {
		return nil, err.Error()
	}
	return b, ""
}

// Encode concatenates the canonical bytes of every field in order
func Encode(fields ...Field) ([]byte, error) {
	out := make([]byte, 0, len(fields)*WordLength)
	for i, f := range fields {
		if f == nil {
			return nil, &EncodingError{Index: i, Kind: "nil", Reason: "field is nil"}
		}
		b, reason := f.encode()
		if reason != "" {
			return nil, &EncodingError{Index: i, Kind: f.kind(), Value: fieldValue(f), Reason: reason}
		}
		out = append(out, b...)
	}
	return out, nil
}

func fieldValue(f Field) string {
	switch v := f.(type) {
	case AddressField:
		return string(v)
	case RawHexField:
		return string(v)
	case AmountField:
		return v.String()
	}
	return ""
}
