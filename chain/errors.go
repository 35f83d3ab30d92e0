package chain

import (
	"errors"
	"fmt"
)

var (
	// ErrEncoding is matched by every canonical encoding failure
	ErrEncoding = errors.New("order encoding failed")

	// ErrHashing is matched when the digest primitive fails
	ErrHashing = errors.New("order hashing failed")

	// ErrUserDenied is returned by signers when the user rejects the request
	ErrUserDenied = errors.New("user denied sign request")
)

// Order validation errors
var (
	ErrInvalidOrderSalt   = errors.New("invalid order salt")
	ErrInvalidMaker       = errors.New("invalid maker address")
	ErrInvalidMakerAmount = errors.New("invalid maker amount")
	ErrInvalidTakerAmount = errors.New("invalid taker amount")
	ErrInvalidExpiration  = errors.New("invalid expiration")
	ErrInvalidSignature   = errors.New("invalid signature")
)

// EncodingError describes a field that could not be canonically encoded
type EncodingError struct {
	Index  int
	Kind   string
	Value  string
	Reason string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encode field %d (%s) %q: %s", e.Index, e.Kind, e.Value, e.Reason)
}

func (e *EncodingError) Unwrap() error {
	return ErrEncoding
}

// HashingError wraps a failure of the underlying digest
type HashingError struct {
	Err error
}

func (e *HashingError) Error() string {
	return fmt.Sprintf("keccak256 digest: %v", e.Err)
}

func (e *HashingError) Unwrap() []error {
	return []error{ErrHashing, e.Err}
}
