package zeroexorder

import (
	"errors"
	"fmt"

	"github.com/kaifufi/zeroex-order-sdk-go/chain"
)

var (
	// ErrEncoding represents a malformed or oversized order field
	ErrEncoding = chain.ErrEncoding

	// ErrHashing represents a digest primitive failure
	ErrHashing = chain.ErrHashing

	// ErrUserDenied represents the signer rejecting the request
	ErrUserDenied = chain.ErrUserDenied

	// ErrMissingExchangeContract represents no deployed exchange on the current network
	ErrMissingExchangeContract = errors.New("no exchange contract for network")

	// ErrValidationFailed represents an assembled order failing schema validation
	ErrValidationFailed = errors.New("order validation failed")

	// ErrTransport represents a relay request failure
	ErrTransport = errors.New("relay transport error")

	// ErrUnexpected represents any other failure
	ErrUnexpected = errors.New("unexpected error")

	// ErrInvalidParam represents an invalid parameter error
	ErrInvalidParam = errors.New("invalid parameter")

	// ErrSignInProgress is returned when a sign attempt is already in flight
	ErrSignInProgress = errors.New("sign request already in progress")

	// ErrCancelled is returned to a sign attempt abandoned by Cancel
	ErrCancelled = errors.New("sign request cancelled")

	// ErrNotSigned is returned when acknowledging a session that is not signed
	ErrNotSigned = errors.New("order is not signed")

	// ErrInsufficientBalance represents a maker balance below the maker amount
	ErrInsufficientBalance = errors.New("balance not enough")

	// ErrInsufficientAllowance represents a proxy allowance below the maker amount
	ErrInsufficientAllowance = errors.New("allowance not enough")
)

// User facing messages
const (
	MsgFixErrors         = "You must fix the above errors in order to generate a valid order"
	MsgEnableWallet      = "You must enable wallet communication"
	MsgUserDenied        = "User denied sign request"
	MsgSigningFailed     = "Order signing failed. Please refresh and try again"
	MsgUnexpected        = "An unexpected error occurred. Please try refreshing the page"
	MsgMissingExchange   = "No exchange contract is deployed on the selected network"
	MsgEncodingFailed    = "The order could not be encoded. Please check the order fields"
	MsgRelaySubmitFailed = "Failed to submit order to the relay"
)

// InvalidParamError represents an invalid parameter error with context
type InvalidParamError struct {
	Message string
}

func (e *InvalidParamError) Error() string {
	return e.Message
}

func (e *InvalidParamError) Unwrap() error {
	return ErrInvalidParam
}

// ErrorKind classifies a failed sign attempt
type ErrorKind int

const (
	KindUnexpected ErrorKind = iota
	KindInvalidOrder
	KindEncoding
	KindHashing
	KindUserDenied
	KindMissingExchangeContract
	KindValidationFailed
	KindTransport
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidOrder:
		return "InvalidOrder"
	case KindEncoding:
		return "EncodingError"
	case KindHashing:
		return "HashingError"
	case KindUserDenied:
		return "UserDenied"
	case KindMissingExchangeContract:
		return "MissingExchangeContract"
	case KindValidationFailed:
		return "ValidationFailed"
	case KindTransport:
		return "TransportError"
	default:
		return "UnexpectedError"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindInvalidOrder:
		return ErrInvalidParam
	case KindEncoding:
		return ErrEncoding
	case KindHashing:
		return ErrHashing
	case KindUserDenied:
		return ErrUserDenied
	case KindMissingExchangeContract:
		return ErrMissingExchangeContract
	case KindValidationFailed:
		return ErrValidationFailed
	case KindTransport:
		return ErrTransport
	default:
		return ErrUnexpected
	}
}

// SigningError is returned by a failed sign attempt. UserMessage is safe to
// show; Err carries the diagnostic cause.
type SigningError struct {
	Kind             ErrorKind
	UserMessage      string
	ValidationErrors []string
	Err              error
}

func (e *SigningError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.UserMessage)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *SigningError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind.sentinel()}
	}
	return []error{e.Kind.sentinel(), e.Err}
}

// TransportError represents a failed relay request. StatusCode is zero when
// no response was received.
type TransportError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("relay request failed: %v", e.Err)
	}
	return fmt.Sprintf("relay HTTP %d: %s", e.StatusCode, e.Body)
}

func (e *TransportError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrTransport}
	}
	return []error{ErrTransport, e.Err}
}
