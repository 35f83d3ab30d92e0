package zeroexorder

import (
	"encoding/json"

	"github.com/kaifufi/zeroex-order-sdk-go/chain"
)

// Order types shared with the chain package
type (
	Order                      = chain.Order
	OrderData                  = chain.OrderData
	Token                      = chain.Token
	SignatureData              = chain.ECSignature
	SignedOrder                = chain.SignedOrder
	RelayOrderPayload          = chain.RelayOrderPayload
	RelayOrderPayloadSignature = chain.ECSignature
	Signer                     = chain.Signer
	SignerFunc                 = chain.SignerFunc
)

// SigningState represents the state of an in-progress order
type SigningState int

const (
	StateUnsigned SigningState = iota
	StateSigning
	StateSigned
)

func (s SigningState) String() string {
	switch s {
	case StateUnsigned:
		return "UNSIGNED"
	case StateSigning:
		return "SIGNING"
	case StateSigned:
		return "SIGNED"
	default:
		return "UNKNOWN"
	}
}

// SubmitResult is returned by Client.SubmitOrder
type SubmitResult struct {
	Order    *SignedOrder
	Payload  *RelayOrderPayload
	Response json.RawMessage
}

// OrdersQuery filters GetOrders
type OrdersQuery struct {
	ExchangeContractAddress string
	Maker                   string
	Taker                   string
	MakerTokenAddress       string
	TakerTokenAddress       string
	Page                    int
	PerPage                 int
}
