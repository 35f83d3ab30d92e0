package chain

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

var maxSalt = new(big.Int).Lsh(big.NewInt(1), 256)

// OrderBuilder builds orders for a single exchange contract on one network
type OrderBuilder struct {
	exchangeAddr string
	networkID    int
}

// NewOrderBuilder creates a new OrderBuilder
func NewOrderBuilder(exchangeAddr string, networkID int) (*OrderBuilder, error) {
	if !common.IsHexAddress(exchangeAddr) {
		return nil, fmt.Errorf("invalid exchange contract address: %q", exchangeAddr)
	}
	return &OrderBuilder{
		exchangeAddr: normalizeAddress(exchangeAddr),
		networkID:    networkID,
	}, nil
}

// BuildOrder builds an order from OrderData
func (ob *OrderBuilder) BuildOrder(data *OrderData) (*Order, error) {
	if err := ob.validateInputs(data); err != nil {
		return nil, err
	}

	makerAmount, err := parseAmount("makerAmount", data.MakerAmount, "")
	if err != nil {
		return nil, err
	}
	takerAmount, err := parseAmount("takerAmount", data.TakerAmount, "")
	if err != nil {
		return nil, err
	}
	makerFee, err := parseAmount("makerFee", data.MakerFee, "0")
	if err != nil {
		return nil, err
	}
	takerFee, err := parseAmount("takerFee", data.TakerFee, "0")
	if err != nil {
		return nil, err
	}
	expiration, err := parseAmount("expiration", data.Expiration, "")
	if err != nil {
		return nil, err
	}

	var salt *big.Int
	if data.Salt == "" {
		salt, err = GeneratePseudoRandomSalt()
	} else {
		salt, err = parseAmount("salt", data.Salt, "")
	}
	if err != nil {
		return nil, err
	}

	feeRecipient := data.FeeRecipient
	if feeRecipient == "" {
		feeRecipient = NullAddress
	}

	taker := ""
	if data.Taker != "" && !strings.EqualFold(data.Taker, NullAddress) {
		taker = normalizeAddress(data.Taker)
	}

	makerToken := data.MakerToken
	makerToken.Address = normalizeAddress(makerToken.Address)
	takerToken := data.TakerToken
	takerToken.Address = normalizeAddress(takerToken.Address)

	return &Order{
		NetworkID:        ob.networkID,
		ExchangeContract: ob.exchangeAddr,
		Maker:            normalizeAddress(data.Maker),
		Taker:            taker,
		MakerToken:       makerToken,
		TakerToken:       takerToken,
		FeeRecipient:     normalizeAddress(feeRecipient),
		MakerAmount:      makerAmount,
		TakerAmount:      takerAmount,
		MakerFee:         makerFee,
		TakerFee:         takerFee,
		Expiration:       expiration,
		Salt:             salt,
	}, nil
}

// BuildSignedOrder assembles the signed order object from an order snapshot,
// the hash computed over it and the signature returned by the signer.
// Every numeric field is rendered as a decimal string.
func (ob *OrderBuilder) BuildSignedOrder(order *Order, orderHash string, sig ECSignature) (*SignedOrder, error) {
	if !IsValidOrderHash(orderHash) {
		return nil, fmt.Errorf("invalid order hash: %q", orderHash)
	}
	if order.ExchangeContract != "" && !strings.EqualFold(order.ExchangeContract, ob.exchangeAddr) {
		return nil, fmt.Errorf("order exchange contract %s does not match builder %s", order.ExchangeContract, ob.exchangeAddr)
	}

	return &SignedOrder{
		Maker: OrderParty{
			Address:   lowerHex(order.Maker),
			Token:     lowerToken(order.MakerToken),
			Amount:    decimalString(order.MakerAmount),
			FeeAmount: decimalString(order.MakerFee),
		},
		Taker: OrderParty{
			Address:   lowerHex(order.Taker),
			Token:     lowerToken(order.TakerToken),
			Amount:    decimalString(order.TakerAmount),
			FeeAmount: decimalString(order.TakerFee),
		},
		Expiration:   decimalString(order.Expiration),
		FeeRecipient: lowerHex(order.FeeRecipient),
		Salt:         decimalString(order.Salt),
		Signature: OrderSignature{
			ECSignature: ECSignature{V: sig.V, R: lowerHex(sig.R), S: lowerHex(sig.S)},
			Hash:        orderHash,
		},
		ExchangeContract: ob.exchangeAddr,
		NetworkID:        ob.networkID,
	}, nil
}

// ExchangeContract returns the normalized exchange contract address
func (ob *OrderBuilder) ExchangeContract() string {
	return ob.exchangeAddr
}

func (ob *OrderBuilder) validateInputs(data *OrderData) error {
	if data.Maker == "" {
		return fmt.Errorf("maker is required")
	}
	if !common.IsHexAddress(data.Maker) {
		return fmt.Errorf("maker is not a valid address: %q", data.Maker)
	}
	if data.Taker != "" && !common.IsHexAddress(data.Taker) {
		return fmt.Errorf("taker is not a valid address: %q", data.Taker)
	}
	if !common.IsHexAddress(data.MakerToken.Address) {
		return fmt.Errorf("makerToken is not a valid address: %q", data.MakerToken.Address)
	}
	if !common.IsHexAddress(data.TakerToken.Address) {
		return fmt.Errorf("takerToken is not a valid address: %q", data.TakerToken.Address)
	}
	if data.FeeRecipient != "" && !common.IsHexAddress(data.FeeRecipient) {
		return fmt.Errorf("feeRecipient is not a valid address: %q", data.FeeRecipient)
	}
	if data.MakerAmount == "" {
		return fmt.Errorf("makerAmount is required")
	}
	if data.TakerAmount == "" {
		return fmt.Errorf("takerAmount is required")
	}
	if data.Expiration == "" {
		return fmt.Errorf("expiration is required")
	}
	return nil
}

// GeneratePseudoRandomSalt returns a uniformly random 256-bit salt
func GeneratePseudoRandomSalt() (*big.Int, error) {
	salt, err := rand.Int(rand.Reader, maxSalt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

func parseAmount(name, value, fallback string) (*big.Int, error) {
	if value == "" {
		value = fallback
	}
	v, err := uint256.FromDecimal(value)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", name, value, err)
	}
	return v.ToBig(), nil
}

func decimalString(v *big.Int) string {
	if v == nil {
		return ""
	}
	return v.String()
}

func normalizeAddress(addr string) string {
	return strings.ToLower(common.HexToAddress(addr).Hex())
}

func lowerHex(addr string) string {
	return strings.ToLower(addr)
}

func lowerToken(t Token) Token {
	t.Address = lowerHex(t.Address)
	return t
}
