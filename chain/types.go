package chain

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// NullAddress is the zero address used for "any taker" and "no fee recipient"
const NullAddress = "0x0000000000000000000000000000000000000000"

// Token identifies an ERC20 token traded by an order
type Token struct {
	Address  string `json:"address"`
	Name     string `json:"name,omitempty"`
	Symbol   string `json:"symbol,omitempty"`
	Decimals int    `json:"decimals"`
}

// Order is the unsigned trade offer. An empty Taker means any taker may fill it.
type Order struct {
	NetworkID        int
	ExchangeContract string
	Maker            string
	Taker            string
	MakerToken       Token
	TakerToken       Token
	FeeRecipient     string
	MakerAmount      *big.Int
	TakerAmount      *big.Int
	MakerFee         *big.Int
	TakerFee         *big.Int
	Expiration       *big.Int // unix seconds
	Salt             *big.Int
}

// Fields returns the order in canonical hashing order
func (o *Order) Fields() []Field {
	return []Field{
		Address(o.ExchangeContract),
		Address(o.Maker),
		Address(o.Taker),
		Address(o.MakerToken.Address),
		Address(o.TakerToken.Address),
		Address(o.FeeRecipient),
		Amount(o.MakerAmount),
		Amount(o.TakerAmount),
		Amount(o.MakerFee),
		Amount(o.TakerFee),
		Amount(o.Expiration),
		Amount(o.Salt),
	}
}

// Clone returns a deep copy so that later edits never alias a hashed snapshot
func (o *Order) Clone() Order {
	c := *o
	c.MakerAmount = cloneInt(o.MakerAmount)
	c.TakerAmount = cloneInt(o.TakerAmount)
	c.MakerFee = cloneInt(o.MakerFee)
	c.TakerFee = cloneInt(o.TakerFee)
	c.Expiration = cloneInt(o.Expiration)
	c.Salt = cloneInt(o.Salt)
	return c
}

// ValidateForSigning checks the business rules an order must meet before signing
func (o *Order) ValidateForSigning() error {
	if o.Maker == "" || strings.EqualFold(o.Maker, NullAddress) {
		return ErrInvalidMaker
	}
	if o.MakerAmount == nil || o.MakerAmount.Sign() <= 0 {
		return ErrInvalidMakerAmount
	}
	if o.TakerAmount == nil || o.TakerAmount.Sign() <= 0 {
		return ErrInvalidTakerAmount
	}
	if o.Expiration == nil || o.Expiration.Sign() <= 0 {
		return ErrInvalidExpiration
	}
	if o.Salt == nil || o.Salt.Sign() < 0 {
		return ErrInvalidOrderSalt
	}
	return nil
}

func cloneInt(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}

// ECSignature is the (v, r, s) triple produced by a signer
type ECSignature struct {
	V uint8  `json:"v"`
	R string `json:"r"`
	S string `json:"s"`
}

// OrderData holds the string-typed input used to build an Order
type OrderData struct {
	Maker        string
	Taker        string
	MakerToken   Token
	TakerToken   Token
	FeeRecipient string
	MakerAmount  string
	TakerAmount  string
	MakerFee     string
	TakerFee     string
	Expiration   string
	Salt         string
}

// OrderParty is one side of a signed order
type OrderParty struct {
	Address   string `json:"address"`
	Token     Token  `json:"token"`
	Amount    string `json:"amount"`
	FeeAmount string `json:"feeAmount"`
}

// OrderSignature is the signature together with the hash it covers
type OrderSignature struct {
	ECSignature
	Hash string `json:"hash"`
}

// SignedOrder is the assembled order object validated against the order schema
type SignedOrder struct {
	Maker            OrderParty     `json:"maker"`
	Taker            OrderParty     `json:"taker"`
	Expiration       string         `json:"expiration"`
	FeeRecipient     string         `json:"feeRecipient"`
	Salt             string         `json:"salt"`
	Signature        OrderSignature `json:"signature"`
	ExchangeContract string         `json:"exchangeContract"`
	NetworkID        int            `json:"networkId"`
}

// RelayOrderPayload is the wire format accepted by the relay
type RelayOrderPayload struct {
	Maker                      string      `json:"maker"`
	Taker                      string      `json:"taker,omitempty"`
	MakerFee                   string      `json:"makerFee"`
	TakerFee                   string      `json:"takerFee"`
	MakerTokenAmount           string      `json:"makerTokenAmount"`
	TakerTokenAmount           string      `json:"takerTokenAmount"`
	MakerTokenAddress          string      `json:"makerTokenAddress"`
	TakerTokenAddress          string      `json:"takerTokenAddress"`
	Salt                       string      `json:"salt"`
	ExchangeContractAddress    string      `json:"exchangeContractAddress"`
	FeeRecipient               string      `json:"feeRecipient"`
	ExpirationUnixTimestampSec string      `json:"expirationUnixTimestampSec"`
	ECSignature                ECSignature `json:"ecSignature"`
}

// RelayPayload projects the signed order onto the relay wire format
func (o *SignedOrder) RelayPayload() *RelayOrderPayload {
	return &RelayOrderPayload{
		Maker:                      o.Maker.Address,
		Taker:                      o.Taker.Address,
		MakerFee:                   o.Maker.FeeAmount,
		TakerFee:                   o.Taker.FeeAmount,
		MakerTokenAmount:           o.Maker.Amount,
		TakerTokenAmount:           o.Taker.Amount,
		MakerTokenAddress:          o.Maker.Token.Address,
		TakerTokenAddress:          o.Taker.Token.Address,
		Salt:                       o.Salt,
		ExchangeContractAddress:    o.ExchangeContract,
		FeeRecipient:               o.FeeRecipient,
		ExpirationUnixTimestampSec: o.Expiration,
		ECSignature:                o.Signature.ECSignature,
	}
}

// ERC20 ABI JSON for balanceOf and allowance
const erc20ABIJSON = `[
	{
		"constant": true,
		"inputs": [
			{"name": "owner", "type": "address"}
		],
		"name": "balanceOf",
		"outputs": [{"name": "", "type": "uint256"}],
		"type": "function"
	},
	{
		"constant": true,
		"inputs": [
			{"name": "owner", "type": "address"},
			{"name": "spender", "type": "address"}
		],
		"name": "allowance",
		"outputs": [{"name": "", "type": "uint256"}],
		"type": "function"
	}
]`

// GetERC20ABI returns the parsed ERC20 ABI
func GetERC20ABI() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		panic("failed to parse ERC20 ABI: " + err.Error())
	}
	return parsed
}
