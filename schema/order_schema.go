package schema

// Sub-schemas referenced by the order schema
const (
	addressPattern       = `^0x[0-9a-fA-F]{40}$`
	optionalAddrPattern  = `^(0x[0-9a-fA-F]{40})?$`
	hex32Pattern         = `^0x[0-9a-f]{64}$`
	numberStringPattern  = `^[0-9]+([.][0-9]+)?$`
	integerStringPattern = `^[0-9]+$`
)

// orderSchemaJSON describes the signed order object produced by the assembler
const orderSchemaJSON = `{
	"$schema": "http://json-schema.org/draft-04/schema#",
	"definitions": {
		"address": {"type": "string", "pattern": "` + addressPattern + `"},
		"optionalAddress": {"type": "string", "pattern": "` + optionalAddrPattern + `"},
		"hex32": {"type": "string", "pattern": "` + hex32Pattern + `"},
		"number": {"type": "string", "pattern": "` + numberStringPattern + `"},
		"integer": {"type": "string", "pattern": "` + integerStringPattern + `"},
		"token": {
			"type": "object",
			"properties": {
				"name": {"type": "string"},
				"symbol": {"type": "string"},
				"decimals": {"type": "integer", "minimum": 0, "maximum": 255},
				"address": {"$ref": "#/definitions/address"}
			},
			"required": ["address", "decimals"]
		},
		"maker": {
			"type": "object",
			"properties": {
				"address": {"$ref": "#/definitions/address"},
				"token": {"$ref": "#/definitions/token"},
				"amount": {"$ref": "#/definitions/number"},
				"feeAmount": {"$ref": "#/definitions/number"}
			},
			"required": ["address", "token", "amount", "feeAmount"]
		},
		"taker": {
			"type": "object",
			"properties": {
				"address": {"$ref": "#/definitions/optionalAddress"},
				"token": {"$ref": "#/definitions/token"},
				"amount": {"$ref": "#/definitions/number"},
				"feeAmount": {"$ref": "#/definitions/number"}
			},
			"required": ["address", "token", "amount", "feeAmount"]
		},
		"signature": {
			"type": "object",
			"properties": {
				"v": {"type": "integer", "minimum": 27, "maximum": 28},
				"r": {"$ref": "#/definitions/hex32"},
				"s": {"$ref": "#/definitions/hex32"},
				"hash": {"$ref": "#/definitions/hex32"}
			},
			"required": ["v", "r", "s", "hash"]
		}
	},
	"type": "object",
	"properties": {
		"maker": {"$ref": "#/definitions/maker"},
		"taker": {"$ref": "#/definitions/taker"},
		"expiration": {"$ref": "#/definitions/integer"},
		"feeRecipient": {"$ref": "#/definitions/address"},
		"salt": {"$ref": "#/definitions/integer"},
		"signature": {"$ref": "#/definitions/signature"},
		"exchangeContract": {"$ref": "#/definitions/address"},
		"networkId": {"type": "integer", "minimum": 1}
	},
	"required": [
		"maker", "taker", "expiration", "feeRecipient", "salt",
		"signature", "exchangeContract", "networkId"
	]
}`

// OrderSchema is the compiled signed order schema
var OrderSchema = MustCompile(orderSchemaJSON)
