package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validOrder() map[string]any {
	token := func(addr string) map[string]any {
		return map[string]any{"address": addr, "decimals": 18, "symbol": "TKN"}
	}
	return map[string]any{
		"maker": map[string]any{
			"address":   "0x5409ed021d9299bf6814279a6a1411a7e866a631",
			"token":     token("0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"),
			"amount":    "1000000000000000000",
			"feeAmount": "0",
		},
		"taker": map[string]any{
			"address":   "",
			"token":     token("0xe41d2489571d322189246dafa5ebde1f4699f498"),
			"amount":    "500000000000000000000",
			"feeAmount": "0",
		},
		"expiration":   "1700000000",
		"feeRecipient": "0x0000000000000000000000000000000000000000",
		"salt":         "42",
		"signature": map[string]any{
			"v":    27,
			"r":    "0x" + strings.Repeat("ab", 32),
			"s":    "0x" + strings.Repeat("cd", 32),
			"hash": "0x" + strings.Repeat("ef", 32),
		},
		"exchangeContract": "0x479cc461fecd078f766ecc58533d6f69580cf3ac",
		"networkId":        3,
	}
}

func TestValidateOrderValid(t *testing.T) {
	errs := NewValidator().ValidateOrder(validOrder())
	assert.Empty(t, errs)
}

func TestValidateOrderMissingSalt(t *testing.T) {
	order := validOrder()
	delete(order, "salt")

	errs := NewValidator().ValidateOrder(order)
	require.NotEmpty(t, errs)
	assert.Contains(t, strings.Join(errs, "\n"), "salt")
}

func TestValidateOrderInvalidFields(t *testing.T) {
	edits := map[string]func(o map[string]any){
		"bad maker address": func(o map[string]any) {
			o["maker"].(map[string]any)["address"] = "0x1234"
		},
		"bad taker address": func(o map[string]any) {
			o["taker"].(map[string]any)["address"] = "anyone"
		},
		"numeric salt": func(o map[string]any) { o["salt"] = 42 },
		"decimal expiration": func(o map[string]any) {
			o["expiration"] = "1.5"
		},
		"bad v": func(o map[string]any) {
			o["signature"].(map[string]any)["v"] = 30
		},
		"uppercase r": func(o map[string]any) {
			o["signature"].(map[string]any)["r"] = "0x" + strings.Repeat("AB", 32)
		},
		"short hash": func(o map[string]any) {
			o["signature"].(map[string]any)["hash"] = "0x1234"
		},
		"zero network": func(o map[string]any) { o["networkId"] = 0 },
		"missing token decimals": func(o map[string]any) {
			delete(o["maker"].(map[string]any)["token"].(map[string]any), "decimals")
		},
	}

	v := NewValidator()
	for name, edit := range edits {
		t.Run(name, func(t *testing.T) {
			order := validOrder()
			edit(order)
			assert.NotEmpty(t, v.ValidateOrder(order))
		})
	}
}

func TestValidateStruct(t *testing.T) {
	type party struct {
		Address string `json:"address"`
	}
	s, err := Compile(`{
		"type": "object",
		"properties": {"address": {"type": "string", "pattern": "^0x[0-9a-f]{40}$"}},
		"required": ["address"]
	}`)
	require.NoError(t, err)

	v := NewValidator()
	res := v.Validate(party{Address: "0x5409ed021d9299bf6814279a6a1411a7e866a631"}, s)
	assert.True(t, res.Valid())
	assert.Equal(t, "valid", res.String())

	res = v.Validate(party{Address: "bad"}, s)
	assert.False(t, res.Valid())
	assert.NotEqual(t, "valid", res.String())
}

func TestCompileInvalid(t *testing.T) {
	_, err := Compile(`{"type": 12}`)
	assert.Error(t, err)

	assert.Panics(t, func() { MustCompile("not json") })
}
