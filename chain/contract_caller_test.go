package chain

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

func word(v *big.Int) string {
	return hexutil.Encode(common.LeftPadBytes(v.Bytes(), 32))
}

// newFakeRPC answers the handful of JSON-RPC methods ContractCaller uses
func newFakeRPC(t *testing.T, chainID int64, code string, balance, allowance *big.Int) *httptest.Server {
	t.Helper()
	erc20 := GetERC20ABI()
	balanceSel := hexutil.Encode(erc20.Methods["balanceOf"].ID)
	allowanceSel := hexutil.Encode(erc20.Methods["allowance"].ID)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		var result any
		switch req.Method {
		case "eth_chainId":
			result = hexutil.EncodeBig(big.NewInt(chainID))
		case "eth_getCode":
			result = code
		case "eth_call":
			var call struct {
				Data  string `json:"data"`
				Input string `json:"input"`
			}
			_ = json.Unmarshal(req.Params[0], &call)
			data := call.Input
			if data == "" {
				data = call.Data
			}
			switch {
			case strings.HasPrefix(data, balanceSel):
				result = word(balance)
			case strings.HasPrefix(data, allowanceSel):
				result = word(allowance)
			default:
				result = "0x"
			}
		default:
			result = nil
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  result,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestContractCaller(t *testing.T) {
	srv := newFakeRPC(t, 3, "0x6080604052", ether(5), ether(1))

	cc, err := NewContractCaller(srv.URL)
	require.NoError(t, err)
	defer cc.Close()

	ctx := context.Background()

	id, err := cc.ChainID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), id.Int64())

	deployed, err := cc.HasCode(ctx, testExchange)
	require.NoError(t, err)
	assert.True(t, deployed)

	balance, err := cc.BalanceOf(ctx, testWETH, testMaker)
	require.NoError(t, err)
	assert.Equal(t, ether(5).String(), balance.String())

	allowance, err := cc.Allowance(ctx, testWETH, testMaker, testExchange)
	require.NoError(t, err)
	assert.Equal(t, ether(1).String(), allowance.String())
}

func TestContractCallerNoCode(t *testing.T) {
	srv := newFakeRPC(t, 3, "0x", ether(0), ether(0))

	cc, err := NewContractCaller(srv.URL)
	require.NoError(t, err)
	defer cc.Close()

	deployed, err := cc.HasCode(context.Background(), testExchange)
	require.NoError(t, err)
	assert.False(t, deployed)
}

func TestERC20ABI(t *testing.T) {
	erc20 := GetERC20ABI()
	assert.Contains(t, erc20.Methods, "balanceOf")
	assert.Contains(t, erc20.Methods, "allowance")
	assert.Equal(t, "0x70a08231", hexutil.Encode(erc20.Methods["balanceOf"].ID))
}
