package zeroexorder

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaifufi/zeroex-order-sdk-go/chain"
)

// fakeRelay records posted orders
type fakeRelay struct {
	*httptest.Server
	status int
	hits   atomic.Int32

	mu       sync.Mutex
	received []map[string]any
}

func newFakeRelay(t *testing.T, status int) *fakeRelay {
	t.Helper()
	f := &fakeRelay{status: status}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		var raw map[string]any
		if err := json.NewDecoder(r.Body).Decode(&raw); err == nil {
			f.mu.Lock()
			f.received = append(f.received, raw)
			f.mu.Unlock()
		}
		w.WriteHeader(f.status)
		if f.status < 300 {
			_, _ = w.Write([]byte(`{"accepted":true}`))
		} else {
			_, _ = w.Write([]byte(`{"error":"rejected"}`))
		}
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeRelay) Received() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]any(nil), f.received...)
}

type fakeTokens struct {
	balance   *big.Int
	allowance *big.Int
	spender   string
}

func (f *fakeTokens) BalanceOf(_ context.Context, _, _ string) (*big.Int, error) {
	return f.balance, nil
}

func (f *fakeTokens) Allowance(_ context.Context, _, _, spender string) (*big.Int, error) {
	f.spender = spender
	return f.allowance, nil
}

func newTestClient(t *testing.T, relayURL string, signer Signer, opts ...Option) *Client {
	t.Helper()
	client, err := NewClient(ClientConfig{RelayHost: relayURL}, signer, opts...)
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client
}

func buildTestOrder(t *testing.T, client *Client) *Order {
	t.Helper()
	makerAmount, err := ToBaseUnits("1", 18)
	require.NoError(t, err)
	takerAmount, err := ToBaseUnits("500", 18)
	require.NoError(t, err)

	order, err := client.BuildOrder(&OrderData{
		Maker:       testMaker,
		MakerToken:  Token{Address: testWETH, Symbol: "WETH", Decimals: 18},
		TakerToken:  Token{Address: testZRX, Symbol: "ZRX", Decimals: 18},
		MakerAmount: makerAmount.String(),
		TakerAmount: takerAmount.String(),
		Expiration:  "4102444800",
	})
	require.NoError(t, err)
	return order
}

func TestClientSubmitOrder(t *testing.T) {
	relay := newFakeRelay(t, http.StatusCreated)
	signer := &mockSigner{sig: testSignature}
	client := newTestClient(t, relay.URL, signer)

	order := buildTestOrder(t, client)
	session := client.NewSession(*order)

	result, err := client.SubmitOrder(context.Background(), session)
	require.NoError(t, err)

	assert.Equal(t, StateSigned, session.State())
	assert.Empty(t, session.ErrorMessage())
	assert.JSONEq(t, `{"accepted":true}`, string(result.Response))
	assert.True(t, chain.VerifyOrderHash(order, result.Order.Signature.Hash))

	received := relay.Received()
	require.Len(t, received, 1)
	posted := received[0]

	assert.Equal(t, testMaker, posted["maker"])
	assert.NotContains(t, posted, "taker")
	assert.Equal(t, "1000000000000000000", posted["makerTokenAmount"])
	assert.Equal(t, "500000000000000000000", posted["takerTokenAmount"])
	assert.Equal(t, testWETH, posted["makerTokenAddress"])
	assert.Equal(t, testZRX, posted["takerTokenAddress"])
	assert.Equal(t, "0", posted["makerFee"])
	assert.Equal(t, "0", posted["takerFee"])
	assert.Equal(t, NullAddress, posted["feeRecipient"])
	assert.Equal(t, "4102444800", posted["expirationUnixTimestampSec"])
	assert.Equal(t, DefaultContractAddresses[TestnetNetworkID].Exchange, posted["exchangeContractAddress"])
	assert.Equal(t, order.Salt.String(), posted["salt"])

	sig := posted["ecSignature"].(map[string]any)
	assert.EqualValues(t, 27, sig["v"])
	assert.Equal(t, "0x"+strings.Repeat("ab", 32), sig["r"])
	assert.Equal(t, "0x"+strings.Repeat("cd", 32), sig["s"])
}

func TestClientSubmitOrderRelayFailure(t *testing.T) {
	relay := newFakeRelay(t, http.StatusInternalServerError)
	reporter := &recordingReporter{}
	client := newTestClient(t, relay.URL, &mockSigner{sig: testSignature}, WithReporter(reporter))

	session := client.NewSession(*buildTestOrder(t, client))
	result, err := client.SubmitOrder(context.Background(), session)

	require.ErrorIs(t, err, ErrTransport)
	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, http.StatusInternalServerError, terr.StatusCode)

	// The signature stays valid, only the submission failed
	assert.Equal(t, StateSigned, session.State())
	assert.Equal(t, MsgRelaySubmitFailed, session.ErrorMessage())
	require.NotNil(t, result)
	assert.NotNil(t, result.Order)
	assert.Len(t, reporter.Reports(), 1)
}

func TestClientValidationFailureSkipsRelay(t *testing.T) {
	relay := newFakeRelay(t, http.StatusCreated)
	client := newTestClient(t, relay.URL, &mockSigner{sig: testSignature},
		WithValidator(failingValidator{errs: []string{"maker: address is required"}}),
	)

	session := client.NewSession(*buildTestOrder(t, client))
	_, err := client.SubmitOrder(context.Background(), session)

	assert.ErrorIs(t, err, ErrValidationFailed)
	assert.Equal(t, MsgSigningFailed, session.ErrorMessage())
	assert.Equal(t, StateUnsigned, session.State())
	assert.Equal(t, int32(0), relay.hits.Load())
}

func TestClientUserDeniedSkipsRelay(t *testing.T) {
	relay := newFakeRelay(t, http.StatusCreated)
	reporter := &recordingReporter{}
	client := newTestClient(t, relay.URL, &mockSigner{err: chain.ErrUserDenied}, WithReporter(reporter))

	session := client.NewSession(*buildTestOrder(t, client))
	_, err := client.SubmitOrder(context.Background(), session)

	assert.ErrorIs(t, err, ErrUserDenied)
	assert.Equal(t, MsgUserDenied, session.ErrorMessage())
	assert.Equal(t, int32(0), relay.hits.Load())
	assert.Empty(t, reporter.Reports())
}

func TestClientTokenChecks(t *testing.T) {
	tests := []struct {
		name      string
		balance   *big.Int
		allowance *big.Int
		want      error
	}{
		{"insufficient balance", ether(0), ether(10), ErrInsufficientBalance},
		{"insufficient allowance", ether(10), big.NewInt(1), ErrInsufficientAllowance},
		{"funded", ether(1), ether(1), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			relay := newFakeRelay(t, http.StatusCreated)
			signer := &mockSigner{sig: testSignature}
			tokens := &fakeTokens{balance: tt.balance, allowance: tt.allowance}
			client := newTestClient(t, relay.URL, signer, WithTokenStateReader(tokens))

			session := client.NewSession(*buildTestOrder(t, client))
			_, err := client.SubmitOrder(context.Background(), session)

			if tt.want == nil {
				require.NoError(t, err)
				assert.Equal(t, DefaultContractAddresses[TestnetNetworkID].TokenTransferProxy, tokens.spender)
				assert.Equal(t, int32(1), relay.hits.Load())
				return
			}
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, MsgFixErrors, session.ErrorMessage())
			assert.Equal(t, 0, signer.Calls())
			assert.Equal(t, int32(0), relay.hits.Load())
		})
	}
}

func TestClientSubmitOrderWhileSigning(t *testing.T) {
	relay := newFakeRelay(t, http.StatusCreated)
	signer := newBlockingSigner()
	reporter := &recordingReporter{}
	tokens := &fakeTokens{balance: ether(0), allowance: ether(0)}
	client := newTestClient(t, relay.URL, signer, WithTokenStateReader(tokens), WithReporter(reporter))

	session := client.NewSession(*buildTestOrder(t, client))
	done := make(chan error, 1)
	go func() {
		_, err := session.Sign(context.Background())
		done <- err
	}()
	<-signer.started

	_, err := client.SubmitOrder(context.Background(), session)
	assert.ErrorIs(t, err, ErrSignInProgress)

	// The in-flight attempt keeps its state and message
	assert.Equal(t, StateSigning, session.State())
	assert.Empty(t, session.ErrorMessage())
	assert.Empty(t, tokens.spender)
	assert.Empty(t, reporter.Reports())

	close(signer.release)
	require.NoError(t, <-done)
	assert.Equal(t, StateSigned, session.State())
	assert.Equal(t, int32(0), relay.hits.Load())
}

func TestClientGetOrdersDefaultsExchange(t *testing.T) {
	var exchange string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		exchange = r.URL.Query().Get("exchangeContractAddress")
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL, nil)
	orders, err := client.GetOrders(context.Background(), OrdersQuery{})
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Equal(t, DefaultContractAddresses[TestnetNetworkID].Exchange, exchange)
}

func TestClientPostOrder(t *testing.T) {
	relay := newFakeRelay(t, http.StatusOK)
	client := newTestClient(t, relay.URL, &mockSigner{sig: testSignature})

	session := client.NewSession(*buildTestOrder(t, client))
	signed, err := session.Sign(context.Background())
	require.NoError(t, err)

	result, err := client.PostOrder(context.Background(), signed)
	require.NoError(t, err)
	assert.Equal(t, signed.Signature.Hash, result.Order.Signature.Hash)
	assert.Len(t, relay.Received(), 1)
}

func TestNewClientConfig(t *testing.T) {
	_, err := NewClient(ClientConfig{NetworkID: -1}, nil)
	assert.ErrorIs(t, err, ErrInvalidParam)

	client, err := NewClient(ClientConfig{NetworkID: NetworkIDKovan}, nil)
	require.NoError(t, err)
	assert.Equal(t, NetworkIDKovan, client.NetworkID())
	assert.NotNil(t, client.Relay())
	assert.NoError(t, client.CheckNetwork(context.Background()))

	// Unknown networks have no exchange to build against
	client, err = NewClient(ClientConfig{NetworkID: 999}, nil)
	require.NoError(t, err)
	_, err = client.BuildOrder(&OrderData{})
	assert.ErrorIs(t, err, ErrInvalidParam)
}

// newFakeRPC serves eth_chainId, eth_getCode and the ERC20 reads
func newFakeRPC(t *testing.T, chainID int64, balance, allowance *big.Int) *httptest.Server {
	t.Helper()
	erc20 := chain.GetERC20ABI()
	balanceSel := hexutil.Encode(erc20.Methods["balanceOf"].ID)

	word := func(v *big.Int) string {
		return hexutil.Encode(common.LeftPadBytes(v.Bytes(), 32))
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage   `json:"id"`
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		var result any
		switch req.Method {
		case "eth_chainId":
			result = hexutil.EncodeBig(big.NewInt(chainID))
		case "eth_getCode":
			result = "0x6080604052"
		case "eth_call":
			if strings.Contains(string(req.Params[0]), balanceSel) {
				result = word(balance)
			} else {
				result = word(allowance)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": result})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientWithRPC(t *testing.T) {
	relay := newFakeRelay(t, http.StatusCreated)
	rpc := newFakeRPC(t, int64(TestnetNetworkID), ether(2), ether(2))

	client, err := NewClient(ClientConfig{
		RelayHost:     relay.URL,
		RPCURL:        rpc.URL,
		CheckBalances: true,
	}, &mockSigner{sig: testSignature})
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.CheckNetwork(context.Background()))

	session := client.NewSession(*buildTestOrder(t, client))
	_, err = client.SubmitOrder(context.Background(), session)
	require.NoError(t, err)
	assert.Equal(t, int32(1), relay.hits.Load())
}

func TestClientWithRPCInsufficientBalance(t *testing.T) {
	relay := newFakeRelay(t, http.StatusCreated)
	rpc := newFakeRPC(t, int64(TestnetNetworkID), big.NewInt(10), ether(2))

	client, err := NewClient(ClientConfig{
		RelayHost:     relay.URL,
		RPCURL:        rpc.URL,
		CheckBalances: true,
	}, &mockSigner{sig: testSignature})
	require.NoError(t, err)
	defer client.Close()

	session := client.NewSession(*buildTestOrder(t, client))
	_, err = client.SubmitOrder(context.Background(), session)
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, int32(0), relay.hits.Load())
}

func TestClientCheckNetworkMismatch(t *testing.T) {
	rpc := newFakeRPC(t, int64(NetworkIDMainnet), ether(0), ether(0))

	client, err := NewClient(ClientConfig{RPCURL: rpc.URL}, nil)
	require.NoError(t, err)
	defer client.Close()

	assert.ErrorIs(t, client.CheckNetwork(context.Background()), ErrInvalidParam)
}
