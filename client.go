package zeroexorder

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"github.com/kaifufi/zeroex-order-sdk-go/chain"
	"github.com/kaifufi/zeroex-order-sdk-go/schema"
)

// TokenStateReader reads ERC20 state used to check an order before signing.
// chain.ContractCaller implements it.
type TokenStateReader interface {
	BalanceOf(ctx context.Context, token, owner string) (*big.Int, error)
	Allowance(ctx context.Context, token, owner, spender string) (*big.Int, error)
}

// Client is the main SDK client
type Client struct {
	config         ClientConfig
	relay          *RelayClient
	signer         Signer
	resolver       ExchangeResolver
	validator      OrderValidator
	reporter       ErrorReporter
	tokens         TokenStateReader
	contractCaller *chain.ContractCaller
	logger         *zap.Logger
}

// Option customizes a Client
type Option func(*Client)

// WithLogger sets the logger used by the client and its sessions
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithReporter sets the error reporter
func WithReporter(reporter ErrorReporter) Option {
	return func(c *Client) { c.reporter = reporter }
}

// WithValidator replaces the schema validator
func WithValidator(validator OrderValidator) Option {
	return func(c *Client) { c.validator = validator }
}

// WithExchangeResolver replaces the exchange contract lookup
func WithExchangeResolver(resolver ExchangeResolver) Option {
	return func(c *Client) { c.resolver = resolver }
}

// WithTokenStateReader enables balance and allowance checks through reader
func WithTokenStateReader(reader TokenStateReader) Option {
	return func(c *Client) {
		c.tokens = reader
		c.config.CheckBalances = true
	}
}

// NewClient creates a new client. signer may be nil for read-only use.
func NewClient(config ClientConfig, signer Signer, opts ...Option) (*Client, error) {
	config.setDefaults()

	if config.NetworkID <= 0 {
		return nil, &InvalidParamError{Message: fmt.Sprintf("network_id must be positive, got: %d", config.NetworkID)}
	}

	c := &Client{
		config: config,
		signer: signer,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.reporter == nil {
		c.reporter = NewLogReporter(c.logger)
	}
	if c.validator == nil {
		c.validator = schema.NewValidator()
	}

	known := StaticExchangeResolver{}
	if c.config.ExchangeContract != "" {
		known[c.config.NetworkID] = c.config.ExchangeContract
	}

	// On-chain checks are only wired when an RPC endpoint is configured
	if c.config.RPCURL != "" && (c.resolver == nil || (c.config.CheckBalances && c.tokens == nil)) {
		caller, err := chain.NewContractCaller(c.config.RPCURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create contract caller: %w", err)
		}
		c.contractCaller = caller
		if c.resolver == nil {
			c.resolver = NewOnChainExchangeResolver(caller, known)
		}
		if c.config.CheckBalances && c.tokens == nil {
			c.tokens = caller
		}
	}
	if c.resolver == nil {
		c.resolver = known
	}

	c.relay = NewRelayClient(c.config.RelayHost, c.config.OrderPath, c.config.OrdersPath, c.config.RelayTimeout, c.logger)

	return c, nil
}

// Close closes the client and cleans up resources
func (c *Client) Close() {
	if c.contractCaller != nil {
		c.contractCaller.Close()
	}
}

// NetworkID returns the configured network
func (c *Client) NetworkID() NetworkID {
	return c.config.NetworkID
}

// CheckNetwork verifies the RPC endpoint serves the configured network.
// It is a no-op without an RPC endpoint.
func (c *Client) CheckNetwork(ctx context.Context) error {
	if c.contractCaller == nil {
		return nil
	}
	chainID, err := c.contractCaller.ChainID(ctx)
	if err != nil {
		return err
	}
	if chainID.Cmp(big.NewInt(int64(c.config.NetworkID))) != 0 {
		return &InvalidParamError{Message: fmt.Sprintf("RPC endpoint serves chain %s, client is configured for network %d", chainID, c.config.NetworkID)}
	}
	return nil
}

// Relay returns the underlying relay client
func (c *Client) Relay() *RelayClient {
	return c.relay
}

// BuildOrder parses string input into an Order for the configured exchange
func (c *Client) BuildOrder(data *OrderData) (*Order, error) {
	builder, err := chain.NewOrderBuilder(c.config.ExchangeContract, int(c.config.NetworkID))
	if err != nil {
		return nil, &InvalidParamError{Message: err.Error()}
	}

	order, err := builder.BuildOrder(data)
	if err != nil {
		return nil, &InvalidParamError{Message: err.Error()}
	}
	return order, nil
}

// NewSession starts an editing session for order
func (c *Client) NewSession(order Order) *Session {
	return NewSession(order, SessionConfig{
		NetworkID: c.config.NetworkID,
		Signer:    c.signer,
		Resolver:  c.resolver,
		Validator: c.validator,
		Reporter:  c.reporter,
		Logger:    c.logger,
	})
}

// SubmitOrder checks the maker can fund the order, signs it through the
// session and posts it to the relay. When posting fails the session stays
// SIGNED and the result still carries the signed order.
func (c *Client) SubmitOrder(ctx context.Context, session *Session) (*SubmitResult, error) {
	if session.State() == StateSigning {
		return nil, ErrSignInProgress
	}
	if c.config.CheckBalances && c.tokens != nil {
		order := session.Order()
		if err := c.checkTokenState(ctx, &order); err != nil {
			session.fail(MsgFixErrors)
			if !errors.Is(err, ErrInsufficientBalance) && !errors.Is(err, ErrInsufficientAllowance) {
				c.reporter.Report(ctx, err)
			}
			return nil, err
		}
	}

	signed, err := session.Sign(ctx)
	if err != nil {
		return nil, err
	}

	payload := signed.RelayPayload()
	resp, err := c.relay.PostOrder(ctx, payload)
	if err != nil {
		session.fail(MsgRelaySubmitFailed)
		c.reporter.Report(ctx, err)
		return &SubmitResult{Order: signed, Payload: payload}, err
	}

	c.logger.Sugar().Infow("Order submitted",
		"order_hash", signed.Signature.Hash,
		"maker", payload.Maker,
	)

	return &SubmitResult{
		Order:    signed,
		Payload:  payload,
		Response: resp,
	}, nil
}

// PostOrder posts an already signed order to the relay
func (c *Client) PostOrder(ctx context.Context, signed *SignedOrder) (*SubmitResult, error) {
	payload := signed.RelayPayload()
	resp, err := c.relay.PostOrder(ctx, payload)
	if err != nil {
		return nil, err
	}
	return &SubmitResult{Order: signed, Payload: payload, Response: resp}, nil
}

// GetOrder fetches an order from the relay by hash
func (c *Client) GetOrder(ctx context.Context, orderHash string) (*RelayOrderPayload, error) {
	return c.relay.GetOrder(ctx, orderHash)
}

// GetOrders lists relay orders, defaulting to the configured exchange contract
func (c *Client) GetOrders(ctx context.Context, query OrdersQuery) ([]RelayOrderPayload, error) {
	if query.ExchangeContractAddress == "" {
		query.ExchangeContractAddress = c.config.ExchangeContract
	}
	return c.relay.GetOrders(ctx, query)
}

func (c *Client) checkTokenState(ctx context.Context, order *Order) error {
	if order.MakerAmount == nil || order.Maker == "" || order.MakerToken.Address == "" {
		// Sign reports incomplete orders
		return nil
	}

	balance, err := c.tokens.BalanceOf(ctx, order.MakerToken.Address, order.Maker)
	if err != nil {
		return fmt.Errorf("check balance: %w", err)
	}
	if balance.Cmp(order.MakerAmount) < 0 {
		return fmt.Errorf("%w: maker %s has %s, needs %s", ErrInsufficientBalance, order.Maker, balance, order.MakerAmount)
	}

	allowance, err := c.tokens.Allowance(ctx, order.MakerToken.Address, order.Maker, c.config.TokenTransferProxy)
	if err != nil {
		return fmt.Errorf("check allowance: %w", err)
	}
	if allowance.Cmp(order.MakerAmount) < 0 {
		return fmt.Errorf("%w: proxy %s may spend %s, needs %s", ErrInsufficientAllowance, c.config.TokenTransferProxy, allowance, order.MakerAmount)
	}

	return nil
}
