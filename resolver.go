package zeroexorder

import (
	"context"
	"fmt"
)

// ExchangeResolver finds the exchange contract deployed on a network. It
// returns an error matching ErrMissingExchangeContract when there is none.
type ExchangeResolver interface {
	ExchangeContract(ctx context.Context, network NetworkID) (string, error)
}

// StaticExchangeResolver resolves from a fixed address table
type StaticExchangeResolver map[NetworkID]string

// ExchangeContract implements ExchangeResolver
func (r StaticExchangeResolver) ExchangeContract(_ context.Context, network NetworkID) (string, error) {
	addr, ok := r[network]
	if !ok || addr == "" {
		return "", fmt.Errorf("%w: network %d", ErrMissingExchangeContract, network)
	}
	return addr, nil
}

// DefaultExchangeResolver resolves from DefaultContractAddresses
func DefaultExchangeResolver() StaticExchangeResolver {
	r := make(StaticExchangeResolver, len(DefaultContractAddresses))
	for id, c := range DefaultContractAddresses {
		r[id] = c.Exchange
	}
	return r
}

// CodeChecker reports whether a contract is deployed at an address.
// chain.ContractCaller implements it.
type CodeChecker interface {
	HasCode(ctx context.Context, addr string) (bool, error)
}

// OnChainExchangeResolver only resolves addresses that have code deployed
type OnChainExchangeResolver struct {
	known   StaticExchangeResolver
	checker CodeChecker
}

// NewOnChainExchangeResolver creates an OnChainExchangeResolver
func NewOnChainExchangeResolver(checker CodeChecker, known StaticExchangeResolver) *OnChainExchangeResolver {
	return &OnChainExchangeResolver{known: known, checker: checker}
}

// ExchangeContract implements ExchangeResolver
func (r *OnChainExchangeResolver) ExchangeContract(ctx context.Context, network NetworkID) (string, error) {
	addr, err := r.known.ExchangeContract(ctx, network)
	if err != nil {
		return "", err
	}

	deployed, err := r.checker.HasCode(ctx, addr)
	if err != nil {
		return "", err
	}
	if !deployed {
		return "", fmt.Errorf("%w: no code at %s on network %d", ErrMissingExchangeContract, addr, network)
	}
	return addr, nil
}
