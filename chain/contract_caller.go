package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// ContractCaller handles read-only blockchain contract interactions
type ContractCaller struct {
	client *ethclient.Client
}

// NewContractCaller dials the RPC endpoint
func NewContractCaller(rpcURL string) (*ContractCaller, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}

	return &ContractCaller{client: client}, nil
}

// ChainID returns the network the RPC endpoint is connected to
func (cc *ContractCaller) ChainID(ctx context.Context) (*big.Int, error) {
	id, err := cc.client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}
	return id, nil
}

// HasCode reports whether a contract is deployed at addr
func (cc *ContractCaller) HasCode(ctx context.Context, addr string) (bool, error) {
	code, err := cc.client.CodeAt(ctx, common.HexToAddress(addr), nil)
	if err != nil {
		return false, fmt.Errorf("failed to get code at %s: %w", addr, err)
	}
	return len(code) > 0, nil
}

// BalanceOf returns the ERC20 balance for an account
func (cc *ContractCaller) BalanceOf(ctx context.Context, token, owner string) (*big.Int, error) {
	erc20ABI := GetERC20ABI()
	data, err := erc20ABI.Pack("balanceOf", common.HexToAddress(owner))
	if err != nil {
		return nil, err
	}

	result, err := cc.call(ctx, token, data)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance of %s: %w", token, err)
	}

	var balance *big.Int
	if err := erc20ABI.UnpackIntoInterface(&balance, "balanceOf", result); err != nil {
		return nil, err
	}

	return balance, nil
}

// Allowance returns the ERC20 allowance for owner to spender
func (cc *ContractCaller) Allowance(ctx context.Context, token, owner, spender string) (*big.Int, error) {
	erc20ABI := GetERC20ABI()
	data, err := erc20ABI.Pack("allowance", common.HexToAddress(owner), common.HexToAddress(spender))
	if err != nil {
		return nil, err
	}

	result, err := cc.call(ctx, token, data)
	if err != nil {
		return nil, fmt.Errorf("failed to get allowance of %s: %w", token, err)
	}

	var allowance *big.Int
	if err := erc20ABI.UnpackIntoInterface(&allowance, "allowance", result); err != nil {
		return nil, err
	}

	return allowance, nil
}

func (cc *ContractCaller) call(ctx context.Context, contract string, data []byte) ([]byte, error) {
	to := common.HexToAddress(contract)
	return cc.client.CallContract(ctx, ethereum.CallMsg{
		To:   &to,
		Data: data,
	}, nil)
}

// Close closes the Ethereum client connection
func (cc *ContractCaller) Close() {
	if cc.client != nil {
		cc.client.Close()
	}
}
