package zeroexorder

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// NetworkID represents an Ethereum network ID
type NetworkID int

const (
	NetworkIDMainnet NetworkID = 1  // Ethereum mainnet
	NetworkIDRopsten NetworkID = 3  // Ropsten testnet
	NetworkIDKovan   NetworkID = 42 // Kovan testnet
)

// TestnetNetworkID is the network the portal treats as its test network
const TestnetNetworkID = NetworkIDRopsten

// ContractAddresses holds the protocol contract addresses for a network
type ContractAddresses struct {
	Exchange           string
	TokenTransferProxy string
}

// DefaultContractAddresses maps network IDs to their contract addresses
var DefaultContractAddresses = map[NetworkID]ContractAddresses{
	NetworkIDMainnet: {
		Exchange:           "0x12459c951127e0c374ff9105dda097662a027093",
		TokenTransferProxy: "0x8da0d80f5007ef1e431dd2127178d224e32c2ef4",
	},
	NetworkIDRopsten: {
		Exchange:           "0x479cc461fecd078f766ecc58533d6f69580cf3ac",
		TokenTransferProxy: "0x4e9aad8184de8833365fea970cd9149372fdf1e6",
	},
	NetworkIDKovan: {
		Exchange:           "0x90fe2af704b34e0224bf2299c838e04d4dcf1364",
		TokenTransferProxy: "0x087eed4bc1ee3de49befbd66c662b434b15d49d4",
	},
}

const (
	// DefaultRelayHost is the relay used when none is configured
	DefaultRelayHost = "http://localhost:3000"

	// DefaultOrderPath is the relay endpoint accepting new orders
	DefaultOrderPath = "/api/v0/order"

	// DefaultOrdersPath is the relay endpoint listing orders
	DefaultOrdersPath = "/api/v0/orders"

	// DefaultRelayTimeout bounds every relay HTTP request
	DefaultRelayTimeout = 30 * time.Second

	// DefaultMakerFee and DefaultTakerFee are used when an order sets no fee
	DefaultMakerFee = "0"
	DefaultTakerFee = "0"
)

// Environment variables read by LoadConfigFromEnv
const (
	EnvRelayHost    = "ZEROEX_RELAY_HOST"
	EnvOrderPath    = "ZEROEX_ORDER_PATH"
	EnvNetworkID    = "ZEROEX_NETWORK_ID"
	EnvRPCURL       = "ZEROEX_RPC_URL"
	EnvExchange     = "ZEROEX_EXCHANGE_CONTRACT"
	EnvTokenProxy   = "ZEROEX_TOKEN_TRANSFER_PROXY"
	EnvPrivateKey   = "ZEROEX_PRIVATE_KEY"
	EnvRelayTimeout = "ZEROEX_RELAY_TIMEOUT"
)

// ClientConfig holds configuration for creating a Client
type ClientConfig struct {
	RelayHost          string
	OrderPath          string
	OrdersPath         string
	RelayTimeout       time.Duration
	NetworkID          NetworkID
	RPCURL             string // optional, enables on-chain checks
	ExchangeContract   string // overrides DefaultContractAddresses
	TokenTransferProxy string // overrides DefaultContractAddresses
	PrivateKey         string // only used by the CLI and examples
	CheckBalances      bool
}

// LoadConfigFromEnv reads ZEROEX_* variables, loading a .env file first if present
func LoadConfigFromEnv(envFiles ...string) (ClientConfig, error) {
	// Load .env file if it exists (optional)
	_ = godotenv.Load(envFiles...)

	config := ClientConfig{
		RelayHost:          os.Getenv(EnvRelayHost),
		OrderPath:          os.Getenv(EnvOrderPath),
		RPCURL:             os.Getenv(EnvRPCURL),
		ExchangeContract:   os.Getenv(EnvExchange),
		TokenTransferProxy: os.Getenv(EnvTokenProxy),
		PrivateKey:         os.Getenv(EnvPrivateKey),
	}

	if v := os.Getenv(EnvNetworkID); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return ClientConfig{}, &InvalidParamError{Message: fmt.Sprintf("%s must be an integer, got: %s", EnvNetworkID, v)}
		}
		config.NetworkID = NetworkID(id)
	}

	if v := os.Getenv(EnvRelayTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return ClientConfig{}, &InvalidParamError{Message: fmt.Sprintf("%s must be a duration, got: %s", EnvRelayTimeout, v)}
		}
		config.RelayTimeout = d
	}

	config.CheckBalances = config.RPCURL != ""
	config.setDefaults()
	return config, nil
}

func (c *ClientConfig) setDefaults() {
	if c.RelayHost == "" {
		c.RelayHost = DefaultRelayHost
	}
	if c.OrderPath == "" {
		c.OrderPath = DefaultOrderPath
	}
	if c.OrdersPath == "" {
		c.OrdersPath = DefaultOrdersPath
	}
	if c.RelayTimeout == 0 {
		c.RelayTimeout = DefaultRelayTimeout
	}
	if c.NetworkID == 0 {
		c.NetworkID = TestnetNetworkID
	}

	// Use default contract addresses if not provided
	contracts := DefaultContractAddresses[c.NetworkID]
	if c.ExchangeContract == "" {
		c.ExchangeContract = contracts.Exchange
	}
	if c.TokenTransferProxy == "" {
		c.TokenTransferProxy = contracts.TokenTransferProxy
	}
}
