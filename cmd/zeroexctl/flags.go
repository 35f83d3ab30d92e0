package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	zeroexorder "github.com/kaifufi/zeroex-order-sdk-go"
	"github.com/kaifufi/zeroex-order-sdk-go/chain"
)

const (
	EnvFileKey    = "env-file"
	VerboseKey    = "verbose"
	RelayKey      = "relay"
	NetworkKey    = "network-id"
	RPCKey        = "rpc-url"
	PrivateKeyKey = "private-key"

	MakerKey         = "maker"
	TakerKey         = "taker"
	MakerTokenKey    = "maker-token"
	TakerTokenKey    = "taker-token"
	MakerDecimalsKey = "maker-decimals"
	TakerDecimalsKey = "taker-decimals"
	MakerAmountKey   = "maker-amount"
	TakerAmountKey   = "taker-amount"
	MakerFeeKey      = "maker-fee"
	TakerFeeKey      = "taker-fee"
	FeeRecipientKey  = "fee-recipient"
	ExpiresInKey     = "expires-in"
	SaltKey          = "salt"
)

func AddGlobalFlags(flags *pflag.FlagSet) {
	flags.String(EnvFileKey, "", "Optional .env file to load before reading ZEROEX_* variables")
	flags.Bool(VerboseKey, false, "Use a development logger")
	flags.String(RelayKey, "", "Relay host, overrides "+zeroexorder.EnvRelayHost)
	flags.Int(NetworkKey, 0, "Network ID, overrides "+zeroexorder.EnvNetworkID)
	flags.String(RPCKey, "", "Ethereum RPC URL enabling on-chain checks, overrides "+zeroexorder.EnvRPCURL)
	flags.String(PrivateKeyKey, "", "Hex private key used to sign, overrides "+zeroexorder.EnvPrivateKey)
}

func AddOrderFlags(flags *pflag.FlagSet) {
	flags.String(MakerKey, "", "Maker address (defaults to the signing key address)")
	flags.String(TakerKey, "", "Taker address, empty lets anyone fill")
	flags.String(MakerTokenKey, "", "Token the maker sells (required)")
	flags.String(TakerTokenKey, "", "Token the maker buys (required)")
	flags.Int(MakerDecimalsKey, zeroexorder.MaxDecimals, "Decimals of the maker token")
	flags.Int(TakerDecimalsKey, zeroexorder.MaxDecimals, "Decimals of the taker token")
	flags.String(MakerAmountKey, "", "Amount sold, in token units (required)")
	flags.String(TakerAmountKey, "", "Amount bought, in token units (required)")
	flags.String(MakerFeeKey, zeroexorder.DefaultMakerFee, "Maker fee in base units")
	flags.String(TakerFeeKey, zeroexorder.DefaultTakerFee, "Taker fee in base units")
	flags.String(FeeRecipientKey, "", "Fee recipient, defaults to the null address")
	flags.Duration(ExpiresInKey, 24*time.Hour, "Time until the order expires")
	flags.String(SaltKey, "", "Order salt, random when empty")
}

// env bundles everything a command needs from configuration
type env struct {
	config zeroexorder.ClientConfig
	logger *zap.Logger
	signer *chain.PrivateKeySigner
}

func ParseGlobalFlags(flags *pflag.FlagSet) (*env, error) {
	envFile, err := flags.GetString(EnvFileKey)
	if err != nil {
		return nil, err
	}
	var config zeroexorder.ClientConfig
	if envFile != "" {
		config, err = zeroexorder.LoadConfigFromEnv(envFile)
	} else {
		config, err = zeroexorder.LoadConfigFromEnv()
	}
	if err != nil {
		return nil, err
	}

	if v, _ := flags.GetString(RelayKey); v != "" {
		config.RelayHost = v
	}
	if v, _ := flags.GetString(RPCKey); v != "" {
		config.RPCURL = v
		config.CheckBalances = true
	}
	if v, _ := flags.GetString(PrivateKeyKey); v != "" {
		config.PrivateKey = v
	}
	if v, _ := flags.GetInt(NetworkKey); v != 0 && zeroexorder.NetworkID(v) != config.NetworkID {
		config.NetworkID = zeroexorder.NetworkID(v)
		contracts := zeroexorder.DefaultContractAddresses[config.NetworkID]
		config.ExchangeContract = contracts.Exchange
		config.TokenTransferProxy = contracts.TokenTransferProxy
	}

	verbose, err := flags.GetBool(VerboseKey)
	if err != nil {
		return nil, err
	}
	var logger *zap.Logger
	if verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	e := &env{config: config, logger: logger}
	if config.PrivateKey != "" {
		e.signer, err = chain.NewPrivateKeySigner(config.PrivateKey)
		if err != nil {
			return nil, err
		}
	}
	return e, nil
}

func ParseOrderFlags(flags *pflag.FlagSet, e *env) (*zeroexorder.OrderData, error) {
	get := func(key string) string {
		v, _ := flags.GetString(key)
		return v
	}

	maker := get(MakerKey)
	if maker == "" && e.signer != nil {
		maker = e.signer.Address().Hex()
	}

	makerDecimals, err := flags.GetInt(MakerDecimalsKey)
	if err != nil {
		return nil, err
	}
	takerDecimals, err := flags.GetInt(TakerDecimalsKey)
	if err != nil {
		return nil, err
	}

	makerAmount, err := zeroexorder.ToBaseUnits(get(MakerAmountKey), makerDecimals)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", MakerAmountKey, err)
	}
	takerAmount, err := zeroexorder.ToBaseUnits(get(TakerAmountKey), takerDecimals)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", TakerAmountKey, err)
	}

	expiresIn, err := flags.GetDuration(ExpiresInKey)
	if err != nil {
		return nil, err
	}
	expiration := time.Now().Add(expiresIn).Unix()

	return &zeroexorder.OrderData{
		Maker:        maker,
		Taker:        get(TakerKey),
		MakerToken:   zeroexorder.Token{Address: get(MakerTokenKey), Decimals: makerDecimals},
		TakerToken:   zeroexorder.Token{Address: get(TakerTokenKey), Decimals: takerDecimals},
		FeeRecipient: get(FeeRecipientKey),
		MakerAmount:  makerAmount.String(),
		TakerAmount:  takerAmount.String(),
		MakerFee:     get(MakerFeeKey),
		TakerFee:     get(TakerFeeKey),
		Expiration:   strconv.FormatInt(expiration, 10),
		Salt:         get(SaltKey),
	}, nil
}
