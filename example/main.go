// Example usage of the 0x order SDK
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.uber.org/zap"

	zeroexorder "github.com/kaifufi/zeroex-order-sdk-go"
	"github.com/kaifufi/zeroex-order-sdk-go/chain"
)

const (
	wethAddress = "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"
	zrxAddress  = "0xe41d2489571d322189246dafa5ebde1f4699f498"
)

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	// Reads ZEROEX_* variables, and .env when present
	config, err := zeroexorder.LoadConfigFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if config.PrivateKey == "" {
		log.Fatalf("%s is required", zeroexorder.EnvPrivateKey)
	}

	signer, err := chain.NewPrivateKeySigner(config.PrivateKey)
	if err != nil {
		log.Fatalf("Failed to load signer: %v", err)
	}

	client, err := zeroexorder.NewClient(config, signer, zeroexorder.WithLogger(logger))
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}
	defer client.Close()

	ctx := context.Background()

	makerAmount, err := zeroexorder.ToBaseUnits("1", 18)
	if err != nil {
		log.Fatalf("Invalid maker amount: %v", err)
	}
	takerAmount, err := zeroexorder.ToBaseUnits("500", 18)
	if err != nil {
		log.Fatalf("Invalid taker amount: %v", err)
	}

	// Sell 1 WETH for 500 ZRX, open to any taker
	order, err := client.BuildOrder(&zeroexorder.OrderData{
		Maker:       signer.Address().Hex(),
		MakerToken:  zeroexorder.Token{Address: wethAddress, Symbol: "WETH", Decimals: 18},
		TakerToken:  zeroexorder.Token{Address: zrxAddress, Symbol: "ZRX", Decimals: 18},
		MakerAmount: makerAmount.String(),
		TakerAmount: takerAmount.String(),
		Expiration:  fmt.Sprint(time.Now().Add(24 * time.Hour).Unix()),
	})
	if err != nil {
		log.Fatalf("Failed to build order: %v", err)
	}

	session := client.NewSession(*order)

	orderHash, err := session.OrderHash(ctx)
	if err != nil {
		log.Fatalf("Failed to hash order: %v", err)
	}
	fmt.Printf("Order hash: %s\n", orderHash)

	result, err := client.SubmitOrder(ctx, session)
	if err != nil {
		var serr *zeroexorder.SigningError
		if errors.As(err, &serr) {
			log.Fatalf("%s (%v)", serr.UserMessage, serr.Err)
		}
		log.Printf("%s: %v", session.ErrorMessage(), err)
		return
	}
	fmt.Printf("Relay accepted order %s: %s\n", result.Order.Signature.Hash, result.Response)

	// Start the next order with a fresh salt
	if err := session.Acknowledge(); err != nil {
		log.Fatalf("Failed to reset session: %v", err)
	}

	// Watch new WETH/ZRX orders for a while
	feed := zeroexorder.NewOrderFeed(zeroexorder.OrderFeedConfig{
		Logger: logger,
		OnOrder: func(requestID int, o zeroexorder.RelayOrderPayload) {
			fmt.Printf("[%d] %s sells %s for %s\n", requestID, o.Maker, o.MakerTokenAmount, o.TakerTokenAmount)
		},
	})
	if err := feed.Connect(ctx); err != nil {
		log.Printf("Order feed unavailable: %v", err)
		return
	}
	defer feed.Disconnect()

	if _, err := feed.Subscribe(zeroexorder.OrderFeedFilter{
		MakerTokenAddress: wethAddress,
		TakerTokenAddress: zrxAddress,
	}); err != nil {
		log.Printf("Failed to subscribe: %v", err)
		return
	}
	time.Sleep(30 * time.Second)
}
