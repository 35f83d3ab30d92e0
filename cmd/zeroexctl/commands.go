package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	zeroexorder "github.com/kaifufi/zeroex-order-sdk-go"
	"github.com/kaifufi/zeroex-order-sdk-go/chain"
)

const (
	HashKey   = "hash"
	SignerKey = "signer"
	VKey      = "v"
	RKey      = "r"
	SKey      = "s"
)

func hashCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "hash",
		Short: "Prints the hash of an order",
		RunE:  hashFunc,
	}
	AddOrderFlags(c.Flags())
	return c
}

func signCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "sign",
		Short: "Signs an order and prints the signed order",
		RunE:  signFunc,
	}
	AddOrderFlags(c.Flags())
	return c
}

func submitCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "submit",
		Short: "Signs an order and submits it to the relay",
		RunE:  submitFunc,
	}
	AddOrderFlags(c.Flags())
	return c
}

func verifyCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "verify",
		Short: "Checks that a signature over an order hash came from signer",
		RunE:  verifyFunc,
	}
	flags := c.Flags()
	flags.String(HashKey, "", "Order hash (required)")
	flags.String(SignerKey, "", "Expected signer address (required)")
	flags.Uint8(VKey, 27, "Signature v")
	flags.String(RKey, "", "Signature r")
	flags.String(SKey, "", "Signature s")
	return c
}

func getCommand() *cobra.Command {
	c := &cobra.Command{
		Use:   "get [order-hash]",
		Short: "Fetches one order by hash, or lists the relay orders",
		Args:  cobra.MaximumNArgs(1),
		RunE:  getFunc,
	}
	flags := c.Flags()
	flags.String(MakerKey, "", "Only list orders from this maker")
	flags.String(MakerTokenKey, "", "Only list orders selling this token")
	flags.String(TakerTokenKey, "", "Only list orders buying this token")
	return c
}

func hashFunc(c *cobra.Command, _ []string) error {
	e, client, err := setup(c)
	if err != nil {
		return err
	}
	defer client.Close()

	order, err := buildOrder(c, e, client)
	if err != nil {
		return err
	}

	orderHash, err := chain.HashOrder(order)
	if err != nil {
		return err
	}
	return printJSON(c.OutOrStdout(), map[string]string{"orderHash": orderHash})
}

func signFunc(c *cobra.Command, _ []string) error {
	e, client, err := setup(c)
	if err != nil {
		return err
	}
	defer client.Close()

	if e.signer == nil {
		return fmt.Errorf("--%s or %s is required to sign", PrivateKeyKey, zeroexorder.EnvPrivateKey)
	}
	order, err := buildOrder(c, e, client)
	if err != nil {
		return err
	}

	signed, err := client.NewSession(*order).Sign(c.Context())
	if err != nil {
		return describe(err)
	}
	return printJSON(c.OutOrStdout(), signed)
}

func submitFunc(c *cobra.Command, _ []string) error {
	e, client, err := setup(c)
	if err != nil {
		return err
	}
	defer client.Close()

	if e.signer == nil {
		return fmt.Errorf("--%s or %s is required to sign", PrivateKeyKey, zeroexorder.EnvPrivateKey)
	}
	order, err := buildOrder(c, e, client)
	if err != nil {
		return err
	}

	session := client.NewSession(*order)
	result, err := client.SubmitOrder(c.Context(), session)
	if err != nil {
		if msg := session.ErrorMessage(); msg != "" {
			return fmt.Errorf("%s: %w", msg, err)
		}
		return describe(err)
	}
	return printJSON(c.OutOrStdout(), map[string]any{
		"orderHash": result.Order.Signature.Hash,
		"order":     result.Payload,
		"response":  result.Response,
	})
}

func verifyFunc(c *cobra.Command, _ []string) error {
	flags := c.Flags()
	orderHash, _ := flags.GetString(HashKey)
	signer, _ := flags.GetString(SignerKey)
	v, err := flags.GetUint8(VKey)
	if err != nil {
		return err
	}
	r, _ := flags.GetString(RKey)
	s, _ := flags.GetString(SKey)

	if !zeroexorder.IsValidOrderHash(orderHash) {
		return fmt.Errorf("--%s is not an order hash: %q", HashKey, orderHash)
	}

	sig := chain.ECSignature{V: v, R: r, S: s}
	recovered, err := chain.RecoverSigner(orderHash, sig)
	if err != nil {
		return err
	}
	valid := chain.IsValidSignature(orderHash, sig, signer)
	if err := printJSON(c.OutOrStdout(), map[string]any{
		"valid":     valid,
		"recovered": recovered.Hex(),
	}); err != nil {
		return err
	}
	if !valid {
		return chain.ErrInvalidSignature
	}
	return nil
}

func getFunc(c *cobra.Command, args []string) error {
	_, client, err := setup(c)
	if err != nil {
		return err
	}
	defer client.Close()

	if len(args) == 1 {
		order, err := client.GetOrder(c.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(c.OutOrStdout(), order)
	}

	flags := c.Flags()
	maker, _ := flags.GetString(MakerKey)
	makerToken, _ := flags.GetString(MakerTokenKey)
	takerToken, _ := flags.GetString(TakerTokenKey)
	orders, err := client.GetOrders(c.Context(), zeroexorder.OrdersQuery{
		Maker:             maker,
		MakerTokenAddress: makerToken,
		TakerTokenAddress: takerToken,
	})
	if err != nil {
		return err
	}
	return printJSON(c.OutOrStdout(), orders)
}

func setup(c *cobra.Command) (*env, *zeroexorder.Client, error) {
	e, err := ParseGlobalFlags(c.Flags())
	if err != nil {
		return nil, nil, err
	}

	var signer zeroexorder.Signer
	if e.signer != nil {
		signer = e.signer
	}
	client, err := zeroexorder.NewClient(e.config, signer, zeroexorder.WithLogger(e.logger))
	if err != nil {
		return nil, nil, err
	}
	if err := client.CheckNetwork(c.Context()); err != nil {
		client.Close()
		return nil, nil, err
	}
	return e, client, nil
}

func buildOrder(c *cobra.Command, e *env, client *zeroexorder.Client) (*zeroexorder.Order, error) {
	data, err := ParseOrderFlags(c.Flags(), e)
	if err != nil {
		return nil, err
	}
	return client.BuildOrder(data)
}

// describe prefers the user message of a signing failure
func describe(err error) error {
	var serr *zeroexorder.SigningError
	if errors.As(err, &serr) {
		return fmt.Errorf("%s: %w", serr.UserMessage, err)
	}
	return err
}

func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
