// zeroexctl hashes, signs and submits 0x orders from the command line.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "command failed %v\n", err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	c := &cobra.Command{
		Use:           "zeroexctl",
		Short:         "Builds, signs and submits 0x orders",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	AddGlobalFlags(c.PersistentFlags())
	c.AddCommand(
		hashCommand(),
		signCommand(),
		submitCommand(),
		verifyCommand(),
		getCommand(),
	)
	return c
}
