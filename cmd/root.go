package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "anonswap",
	Short: "A CLI for anonymous cross-chain swaps",
	Long: `anonswap validates a swap request, creates an order on the relayer exchange,
binds the swap parameters to your identity with a deterministic proof and
follows the order until the exchange pays out.

Examples:
  anonswap identity init
  anonswap swap 1.5 ETH to BTC --recipient bc1q... --refund-to 0x...
  anonswap list-tokens --chain solana
  anonswap status <order-id> --watch
  anonswap journal list`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default is $HOME/.anonswap.yaml)")
	rootCmd.PersistentFlags().String("exchange", "", "Exchange backend: relayer or oneclick")
	rootCmd.PersistentFlags().String("log-level", "", "Diagnostic log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("metrics-addr", "", "Serve Prometheus metrics on this address while running")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}

func printSuccess(message string) {
	fmt.Printf("\n%s\n\n", message)
}
