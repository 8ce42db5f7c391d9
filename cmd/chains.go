package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"anonswap/pkg/chains"
)

var chainsCmd = &cobra.Command{
	Use:   "chains",
	Short: "List supported blockchains",
	Args:  cobra.NoArgs,
	Run:   runChains,
}

var validateAddressCmd = &cobra.Command{
	Use:   "validate-address <chain> <address>",
	Short: "Check an address against a chain's address format",
	Long: `Check whether an address is well-formed for a chain. This is the same
check a swap applies to the recipient and refund addresses.

Examples:
  anonswap validate-address bitcoin bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq
  anonswap validate-address eth 0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed`,
	Args: cobra.ExactArgs(2),
	Run:  runValidateAddress,
}

func init() {
	rootCmd.AddCommand(chainsCmd)
	rootCmd.AddCommand(validateAddressCmd)
}

func runChains(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	registry := chains.NewRegistry()

	if jsonOutput {
		printJSON(registry.ListChains())
		return
	}

	banner("SUPPORTED CHAINS", 60)
	fmt.Println()
	for _, c := range registry.ListChains() {
		state := color.GreenString("available")
		if !c.Available {
			state = color.MagentaString("coming soon")
		}
		aliases := ""
		if len(c.Aliases) > 0 {
			aliases = color.HiBlackString("(" + strings.Join(c.Aliases, ", ") + ")")
		}
		fmt.Printf("  %-10s %-18s %-6s %s %s\n", c.ID, c.Name, c.Symbol, state, aliases)
	}
	rule(60)
}

func runValidateAddress(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	registry := chains.NewRegistry()

	c, ok := registry.GetChain(args[0])
	if !ok {
		printError(fmt.Errorf("unsupported chain: %s", args[0]))
		os.Exit(1)
	}
	valid := registry.ValidateAddress(args[1], c.ID)

	if jsonOutput {
		printJSON(map[string]any{"chain": c.ID, "address": args[1], "valid": valid})
	} else if valid {
		color.Green("\n✓ Valid %s address\n", c.Name)
	} else {
		color.Red("\n✗ Not a valid %s address\n", c.Name)
	}

	if !valid {
		os.Exit(1)
	}
}
