package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"anonswap/pkg/types"
)

var (
	filterChain  string
	filterSymbol string
	refreshList  bool
)

var tokensCmd = &cobra.Command{
	Use:     "list-tokens",
	Aliases: []string{"tokens", "ls"},
	Short:   "List the tokens you can swap",
	Long: `List the tokens available on each chain. Curated tokens come first; the
rest is fetched from the exchange. Tokens marked "coming soon" cannot be
swapped yet.

Examples:
  anonswap list-tokens
  anonswap list-tokens --chain solana
  anonswap list-tokens --symbol USDC`,
	Run: runListTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)

	tokensCmd.Flags().StringVar(&filterChain, "chain", "", "Filter by blockchain")
	tokensCmd.Flags().StringVar(&filterSymbol, "symbol", "", "Filter by token symbol")
	tokensCmd.Flags().BoolVar(&refreshList, "refresh", false, "Ignore the cached exchange list")
}

func runListTokens(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a := mustApp(cmd)
	defer a.Close()

	chainIDs := make([]string, 0)
	if filterChain != "" {
		c, ok := a.registry.GetChain(filterChain)
		if !ok {
			printError(fmt.Errorf("unsupported chain: %s", filterChain))
			return
		}
		chainIDs = append(chainIDs, c.ID)
	} else {
		for _, c := range a.registry.ListChains() {
			chainIDs = append(chainIDs, c.ID)
		}
	}

	if refreshList {
		a.catalog.Refresh()
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching supported tokens..."
		s.Start()
	}

	byChain := make(map[string][]types.Token, len(chainIDs))
	for _, id := range chainIDs {
		tokens, err := a.catalog.Tokens(cmd.Context(), id)
		if err != nil {
			if !jsonOutput {
				s.Stop()
			}
			printError(err)
			return
		}
		byChain[id] = filterTokens(tokens, filterSymbol)
	}

	if !jsonOutput {
		s.Stop()
	}

	if jsonOutput {
		printJSON(byChain)
		return
	}
	displayTokens(chainIDs, byChain)
}

func filterTokens(tokens []types.Token, symbol string) []types.Token {
	if symbol == "" {
		return tokens
	}
	var out []types.Token
	for _, t := range tokens {
		if strings.Contains(strings.ToUpper(t.Symbol), strings.ToUpper(symbol)) {
			out = append(out, t)
		}
	}
	return out
}

func displayTokens(chainIDs []string, byChain map[string][]types.Token) {
	total := 0
	for _, id := range chainIDs {
		total += len(byChain[id])
	}
	if total == 0 {
		fmt.Println("\nNo tokens found matching the criteria.")
		return
	}

	banner("SUPPORTED TOKENS", 90)

	shown := 0
	for _, id := range chainIDs {
		tokens := byChain[id]
		if len(tokens) == 0 {
			continue
		}
		shown++

		color.Cyan("\n%s", strings.ToUpper(id))
		fmt.Println(strings.Repeat("-", 90))

		for _, token := range tokens {
			address := token.ContractAddress
			if len(address) > 40 {
				address = address[:37] + "..."
			}

			note := ""
			switch {
			case token.ComingSoon:
				note = color.MagentaString("coming soon")
			case token.Priority:
				note = color.GreenString("featured")
			}

			fmt.Printf("  %-10s  %-24s  %-40s  %s\n",
				color.YellowString(token.Symbol),
				token.Name,
				color.HiBlackString(address),
				note)
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	fmt.Printf("\nTotal: %d tokens across %d blockchains\n\n", total, shown)
}
