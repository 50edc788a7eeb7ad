package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"sol-relay/config"
)

var filterSymbol string

var tokensCmd = &cobra.Command{
	Use:     "tokens",
	Aliases: []string{"list-tokens", "ls"},
	Short:   "List the fee tokens this relay accepts",
	Long: `List the SPL tokens the relay accepts fee payments in, with their minimum
fee and the account that must receive it.

Examples:
  sol-relay tokens
  sol-relay tokens --symbol USDC`,
	Run: runListTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)

	tokensCmd.Flags().StringVar(&filterSymbol, "symbol", "", "Filter by token symbol")
}

func runListTokens(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	filtered := cfg.Tokens
	if filterSymbol != "" {
		var temp []config.Token
		for _, token := range filtered {
			if strings.Contains(strings.ToUpper(token.Symbol), strings.ToUpper(filterSymbol)) {
				temp = append(temp, token)
			}
		}
		filtered = temp
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(filtered, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displayTokens(filtered)
	}
}

func displayTokens(tokens []config.Token) {
	if len(tokens) == 0 {
		fmt.Println("\nNo tokens found matching the criteria.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	color.Green("                            ACCEPTED FEE TOKENS")
	fmt.Println(strings.Repeat("=", 90))
	fmt.Println()

	for _, token := range tokens {
		mint := token.Mint
		if len(mint) > 40 {
			mint = mint[:37] + "..."
		}

		fmt.Printf("  %-10s  %2d decimals  min fee %-12d  %s\n",
			color.YellowString(token.Symbol),
			token.Decimals,
			token.MinFee,
			color.HiBlackString(mint))
		fmt.Printf("              fee account: %s\n", color.HiBlackString(token.FeeAccount))
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	fmt.Printf("\nTotal: %d tokens\n\n", len(tokens))
}
