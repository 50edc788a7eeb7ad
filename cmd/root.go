package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sol-relay",
	Short: "A gasless transaction relay for Solana",
	Long: `sol-relay co-signs and broadcasts partially-signed Solana transactions
whose network fee the sender cannot pay, in exchange for an in-transaction
fee paid in a supported SPL token.

Examples:
  sol-relay serve
  sol-relay status 5j7s...Ab2K --watch
  sol-relay tokens`,
	Version: "0.1.0",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}
