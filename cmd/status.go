package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/cobra"

	"sol-relay/config"
)

var (
	watchStatus   bool
	watchInterval int
)

var statusCmd = &cobra.Command{
	Use:   "status <signature>",
	Short: "Check the confirmation status of a relayed transaction",
	Long: `Check a transaction's confirmation status by its signature. Useful after a
confirmation timeout: the transaction may still have landed.

Examples:
  sol-relay status 5j7s...Ab2K
  sol-relay status 5j7s...Ab2K --watch
  sol-relay status 5j7s...Ab2K --watch --interval 10`,
	Args: cobra.ExactArgs(1),
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVarP(&watchStatus, "watch", "w", false, "Watch status updates continuously")
	statusCmd.Flags().IntVar(&watchInterval, "interval", 5, "Polling interval in seconds (when watching)")
}

type signatureStatus struct {
	Signature     string `json:"signature"`
	Status        string `json:"status"`
	Slot          uint64 `json:"slot,omitempty"`
	Confirmations string `json:"confirmations,omitempty"`
	Err           string `json:"err,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	sig, err := solana.SignatureFromBase58(args[0])
	if err != nil {
		printError(fmt.Errorf("invalid signature: %w", err))
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	client := rpc.New(cfg.RPCURL)

	if watchStatus {
		watchSignature(client, sig, jsonOutput)
	} else {
		checkSignature(client, sig, jsonOutput)
	}
}

func checkSignature(client *rpc.Client, sig solana.Signature, jsonOutput bool) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Checking transaction status..."
		s.Start()
	}

	status, err := querySignature(client, sig)
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(status, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displaySignatureStatus(status)
	}
}

func watchSignature(client *rpc.Client, sig solana.Signature, jsonOutput bool) {
	if jsonOutput {
		fmt.Println(`{"error": "watch mode not supported with JSON output"}`)
		os.Exit(1)
	}

	fmt.Printf("\nWatching transaction %s\n", color.CyanString(sig.String()))
	fmt.Printf("Checking every %d seconds. Press Ctrl+C to stop.\n\n", watchInterval)

	ticker := time.NewTicker(time.Duration(watchInterval) * time.Second)
	defer ticker.Stop()

	checkAndDisplay(client, sig)

	for range ticker.C {
		checkAndDisplay(client, sig)
	}
}

func checkAndDisplay(client *rpc.Client, sig solana.Signature) {
	status, err := querySignature(client, sig)
	if err != nil {
		color.Red("Error: %v", err)
		return
	}
	displaySignatureStatus(status)
}

func querySignature(client *rpc.Client, sig solana.Signature) (*signatureStatus, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	resp, err := client.GetSignatureStatuses(ctx, true, sig)
	if err != nil {
		return nil, fmt.Errorf("failed to query signature status: %w", err)
	}

	out := &signatureStatus{Signature: sig.String(), Status: "NOT FOUND"}
	if resp == nil || len(resp.Value) == 0 || resp.Value[0] == nil {
		return out, nil
	}

	st := resp.Value[0]
	out.Slot = st.Slot
	if st.Err != nil {
		out.Status = "FAILED"
		out.Err = fmt.Sprintf("%v", st.Err)
		return out, nil
	}

	switch st.ConfirmationStatus {
	case rpc.ConfirmationStatusFinalized:
		out.Status = "FINALIZED"
	case rpc.ConfirmationStatusConfirmed:
		out.Status = "CONFIRMED"
	default:
		out.Status = "PENDING"
	}
	if st.Confirmations != nil {
		out.Confirmations = fmt.Sprintf("%d", *st.Confirmations)
	}
	return out, nil
}

func displaySignatureStatus(status *signatureStatus) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                     TRANSACTION STATUS")
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\n  Signature:  %s\n", color.CyanString(status.Signature))
	fmt.Printf("  Status:     %s\n", coloredState(status.Status))
	if status.Slot > 0 {
		fmt.Printf("  Slot:       %d\n", status.Slot)
	}
	if status.Confirmations != "" {
		fmt.Printf("  Confirmations: %s\n", status.Confirmations)
	}
	if status.Err != "" {
		fmt.Printf("  Error:      %s\n", color.RedString(status.Err))
	}

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}

func coloredState(state string) string {
	switch state {
	case "FINALIZED", "CONFIRMED":
		return color.GreenString(state)
	case "PENDING":
		return color.YellowString(state)
	case "FAILED":
		return color.RedString(state)
	case "NOT FOUND":
		return color.MagentaString(state)
	default:
		return state
	}
}
