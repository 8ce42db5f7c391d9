package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"anonswap/pkg/journal"
	"anonswap/pkg/types"
)

var (
	watchStatus   bool
	watchInterval int
)

var statusCmd = &cobra.Command{
	Use:   "status <order-id>",
	Short: "Check the status of a swap",
	Long: `Check the exchange status of a swap order. Orders in your journal are
updated with the status the exchange reports.

Examples:
  anonswap status 7f3c...
  anonswap status 7f3c... --watch
  anonswap status 7f3c... --watch --interval 10`,
	Args: cobra.ExactArgs(1),
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVarP(&watchStatus, "watch", "w", false, "Watch status updates until the swap completes")
	statusCmd.Flags().IntVar(&watchInterval, "interval", 5, "Polling interval in seconds (when watching)")
}

func runStatus(cmd *cobra.Command, args []string) {
	orderID := args[0]
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a := mustApp(cmd)
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if watchStatus {
		if jsonOutput {
			fmt.Println(`{"error": "watch mode not supported with JSON output"}`)
			return
		}
		watchSwapStatus(ctx, a, orderID)
		return
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Checking swap status..."
		s.Start()
	}

	status, entry, err := checkSwapStatus(ctx, a, orderID)
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		printError(err)
		return
	}

	if jsonOutput {
		printJSON(map[string]any{"orderId": orderID, "status": status, "journal": entry})
		return
	}
	displayStatus(orderID, status, entry)
}

// checkSwapStatus fetches the status and records it in the journal when the
// order is journaled. entry is nil for orders this device did not create.
func checkSwapStatus(ctx context.Context, a *app, orderID string) (string, *journal.Entry, error) {
	status, err := a.exchange.GetSwapStatus(ctx, orderID)
	if err != nil {
		return "", nil, err
	}

	e, err := a.journal.Get(ctx, orderID)
	if errors.Is(err, journal.ErrEntryNotFound) {
		return status, nil, nil
	}
	if err != nil {
		a.logger.Warn("Journal lookup failed", zap.String("order_id", orderID), zap.Error(err))
		return status, nil, nil
	}

	if err := a.journal.UpdateStatus(ctx, orderID, status); err != nil {
		a.logger.Warn("Failed to journal status", zap.String("order_id", orderID), zap.Error(err))
	} else if e2, err := a.journal.Get(ctx, orderID); err == nil {
		e = e2
	}
	return status, &e, nil
}

func watchSwapStatus(ctx context.Context, a *app, orderID string) {
	fmt.Printf("\nWatching swap status (Order: %s)\n", color.CyanString(orderID))
	fmt.Printf("Checking every %d seconds. Press Ctrl+C to stop.\n\n", watchInterval)

	ticker := time.NewTicker(time.Duration(watchInterval) * time.Second)
	defer ticker.Stop()

	last := ""
	for {
		status, entry, err := checkSwapStatus(ctx, a, orderID)
		switch {
		case ctx.Err() != nil:
			return
		case err != nil:
			color.Red("Error: %v", err)
		case status != last:
			displayStatus(orderID, status, entry)
			last = status
		}

		if types.IsTerminalStatus(status) {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func displayStatus(orderID, status string, entry *journal.Entry) {
	banner("SWAP STATUS", 70)

	fmt.Printf("\n  Order ID:        %s\n", color.CyanString(orderID))
	fmt.Printf("  Status:          %s\n", getColoredStatus(status))
	fmt.Printf("  Checked At:      %s\n", time.Now().Format("2006-01-02 15:04:05"))

	if entry != nil {
		fmt.Printf("  Swap:            %s %s (%s) -> %s (%s)\n",
			entry.Amount, entry.FromToken, entry.FromChain, entry.ToToken, entry.ToChain)
		fmt.Printf("  Recipient:       %s\n", entry.ReceiverAddress)
		fmt.Printf("  Created:         %s\n", entry.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		if entry.ProofHash != "" {
			fmt.Printf("  Proof:           %s\n", color.HiBlackString(entry.ProofHash))
		}
	}

	rule(70)
}
