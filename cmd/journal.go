package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"anonswap/pkg/attest"
	"anonswap/pkg/journal"
)

var resubmitProof bool

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect the local swap journal",
	Long: `Every order this device creates is journaled locally with its parameters,
identity commitment and proof hash. The journal never leaves your machine
unless you configure a shared Redis store.`,
}

var journalListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List journaled swaps, newest first",
	Args:    cobra.NoArgs,
	Run:     runJournalList,
}

var journalReconcileCmd = &cobra.Command{
	Use:   "reconcile <order-id>",
	Short: "Recompute a swap's proof and compare it with the journal",
	Long: `Recompute the attestation for a journaled swap from your identity secret
and compare it with what was recorded. Use --resubmit to send the proof for
confirmation again, for example after the relayer was unreachable.

Examples:
  anonswap journal reconcile 7f3c...
  anonswap journal reconcile 7f3c... --resubmit`,
	Args: cobra.ExactArgs(1),
	Run:  runJournalReconcile,
}

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalListCmd)
	journalCmd.AddCommand(journalReconcileCmd)

	journalReconcileCmd.Flags().BoolVar(&resubmitProof, "resubmit", false, "Submit the recomputed proof for confirmation")
}

func runJournalList(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a := mustApp(cmd)
	defer a.Close()

	entries, err := a.journal.List(cmd.Context())
	if err != nil {
		printError(err)
		return
	}
	entries = newestFirst(entries)

	if jsonOutput {
		printJSON(entries)
		return
	}
	displayJournal(entries)
}

// newestFirst orders entries by creation time, most recent first. The journal
// itself is kept in append order.
func newestFirst(entries []journal.Entry) []journal.Entry {
	sorted := append([]journal.Entry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	return sorted
}

func displayJournal(entries []journal.Entry) {
	if len(entries) == 0 {
		fmt.Println("\nNo swaps journaled yet.")
		return
	}

	banner("SWAP JOURNAL", 100)
	fmt.Println()
	for _, e := range entries {
		proof := color.HiBlackString("no proof")
		if e.ProofHash != "" {
			proof = color.HiBlackString(shortHash(e.ProofHash))
		}
		fmt.Printf("  %s  %-14s  %s %s (%s) -> %s (%s)  %s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04"),
			getColoredStatus(e.Status),
			e.Amount, e.FromToken, e.FromChain, e.ToToken, e.ToChain,
			proof)
		fmt.Printf("  %s\n", color.CyanString(e.OrderID))
	}
	fmt.Println("\n" + strings.Repeat("=", 100))
	fmt.Printf("\nTotal: %d swaps\n\n", len(entries))
}

func runJournalReconcile(cmd *cobra.Command, args []string) {
	orderID := args[0]
	jsonOutput, _ := cmd.Flags().GetBool("json")
	ctx := cmd.Context()

	a := mustApp(cmd)
	defer a.Close()

	entry, err := a.journal.Get(ctx, orderID)
	if err != nil {
		printError(err)
		return
	}

	secret, err := a.secret(ctx)
	if err != nil {
		printError(err)
		return
	}
	if secret == "" {
		printError(fmt.Errorf("no identity secret stored; run 'anonswap identity init' or set identity_secret"))
		return
	}

	rec, err := a.attester.Reconcile(secret, entry)
	if err != nil {
		printError(err)
		return
	}

	// A proof that never reached the journal is recorded now.
	if !rec.ProofRecorded && rec.CommitmentMatches {
		if err := a.journal.SetProofHash(ctx, orderID, rec.Attestation.ProofHash); err != nil {
			a.logger.Warn("Failed to journal proof hash", zap.String("order_id", orderID), zap.Error(err))
		}
	}

	var confirmErr error
	if resubmitProof {
		confirmErr = a.attester.Confirm(ctx, rec.Attestation)
		a.metrics.ProofConfirmed(confirmErr)
	}

	if jsonOutput {
		out := map[string]any{"orderId": orderID, "reconciliation": rec}
		if resubmitProof {
			out["confirmed"] = confirmErr == nil
			if confirmErr != nil {
				out["confirmError"] = confirmErr.Error()
			}
		}
		printJSON(out)
	} else {
		displayReconciliation(orderID, rec, resubmitProof, confirmErr)
	}

	if !rec.CommitmentMatches || (rec.ProofRecorded && !rec.ProofMatches) || confirmErr != nil {
		os.Exit(1)
	}
}

func displayReconciliation(orderID string, rec *attest.Reconciliation, resubmitted bool, confirmErr error) {
	banner("PROOF RECONCILIATION", 70)

	fmt.Printf("\n  Order ID:        %s\n", color.CyanString(orderID))
	fmt.Printf("  Proof:           %s\n", color.HiBlackString(rec.Attestation.ProofHash))
	fmt.Printf("  Identity:        %s\n", check(rec.CommitmentMatches, "matches this identity", "made with another identity"))

	switch {
	case !rec.ProofRecorded && rec.CommitmentMatches:
		fmt.Printf("  Journal:         %s\n", color.YellowString("proof was missing, recorded now"))
	case !rec.ProofRecorded:
		fmt.Printf("  Journal:         %s\n", color.YellowString("no proof recorded"))
	default:
		fmt.Printf("  Journal:         %s\n", check(rec.ProofMatches, "proof matches", "proof differs from recomputed value"))
	}

	if resubmitted {
		if confirmErr != nil {
			fmt.Printf("  Confirmation:    %s\n", color.RedString(confirmErr.Error()))
		} else {
			fmt.Printf("  Confirmation:    %s\n", color.GreenString("proof confirmed"))
		}
	}

	rule(70)
}

func check(ok bool, good, bad string) string {
	if ok {
		return color.GreenString("✓ " + good)
	}
	return color.RedString("✗ " + bad)
}

func shortHash(h string) string {
	if len(h) <= 18 {
		return h
	}
	return h[:10] + "..." + h[len(h)-6:]
}
