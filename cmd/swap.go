package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"anonswap/pkg/activity"
	"anonswap/pkg/catalog"
	"anonswap/pkg/deposit"
	"anonswap/pkg/parser"
	"anonswap/pkg/swap"
	"anonswap/pkg/types"
	"anonswap/pkg/validator"
)

var (
	fromChain     string
	toChain       string
	recipientAddr string
	refundAddr    string
	noConfirm     bool
	autoDeposit   bool
)

var swapCmd = &cobra.Command{
	Use:   "swap <amount> <source-token> to <dest-token>",
	Short: "Perform an anonymous cross-chain swap",
	Long: `Create a swap order on the relayer exchange and follow it until it completes.

The swap parameters are bound to your identity with a deterministic proof
before they are submitted for confirmation. Run 'anonswap identity init' once
before your first swap.

IMPORTANT:
  - You MUST specify --recipient (where you'll receive tokens)
  - You SHOULD specify --refund-to (where refunds go if the swap fails)
  - Both addresses must be valid for their respective blockchains

Examples:
  # Chains inferred from native tokens
  anonswap swap 1.5 ETH to BTC --recipient bc1q... --refund-to 0x...

  # Tokens on explicit chains
  anonswap swap 100 USDC on ethereum to SOL --recipient <sol-addr> --refund-to 0x...

  # With auto-deposit from the configured hot wallet
  anonswap swap 0.5 SOL to ZEC --recipient t1... --refund-to <sol-addr> --auto-deposit

Press Ctrl+C at any time to abandon the swap. The order stays in your journal.`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSwap,
}

func init() {
	rootCmd.AddCommand(swapCmd)

	swapCmd.Flags().StringVar(&fromChain, "from-chain", "", "Source blockchain (inferred from native tokens)")
	swapCmd.Flags().StringVar(&toChain, "to-chain", "", "Destination blockchain (inferred from native tokens)")
	swapCmd.Flags().StringVar(&recipientAddr, "recipient", "", "Recipient address (REQUIRED - where you'll receive tokens)")
	swapCmd.Flags().StringVar(&refundAddr, "refund-to", "", "Refund address on source chain (where refunds go if swap fails)")
	swapCmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompts")
	swapCmd.Flags().BoolVar(&autoDeposit, "auto-deposit", false, "Automatically send deposit (requires configuration)")
}

func runSwap(cmd *cobra.Command, args []string) {
	swapReq, err := parser.ParseSwapCommand(strings.Join(args, " "))
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if fromChain != "" {
		swapReq.FromChain = fromChain
	}
	if toChain != "" {
		swapReq.ToChain = toChain
	}
	swapReq.ReceiverAddress = recipientAddr
	swapReq.RefundAddress = refundAddr

	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a := mustApp(cmd)
	defer a.Close()

	parser.ResolveChains(swapReq, a.registry)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	a.serveMetrics(ctx)

	secret, err := a.secret(ctx)
	if err != nil {
		printError(err)
		return
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching supported tokens..."
		s.Start()
	}
	a.warmCatalog(ctx, swapReq.FromChain, swapReq.ToChain)
	if !jsonOutput {
		s.Stop()
		displaySwapSummary(swapReq)
	}

	if !noConfirm && !jsonOutput {
		if !confirm("Proceed with swap?") {
			fmt.Println("\nSwap cancelled.")
			return
		}
	}

	log := activity.NewLog(a.logger)
	orch := a.newOrchestrator(log)
	printer := &activityPrinter{log: log}

	if !jsonOutput {
		fmt.Println()
		s.Suffix = " Contacting relayer..."
		s.Start()
	}

	order, err := orch.Submit(ctx, *swapReq, secret)
	if !jsonOutput {
		s.Stop()
		printer.flush()
	}
	if err != nil {
		reportSubmitError(err, verbose)
		if jsonOutput {
			printJSON(map[string]any{"error": err.Error(), "activity": log.Entries()})
		}
		os.Exit(1)
	}

	if !jsonOutput {
		displayDepositInstructions(order)
	}

	if autoDeposit || a.cfg.AutoDeposit.Enabled {
		if err := handleAutoDeposit(ctx, a, newConsole(jsonOutput), swapReq, order, log, verbose, noConfirm); err != nil {
			log.Warning("Auto-deposit failed: " + err.Error())
			if !jsonOutput {
				printer.flush()
				color.Yellow("Please send the deposit manually to: %s\n", order.DepositAddress)
			}
		}
	}

	followSwap(ctx, orch, printer, s, jsonOutput)

	if jsonOutput {
		printJSON(map[string]any{
			"order":       orch.Order(),
			"stage":       orch.Stage().String(),
			"attestation": orch.Attestation(),
			"activity":    log.Entries(),
		})
	}
}

// followSwap renders the run until it completes or the user interrupts it
func followSwap(ctx context.Context, orch *swap.Orchestrator, printer *activityPrinter, s *spinner.Spinner, quiet bool) {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	if !quiet {
		s.Start()
		defer s.Stop()
	}

	for {
		select {
		case <-ctx.Done():
			order := orch.Order()
			orch.Reset()
			if !quiet {
				s.Stop()
				fmt.Println("\nSwap abandoned.")
				if order != nil {
					fmt.Println("The order stays in your journal. Check it later with:")
					color.Cyan("  anonswap status %s\n", order.OrderID)
				}
			}
			return

		case <-orch.Done():
			// Give the proof confirmation a moment to land in the log.
			time.Sleep(250 * time.Millisecond)
			if !quiet {
				s.Stop()
				printer.flush()
				if orch.Stage() == swap.StageComplete {
					color.Green("\nSwap complete.")
				}
			}
			return

		case <-ticker.C:
			if quiet {
				continue
			}
			if printer.log.Len() != printer.seen {
				s.Stop()
				printer.flush()
				s.Start()
			}
			s.Lock()
			s.Suffix = " " + progressLine(orch)
			s.Unlock()
		}
	}
}

func progressLine(orch *swap.Orchestrator) string {
	switch stage := orch.Stage(); stage {
	case swap.StageDepositWaiting:
		left := orch.Remaining(time.Now())
		if left == 0 {
			return "Waiting for deposit (window expired)"
		}
		return fmt.Sprintf("Waiting for deposit (%s left)", formatCountdown(left))
	case swap.StageConfirming:
		return "Confirming deposit..."
	case swap.StageExecuting:
		return "Executing swap..."
	default:
		return stage.String()
	}
}

func reportSubmitError(err error, verbose bool) {
	var ve *validator.ValidationError
	var oce *swap.OrderCreationError

	switch {
	case errors.As(err, &ve):
		printError(err)
		if ve.Reason == validator.ReasonIdentityRequired {
			fmt.Println("Create an identity first:")
			color.Cyan("  anonswap identity init\n")
		}
	case errors.As(err, &oce):
		printError(err)
		if verbose {
			fmt.Println("This might be due to:")
			fmt.Println("  1. The relayer being unreachable")
			fmt.Println("  2. The pair not being tradable right now (try: anonswap list-tokens)")
			fmt.Println("  3. An amount outside the exchange's limits")
		}
	default:
		printError(err)
	}
}

func handleAutoDeposit(ctx context.Context, a *app, term console, req *types.SwapRequest, order *types.SwapOrder, log *activity.Log, verbose, skipConfirm bool) error {
	depositMgr := deposit.NewManager(a.cfg.AutoDeposit, a.registry, a.logger)

	if !depositMgr.IsEnabledForChain(req.FromChain) {
		return fmt.Errorf("auto-deposit not enabled for chain: %s", req.FromChain)
	}

	transfer := deposit.Transfer{
		To:     order.DepositAddress,
		Amount: order.DepositAmount,
	}
	if token, ok := catalog.FindToken(a.catalog.Cached(req.FromChain), req.FromToken); ok {
		transfer.TokenContract = token.ContractAddress
	}

	fmt.Fprint(term.out, color.YellowString("\nInitiating auto-deposit...\n"))
	fmt.Fprintf(term.out, "  Chain:   %s\n", req.FromChain)
	fmt.Fprintf(term.out, "  Amount:  %s %s\n", transfer.Amount, req.FromToken)
	fmt.Fprintf(term.out, "  To:      %s\n", transfer.To)

	if !skipConfirm {
		if !term.confirm("Proceed with auto-deposit?") {
			return fmt.Errorf("auto-deposit cancelled by user")
		}
	}

	log.Info("Sending deposit from hot wallet...")
	txid, err := depositMgr.SendDeposit(ctx, req.FromChain, transfer)
	if err != nil {
		return err
	}
	log.Success("Deposit sent: " + txid)

	if notifier, ok := a.exchange.(depositNotifier); ok {
		if err := notifier.SubmitDepositTx(ctx, order.DepositAddress, txid); err != nil {
			a.logger.Warn("Failed to notify exchange of deposit", zap.String("txid", txid), zap.Error(err))
		}
	}

	if verbose {
		fmt.Fprintf(term.out, "\nDeposit transaction details:\n")
		fmt.Fprintf(term.out, "  Chain:      %s\n", req.FromChain)
		fmt.Fprintf(term.out, "  Amount:     %s %s\n", transfer.Amount, req.FromToken)
		fmt.Fprintf(term.out, "  To:         %s\n", transfer.To)
		fmt.Fprintf(term.out, "  Tx Hash:    %s\n", txid)
	}

	return nil
}

func displaySwapSummary(req *types.SwapRequest) {
	banner("SWAP REQUEST", 60)

	fmt.Printf("\n  From:              %s %s on %s\n", req.Amount, color.YellowString(req.FromToken), orUnset(req.FromChain))
	fmt.Printf("  To:                %s on %s\n", color.YellowString(req.ToToken), orUnset(req.ToChain))
	fmt.Printf("  Recipient:         %s\n", orUnset(req.ReceiverAddress))
	if req.RefundAddress != "" {
		fmt.Printf("  Refund To:         %s\n", req.RefundAddress)
	}

	rule(60)
}

func displayDepositInstructions(order *types.SwapOrder) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Yellow("                 DEPOSIT INSTRUCTIONS")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  Order ID:          %s\n", order.OrderID)
	fmt.Printf("  You Receive:       ~%s %s\n", order.ExpectedReceiveAmount, color.YellowString(order.ReceiveCurrency))
	fmt.Printf("\nTo complete the swap, send %s %s to:\n\n", order.DepositAmount, order.DepositCurrency)
	color.Cyan("  %s\n", order.DepositAddress)

	if order.DepositMemo != "" {
		fmt.Printf("\nMemo (REQUIRED): %s\n", color.MagentaString(order.DepositMemo))
	}

	rule(60)
}

func orUnset(s string) string {
	if s == "" {
		return color.RedString("(not set)")
	}
	return s
}

// console is where interactive prompts are read from and written to
type console struct {
	in  io.Reader
	out io.Writer
}

// newConsole keeps human output off stdout when stdout carries JSON
func newConsole(jsonOutput bool) console {
	if jsonOutput {
		return console{in: os.Stdin, out: os.Stderr}
	}
	return console{in: os.Stdin, out: os.Stdout}
}

func confirm(prompt string) bool {
	return console{in: os.Stdin, out: os.Stdout}.confirm(prompt)
}

func (c console) confirm(prompt string) bool {
	reader := bufio.NewReader(c.in)
	fmt.Fprintf(c.out, "\n%s (y/N): ", prompt)

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

func printJSON(v any) {
	jsonData, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(jsonData))
}
