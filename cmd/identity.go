package cmd

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"anonswap/pkg/identity"
)

var forceIdentity bool

var identityCmd = &cobra.Command{
	Use:   "identity",
	Short: "Manage the identity that swaps are attested with",
}

var identityInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create and store a new identity secret",
	Args:  cobra.NoArgs,
	Run:   runIdentityInit,
}

var identityShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the public commitment of your identity",
	Args:  cobra.NoArgs,
	Run:   runIdentityShow,
}

func init() {
	rootCmd.AddCommand(identityCmd)
	identityCmd.AddCommand(identityInitCmd)
	identityCmd.AddCommand(identityShowCmd)

	identityInitCmd.Flags().BoolVar(&forceIdentity, "force", false, "Replace an existing identity")
}

func runIdentityInit(cmd *cobra.Command, args []string) {
	ctx := cmd.Context()
	a := mustApp(cmd)
	defer a.Close()

	existing, err := identity.LoadSecret(ctx, a.store)
	if err != nil && !errors.Is(err, identity.ErrNoSecret) {
		printError(err)
		return
	}
	if existing != "" && !forceIdentity {
		printError(fmt.Errorf("an identity already exists; use --force to replace it (journaled swaps will no longer reconcile)"))
		return
	}

	secret, err := identity.NewSecret()
	if err != nil {
		printError(err)
		return
	}
	if err := identity.SaveSecret(ctx, a.store, secret); err != nil {
		printError(err)
		return
	}

	commitment, err := a.attester.Commitment(secret)
	if err != nil {
		printError(err)
		return
	}

	printSuccess(color.GreenString("✓ Identity created"))
	fmt.Printf("  Commitment: %s\n\n", color.CyanString(commitment))
}

func runIdentityShow(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	ctx := cmd.Context()
	a := mustApp(cmd)
	defer a.Close()

	secret, err := a.secret(ctx)
	if err != nil {
		printError(err)
		return
	}
	if secret == "" {
		printError(fmt.Errorf("no identity yet; run 'anonswap identity init'"))
		return
	}

	commitment, err := a.attester.Commitment(secret)
	if err != nil {
		printError(err)
		return
	}

	if jsonOutput {
		printJSON(map[string]string{"commitment": commitment})
		return
	}
	fmt.Printf("\n  Commitment: %s\n\n", color.CyanString(commitment))
}
