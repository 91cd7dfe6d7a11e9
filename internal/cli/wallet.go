package cli

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/roach88/rewards/internal/model"
)

// NewWalletCommand creates the wallet command group.
func NewWalletCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Create, inspect and recover the wallet",
	}
	cmd.AddCommand(newWalletCreateCommand(rootOpts))
	cmd.AddCommand(newWalletPropertiesCommand(rootOpts))
	cmd.AddCommand(newWalletRecoverCommand(rootOpts))
	cmd.AddCommand(newWalletPassphraseCommand(rootOpts))
	return cmd
}

// WalletSummary is printed after create and recover.
type WalletSummary struct {
	Result    model.Result      `json:"result"`
	PaymentID string            `json:"payment_id,omitempty"`
	Addresses map[string]string `json:"addresses,omitempty"`
	Balance   decimal.Decimal   `json:"balance"`
	Grants    []model.Grant     `json:"grants,omitempty"`
}

func newWalletCreateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "create",
		Short:         "Register a new wallet with the ledger server",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := formatter(rootOpts, cmd)
			return withRuntime(cmd, rootOpts, func(ctx context.Context, rt *runtime) error {
				result, err := rt.initialize(ctx)
				if err != nil {
					return err
				}
				switch result {
				case model.ResultNotFound:
				case model.ResultOK:
					return NewExitError(ExitFailure, "wallet already exists")
				default:
					return resultError("failed to load state", result)
				}
				if err := createWallet(ctx, rt); err != nil {
					return err
				}
				summary, err := walletSummary(ctx, rt, model.ResultWalletCreated)
				if err != nil {
					return err
				}
				return out.Success(summary)
			})
		},
	}
}

// createWallet registers a wallet and waits for the outcome.
func createWallet(ctx context.Context, rt *runtime) error {
	var createErr error
	if err := rt.call(ctx, "create_wallet", func() { createErr = rt.engine.CreateWallet() }); err != nil {
		return err
	}
	if createErr != nil {
		return WrapExitError(ExitFailure, "create wallet", createErr)
	}
	n, err := rt.await(ctx, eventWalletInitialized)
	if err != nil {
		return err
	}
	if n.Result != model.ResultWalletCreated {
		return resultError("wallet registration failed", n.Result)
	}
	rt.log.Info("wallet created")
	return nil
}

func walletSummary(ctx context.Context, rt *runtime, result model.Result) (WalletSummary, error) {
	s := WalletSummary{Result: result}
	err := rt.call(ctx, "wallet_summary", func() {
		s.PaymentID = rt.engine.Ledger().PaymentID()
		s.Addresses = rt.engine.Addresses()
		s.Balance = rt.engine.Balance()
	})
	return s, err
}

func newWalletPropertiesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "properties",
		Short:         "Fetch balance, rates and grants from the server",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := formatter(rootOpts, cmd)
			return withRuntime(cmd, rootOpts, func(ctx context.Context, rt *runtime) error {
				if err := rt.requireWallet(ctx); err != nil {
					return err
				}
				if err := rt.call(ctx, "fetch_wallet_properties", rt.engine.FetchWalletProperties); err != nil {
					return err
				}
				n, err := rt.await(ctx, eventWalletProperties)
				if err != nil {
					return err
				}
				if !n.Result.OK() || n.Props == nil {
					return resultError("failed to fetch wallet properties", n.Result)
				}
				return out.Success(n.Props)
			})
		},
	}
}

func newWalletRecoverCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "recover <passphrase>",
		Short: "Replace the wallet with the one behind a recovery passphrase",
		Long: `Recover a wallet from its recovery passphrase.

Quote the passphrase so the shell passes it as one argument:
  rewards wallet recover "word1 word2 ... word16"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := formatter(rootOpts, cmd)
			passphrase := args[0]
			return withRuntime(cmd, rootOpts, func(ctx context.Context, rt *runtime) error {
				if _, err := rt.initialize(ctx); err != nil {
					return err
				}
				if err := rt.call(ctx, "recover_wallet", func() { rt.engine.RecoverWallet(passphrase) }); err != nil {
					return err
				}
				n, err := rt.await(ctx, eventRecoverWallet)
				if err != nil {
					return err
				}
				if !n.Result.OK() {
					return resultError("wallet recovery failed", n.Result)
				}
				summary, err := walletSummary(ctx, rt, n.Result)
				if err != nil {
					return err
				}
				summary.Balance = n.Balance
				summary.Grants = n.Grants
				return out.Success(summary)
			})
		},
	}
}

func newWalletPassphraseCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "passphrase",
		Short:         "Print the wallet's recovery passphrase",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := formatter(rootOpts, cmd)
			return withRuntime(cmd, rootOpts, func(ctx context.Context, rt *runtime) error {
				if err := rt.requireWallet(ctx); err != nil {
					return err
				}
				var passphrase string
				if err := rt.call(ctx, "wallet_passphrase", func() { passphrase = rt.engine.WalletPassphrase() }); err != nil {
					return err
				}
				return out.Success(passphrase)
			})
		},
	}
}
