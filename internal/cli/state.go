package cli

import (
	"context"
	"slices"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/roach88/rewards/internal/engine"
	"github.com/roach88/rewards/internal/model"
	"github.com/roach88/rewards/internal/state"
)

// NewStateCommand creates the state command group.
func NewStateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect and change the persisted ledger",
	}
	cmd.AddCommand(newStateShowCommand(rootOpts))
	cmd.AddCommand(newStateSetCommand(rootOpts))
	return cmd
}

// StateView is the ledger as printed by state show.
type StateView struct {
	Lifecycle     engine.Lifecycle               `json:"lifecycle"`
	WalletCreated bool                           `json:"wallet_created"`
	PaymentID     string                         `json:"payment_id,omitempty"`
	Balance       decimal.Decimal                `json:"balance"`
	Addresses     map[string]string              `json:"addresses,omitempty"`
	Settings      state.Settings                 `json:"settings"`
	Grants        []model.Grant                  `json:"grants"`
	Reconciles    []ReconcileView                `json:"reconciles"`
	Excluded      uint32                         `json:"excluded_sites"`
	Reports       map[string]model.BalanceReport `json:"balance_reports,omitempty"`
}

// ReconcileView summarizes one pending contribution.
type ReconcileView struct {
	ViewingID  string          `json:"viewing_id"`
	Category   model.Category  `json:"category"`
	Amount     decimal.Decimal `json:"amount"`
	Step       state.Step      `json:"step"`
	RetryLevel int             `json:"retry_level"`
}

func newStateShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show",
		Short:         "Print the wallet, settings and pending contributions",
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
				if !result.OK() && result != model.ResultNotFound {
					return resultError("failed to load state", result)
				}
				var view StateView
				if err := rt.call(ctx, "state_show", func() { view = stateView(rt.engine) }); err != nil {
					return err
				}
				return out.Success(view)
			})
		},
	}
}

func stateView(e *engine.Engine) StateView {
	ledger := e.Ledger()
	view := StateView{
		Lifecycle:     e.Lifecycle(),
		WalletCreated: e.IsWalletCreated(),
		PaymentID:     ledger.PaymentID(),
		Balance:       e.Balance(),
		Settings:      ledger.Settings(),
		Grants:        ledger.Grants(),
		Reconciles:    []ReconcileView{},
		Excluded:      e.NumExcludedSites(),
		Reports:       e.AllBalanceReports(),
	}
	if view.WalletCreated {
		view.Addresses = e.Addresses()
	}
	if view.Grants == nil {
		view.Grants = []model.Grant{}
	}
	for _, rec := range ledger.Reconciles() {
		view.Reconciles = append(view.Reconciles, ReconcileView{
			ViewingID:  rec.ViewingID,
			Category:   rec.Category,
			Amount:     rec.Amount,
			Step:       rec.Step,
			RetryLevel: rec.RetryLevel,
		})
	}
	return view
}

// SetOptions holds flags for state set. Only flags given on the command
// line are applied.
type SetOptions struct {
	RewardsEnabled   bool
	AutoContribute   bool
	Amount           string
	MinVisitTime     uint64
	MinVisits        uint32
	AllowNonVerified bool
	AllowVideos      bool
}

var settingFlags = []string{
	"rewards-enabled", "auto-contribute", "amount", "min-visit-time",
	"min-visits", "allow-non-verified", "allow-videos",
}

func newStateSetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SetOptions{}
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change ledger settings",
		Long: `Change ledger settings. Only the flags given are changed.

Example:
  rewards state set --auto-contribute --amount 20
  rewards state set --min-visit-time 15 --allow-videos=false`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !slices.ContainsFunc(settingFlags, flags.Changed) {
				return NewExitError(ExitCommandError, "no settings given")
			}
			var amount decimal.Decimal
			if flags.Changed("amount") {
				var err error
				amount, err = decimal.NewFromString(opts.Amount)
				if err != nil || !amount.IsPositive() {
					return NewExitError(ExitCommandError, "invalid amount "+opts.Amount)
				}
			}

			out := formatter(rootOpts, cmd)
			return withRuntime(cmd, rootOpts, func(ctx context.Context, rt *runtime) error {
				if err := rt.requireWallet(ctx); err != nil {
					return err
				}
				var settings state.Settings
				err := rt.call(ctx, "state_set", func() {
					e := rt.engine
					if flags.Changed("rewards-enabled") {
						e.SetRewardsMainEnabled(opts.RewardsEnabled)
					}
					if flags.Changed("auto-contribute") {
						e.SetAutoContribute(opts.AutoContribute)
					}
					if flags.Changed("amount") {
						e.SetContributionAmount(amount)
						e.SetUserChangedContribution()
					}
					if flags.Changed("min-visit-time") {
						e.SetPublisherMinVisitTime(opts.MinVisitTime)
					}
					if flags.Changed("min-visits") {
						e.SetPublisherMinVisits(opts.MinVisits)
					}
					if flags.Changed("allow-non-verified") {
						e.SetPublisherAllowNonVerified(opts.AllowNonVerified)
					}
					if flags.Changed("allow-videos") {
						e.SetPublisherAllowVideos(opts.AllowVideos)
					}
					settings = e.Ledger().Settings()
				})
				if err != nil {
					return err
				}
				return out.Success(settings)
			})
		},
	}

	cmd.Flags().BoolVar(&opts.RewardsEnabled, "rewards-enabled", true, "enable rewards")
	cmd.Flags().BoolVar(&opts.AutoContribute, "auto-contribute", true, "enable the monthly auto-contribution")
	cmd.Flags().StringVar(&opts.Amount, "amount", "", "monthly auto-contribution budget")
	cmd.Flags().Uint64Var(&opts.MinVisitTime, "min-visit-time", 8, "seconds of attention before a publisher counts")
	cmd.Flags().Uint32Var(&opts.MinVisits, "min-visits", 1, "visits before a publisher counts")
	cmd.Flags().BoolVar(&opts.AllowNonVerified, "allow-non-verified", true, "include unverified publishers")
	cmd.Flags().BoolVar(&opts.AllowVideos, "allow-videos", true, "include video publishers")
	return cmd
}
