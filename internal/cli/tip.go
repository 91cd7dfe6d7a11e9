package cli

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/roach88/rewards/internal/model"
)

// TipOptions holds flags for the tip command.
type TipOptions struct {
	*RootOptions
	Currency string
	Monthly  bool
	Remove   bool
}

// TipResult is printed after a one-time tip settles.
type TipResult struct {
	Result    model.Result   `json:"result"`
	ViewingID string         `json:"viewing_id"`
	Category  model.Category `json:"category"`
	Probi     string         `json:"probi,omitempty"`
}

// NewTipCommand creates the tip command.
func NewTipCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TipOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "tip <publisher> [amount]",
		Short: "Tip a publisher once, or pledge a monthly tip",
		Long: `Tip a publisher.

Without flags the tip is sent now and the command waits for the
contribution to settle. --monthly records a recurring pledge paid with
each auto-contribution instead, and --remove cancels one.

A tip that has not settled within --timeout stays pending in the data
directory and resumes on the next 'rewards run'.

Example:
  rewards tip example.com 5
  rewards tip example.com 10 --monthly
  rewards tip example.com --remove`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTip(opts, cmd, args)
		},
	}

	cmd.Flags().StringVar(&opts.Currency, "currency", "", "currency of the tip (default BAT)")
	cmd.Flags().BoolVar(&opts.Monthly, "monthly", false, "pledge the amount every month")
	cmd.Flags().BoolVar(&opts.Remove, "remove", false, "cancel the monthly pledge")
	cmd.MarkFlagsMutuallyExclusive("monthly", "remove")

	return cmd
}

func runTip(opts *TipOptions, cmd *cobra.Command, args []string) error {
	publisherID := args[0]
	var amount decimal.Decimal
	if !opts.Remove {
		if len(args) < 2 {
			return NewExitError(ExitCommandError, "amount is required")
		}
		var err error
		amount, err = decimal.NewFromString(args[1])
		if err != nil || !amount.IsPositive() {
			return NewExitError(ExitCommandError, fmt.Sprintf("invalid amount %q: must be a positive number", args[1]))
		}
	}

	out := formatter(opts.RootOptions, cmd)
	return withRuntime(cmd, opts.RootOptions, func(ctx context.Context, rt *runtime) error {
		if err := rt.requireWallet(ctx); err != nil {
			return err
		}

		switch {
		case opts.Remove:
			removed := make(chan model.Result, 1)
			err := rt.call(ctx, "remove_recurring", func() {
				rt.engine.Tracker().RemoveRecurring(publisherID, func(result model.Result) { removed <- result })
			})
			if err != nil {
				return err
			}
			select {
			case result := <-removed:
				if !result.OK() {
					return resultError("no monthly pledge to "+publisherID, result)
				}
			case <-ctx.Done():
				return WrapExitError(ExitCommandError, "timed out removing pledge", ctx.Err())
			}
			n, err := rt.await(ctx, eventRecurring)
			if err != nil {
				return err
			}
			return out.Success(nonNil(n.Donations))

		case opts.Monthly:
			if err := rt.call(ctx, "add_recurring", func() { rt.engine.AddRecurringPayment(publisherID, amount) }); err != nil {
				return err
			}
			n, err := rt.await(ctx, eventRecurring)
			if err != nil {
				return err
			}
			return out.Success(nonNil(n.Donations))
		}

		var tipErr error
		err := rt.call(ctx, "direct_donation", func() {
			tipErr = rt.engine.DoDirectDonation(model.PublisherInfo{ID: publisherID}, amount, opts.Currency)
		})
		if err != nil {
			return err
		}
		if tipErr != nil {
			return WrapExitError(ExitFailure, "tip", tipErr)
		}
		n, err := rt.await(ctx, eventReconcileComplete)
		if err != nil {
			return err
		}
		res := TipResult{Result: n.Result, ViewingID: n.ViewingID, Category: n.Category, Probi: n.Probi}
		if !n.Result.OK() {
			_ = out.Error(string(n.Result), "tip did not settle", res)
			return resultError("tip did not settle", n.Result)
		}
		return out.Success(res)
	})
}

func nonNil(d []model.RecurringDonation) []model.RecurringDonation {
	if d == nil {
		return []model.RecurringDonation{}
	}
	return d
}
