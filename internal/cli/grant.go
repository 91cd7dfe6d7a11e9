package cli

import (
	"context"
	"encoding/base64"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/rewards/internal/model"
)

// NewGrantCommand creates the grant command group.
func NewGrantCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grant",
		Short: "Check for, and claim, promotional grants",
	}
	cmd.AddCommand(newGrantFetchCommand(rootOpts))
	cmd.AddCommand(newGrantCaptchaCommand(rootOpts))
	cmd.AddCommand(newGrantSolveCommand(rootOpts))
	return cmd
}

func newGrantFetchCommand(rootOpts *RootOptions) *cobra.Command {
	var lang string
	cmd := &cobra.Command{
		Use:           "fetch",
		Short:         "Ask the server for an available promotion",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := formatter(rootOpts, cmd)
			return withRuntime(cmd, rootOpts, func(ctx context.Context, rt *runtime) error {
				if err := rt.requireWallet(ctx); err != nil {
					return err
				}
				if err := rt.call(ctx, "fetch_grant", func() { rt.engine.FetchGrant(lang, "") }); err != nil {
					return err
				}
				n, err := rt.await(ctx, eventGrant)
				if err != nil {
					return err
				}
				switch n.Result {
				case model.ResultOK:
					return out.Success(n.Grant)
				case model.ResultNotFound:
					return out.Success("no grant available")
				default:
					return resultError("grant check failed", n.Result)
				}
			})
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "", "promotion language, e.g. en")
	return cmd
}

// CaptchaResult is printed by grant captcha.
type CaptchaResult struct {
	Hint  string `json:"hint"`
	Image string `json:"image,omitempty"`
	Saved string `json:"saved,omitempty"`
}

func newGrantCaptchaCommand(rootOpts *RootOptions) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "captcha",
		Short: "Fetch the captcha guarding the current promotion",
		Long: `Fetch the captcha guarding the current promotion.

With --out the image is written to a file; otherwise it is printed
base64-encoded. Solve it with 'rewards grant solve'.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := formatter(rootOpts, cmd)
			return withRuntime(cmd, rootOpts, func(ctx context.Context, rt *runtime) error {
				if err := rt.requireWallet(ctx); err != nil {
					return err
				}
				if err := rt.call(ctx, "grant_captcha", rt.engine.GetGrantCaptcha); err != nil {
					return err
				}
				n, err := rt.await(ctx, eventGrantCaptcha)
				if err != nil {
					return err
				}
				if n.Image == "" {
					return NewExitError(ExitFailure, "no captcha available, run 'rewards grant fetch' first")
				}
				res := CaptchaResult{Hint: n.Hint}
				if outPath != "" {
					if err := os.WriteFile(outPath, []byte(n.Image), 0o644); err != nil {
						return WrapExitError(ExitCommandError, "failed to write captcha", err)
					}
					res.Saved = outPath
				} else {
					res.Image = base64.StdEncoding.EncodeToString([]byte(n.Image))
				}
				return out.Success(res)
			})
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write the captcha image to this file")
	return cmd
}

func newGrantSolveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "solve <solution>",
		Short: "Claim the current promotion with a captcha solution",
		Long: `Claim the current promotion.

The solution is the JSON the captcha expects, for example:
  rewards grant solve '{"x":120,"y":45}'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := formatter(rootOpts, cmd)
			solution := args[0]
			return withRuntime(cmd, rootOpts, func(ctx context.Context, rt *runtime) error {
				if err := rt.requireWallet(ctx); err != nil {
					return err
				}
				if err := rt.call(ctx, "solve_grant_captcha", func() { rt.engine.SolveGrantCaptcha(solution) }); err != nil {
					return err
				}
				n, err := rt.await(ctx, eventGrantFinish)
				if err != nil {
					return err
				}
				if !n.Result.OK() {
					return resultError("grant claim failed", n.Result)
				}
				return out.Success(n.Grant)
			})
		},
	}
}
