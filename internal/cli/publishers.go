package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/rewards/internal/model"
)

// NewPublishersCommand creates the publishers command group.
func NewPublishersCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "publishers",
		Aliases: []string{"pub"},
		Short:   "List and exclude publishers",
	}
	cmd.AddCommand(newPublishersListCommand(rootOpts))
	cmd.AddCommand(newPublishersExcludeCommand(rootOpts, "exclude", "Exclude a publisher from auto-contribution", model.ExcludeExcluded))
	cmd.AddCommand(newPublishersExcludeCommand(rootOpts, "include", "Always include a publisher in auto-contribution", model.ExcludeIncluded))
	cmd.AddCommand(newPublishersRestoreCommand(rootOpts))
	return cmd
}

// PublisherPage is one page of publisher records.
type PublisherPage struct {
	Publishers []model.PublisherInfo `json:"publishers"`
	Next       uint32                `json:"next,omitempty"`
}

var excludeFilters = map[string]model.ExcludeFilter{
	"all":          model.FilterAll,
	"default":      model.FilterDefault,
	"excluded":     model.FilterExcluded,
	"included":     model.FilterIncluded,
	"not-excluded": model.FilterAllExceptExcluded,
}

func newPublishersListCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		start, limit uint32
		exclusion    string
		verified     bool
		minDuration  uint64
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Page through stored publisher records",
		Long: `Page through the publisher records in the data directory.

When more records remain, the output carries the start value of the next
page.

Example:
  rewards publishers list --limit 20
  rewards publishers list --exclusion excluded
  rewards publishers list --verified --min-duration 60`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, ok := excludeFilters[exclusion]
			if !ok {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid exclusion %q: must be one of all, default, excluded, included, not-excluded", exclusion))
			}
			query := model.PublisherFilter{
				Excluded:     filter,
				MinDuration:  minDuration,
				VerifiedOnly: verified,
			}

			out := formatter(rootOpts, cmd)
			return withRuntime(cmd, rootOpts, func(ctx context.Context, rt *runtime) error {
				if _, err := rt.initialize(ctx); err != nil {
					return err
				}
				pages := make(chan PublisherPage, 1)
				err := rt.call(ctx, "publisher_list", func() {
					rt.engine.GetPublisherInfoList(start, limit, query, func(list []model.PublisherInfo, next uint32) {
						if list == nil {
							list = []model.PublisherInfo{}
						}
						pages <- PublisherPage{Publishers: list, Next: next}
					})
				})
				if err != nil {
					return err
				}
				select {
				case page := <-pages:
					return out.Success(page)
				case <-ctx.Done():
					return WrapExitError(ExitCommandError, "timed out listing publishers", ctx.Err())
				}
			})
		},
	}
	cmd.Flags().Uint32Var(&start, "start", 0, "offset of the first record")
	cmd.Flags().Uint32Var(&limit, "limit", 50, "records per page (0 for all)")
	cmd.Flags().StringVar(&exclusion, "exclusion", "all", "all|default|excluded|included|not-excluded")
	cmd.Flags().BoolVar(&verified, "verified", false, "only verified publishers")
	cmd.Flags().Uint64Var(&minDuration, "min-duration", 0, "minimum seconds of attention")
	return cmd
}

func newPublishersExcludeCommand(rootOpts *RootOptions, use, short string, exclude model.ExcludeState) *cobra.Command {
	return &cobra.Command{
		Use:           use + " <publisher>",
		Short:         short,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := formatter(rootOpts, cmd)
			publisherID := args[0]
			return withRuntime(cmd, rootOpts, func(ctx context.Context, rt *runtime) error {
				if err := rt.requireWallet(ctx); err != nil {
					return err
				}
				var info model.PublisherInfo
				err := rt.call(ctx, "publisher_"+use, func() {
					rt.engine.SetPublisherExclude(publisherID, exclude)
					info, _ = rt.engine.Tracker().Publisher(publisherID)
				})
				if err != nil {
					return err
				}
				return out.Success(info)
			})
		},
	}
}

func newPublishersRestoreCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "restore",
		Short:         "Return every excluded publisher to the default state",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := formatter(rootOpts, cmd)
			return withRuntime(cmd, rootOpts, func(ctx context.Context, rt *runtime) error {
				if err := rt.requireWallet(ctx); err != nil {
					return err
				}
				var before, after uint32
				err := rt.call(ctx, "restore_publishers", func() {
					before = rt.engine.NumExcludedSites()
					rt.engine.RestorePublishers()
					after = rt.engine.NumExcludedSites()
				})
				if err != nil {
					return err
				}
				return out.Success(fmt.Sprintf("restored %d publishers", before-after))
			})
		},
	}
}
