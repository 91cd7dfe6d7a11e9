package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/rewards/internal/model"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Create bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the ledger engine until interrupted",
		Long: `Run the rewards ledger engine in the foreground.

The engine loads the wallet from the data directory, resumes pending
contributions, and keeps the publisher list, grants and the monthly
auto-contribution on schedule until it receives SIGINT or SIGTERM.

Example:
  rewards run --data-dir ./rewards-data
  rewards run --create --verbose`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngine(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Create, "create", false, "create a wallet if none exists")

	return cmd
}

func runEngine(opts *RunOptions, cmd *cobra.Command) error {
	rt, err := openRuntime(opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer rt.close()

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			rt.log.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	rt.log.Info("engine starting", "data_dir", rt.cfg.DataDir, "environment", rt.cfg.Environment)
	err = rt.session(ctx, func(ctx context.Context) error {
		if err := startEngine(ctx, rt, opts.Create, opts.Timeout); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Engine started. Press Ctrl-C to stop.")
		<-ctx.Done()
		return nil
	})
	if err != nil {
		return err
	}

	rt.log.Info("engine stopped gracefully")
	return nil
}

// startEngine initializes the engine, creating a wallet first when asked
// and none exists.
func startEngine(ctx context.Context, rt *runtime, create bool, timeout time.Duration) error {
	initCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := rt.initialize(initCtx)
	if err != nil {
		return err
	}
	switch {
	case result.OK():
		return nil
	case result == model.ResultNotFound && create:
		return createWallet(initCtx, rt)
	case result == model.ResultNotFound:
		rt.log.Warn("no wallet yet, start with --create or run 'rewards wallet create'")
		return nil
	default:
		return resultError("failed to load wallet", result)
	}
}
