package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/rewards/internal/scenario"
)

// ScenarioOptions holds flags for the scenario command.
type ScenarioOptions struct {
	*RootOptions
}

// ScenarioResult is the outcome of one scenario file.
type ScenarioResult struct {
	Path   string          `json:"path"`
	Name   string          `json:"name"`
	Passed bool            `json:"passed"`
	Errors []string        `json:"errors,omitempty"`
	Report scenario.Report `json:"report"`
}

// NewScenarioCommand creates the scenario command.
func NewScenarioCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScenarioOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "scenario <file-or-dir>...",
		Short: "Replay browsing scenarios against an in-memory engine",
		Long: `Replay scripted browsing sessions and check the attention ledger.

Each YAML scenario loads pages, moves focus between tabs and advances a
fake clock, then asserts on the resulting publisher table. Directories are
searched for *.yaml files. Nothing in the data directory is touched.

Example:
  rewards scenario internal/scenario/testdata/scenarios
  rewards scenario my_session.yaml --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios(opts, cmd, args)
		},
	}

	return cmd
}

func runScenarios(opts *ScenarioOptions, cmd *cobra.Command, args []string) error {
	out := formatter(opts.RootOptions, cmd)

	paths, err := scenarioPaths(args)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}
	if len(paths) == 0 {
		return NewExitError(ExitCommandError, "no scenario files found")
	}

	log := newLogger(cmd.ErrOrStderr(), "warn", opts.Verbose)
	results := make([]ScenarioResult, 0, len(paths))
	failed := 0
	for _, path := range paths {
		out.VerboseLog("Running %s", path)
		s, err := scenario.Load(path)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load "+path, err)
		}
		res, err := scenario.RunWithLogger(s, log)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to run "+s.Name, err)
		}
		r := ScenarioResult{Path: path, Name: s.Name, Passed: res.Passed(), Report: res.Report}
		for _, e := range res.Errors {
			r.Errors = append(r.Errors, e.Error())
		}
		if !r.Passed {
			failed++
		}
		results = append(results, r)
	}

	if opts.Format == "json" {
		if err := out.Success(results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			status := "PASS"
			if !r.Passed {
				status = "FAIL"
			}
			fmt.Fprintf(out.Writer, "%s %s (%s)\n", status, r.Name, r.Path)
			for _, e := range r.Errors {
				fmt.Fprintf(out.Writer, "  %s\n", e)
			}
		}
		fmt.Fprintf(out.Writer, "%d passed, %d failed\n", len(results)-failed, failed)
	}

	if failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", failed))
	}
	return nil
}

// scenarioPaths expands directories into their *.yaml files.
func scenarioPaths(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(arg, "*.yaml"))
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	return paths, nil
}
