// Command rewards runs the rewards ledger engine against a local data
// directory.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/rewards/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
