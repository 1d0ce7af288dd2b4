// mbridge is the command-line front end for the dispatch bridge: every
// bridge operation is a subcommand, results print as one JSON object per
// call, and --db selects the engine database.
package main

import (
	"fmt"
	"os"

	"github.com/mbridge/mbridge/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
