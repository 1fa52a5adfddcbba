// Command sparqlmd embeds live SPARQL query results into markdown
// documents.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/sparqlmd/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
