// Command scrapekit collects food, exercise and recipe records into
// change-tracked JSON files.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/scrapekit/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
