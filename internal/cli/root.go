package cli

import (
	"io"
	"net/http"
	"os"

	"github.com/juju/clock"
	"github.com/spf13/cobra"

	"github.com/roach88/scrapekit/internal/config"
)

// RootOptions holds collaborators shared by all commands. Zero values select
// the production defaults.
type RootOptions struct {
	// WorkDir is searched for scrapekit.yaml. Empty uses the process
	// working directory.
	WorkDir string

	// HTTPClient is used by every collector. Nil uses a new http.Client.
	HTTPClient *http.Client

	// Clock stamps change log entries and index rows.
	Clock clock.Clock

	// RunIDs names each collection run. Nil uses UUIDv7Generator.
	RunIDs RunIDGenerator

	// LogOutput receives structured logs. Nil uses stderr.
	LogOutput io.Writer
}

func (o *RootOptions) workDir() string {
	if o.WorkDir != "" {
		return o.WorkDir
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

func (o *RootOptions) clock() clock.Clock {
	if o.Clock == nil {
		return clock.WallClock
	}
	return o.Clock
}

func (o *RootOptions) runIDs() RunIDGenerator {
	if o.RunIDs == nil {
		return UUIDv7Generator{}
	}
	return o.RunIDs
}

func (o *RootOptions) logOutput() io.Writer {
	if o.LogOutput == nil {
		return os.Stderr
	}
	return o.LogOutput
}

// NewRootCommand creates the root command for the scrapekit CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrapekit",
		Short: "Collect food, exercise and recipe data into change-tracked JSON files",
		Long: `scrapekit collects records from public sources and saves them as JSON.

Each collection command asks how many items to collect, fetches them and
rewrites the output file only when the content changed. Every accepted
write is appended to the source's change log.

Configuration is read from $` + config.EnvConfigPath + ` or ./` + config.DefaultConfigFile + `.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	for _, name := range SourceNames() {
		cmd.AddCommand(NewCollectCommand(opts, name))
	}
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}
