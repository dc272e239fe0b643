package cli

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/scrapekit/internal/changelog"
	"github.com/roach88/scrapekit/internal/config"
	"github.com/roach88/scrapekit/internal/index"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Format string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history <source>",
		Short: "Print the change log of a source",
		Long: `Print every accepted write recorded in a source's change log.

When the fingerprint index is configured, the latest indexed write is
printed as well.

Example:
  scrapekit history alimentos
  scrapekit history recetas --format json`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: SourceNames(),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	return cmd
}

// History is the printed change history of one source.
type History struct {
	Source  string            `json:"source"`
	Entries []changelog.Entry `json:"entries"`
	Latest  *LatestWrite      `json:"latest,omitempty"`
}

// LatestWrite is the most recent write recorded in the index.
type LatestWrite struct {
	RunID       string    `json:"run_id"`
	Fingerprint string    `json:"fingerprint"`
	Records     int       `json:"records"`
	WrittenAt   time.Time `json:"written_at"`
}

func (h History) String() string {
	var b strings.Builder
	if len(h.Entries) == 0 {
		fmt.Fprintf(&b, "no changes recorded for %s\n", h.Source)
	}
	for _, e := range h.Entries {
		fmt.Fprintf(&b, "%s  %s  %s\n", e.Timestamp, e.Action, e.File)
	}
	if h.Latest != nil {
		fmt.Fprintf(&b, "latest: fingerprint=%s records=%d run=%s\n",
			h.Latest.Fingerprint, h.Latest.Records, h.Latest.RunID)
	}
	return b.String()
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions, name string) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	if _, ok := sourceCommands[name]; !ok {
		msg := fmt.Sprintf("unknown source %q: must be one of %v", name, SourceNames())
		if opts.Format == "json" {
			_ = formatter.Error("unknown_source", msg)
		}
		return NewExitError(ExitFailure, msg)
	}

	cfg, _, err := config.Resolve(opts.workDir())
	if err != nil {
		return WrapExitError(ExitFailure, "failed to load config", err)
	}

	h := History{
		Source:  name,
		Entries: changelog.New(cfg.LogPath(name)).Read(),
	}

	if cfg.Index.Path != "" {
		latest, err := latestWrite(cmd.Context(), cfg.Index.Path, name)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to read index", err)
		}
		h.Latest = latest
	}

	return formatter.Success(h)
}

// latestWrite returns nil when the index does not exist yet or holds no
// write for source.
func latestWrite(ctx context.Context, path, source string) (*LatestWrite, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	idx, err := index.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := idx.Close(); closeErr != nil {
			slog.Error("error closing index", "error", closeErr)
		}
	}()

	w, ok, err := idx.Latest(ctx, source)
	if err != nil || !ok {
		return nil, err
	}
	return &LatestWrite{
		RunID:       w.RunID,
		Fingerprint: w.Fingerprint,
		Records:     w.Records,
		WrittenAt:   w.WrittenAt,
	}, nil
}
