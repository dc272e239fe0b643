package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/scrapekit/internal/changelog"
	"github.com/roach88/scrapekit/internal/changestore"
	"github.com/roach88/scrapekit/internal/collector"
	"github.com/roach88/scrapekit/internal/config"
	"github.com/roach88/scrapekit/internal/driver"
	"github.com/roach88/scrapekit/internal/index"
	"github.com/roach88/scrapekit/internal/schema"
)

type sourceCommand struct {
	short string
	long  string
	build func(collector.Deps) collector.Collector
}

var sourceCommands = map[string]sourceCommand{
	config.SourceFood: {
		short: "Collect the most scanned foods sold in Spain from Open Food Facts",
		long: `Collect foods from Open Food Facts, most scanned first.

Ingredient and allergen lists are translated to the configured language.
Entering 0 collects nothing.`,
		build: func(d collector.Deps) collector.Collector { return collector.NewFood(d) },
	},
	config.SourceExercise: {
		short: "Collect exercises from free-exercise-db",
		long: `Collect exercises from the free-exercise-db catalog.

The catalog is downloaded before prompting, and counts larger than the
catalog are reduced to its size.`,
		build: func(d collector.Deps) collector.Collector { return collector.NewExercise(d) },
	},
	config.SourceRecipe: {
		short: "Collect recipes from recetasgratis.net",
		long: `Collect recipes linked from the recetasgratis.net home page.

Recipes are stored in Spanish as published.`,
		build: func(d collector.Deps) collector.Collector { return collector.NewRecipe(d) },
	},
}

// SourceNames lists the collection commands in display order.
func SourceNames() []string {
	return []string{config.SourceFood, config.SourceExercise, config.SourceRecipe}
}

// NewCollectCommand creates the collection command for the named source.
func NewCollectCommand(opts *RootOptions, name string) *cobra.Command {
	sc := sourceCommands[name]
	return &cobra.Command{
		Use:   name,
		Short: sc.short,
		Long:  sc.long,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollect(cmd, opts, name)
		},
	}
}

func runCollect(cmd *cobra.Command, opts *RootOptions, name string) error {
	cfg, cfgPath, err := config.Resolve(opts.workDir())
	if err != nil {
		return WrapExitError(ExitFailure, "failed to load config", err)
	}

	runID := opts.runIDs().Generate()
	handler := slog.NewTextHandler(opts.logOutput(), &slog.HandlerOptions{Level: cfg.Level()})
	slog.SetDefault(slog.New(handler).With("run_id", runID, "source", name))
	if cfgPath != "" {
		slog.Debug("config loaded", "path", cfgPath)
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	deps, err := collectorDeps(cfg, opts, name)
	if err != nil {
		return err
	}
	deps.Progress = cmd.OutOrStdout()

	storeOpts := []changestore.Option{}
	if cfg.Index.Path != "" {
		idx, err := openIndex(cfg.Index.Path)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to open index", err)
		}
		defer func() {
			if closeErr := idx.Close(); closeErr != nil {
				slog.Error("error closing index", "error", closeErr)
			}
		}()
		idx.SetClock(opts.clock())
		storeOpts = append(storeOpts, changestore.WithIndexer(idx.Recorder(name, runID)))
	}

	log := changelog.New(cfg.LogPath(name), changelog.WithClock(opts.clock()))
	store := changestore.New(cfg.ArtifactPath(name), log, storeOpts...)
	d := driver.New(sourceCommands[name].build(deps), store, cmd.InOrStdin(), cmd.OutOrStdout())

	outcome, err := d.Run(ctx)
	if errors.Is(err, driver.ErrNoInput) {
		return WrapExitError(ExitFailure, "no count entered", err)
	}
	if err != nil {
		return WrapExitError(ExitFailure, "collection failed", err)
	}

	res := d.Result()
	slog.Info("run finished",
		"outcome", outcome,
		"records", res.Records,
		"fingerprint", res.Fingerprint,
	)
	if res.LogErr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: change log not updated: %v\n", res.LogErr)
	}
	return nil
}

func collectorDeps(cfg config.Config, opts *RootOptions, name string) (collector.Deps, error) {
	src := cfg.Source(name)
	client := collector.NewClient(opts.HTTPClient, collector.ClientOptions{
		UserAgent:      cfg.UserAgent,
		AcceptLanguage: src.AcceptLanguage,
		Timeout:        cfg.HTTP.Timeout,
		Attempts:       cfg.HTTP.Retry.Attempts,
		Delay:          cfg.HTTP.Retry.Delay,
	})

	var translator collector.Translator = collector.Identity{}
	if cfg.Translate.Enabled {
		target, err := cfg.TargetLanguage()
		if err != nil {
			return collector.Deps{}, WrapExitError(ExitFailure, "invalid translation target", err)
		}
		translator = collector.NewHTTPTranslator(client.WithAcceptLanguage(""), cfg.Translate.Endpoint, target)
	}

	validator, err := schema.New()
	if err != nil {
		return collector.Deps{}, WrapExitError(ExitFailure, "failed to load record schemas", err)
	}

	return collector.Deps{
		Client:     client,
		Translator: translator,
		Validator:  validator,
		URL:        src.URL,
		Pace:       src.Pace,
	}, nil
}

func openIndex(path string) (*index.Index, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}
	return index.Open(path)
}

// signalContext derives a context cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}
