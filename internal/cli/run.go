package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/scout"
	"github.com/aretw0/scout/internal/presentation/tui"
	"github.com/aretw0/scout/pkg/domain"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	GlobalOptions
	// Sites to scout; empty scouts every configured site.
	Sites []string
	// Request replaces the default opening question. Requires exactly one site.
	Request string
	JSON    bool
	Quiet   bool
}

// Execute handles the 'run' command: build the engine, scout, report.
func Execute(ctx context.Context, opts RunOptions, out io.Writer) error {
	logger, err := CreateLogger(opts.GlobalOptions)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(opts.GlobalOptions)
	if err != nil {
		return err
	}
	asm, err := createEngine(ctx, cfg, BuildOptions{Logger: logger})
	if err != nil {
		return err
	}
	defer func() {
		if err := asm.Close(); err != nil {
			logger.Warn("failed to close backends", "err", err)
		}
	}()
	return runSites(ctx, asm.Engine, opts, out)
}

func runSites(ctx context.Context, eng *scout.Engine, opts RunOptions, out io.Writer) error {
	if opts.Request != "" && len(opts.Sites) != 1 {
		return fmt.Errorf("--request needs exactly one site, got %d", len(opts.Sites))
	}

	if !opts.JSON && !opts.Quiet {
		tui.PrintBanner(out)
		targets := opts.Sites
		if len(targets) == 0 {
			targets = eng.Sites()
		}
		printSystemMessage(out, "Scouting %s...", strings.Join(targets, ", "))
	}

	var results []scout.Result
	if opts.Request != "" {
		st, err := eng.RunRequest(ctx, opts.Sites[0], opts.Request)
		results = []scout.Result{{Site: opts.Sites[0], State: st, Err: err}}
	} else {
		results = eng.RunAll(ctx, opts.Sites...)
	}

	summaries := make([]domain.RunSummary, len(results))
	for i, r := range results {
		summaries[i] = r.Summary()
	}

	if opts.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summaries); err != nil {
			return err
		}
	} else {
		render := newRenderer(out)
		for _, sum := range summaries {
			rendered, err := render(tui.SummaryMarkdown(sum))
			if err != nil {
				return err
			}
			fmt.Fprint(out, rendered)
		}
	}

	if failed := scout.Failed(results); len(failed) > 0 {
		return fmt.Errorf("%d of %d runs failed", len(failed), len(results))
	}
	return nil
}
