package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/aretw0/scout/internal/logging"
	presentation "github.com/aretw0/scout/internal/presentation/graph"
	"github.com/aretw0/scout/internal/presentation/tui"
	"github.com/aretw0/scout/pkg/domain"
)

// GraphOptions configures the graph command.
type GraphOptions struct {
	GlobalOptions
	// RunID highlights the path a stored run took.
	RunID string
	JSON  bool
}

// PrintGraph writes the workflow as Mermaid, or as JSON wiring.
func PrintGraph(ctx context.Context, opts GraphOptions, out io.Writer) error {
	cfg, err := loadConfig(opts.GlobalOptions)
	if err != nil {
		return err
	}
	asm, err := createEngine(ctx, cfg, BuildOptions{Logger: logging.NewNop(), Offline: true})
	if err != nil {
		return err
	}
	defer asm.Close()

	desc := asm.Engine.Graph().Describe()
	if opts.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(desc)
	}

	var overlay *presentation.GraphOverlay
	if opts.RunID != "" {
		st, err := asm.Engine.Store().Load(ctx, opts.RunID)
		if err != nil {
			return fmt.Errorf("error loading run %s: %w", opts.RunID, err)
		}
		overlay = presentation.OverlayFromState(*st)
	}
	_, err = fmt.Fprint(out, presentation.GenerateMermaid(desc, overlay))
	return err
}

// SitesOptions configures the sites command.
type SitesOptions struct {
	GlobalOptions
	JSON bool
}

// ListSites prints the configured registry.
func ListSites(opts SitesOptions, out io.Writer) error {
	cfg, err := loadConfig(opts.GlobalOptions)
	if err != nil {
		return err
	}
	sites := domain.SiteRegistry(cfg.Sites)
	if opts.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(sites)
	}
	rendered, err := newRenderer(out)(tui.SitesMarkdown(sites))
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(out, rendered)
	return err
}
