package scout

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/aretw0/scout/pkg/domain"
)

// Result is the outcome of one site in a batch.
type Result struct {
	Site  string
	State *domain.State
	Err   error
}

// RunAll scouts sites in parallel, bounded by Config.Concurrency. With no sites it
// scouts every configured one. A failing site never cancels or hides the others:
// each Result carries its own error. Results follow the order of sites.
func (e *Engine) RunAll(ctx context.Context, sites ...string) []Result {
	if len(sites) == 0 {
		sites = e.Sites()
	}
	results := make([]Result, len(sites))

	var g errgroup.Group
	if e.cfg.Concurrency > 0 {
		g.SetLimit(e.cfg.Concurrency)
	}
	for i, site := range sites {
		g.Go(func() error {
			state, err := e.Run(ctx, site)
			results[i] = Result{Site: site, State: state, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Failed returns the results that carry an error.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

// Summary reports the result, including runs that failed before starting.
func (r Result) Summary() domain.RunSummary {
	if r.State == nil {
		sum := domain.RunSummary{Site: r.Site, Outcome: domain.OutcomeFailed, Jobs: []domain.Job{}}
		if r.Err != nil {
			sum.Error = r.Err.Error()
		}
		return sum
	}
	return domain.Summarize(*r.State)
}
