package pipeline

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/snare/internal/casefile"
)

// ClassifyBatch opens and classifies one case file per message
// concurrently. Results keep the input order; a message whose
// classification failed yields a terminated case file.
func (o *Orchestrator) ClassifyBatch(ctx context.Context, messages []string) ([]*casefile.CaseFile, error) {
	out := make([]*casefile.CaseFile, len(messages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerCount(len(messages)))

	for i, m := range messages {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			cf := casefile.New(m, o.now())
			if _, err := o.Classify(gctx, cf); err != nil {
				return err
			}

			out[i] = cf
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	o.logger.InfoContext(ctx, "batch classified", "count", len(messages))
	return out, nil
}

func workerCount(n int) int {
	return max(min(runtime.NumCPU(), n), 1)
}
