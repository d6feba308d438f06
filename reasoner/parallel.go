package reasoner

import (
	"context"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// ClassifyParallel splits the concepts of tbox into chunks and classifies
// each chunk as its own focus concurrently. Chunks may recompute shared
// dependencies; the merged result equals a single full run.
func ClassifyParallel(ctx context.Context, c Classifier, tbox *TBox, workers int) (*Classification, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	n := tbox.Symbols.ConceptCount()
	if workers == 1 || n < 2*workers {
		return c.Classify(ctx, tbox, nil)
	}

	// Saturation only reads the store once it is grown to full size.
	tbox.Axioms.Grow(n)
	tbox.Axioms.GrowRoles(tbox.Symbols.RoleCount())

	chunks := make([][]ConceptID, workers)
	for id := 0; id < n; id++ {
		chunks[id%workers] = append(chunks[id%workers], ConceptID(id))
	}

	results := make([]*Classification, workers)
	g, gctx := errgroup.WithContext(ctx)
	for i := range chunks {
		i := i
		g.Go(func() error {
			cls, err := c.Classify(gctx, tbox, chunks[i])
			results[i] = cls
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := &Classification{Supers: make([][]ConceptID, n)}
	unsat := make(map[ConceptID]struct{})
	for _, r := range results {
		for id, s := range r.Supers {
			if s != nil && merged.Supers[id] == nil {
				merged.Supers[id] = s
			}
		}
		for _, u := range r.Unsatisfiable {
			unsat[u] = struct{}{}
		}
		merged.Inconsistent = merged.Inconsistent || r.Inconsistent
	}
	for u := range unsat {
		merged.Unsatisfiable = append(merged.Unsatisfiable, u)
	}
	sort.Slice(merged.Unsatisfiable, func(i, j int) bool { return merged.Unsatisfiable[i] < merged.Unsatisfiable[j] })
	return merged, nil
}
