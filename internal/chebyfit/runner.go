package chebyfit

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/arclight-data/chebysky/internal/chebyvals"
)

// Runner fans per-object fit loops out over a fixed worker pool. Objects
// are independent: each worker owns one object at a time and appends only
// that object's rows, so the shared table sees disjoint append streams.
type Runner struct {
	fitter  *Fitter
	workers int
}

// NewRunner builds a runner over the given fitter. workers < 1 is pinned
// to 1.
func NewRunner(fitter *Fitter, workers int) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{fitter: fitter, workers: workers}
}

type fitOutcome struct {
	objectID string
	segments int
	err      error
}

// FitAll fits every object across [tStart, tEnd) and appends the accepted
// segments to table. The initial speed probe is batched across all objects
// in a single oracle call. Any per-object failure (including refinement
// non-convergence) fails the run; partial results for other objects remain
// in the table so callers can inspect them, but the error is not downgraded.
func (r *Runner) FitAll(ctx context.Context, objectIDs []string, tStart, tEnd float64, table *chebyvals.Table) error {
	if len(objectIDs) == 0 {
		return fmt.Errorf("no object ids to fit")
	}

	speeds, err := r.fitter.EstimateSpeeds(ctx, objectIDs, tStart)
	if err != nil {
		return err
	}

	jobs := make(chan string, r.workers*2)
	outcomes := make(chan fitOutcome, r.workers*2)

	var wg sync.WaitGroup
	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				segs, err := r.fitter.FitObjectFrom(ctx, id, tStart, tEnd, InitialGranularity(speeds[id]))
				if err == nil {
					for _, seg := range segs {
						if err = table.Append(seg); err != nil {
							break
						}
					}
				}
				select {
				case outcomes <- fitOutcome{objectID: id, segments: len(segs), err: err}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, id := range objectIDs {
			select {
			case jobs <- id:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	var errs []error
	for outcome := range outcomes {
		if outcome.err != nil {
			log.Printf("fit failed for %s: %v", outcome.objectID, outcome.err)
			errs = append(errs, fmt.Errorf("object %s: %w", outcome.objectID, outcome.err))
			continue
		}
		log.Printf("fitted %s: %d segments over [%v, %v)", outcome.objectID, outcome.segments, tStart, tEnd)
	}
	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
