package runtime

import (
	"golang.org/x/sync/errgroup"

	"github.com/rufflang/ruff-sub004/values"
)

// AwaitAll fans in a slice of Promise Values concurrently (spec §8's
// "promise fan-in" scenario doesn't name this helper, but the property it
// tests -- collect every result, propagate the first failure -- is
// exactly golang.org/x/sync/errgroup's contract). Ordering in the returned
// slice matches the input slice, not completion order, so callers can
// still pair a result with the task that produced it.
//
// This replaces the placeholder wudi-hey's values.WaitGroup leaves as a
// stub (its own Add/Done/Wait are unimplemented) with a real
// implementation: one goroutine per Await, errgroup.Wait blocks until
// every Await has returned and then reports the first error, if any.
func AwaitAll(promises []values.Value) ([]values.Value, error) {
	results := make([]values.Value, len(promises))
	var g errgroup.Group
	for i, pv := range promises {
		i, pv := i, pv
		g.Go(func() error {
			result := Await(pv)
			r, ok := result.AsResult()
			if ok && !r.Ok {
				msg, _ := r.Payload.AsString()
				return errPanicf("promise %d rejected: %s", i, msg)
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
