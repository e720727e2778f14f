package cache

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/weelo-captain/internal/client/result"
)

const DefaultBatchLimit = 4

// ItemFailure describes one input of a batch that the server rejected.
type ItemFailure[I any] struct {
	Index int
	Input I
	Err   *result.Error
}

type BatchResult[I, R any] struct {
	Succeeded []R
	Failed    []ItemFailure[I]
}

// Batch submits each input as its own call, at most limit at a time. A
// failing item never stops the others. The result is Success when at least
// one item went through (Failed lists the rest) and Error when none did.
// Succeeded and Failed keep input order.
func Batch[I, R any](ctx context.Context, inputs []I, limit int, fn func(context.Context, I) (R, error)) result.Result[BatchResult[I, R]] {
	if limit <= 0 {
		limit = DefaultBatchLimit
	}

	outs := make([]R, len(inputs))
	errs := make([]error, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, in := range inputs {
		g.Go(func() error {
			outs[i], errs[i] = fn(gctx, in)
			return nil
		})
	}
	_ = g.Wait()

	var br BatchResult[I, R]
	for i := range inputs {
		if errs[i] != nil {
			br.Failed = append(br.Failed, ItemFailure[I]{Index: i, Input: inputs[i], Err: result.FromError(errs[i])})
			continue
		}
		br.Succeeded = append(br.Succeeded, outs[i])
	}

	if len(inputs) > 0 && len(br.Succeeded) == 0 {
		first := br.Failed[0].Err
		return result.Failure[BatchResult[I, R]](&result.Error{
			Message:            fmt.Sprintf("all %d items failed: %s", len(inputs), first.Message),
			StatusCode:         first.StatusCode,
			Code:               first.Code,
			MustReauthenticate: first.MustReauthenticate,
		})
	}
	return result.Success(br)
}
