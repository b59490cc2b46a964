package providers

import (
	"context"
	"fmt"
)

// Strategy is one way of obtaining the same logical statistic from a
// provider. Run returns a normalized result or an error; strategies do
// their own internal retries, the chain never adds any.
type Strategy[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, error)
}

// RunChain invokes the strategies in their given order and returns the
// first successful result together with the winning strategy's name.
// The order is fixed by the caller at construction and is never
// reordered here. If every strategy fails, the zero value is returned
// with an *AllFailedError aggregating each strategy's reason.
func RunChain[T any](ctx context.Context, provider string, strategies []Strategy[T]) (T, string, error) {
	var zero T
	reasons := make([]string, 0, len(strategies))

	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			reasons = append(reasons, fmt.Sprintf("%s: %v", s.Name, err))
			break
		}

		result, err := s.Run(ctx)
		if err == nil {
			return result, s.Name, nil
		}
		reasons = append(reasons, fmt.Sprintf("%s: %v", s.Name, err))
	}

	return zero, "", &AllFailedError{Provider: provider, Reasons: reasons}
}
