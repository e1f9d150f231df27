// Package overview aggregates linked institutions into a consolidated
// financial overview with a derived net-worth history.
package overview

import (
	"context"
	"errors"
	"time"

	"github.com/networth-app/networth/internal/models"
)

// readyRetryDelay is the fixed wait before re-requesting a page the
// provider has not finished preparing.
const readyRetryDelay = 100 * time.Millisecond

// fetchPageFunc returns one page of items starting at offset, along with
// the provider's total item count for the full range.
type fetchPageFunc[T any] func(ctx context.Context, offset int) (items []T, total int, err error)

// fetchAllPages drains a paginated provider endpoint into a single ordered
// slice. Pages are concatenated in fetch order; the fetch is complete once
// the accumulated count reaches the total reported by the first successful
// page.
//
// A PRODUCT_NOT_READY error, or a page with zero items before the total is
// reached, means the provider is still preparing data: the same offset is
// retried after a fixed delay. Retries are unbounded unless maxReadyRetries
// is positive, in which case exhaustion surfaces as ErrorKindUnavailable.
// Any other provider error is returned as classified.
func fetchAllPages[T any](ctx context.Context, fetch fetchPageFunc[T], maxReadyRetries int) ([]T, error) {
	var accumulated []T
	total := -1
	readyRetries := 0

	waitReady := func(lastErr *models.ProviderError) error {
		readyRetries++
		if maxReadyRetries > 0 && readyRetries > maxReadyRetries {
			if lastErr != nil {
				return &models.ProviderError{
					Kind:       models.ErrorKindUnavailable,
					Code:       lastErr.Code,
					StatusCode: lastErr.StatusCode,
					Message:    lastErr.Message,
				}
			}
			return &models.ProviderError{
				Kind:    models.ErrorKindUnavailable,
				Message: "provider returned incomplete data until retries were exhausted",
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(readyRetryDelay):
			return nil
		}
	}

	for {
		items, pageTotal, err := fetch(ctx, len(accumulated))
		if err != nil {
			var pe *models.ProviderError
			if errors.As(err, &pe) && pe.Kind == models.ErrorKindNotReady {
				if werr := waitReady(pe); werr != nil {
					return nil, werr
				}
				continue
			}
			return nil, err
		}

		if total < 0 {
			total = pageTotal
		}

		if len(accumulated)+len(items) >= total {
			return append(accumulated, items...), nil
		}

		if len(items) == 0 {
			// Total not reached but the page came back empty: the
			// provider is still backfilling. Retry the same offset.
			if werr := waitReady(nil); werr != nil {
				return nil, werr
			}
			continue
		}

		accumulated = append(accumulated, items...)
	}
}
