package multipart

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// retry calls fn until it succeeds or it has been retried retries times.
// Context errors are never retried.
func retry[T any](ctx context.Context, retries int, fn func() (T, error)) (T, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(max(retries, 0))), ctx)
	return backoff.RetryWithData(func() (T, error) {
		v, err := fn()
		if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, policy)
}
