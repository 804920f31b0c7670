package embedder

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// maxRetries is the number of additional attempts after the first failure.
// One bounded retry covers transient network blips and 429/5xx responses;
// auth failures and caller errors are marked permanent and never retried.
const maxRetries = 1

// retryTransient runs op, retrying up to maxRetries times with exponential
// backoff when op reports a transient failure. op must wrap non-retryable
// errors with backoff.Permanent.
func retryTransient(ctx context.Context, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, maxRetries), ctx))
}

// retryableStatus reports whether an HTTP status code indicates a transient
// provider-side condition worth one retry.
func retryableStatus(code int) bool {
	return code == 429 || code >= 500
}
