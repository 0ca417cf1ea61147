package services

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/you/accountsvc/domain"
)

const (
	conflictRetries = 3
	conflictBackoff = 10 * time.Millisecond
)

// withConflictRetry reruns fn when a unique constraint rejected one of its
// writes. fn must generate fresh values and re-read state on every attempt.
func withConflictRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(conflictRetries, retry.NewConstant(conflictBackoff))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn(ctx)
		if errors.Is(err, domain.ErrDuplicateKey) {
			return retry.RetryableError(err)
		}
		return err
	})
}
