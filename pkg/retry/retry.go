// Package retry - ограничение внешнего I/O по времени с одной повторной попыткой.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultPause - пауза перед повтором
const DefaultPause = 100 * time.Millisecond

// Retryable решает, имеет ли смысл повтор. nil - повторять любую ошибку.
type Retryable func(error) bool

// Once выполняет op с таймаутом на каждую попытку и не более одного повтора.
// Ошибки, для которых retryable вернул false, возвращаются сразу.
func Once(ctx context.Context, timeout time.Duration, op func(ctx context.Context) error, retryable Retryable) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(DefaultPause), 1),
		ctx,
	)

	return backoff.Retry(func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		err := op(attemptCtx)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		if retryable != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
}

// Value - Once для операций с результатом
func Value[T any](ctx context.Context, timeout time.Duration, op func(ctx context.Context) (T, error), retryable Retryable) (T, error) {
	var out T
	err := Once(ctx, timeout, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	}, retryable)
	return out, err
}

// IsTimeout - превышен таймаут попытки
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
