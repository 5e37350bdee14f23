package stroming

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v4"
)

// DecideFunc computes the batch to append given the current state of a
// stream. It is called again after every conflict with the fresh state.
type DecideFunc func(version StreamVersion, messages []Message) ([]MessageData, error)

type retryConfig struct {
	maxRetries uint64
	newBackOff func() backoff.BackOff
}

// RetryOption configures WriteWithRetry.
type RetryOption func(*retryConfig)

// WithMaxRetries bounds the number of retries after the first attempt.
func WithMaxRetries(n uint64) RetryOption {
	return func(c *retryConfig) {
		c.maxRetries = n
	}
}

// WithBackOff sets the policy used between attempts.
func WithBackOff(fn func() backoff.BackOff) RetryOption {
	return func(c *retryConfig) {
		if fn != nil {
			c.newBackOff = fn
		}
	}
}

// WriteWithRetry reads the stream, lets decide build a batch and writes it
// with the read version as the expected version. On WrongExpectedVersion it
// re-reads and tries again until the retries are spent, in which case the
// last conflict is returned as the error.
//
// Store errors and errors from decide end the loop immediately.
func WriteWithRetry(ctx context.Context, store StreamStore, name string, decide DecideFunc, opts ...RetryOption) (Position, error) {
	cfg := retryConfig{
		maxRetries: 5,
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	var pos Position
	operation := func() error {
		version, messages, err := store.ReadFromStream(ctx, name, Forwards)
		if err != nil {
			return backoff.Permanent(err)
		}
		batch, err := decide(version, messages)
		if err != nil {
			return backoff.Permanent(err)
		}
		res, err := store.WriteToStream(ctx, name, version, batch)
		if err != nil {
			return backoff.Permanent(err)
		}
		p, err := ResultError(res)
		if err != nil {
			return err
		}
		pos = p
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(cfg.newBackOff(), cfg.maxRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		if errors.Is(err, ErrWrongExpectedVersion) {
			return Position{}, fmt.Errorf("write to stream %q after %d retries: %w", name, cfg.maxRetries, err)
		}
		return Position{}, err
	}
	return pos, nil
}
