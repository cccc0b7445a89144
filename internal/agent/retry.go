package agent

import (
	"context"

	"github.com/cenkalti/backoff/v4"
)

// RetryOnce runs fn, and if it fails, runs it exactly one more time. The
// executor wraps its two repair-agent queries (conflict resolution,
// build/test repair) in this so a transient CLI transport failure doesn't
// burn the task's single repair attempt; backoff.WithMaxRetries(0 backoff,
// 1 retry) expresses that bound declaratively instead of a hand-rolled
// attempt counter.
func RetryOnce(ctx context.Context, fn func() error) error {
	policy := backoff.WithContext(backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 1), ctx)
	return backoff.Retry(fn, policy)
}
