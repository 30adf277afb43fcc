package messaging

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

type RetryConfig struct {
	Attempts int
	Delay    time.Duration
}

// RetryPublisher retries a failed publish at a constant interval. It gives
// up early when ctx is done and then returns the context error.
type RetryPublisher struct {
	next   Publisher
	config RetryConfig
}

func NewRetryPublisher(next Publisher, config RetryConfig) *RetryPublisher {
	if config.Attempts <= 0 {
		config.Attempts = 1
	}
	return &RetryPublisher{next: next, config: config}
}

func (p *RetryPublisher) Publish(ctx context.Context, channel string, message interface{}) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(p.config.Delay), uint64(p.config.Attempts-1)),
		ctx,
	)
	return backoff.Retry(func() error {
		return p.next.Publish(ctx, channel, message)
	}, policy)
}
