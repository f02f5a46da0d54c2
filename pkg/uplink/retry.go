package uplink

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Retrying retries a Publisher with a constant delay between attempts.
type Retrying struct {
	next     Publisher
	attempts int
	delay    time.Duration
	metrics  *Metrics
	log      *zap.Logger
}

// Ensure Retrying implements Publisher.
var _ Publisher = (*Retrying)(nil)

// NewRetrying wraps next so that Publish makes at most attempts tries spaced
// by delay. ErrRejected stops immediately.
func NewRetrying(next Publisher, attempts int, delay time.Duration, metrics *Metrics, logger *zap.Logger) *Retrying {
	if attempts < 1 {
		attempts = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retrying{
		next:     next,
		attempts: attempts,
		delay:    delay,
		metrics:  metrics,
		log:      logger.Named("uplink.retry"),
	}
}

// Publish delivers p, retrying transient failures.
func (r *Retrying) Publish(ctx context.Context, p Payload) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(r.delay), uint64(r.attempts-1)),
		ctx,
	)

	attempt := 0
	op := func() error {
		attempt++
		if r.metrics != nil {
			r.metrics.Attempts.Inc()
		}
		err := r.next.Publish(ctx, p)
		if errors.Is(err, ErrRejected) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		r.log.Warn("publish failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", r.attempts),
			zap.Duration("wait", wait),
			zap.Error(err))
	}

	err := backoff.RetryNotify(op, policy, notify)
	if r.metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = "failed"
		}
		r.metrics.Published.WithLabelValues(outcome).Inc()
	}
	return err
}

// Close closes the wrapped publisher.
func (r *Retrying) Close() error {
	return r.next.Close()
}
