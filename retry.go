package autosave

import (
	"context"
	"errors"
	"fmt"
	"time"

	saveErrors "github.com/c0deZ3R0/go-autosave-kit/errors"
	"github.com/c0deZ3R0/go-autosave-kit/logging"
)

// RetryConfig controls the exponential backoff applied around a transport.
type RetryConfig struct {
	// MaxRetries is the number of retries after the initial attempt, so
	// the transport is invoked at most MaxRetries+1 times.
	MaxRetries int

	// BaseDelay is the wait before the first retry.
	BaseDelay time.Duration

	// MaxDelay caps the growth of the backoff.
	MaxDelay time.Duration

	// BackoffFactor multiplies the delay after each failed attempt.
	BackoffFactor float64
}

// DefaultRetryConfig mirrors the engine defaults: three retries starting at
// one second, doubling, capped at ten seconds.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		BaseDelay:     time.Second,
		MaxDelay:      10 * time.Second,
		BackoffFactor: 2,
	}
}

func (c RetryConfig) normalized() RetryConfig {
	d := DefaultRetryConfig()
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = d.BaseDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = d.MaxDelay
	}
	if c.BackoffFactor < 1 {
		c.BackoffFactor = d.BackoffFactor
	}
	return c
}

// delayFor returns the backoff before retry attempt n (n starts at 1).
func (c RetryConfig) delayFor(n int) time.Duration {
	delay := c.BaseDelay
	for i := 1; i < n; i++ {
		delay = time.Duration(float64(delay) * c.BackoffFactor)
		if delay >= c.MaxDelay {
			return c.MaxDelay
		}
	}
	if delay > c.MaxDelay {
		return c.MaxDelay
	}
	return delay
}

type retryTransport struct {
	inner   Transport
	cfg     RetryConfig
	clock   Clock
	logger  *logging.Logger
	metrics MetricsCollector
}

// WithRetry wraps a transport with exponential backoff. Failed attempts
// (error or OK == false) are retried up to cfg.MaxRetries times; the
// attempt's SaveContext carries the cumulative retry count. Cancellation is
// honored between attempts and while waiting out a backoff delay.
func WithRetry(inner Transport, cfg RetryConfig) Transport {
	return newRetryTransport(inner, cfg, NewRealClock(), logging.Default(), NewNoOpMetricsCollector())
}

func newRetryTransport(inner Transport, cfg RetryConfig, clock Clock, logger *logging.Logger, metrics MetricsCollector) Transport {
	if clock == nil {
		clock = NewRealClock()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if metrics == nil {
		metrics = NewNoOpMetricsCollector()
	}
	return &retryTransport{
		inner:   inner,
		cfg:     cfg.normalized(),
		clock:   clock,
		logger:  logger.WithComponent("retry"),
		metrics: metrics,
	}
}

func (t *retryTransport) Save(ctx context.Context, payload Payload, sc *SaveContext) (*SaveResult, error) {
	attempts := t.cfg.MaxRetries + 1
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Failure(saveErrors.NewCanceledError(saveErrors.OpRetry, err)), nil
		}

		if attempt > 0 {
			delay := t.cfg.delayFor(attempt)
			t.logger.Debug("waiting before retry",
				"attempt", attempt,
				"delay", delay,
			)
			if err := t.clock.Sleep(ctx, delay); err != nil {
				return Failure(saveErrors.NewCanceledError(saveErrors.OpRetry, err)), nil
			}
			t.metrics.RecordRetry()
		}

		attemptCtx := sc.withAttempt(attempt, t.clock.Now())
		result, err := t.inner.Save(ctx, payload, attemptCtx)
		if err == nil && result != nil && result.OK {
			if attempt > 0 {
				t.logger.Info("save succeeded after retries",
					"attempt", attempt,
					"retries", attempt,
				)
			}
			return result, nil
		}

		lastErr = err
		if lastErr == nil && result != nil {
			lastErr = result.Err
		}
		if lastErr == nil {
			lastErr = fmt.Errorf("transport reported failure without error")
		}
		if saveErrors.IsCanceled(lastErr) {
			return Failure(lastErr), nil
		}
		if errors.Is(lastErr, context.Canceled) || errors.Is(lastErr, context.DeadlineExceeded) {
			return Failure(saveErrors.NewCanceledError(saveErrors.OpRetry, lastErr)), nil
		}

		t.logger.Warn("save attempt failed",
			"attempt", attempt+1,
			"max_attempts", attempts,
			"error", lastErr,
		)
	}

	return Failure(saveErrors.NewExhaustedError(saveErrors.OpRetry, attempts, lastErr)), nil
}
