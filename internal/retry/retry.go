// Package retry runs an operation with bounded exponential backoff, retrying
// only the failures a caller marks as transient.
package retry

import (
	"context"
	"log/slog"
	"time"

	goretry "github.com/sethvargo/go-retry"
)

const (
	DefaultMaxAttempts  = 5
	DefaultInitialDelay = time.Second
)

// Policy controls how Do retries.
type Policy struct {
	// MaxAttempts is the total number of calls, including the first.
	MaxAttempts int
	// InitialDelay is the sleep after the first failure; it doubles each retry.
	InitialDelay time.Duration
	// Transient reports whether err is worth another attempt. Nil means every
	// error is fatal.
	Transient func(error) bool
	// OnRetry is called before each sleep with the attempt that just failed.
	OnRetry func(attempt int, delay time.Duration, err error)
	Logger  *slog.Logger
}

// DefaultPolicy is five attempts starting at one second.
func DefaultPolicy(transient func(error) bool) Policy {
	return Policy{MaxAttempts: DefaultMaxAttempts, InitialDelay: DefaultInitialDelay, Transient: transient}
}

// Attempts is the number of calls the policy allows.
func (p Policy) Attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

func (p Policy) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// Do calls fn until it succeeds, returns a non-transient error, or the policy
// runs out of attempts. The last error is returned as fn produced it.
func Do[T any](ctx context.Context, p Policy, fn func(context.Context) (T, error)) (T, error) {
	var (
		out     T
		last    error
		attempt int
	)
	max := p.Attempts()
	delay := p.InitialDelay
	if delay <= 0 {
		delay = DefaultInitialDelay
	}
	log := p.logger()

	inner := goretry.WithMaxRetries(uint64(max-1), goretry.NewExponential(delay))
	backoff := goretry.BackoffFunc(func() (time.Duration, bool) {
		next, stop := inner.Next()
		if stop {
			return 0, true
		}
		log.Warn("transient failure, retrying", "attempt", attempt, "max_attempts", max, "delay", next, "err", last)
		if p.OnRetry != nil {
			p.OnRetry(attempt, next, last)
		}
		return next, false
	})

	err := goretry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		v, err := fn(ctx)
		if err == nil {
			out = v
			return nil
		}
		last = err
		if p.Transient != nil && p.Transient(err) {
			return goretry.RetryableError(err)
		}
		return err
	})
	if err == nil {
		return out, nil
	}
	if last != nil && attempt >= max && p.Transient != nil && p.Transient(last) {
		log.Error("giving up after retries", "attempts", attempt, "err", last)
	}
	var zero T
	return zero, err
}
