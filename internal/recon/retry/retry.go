// Package retry executes fallible operations with classified, bounded
// exponential backoff. Every repository call the reconciler makes goes
// through here.
package retry

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/teampulse/calsync/internal/core/fault"
	"github.com/teampulse/calsync/internal/notify"
	"github.com/teampulse/calsync/internal/recon/metrics"
)

// Config defines retry behavior for one call site.
type Config struct {
	// Name identifies the operation in reports and wrapped errors.
	Name string

	// MaxRetries is the total number of attempts, including the first.
	MaxRetries int

	BaseDelay         time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64

	// ShouldRetry overrides the kind-based default policy when set. It
	// receives the failed attempt's error and 1-based attempt number.
	ShouldRetry func(err error, attempt int) bool

	// Sink receives terminal-error and recovered notifications. Nil
	// disables user-facing reporting (logging still happens).
	Sink notify.Sink

	Log *slog.Logger
}

// Default retry settings, shared by every call site that doesn't override
// them.
const (
	DefaultMaxRetries        = 3
	DefaultBaseDelay         = 500 * time.Millisecond
	DefaultMaxDelay          = 10 * time.Second
	DefaultBackoffMultiplier = 2.0
)

// DefaultConfig returns the standard policy for the named operation.
func DefaultConfig(name string) Config {
	return Config{
		Name:              name,
		MaxRetries:        DefaultMaxRetries,
		BaseDelay:         DefaultBaseDelay,
		MaxDelay:          DefaultMaxDelay,
		BackoffMultiplier: DefaultBackoffMultiplier,
	}
}

func (c Config) withDefaults() Config {
	if c.Name == "" {
		c.Name = "operation"
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = DefaultBaseDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = DefaultMaxDelay
	}
	if c.BackoffMultiplier <= 0 {
		c.BackoffMultiplier = DefaultBackoffMultiplier
	}
	if c.Log == nil {
		c.Log = slog.Default()
	}
	return c
}

// Do runs op with the configured retry policy. The first attempt runs
// without delay; attempt n (n >= 2) is preceded by
// min(BaseDelay * BackoffMultiplier^(n-2), MaxDelay).
//
// Terminal errors (non-retryable kind, or exhausted attempts) are reported
// to the sink and always propagated to the caller. Exhaustion wraps the last
// error into a synchronization-kind fault carrying the attempt count.
func Do[T any](ctx context.Context, cfg Config, op func(context.Context) (T, error)) (T, error) {
	var zero T
	cfg = cfg.withDefaults()

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 1 {
			delay := backoffDelay(attempt, cfg)
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(delay):
			}
		}

		result, err := op(ctx)
		if err == nil {
			if attempt > 1 {
				recovered(cfg, attempt)
			}
			return result, nil
		}

		lastErr = err
		if !shouldRetry(cfg, err, attempt) {
			// Terminal by policy, not by exhaustion: propagate as-is.
			report(cfg, err, attempt)
			return zero, err
		}
	}

	metrics.RetryExhausted.WithLabelValues(cfg.Name).Inc()
	wrapped := fault.Wrap(fault.KindSync, cfg.Name, lastErr).
		With("attempts", cfg.MaxRetries)
	report(cfg, wrapped, cfg.MaxRetries)
	return zero, wrapped
}

// WrapConfig configures the optional UI composition around a retried
// operation.
type WrapConfig struct {
	// Loading, when non-empty, shows a loading indicator for the duration
	// of the operation.
	Loading string

	// Success, when non-empty, is announced after the operation completes.
	Success string
}

// Wrap composes indicator setup, the retried operation, and guaranteed
// indicator teardown. The original error, if any, is returned after
// teardown.
func Wrap[T any](ctx context.Context, cfg Config, ui WrapConfig, op func(context.Context) (T, error)) (T, error) {
	cfg = cfg.withDefaults()

	var indicator notify.Indicator
	if ui.Loading != "" && cfg.Sink != nil {
		indicator = cfg.Sink.ShowLoadingIndicator(ui.Loading)
	}

	result, err := Do(ctx, cfg, op)

	if indicator != nil {
		if err != nil {
			indicator.Dismiss(false, "")
		} else {
			indicator.Dismiss(true, ui.Success)
		}
	}
	if err == nil && ui.Success != "" && cfg.Sink != nil {
		cfg.Sink.ShowSuccess(ui.Success)
	}
	return result, err
}

// shouldRetry applies the per-call-site override, falling back to the
// kind-based default. Exhaustion is handled by the loop bound, not here, so
// a retryable error on the final attempt still gets the synchronization
// wrapping.
func shouldRetry(cfg Config, err error, attempt int) bool {
	if cfg.ShouldRetry != nil {
		return cfg.ShouldRetry(err, attempt)
	}
	return fault.Retryable(fault.Classify(err))
}

func backoffDelay(attempt int, cfg Config) time.Duration {
	delay := float64(cfg.BaseDelay) * math.Pow(cfg.BackoffMultiplier, float64(attempt-2))
	if delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	return time.Duration(delay)
}

func recovered(cfg Config, attempt int) {
	cfg.Log.Info("operation recovered",
		"operation", cfg.Name,
		"attempts", attempt,
	)
	if cfg.Sink != nil {
		cfg.Sink.ShowSuccess(fmt.Sprintf("%s recovered after %d attempts", cfg.Name, attempt))
	}
}

func report(cfg Config, err error, attempts int) {
	cfg.Log.Error("operation failed",
		"operation", cfg.Name,
		"attempts", attempts,
		"kind", fault.Classify(err),
		"error", err,
	)
	if cfg.Sink != nil {
		msg, suggestions := fault.UserMessage(err)
		cfg.Sink.ShowError(msg, suggestions)
	}
}
