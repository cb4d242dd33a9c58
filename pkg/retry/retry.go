package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	errs "apodget/pkg/errors"
	"apodget/pkg/logger"
)

// ErrExhausted is returned, wrapped around the last error, when every attempt failed
var ErrExhausted = errors.New("max retry attempts exceeded")

// Operation is a function that performs an operation that might need retrying
type Operation func() error

// OperationWithResult is a function that returns a result and might need retrying
type OperationWithResult[T any] func() (T, error)

// Config holds retry configuration
type Config struct {
	// MaxAttempts is the maximum number of attempts (0 means unlimited)
	MaxAttempts int
	// Backoff strategy to use
	Backoff BackoffStrategy
	// RetryIf determines if an error should be retried
	RetryIf func(error) bool
	// OnRetry is called before each retry attempt
	OnRetry func(attempt int, err error, delay time.Duration)
	// Context for cancellation
	Context context.Context
	// Logger for retry attempts
	Logger logger.Logger
}

// DefaultConfig returns the configuration used for random picture lookups:
// five immediate attempts, retrying only when a page had no picture.
func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{},
		RetryIf:     errs.RetryIf,
		Context:     context.Background(),
		Logger:      logger.GetLogger(),
	}
}

func (c *Config) withDefaults() *Config {
	cfg := *c
	if cfg.Backoff == nil {
		cfg.Backoff = &ConstantBackoff{}
	}
	if cfg.RetryIf == nil {
		cfg.RetryIf = errs.RetryIf
	}
	if cfg.Context == nil {
		cfg.Context = context.Background()
	}
	return &cfg
}

// Do executes an operation with retry logic.
//
// A non-retryable error is returned as is. When the attempts run out the
// result wraps both ErrExhausted and the last error.
func Do(op Operation, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg = cfg.withDefaults()

	attempt := 0

	for {
		attempt++

		if err := cfg.Context.Err(); err != nil {
			return fmt.Errorf("retry cancelled: %w", err)
		}

		err := op()
		if err == nil {
			if attempt > 1 && cfg.Logger != nil {
				cfg.Logger.DebugWithFields("operation succeeded after retry", map[string]interface{}{
					"attempt": attempt,
				})
			}
			return nil
		}

		if !cfg.RetryIf(err) {
			if cfg.Logger != nil {
				cfg.Logger.DebugWithFields("error is not retryable", map[string]interface{}{
					"error": err.Error(),
				})
			}
			return err
		}

		if cfg.MaxAttempts > 0 && attempt >= cfg.MaxAttempts {
			if cfg.Logger != nil {
				cfg.Logger.DebugWithFields("max retry attempts exceeded", map[string]interface{}{
					"attempts":   attempt,
					"last_error": err.Error(),
				})
			}
			return fmt.Errorf("%w (%d): %w", ErrExhausted, cfg.MaxAttempts, err)
		}

		delay := cfg.Backoff.NextDelay(attempt)

		if cfg.OnRetry != nil {
			cfg.OnRetry(attempt, err, delay)
		}

		if cfg.Logger != nil {
			cfg.Logger.DebugWithFields("retrying operation", map[string]interface{}{
				"attempt":      attempt,
				"error":        err.Error(),
				"delay_ms":     delay.Milliseconds(),
				"max_attempts": cfg.MaxAttempts,
			})
		}

		if err := Wait(cfg.Context, delay); err != nil {
			return fmt.Errorf("retry cancelled: %w", err)
		}
	}
}

// DoWithResult executes an operation that returns a result with retry logic
func DoWithResult[T any](op OperationWithResult[T], cfg *Config) (T, error) {
	var result T

	err := Do(func() error {
		var opErr error
		result, opErr = op()
		return opErr
	}, cfg)

	return result, err
}
