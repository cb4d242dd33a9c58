package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"apodget/pkg/apod"
	"apodget/pkg/apoddate"
	"apodget/pkg/config"
	errs "apodget/pkg/errors"
	"apodget/pkg/logger"
	"apodget/pkg/retry"
)

// State is the position of a random search
type State int

const (
	StateSampling State = iota
	StateFetching
	StateSucceeded
	StateExhausted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateSampling:
		return "sampling"
	case StateFetching:
		return "fetching"
	case StateSucceeded:
		return "succeeded"
	case StateExhausted:
		return "exhausted"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// RandomFinder keeps sampling dates until one of them has a picture
type RandomFinder struct {
	fetcher     PictureFetcher
	picker      DatePicker
	maxAttempts int
	delay       time.Duration
	logger      logger.Logger

	state    State
	attempts int
	date     time.Time
}

// NewRandomFinder creates a finder. A nil picker uses a time-seeded apoddate.Picker.
func NewRandomFinder(fetcher PictureFetcher, picker DatePicker, cfg config.RandomConfig, log logger.Logger) *RandomFinder {
	if log == nil {
		log = logger.GetLogger()
	}
	if picker == nil {
		picker = apoddate.NewPicker(time.Now().UnixNano())
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = config.DefaultMaxAttempts
	}

	return &RandomFinder{
		fetcher:     fetcher,
		picker:      picker,
		maxAttempts: maxAttempts,
		delay:       cfg.RetryDelay,
		logger:      log,
	}
}

// State returns the current state
func (f *RandomFinder) State() State {
	return f.state
}

// Attempts returns how many pages were fetched
func (f *RandomFinder) Attempts() int {
	return f.attempts
}

// Date returns the last sampled date
func (f *RandomFinder) Date() time.Time {
	return f.date
}

func (f *RandomFinder) transition(to State) {
	f.logger.DebugWithFields("random search state", map[string]interface{}{
		"from":    f.state.String(),
		"to":      to.String(),
		"attempt": f.attempts,
	})
	f.state = to
}

// Find samples dates in [lower, now) and fetches each until a page has a picture.
//
// Only pages without a picture are retried. After maxAttempts such pages the
// search ends with a retry_exhausted error wrapping the last one; any other
// error ends it at once. Cancellation between attempts is reported as a fetch
// error.
func (f *RandomFinder) Find(ctx context.Context, lower time.Time, opts apod.FetchOptions) (*apod.Picture, error) {
	f.state = StateSampling
	f.attempts = 0

	picture, err := retry.DoWithResult(func() (*apod.Picture, error) {
		if f.state != StateSampling {
			f.transition(StateSampling)
		}
		date, err := f.picker.Pick(lower)
		if err != nil {
			return nil, err
		}
		f.date = date

		f.attempts++
		f.transition(StateFetching)
		return f.fetcher.FetchPicture(ctx, date, opts)
	}, &retry.Config{
		MaxAttempts: f.maxAttempts,
		Backoff:     &retry.ConstantBackoff{Delay: f.delay},
		RetryIf:     errs.RetryIf,
		Context:     ctx,
		Logger:      f.logger,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			f.logger.DebugWithFields("no picture on sampled date", map[string]interface{}{
				"date":      apoddate.Format(f.date),
				"attempt":   attempt,
				"remaining": f.maxAttempts - attempt,
			})
		},
	})

	switch {
	case err == nil:
		f.transition(StateSucceeded)
		return picture, nil
	case errors.Is(err, retry.ErrExhausted):
		f.transition(StateExhausted)
		return nil, &errs.Error{
			Type:    errs.ErrorTypeRetryExhausted,
			Message: fmt.Sprintf("no picture found after %d attempts", f.attempts),
			Err:     err,
		}
	case errs.TypeOf(err) == errs.ErrorTypeUnknown &&
		(errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
		f.transition(StateFailed)
		return nil, errs.Wrap(errs.ErrorTypeFetch, err, "random search cancelled")
	default:
		f.transition(StateFailed)
		return nil, err
	}
}
