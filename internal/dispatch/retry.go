package dispatch

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/banshee-data/beam.report/internal/monitoring"
	"github.com/banshee-data/beam.report/internal/rayci"
)

// retryingCaller retries transport-level failures with exponential
// backoff. Faults from the endpoint are permanent: retrying a rejected
// call would just repeat the rejection.
type retryingCaller struct {
	rc       rayci.Caller
	retries  int
	interval time.Duration
	logf     func(format string, v ...interface{})
}

func newRetryingCaller(rc rayci.Caller, retries int) *retryingCaller {
	return &retryingCaller{
		rc:       rc,
		retries:  retries,
		interval: 500 * time.Millisecond,
		logf:     monitoring.Prefixed("retry"),
	}
}

func (r *retryingCaller) Call(ctx context.Context, method string, args ...interface{}) (rayci.Value, error) {
	var v rayci.Value
	attempt := 0
	op := func() error {
		attempt++
		var err error
		v, err = r.rc.Call(ctx, method, args...)
		if err == nil {
			return nil
		}
		if errors.Is(err, rayci.ErrUnavailable) {
			r.logf("%s attempt %d failed: %v", method, attempt, err)
			return err
		}
		return backoff.Permanent(err)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(&backoff.ExponentialBackOff{
		InitialInterval:     r.interval,
		RandomizationFactor: 0.2,
		Multiplier:          2,
		MaxInterval:         5 * time.Second,
		MaxElapsedTime:      2 * time.Minute,
		Clock:               backoff.SystemClock,
	}, uint64(r.retries)), ctx)

	if err := backoff.Retry(op, policy); err != nil {
		return rayci.Value{}, err
	}
	return v, nil
}
