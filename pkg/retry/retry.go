package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

// Policy describes an exponential backoff schedule
type Policy struct {
	// Attempts is the total number of tries, including the first one
	Attempts       int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
	// Jitter is the +/- fraction applied to every wait (0-1)
	Jitter float64
}

// DefaultPolicy returns 4 attempts: 200ms, 400ms, 800ms waits
func DefaultPolicy() Policy {
	return Policy{
		Attempts:       4,
		InitialBackoff: 200 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		Multiplier:     2,
		Jitter:         0.1,
	}
}

// OnRetry is invoked before every wait
type OnRetry func(attempt int, err error, wait time.Duration)

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err so that Do stops retrying and returns it unwrapped
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do runs op until it succeeds, returns a permanent error, the attempts are
// used up, or ctx is done. The last operation error is returned.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error, onRetry OnRetry) error {
	p = p.normalized()

	var err error
	for attempt := 1; ; attempt++ {
		if err = op(ctx); err == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}

		if attempt >= p.Attempts {
			return err
		}

		wait := p.Backoff(attempt)
		if onRetry != nil {
			onRetry(attempt, err, wait)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(ctx.Err(), err)
		case <-timer.C:
		}
	}
}

// Backoff returns the wait after the given (1-based) failed attempt
func (p Policy) Backoff(attempt int) time.Duration {
	p = p.normalized()

	wait := float64(p.InitialBackoff)
	for i := 1; i < attempt; i++ {
		wait *= p.Multiplier
		if wait >= float64(p.MaxBackoff) {
			break
		}
	}

	if p.Jitter > 0 {
		wait += (rand.Float64()*2 - 1) * wait * p.Jitter
	}
	if wait > float64(p.MaxBackoff) {
		wait = float64(p.MaxBackoff)
	}
	if wait <= 0 {
		wait = float64(p.InitialBackoff)
	}
	return time.Duration(wait)
}

func (p Policy) normalized() Policy {
	if p.Attempts < 1 {
		p.Attempts = 1
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = 100 * time.Millisecond
	}
	if p.MaxBackoff < p.InitialBackoff {
		p.MaxBackoff = p.InitialBackoff
	}
	if p.Multiplier < 1 {
		p.Multiplier = 1
	}
	if p.Jitter < 0 {
		p.Jitter = 0
	}
	if p.Jitter > 1 {
		p.Jitter = 1
	}
	return p
}
