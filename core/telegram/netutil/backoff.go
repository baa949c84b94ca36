package netutil

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Backoff is an exponential retry schedule: Step, then doubling up to Max.
type Backoff struct {
	Step time.Duration
	Max  time.Duration
	// Jitter randomizes every wait by up to this fraction.
	Jitter float64
}

func (b Backoff) policy() *backoff.ExponentialBackOff {
	p := backoff.NewExponentialBackOff()
	p.InitialInterval = b.Step
	p.RandomizationFactor = b.Jitter
	p.Multiplier = 2
	p.MaxInterval = max(b.Max, b.Step)
	p.MaxElapsedTime = 0
	p.Reset()
	return p
}

// floodAware waits the server-provided time after a flood error instead of
// the next scheduled delay.
type floodAware struct {
	backoff.BackOff
	last error
}

func (f *floodAware) NextBackOff() time.Duration {
	next := f.BackOff.NextBackOff()
	if wait, ok := RetryAfter(f.last); ok && next != backoff.Stop {
		return wait
	}
	return next
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

// Retry calls op up to attempts times. Errors rejected by ShouldRetry or
// wrapped with Permanent end the loop at once. notify, when set, sees every
// failed try before the wait. Retry returns the number of tries and the last
// error; if ctx ends during a wait the context error is joined to it.
func Retry(ctx context.Context, b Backoff, attempts int, op func() error, notify func(err error, try int, wait time.Duration)) (int, error) {
	sched := &floodAware{BackOff: b.policy()}
	policy := backoff.WithContext(backoff.WithMaxRetries(sched, uint64(max(attempts-1, 0))), ctx)

	tries := 0
	err := backoff.RetryNotify(func() error {
		tries++
		err := op()
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			sched.last = perm.Err
			return err
		}
		sched.last = err
		if err != nil && !ShouldRetry(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy, func(err error, wait time.Duration) {
		if notify != nil {
			notify(err, tries, wait)
		}
	})
	if err != nil && sched.last != nil && !errors.Is(err, sched.last) {
		err = errors.Join(err, sched.last)
	}
	return tries, err
}
