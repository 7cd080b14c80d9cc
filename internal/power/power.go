// Package power provides the low-power wait between uploader activations.
package power

import (
	"context"
	"time"
)

// Sleeper powers the node down for a fixed duration.
type Sleeper interface {
	// PowerDownFor returns once d has elapsed, or early with ctx.Err() when
	// ctx is cancelled.
	PowerDownFor(ctx context.Context, d time.Duration) error
}

// TimerSleeper waits on a timer. On a Linux host the process stays resident;
// the activation restarts from the top when the wait returns.
type TimerSleeper struct{}

// PowerDownFor blocks for d.
func (TimerSleeper) PowerDownFor(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// FakeSleeper records requested durations without waiting.
type FakeSleeper struct {
	// Durations contains every requested power-down.
	Durations []time.Duration

	// Err, if set, is returned by PowerDownFor.
	Err error

	// OnSleep, if set, runs on every call.
	OnSleep func(d time.Duration)
}

// PowerDownFor records d.
func (f *FakeSleeper) PowerDownFor(ctx context.Context, d time.Duration) error {
	f.Durations = append(f.Durations, d)
	if f.OnSleep != nil {
		f.OnSleep(d)
	}
	return f.Err
}
