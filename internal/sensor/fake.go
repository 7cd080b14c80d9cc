package sensor

import (
	"errors"
	"math"
	"time"

	"github.com/sweeney/range-sensor/internal/fault"
)

// FakePulser is a test double that returns scripted echo widths.
type FakePulser struct {
	// Echoes contains scripted echo widths. Each MeasureEcho consumes the next.
	// A non-positive width simulates a missing echo.
	Echoes []time.Duration

	// index tracks current position in Echoes
	index int

	// Triggers counts Trigger calls.
	Triggers int

	// Timeouts records the timeout passed to each MeasureEcho call.
	Timeouts []time.Duration

	// Closed tracks if Close was called
	Closed bool

	// TriggerError, if set, will be returned by Trigger()
	TriggerError error
}

// NewFakePulser creates a FakePulser with the given echo widths.
func NewFakePulser(echoes ...time.Duration) *FakePulser {
	return &FakePulser{Echoes: echoes}
}

// Trigger records the trigger pulse.
func (f *FakePulser) Trigger() error {
	if f.TriggerError != nil {
		return f.TriggerError
	}
	f.Triggers++
	return nil
}

// MeasureEcho returns the next scripted width.
// If widths are exhausted, returns the last one repeatedly.
func (f *FakePulser) MeasureEcho(timeout time.Duration) (time.Duration, error) {
	f.Timeouts = append(f.Timeouts, timeout)
	if len(f.Echoes) == 0 {
		return 0, errors.New("no echoes configured")
	}

	echo := f.Echoes[f.index]
	if f.index < len(f.Echoes)-1 {
		f.index++
	}
	if echo <= 0 {
		return 0, &fault.E{C: fault.SensorTimeout, Op: "measure echo"}
	}
	return echo, nil
}

// Close marks the pulser as closed.
func (f *FakePulser) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds to the first scripted width.
func (f *FakePulser) Reset() {
	f.index = 0
	f.Triggers = 0
	f.Timeouts = nil
	f.Closed = false
}

// EchoFor returns the echo width that converts to cm, for scripting fakes.
func EchoFor(cm float64) time.Duration {
	return time.Duration(math.Round(cm * 2 / 0.0343 * float64(time.Microsecond)))
}
