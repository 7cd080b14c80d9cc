//go:build !linux || baremetal

package sensor

import (
	"errors"
	"time"
)

// RealPulser is not available on non-Linux platforms.
type RealPulser struct{}

// NewRealPulser returns an error on non-Linux platforms.
func NewRealPulser(chip string, pinTrigger, pinEcho int) (*RealPulser, error) {
	return nil, errors.New("sensor: not supported on this platform (requires Linux)")
}

// Trigger is not implemented on non-Linux platforms.
func (p *RealPulser) Trigger() error {
	return errors.New("sensor: not supported")
}

// MeasureEcho is not implemented on non-Linux platforms.
func (p *RealPulser) MeasureEcho(timeout time.Duration) (time.Duration, error) {
	return 0, errors.New("sensor: not supported")
}

// Close is not implemented on non-Linux platforms.
func (p *RealPulser) Close() error {
	return nil
}
