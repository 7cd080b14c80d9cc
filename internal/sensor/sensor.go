// Package sensor provides ultrasonic range sampling with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package sensor

import (
	"fmt"
	"log"
	"time"

	"github.com/sweeney/range-sensor/internal/fault"
	"github.com/sweeney/range-sensor/internal/logic"
)

// Pulser drives the trigger and times the echo of an HC-SR04 style module.
type Pulser interface {
	// Trigger emits one trigger pulse.
	Trigger() error

	// MeasureEcho returns the width of the next echo pulse.
	// Returns an error coded fault.SensorTimeout if no complete pulse is
	// observed within timeout.
	MeasureEcho(timeout time.Duration) (time.Duration, error)

	// Close releases hardware resources.
	Close() error
}

// Pin definitions (BCM numbering)
const (
	DefaultPinTrigger = 23
	DefaultPinEcho    = 24
)

// DefaultTimeout bounds the echo wait (~5m of range).
const DefaultTimeout = 30 * time.Millisecond

// Sampler turns trigger/echo cycles into distances.
type Sampler struct {
	pulser  Pulser
	timeout time.Duration
}

// NewSampler creates a sampler over p. A non-positive timeout uses DefaultTimeout.
func NewSampler(p Pulser, timeout time.Duration) *Sampler {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Sampler{pulser: p, timeout: timeout}
}

// Sample takes one measurement. On failure it returns logic.NoReading and the cause.
func (s *Sampler) Sample() (logic.Distance, error) {
	if err := s.pulser.Trigger(); err != nil {
		return logic.NoReading, fmt.Errorf("trigger: %w", err)
	}
	echo, err := s.pulser.MeasureEcho(s.timeout)
	if err != nil {
		return logic.NoReading, err
	}
	if echo > s.timeout {
		return logic.NoReading, &fault.E{C: fault.SensorTimeout, Op: "measure echo", Msg: fmt.Sprintf("pulse %v exceeds %v", echo, s.timeout)}
	}
	return logic.DistanceFromEcho(echo), nil
}

// Read takes one measurement, logging and absorbing any failure.
// Callers must check Valid() on the result.
func (s *Sampler) Read() logic.Distance {
	d, err := s.Sample()
	if err != nil {
		log.Printf("sensor: %v", err)
	}
	return d
}
