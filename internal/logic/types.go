// Package logic contains the pure decision logic shared by the range-sensor programs.
// This package has NO external dependencies (no GPIO, network, radio, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import (
	"fmt"
	"math"
	"time"
)

// Distance is a range reading in centimetres.
type Distance float32

// NoReading is returned by samplers when no echo arrived within the timeout.
// It must never be treated as an in-range distance.
const NoReading Distance = -1

// Valid reports whether d is a real reading.
func (d Distance) Valid() bool {
	return d > 0
}

// String formats the distance with two decimals, the way it goes on the wire.
func (d Distance) String() string {
	return fmt.Sprintf("%.2f", float32(d))
}

// Speed of sound in cm/µs, halved on conversion for the round trip.
const soundCmPerMicro = 0.0343

// DistanceFromEcho converts an echo pulse width into a distance, rounded to
// the micrometre. Non-positive widths mean no echo and yield NoReading.
func DistanceFromEcho(echo time.Duration) Distance {
	if echo <= 0 {
		return NoReading
	}
	us := float64(echo.Nanoseconds()) / 1e3
	cm := us * soundCmPerMicro / 2
	return Distance(math.Round(cm*1e4) / 1e4)
}

// Phase selects the active power strategy of the phased uploader.
type Phase uint8

const (
	PhaseA Phase = iota // periodic upload
	PhaseB              // conditional upload
)

func (p Phase) String() string {
	switch p {
	case PhaseA:
		return "A"
	case PhaseB:
		return "B"
	}
	return fmt.Sprintf("Phase(%d)", uint8(p))
}

// Upload tags, one per strategy.
const (
	TagPeriodic    = "A_periodic"
	TagConditional = "B_conditional"
)

// PersistentState survives power-down between activations.
// The zero value is the power-on state.
type PersistentState struct {
	Phase     Phase
	WakeCount uint32
}

// Limits holds the number of activations each phase runs before flipping.
type Limits struct {
	A uint32
	B uint32
}

// Decision is the outcome of planning one activation.
type Decision struct {
	Phase  Phase
	Tag    string
	Upload bool
}

// Edge is a connection state transition.
type Edge int

const (
	EdgeNone Edge = iota
	EdgeAttached
	EdgeDetached
)

func (e Edge) String() string {
	switch e {
	case EdgeAttached:
		return "ATTACHED"
	case EdgeDetached:
		return "DETACHED"
	}
	return "NONE"
}
