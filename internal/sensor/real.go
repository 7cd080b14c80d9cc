//go:build linux && !baremetal

package sensor

import (
	"fmt"
	"time"

	"github.com/sweeney/range-sensor/internal/fault"
	"github.com/warthog618/go-gpiocdev"
)

// RealPulser drives an HC-SR04 using the Linux GPIO character device.
// Echo edges are timestamped by the kernel, so the pulse width does not
// depend on scheduling latency.
type RealPulser struct {
	chip   *gpiocdev.Chip
	trig   *gpiocdev.Line
	echo   *gpiocdev.Line
	events chan gpiocdev.LineEvent
}

// NewRealPulser requests the trigger and echo lines on the named chip.
func NewRealPulser(chip string, pinTrigger, pinEcho int) (*RealPulser, error) {
	c, err := gpiocdev.NewChip(chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	p := &RealPulser{
		chip:   c,
		events: make(chan gpiocdev.LineEvent, 8),
	}

	trig, err := c.RequestLine(pinTrigger, gpiocdev.AsOutput(0))
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("request trigger pin %d: %w", pinTrigger, err)
	}

	echo, err := c.RequestLine(pinEcho,
		gpiocdev.WithPullDown,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(p.onEdge))
	if err != nil {
		trig.Close()
		c.Close()
		return nil, fmt.Errorf("request echo pin %d: %w", pinEcho, err)
	}

	p.trig = trig
	p.echo = echo
	return p, nil
}

// onEdge runs on the gpiocdev watcher goroutine.
func (p *RealPulser) onEdge(evt gpiocdev.LineEvent) {
	select {
	case p.events <- evt:
	default:
		// Edges nobody is waiting for are dropped.
	}
}

// Trigger holds the trigger low for 2µs then high for 10µs.
func (p *RealPulser) Trigger() error {
	p.drain()
	if err := p.trig.SetValue(0); err != nil {
		return fmt.Errorf("set trigger low: %w", err)
	}
	time.Sleep(2 * time.Microsecond)
	if err := p.trig.SetValue(1); err != nil {
		return fmt.Errorf("set trigger high: %w", err)
	}
	time.Sleep(10 * time.Microsecond)
	if err := p.trig.SetValue(0); err != nil {
		return fmt.Errorf("set trigger low: %w", err)
	}
	return nil
}

// MeasureEcho waits for a rising then falling echo edge within timeout.
func (p *RealPulser) MeasureEcho(timeout time.Duration) (time.Duration, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var rise time.Duration
	rose := false
	for {
		select {
		case evt := <-p.events:
			switch evt.Type {
			case gpiocdev.LineEventRisingEdge:
				rise = evt.Timestamp
				rose = true
			case gpiocdev.LineEventFallingEdge:
				if rose {
					return evt.Timestamp - rise, nil
				}
			}
		case <-timer.C:
			msg := "no rising edge"
			if rose {
				msg = "no falling edge"
			}
			return 0, &fault.E{C: fault.SensorTimeout, Op: "measure echo", Msg: msg}
		}
	}
}

func (p *RealPulser) drain() {
	for {
		select {
		case <-p.events:
		default:
			return
		}
	}
}

// Close releases GPIO resources.
// The trigger is reconfigured as an input so the module is left idle.
func (p *RealPulser) Close() error {
	var errs []error

	if p.trig != nil {
		if err := p.trig.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure trigger pin: %w", err))
		}
		if err := p.trig.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close trigger pin: %w", err))
		}
	}
	if p.echo != nil {
		if err := p.echo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close echo pin: %w", err))
		}
	}
	if p.chip != nil {
		if err := p.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
