// Package console mirrors the process log to a serial port, the way the
// boards print diagnostics over their UART.
package console

import (
	"fmt"
	"io"
	"log"
	"os"

	"go.bug.st/serial"
)

// DefaultBaudRate matches the boards' serial console.
const DefaultBaudRate = 115200

// Open opens port for writing at baud.
func Open(port string, baud int) (io.WriteCloser, error) {
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	p, err := serial.Open(port, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", port, err)
	}
	return p, nil
}

// Mirror sends the standard logger to stderr and w.
// A failing serial write never blocks or drops the stderr copy.
func Mirror(w io.Writer) {
	log.SetOutput(io.MultiWriter(os.Stderr, &bestEffort{w: w}))
}

// Setup opens port and mirrors the log to it. An empty port is a no-op.
// The returned close function restores stderr-only logging.
func Setup(port string, baud int) (func(), error) {
	if port == "" {
		return func() {}, nil
	}
	p, err := Open(port, baud)
	if err != nil {
		return nil, err
	}
	Mirror(p)
	log.Printf("console: mirroring log to %s at %d baud", port, baud)
	return func() {
		log.SetOutput(os.Stderr)
		p.Close()
	}, nil
}

// bestEffort swallows write errors so io.MultiWriter keeps going.
type bestEffort struct {
	w      io.Writer
	failed bool
}

func (b *bestEffort) Write(p []byte) (int, error) {
	if b.failed {
		return len(p), nil
	}
	if _, err := b.w.Write(p); err != nil {
		b.failed = true
		fmt.Fprintf(os.Stderr, "console: serial write failed, mirroring stopped: %v\n", err)
	}
	return len(p), nil
}
