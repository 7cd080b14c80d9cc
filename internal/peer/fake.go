package peer

import (
	"sync"

	"github.com/sweeney/range-sensor/internal/fault"
)

// FakePeer records notifications for test assertions.
// Attach and Detach simulate the stack's callbacks.
type FakePeer struct {
	mu sync.Mutex

	connected bool

	// Notifications contains every value pushed to an attached peer.
	Notifications []string

	// AdvertiseCalls counts Advertise calls.
	AdvertiseCalls int

	// NotifyError, if set, will be returned by Notify.
	NotifyError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakePeer creates a detached FakePeer.
func NewFakePeer() *FakePeer {
	return &FakePeer{}
}

// Attach simulates a peer attaching.
func (f *FakePeer) Attach() {
	f.mu.Lock()
	f.connected = true
	f.mu.Unlock()
}

// Detach simulates the peer going away.
func (f *FakePeer) Detach() {
	f.mu.Lock()
	f.connected = false
	f.mu.Unlock()
}

// Connected reports the simulated link state.
func (f *FakePeer) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

// Notify records value.
func (f *FakePeer) Notify(value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.NotifyError != nil {
		return f.NotifyError
	}
	if !f.connected {
		return &fault.E{C: fault.PeerUnavailable, Op: "notify"}
	}
	f.Notifications = append(f.Notifications, value)
	return nil
}

// Advertise records the call.
func (f *FakePeer) Advertise() error {
	f.mu.Lock()
	f.AdvertiseCalls++
	f.mu.Unlock()
	return nil
}

// Close marks the peer as closed.
func (f *FakePeer) Close() error {
	f.mu.Lock()
	f.Closed = true
	f.mu.Unlock()
	return nil
}
