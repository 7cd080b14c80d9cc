package logic

import "time"

// Notifier defaults.
const (
	DefaultNotifyInterval  = 1000 * time.Millisecond
	DefaultNotifyThreshold = Distance(30)
)

// NotifyLimiter gates notifications to an attached peer.
// An attempt is recorded each time the interval elapses while attached,
// whether or not the value was below threshold.
type NotifyLimiter struct {
	interval    time.Duration
	threshold   Distance
	lastAttempt time.Time
	attempted   bool
	sent        int
}

// NewNotifyLimiter creates a limiter with the given interval and threshold.
func NewNotifyLimiter(interval time.Duration, threshold Distance) *NotifyLimiter {
	return &NotifyLimiter{interval: interval, threshold: threshold}
}

// Allow reports whether filtered should be sent to the peer at now.
func (l *NotifyLimiter) Allow(now time.Time, connected bool, filtered Distance) bool {
	if !connected {
		return false
	}
	if l.attempted && now.Sub(l.lastAttempt) < l.interval {
		return false
	}
	l.lastAttempt = now
	l.attempted = true
	if filtered >= l.threshold {
		return false
	}
	l.sent++
	return true
}

// Sent returns the number of notifications allowed so far.
func (l *NotifyLimiter) Sent() int {
	return l.sent
}

// ConnectionState tracks peer attach/detach edges.
type ConnectionState struct {
	connected bool
}

// Observe records the current link state and returns the edge, if any.
// Repeated observations of the same state return EdgeNone.
func (c *ConnectionState) Observe(connected bool) Edge {
	if connected == c.connected {
		return EdgeNone
	}
	c.connected = connected
	if connected {
		return EdgeAttached
	}
	return EdgeDetached
}

// Connected returns the last observed state.
func (c *ConnectionState) Connected() bool {
	return c.connected
}
