// Package status provides a thread-safe status tracker for the filtering notifier.
// It is read by the HTTP status page.
package status

import (
	"net"
	"os"
	"sync"
	"time"

	"github.com/sweeney/range-sensor/internal/logic"
)

// NetworkInfo contains network state.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	EnvNetworkType       = "NETWORK_TYPE"
	EnvNetworkIP         = "NETWORK_IP"
	EnvNetworkStatus     = "NETWORK_STATUS"
	EnvNetworkGateway    = "NETWORK_GATEWAY"
	EnvNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	EnvNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

// NetworkFromEnv reads network info exported by pi-helper.
// Returns nil when NETWORK_STATUS is unset.
func NetworkFromEnv() *NetworkInfo {
	s := os.Getenv(EnvNetworkStatus)
	if s == "" {
		return nil
	}
	return &NetworkInfo{
		Type:       os.Getenv(EnvNetworkType),
		IP:         os.Getenv(EnvNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(EnvNetworkGateway),
		WifiStatus: os.Getenv(EnvNetworkWifiStatus),
		SSID:       os.Getenv(EnvNetworkWifiSSID),
	}
}

// FirstIPv4 returns the first non-loopback IPv4 address in addrs, or "".
func FirstIPv4(addrs []net.Addr) string {
	for _, a := range addrs {
		ipn, ok := a.(*net.IPNet)
		if !ok || ipn.IP.IsLoopback() {
			continue
		}
		if v4 := ipn.IP.To4(); v4 != nil {
			return v4.String()
		}
	}
	return ""
}

// Config contains notifier configuration for display.
type Config struct {
	Window      int
	ThresholdCm float32
	IntervalMs  int64
	LoopDelayMs int64
	DeviceName  string
	HTTPAddr    string
}

// Counts tracks loop activity since startup.
type Counts struct {
	Samples        int
	SensorTimeouts int
	Notifications  int
	NotifyErrors   int
	Attaches       int
	Detaches       int
}

// Snapshot is a point-in-time view of notifier state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Raw        logic.Distance
	Filtered   logic.Distance
	HaveValue  bool // false until the first valid reading
	Filled     bool // filter window full
	Connected  bool
	Counts     Counts
	LastNotify time.Time
	StartTime  time.Time
	Now        time.Time
	Network    *NetworkInfo
	Config     Config
}

// Uptime returns the duration since the notifier started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable notifier state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// UpdateReading records the latest raw and filtered values.
// Called from the notifier loop after every valid reading.
func (t *Tracker) UpdateReading(raw, filtered logic.Distance, filled bool) {
	t.mu.Lock()
	t.snap.Raw = raw
	t.snap.Filtered = filtered
	t.snap.Filled = filled
	t.snap.HaveValue = true
	t.mu.Unlock()
}

// SetConnected sets the peer link state.
func (t *Tracker) SetConnected(connected bool) {
	t.mu.Lock()
	t.snap.Connected = connected
	t.mu.Unlock()
}

// SetCounts replaces the activity counters.
func (t *Tracker) SetCounts(c Counts) {
	t.mu.Lock()
	t.snap.Counts = c
	t.mu.Unlock()
}

// SetLastNotify records when the last notification was sent.
func (t *Tracker) SetLastNotify(at time.Time) {
	t.mu.Lock()
	t.snap.LastNotify = at
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the notifier state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
