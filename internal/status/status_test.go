package status

import (
	"encoding/json"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/range-sensor/internal/logic"
)

func TestNewTracker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{Window: 5, ThresholdCm: 30, IntervalMs: 1000, HTTPAddr: ":8080"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Config.Window != 5 {
		t.Errorf("Config.Window: got %d, want 5", snap.Config.Window)
	}
	if snap.Config.HTTPAddr != ":8080" {
		t.Errorf("Config.HTTPAddr: got %q, want %q", snap.Config.HTTPAddr, ":8080")
	}
	if snap.HaveValue {
		t.Error("expected HaveValue=false initially")
	}
	if snap.Connected {
		t.Error("expected Connected=false initially")
	}
}

func TestUpdateReadingAndSnapshot(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.UpdateReading(22.5, 25, false)
	tr.SetCounts(Counts{Samples: 3, SensorTimeouts: 1})

	snap := tr.Snapshot()
	if snap.Raw != 22.5 {
		t.Errorf("Raw: got %v, want 22.5", snap.Raw)
	}
	if snap.Filtered != 25 {
		t.Errorf("Filtered: got %v, want 25", snap.Filtered)
	}
	if !snap.HaveValue {
		t.Error("expected HaveValue=true")
	}
	if snap.Filled {
		t.Error("expected Filled=false")
	}
	if snap.Counts.Samples != 3 || snap.Counts.SensorTimeouts != 1 {
		t.Errorf("Counts: got %+v", snap.Counts)
	}
}

func TestSetConnected(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.SetConnected(true)
	if !tr.Snapshot().Connected {
		t.Error("expected Connected=true")
	}

	tr.SetConnected(false)
	if tr.Snapshot().Connected {
		t.Error("expected Connected=false")
	}
}

func TestSetNetwork(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	if tr.Snapshot().Network != nil {
		t.Error("expected nil Network initially")
	}

	net := &NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected"}
	tr.SetNetwork(net)

	snap := tr.Snapshot()
	if snap.Network == nil || snap.Network.IP != "192.168.1.42" {
		t.Errorf("Network: got %+v", snap.Network)
	}
}

func TestSnapshotUptime(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		StartTime: start,
		Now:       start.Add(15 * time.Minute),
	}

	if snap.Uptime() != 15*time.Minute {
		t.Errorf("Uptime: got %v, want 15m", snap.Uptime())
	}
}

func TestSnapshotNowIsSet(t *testing.T) {
	tr := NewTracker(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Config{})

	before := time.Now()
	snap := tr.Snapshot()
	after := time.Now()

	if snap.Now.Before(before) || snap.Now.After(after) {
		t.Errorf("Now (%v) not between %v and %v", snap.Now, before, after)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.UpdateReading(10, 10, false)

	snap1 := tr.Snapshot()

	tr.UpdateReading(20, 15, false)

	if snap1.Raw != 10 {
		t.Error("snapshot should be a copy; Raw was modified")
	}
}

func TestFormatJSON(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Raw:        12.5,
		Filtered:   14.25,
		HaveValue:  true,
		Filled:     true,
		Connected:  true,
		Counts:     Counts{Samples: 9, Notifications: 2, Attaches: 1},
		LastNotify: start.Add(30 * time.Second),
		StartTime:  start,
		Now:        start.Add(90*time.Second + 500*time.Millisecond),
		Config:     Config{Window: 5, ThresholdCm: 30, IntervalMs: 1000, LoopDelayMs: 1000, DeviceName: "RangeSensor", HTTPAddr: ":8080"},
	}

	var parsed StatusJSON
	if err := json.Unmarshal(FormatJSON(snap), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	s := parsed.Status
	if s.RawCm == nil || *s.RawCm != 12.5 {
		t.Errorf("RawCm: got %v, want 12.5", s.RawCm)
	}
	if s.FilteredCm == nil || *s.FilteredCm != 14.25 {
		t.Errorf("FilteredCm: got %v, want 14.25", s.FilteredCm)
	}
	if !s.Connected || !s.FilterFilled {
		t.Errorf("Connected/FilterFilled: got %v/%v", s.Connected, s.FilterFilled)
	}
	if s.UptimeSeconds != 90 {
		t.Errorf("UptimeSeconds: got %d, want 90", s.UptimeSeconds)
	}
	if s.StartTime != "2026-01-01T00:00:00Z" {
		t.Errorf("StartTime: got %q", s.StartTime)
	}
	if s.LastNotify != "2026-01-01T00:00:30Z" {
		t.Errorf("LastNotify: got %q", s.LastNotify)
	}
	if s.Counts.Samples != 9 || s.Counts.Notifications != 2 || s.Counts.Attaches != 1 {
		t.Errorf("Counts: got %+v", s.Counts)
	}
	if s.Config.DeviceName != "RangeSensor" || s.Config.ThresholdCm != 30 {
		t.Errorf("Config: got %+v", s.Config)
	}
	if s.Network != nil {
		t.Error("expected network omitted when nil")
	}
}

func TestFormatJSONNoReadingYet(t *testing.T) {
	snap := Snapshot{StartTime: time.Now(), Now: time.Now()}

	var raw map[string]map[string]any
	if err := json.Unmarshal(FormatJSON(snap), &raw); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if v, ok := raw["status"]["raw_cm"]; !ok || v != nil {
		t.Errorf("raw_cm: expected null, got %v", v)
	}
	if _, ok := raw["status"]["last_notify"]; ok {
		t.Error("last_notify should be omitted before the first notification")
	}
}

func TestFormatJSONWithNetwork(t *testing.T) {
	snap := Snapshot{
		StartTime: time.Now(),
		Now:       time.Now(),
		Network:   &NetworkInfo{Type: "wifi", IP: "10.0.0.5", Status: "connected", SSID: "MyNet"},
	}

	var parsed StatusJSON
	if err := json.Unmarshal(FormatJSON(snap), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.Network == nil {
		t.Fatal("expected network in JSON")
	}
	if parsed.Status.Network.SSID != "MyNet" {
		t.Errorf("Network.SSID: got %q, want MyNet", parsed.Status.Network.SSID)
	}
}

// TestEnvVarNames verifies the env var constants match what pi-helper writes
// to /run/pi-helper.env. If pi-helper changes its var names, this test fails
// and we update the constants, not the other way around.
func TestEnvVarNames(t *testing.T) {
	want := map[string]string{
		"NETWORK_TYPE":        EnvNetworkType,
		"NETWORK_IP":          EnvNetworkIP,
		"NETWORK_STATUS":      EnvNetworkStatus,
		"NETWORK_GATEWAY":     EnvNetworkGateway,
		"NETWORK_WIFI_STATUS": EnvNetworkWifiStatus,
		"NETWORK_WIFI_SSID":   EnvNetworkWifiSSID,
	}
	for canonical, got := range want {
		if got != canonical {
			t.Errorf("env var constant: got %q, want %q", got, canonical)
		}
	}
}

func TestNetworkFromEnvAllSet(t *testing.T) {
	t.Setenv(EnvNetworkType, "wifi")
	t.Setenv(EnvNetworkIP, "192.168.1.100")
	t.Setenv(EnvNetworkStatus, "connected")
	t.Setenv(EnvNetworkGateway, "192.168.1.1")
	t.Setenv(EnvNetworkWifiStatus, "connected")
	t.Setenv(EnvNetworkWifiSSID, "MyNetwork")

	info := NetworkFromEnv()
	if info == nil {
		t.Fatal("expected non-nil NetworkInfo")
	}
	want := NetworkInfo{
		Type:       "wifi",
		IP:         "192.168.1.100",
		Status:     "connected",
		Gateway:    "192.168.1.1",
		WifiStatus: "connected",
		SSID:       "MyNetwork",
	}
	if *info != want {
		t.Errorf("got %+v, want %+v", *info, want)
	}
}

func TestNetworkFromEnvNoneSet(t *testing.T) {
	t.Setenv(EnvNetworkStatus, "")
	if info := NetworkFromEnv(); info != nil {
		t.Errorf("expected nil when NETWORK_STATUS is unset, got %+v", info)
	}
}

func TestFirstIPv4(t *testing.T) {
	addrs := []net.Addr{
		&net.IPAddr{IP: net.IPv4(10, 1, 1, 1)},
		&net.IPNet{IP: net.IPv6loopback, Mask: net.CIDRMask(128, 128)},
		&net.IPNet{IP: net.IPv4(127, 0, 0, 1), Mask: net.CIDRMask(8, 32)},
		&net.IPNet{IP: net.IPv4(172, 16, 0, 5), Mask: net.CIDRMask(16, 32)},
		&net.IPNet{IP: net.IPv4(172, 16, 0, 6), Mask: net.CIDRMask(16, 32)},
	}
	if got := FirstIPv4(addrs); got != "172.16.0.5" {
		t.Errorf("FirstIPv4: got %q, want 172.16.0.5", got)
	}
	if got := FirstIPv4(addrs[1:3]); got != "" {
		t.Errorf("FirstIPv4 loopback only: got %q, want empty", got)
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	var wg sync.WaitGroup

	// Writer
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			tr.UpdateReading(logic.Distance(i), logic.Distance(i), i > 5)
			tr.SetConnected(i%2 == 0)
			tr.SetCounts(Counts{Samples: i})
			tr.SetNetwork(&NetworkInfo{IP: "1.2.3.4"})
		}
	}()

	// Reader
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			snap := tr.Snapshot()
			_ = snap.Uptime()
			_ = FormatJSON(snap)
		}
	}()

	wg.Wait()
}
