package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	RawCm         *float32     `json:"raw_cm"`
	FilteredCm    *float32     `json:"filtered_cm"`
	FilterFilled  bool         `json:"filter_filled"`
	Connected     bool         `json:"connected"`
	LastNotify    string       `json:"last_notify,omitempty"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	Counts        CountsJSON   `json:"counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// CountsJSON is the JSON representation of activity counts.
type CountsJSON struct {
	Samples        int `json:"samples"`
	SensorTimeouts int `json:"sensor_timeouts"`
	Notifications  int `json:"notifications"`
	NotifyErrors   int `json:"notify_errors"`
	Attaches       int `json:"attaches"`
	Detaches       int `json:"detaches"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of notifier config.
type ConfigJSON struct {
	Window      int     `json:"window"`
	ThresholdCm float32 `json:"threshold_cm"`
	IntervalMs  int64   `json:"interval_ms"`
	LoopDelayMs int64   `json:"loop_delay_ms"`
	DeviceName  string  `json:"device_name"`
	HTTPAddr    string  `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		FilterFilled:  snap.Filled,
		Connected:     snap.Connected,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		Counts: CountsJSON{
			Samples:        snap.Counts.Samples,
			SensorTimeouts: snap.Counts.SensorTimeouts,
			Notifications:  snap.Counts.Notifications,
			NotifyErrors:   snap.Counts.NotifyErrors,
			Attaches:       snap.Counts.Attaches,
			Detaches:       snap.Counts.Detaches,
		},
		Config: ConfigJSON{
			Window:      snap.Config.Window,
			ThresholdCm: snap.Config.ThresholdCm,
			IntervalMs:  snap.Config.IntervalMs,
			LoopDelayMs: snap.Config.LoopDelayMs,
			DeviceName:  snap.Config.DeviceName,
			HTTPAddr:    snap.Config.HTTPAddr,
		},
	}
	if snap.HaveValue {
		raw, filtered := float32(snap.Raw), float32(snap.Filtered)
		inner.RawCm = &raw
		inner.FilteredCm = &filtered
	}
	if !snap.LastNotify.IsZero() {
		inner.LastNotify = snap.LastNotify.UTC().Format(time.RFC3339)
	}
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint.
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}
