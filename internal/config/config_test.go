package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotNil(t, cfg)
	assert.Equal(t, "gpiochip0", cfg.Sensor.Chip)
	assert.Equal(t, 30*time.Millisecond, cfg.Sensor.Timeout)
	assert.Equal(t, "mqtt", cfg.Uploader.Backend)
	assert.Equal(t, "/lab8/ultrasonic", cfg.Uploader.Path)
	assert.Equal(t, float32(50), cfg.Uploader.ThresholdCm)
	assert.Equal(t, 8*time.Second, cfg.Uploader.AttachTimeout)
	assert.Equal(t, 4*time.Second, cfg.Uploader.ReadyTimeout)
	assert.Equal(t, PhaseConfig{Sleep: 10 * time.Second, Cycles: 3}, cfg.Uploader.PhaseA)
	assert.Equal(t, PhaseConfig{Sleep: 15 * time.Second, Cycles: 3}, cfg.Uploader.PhaseB)
	assert.Equal(t, 5, cfg.Notifier.Window)
	assert.Equal(t, float32(30), cfg.Notifier.ThresholdCm)
	assert.Equal(t, time.Second, cfg.Notifier.Interval)
	assert.Equal(t, 500*time.Millisecond, cfg.Notifier.ReadvertiseDelay)
	assert.Equal(t, 115200, cfg.Console.Baud)
	assert.Equal(t, "range", cfg.Influx.Measurement)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EmptyName(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileNotExists(t *testing.T) {
	cfg, err := Load("nonexistent.yaml")
	require.NoError(t, err)
	assert.Equal(t, "gpiochip0", cfg.Sensor.Chip)
}

func TestLoad_ValidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlContent := `
sensor:
  trigger_pin: 5
  echo_pin: 6
  timeout: 25ms

uploader:
  backend: rtdb
  threshold_cm: 40
  phase_a:
    sleep: 20s
  phase_b:
    cycles: 5

rtdb:
  url: https://example-default-rtdb.firebaseio.com/
  api_key: abc

notifier:
  window: 8
  interval: 2s
  http_addr: ""
`
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Sensor.TriggerPin)
	assert.Equal(t, 6, cfg.Sensor.EchoPin)
	assert.Equal(t, 25*time.Millisecond, cfg.Sensor.Timeout)
	assert.Equal(t, "gpiochip0", cfg.Sensor.Chip)

	assert.Equal(t, "rtdb", cfg.Uploader.Backend)
	assert.Equal(t, float32(40), cfg.Uploader.ThresholdCm)
	assert.Equal(t, 20*time.Second, cfg.Uploader.PhaseA.Sleep)
	assert.Equal(t, uint32(3), cfg.Uploader.PhaseA.Cycles)
	assert.Equal(t, 15*time.Second, cfg.Uploader.PhaseB.Sleep)
	assert.Equal(t, uint32(5), cfg.Uploader.PhaseB.Cycles)
	assert.Equal(t, "abc", cfg.RTDB.APIKey)

	assert.Equal(t, 8, cfg.Notifier.Window)
	assert.Equal(t, 2*time.Second, cfg.Notifier.Interval)
	assert.Equal(t, "", cfg.Notifier.HTTPAddr)

	assert.NoError(t, cfg.Validate())
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sensor: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := Default()
	cfg.Uploader.PhaseB.Cycles = 7
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Sensor.EchoPin = cfg.Sensor.TriggerPin
	cfg.Uploader.Backend = "carrier-pigeon"
	cfg.Notifier.ServiceUUID = "not-a-uuid"
	cfg.Notifier.Window = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "share pin")
	assert.Contains(t, err.Error(), "carrier-pigeon")
	assert.Contains(t, err.Error(), "service uuid")
	assert.Contains(t, err.Error(), "window")

	cfg = Default()
	cfg.Uploader.Backend = "rtdb"
	assert.ErrorContains(t, cfg.Validate(), "rtdb backend needs a url")

	cfg = Default()
	cfg.Uploader.Backend = "influx"
	cfg.Influx.URL = "http://localhost:8086"
	assert.ErrorContains(t, cfg.Validate(), "influx backend needs a url and a bucket")
	cfg.Influx.Bucket = "sensors"
	assert.NoError(t, cfg.Validate())
}
