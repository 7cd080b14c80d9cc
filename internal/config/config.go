// Package config loads the range-sensor configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Config represents the configuration of both programs.
type Config struct {
	Sensor   SensorConfig   `yaml:"sensor"`
	Uploader UploaderConfig `yaml:"uploader"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	RTDB     RTDBConfig     `yaml:"rtdb"`
	Influx   InfluxConfig   `yaml:"influx"`
	Notifier NotifierConfig `yaml:"notifier"`
	Console  ConsoleConfig  `yaml:"console"`
}

// SensorConfig contains the HC-SR04 wiring.
type SensorConfig struct {
	Chip       string        `yaml:"chip"`
	TriggerPin int           `yaml:"trigger_pin"`
	EchoPin    int           `yaml:"echo_pin"`
	Timeout    time.Duration `yaml:"timeout"` // Echo wait bound
}

// PhaseConfig contains one power strategy's parameters.
type PhaseConfig struct {
	Sleep  time.Duration `yaml:"sleep"`
	Cycles uint32        `yaml:"cycles"` // Activations before switching phase
}

// UploaderConfig contains the phased uploader parameters.
type UploaderConfig struct {
	Backend       string        `yaml:"backend"` // "mqtt", "rtdb" or "influx"
	Path          string        `yaml:"path"`
	StateFile     string        `yaml:"state_file"`
	ThresholdCm   float32       `yaml:"threshold_cm"`
	AttachTimeout time.Duration `yaml:"attach_timeout"`
	ReadyTimeout  time.Duration `yaml:"ready_timeout"`
	PhaseA        PhaseConfig   `yaml:"phase_a"`
	PhaseB        PhaseConfig   `yaml:"phase_b"`
}

// MQTTConfig contains the MQTT uplink settings.
type MQTTConfig struct {
	Broker      string `yaml:"broker"`
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
}

// RTDBConfig contains the realtime-database uplink settings.
type RTDBConfig struct {
	URL      string `yaml:"url"`
	APIKey   string `yaml:"api_key"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	AuthURL  string `yaml:"auth_url"`
}

// InfluxConfig contains the time-series uplink settings.
type InfluxConfig struct {
	URL         string `yaml:"url"`
	Token       string `yaml:"token"`
	Org         string `yaml:"org"`
	Bucket      string `yaml:"bucket"`
	Measurement string `yaml:"measurement"`
}

// NotifierConfig contains the filtering notifier parameters.
type NotifierConfig struct {
	Window             int           `yaml:"window"`
	ThresholdCm        float32       `yaml:"threshold_cm"`
	Interval           time.Duration `yaml:"interval"`
	LoopDelay          time.Duration `yaml:"loop_delay"`
	ReadvertiseDelay   time.Duration `yaml:"readvertise_delay"`
	DeviceName         string        `yaml:"device_name"`
	ServiceUUID        string        `yaml:"service_uuid"`
	CharacteristicUUID string        `yaml:"characteristic_uuid"`
	HTTPAddr           string        `yaml:"http_addr"` // Empty disables the status page
}

// ConsoleConfig mirrors the log to a serial port when Port is set.
type ConsoleConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Sensor: SensorConfig{
			Chip:       "gpiochip0",
			TriggerPin: 23,
			EchoPin:    24,
			Timeout:    30 * time.Millisecond,
		},
		Uploader: UploaderConfig{
			Backend:       "mqtt",
			Path:          "/lab8/ultrasonic",
			StateFile:     "/var/lib/range-sensor/state.bin",
			ThresholdCm:   50,
			AttachTimeout: 8 * time.Second,
			ReadyTimeout:  4 * time.Second,
			PhaseA:        PhaseConfig{Sleep: 10 * time.Second, Cycles: 3},
			PhaseB:        PhaseConfig{Sleep: 15 * time.Second, Cycles: 3},
		},
		MQTT: MQTTConfig{
			Broker:      "tcp://192.168.1.200:1883",
			TopicPrefix: "range-sensor",
		},
		Influx: InfluxConfig{
			Measurement: "range",
		},
		Notifier: NotifierConfig{
			Window:             5,
			ThresholdCm:        30,
			Interval:           1000 * time.Millisecond,
			LoopDelay:          1000 * time.Millisecond,
			ReadvertiseDelay:   500 * time.Millisecond,
			DeviceName:         "RangeSensor",
			ServiceUUID:        "9f60ea96-04b9-47e6-9f15-2070e3a3ce5b",
			CharacteristicUUID: "d866c44d-2845-4bce-b8b8-034dc50a8e91",
			HTTPAddr:           ":8080",
		},
		Console: ConsoleConfig{
			Baud: 115200,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values. An empty filename returns defaults.
func Load(filename string) (*Config, error) {
	cfg := Default()
	if filename == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ensureDefaults fills zero values that have no meaning with defaults.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Sensor.Chip == "" {
		c.Sensor.Chip = def.Sensor.Chip
	}
	if c.Sensor.Timeout == 0 {
		c.Sensor.Timeout = def.Sensor.Timeout
	}

	if c.Uploader.Backend == "" {
		c.Uploader.Backend = def.Uploader.Backend
	}
	if c.Uploader.Path == "" {
		c.Uploader.Path = def.Uploader.Path
	}
	if c.Uploader.StateFile == "" {
		c.Uploader.StateFile = def.Uploader.StateFile
	}
	if c.Uploader.ThresholdCm == 0 {
		c.Uploader.ThresholdCm = def.Uploader.ThresholdCm
	}
	if c.Uploader.AttachTimeout == 0 {
		c.Uploader.AttachTimeout = def.Uploader.AttachTimeout
	}
	if c.Uploader.ReadyTimeout == 0 {
		c.Uploader.ReadyTimeout = def.Uploader.ReadyTimeout
	}
	if c.Uploader.PhaseA.Sleep == 0 {
		c.Uploader.PhaseA.Sleep = def.Uploader.PhaseA.Sleep
	}
	if c.Uploader.PhaseA.Cycles == 0 {
		c.Uploader.PhaseA.Cycles = def.Uploader.PhaseA.Cycles
	}
	if c.Uploader.PhaseB.Sleep == 0 {
		c.Uploader.PhaseB.Sleep = def.Uploader.PhaseB.Sleep
	}
	if c.Uploader.PhaseB.Cycles == 0 {
		c.Uploader.PhaseB.Cycles = def.Uploader.PhaseB.Cycles
	}

	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = def.MQTT.TopicPrefix
	}

	if c.Influx.Measurement == "" {
		c.Influx.Measurement = def.Influx.Measurement
	}

	if c.Notifier.Window == 0 {
		c.Notifier.Window = def.Notifier.Window
	}
	if c.Notifier.ThresholdCm == 0 {
		c.Notifier.ThresholdCm = def.Notifier.ThresholdCm
	}
	if c.Notifier.Interval == 0 {
		c.Notifier.Interval = def.Notifier.Interval
	}
	if c.Notifier.LoopDelay == 0 {
		c.Notifier.LoopDelay = def.Notifier.LoopDelay
	}
	if c.Notifier.ReadvertiseDelay == 0 {
		c.Notifier.ReadvertiseDelay = def.Notifier.ReadvertiseDelay
	}
	if c.Notifier.DeviceName == "" {
		c.Notifier.DeviceName = def.Notifier.DeviceName
	}
	if c.Notifier.ServiceUUID == "" {
		c.Notifier.ServiceUUID = def.Notifier.ServiceUUID
	}
	if c.Notifier.CharacteristicUUID == "" {
		c.Notifier.CharacteristicUUID = def.Notifier.CharacteristicUUID
	}

	if c.Console.Baud == 0 {
		c.Console.Baud = def.Console.Baud
	}
}

// Validate reports configuration errors that would make a program misbehave.
func (c *Config) Validate() error {
	var errs []error

	if c.Sensor.TriggerPin < 0 || c.Sensor.EchoPin < 0 {
		errs = append(errs, errors.New("sensor pins must not be negative"))
	}
	if c.Sensor.TriggerPin == c.Sensor.EchoPin {
		errs = append(errs, fmt.Errorf("trigger and echo share pin %d", c.Sensor.TriggerPin))
	}
	switch c.Uploader.Backend {
	case "mqtt":
		if c.MQTT.Broker == "" {
			errs = append(errs, errors.New("mqtt backend needs a broker"))
		}
	case "rtdb":
		if c.RTDB.URL == "" {
			errs = append(errs, errors.New("rtdb backend needs a url"))
		}
	case "influx":
		if c.Influx.URL == "" || c.Influx.Bucket == "" {
			errs = append(errs, errors.New("influx backend needs a url and a bucket"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown uploader backend %q", c.Uploader.Backend))
	}
	if c.Notifier.Window < 1 {
		errs = append(errs, fmt.Errorf("notifier window %d must be at least 1", c.Notifier.Window))
	}
	if _, err := uuid.Parse(c.Notifier.ServiceUUID); err != nil {
		errs = append(errs, fmt.Errorf("service uuid: %w", err))
	}
	if _, err := uuid.Parse(c.Notifier.CharacteristicUUID); err != nil {
		errs = append(errs, fmt.Errorf("characteristic uuid: %w", err))
	}

	return errors.Join(errs...)
}
