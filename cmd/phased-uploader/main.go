// Command phased-uploader samples an ultrasonic sensor once per wake and
// uploads readings under two alternating power strategies.
//
// The "ip" payload field is NETWORK_IP from the pi-helper environment
// (/run/pi-helper.env) when NETWORK_STATUS is set, otherwise the first
// non-loopback IPv4 address of the host.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/range-sensor/internal/config"
	"github.com/sweeney/range-sensor/internal/console"
	"github.com/sweeney/range-sensor/internal/fault"
	"github.com/sweeney/range-sensor/internal/logic"
	"github.com/sweeney/range-sensor/internal/power"
	"github.com/sweeney/range-sensor/internal/sensor"
	"github.com/sweeney/range-sensor/internal/state"
	"github.com/sweeney/range-sensor/internal/status"
	"github.com/sweeney/range-sensor/internal/uplink"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (defaults when empty or missing)")
	once := flag.Bool("once", false, "Run a single activation and exit")
	printState := flag.Bool("print-state", false, "Print persisted state and one reading, then exit")
	backend := flag.String("backend", "", `Uplink backend override ("mqtt", "rtdb" or "influx")`)
	broker := flag.String("broker", "", "MQTT broker address override")
	stateFile := flag.String("state", "", "State file override")
	consolePort := flag.String("console", "", "Serial port to mirror the log to")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	if *backend != "" {
		cfg.Uploader.Backend = *backend
	}
	if *broker != "" {
		cfg.MQTT.Broker = *broker
	}
	if *stateFile != "" {
		cfg.Uploader.StateFile = *stateFile
	}
	if *consolePort != "" {
		cfg.Console.Port = *consolePort
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("fatal: invalid config: %v", err)
	}

	if err := run(cfg, *once, *printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg *config.Config, once, printState bool) error {
	closeConsole, err := console.Setup(cfg.Console.Port, cfg.Console.Baud)
	if err != nil {
		return fmt.Errorf("init console: %w", err)
	}
	defer closeConsole()

	pulser, err := sensor.NewRealPulser(cfg.Sensor.Chip, cfg.Sensor.TriggerPin, cfg.Sensor.EchoPin)
	if err != nil {
		return fmt.Errorf("init sensor: %w", err)
	}
	defer pulser.Close()
	sampler := sensor.NewSampler(pulser, cfg.Sensor.Timeout)

	store := state.NewFileStore(cfg.Uploader.StateFile)

	if printState {
		s, err := store.Load()
		if err != nil {
			return fmt.Errorf("load state: %w", err)
		}
		d, err := sampler.Sample()
		if err != nil {
			fmt.Printf("Phase: %s, Wake count: %d, Distance: %v\n", s.Phase, s.WakeCount, err)
			return nil
		}
		fmt.Printf("Phase: %s, Wake count: %d, Distance: %s cm\n", s.Phase, s.WakeCount, d)
		return nil
	}

	up, err := newUplink(cfg)
	if err != nil {
		return err
	}

	startTime := time.Now()
	a := &activation{
		store:   store,
		sampler: sampler,
		uplink:  up,
		sleeper: power.TimerSleeper{},
		cfg:     cfg.Uploader,
		uptime:  func() time.Duration { return time.Since(startTime) },
		ip:      localIP,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		s := <-sigCh
		log.Printf("received %v, shutting down", s)
		cancel()
	}()

	log.Printf("started: backend=%s path=%s threshold=%.0fcm A=%v/%d B=%v/%d",
		cfg.Uploader.Backend, cfg.Uploader.Path, cfg.Uploader.ThresholdCm,
		cfg.Uploader.PhaseA.Sleep, cfg.Uploader.PhaseA.Cycles,
		cfg.Uploader.PhaseB.Sleep, cfg.Uploader.PhaseB.Cycles)

	return runLoop(ctx, a, once)
}

func newUplink(cfg *config.Config) (uplink.Uplink, error) {
	switch cfg.Uploader.Backend {
	case "mqtt":
		return uplink.NewMQTTUplink(cfg.MQTT.Broker, cfg.MQTT.ClientID, cfg.MQTT.TopicPrefix), nil
	case "rtdb":
		return uplink.NewRTDBUplink(uplink.RTDBConfig{
			URL:      cfg.RTDB.URL,
			APIKey:   cfg.RTDB.APIKey,
			Email:    cfg.RTDB.Email,
			Password: cfg.RTDB.Password,
			AuthURL:  cfg.RTDB.AuthURL,
		}), nil
	case "influx":
		return uplink.NewInfluxUplink(uplink.InfluxConfig{
			URL:         cfg.Influx.URL,
			Token:       cfg.Influx.Token,
			Org:         cfg.Influx.Org,
			Bucket:      cfg.Influx.Bucket,
			Measurement: cfg.Influx.Measurement,
		}), nil
	}
	return nil, fmt.Errorf("unknown uploader backend %q", cfg.Uploader.Backend)
}

var interfaceAddrs = net.InterfaceAddrs

// localIP reports the address pi-helper last wrote, falling back to the
// host's interfaces.
func localIP() string {
	if info := status.NetworkFromEnv(); info != nil && info.IP != "" {
		return info.IP
	}
	addrs, err := interfaceAddrs()
	if err != nil {
		log.Printf("network: interface addresses: %v", err)
		return ""
	}
	return status.FirstIPv4(addrs)
}

// activation holds the collaborators of one wake cycle.
type activation struct {
	store   state.Store
	sampler *sensor.Sampler
	uplink  uplink.Uplink
	sleeper power.Sleeper
	cfg     config.UploaderConfig
	uptime  func() time.Duration
	ip      func() string
}

func (a *activation) limits() logic.Limits {
	return logic.Limits{A: a.cfg.PhaseA.Cycles, B: a.cfg.PhaseB.Cycles}
}

func (a *activation) sleepFor(p logic.Phase) time.Duration {
	if p == logic.PhaseB {
		return a.cfg.PhaseB.Sleep
	}
	return a.cfg.PhaseA.Sleep
}

// runLoop repeats activations until ctx is cancelled. With once set it
// returns after the first activation, skipping the power-down.
func runLoop(ctx context.Context, a *activation, once bool) error {
	for {
		_, err := runActivation(ctx, a, !once)
		if once {
			return err
		}
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// runActivation runs one wake cycle from the top. Failures of the sensor,
// the store or the uplink are logged and absorbed; only a cancelled
// power-down is returned.
func runActivation(ctx context.Context, a *activation, sleep bool) (logic.Decision, error) {
	// The radio starts every activation off, whatever state it was left in.
	if err := a.uplink.Off(); err != nil {
		log.Printf("uplink: off: %v", err)
	}

	prev, err := a.store.Load()
	if err != nil {
		log.Printf("state: load: %v", err)
	}
	next, phase := logic.Advance(prev, a.limits())
	if err := a.store.Save(next); err != nil {
		log.Printf("state: save: %v", err)
	}
	log.Printf("state: phase=%s wake=%d", phase, next.WakeCount)

	d := a.sampler.Read()
	decision := logic.Plan(phase, d, logic.Distance(a.cfg.ThresholdCm))

	switch {
	case decision.Upload:
		upload(ctx, a, decision, d)
	case !d.Valid():
		log.Printf("activation: skip upload, no valid reading")
	default:
		log.Printf("activation: skip upload, distance %s cm above %.0f cm", d, a.cfg.ThresholdCm)
	}

	if err := a.uplink.Off(); err != nil {
		log.Printf("uplink: off: %v", err)
	}

	if !sleep {
		return decision, nil
	}
	log.Printf("power: down for %v", a.sleepFor(phase))
	return decision, a.sleeper.PowerDownFor(ctx, a.sleepFor(phase))
}

func upload(ctx context.Context, a *activation, decision logic.Decision, d logic.Distance) {
	attachCtx, cancel := context.WithTimeout(ctx, a.cfg.AttachTimeout+a.cfg.ReadyTimeout)
	defer cancel()
	if err := a.uplink.Connect(attachCtx); err != nil {
		log.Printf("uplink: %s: %v", fault.Of(err), err)
		return
	}

	payload, err := uplink.FormatPayload(uplink.NewRecord(decision.Tag, d, a.uptime(), a.ip()))
	if err != nil {
		log.Printf("uplink: format payload: %v", err)
		return
	}

	writeCtx, cancelWrite := context.WithTimeout(ctx, a.cfg.ReadyTimeout)
	defer cancelWrite()
	if err := a.uplink.Upload(writeCtx, a.cfg.Path, payload); err != nil {
		log.Printf("uplink: %s: %v", fault.Of(err), err)
		return
	}
	log.Printf("uplink: wrote %s %s", a.cfg.Path, payload)
}
