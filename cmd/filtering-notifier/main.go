// Command filtering-notifier smooths ultrasonic readings with a moving
// average and notifies an attached BLE peer when something is close.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/range-sensor/internal/config"
	"github.com/sweeney/range-sensor/internal/console"
	"github.com/sweeney/range-sensor/internal/logic"
	"github.com/sweeney/range-sensor/internal/peer"
	"github.com/sweeney/range-sensor/internal/sensor"
	"github.com/sweeney/range-sensor/internal/status"
	"github.com/sweeney/range-sensor/internal/web"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (defaults when empty or missing)")
	httpAddr := flag.String("http", "=config", `HTTP status address ("=config" uses the config file, empty disables)`)
	name := flag.String("name", "", "Advertised device name override")
	consolePort := flag.String("console", "", "Serial port to mirror the log to")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
	if *httpAddr != "=config" {
		cfg.Notifier.HTTPAddr = *httpAddr
	}
	if *name != "" {
		cfg.Notifier.DeviceName = *name
	}
	if *consolePort != "" {
		cfg.Console.Port = *consolePort
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("fatal: invalid config: %v", err)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg *config.Config) error {
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

	ncfg := cfg.Notifier
	p, err := peer.NewBLEPeer(ncfg.DeviceName, ncfg.ServiceUUID, ncfg.CharacteristicUUID)
	if err != nil {
		return fmt.Errorf("init peer: %w", err)
	}
	defer p.Close()

	tracker := status.NewTracker(time.Now(), status.Config{
		Window:      ncfg.Window,
		ThresholdCm: ncfg.ThresholdCm,
		IntervalMs:  ncfg.Interval.Milliseconds(),
		LoopDelayMs: ncfg.LoopDelay.Milliseconds(),
		DeviceName:  ncfg.DeviceName,
		HTTPAddr:    ncfg.HTTPAddr,
	})
	if info := status.NetworkFromEnv(); info != nil {
		tracker.SetNetwork(info)
	}

	if ncfg.HTTPAddr != "" {
		srv := web.New(ncfg.HTTPAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", ncfg.HTTPAddr)
	}

	if err := p.Advertise(); err != nil {
		return fmt.Errorf("advertise: %w", err)
	}
	log.Printf("started: name=%s window=%d threshold=%.0fcm interval=%v",
		ncfg.DeviceName, ncfg.Window, ncfg.ThresholdCm, ncfg.Interval)

	n := newNotifier(sensor.NewSampler(pulser, cfg.Sensor.Timeout), p, tracker, ncfg)

	ticker := time.NewTicker(ncfg.LoopDelay)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(n, time.Now, ticker.C, sigCh)
}

// notifier holds the loop state of the filtering notifier.
type notifier struct {
	sampler *sensor.Sampler
	peer    peer.Peer
	tracker *status.Tracker

	filter  *logic.MovingAverage
	limiter *logic.NotifyLimiter
	conn    logic.ConnectionState
	counts  status.Counts

	readvertiseDelay time.Duration
	wait             func(time.Duration)
}

func newNotifier(s *sensor.Sampler, p peer.Peer, tracker *status.Tracker, cfg config.NotifierConfig) *notifier {
	return &notifier{
		sampler:          s,
		peer:             p,
		tracker:          tracker,
		filter:           logic.NewMovingAverage(cfg.Window),
		limiter:          logic.NewNotifyLimiter(cfg.Interval, logic.Distance(cfg.ThresholdCm)),
		readvertiseDelay: cfg.ReadvertiseDelay,
		wait:             time.Sleep,
	}
}

func runLoop(n *notifier, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			return nil

		case <-tick:
			n.step(now())
		}
	}
}

// step runs one loop iteration at t.
func (n *notifier) step(t time.Time) {
	n.counts.Samples++
	raw, err := n.sampler.Sample()
	if err != nil {
		n.counts.SensorTimeouts++
		log.Printf("sensor: %v", err)
	} else {
		filtered := n.filter.Filter(raw)
		log.Printf("Raw: %s cm | Filtered: %s cm", raw, filtered)

		if n.limiter.Allow(t, n.peer.Connected(), filtered) {
			if err := n.peer.Notify(filtered.String()); err != nil {
				n.counts.NotifyErrors++
				log.Printf("peer: notify: %v", err)
			} else {
				n.counts.Notifications++
				log.Printf("peer: notified %s", filtered)
				if n.tracker != nil {
					n.tracker.SetLastNotify(t)
				}
			}
		}
		if n.tracker != nil {
			n.tracker.UpdateReading(raw, filtered, n.filter.Filled())
		}
	}

	switch edge := n.conn.Observe(n.peer.Connected()); edge {
	case logic.EdgeAttached:
		n.counts.Attaches++
		log.Printf("peer: %s", edge)
	case logic.EdgeDetached:
		n.counts.Detaches++
		log.Printf("peer: %s, advertising again in %v", edge, n.readvertiseDelay)
		n.wait(n.readvertiseDelay)
		if err := n.peer.Advertise(); err != nil {
			log.Printf("peer: advertise: %v", err)
		}
	}

	if n.tracker != nil {
		n.tracker.SetConnected(n.conn.Connected())
		n.tracker.SetCounts(n.counts)
	}
}
