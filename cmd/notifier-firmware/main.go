//go:build tinygo

// Command notifier-firmware runs the filtering notifier on a BLE capable
// microcontroller board.
package main

import (
	"machine"
	"sync/atomic"
	"time"

	"github.com/sweeney/range-sensor/internal/logic"
	"github.com/sweeney/range-sensor/internal/peer"
	"tinygo.org/x/bluetooth"
	"tinygo.org/x/drivers/hcsr04"
)

// HC-SR04 wiring.
const (
	pinTrigger = machine.D4
	pinEcho    = machine.D5
)

const (
	loopDelay        = 1000 * time.Millisecond
	readvertiseDelay = 500 * time.Millisecond
)

var (
	adapter   = bluetooth.DefaultAdapter
	connected atomic.Bool
	char      bluetooth.Characteristic
)

func main() {
	// Give the USB console a moment to enumerate.
	time.Sleep(2 * time.Second)
	println("starting", peer.DefaultName)

	sensor := hcsr04.New(pinTrigger, pinEcho)
	sensor.Configure()

	must("enable adapter", adapter.Enable())
	adapter.SetConnectHandler(func(device bluetooth.Device, c bool) {
		connected.Store(c)
	})

	svcUUID, err := bluetooth.ParseUUID(peer.DefaultServiceUUID)
	must("parse service uuid", err)
	charUUID, err := bluetooth.ParseUUID(peer.DefaultCharacteristicUUID)
	must("parse characteristic uuid", err)

	must("add service", adapter.AddService(&bluetooth.Service{
		UUID: svcUUID,
		Characteristics: []bluetooth.CharacteristicConfig{{
			Handle: &char,
			UUID:   charUUID,
			Value:  []byte(peer.InitialValue),
			Flags: bluetooth.CharacteristicReadPermission |
				bluetooth.CharacteristicWritePermission |
				bluetooth.CharacteristicNotifyPermission,
		}},
	}))

	adv := adapter.DefaultAdvertisement()
	must("configure advertisement", adv.Configure(bluetooth.AdvertisementOptions{
		LocalName:    peer.DefaultName,
		ServiceUUIDs: []bluetooth.UUID{svcUUID},
	}))
	must("start advertising", adv.Start())
	println("advertising, waiting for a client")

	filter := logic.NewMovingAverage(logic.DefaultWindow)
	limiter := logic.NewNotifyLimiter(logic.DefaultNotifyInterval, logic.DefaultNotifyThreshold)
	var conn logic.ConnectionState

	for {
		// ReadPulse returns 0 when no echo arrives in time.
		raw := logic.DistanceFromEcho(time.Duration(sensor.ReadPulse()) * time.Microsecond)
		if !raw.Valid() {
			println("sensor: no echo")
		} else {
			filtered := filter.Filter(raw)
			println("Raw:", raw.String(), "cm | Filtered:", filtered.String(), "cm")

			if limiter.Allow(time.Now(), connected.Load(), filtered) {
				if _, err := char.Write([]byte(filtered.String())); err != nil {
					println("notify:", err.Error())
				} else {
					println("notified", filtered.String())
				}
			}
		}

		switch edge := conn.Observe(connected.Load()); edge {
		case logic.EdgeAttached:
			println("peer:", edge.String())
		case logic.EdgeDetached:
			println("peer:", edge.String(), "- advertising again")
			time.Sleep(readvertiseDelay)
			if err := adv.Start(); err != nil {
				println("advertise:", err.Error())
			}
		}

		time.Sleep(loopDelay)
	}
}

func must(action string, err error) {
	if err != nil {
		panic("failed to " + action + ": " + err.Error())
	}
}
