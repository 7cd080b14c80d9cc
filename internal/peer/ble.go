//go:build linux && !baremetal

package peer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/go-ble/ble"
	"github.com/go-ble/ble/linux"
	"github.com/sweeney/range-sensor/internal/fault"
)

// BLEPeer is a GATT peripheral exposing one read/write/notify characteristic.
// A peer counts as attached while it is subscribed to notifications.
type BLEPeer struct {
	name    string
	svcUUID ble.UUID
	dev     ble.Device

	mu        sync.Mutex
	value     []byte
	notifier  ble.Notifier
	advCancel context.CancelFunc
}

// NewBLEPeer opens the default HCI device and registers the service.
func NewBLEPeer(name, serviceUUID, characteristicUUID string) (*BLEPeer, error) {
	svcID, err := ble.Parse(serviceUUID)
	if err != nil {
		return nil, fmt.Errorf("parse service uuid: %w", err)
	}
	charID, err := ble.Parse(characteristicUUID)
	if err != nil {
		return nil, fmt.Errorf("parse characteristic uuid: %w", err)
	}

	dev, err := linux.NewDevice()
	if err != nil {
		return nil, fmt.Errorf("open hci device: %w", err)
	}
	ble.SetDefaultDevice(dev)

	p := &BLEPeer{
		name:    name,
		svcUUID: svcID,
		dev:     dev,
		value:   []byte(InitialValue),
	}

	svc := ble.NewService(svcID)
	c := svc.NewCharacteristic(charID)
	c.HandleRead(ble.ReadHandlerFunc(p.handleRead))
	c.HandleWrite(ble.WriteHandlerFunc(p.handleWrite))
	c.HandleNotify(ble.NotifyHandlerFunc(p.handleNotify))

	if err := ble.AddService(svc); err != nil {
		dev.Stop()
		return nil, fmt.Errorf("add service: %w", err)
	}
	return p, nil
}

func remoteAddr(req ble.Request) string {
	return strings.ToUpper(req.Conn().RemoteAddr().String())
}

func (p *BLEPeer) handleRead(req ble.Request, rsp ble.ResponseWriter) {
	p.mu.Lock()
	v := append([]byte(nil), p.value...)
	p.mu.Unlock()
	rsp.Write(v)
}

func (p *BLEPeer) handleWrite(req ble.Request, rsp ble.ResponseWriter) {
	p.mu.Lock()
	p.value = append([]byte(nil), req.Data()...)
	p.mu.Unlock()
}

// handleNotify runs for the lifetime of a subscription.
func (p *BLEPeer) handleNotify(req ble.Request, n ble.Notifier) {
	addr := remoteAddr(req)
	p.mu.Lock()
	p.notifier = n
	p.mu.Unlock()
	log.Printf("peer: %s subscribed", addr)

	<-n.Context().Done()

	p.mu.Lock()
	if p.notifier == n {
		p.notifier = nil
	}
	p.mu.Unlock()
	log.Printf("peer: %s unsubscribed", addr)
}

// Connected reports whether a peer is subscribed.
func (p *BLEPeer) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.notifier != nil
}

// Notify sets the characteristic value and pushes it to the subscriber.
func (p *BLEPeer) Notify(value string) error {
	p.mu.Lock()
	p.value = []byte(value)
	n := p.notifier
	p.mu.Unlock()

	if n == nil {
		return &fault.E{C: fault.PeerUnavailable, Op: "notify"}
	}
	if _, err := n.Write([]byte(value)); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	return nil
}

// Advertise restarts advertising of the name and service UUID.
func (p *BLEPeer) Advertise() error {
	ctx, cancel := context.WithCancel(context.Background())
	p.mu.Lock()
	if p.advCancel != nil {
		p.advCancel()
	}
	p.advCancel = cancel
	p.mu.Unlock()

	go func() {
		err := ble.AdvertiseNameAndServices(ctx, p.name, p.svcUUID)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("peer: advertise: %v", err)
		}
	}()
	return nil
}

// Close stops advertising and the HCI device.
func (p *BLEPeer) Close() error {
	p.mu.Lock()
	if p.advCancel != nil {
		p.advCancel()
		p.advCancel = nil
	}
	p.mu.Unlock()
	if err := p.dev.Stop(); err != nil {
		return fmt.Errorf("stop hci device: %w", err)
	}
	return nil
}
