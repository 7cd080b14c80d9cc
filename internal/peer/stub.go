//go:build !linux || baremetal

package peer

import "errors"

// BLEPeer is not available on non-Linux platforms.
type BLEPeer struct{}

// NewBLEPeer returns an error on non-Linux platforms.
func NewBLEPeer(name, serviceUUID, characteristicUUID string) (*BLEPeer, error) {
	return nil, errors.New("peer: not supported on this platform (requires Linux)")
}

func (p *BLEPeer) Connected() bool          { return false }
func (p *BLEPeer) Notify(value string) error { return errors.New("peer: not supported") }
func (p *BLEPeer) Advertise() error          { return errors.New("peer: not supported") }
func (p *BLEPeer) Close() error              { return nil }
