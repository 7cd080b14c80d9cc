// Package peer provides the short-range wireless link of the filtering notifier.
// The real implementation is a BLE GATT peripheral on a Linux HCI adapter.
// The fake implementation allows testing without a radio.
package peer

// Advertising and GATT defaults.
const (
	DefaultName               = "RangeSensor"
	DefaultServiceUUID        = "9f60ea96-04b9-47e6-9f15-2070e3a3ce5b"
	DefaultCharacteristicUUID = "d866c44d-2845-4bce-b8b8-034dc50a8e91"
	InitialValue              = "Hello World"
)

// Peer is the wireless collaborator of the notifier loop.
type Peer interface {
	// Connected reports whether a remote peer is attached.
	// Set from the stack's attach/detach callbacks.
	Connected() bool

	// Notify pushes value to the attached peer. Returns an error coded
	// fault.PeerUnavailable when nobody is attached.
	Notify(value string) error

	// Advertise (re)starts advertising so a peer can attach.
	Advertise() error

	// Close stops advertising and releases the radio.
	Close() error
}
