package uplink

import (
	"context"
	"fmt"
	"strings"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/sweeney/range-sensor/internal/fault"
)

// DefaultTopicPrefix is prepended to upload paths.
const DefaultTopicPrefix = "range-sensor"

// MQTTUplink writes readings to an MQTT broker.
// Each write is a retained QoS 1 publish, so the broker keeps the last value
// at every path.
type MQTTUplink struct {
	opts   *paho.ClientOptions
	client paho.Client
	prefix string
}

// NewMQTTUplink creates an uplink for the given broker. It does not connect.
// An empty clientID gets a random one.
func NewMQTTUplink(broker, clientID, prefix string) *MQTTUplink {
	if clientID == "" {
		clientID = "range-sensor-" + uuid.NewString()[:8]
	}
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	// No retry within an activation: a failed attach is final until the next wake.
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetCleanSession(true).
		SetAutoReconnect(false).
		SetConnectRetry(false)

	return &MQTTUplink{opts: opts, prefix: prefix}
}

// Topic maps an upload path to its MQTT topic.
func Topic(prefix, path string) string {
	path = strings.Trim(path, "/")
	prefix = strings.TrimRight(prefix, "/")
	if prefix == "" {
		return path
	}
	if path == "" {
		return prefix
	}
	return prefix + "/" + path
}

// Connect dials the broker, bounded by ctx.
func (u *MQTTUplink) Connect(ctx context.Context) error {
	if u.client != nil && u.client.IsConnected() {
		return nil
	}
	if dl, ok := ctx.Deadline(); ok {
		u.opts.SetConnectTimeout(timeUntil(dl))
	}
	client := paho.NewClient(u.opts)
	token := client.Connect()
	select {
	case <-token.Done():
	case <-ctx.Done():
		client.Disconnect(0)
		return fault.Wrap(fault.NetworkUnavailable, "mqtt connect", ctx.Err())
	}
	if err := token.Error(); err != nil {
		return fault.Wrap(fault.NetworkUnavailable, "mqtt connect", err)
	}
	u.client = client
	return nil
}

// Upload publishes payload retained at the topic for path.
func (u *MQTTUplink) Upload(ctx context.Context, path string, payload []byte) error {
	if u.client == nil {
		return &fault.E{C: fault.NetworkUnavailable, Op: "mqtt publish", Msg: "not connected"}
	}
	token := u.client.Publish(Topic(u.prefix, path), 1, true, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return fault.Wrap(fault.UploadFailure, "mqtt publish", fmt.Errorf("publish timeout: %w", ctx.Err()))
	}
	if err := token.Error(); err != nil {
		return fault.Wrap(fault.UploadFailure, "mqtt publish", err)
	}
	return nil
}

// Off disconnects from the broker.
func (u *MQTTUplink) Off() error {
	if u.client == nil {
		return nil
	}
	u.client.Disconnect(250)
	u.client = nil
	return nil
}
