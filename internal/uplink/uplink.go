// Package uplink provides the cloud write path of the phased uploader, with
// abstraction for testing.
package uplink

import (
	"context"
	"encoding/json"
	"time"

	"github.com/chewxy/math32"
	"github.com/google/uuid"
	"github.com/sweeney/range-sensor/internal/logic"
)

// DefaultPath is where readings are written.
const DefaultPath = "/lab8/ultrasonic"

// Uplink is the network collaborator of an activation.
type Uplink interface {
	// Connect brings the network up and waits, bounded by ctx, until the
	// remote end is ready for writes. Returns an error coded
	// fault.NetworkUnavailable if it is not.
	Connect(ctx context.Context) error

	// Upload writes payload at path. Returns an error coded
	// fault.UploadFailure if the remote end reports one.
	Upload(ctx context.Context, path string, payload []byte) error

	// Off tears the network down. Safe to call when already off.
	Off() error
}

// Record is one reading to upload.
type Record struct {
	ID       string
	Tag      string
	Distance logic.Distance
	Uptime   time.Duration
	IP       string
}

// NewRecord creates a Record with a fresh random ID.
func NewRecord(tag string, d logic.Distance, uptime time.Duration, ip string) Record {
	return Record{
		ID:       uuid.NewString(),
		Tag:      tag,
		Distance: d,
		Uptime:   uptime,
		IP:       ip,
	}
}

// Payload represents the uploaded JSON document.
type Payload struct {
	ID         string  `json:"id"`
	Tag        string  `json:"tag"`
	DistanceCm float32 `json:"distance_cm"`
	Valid      bool    `json:"valid"`
	Millis     int64   `json:"millis"`
	IP         string  `json:"ip"`
}

// FormatPayload creates the JSON payload for a record.
// The distance is rounded to two decimals.
func FormatPayload(r Record) ([]byte, error) {
	return json.Marshal(Payload{
		ID:         r.ID,
		Tag:        r.Tag,
		DistanceCm: math32.Round(float32(r.Distance)*100) / 100,
		Valid:      r.Distance.Valid(),
		Millis:     r.Uptime.Milliseconds(),
		IP:         r.IP,
	})
}
