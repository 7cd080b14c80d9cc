package uplink

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go"
	"github.com/influxdata/influxdb-client-go/api/write"
	"github.com/influxdata/influxdb-client-go/domain"
	"github.com/sweeney/range-sensor/internal/fault"
)

// DefaultMeasurement names the points written by InfluxUplink.
const DefaultMeasurement = "range"

// InfluxConfig holds time-series database settings.
type InfluxConfig struct {
	URL         string // e.g. http://localhost:8086
	Token       string
	Org         string
	Bucket      string
	Measurement string // defaults to DefaultMeasurement
}

// InfluxUplink writes each reading as one point, tagged with its upload path
// and strategy tag.
type InfluxUplink struct {
	cfg    InfluxConfig
	client influxdb2.Client
}

// NewInfluxUplink creates an uplink for cfg. It does not connect.
func NewInfluxUplink(cfg InfluxConfig) *InfluxUplink {
	if cfg.Measurement == "" {
		cfg.Measurement = DefaultMeasurement
	}
	return &InfluxUplink{cfg: cfg}
}

// Connect checks that the server reports itself healthy, bounded by ctx.
func (u *InfluxUplink) Connect(ctx context.Context) error {
	if u.client != nil {
		return nil
	}
	client := influxdb2.NewClient(u.cfg.URL, u.cfg.Token)
	h, err := client.Health(ctx)
	if err != nil {
		client.Close()
		return fault.Wrap(fault.NetworkUnavailable, "influx health", err)
	}
	if h.Status != domain.HealthCheckStatusPass {
		client.Close()
		msg := string(h.Status)
		if h.Message != nil {
			msg += ": " + *h.Message
		}
		return &fault.E{C: fault.NetworkUnavailable, Op: "influx health", Msg: msg}
	}
	u.client = client
	return nil
}

// Upload decodes payload and writes it as a point.
func (u *InfluxUplink) Upload(ctx context.Context, p string, payload []byte) error {
	if u.client == nil {
		return &fault.E{C: fault.NetworkUnavailable, Op: "influx write", Msg: "not connected"}
	}
	pt, err := u.point(p, payload, time.Now())
	if err != nil {
		return err
	}
	if err := u.client.WriteAPIBlocking(u.cfg.Org, u.cfg.Bucket).WritePoint(ctx, pt); err != nil {
		return fault.Wrap(fault.UploadFailure, "influx write", err)
	}
	return nil
}

func (u *InfluxUplink) point(p string, payload []byte, ts time.Time) (*write.Point, error) {
	var pl Payload
	if err := json.Unmarshal(payload, &pl); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	tags := map[string]string{
		"path": strings.Trim(path.Clean("/"+p), "/"),
		"tag":  pl.Tag,
	}
	if pl.IP != "" {
		tags["ip"] = pl.IP
	}
	fields := map[string]interface{}{
		"id":          pl.ID,
		"distance_cm": pl.DistanceCm,
		"valid":       pl.Valid,
		"millis":      pl.Millis,
	}
	return write.NewPoint(u.cfg.Measurement, tags, fields, ts), nil
}

// Off closes the client.
func (u *InfluxUplink) Off() error {
	if u.client == nil {
		return nil
	}
	u.client.Close()
	u.client = nil
	return nil
}
