package mirror

import (
	"strconv"
	"time"

	"github.com/nerrad567/gray-logic-panel/internal/entity"
	"github.com/nerrad567/gray-logic-panel/internal/infrastructure/influxdb"
)

// InfluxSink records entity snapshots as state-history points.
type InfluxSink struct {
	client *influxdb.Client
}

// NewInfluxSink creates a sink over a connected InfluxDB client.
func NewInfluxSink(client *influxdb.Client) *InfluxSink {
	return &InfluxSink{client: client}
}

// Name identifies the sink in logs.
func (s *InfluxSink) Name() string { return "influxdb" }

// Write records every entity in the snapshot at the delivery time.
// Writes are batched by the client; this returns without blocking on I/O.
func (s *InfluxSink) Write(snapshot entity.Collection, at time.Time) error {
	for id, ent := range snapshot {
		value, err := strconv.ParseFloat(ent.State, 64)
		numeric := err == nil

		s.client.WriteEntityState(id, ent.Domain(), ent.State, value, numeric, at)
	}
	return nil
}

// Close flushes pending points and closes the client.
func (s *InfluxSink) Close() error {
	return s.client.Close()
}
