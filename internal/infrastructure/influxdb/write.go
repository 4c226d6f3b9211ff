package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteEntityState records one entity's state at snapshot delivery time.
//
// The write is non-blocking; points are batched and sent asynchronously.
// Numeric states are recorded as a float field so they can be graphed;
// every state is also recorded verbatim as a string field.
//
// Parameters:
//   - entityID: Entity identifier (e.g., "light.living_room")
//   - domain: Entity domain tag (e.g., "light")
//   - state: The state value as reported by the hub
//   - value: Parsed numeric state, used when numeric is true
//   - numeric: Whether state parsed as a number
//   - ts: Snapshot delivery time
func (c *Client) WriteEntityState(entityID, domain, state string, value float64, numeric bool, ts time.Time) {
	if !c.IsConnected() {
		return
	}

	fields := map[string]interface{}{
		"state": state,
	}
	if numeric {
		fields["value"] = value
	}

	point := write.NewPoint(
		"entity_state",
		map[string]string{
			"entity_id": entityID,
			"domain":    domain,
		},
		fields,
		ts,
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}
