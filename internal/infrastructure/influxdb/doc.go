// Package influxdb provides the time-series connection for the entity
// state-history sink.
//
// It wraps the InfluxDB v2 client with connection management, batched
// non-blocking writes, and health monitoring. Entity snapshots delivered
// by the panel session are recorded as entity_state points tagged by
// entity and domain.
package influxdb
