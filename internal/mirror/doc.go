// Package mirror fans delivered entity snapshots out to external sinks.
//
// The panel session's debounced snapshot stream is the single source; the
// mirror decouples sink I/O from snapshot delivery with a latest-wins
// worker, then writes to whichever sinks are configured:
//
//   - InfluxSink: entity state history as time-series points
//   - MQTTSink: retained per-entity state topics for dashboards
//
// Sinks are optional; a panel with no mirror configured never constructs
// this package's types.
package mirror
