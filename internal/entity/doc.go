// Package entity holds the hub entity model and the debounced update stream.
//
// The hub pushes entity state in potentially high-frequency bursts (a scene
// activation can change dozens of entities within milliseconds). Stream
// smooths those bursts: raw batches landing inside one debounce window are
// coalesced and only the last one is delivered, as a complete replacement
// snapshot. Consumers therefore always observe an internally consistent
// collection and a monotonic readiness flag.
package entity
