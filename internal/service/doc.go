// Package service normalises remote service calls before dispatch.
//
// Callers use whatever casing convention their language side prefers
// ("turnOn", "TurnOn"); the hub's wire protocol wants snake_case
// ("turn_on"). Targets arrive as a bare identifier, a list, or an already
// structured map, and are normalised to the hub's {"entity_id": [...]}
// form. Validation failures are synchronous errors — malformed calls never
// reach the wire.
package service
