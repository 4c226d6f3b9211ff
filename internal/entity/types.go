package entity

import "time"

// Entity represents a single controllable or observable item exposed by the
// hub (e.g., a light, a thermostat, a sensor reading).
type Entity struct {
	// ID is the unique entity identifier (e.g., "light.living_room").
	ID string `json:"entity_id"`

	// State is the entity's primary state value (e.g., "on", "21.5").
	State string `json:"state"`

	// Attributes holds additional entity data (brightness, unit, etc.).
	Attributes map[string]any `json:"attributes,omitempty"`

	// LastChanged is when the state value last changed.
	LastChanged time.Time `json:"last_changed"`

	// LastUpdated is when the entity was last written, including
	// attribute-only updates.
	LastUpdated time.Time `json:"last_updated"`
}

// Clone returns an independent copy of the entity.
// The attribute map is copied one level deep; attribute values are JSON
// primitives and nested structures that callers must not mutate.
func (e Entity) Clone() Entity {
	cpy := e
	if e.Attributes != nil {
		cpy.Attributes = make(map[string]any, len(e.Attributes))
		for k, v := range e.Attributes {
			cpy.Attributes[k] = v
		}
	}
	return cpy
}

// Domain returns the entity's domain: the identifier segment before the
// first dot, or "" if the identifier has no dot.
func (e Entity) Domain() string {
	for i := 0; i < len(e.ID); i++ {
		if e.ID[i] == '.' {
			return e.ID[:i]
		}
	}
	return ""
}

// Collection maps entity identifiers to entities.
//
// A Collection handed to consumers is always a complete, internally
// consistent replacement snapshot — never a partial merge.
type Collection map[string]Entity

// Clone returns an independent copy of the collection.
func (c Collection) Clone() Collection {
	cpy := make(Collection, len(c))
	for id, e := range c {
		cpy[id] = e.Clone()
	}
	return cpy
}
