package mirror

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/gray-logic-panel/internal/entity"
	"github.com/nerrad567/gray-logic-panel/internal/infrastructure/mqtt"
)

// MQTTSink republishes entity snapshots as retained state topics.
//
// Each entity lands on <prefix>/<domain>/<object_id> (the dot in the
// entity ID becomes the topic separator), so dashboards can subscribe to
// a domain subtree like graypanel/state/light/#.
type MQTTSink struct {
	client *mqtt.Client
	prefix string

	// last maps entity ID to the last published content (state and
	// attributes, not the timestamp), so unchanged entities in a
	// full-replacement snapshot are not republished.
	last map[string]string
}

// NewMQTTSink creates a sink over a connected MQTT client.
func NewMQTTSink(client *mqtt.Client, topicPrefix string) *MQTTSink {
	return &MQTTSink{
		client: client,
		prefix: strings.TrimSuffix(topicPrefix, "/"),
		last:   make(map[string]string),
	}
}

// Name identifies the sink in logs.
func (s *MQTTSink) Name() string { return "mqtt" }

// statePayload is the JSON shape published per entity.
type statePayload struct {
	EntityID   string         `json:"entity_id"`
	State      string         `json:"state"`
	Attributes map[string]any `json:"attributes,omitempty"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Write republishes every changed entity in the snapshot.
//
// Snapshots are full replacements, so entities absent from the previous
// snapshot are new and entities absent from this one are forgotten (their
// retained topics are left in place; the panel status topic signals
// staleness instead).
func (s *MQTTSink) Write(snapshot entity.Collection, at time.Time) error {
	seen := make(map[string]struct{}, len(snapshot))
	var firstErr error

	for id, ent := range snapshot {
		seen[id] = struct{}{}

		// The dedupe key excludes the timestamp; republishing an
		// unchanged state just to bump updated_at is noise.
		key, err := json.Marshal(statePayload{
			EntityID:   id,
			State:      ent.State,
			Attributes: ent.Attributes,
		})
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("marshalling %s: %w", id, err)
			}
			continue
		}
		if s.last[id] == string(key) {
			continue
		}

		payload, err := json.Marshal(statePayload{
			EntityID:   id,
			State:      ent.State,
			Attributes: ent.Attributes,
			UpdatedAt:  at,
		})
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("marshalling %s: %w", id, err)
			}
			continue
		}

		if err := s.client.PublishRetained(s.topicFor(id, ent), payload); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("publishing %s: %w", id, err)
			}
			continue
		}
		s.last[id] = string(key)
	}

	// Drop cache entries for entities the hub no longer reports.
	for id := range s.last {
		if _, ok := seen[id]; !ok {
			delete(s.last, id)
		}
	}

	return firstErr
}

// topicFor maps an entity to its retained state topic.
func (s *MQTTSink) topicFor(id string, ent entity.Entity) string {
	object := id
	if domain := ent.Domain(); domain != "" {
		object = strings.TrimPrefix(id, domain+".")
		return s.prefix + "/" + domain + "/" + object
	}
	return s.prefix + "/" + object
}

// Close disconnects from the broker.
func (s *MQTTSink) Close() error {
	return s.client.Close()
}
