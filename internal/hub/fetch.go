package hub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nerrad567/gray-logic-panel/internal/entity"
)

// CallService dispatches a service invocation over the connection.
//
// Domain, service, and target must already be in wire form (the service
// package's Normalize produces them).
//
// Parameters:
//   - ctx: Context for cancellation/timeout
//   - domain, service: Wire-form (snake_case) identifiers
//   - data: Optional service payload
//   - target: Optional structured target
//
// Returns:
//   - error: nil once the hub acknowledges the call
func (c *Conn) CallService(ctx context.Context, domain, service string, data, target map[string]any) error {
	_, err := c.request(ctx, TypeCallService, callServicePayload{
		Domain:  domain,
		Service: service,
		Data:    data,
		Target:  target,
	})
	return err
}

// FetchStates retrieves the hub's current entity states.
func (c *Conn) FetchStates(ctx context.Context) ([]entity.Entity, error) {
	payload, err := c.request(ctx, TypeGetStates, nil)
	if err != nil {
		return nil, err
	}

	var states []entity.Entity
	if err := json.Unmarshal(payload, &states); err != nil {
		return nil, fmt.Errorf("decoding states: %w", err)
	}
	return states, nil
}

// FetchServices retrieves the hub's service registry, keyed by domain.
func (c *Conn) FetchServices(ctx context.Context) (map[string]any, error) {
	return c.fetchObject(ctx, TypeGetServices, "services")
}

// FetchConfig retrieves the hub's configuration summary.
func (c *Conn) FetchConfig(ctx context.Context) (map[string]any, error) {
	return c.fetchObject(ctx, TypeGetConfig, "config")
}

// FetchUser retrieves the authenticated principal.
func (c *Conn) FetchUser(ctx context.Context) (*User, error) {
	payload, err := c.request(ctx, TypeGetUser, nil)
	if err != nil {
		return nil, err
	}

	var user User
	if err := json.Unmarshal(payload, &user); err != nil {
		return nil, fmt.Errorf("decoding user: %w", err)
	}
	return &user, nil
}

// fetchObject runs a payload-less command whose result is a JSON object.
func (c *Conn) fetchObject(ctx context.Context, msgType, what string) (map[string]any, error) {
	payload, err := c.request(ctx, msgType, nil)
	if err != nil {
		return nil, err
	}

	var out map[string]any
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", what, err)
	}
	return out, nil
}
