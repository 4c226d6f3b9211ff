package hub

import "encoding/json"

// WebSocket message types, matching the hub's WS API envelope.
const (
	TypeAuthRequired = "auth_required"
	TypeAuth         = "auth"
	TypeAuthOK       = "auth_ok"
	TypeAuthInvalid  = "auth_invalid"

	TypeSubscribe   = "subscribe"
	TypeUnsubscribe = "unsubscribe"
	TypeCallService = "call_service"
	TypeGetStates   = "get_states"
	TypeGetServices = "get_services"
	TypeGetConfig   = "get_config"
	TypeGetUser     = "get_user"

	TypeResult = "result"
	TypeEvent  = "event"
)

// ChannelEntities is the event channel carrying entity state pushes.
const ChannelEntities = "entities"

// Message is the envelope for all WebSocket traffic with the hub.
type Message struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	EventType string          `json:"event_type,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Error     *WireError      `json:"error,omitempty"`
}

// WireError is an error reported by the hub inside a result message.
type WireError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// authPayload is the client's auth handshake payload.
type authPayload struct {
	AccessToken string `json:"access_token"`
}

// subscribePayload is the payload for subscribe/unsubscribe messages.
type subscribePayload struct {
	Channels []string `json:"channels"`
}

// callServicePayload is the payload for call_service messages.
// Domain and service are already in wire (snake_case) form.
type callServicePayload struct {
	Domain  string         `json:"domain"`
	Service string         `json:"service"`
	Data    map[string]any `json:"data,omitempty"`
	Target  map[string]any `json:"target,omitempty"`
}

// tokenResponse is the hub's HTTP response for login and refresh.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"` // seconds; 0 if the hub omits it
}

// User describes the authenticated principal as reported by the hub.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}
