package hub

import (
	"context"

	"github.com/nerrad567/gray-logic-panel/internal/auth"
)

// Client dials hub connections from authenticated sessions.
// It satisfies the panel session's Dialer dependency.
type Client struct {
	logger Logger
}

// NewClient creates a hub client.
func NewClient() *Client {
	return &Client{logger: noopLogger{}}
}

// SetLogger sets the logger used by dialled connections.
func (c *Client) SetLogger(logger Logger) {
	c.logger = logger
}

// Dial opens a live connection from an authenticated session.
//
// The session's token supplies both the hub location and the access
// credential for the WebSocket handshake.
func (c *Client) Dial(ctx context.Context, sess *auth.Session) (*Conn, error) {
	tok := sess.Token()
	return Dial(ctx, tok.HubURL, tok.AccessToken, c.logger)
}
