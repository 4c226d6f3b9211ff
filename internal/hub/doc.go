// Package hub implements the transport to a Gray Logic hub.
//
// It covers both halves of the hub's client API:
//
//   - HTTP auth: credential login and refresh-token exchange (AuthFlow,
//     plugged into the auth package's Manager as its Flow and Refresher).
//   - WebSocket RPC/events: a message envelope of {type, id, payload} with
//     request/response correlation by ID, plus pushed entity state events
//     on the "entities" channel (Conn).
//
// The connection starts with an auth handshake (auth_required → auth →
// auth_ok) before any commands are accepted. Entity pushes always carry a
// complete replacement collection; coalescing and readiness are handled a
// layer up, in the entity stream.
package hub
