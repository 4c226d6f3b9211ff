// Package api provides the local diagnostics HTTP server.
//
// It exposes the panel session's health, readiness, and current entity
// snapshot on a loopback listener:
//
//	GET /api/v1/health        server liveness and version
//	GET /api/v1/ready         snapshot readiness (503 until the first snapshot)
//	GET /api/v1/session       full session summary (state, host, error)
//	GET /api/v1/entities      current snapshot, sorted by entity ID
//	GET /api/v1/entities/{id} single entity lookup
//
// The server is read-only: it never forwards commands to the hub.
package api
