// Package auth orchestrates the hub authentication lifecycle.
//
// The Manager runs the auth flow with token load/save strategies backed by
// the token store, handles the flow's host-required signal with a single
// automatic retry, refreshes expired tokens before handing the session out,
// and single-flights concurrent attempts for the same host.
//
// The concrete flow (credential login, token refresh over the hub's HTTP
// API) lives in the hub package; this package owns only the policy.
package auth
