// Package token manages the persisted hub credential for Gray Logic Panel.
//
// The panel stores exactly one token at a time, keyed by a well-known slot
// in the local key-value store. On load the token is validated against the
// origin of the requested hub URL: scheme, host, and effective port must all
// match, otherwise the token is treated as absent. This prevents a credential
// issued by one hub instance from being replayed against a different hub
// that happens to be reachable through the same panel.
//
// # Key Types
//
//   - Token: access/refresh credential pair with expiry and issuing hub URL
//   - Store: load/save with origin validation and soft parse failure
//   - KV: the minimal persistence interface (SQLiteKV is the production one)
//
// Origin comparison is exposed as the pure functions Origin and SameOrigin
// so it can be tested independently of persistence.
package token
