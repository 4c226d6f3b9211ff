// Package database provides the SQLite-backed local store for Gray Logic Panel.
//
// The panel persists a single small record — the hub auth token — so the
// schema is one key-value table bootstrapped at startup. SQLite is used for
// the same reasons as elsewhere in the Gray Logic family: zero external
// dependencies, crash-safe writes (WAL), and multi-decade format stability.
package database
