// Package panel owns the client session against a Gray Logic hub.
//
// The Session is the consumer surface of the whole daemon: it hides the
// authentication/token lifecycle (via the auth manager), the connection
// state machine (Idle → Authenticating → Connected with a reset edge on
// every host change), the debounced entity stream, and service dispatch
// behind one object constructed with injected collaborators.
//
// # Ownership
//
// The entity collection, the connection, and the auth session are each
// owned by exactly one holder at a time; the reset transition inside
// SetHost is the single mutation point that revokes ownership. An epoch
// counter guards against completions from a superseded host: there is no
// cancellation of an in-flight authenticate, so late results are detected
// and discarded instead.
package panel
