package token

import "time"

// Token is the persisted hub credential pair.
//
// A token is bound to the hub it was issued for: Store.Load refuses to
// return a token whose recorded HubURL has a different origin than the
// requested host, so a credential issued by one hub instance can never be
// replayed against another reachable through the same storage slot.
type Token struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	HubURL       string    `json:"hub_url"`
}

// Expired reports whether the access token has passed its expiry.
//
// A zero ExpiresAt means the issuer supplied no expiry; such tokens are
// treated as non-expiring and refreshed only when the hub rejects them.
func (t *Token) Expired(now time.Time) bool {
	if t.ExpiresAt.IsZero() {
		return false
	}
	return !now.Before(t.ExpiresAt)
}
