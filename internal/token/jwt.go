package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ExpiryFromJWT extracts the expiry from a JWT access token's exp claim.
//
// The hub normally reports expiry alongside the token pair, but older hub
// firmware omits it. In that case the access token itself (a JWT issued by
// the hub) carries the authoritative exp claim. The parse is unverified:
// the panel is reading metadata from a credential it received over an
// authenticated channel, not validating it — the hub does that on use.
//
// Returns:
//   - time.Time: The expiry time
//   - bool: false if the token is not a JWT or has no exp claim
func ExpiryFromJWT(accessToken string) (time.Time, bool) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}

	if _, _, err := parser.ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}

	return exp.Time, true
}
