// Package token reads claims out of compact bearer tokens without verifying
// them. Signature verification belongs to the server; the client only needs a
// best-effort expiry hint to size the cookie lifetime.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DecodeExpiry parses the payload segment of a compact signed token and
// returns its expiry claim. Malformed input of any kind yields ok=false and
// never an error or panic: an undecodable expiry is a hint that is simply
// absent, not a failure.
func DecodeExpiry(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// RemainingLifetime returns how long the token claims to stay valid from now,
// and whether an expiry could be decoded at all. A token past its expiry
// reports a negative duration.
func RemainingLifetime(raw string, now time.Time) (time.Duration, bool) {
	exp, ok := DecodeExpiry(raw)
	if !ok {
		return 0, false
	}
	return exp.Sub(now), true
}
