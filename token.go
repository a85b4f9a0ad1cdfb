package authkit

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenExpiresAt extracts the exp claim without verifying the signature. The
// client never trusts token contents for authorization; the expiry is only a
// dispatch-time hint for preemptive renewal.
func tokenExpiresAt(token string) (time.Time, bool) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())

	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// tokenExpiresWithin reports whether token expires inside the window. Opaque
// or claim-less tokens report false: without a readable expiry the 401 path
// is the only renewal signal.
func tokenExpiresWithin(token string, window time.Duration) bool {
	exp, ok := tokenExpiresAt(token)
	if !ok {
		return false
	}
	return time.Until(exp) <= window
}
