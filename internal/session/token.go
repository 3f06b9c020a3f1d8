package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenExpired reports whether value is a JWT whose exp claim is not after
// now. The signature is not checked; only the backend can do that. Values
// that are not JWTs, or carry no exp, never expire here.
func tokenExpired(value string, now time.Time) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(value, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !claims.ExpiresAt.After(now)
}

func anyExpired(cookies []Cookie, now time.Time) (string, bool) {
	for _, c := range cookies {
		if tokenExpired(c.Value, now) {
			return c.Name, true
		}
	}
	return "", false
}
