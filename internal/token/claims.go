package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Info is what can be read from a token without verifying it.
type Info struct {
	Subject   string
	ExpiresAt time.Time
}

// Expired reports whether the token carries an expiry that has passed.
func (i Info) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

// Inspect decodes JWT claims without checking the signature. Only used for
// log context; the Dentago API stays the authority on validity.
func Inspect(tok string) (Info, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		return Info{}, false
	}
	var info Info
	if sub, err := claims.GetSubject(); err == nil {
		info.Subject = sub
	}
	if info.Subject == "" {
		for _, key := range []string{"id", "_id", "userId"} {
			if v, ok := claims[key].(string); ok && v != "" {
				info.Subject = v
				break
			}
		}
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	return info, true
}
