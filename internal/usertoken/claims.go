// Package usertoken inspects access tokens held by the client.
//
// The client never holds the signing key, so tokens are decoded without
// signature verification. The backend remains the authority on validity;
// inspection only lets the client drop a session it already knows is expired.
package usertoken

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// ErrNotJWT indicates an opaque token that cannot be inspected.
var ErrNotJWT = errors.New("token is not a jwt")

// Claims holds the registered claims the client cares about.
type Claims struct {
	Subject   string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// Inspect decodes token claims without verifying the signature.
func Inspect(token string) (Claims, error) {
	token = strings.TrimSpace(token)
	if strings.Count(token, ".") != 2 {
		return Claims{}, ErrNotJWT
	}
	var registered jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &registered); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrNotJWT, err)
	}
	claims := Claims{Subject: strings.TrimSpace(registered.Subject)}
	if registered.ExpiresAt != nil {
		claims.ExpiresAt = registered.ExpiresAt.Time.UTC()
	}
	if registered.IssuedAt != nil {
		claims.IssuedAt = registered.IssuedAt.Time.UTC()
	}
	return claims, nil
}

// Expired reports whether the token expired before now, allowing leeway.
// Tokens without an exp claim never expire client-side.
func (c Claims) Expired(now time.Time, leeway time.Duration) bool {
	if c.ExpiresAt.IsZero() {
		return false
	}
	return now.After(c.ExpiresAt.Add(leeway))
}

// Usable reports whether token may be kept as a session credential at now.
// Opaque tokens are always usable; JWTs are usable until they expire.
func Usable(token string, now time.Time, leeway time.Duration) bool {
	if strings.TrimSpace(token) == "" {
		return false
	}
	claims, err := Inspect(token)
	if errors.Is(err, ErrNotJWT) {
		return true
	}
	if err != nil {
		return false
	}
	return !claims.Expired(now, leeway)
}
