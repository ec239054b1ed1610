// Package jwtclaims inspects access tokens the identity service issues.
//
// The client never verifies signatures — that is the server's job and the
// signing keys are not distributed here. Parsing is used only to recover
// scheduling hints (the exp claim) when a response omits an explicit
// expiry. A token that does not parse simply yields no hint.
package jwtclaims

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var parser = jwt.NewParser()

// ExpiresAt extracts the exp claim from an access token without verifying
// it. Returns a zero time and false when the token is not a JWT or carries
// no exp.
func ExpiresAt(token string) (time.Time, bool) {
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

// Subject extracts the sub claim without verification; empty when absent.
func Subject(token string) string {
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return ""
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return ""
	}
	return sub
}
