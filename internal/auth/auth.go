// Package auth implements the optional bearer-token gate described in
// SPEC_FULL.md §4.10. Unlike the teacher's device-pairing and
// access/refresh-token-pair flow, this controller has a single shared
// secret and no concept of multiple paired devices, so there is nothing
// for a refresh or pairing flow to serve — this is a straight HS256
// bearer check.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

type claims struct {
	jwt.RegisteredClaims
}

// GenerateToken issues a bearer token for the given secret, valid for ttl.
// Intended for operator tooling (e.g. a CLI that mints a token to hand to
// a client), not used by the server itself.
func GenerateToken(secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "dlna-mediacontroller",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString([]byte(secret))
}

// VerifyToken validates a bearer token against secret.
func VerifyToken(secret, token string) error {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithIssuer("dlna-mediacontroller"),
	)

	parsed, err := parser.ParseWithClaims(token, &claims{}, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return ErrTokenInvalid
	}
	if parsed == nil || !parsed.Valid {
		return ErrTokenInvalid
	}
	return nil
}
