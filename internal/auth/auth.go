// Package auth verifies bearer tokens issued by the external identity service.
// This service never issues tokens itself; it only holds the verification key.
package auth

import (
	"crypto/rsa"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Roles recognized in token claims.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type ctxKey int

// ClaimsKey is the request-context key under which the authentication
// middleware stores the validated claims.
const ClaimsKey ctxKey = 1

// Claims is the token payload from the identity service. Subject carries the
// user id.
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
}

// HasRole reports whether the token carries the given role.
func (c Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Keys holds the RSA public key used to verify tokens.
type Keys struct {
	verificationKey *rsa.PublicKey
}

// NewKeys parses a PEM-encoded RSA public key.
func NewKeys(pemBytes []byte) (*Keys, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("parsing auth public key: %w", err)
	}
	return &Keys{verificationKey: key}, nil
}

// ValidateToken verifies the signature and standard claims of a bearer token
// and returns its claims.
func (k *Keys) ValidateToken(token string) (Claims, error) {
	var claims Claims
	tkn, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return k.verificationKey, nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("parsing token: %w", err)
	}
	if !tkn.Valid {
		return Claims{}, fmt.Errorf("invalid token")
	}
	if claims.Subject == "" {
		return Claims{}, fmt.Errorf("token has no subject")
	}
	return claims, nil
}
