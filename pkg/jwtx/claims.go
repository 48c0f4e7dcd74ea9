// Package jwtx holds the claim shapes found in directory-issued access
// tokens and helpers to decode them for display. Verifying signatures is
// the resource server's job; this client only ever inspects.
package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformed reports a token that does not even parse as a JWT.
var ErrMalformed = errors.New("jwtx: malformed token")

// Claims are the access-token claims issued by the directory service. We are
// keeping additive changes to preserve compatibility for later.
type Claims struct {
	jwt.RegisteredClaims

	// TenantID is the tenant the token was issued in ("tid").
	TenantID string `json:"tid,omitempty"`

	// ObjectID is the directory object id of the subject ("oid").
	ObjectID string `json:"oid,omitempty"`

	// UPN is the user principal name, present for directory users.
	UPN string `json:"upn,omitempty"`

	// UniqueName is the legacy sign-in identifier, carried for guest and
	// consumer accounts that have no UPN.
	UniqueName string `json:"unique_name,omitempty"`

	// AppID identifies the client application the token was issued to.
	AppID string `json:"appid,omitempty"`
}

// Username returns the best available sign-in name from the claims.
func (c Claims) Username() string {
	if c.UPN != "" {
		return c.UPN
	}
	return c.UniqueName
}

// NewAccessClaims builds minimally-correct claims for a directory access
// token.
func NewAccessClaims(
	subject, tenantID, upn string,
	issuer string,
	audience []string,
	ttl time.Duration,
	now time.Time,
) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings(audience),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		TenantID:   tenantID,
		ObjectID:   subject,
		UPN:        upn,
		UniqueName: upn,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim. There
// might be a better way of doing this, but I'm being lazy and using random.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// DecodeUnverified parses a token without checking its signature. Display
// and debugging only; never make an authorization decision off these claims.
func DecodeUnverified(token string) (Claims, error) {
	var claims Claims
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return claims, nil
}
