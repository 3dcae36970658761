// Package token inspects bearer tokens issued by the portal backend.
//
// Tokens are decoded without signature verification: the client only needs the
// expiry and identity claims to decide whether a refresh is due. The backend
// remains the authority on whether a token is actually valid.
package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformed is returned when a token cannot be decoded.
var ErrMalformed = errors.New("malformed token")

// Claims is the decoded payload of a portal bearer token.
type Claims struct {
	jwt.RegisteredClaims
	UserID    string `json:"id,omitempty"`
	UserIDAlt string `json:"userId,omitempty"`
	Email     string `json:"email,omitempty"`
	Role      string `json:"role,omitempty"`
}

// Subject returns the identity the token was issued for.
func (c *Claims) Subject() string {
	switch {
	case c.RegisteredClaims.Subject != "":
		return c.RegisteredClaims.Subject
	case c.UserID != "":
		return c.UserID
	default:
		return c.UserIDAlt
	}
}

// HasExpiry reports whether the token carries an exp claim.
func (c *Claims) HasExpiry() bool {
	return c.ExpiresAt != nil
}

// Expiry returns the exp claim, or the zero time when absent.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

var parser = jwt.NewParser()

// Decode parses the claims segment of token. The header and signature are
// never read, so any alg or an opaque header is accepted.
func Decode(token string) (*Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, ErrMalformed
	}
	payload, err := parser.DecodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &claims, nil
}

// IsExpired reports whether token is expired at the current time.
func IsExpired(token string) bool {
	return IsExpiredAt(token, time.Now())
}

// IsExpiredAt reports whether token is expired at now. Tokens that cannot be
// decoded or that carry no exp claim are treated as expired.
func IsExpiredAt(token string, now time.Time) bool {
	claims, err := Decode(token)
	if err != nil || !claims.HasExpiry() {
		return true
	}
	return !now.Before(claims.Expiry())
}
