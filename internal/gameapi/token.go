// internal/gameapi/token.go
//
// Inspection of the optional bearer token.
// The client cannot verify the signature (it does not hold the secret); it
// only reads the claims so the view can default the scoreboard name to the
// token's username and warn before sending an expired token.

package gameapi

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo holds the claims the client cares about.
type TokenInfo struct {
	ID        string
	Username  string
	ExpiresAt time.Time // zero if the token has no exp claim
}

// Expired reports whether the token carries an exp claim in the past.
func (t TokenInfo) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

// InspectToken parses token without verifying its signature.
func InspectToken(token string) (TokenInfo, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return TokenInfo{}, errors.New("empty token")
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenInfo{}, err
	}

	var info TokenInfo
	info.ID, _ = claims["id"].(string)
	info.Username, _ = claims["username"].(string)
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	return info, nil
}
