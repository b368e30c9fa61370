// Package session carries the acting user into every backend call.
package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/distrohub/mediadesk/internal/config"
)

// ErrNoUser is returned when no user id is available for a request.
var ErrNoUser = errors.New("no signed-in user: set session.user_id or session.token")

// Session identifies the actor. DistributorID scopes report queries and
// falls back to UserID.
type Session struct {
	UserID        string
	DistributorID string
	Token         string
}

// claimKeys are checked in order when reading the user id from a token.
var claimKeys = []string{"userId", "user_id", "id", "sub"}

// New builds a session from explicit values. When userID is empty and a
// token is present, the user id is taken from the token claims.
func New(userID, distributorID, token string) (*Session, error) {
	s := &Session{
		UserID:        strings.TrimSpace(userID),
		DistributorID: strings.TrimSpace(distributorID),
		Token:         strings.TrimSpace(token),
	}

	if s.UserID == "" && s.Token != "" {
		id, err := UserIDFromToken(s.Token)
		if err != nil {
			return nil, err
		}
		s.UserID = id
	}
	if s.DistributorID == "" {
		s.DistributorID = s.UserID
	}
	return s, s.Validate()
}

// FromConfig builds a session from the [session] config section.
func FromConfig(cfg config.SessionConfig) (*Session, error) {
	return New(cfg.UserID, cfg.DistributorID, cfg.Token)
}

// UserIDFromToken reads the user id from a bearer token's claims. The token
// is parsed without signature verification: the backend verifies it, the
// client only needs the identity it names.
func UserIDFromToken(token string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("failed to parse session token: %w", err)
	}
	for _, key := range claimKeys {
		if v, ok := claims[key].(string); ok && v != "" {
			return v, nil
		}
	}
	return "", ErrNoUser
}

// Validate returns ErrNoUser when the session has no user id.
func (s *Session) Validate() error {
	if s == nil || s.UserID == "" {
		return ErrNoUser
	}
	return nil
}

// Distributor returns the id used to scope report queries.
func (s *Session) Distributor() string {
	if s.DistributorID != "" {
		return s.DistributorID
	}
	return s.UserID
}

// AuthHeader returns the Authorization header value, or "" without a token.
func (s *Session) AuthHeader() string {
	if s == nil || s.Token == "" {
		return ""
	}
	return "Bearer " + s.Token
}
