package service

import (
	"github.com/gofrs/uuid/v5"

	"github.com/and161185/secure-vault/internal/limiter"
)

// Session is the ephemeral state of one interactive caller. It is never
// persisted and must not be shared between goroutines.
type Session struct {
	// ID correlates log lines of one session.
	ID uuid.UUID
	// AuthenticatedUser is empty until a successful login.
	AuthenticatedUser string

	limiter.State
}

// NewSession returns an unauthenticated session with no failed attempts.
func NewSession() (*Session, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	return &Session{ID: id}, nil
}

// Authenticated reports whether a user is logged in.
func (s *Session) Authenticated() bool {
	return s != nil && s.AuthenticatedUser != ""
}
