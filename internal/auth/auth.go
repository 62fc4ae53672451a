package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/omriShneor/planit/internal/database"
)

const (
	// SessionDuration is how long session tokens are valid
	SessionDuration = 30 * 24 * time.Hour // 30 days
)

// ErrInvalidSession covers unknown, expired and empty tokens.
var ErrInvalidSession = errors.New("invalid or expired session")

// SessionStore is the subset of the database the auth service needs.
type SessionStore interface {
	CreateSession(userID int64, deviceInfo string, ttl time.Duration) (string, error)
	GetSessionUser(token string) (*database.User, error)
	DeleteSession(token string) error
}

// Service issues and validates opaque session tokens.
type Service struct {
	store SessionStore
	ttl   time.Duration
}

// NewService creates a new authentication service. A zero ttl uses SessionDuration.
func NewService(store SessionStore, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = SessionDuration
	}
	return &Service{store: store, ttl: ttl}
}

// CreateSession issues a token for an existing user.
func (s *Service) CreateSession(userID int64, deviceInfo string) (string, error) {
	token, err := s.store.CreateSession(userID, deviceInfo, s.ttl)
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	return token, nil
}

// ValidateSession resolves a token to the user it belongs to.
func (s *Service) ValidateSession(token string) (*User, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}
	u, err := s.store.GetSessionUser(token)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) || errors.Is(err, database.ErrSessionExpired) {
			return nil, ErrInvalidSession
		}
		return nil, err
	}
	return &User{ID: u.ID, Email: u.Email, Name: u.Name, Timezone: u.Timezone}, nil
}

// Logout removes the session for token.
func (s *Service) Logout(token string) error {
	return s.store.DeleteSession(token)
}
