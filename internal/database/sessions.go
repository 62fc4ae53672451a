package database

import (
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"time"
)

// ErrSessionExpired is returned for a known token past its expiry.
var ErrSessionExpired = errors.New("session expired")

func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return base64.StdEncoding.EncodeToString(hash[:])
}

// CreateSession stores a new opaque session token for the user and returns it.
// Only the SHA-256 of the token is persisted.
func (d *DB) CreateSession(userID int64, deviceInfo string, ttl time.Duration) (string, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	token := base64.URLEncoding.EncodeToString(tokenBytes)

	_, err := d.Exec(`
		INSERT INTO user_sessions (user_id, token_hash, expires_at, device_info)
		VALUES (?, ?, ?, ?)
	`, userID, hashToken(token), time.Now().UTC().Add(ttl), deviceInfo)
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}

	return token, nil
}

// GetSessionUser resolves a session token to its user.
func (d *DB) GetSessionUser(token string) (*User, error) {
	tokenHash := hashToken(token)

	var u User
	var expiresAt time.Time
	err := d.QueryRow(`
		SELECT u.id, u.email, u.name, u.timezone, u.created_at, u.updated_at, s.expires_at
		FROM user_sessions s
		JOIN users u ON s.user_id = u.id
		WHERE s.token_hash = ?
	`, tokenHash).Scan(&u.ID, &u.Email, &u.Name, &u.Timezone, &u.CreatedAt, &u.UpdatedAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if time.Now().After(expiresAt) {
		d.Exec(`DELETE FROM user_sessions WHERE token_hash = ?`, tokenHash)
		return nil, ErrSessionExpired
	}

	return &u, nil
}

// DeleteSession invalidates a session token
func (d *DB) DeleteSession(token string) error {
	_, err := d.Exec(`DELETE FROM user_sessions WHERE token_hash = ?`, hashToken(token))
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// CleanupExpiredSessions removes all expired sessions and reports how many.
func (d *DB) CleanupExpiredSessions() (int64, error) {
	result, err := d.Exec(`DELETE FROM user_sessions WHERE julianday(expires_at) < julianday(?)`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup sessions: %w", err)
	}
	return result.RowsAffected()
}
