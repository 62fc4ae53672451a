package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// User represents a user in the system
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Timezone  string    `json:"timezone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateUser inserts a user and its default notification preferences row.
func (d *DB) CreateUser(email, name, timezone string) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, invalidf("email is required")
	}
	if timezone == "" {
		timezone = "UTC"
	}

	result, err := d.Exec(`
		INSERT INTO users (email, name, timezone) VALUES (?, ?, ?)
	`, email, name, timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get user id: %w", err)
	}

	if _, err := d.Exec(`INSERT OR IGNORE INTO notification_preferences (user_id) VALUES (?)`, id); err != nil {
		return nil, fmt.Errorf("failed to init notification prefs: %w", err)
	}

	return d.GetUserByID(id)
}

// GetUserByID retrieves a user by id
func (d *DB) GetUserByID(id int64) (*User, error) {
	var u User
	err := d.QueryRow(`
		SELECT id, email, name, timezone, created_at, updated_at
		FROM users WHERE id = ?
	`, id).Scan(&u.ID, &u.Email, &u.Name, &u.Timezone, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return &u, nil
}

// GetUserByEmail retrieves a user by email (case-insensitive)
func (d *DB) GetUserByEmail(email string) (*User, error) {
	var u User
	err := d.QueryRow(`
		SELECT id, email, name, timezone, created_at, updated_at
		FROM users WHERE email = ?
	`, strings.TrimSpace(strings.ToLower(email))).Scan(&u.ID, &u.Email, &u.Name, &u.Timezone, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, notFound(err, "user")
	}
	return &u, nil
}

// GetUserTimezone returns a user's preferred timezone.
func (d *DB) GetUserTimezone(userID int64) (string, error) {
	var tz sql.NullString
	err := d.QueryRow(`SELECT timezone FROM users WHERE id = ?`, userID).Scan(&tz)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to get user timezone: %w", err)
	}
	if !tz.Valid || tz.String == "" {
		return "UTC", nil
	}
	return tz.String, nil
}

// UpdateUserTimezone updates a user's preferred timezone.
func (d *DB) UpdateUserTimezone(userID int64, timezone string) error {
	result, err := d.Exec(`
		UPDATE users
		SET timezone = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, timezone, userID)
	if err != nil {
		return fmt.Errorf("failed to update user timezone: %w", err)
	}
	return checkAffected(result, "user")
}
